package bluecast

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/xrpc"
	"github.com/rs/zerolog"
)

const defaultServiceURL = "https://bsky.social"

var (
	ErrBadLogin          = errors.New("bad login credentials")
	ErrBadServer         = errors.New("could not verify server")
	ErrBadResponse       = errors.New("bad response from server")
	ErrUploadFailed      = errors.New("blob upload failed")
	ErrPostingInProgress = errors.New("a submission is already in progress")
)

// Client is an authenticated Bluesky/AtProto posting client. It owns the
// xrpc transport, a single-slot session that is validated lazily and
// replaced wholesale on expiry, and the media/link-card resolution used to
// build post embeds.
type Client struct {
	xrpc     *xrpc.Client
	http     *http.Client
	store    SessionStore
	settings *Settings
	log      zerolog.Logger

	// mu guards session; it is read-then-conditionally-replaced, never
	// partially mutated.
	mu      sync.Mutex
	session *Session
}

// NewDefaultClient creates a Client with a standard HTTP client, an
// in-memory session store, and no logging. This is the recommended way to
// create a client for most users.
//
// Example:
//
//	client, err := bluecast.NewDefaultClient(ctx, settings)
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewDefaultClient(ctx context.Context, settings *Settings) (*Client, error) {
	return NewCustomClient(ctx, settings, new(http.Client), NewMemorySessionStore(), zerolog.Nop())
}

// NewCustomClient creates a Client with custom configuration: a specific
// HTTP client, a persistent session store, and a logger for per-step
// diagnostics. The service URL is taken from settings (defaulting to
// bsky.social). Returns an error if the server cannot be reached or
// verified.
func NewCustomClient(ctx context.Context, settings *Settings, httpClient *http.Client, store SessionStore, logger zerolog.Logger) (*Client, error) {
	if settings == nil {
		settings = &Settings{}
	}
	if httpClient == nil {
		httpClient = new(http.Client)
	}
	if store == nil {
		store = NewMemorySessionStore()
	}
	local := &xrpc.Client{
		Client: httpClient,
		Host:   settings.serviceURL(),
	}
	if _, err := atproto.ServerDescribeServer(ctx, local); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadServer, err)
	}

	return &Client{
		xrpc:     local,
		http:     httpClient,
		store:    store,
		settings: settings,
		log:      logger,
	}, nil
}
