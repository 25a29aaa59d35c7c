package bluecast

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/xrpc"
	"github.com/golang-jwt/jwt/v5"
)

// Session holds the bearer tokens obtained from a login exchange, plus the
// expiry hint read from the access JWT. At most one valid Session exists at
// a time; re-login replaces it wholesale.
type Session struct {
	AccessJwt  string    `json:"accessJwt"`
	RefreshJwt string    `json:"refreshJwt"`
	Handle     string    `json:"handle"`
	Did        string    `json:"did"`
	ExpiresAt  time.Time `json:"expiresAt,omitempty"`
}

// EnsureSession returns a valid session, logging in if needed. A cached
// session is checked against the server; an auth-specific failure
// (expired/invalid token) discards it and performs exactly one re-login, while
// any other failure is treated as transient and the cached session is
// returned as-is. Login failures are not retried; they propagate wrapped in
// ErrBadLogin.
func (c *Client) EnsureSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		stored, err := c.store.Load()
		if err != nil {
			c.log.Warn().Err(err).Msg("failed to load stored session")
		} else if stored != nil {
			c.session = stored
			c.applySession(stored)
			c.log.Debug().Str("handle", stored.Handle).Msg("restored stored session")
		}
	}
	if c.session == nil {
		return c.login(ctx)
	}

	if _, err := atproto.ServerGetSession(ctx, c.xrpc); err != nil {
		if isAuthError(err) {
			c.log.Info().Msg("session expired, logging in again")
			c.session = nil
			c.xrpc.Auth = nil
			return c.login(ctx)
		}
		// Transient check failure: reuse the cached session optimistically
		// and let the actual write call surface its own error.
		c.log.Warn().Err(err).Msg("session check failed, reusing cached session")
	}
	return c.session, nil
}

func (c *Client) login(ctx context.Context) (*Session, error) {
	if !c.settings.Configured() {
		return nil, fmt.Errorf("%w: missing identifier or app password", ErrBadLogin)
	}
	out, err := atproto.ServerCreateSession(ctx, c.xrpc, &atproto.ServerCreateSession_Input{
		Identifier: c.settings.Identifier,
		Password:   c.settings.AppPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadLogin, err)
	}

	session := &Session{
		AccessJwt:  out.AccessJwt,
		RefreshJwt: out.RefreshJwt,
		Handle:     out.Handle,
		Did:        out.Did,
	}
	if expiry, err := tokenExpiry(out.AccessJwt); err != nil {
		c.log.Debug().Err(err).Msg("could not read token expiry")
	} else {
		session.ExpiresAt = expiry
	}

	c.session = session
	c.applySession(session)
	if err := c.store.Save(session); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist session")
	}
	c.log.Info().Str("handle", session.Handle).Str("did", session.Did).Msg("logged in")
	return session, nil
}

func (c *Client) applySession(session *Session) {
	c.xrpc.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}
}

// tokenExpiry extracts the expiration time from an access JWT without
// verifying its signature.
func tokenExpiry(token string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if parsed == nil || (err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable)) {
		return time.Time{}, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	expiry, err := parsed.Claims.GetExpirationTime()
	if expiry == nil || err != nil {
		return time.Time{}, fmt.Errorf("%w: missing expiration claim", ErrBadResponse)
	}
	return expiry.Time, nil
}

// Error strings the service uses for dead tokens.
var authErrorStrings = map[string]bool{
	"ExpiredToken":           true,
	"InvalidToken":           true,
	"AuthenticationRequired": true,
}

// isAuthError reports whether err is an auth-specific failure that should
// invalidate the cached session, as opposed to a transient one.
func isAuthError(err error) bool {
	var xe *xrpc.Error
	if !errors.As(err, &xe) {
		return false
	}
	if xe.StatusCode == http.StatusUnauthorized {
		return true
	}
	var body *xrpc.XRPCError
	if errors.As(xe.Wrapped, &body) {
		return authErrorStrings[body.ErrStr]
	}
	return false
}
