package bluecast

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bluesky-social/indigo/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRecordPlainText(t *testing.T) {
	server := newTestServer(t, http.NotFound)
	client := newTestClient(t, server, NewMemorySessionStore())

	record, skipped := client.BuildRecord(context.Background(), &CapturedPost{Text: "nothing fancy"})
	require.Empty(t, skipped)
	assert.Equal(t, "app.bsky.feed.post", record.LexiconTypeID)
	assert.Equal(t, "nothing fancy", record.Text)
	assert.Nil(t, record.Embed)
	assert.Nil(t, record.Facets)

	_, err := time.Parse(util.ISO8601, record.CreatedAt)
	assert.NoError(t, err)
}

func TestBuildRecordQuoteLinkAppendedAndFaceted(t *testing.T) {
	server := newTestServer(t, http.NotFound)
	client := newTestClient(t, server, NewMemorySessionStore())

	quoteURL := "https://twitter.com/someone/status/12345"
	post := &CapturedPost{
		Text:     "check this out",
		QuoteURL: quoteURL,
	}
	record, skipped := client.BuildRecord(context.Background(), post)
	require.Empty(t, skipped)

	assert.Equal(t, "check this out\n"+quoteURL, record.Text)

	// The appended link is faceted even though it was never composer text.
	require.Len(t, record.Facets, 1)
	facet := record.Facets[0]
	require.NotNil(t, facet.Features[0].RichtextFacet_Link)
	assert.Equal(t, quoteURL, facet.Features[0].RichtextFacet_Link.Uri)
	assert.EqualValues(t, len("check this out\n"), facet.Index.ByteStart)
	assert.EqualValues(t, len(record.Text), facet.Index.ByteEnd)

	// The quote link lives in the text, not in a link card.
	assert.Nil(t, record.Embed)
}

func TestBuildRecordFullScenario(t *testing.T) {
	mux := http.NewServeMux()
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
	})
	mux.HandleFunc("/xrpc/com.atproto.repo.uploadBlob", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, blobResponse(r.Header.Get("Content-Type"), 4321))
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<meta property="og:title" content="Example">
			<meta property="og:description" content="An example page">
		</head></html>`))
	})
	client := newTestClient(t, server, NewMemorySessionStore())

	pageURL := server.URL + "/page"
	text := "Hello #bsky check " + pageURL
	record, skipped := client.BuildRecord(context.Background(), &CapturedPost{Text: text})
	require.Empty(t, skipped)

	assert.Equal(t, text, record.Text)

	require.Len(t, record.Facets, 2)
	tag := record.Facets[0]
	require.NotNil(t, tag.Features[0].RichtextFacet_Tag)
	assert.Equal(t, "bsky", tag.Features[0].RichtextFacet_Tag.Tag)
	assert.EqualValues(t, 6, tag.Index.ByteStart)
	assert.EqualValues(t, 11, tag.Index.ByteEnd)

	link := record.Facets[1]
	require.NotNil(t, link.Features[0].RichtextFacet_Link)
	assert.Equal(t, pageURL, link.Features[0].RichtextFacet_Link.Uri)
	assert.EqualValues(t, len("Hello #bsky check "), link.Index.ByteStart)
	assert.EqualValues(t, len(text), link.Index.ByteEnd)

	require.NotNil(t, record.Embed)
	require.NotNil(t, record.Embed.EmbedExternal)
	external := record.Embed.EmbedExternal.External
	assert.Equal(t, pageURL, external.Uri)
	assert.Equal(t, "Example", external.Title)
	assert.Equal(t, "An example page", external.Description)
	assert.Nil(t, external.Thumb)
}

func TestPublishPostWithoutSession(t *testing.T) {
	server := newTestServer(t, http.NotFound)
	client := newTestClient(t, server, NewMemorySessionStore())

	record, _ := client.BuildRecord(context.Background(), &CapturedPost{Text: "hi"})
	_, err := client.PublishPost(context.Background(), record)
	assert.ErrorIs(t, err, ErrBadLogin)
}

func TestPublishPostReturnsReference(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/xrpc/com.atproto.server.createSession":
			writeJSON(w, http.StatusOK, sessionResponse("access-1"))
		case "/xrpc/com.atproto.repo.createRecord":
			writeJSON(w, http.StatusOK, createRecordResponse())
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	client := newTestClient(t, server, NewMemorySessionStore())
	_, err := client.EnsureSession(context.Background())
	require.NoError(t, err)

	record, _ := client.BuildRecord(context.Background(), &CapturedPost{Text: "hi"})
	ref, err := client.PublishPost(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, "at://did:plc:test123/app.bsky.feed.post/abc123", ref.Uri)
	assert.Equal(t, "bafyreitest123", ref.Cid)
}

func TestPostRefIsValid(t *testing.T) {
	valid := &PostRef{
		Cid: testBlobCID,
		Uri: "at://did:plc:test123/app.bsky.feed.post/abc123",
	}
	assert.True(t, valid.IsValid())

	assert.False(t, (&PostRef{Cid: "", Uri: valid.Uri}).IsValid())
	assert.False(t, (&PostRef{Cid: valid.Cid, Uri: "https://example.com"}).IsValid())
}
