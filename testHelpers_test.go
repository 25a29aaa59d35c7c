package bluecast

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// A valid CID for fake blob responses; the blob decoder parses it.
const testBlobCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

// newTestServer wraps handler with a stub describeServer endpoint so
// NewCustomClient's verification passes.
func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/xrpc/com.atproto.server.describeServer" {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"did":                  "did:web:test.example",
				"availableUserDomains": []string{},
			})
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server, store SessionStore) *Client {
	t.Helper()
	settings := &Settings{
		ServiceURL:       server.URL,
		Identifier:       "test.bsky.social",
		AppPassword:      "xxxx-xxxx-xxxx-xxxx",
		CrosspostEnabled: true,
	}
	client, err := NewCustomClient(context.Background(), settings, &http.Client{}, store, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func sessionResponse(accessJwt string) map[string]interface{} {
	return map[string]interface{}{
		"accessJwt":  accessJwt,
		"refreshJwt": "refresh-" + accessJwt,
		"handle":     "test.bsky.social",
		"did":        "did:plc:test123",
	}
}

func blobResponse(mimeType string, size int) map[string]interface{} {
	return map[string]interface{}{
		"blob": map[string]interface{}{
			"$type":    "blob",
			"ref":      map[string]interface{}{"$link": testBlobCID},
			"mimeType": mimeType,
			"size":     size,
		},
	}
}

func createRecordResponse() map[string]interface{} {
	return map[string]interface{}{
		"uri": "at://did:plc:test123/app.bsky.feed.post/abc123",
		"cid": "bafyreitest123",
	}
}

// makePNG renders a solid-color PNG of the given dimensions.
func makePNG(t *testing.T, width, height int, fill color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
