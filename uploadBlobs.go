package bluecast

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/bluesky-social/indigo/api/atproto"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
)

// UploadBlob uploads raw binary data as a blob. The request Content-Type is
// the blob's own MIME type; the service stores and validates blobs by the
// declared type, so a generic content type would break image embeds.
func (c *Client) UploadBlob(ctx context.Context, data []byte, mimeType string) (*lexutil.LexBlob, error) {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	var out atproto.RepoUploadBlob_Output
	err := c.xrpc.Do(ctx, xrpc.Procedure, mimeType, "com.atproto.repo.uploadBlob", nil, bytes.NewReader(data), &out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if out.Blob == nil {
		return nil, fmt.Errorf("%w: upload response missing blob", ErrBadResponse)
	}

	c.log.Debug().Str("mimeType", mimeType).Int("size", len(data)).Msg("blob uploaded")
	return out.Blob, nil
}
