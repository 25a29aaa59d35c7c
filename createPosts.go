package bluecast

import (
	"context"
	"fmt"
	"time"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/syntax"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/util"
)

const postCollection = "app.bsky.feed.post"

// PostRef provides a content-addressed reference to a created post.
// The Uri points to the post's location, while the Cid is a cryptographic
// hash of the post content.
type PostRef struct {
	Cid string `json:"cid"`
	Uri string `json:"uri"`
}

// IsValid validates the format of both the Cid and Uri. It does not check if
// they actually work/exist, just that they are formatted correctly
func (ref *PostRef) IsValid() bool {
	if _, err := syntax.ParseCID(ref.Cid); err != nil {
		return false
	}
	if _, err := syntax.ParseATURI(ref.Uri); err != nil {
		return false
	}
	return true
}

// BuildRecord combines captured text, parsed facets, and the selected embed
// into a final post record. A quote link, when present, is appended as a
// trailing line and the facets are re-parsed over the longer text so the
// link itself gets a facet; the embed's URL scan still sees only the
// original composer text. The returned errors describe media items skipped
// along the way.
func (c *Client) BuildRecord(ctx context.Context, post *CapturedPost) (*bsky.FeedPost, []error) {
	text := post.Text
	facets := ParseFacets(text)

	embed, skipped := c.BuildEmbed(ctx, post)

	if post.QuoteURL != "" {
		text += "\n" + post.QuoteURL
		facets = ParseFacets(text)
	}

	record := &bsky.FeedPost{
		LexiconTypeID: postCollection,
		Text:          text,
		CreatedAt:     time.Now().UTC().Format(util.ISO8601),
		Embed:         embed,
	}
	if converted := facetsToBsky(facets); len(converted) > 0 {
		record.Facets = converted
	}
	return record, skipped
}

// PublishPost submits a finished record to the authenticated account's
// repository. Size and ordering validation is the service's job; the record
// is sent as assembled.
func (c *Client) PublishPost(ctx context.Context, record *bsky.FeedPost) (*PostRef, error) {
	if c.xrpc.Auth == nil {
		return nil, fmt.Errorf("%w: no session", ErrBadLogin)
	}
	resp, err := atproto.RepoCreateRecord(ctx, c.xrpc, &atproto.RepoCreateRecord_Input{
		Collection: postCollection,
		Repo:       c.xrpc.Auth.Did,
		Record: &lexutil.LexiconTypeDecoder{
			Val: record,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	c.log.Info().Str("uri", resp.Uri).Msg("post created")
	return &PostRef{
		Cid: resp.Cid,
		Uri: resp.Uri,
	}, nil
}
