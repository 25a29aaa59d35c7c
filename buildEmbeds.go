package bluecast

import (
	"context"
	"fmt"
	"sync"

	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
)

// maxPostImages is the most images a single post may carry.
const maxPostImages = 4

// EmbedType identifies the type of embedded content in a post.
type EmbedType int

const (
	EmbedTypeNone EmbedType = iota
	EmbedTypeImages
	EmbedTypeVideo
	EmbedTypeExternal
)

func (et EmbedType) String() string {
	switch et {
	case EmbedTypeImages:
		return "Images"
	case EmbedTypeVideo:
		return "Video"
	case EmbedTypeExternal:
		return "External Link"
	default:
		return "No Embed"
	}
}

func embedType(embed *bsky.FeedPost_Embed) EmbedType {
	switch {
	case embed == nil:
		return EmbedTypeNone
	case embed.EmbedImages != nil:
		return EmbedTypeImages
	case embed.EmbedVideo != nil:
		return EmbedTypeVideo
	case embed.EmbedExternal != nil:
		return EmbedTypeExternal
	default:
		return EmbedTypeNone
	}
}

// BuildEmbed chooses and builds the single embed a post may carry. The
// choice is exclusive, in fixed priority: attached images, else an attached
// video, else a link card for the first URL in the text. The returned errors
// describe media items that were skipped without aborting the embed; a nil
// embed with skip errors means every candidate failed and the post should
// proceed as plain text.
func (c *Client) BuildEmbed(ctx context.Context, post *CapturedPost) (*bsky.FeedPost_Embed, []error) {
	var embed *bsky.FeedPost_Embed
	var skipped []error

	switch {
	case len(post.Images) > 0:
		embed, skipped = c.buildImagesEmbed(ctx, post.Images)
	case post.Video != nil:
		embed, skipped = c.buildVideoEmbed(ctx, post.Video)
	default:
		if pageURL := linkPattern.FindString(post.Text); pageURL != "" {
			embed = c.buildExternalEmbed(ctx, pageURL)
		}
	}

	c.log.Debug().Stringer("embed", embedType(embed)).Int("skipped", len(skipped)).Msg("embed selected")
	return embed, skipped
}

// buildImagesEmbed transcodes and uploads up to four images. Each image runs
// as an independent resize-then-upload chain; results are collected
// positionally so failures skip one item while the survivors keep their
// original relative order.
func (c *Client) buildImagesEmbed(ctx context.Context, images []CapturedImage) (*bsky.FeedPost_Embed, []error) {
	if len(images) > maxPostImages {
		images = images[:maxPostImages]
	}

	type imageResult struct {
		image *bsky.EmbedImages_Image
		err   error
	}
	results := make([]imageResult, len(images))

	var wg sync.WaitGroup
	for i, attachment := range images {
		wg.Add(1)
		go func(i int, attachment CapturedImage) {
			defer wg.Done()
			data, mimeType, err := readMediaSource(ctx, attachment.Source)
			if err != nil {
				results[i].err = fmt.Errorf("image %d: %w", i+1, err)
				return
			}
			resized := ResizeImage(data, mimeType, MaxImageDimension, ImageQuality)
			c.log.Debug().Int("index", i).Int("size", len(resized.Data)).
				Int64("width", resized.AspectRatio.Width).Int64("height", resized.AspectRatio.Height).
				Msg("image resized for upload limit")
			blob, err := c.UploadBlob(ctx, resized.Data, resized.MimeType)
			if err != nil {
				results[i].err = fmt.Errorf("image %d: %w", i+1, err)
				return
			}
			results[i].image = &bsky.EmbedImages_Image{
				Alt:   attachment.Alt,
				Image: blob,
				AspectRatio: &bsky.EmbedDefs_AspectRatio{
					Width:  resized.AspectRatio.Width,
					Height: resized.AspectRatio.Height,
				},
			}
		}(i, attachment)
	}
	wg.Wait()

	var uploaded []*bsky.EmbedImages_Image
	var skipped []error
	for _, result := range results {
		if result.err != nil {
			skipped = append(skipped, result.err)
			continue
		}
		uploaded = append(uploaded, result.image)
	}
	if len(uploaded) == 0 {
		return nil, skipped
	}
	return &bsky.FeedPost_Embed{
		EmbedImages: &bsky.EmbedImages{
			LexiconTypeID: "app.bsky.embed.images",
			Images:        uploaded,
		},
	}, skipped
}

// buildVideoEmbed uploads a single video as-is; there is no transcoding
// path for video.
func (c *Client) buildVideoEmbed(ctx context.Context, video *CapturedVideo) (*bsky.FeedPost_Embed, []error) {
	data, mimeType, err := readMediaSource(ctx, video.Source)
	if err != nil {
		return nil, []error{fmt.Errorf("video: %w", err)}
	}
	blob, err := c.UploadBlob(ctx, data, mimeType)
	if err != nil {
		return nil, []error{fmt.Errorf("video: %w", err)}
	}
	return &bsky.FeedPost_Embed{
		EmbedVideo: &bsky.EmbedVideo{
			LexiconTypeID: "app.bsky.embed.video",
			Video:         blob,
			Alt:           optionalString(video.Alt),
		},
	}, nil
}

// buildExternalEmbed synthesizes a link card for pageURL. A thumbnail is
// best-effort: fetch or upload failures drop the thumb, never the card. Only
// the absence of a usable title suppresses the card entirely.
func (c *Client) buildExternalEmbed(ctx context.Context, pageURL string) *bsky.FeedPost_Embed {
	card := c.ResolveLinkCard(ctx, pageURL)
	if card.Title == "" {
		c.log.Warn().Str("url", pageURL).Msg("no title found, skipping link card")
		return nil
	}

	external := &bsky.EmbedExternal_External{
		Uri:         pageURL,
		Title:       card.Title,
		Description: card.Description,
	}
	if card.ImageURL != "" {
		external.Thumb = c.uploadThumbnail(ctx, card.ImageURL)
	}
	return &bsky.FeedPost_Embed{
		EmbedExternal: &bsky.EmbedExternal{
			LexiconTypeID: "app.bsky.embed.external",
			External:      external,
		},
	}
}

func (c *Client) uploadThumbnail(ctx context.Context, imageURL string) *lexutil.LexBlob {
	source := &HTTPMediaSource{URL: imageURL, Client: c.http}
	data, mimeType, err := readMediaSource(ctx, source)
	if err != nil {
		c.log.Warn().Err(err).Str("url", imageURL).Msg("failed to fetch thumbnail")
		return nil
	}
	resized := ResizeImage(data, mimeType, ThumbDimension, ThumbQuality)
	blob, err := c.UploadBlob(ctx, resized.Data, resized.MimeType)
	if err != nil {
		c.log.Warn().Err(err).Str("url", imageURL).Msg("failed to upload thumbnail")
		return nil
	}
	return blob
}
