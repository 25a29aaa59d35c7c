package bluecast

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	linkCardTimeout = 15 * time.Second

	// Field caps enforced by the service on external embeds.
	maxCardTitleLen       = 300
	maxCardDescriptionLen = 1000
)

// LinkCard is the preview synthesized by scraping a target page's metadata.
// Any field except Title may be empty.
type LinkCard struct {
	Title       string
	Description string
	ImageURL    string
}

// ResolveLinkCard fetches pageURL and extracts title, description, and
// preview image from standard page-metadata conventions (Open Graph, then
// Twitter card, then the page title itself). It never fails: fetch errors,
// timeouts, and parse errors all fall back to a card titled with the URL's
// hostname. A relative preview-image URL is resolved against the page's own
// origin.
func (c *Client) ResolveLinkCard(ctx context.Context, pageURL string) LinkCard {
	ctx, cancel := context.WithTimeout(ctx, linkCardTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fallbackLinkCard(pageURL)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("url", pageURL).Msg("link card fetch failed")
		return fallbackLinkCard(pageURL)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		c.log.Warn().Err(err).Str("url", pageURL).Msg("link card parse failed")
		return fallbackLinkCard(pageURL)
	}

	title := metaContent(doc, "og:title", "twitter:title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = hostnameTitle(pageURL)
	}

	description := metaContent(doc, "og:description", "twitter:description", "description")
	imageURL := metaContent(doc, "og:image", "twitter:image", "twitter:image:src", "og:image:secure_url")

	if imageURL != "" && !strings.HasPrefix(imageURL, "http") {
		imageURL = resolveAgainstOrigin(pageURL, imageURL)
	}

	card := LinkCard{
		Title:       truncateRunes(title, maxCardTitleLen),
		Description: truncateRunes(description, maxCardDescriptionLen),
		ImageURL:    imageURL,
	}
	c.log.Debug().Str("url", pageURL).Str("title", card.Title).Str("image", card.ImageURL).Msg("link card resolved")
	return card
}

// metaContent returns the first non-empty content attribute among the given
// metadata keys, checking both property= and name= forms.
func metaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		selector := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)
		content := strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
		if content != "" {
			return content
		}
	}
	return ""
}

func fallbackLinkCard(pageURL string) LinkCard {
	return LinkCard{Title: hostnameTitle(pageURL)}
}

func hostnameTitle(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Hostname() == "" {
		return "Link"
	}
	return parsed.Hostname()
}

// resolveAgainstOrigin resolves a relative reference against the page's own
// origin, returning "" when either URL is unusable.
func resolveAgainstOrigin(pageURL, ref string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	relative, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(relative).String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
