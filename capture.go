package bluecast

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CapturedPost holds the plain values a capture layer extracts from a live
// composer: the text, attached image and video byte-sources, and an optional
// quote link. The core does not know or care how these were obtained.
type CapturedPost struct {
	Text     string
	Images   []CapturedImage
	Video    *CapturedVideo
	QuoteURL string
}

// CapturedImage pairs an image byte-source with its alt text.
type CapturedImage struct {
	Source MediaSource
	Alt    string
}

// CapturedVideo is a video byte-source with optional alt text.
type CapturedVideo struct {
	Source MediaSource
	Alt    string
}

// MediaSource yields the bytes and MIME type of one attached media item.
// Sources are ephemeral: they exist for the duration of one submission.
type MediaSource interface {
	Open(ctx context.Context) (io.ReadCloser, string, error)
}

// HTTPMediaSource fetches media from a URL, typically the src of an
// attachment preview in the composer.
type HTTPMediaSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPMediaSource) Open(ctx context.Context) (io.ReadCloser, string, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, "", fmt.Errorf("fetch %s: status %d", s.URL, resp.StatusCode)
	}
	mimeType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return resp.Body, mimeType, nil
}

// BytesMediaSource serves media from memory.
type BytesMediaSource struct {
	Data     []byte
	MimeType string
}

func (s *BytesMediaSource) Open(ctx context.Context) (io.ReadCloser, string, error) {
	mimeType := s.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(s.Data)
	}
	return io.NopCloser(bytes.NewReader(s.Data)), mimeType, nil
}

// readMediaSource drains a source and returns its bytes and MIME type.
func readMediaSource(ctx context.Context, source MediaSource) ([]byte, string, error) {
	reader, mimeType, err := source.Open(ctx)
	if err != nil {
		return nil, "", err
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}
