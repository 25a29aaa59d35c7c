package bluecast

import (
	"bytes"
	"image"
	"image/jpeg"
	"math"
	"net/http"

	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Upload bounds. The service enforces a hard per-blob size ceiling around
// 1MB, so camera and screenshot images must be shrunk and re-compressed
// before upload. Link-card thumbnails use a smaller bound and more
// aggressive quality than post-attached images.
const (
	MaxImageDimension = 1024
	ImageQuality      = 0.8
	ThumbDimension    = 600
	ThumbQuality      = 0.7
)

// AspectRatio is the pixel aspect ratio of an uploaded image, expressed as
// its final rendered dimensions.
type AspectRatio struct {
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// ResizedImage is the output of ResizeImage: re-encoded bytes, their MIME
// type, and the final pixel dimensions.
type ResizedImage struct {
	Data        []byte
	MimeType    string
	AspectRatio AspectRatio
}

// ResizeImage bounds an image's pixel dimensions to maxDimension, flattens
// transparency onto an opaque white background, and re-encodes it as JPEG at
// the given quality (0–1 scale). The reported aspect ratio is the final
// rendered size, not the original. It never fails: undecodable input is
// returned unchanged with a 1:1 aspect-ratio placeholder, so a decode
// failure degrades the upload instead of aborting the submission.
func ResizeImage(data []byte, srcMime string, maxDimension int, quality float64) ResizedImage {
	fallback := ResizedImage{
		Data:        data,
		MimeType:    srcMime,
		AspectRatio: AspectRatio{Width: 1, Height: 1},
	}
	if fallback.MimeType == "" {
		fallback.MimeType = http.DetectContentType(data)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fallback
	}

	bounds := src.Bounds()
	width, height := boundDimensions(bounds.Dx(), bounds.Dy(), maxDimension)
	if width < 1 || height < 1 {
		return fallback
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, xdraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		return fallback
	}

	return ResizedImage{
		Data:        buf.Bytes(),
		MimeType:    "image/jpeg",
		AspectRatio: AspectRatio{Width: int64(width), Height: int64(height)},
	}
}

// boundDimensions scales (width, height) proportionally so the larger axis
// equals maxDimension, with integer rounding. Dimensions already within
// bounds are returned unchanged.
func boundDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}
	if width > height {
		return maxDimension, int(math.Round(float64(height) * float64(maxDimension) / float64(width)))
	}
	return int(math.Round(float64(width) * float64(maxDimension) / float64(height))), maxDimension
}

// jpegQuality maps a 0–1 quality to the encoder's 1–100 range.
func jpegQuality(quality float64) int {
	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}
