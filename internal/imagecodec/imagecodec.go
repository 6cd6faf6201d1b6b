// Package imagecodec turns captured photos into compact base64 JPEG text that
// can be stored inline in a table row, and back into displayable bytes.
package imagecodec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

// Codec encodes photos with a fixed size bound and JPEG quality.
type Codec struct {
	maxDimension  int
	quality       int
	maxInputBytes int
	maxPixels     int
}

// New creates a Codec from the image configuration. Zero values fall back to
// the package defaults in types.
func New(cfg types.ImageConfig) *Codec {
	c := &Codec{
		maxDimension:  cfg.MaxDimension,
		quality:       cfg.Quality,
		maxInputBytes: cfg.MaxInputBytes,
		maxPixels:     cfg.MaxInputPixels,
	}
	if c.maxDimension <= 0 {
		c.maxDimension = types.DefaultMaxDimension
	}
	if c.quality <= 0 || c.quality > 100 {
		c.quality = types.DefaultQuality
	}
	if c.maxInputBytes <= 0 {
		c.maxInputBytes = types.DefaultMaxInputBytes
	}
	if c.maxPixels <= 0 {
		c.maxPixels = types.DefaultMaxPixels
	}
	return c
}

// Encode decodes a JPEG, PNG, GIF or WebP photo, shrinks it so its longest
// side fits the configured bound, and returns the re-encoded JPEG as base64 text.
// Empty input yields the empty string. Undecodable input returns an error
// wrapping types.ErrInvalidImage, as does a header declaring more pixels than
// the configured budget; the raster is never allocated in that case.
func (c *Codec) Encode(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if len(data) > c.maxInputBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds limit of %d", types.ErrInvalidImage, len(data), c.maxInputBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: zero-sized image", types.ErrInvalidImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(c.maxPixels) {
		return "", fmt.Errorf("%w: %dx%d exceeds pixel limit of %d",
			types.ErrInvalidImage, cfg.Width, cfg.Height, c.maxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidImage, err)
	}
	if src.Bounds().Empty() {
		return "", fmt.Errorf("%w: zero-sized image", types.ErrInvalidImage)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(src, c.maxDimension), &jpeg.Options{Quality: c.quality}); err != nil {
		return "", fmt.Errorf("encoding jpeg: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode turns stored photo text back into JPEG bytes. The empty sentinel
// returns types.ErrNoPhoto.
func Decode(text string) ([]byte, error) {
	if text == "" {
		return nil, types.ErrNoPhoto
	}
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidImage, err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidImage, err)
	}
	return data, nil
}

// DecodeImage decodes stored photo text into a raster image.
func DecodeImage(text string) (image.Image, error) {
	data, err := Decode(text)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidImage, err)
	}
	return img, nil
}

// scaledSize returns w x h scaled so the longest side is at most maxSide.
func scaledSize(w, h, maxSide int) (int, int) {
	if w <= maxSide && h <= maxSide {
		return w, h
	}
	if w >= h {
		return maxSide, max(1, h*maxSide/w)
	}
	return max(1, w*maxSide/h), maxSide
}

// flatten draws src onto an opaque white canvas of the scaled size. JPEG has
// no alpha channel, so transparent regions become white instead of black.
func flatten(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := scaledSize(b.Dx(), b.Dy(), maxSide)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
