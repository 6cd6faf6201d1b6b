package imagecodec

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newCodec() *Codec {
	return New(types.DefaultConfig().Image)
}

func TestEncodeDecodeBoundsLongestSide(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		wantW int
		wantH int
	}{
		{name: "small image kept", w: 200, h: 200, wantW: 200, wantH: 200},
		{name: "wide image scaled", w: 1200, h: 600, wantW: 400, wantH: 200},
		{name: "tall image scaled", w: 300, h: 900, wantW: 133, wantH: 400},
		{name: "exact bound kept", w: 400, h: 10, wantW: 400, wantH: 10},
	}

	c := newCodec()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := c.Encode(pngBytes(t, tt.w, tt.h, color.NRGBA{R: 200, G: 40, B: 40, A: 255}))
			require.NoError(t, err)
			require.NotEmpty(t, text)

			img, err := DecodeImage(text)
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, img.Bounds().Dx())
			assert.Equal(t, tt.wantH, img.Bounds().Dy())
		})
	}
}

func TestEncodeProducesJPEG(t *testing.T) {
	text, err := newCodec().Encode(pngBytes(t, 50, 50, color.Black))
	require.NoError(t, err)

	data, err := Decode(text)
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestEncodeAcceptsGIF(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 20, 10), color.Palette{color.White, color.Black})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, pal, nil))

	text, err := newCodec().Encode(buf.Bytes())
	require.NoError(t, err)
	img, err := DecodeImage(text)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
}

func TestEncodeFlattensTransparencyToWhite(t *testing.T) {
	text, err := newCodec().Encode(pngBytes(t, 16, 16, color.NRGBA{}))
	require.NoError(t, err)

	img, err := DecodeImage(text)
	require.NoError(t, err)
	r, g, b, _ := img.At(8, 8).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestEncodeEmptyInputIsSentinel(t *testing.T) {
	text, err := newCodec().Encode(nil)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestEncodeInvalidImage(t *testing.T) {
	_, err := newCodec().Encode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, types.ErrInvalidImage)
}

func TestEncodeRejectsOversizedInput(t *testing.T) {
	c := New(types.ImageConfig{MaxDimension: 400, Quality: 40, MaxInputBytes: 16})
	_, err := c.Encode(pngBytes(t, 10, 10, color.Black))
	assert.ErrorIs(t, err, types.ErrInvalidImage)
}

func TestDecodeSentinel(t *testing.T) {
	_, err := Decode("")
	assert.ErrorIs(t, err, types.ErrNoPhoto)
}

func TestDecodeInvalidText(t *testing.T) {
	_, err := Decode("***not base64***")
	assert.ErrorIs(t, err, types.ErrInvalidImage)

	_, err = Decode(base64.StdEncoding.EncodeToString([]byte("plain text")))
	assert.ErrorIs(t, err, types.ErrInvalidImage)
}

func TestNewAppliesDefaults(t *testing.T) {
	c := New(types.ImageConfig{})
	assert.Equal(t, types.DefaultMaxDimension, c.maxDimension)
	assert.Equal(t, types.DefaultQuality, c.quality)
	assert.Equal(t, types.DefaultMaxInputBytes, c.maxInputBytes)
	assert.Equal(t, types.DefaultMaxPixels, c.maxPixels)
}

// A blank canvas compresses to a few hundred KB while declaring more pixels
// than the default budget; it must be refused from its header alone.
func TestEncodeRejectsHugeCanvas(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8000, 6000))))
	require.Less(t, buf.Len(), types.DefaultMaxInputBytes)

	_, err := New(types.ImageConfig{}).Encode(buf.Bytes())
	assert.ErrorIs(t, err, types.ErrInvalidImage)
	assert.ErrorContains(t, err, "pixel limit")
}

func TestEncodePixelBudget(t *testing.T) {
	data := pngBytes(t, 300, 200, color.White)

	_, err := New(types.ImageConfig{MaxInputPixels: 300*200 - 1}).Encode(data)
	assert.ErrorIs(t, err, types.ErrInvalidImage)

	text, err := New(types.ImageConfig{MaxInputPixels: 300 * 200}).Encode(data)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestScaledSizeNeverZero(t *testing.T) {
	w, h := scaledSize(10000, 1, 400)
	assert.Equal(t, 400, w)
	assert.Equal(t, 1, h)
}
