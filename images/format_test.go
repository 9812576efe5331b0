package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	tests := map[string]ImageFormat{
		"a.jpg":           FormatJPEG,
		"b.JPEG":          FormatJPEG,
		"dir/frame.png":   FormatPNG,
		"clip/frame.webp": FormatWebP,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("frame.bmp")
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	src := gradientImage(12, 6)

	encoders := map[ImageFormat]func(*bytes.Buffer, image.Image) error{
		FormatPNG: func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) },
		FormatJPEG: func(b *bytes.Buffer, m image.Image) error {
			return jpeg.Encode(b, m, &jpeg.Options{Quality: 95})
		},
		FormatWebP: func(b *bytes.Buffer, m image.Image) error {
			return webp.Encode(b, m, &webp.Options{Lossless: true})
		},
	}

	for format, encode := range encoders {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, encode(&buf, src))

			img, err := Decode(buf.Bytes(), format)
			require.NoError(t, err)
			assert.Equal(t, 12, img.Bounds().Dx())
			assert.Equal(t, 6, img.Bounds().Dy())
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(nil, FormatPNG)
	assert.Error(t, err)

	_, err = Decode([]byte("not an image"), FormatJPEG)
	assert.Error(t, err)

	_, err = Decode([]byte{1, 2, 3}, "tiff")
	assert.Error(t, err)
}
