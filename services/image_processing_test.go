package services

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestImage(t *testing.T, width, height int, encode func(w *bytes.Buffer, img image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeSourceImageDownscales(t *testing.T) {
	input := encodeTestImage(t, 200, 100, func(w *bytes.Buffer, img image.Image) error {
		return png.Encode(w, img)
	})

	out, err := NormalizeSourceImage(input, 50)
	require.NoError(t, err)

	decoded, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 50, decoded.Bounds().Dx())
	assert.Equal(t, 25, decoded.Bounds().Dy())
}

func TestNormalizeSourceImageKeepsSmallImages(t *testing.T) {
	input := encodeTestImage(t, 40, 30, func(w *bytes.Buffer, img image.Image) error {
		return png.Encode(w, img)
	})

	out, err := NormalizeSourceImage(input, 100)
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, decoded.Bounds().Dx())
	assert.Equal(t, 30, decoded.Bounds().Dy())
}

func TestNormalizeSourceImageConvertsJpegToPng(t *testing.T) {
	input := encodeTestImage(t, 60, 60, func(w *bytes.Buffer, img image.Image) error {
		return jpeg.Encode(w, img, nil)
	})

	out, err := NormalizeSourceImage(input, 100)
	require.NoError(t, err)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestNormalizeSourceImageRejectsGarbage(t *testing.T) {
	_, err := NormalizeSourceImage([]byte("definitely not an image"), 100)
	require.Error(t, err)

	_, err = NormalizeSourceImage(nil, 100)
	require.Error(t, err)
}

func TestNormalizeSourceImageRejectsBadDimension(t *testing.T) {
	input := encodeTestImage(t, 10, 10, func(w *bytes.Buffer, img image.Image) error {
		return png.Encode(w, img)
	})

	_, err := NormalizeSourceImage(input, 0)
	require.Error(t, err)
}
