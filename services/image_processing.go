package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
)

// NormalizeSourceImage decodes an uploaded photo, scales it down with
// nearest-neighbour sampling when its longest side exceeds maxDimension, and
// re-encodes it as PNG. The generation model does not need more pixels than
// that and smaller payloads keep the relay round trips cheap.
// - imageBytes: the uploaded photo as a byte slice.
// - maxDimension: the longest allowed side in pixels, must be positive.
func NormalizeSourceImage(imageBytes []byte, maxDimension int) ([]byte, error) {
	if maxDimension <= 0 {
		return nil, fmt.Errorf("maxDimension must be positive")
	}

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("image has empty bounds")
	}

	longest := width
	if height > longest {
		longest = height
	}

	if longest <= maxDimension {
		// Still re-encode so downstream always deals with PNG.
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode image to png: %w", err)
		}
		return buf.Bytes(), nil
	}

	scale := float64(longest) / float64(maxDimension)
	newWidth := int(float64(width) / scale)
	newHeight := int(float64(height) / scale)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	newImg := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	for y := 0; y < newHeight; y++ {
		srcY := bounds.Min.Y + int(float64(y)*scale)
		for x := 0; x < newWidth; x++ {
			srcX := bounds.Min.X + int(float64(x)*scale)
			newImg.Set(x, y, img.At(srcX, srcY))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, newImg); err != nil {
		return nil, fmt.Errorf("failed to encode image to png: %w", err)
	}
	return buf.Bytes(), nil
}
