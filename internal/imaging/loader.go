package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
)

// Decode parses encoded image bytes. Supported formats are PNG, JPEG, and
// GIF.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeBase64 parses a base64-encoded image. A leading data URI prefix
// ("data:image/png;base64,") is stripped if present.
func DecodeBase64(encoded string) (image.Image, error) {
	img, _, err := DecodeBase64Bytes(encoded)
	return img, err
}

// DecodeBase64Bytes is DecodeBase64 but also returns the raw encoded image
// bytes, for callers that forward them to a detector.
func DecodeBase64Bytes(encoded string) (image.Image, []byte, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return img, data, nil
}

// EncodeBase64PNG encodes an image as a base64 PNG string.
func EncodeBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Dimensions returns the pixel width and height of an image.
func Dimensions(img image.Image) (width, height int) {
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy()
}

// PrepareModelInput resizes an image to inputSize x inputSize and writes it
// into dst in normalized CHW layout: all red values scaled to [0, 1], then
// all green, then all blue. dst must hold exactly 3*inputSize*inputSize
// values, matching the model's input tensor.
//
// The resize uses Lanczos resampling and does not preserve aspect ratio;
// detection postprocessing undoes the distortion by scaling each axis
// independently.
func PrepareModelInput(img image.Image, inputSize int, dst []float32) error {
	if inputSize <= 0 {
		return fmt.Errorf("input size must be positive, got %d", inputSize)
	}
	if len(dst) != 3*inputSize*inputSize {
		return fmt.Errorf("destination holds %d values, want %d", len(dst), 3*inputSize*inputSize)
	}

	resized := imaging.Resize(img, inputSize, inputSize, imaging.Lanczos)

	plane := inputSize * inputSize
	for y := 0; y < inputSize; y++ {
		for x := 0; x < inputSize; x++ {
			i := resized.PixOffset(x, y)
			j := y*inputSize + x
			dst[j] = float32(resized.Pix[i]) / 255.0
			dst[plane+j] = float32(resized.Pix[i+1]) / 255.0
			dst[2*plane+j] = float32(resized.Pix[i+2]) / 255.0
		}
	}
	return nil
}
