package utils

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/up-zero/gotool/imageutil"
	"golang.org/x/image/draw"
)

// DecodeImage decodes PNG or JPEG bytes and reports the detected format.
// Any other registered format is rejected.
func DecodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	if format != "png" && format != "jpeg" {
		return nil, "", fmt.Errorf("unsupported image format %q", format)
	}
	return img, format, nil
}

// ToRGB flattens src onto a white background so every pixel is opaque.
// The result always starts at the origin.
func ToRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// Preview encodes img as PNG, scaled down to maxWidth when it is wider.
func Preview(img image.Image, maxWidth int) ([]byte, error) {
	var out image.Image = img
	if w := img.Bounds().Dx(); maxWidth > 0 && w > maxWidth {
		h := max(img.Bounds().Dy()*maxWidth/w, 1)
		out = imageutil.Resize(img, maxWidth, h)
	}
	return EncodePNG(out)
}

// EncodePNG is used for previews and for shipping pixels to model backends.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
