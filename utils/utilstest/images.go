// Package utilstest builds image fixtures in code so tests need no binary files.
package utilstest

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// SampleImage draws a w×h image with a dark bar on a light background.
func SampleImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 240, G: 240, B: 240, A: 255}
			if y > h/3 && y < 2*h/3 && x > w/8 && x < 7*w/8 {
				c = color.NRGBA{R: 20, G: 20, B: 20, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// SamplePNG returns SampleImage encoded as PNG.
func SamplePNG(w, h int) []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, SampleImage(w, h))
	return buf.Bytes()
}

// SampleJPEG returns SampleImage encoded as JPEG.
func SampleJPEG(w, h int) []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, SampleImage(w, h), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}
