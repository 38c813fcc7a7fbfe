package dto

import (
	"image"
	"time"
)

type ImageSource string

const (
	SourceUpload ImageSource = "upload"
	SourceURL    ImageSource = "url"
)

// Image is an acquired input, already normalised to opaque RGB.
type Image struct {
	Pixels     *image.RGBA
	Source     ImageSource
	Name       string
	Format     string
	AcquiredAt time.Time
	Preview    []byte // PNG, downscaled for display
}

// Width returns the pixel width of the normalised image.
func (i *Image) Width() int { return i.Pixels.Bounds().Dx() }

// Height returns the pixel height of the normalised image.
func (i *Image) Height() int { return i.Pixels.Bounds().Dy() }

// RecognitionResult is the text decoded from exactly one Image.
type RecognitionResult struct {
	Text        string
	Model       string
	GeneratedAt time.Time
	Elapsed     time.Duration
	Filename    string
}
