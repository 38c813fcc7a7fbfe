package dto

import (
	"errors"
	"fmt"
)

// Sentinel reasons carried by DecodeError.
var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image exceeds size limit")
	ErrEmptyImage      = errors.New("image data is empty")
)

// ModelLoadError is returned when the pretrained model cannot be loaded.
// It is fatal: the process must not start serving.
type ModelLoadError struct {
	Engine string
	Model  string
	Err    error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %s (%s): %v", e.Model, e.Engine, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// DecodeError reports bytes that could not be turned into an RGB image.
type DecodeError struct {
	Source ImageSource
	Name   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s image %q: %v", e.Source, e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FetchError reports a failed HTTP download of a remote image.
// StatusCode is zero for network failures.
type FetchError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("fetch %s: timed out: %v", e.URL, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// RecognitionError wraps any failure raised by the inference pipeline.
type RecognitionError struct {
	Model string
	Err   error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognize with %s: %v", e.Model, e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }
