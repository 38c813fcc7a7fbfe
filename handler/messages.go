package handler

import (
	"errors"
	"fmt"

	"github.com/Aashish23092/print-ocr/dto"
	"github.com/Aashish23092/print-ocr/session"
)

// userMessage maps an error to text safe to show in the page. Internal
// detail stays in the logs.
func (h *OCRHandler) userMessage(err error) string {
	var (
		decodeErr *dto.DecodeError
		fetchErr  *dto.FetchError
		recErr    *dto.RecognitionError
	)

	switch {
	case errors.Is(err, session.ErrBusy):
		return "Recognition is already running. Please wait for it to finish."
	case errors.Is(err, dto.ErrUnsupportedType):
		return "Unsupported file type. Please upload a PNG, JPG or JPEG image."
	case errors.Is(err, dto.ErrTooLarge):
		return fmt.Sprintf("The image is larger than the %d MB limit.", h.maxUpload>>20)
	case errors.Is(err, dto.ErrEmptyImage):
		if errors.As(err, &decodeErr) && decodeErr.Source == dto.SourceURL {
			return "The URL returned no image data."
		}
		return "No image data was received. Please choose a file."
	case errors.As(err, &decodeErr):
		if decodeErr.Source == dto.SourceURL {
			return "The URL did not return a valid PNG or JPEG image."
		}
		return "The file could not be read as an image. Please try a different file."
	case errors.As(err, &fetchErr):
		switch {
		case fetchErr.Timeout:
			return "The image URL did not respond in time. Please try again or use another URL."
		case fetchErr.StatusCode != 0:
			return fmt.Sprintf("Error loading image from URL: the server returned HTTP %d.", fetchErr.StatusCode)
		case fetchErr.URL == "":
			return "Please paste an image URL."
		default:
			return "Error loading image from URL. Check the address and try again."
		}
	case errors.As(err, &recErr):
		return "Recognition failed. The image is kept, so you can try again."
	default:
		return "Something went wrong. Please try again."
	}
}
