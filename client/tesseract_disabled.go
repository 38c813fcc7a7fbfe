//go:build !tesseract

package client

import (
	"context"
	"errors"
	"image"

	"go.uber.org/zap"
)

// ErrTesseractNotCompiled is returned when the binary was built without the
// tesseract build tag (and therefore without libtesseract).
var ErrTesseractNotCompiled = errors.New("tesseract engine not compiled in: rebuild with -tags tesseract")

type TesseractClient struct {
	log *zap.Logger
}

func NewTesseractClient(dataPath, language string, log *zap.Logger) *TesseractClient {
	return &TesseractClient{log: log}
}

func (tc *TesseractClient) Name() string { return "tesseract" }

func (tc *TesseractClient) Ready(ctx context.Context) error {
	return ErrTesseractNotCompiled
}

func (tc *TesseractClient) Recognize(ctx context.Context, img image.Image) (string, error) {
	return "", ErrTesseractNotCompiled
}

func (tc *TesseractClient) Close() error {
	return nil
}
