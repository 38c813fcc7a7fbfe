//go:build tesseract

package client

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"

	"github.com/Aashish23092/print-ocr/utils"
)

type TesseractClient struct {
	dataPath string
	language string
	log      *zap.Logger
}

func NewTesseractClient(dataPath, language string, log *zap.Logger) *TesseractClient {
	return &TesseractClient{
		dataPath: dataPath,
		language: language,
		log:      log,
	}
}

func (tc *TesseractClient) Name() string { return "tesseract" }

// Ready checks that the trained data for the configured language exists.
func (tc *TesseractClient) Ready(ctx context.Context) error {
	trained := filepath.Join(tc.dataPath, tc.language+".traineddata")
	if _, err := os.Stat(trained); err != nil {
		return fmt.Errorf("tesseract language data unavailable: %w", err)
	}
	tc.log.Info("Tesseract ready",
		zap.String("version", gosseract.Version()),
		zap.String("tessdata", tc.dataPath),
		zap.String("language", tc.language))
	return nil
}

// Recognize runs Tesseract on the PNG-encoded image. A fresh gosseract
// client is used per call because the C handle is not goroutine-safe.
func (tc *TesseractClient) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pngBytes, err := utils.EncodePNG(img)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	client.SetTessdataPrefix(tc.dataPath)

	if err := client.SetLanguage(tc.language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetImageFromBytes(pngBytes); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// Close performs cleanup
func (tc *TesseractClient) Close() error {
	tc.log.Info("Tesseract client closed")
	return nil
}
