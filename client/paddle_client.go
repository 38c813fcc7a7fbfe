package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Aashish23092/print-ocr/utils"
)

// PaddleClient wraps a PaddleOCR hub-serving endpoint for text extraction
type PaddleClient struct {
	apiURL     string
	httpClient *http.Client
	log        *zap.Logger
}

type paddleLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type paddleResponse struct {
	Results [][]paddleLine `json:"results"`
}

// NewPaddleClient creates a new PaddleOCR client
func NewPaddleClient(apiURL string, timeout time.Duration, log *zap.Logger) *PaddleClient {
	log.Info("PaddleOCR initialized", zap.String("endpoint", apiURL))

	return &PaddleClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (p *PaddleClient) Name() string { return "paddle" }

// Ready only checks that the serving process answers; hub serving exposes
// no model status route.
func (p *PaddleClient) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach PaddleOCR API: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("PaddleOCR API returned status %d", resp.StatusCode)
	}
	return nil
}

// Recognize extracts text from an image using the PaddleOCR HTTP API
func (p *PaddleClient) Recognize(ctx context.Context, img image.Image) (string, error) {
	pngBytes, err := utils.EncodePNG(img)
	if err != nil {
		return "", err
	}

	// Prepare request payload
	payload := map[string]interface{}{
		"images": []string{base64.StdEncoding.EncodeToString(pngBytes)},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call PaddleOCR API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("PaddleOCR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result paddleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode PaddleOCR response: %w", err)
	}

	// Extract text from results
	var lines []string
	if len(result.Results) > 0 {
		for _, line := range result.Results[0] {
			if t := strings.TrimSpace(line.Text); t != "" {
				lines = append(lines, t)
			}
		}
	}

	text := strings.Join(lines, "\n")
	p.log.Debug("PaddleOCR extracted text",
		zap.Int("lines", len(lines)),
		zap.Int("chars", len(text)))
	return text, nil
}

func (p *PaddleClient) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
