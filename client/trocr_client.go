package client

import (
	"bytes"
	"context"
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

// TrOCRClient talks to an inference server hosting a TrOCR
// vision-encoder-decoder model. The server owns preprocessing, generation and
// token decoding; the client ships PNG bytes and reads back generated text.
type TrOCRClient struct {
	endpoint   string
	model      string
	token      string
	httpClient *http.Client
	log        *zap.Logger
}

type trocrStatus struct {
	Loaded bool   `json:"loaded"`
	State  string `json:"state"`
}

type trocrGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type trocrError struct {
	Error string `json:"error"`
}

// NewTrOCRClient creates a client for endpoint. A zero timeout means no
// client-side limit on inference.
func NewTrOCRClient(endpoint, model, token string, timeout time.Duration, log *zap.Logger) *TrOCRClient {
	return &TrOCRClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		model:      model,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (c *TrOCRClient) Name() string { return "trocr" }

// Ready checks that the server knows the model and has not failed to load it.
func (c *TrOCRClient) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/status/"+c.model, nil)
	if err != nil {
		return fmt.Errorf("failed to build status request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach inference server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("inference server returned status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var status trocrStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode model status: %w", err)
	}
	if strings.EqualFold(status.State, "error") {
		return fmt.Errorf("model %s is in error state", c.model)
	}

	c.log.Info("TrOCR model status",
		zap.String("model", c.model),
		zap.Bool("loaded", status.Loaded),
		zap.String("state", status.State))
	return nil
}

// Recognize posts the image and returns the first generated sequence.
func (c *TrOCRClient) Recognize(ctx context.Context, img image.Image) (string, error) {
	payload, err := utils.EncodePNG(img)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/models/"+c.model, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call inference server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference server returned status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var generations []trocrGeneration
	if err := json.NewDecoder(resp.Body).Decode(&generations); err != nil {
		return "", fmt.Errorf("failed to decode inference response: %w", err)
	}
	if len(generations) == 0 {
		return "", fmt.Errorf("inference server returned no generations")
	}

	text := strings.TrimSpace(generations[0].GeneratedText)
	c.log.Debug("TrOCR generated text", zap.Int("chars", len(text)))
	return text, nil
}

func (c *TrOCRClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *TrOCRClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// readErrorBody extracts a short message from a failed response.
func readErrorBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 4096))
	var e trocrError
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
