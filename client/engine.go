package client

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/Aashish23092/print-ocr/config"
	"github.com/Aashish23092/print-ocr/dto"
)

// Engine is one OCR backend. Recognize receives an RGB-normalised image and
// must not retain it.
type Engine interface {
	Name() string
	// Ready probes the backend once at start-up.
	Ready(ctx context.Context) error
	Recognize(ctx context.Context, img image.Image) (string, error)
	Close() error
}

// ModelHandle pairs a loaded engine with the model it serves. It is built
// once by Load and is read-only afterwards, so it is safe to share.
type ModelHandle struct {
	engine   Engine
	model    string
	loadedAt time.Time
}

// Load constructs the configured engine and waits for its readiness probe.
// Failures are returned as *dto.ModelLoadError and are not retried.
func Load(ctx context.Context, cfg config.ModelConfig, log *zap.Logger) (*ModelHandle, error) {
	var engine Engine
	switch cfg.Engine {
	case config.EngineTrOCR:
		engine = NewTrOCRClient(cfg.Endpoint, cfg.Name, cfg.APIToken, cfg.Timeout, log)
	case config.EngineTesseract:
		engine = NewTesseractClient(cfg.TesseractDataPath, cfg.TesseractLanguage, log)
	case config.EnginePaddle:
		engine = NewPaddleClient(cfg.PaddleEndpoint, cfg.Timeout, log)
	default:
		return nil, &dto.ModelLoadError{
			Engine: cfg.Engine,
			Model:  cfg.Name,
			Err:    fmt.Errorf("unknown engine"),
		}
	}

	handle, err := NewModelHandle(ctx, engine, cfg.Name)
	if err != nil {
		return nil, err
	}

	log.Info("Model loaded",
		zap.String("engine", engine.Name()),
		zap.String("model", cfg.Name))
	return handle, nil
}

// NewModelHandle wraps an already constructed engine after probing it.
func NewModelHandle(ctx context.Context, engine Engine, model string) (*ModelHandle, error) {
	if err := engine.Ready(ctx); err != nil {
		_ = engine.Close()
		return nil, &dto.ModelLoadError{Engine: engine.Name(), Model: model, Err: err}
	}
	return &ModelHandle{engine: engine, model: model, loadedAt: time.Now()}, nil
}

// Infer runs the full encode, generate and decode pipeline for one image.
func (h *ModelHandle) Infer(ctx context.Context, img image.Image) (string, error) {
	return h.engine.Recognize(ctx, img)
}

func (h *ModelHandle) Engine() string { return h.engine.Name() }

func (h *ModelHandle) Model() string { return h.model }

func (h *ModelHandle) LoadedAt() time.Time { return h.loadedAt }

// Close releases the engine. Call it once, at shutdown.
func (h *ModelHandle) Close() error {
	return h.engine.Close()
}
