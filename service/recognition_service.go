package service

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/Aashish23092/print-ocr/dto"
	"github.com/Aashish23092/print-ocr/utils"
)

// Model is the slice of *client.ModelHandle the orchestrator needs.
type Model interface {
	Infer(ctx context.Context, img image.Image) (string, error)
	Model() string
}

type RecognitionService struct {
	now func() time.Time
	log *zap.Logger
}

func NewRecognitionService(log *zap.Logger) *RecognitionService {
	return &RecognitionService{now: time.Now, log: log}
}

// Recognize runs the model on img. Every failure, including a panic inside
// the engine, comes back as *dto.RecognitionError.
func (s *RecognitionService) Recognize(ctx context.Context, img *dto.Image, model Model) (result *dto.RecognitionResult, err error) {
	var name string
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Recognition panicked", zap.String("model", name), zap.Any("panic", r))
			result = nil
			err = &dto.RecognitionError{Model: name, Err: fmt.Errorf("inference panicked: %v", r)}
		}
	}()

	if model == nil {
		return nil, &dto.RecognitionError{Err: fmt.Errorf("model is not loaded")}
	}
	name = model.Model()
	if img == nil || img.Pixels == nil {
		return nil, &dto.RecognitionError{Model: name, Err: fmt.Errorf("no image to recognize")}
	}

	start := s.now()
	text, inferErr := model.Infer(ctx, img.Pixels)
	if inferErr != nil {
		s.log.Error("Recognition failed", zap.String("model", name), zap.Error(inferErr))
		return nil, &dto.RecognitionError{Model: name, Err: inferErr}
	}

	generatedAt := s.now()
	result = &dto.RecognitionResult{
		Text:        text,
		Model:       name,
		GeneratedAt: generatedAt,
		Elapsed:     generatedAt.Sub(start),
		Filename:    utils.DownloadFilename(generatedAt),
	}

	s.log.Info("Recognition completed",
		zap.String("model", name),
		zap.String("image", img.Name),
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", result.Elapsed))
	return result, nil
}
