package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Aashish23092/print-ocr/client"
	"github.com/Aashish23092/print-ocr/config"
	"github.com/Aashish23092/print-ocr/handler"
	"github.com/Aashish23092/print-ocr/logger"
	"github.com/Aashish23092/print-ocr/server"
	"github.com/Aashish23092/print-ocr/service"
	"github.com/Aashish23092/print-ocr/session"
)

func main() {
	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The model is loaded once; the process cannot serve without it.
	model, err := client.Load(ctx, cfg.Model, log)
	if err != nil {
		log.Fatal("Failed to load model", zap.Error(err))
	}
	defer model.Close()

	resolver := service.NewImageResolver(cfg.App, log)
	recognizer := service.NewRecognitionService(log)
	ocrHandler := handler.NewOCRHandler(resolver, recognizer, model, session.New(), cfg.App.MaxUploadSize, log)

	srv, err := server.New(cfg, ocrHandler, log)
	if err != nil {
		log.Fatal("Failed to create server", zap.Error(err))
	}

	go func() {
		if err := srv.Run(); err != nil {
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
