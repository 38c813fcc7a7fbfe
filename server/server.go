package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aashish23092/print-ocr/config"
	"github.com/Aashish23092/print-ocr/handler"
	"github.com/Aashish23092/print-ocr/web"
)

type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	log        *zap.Logger
}

// NewRouter wires the page, form actions and health check onto a gin engine.
// maxUpload bounds the multipart memory used to parse an upload.
func NewRouter(h *handler.OCRHandler, maxUpload int64, log *zap.Logger) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(log))

	router.MaxMultipartMemory = maxUpload + handler.MultipartOverhead

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", http.FS(web.Static()))

	router.GET("/", h.Index)
	router.GET("/health", h.Health)
	router.GET("/image", h.Image)
	router.GET("/download", h.Download)

	router.POST("/image/upload", h.UploadImage)
	router.POST("/image/url", h.FetchImage)
	router.POST("/recognize", h.Recognize)
	router.POST("/reset", h.Reset)

	return router, nil
}

func New(cfg *config.Config, h *handler.OCRHandler, log *zap.Logger) (*Server, error) {
	gin.SetMode(cfg.Server.GinMode)

	router, err := NewRouter(h, cfg.App.MaxUploadSize, log)
	if err != nil {
		return nil, err
	}

	// No WriteTimeout: a recognition request may legitimately take a while.
	server := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20, // 1 MB
		},
		cfg: cfg,
		log: log,
	}

	log.Info("Server created successfully",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port))

	return server, nil
}

func (s *Server) Run() error {
	s.log.Info("Server is running", zap.String("address", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
