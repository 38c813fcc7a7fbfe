package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EngineTrOCR     = "trocr"
	EngineTesseract = "tesseract"
	EnginePaddle    = "paddle"

	DefaultModelName    = "microsoft/trocr-base-printed"
	DefaultFetchTimeout = 5 * time.Second
)

type Config struct {
	Server ServerConfig
	Model  ModelConfig
	App    AppConfig
}

type ServerConfig struct {
	Host    string
	Port    string
	GinMode string
}

type ModelConfig struct {
	Engine            string
	Name              string
	Endpoint          string
	APIToken          string
	Timeout           time.Duration
	TesseractDataPath string
	TesseractLanguage string
	PaddleEndpoint    string
}

type AppConfig struct {
	FetchTimeout    time.Duration
	MaxUploadSize   int64
	PreviewMaxWidth int
}

// Load reads configuration from the environment, optionally layered over the
// YAML file named by OCR_CONFIG_FILE.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("OCR_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:    v.GetString("SERVER_HOST"),
			Port:    v.GetString("SERVER_PORT"),
			GinMode: v.GetString("GIN_MODE"),
		},
		Model: ModelConfig{
			Engine:            strings.ToLower(v.GetString("MODEL_ENGINE")),
			Name:              v.GetString("MODEL_NAME"),
			Endpoint:          strings.TrimRight(v.GetString("MODEL_ENDPOINT"), "/"),
			APIToken:          v.GetString("MODEL_API_TOKEN"),
			Timeout:           v.GetDuration("MODEL_TIMEOUT"),
			TesseractDataPath: v.GetString("TESSDATA_PREFIX"),
			TesseractLanguage: v.GetString("TESSERACT_LANGUAGE"),
			PaddleEndpoint:    v.GetString("PADDLE_ENDPOINT"),
		},
		App: AppConfig{
			FetchTimeout:    v.GetDuration("FETCH_TIMEOUT"),
			MaxUploadSize:   v.GetInt64("MAX_UPLOAD_SIZE"),
			PreviewMaxWidth: v.GetInt("PREVIEW_MAX_WIDTH"),
		},
	}

	// A missing timeout would let a slow URL hang the page forever.
	if cfg.App.FetchTimeout <= 0 {
		cfg.App.FetchTimeout = DefaultFetchTimeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "")
	v.SetDefault("SERVER_PORT", "8501")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("MODEL_ENGINE", EngineTrOCR)
	v.SetDefault("MODEL_NAME", DefaultModelName)
	v.SetDefault("MODEL_ENDPOINT", "https://api-inference.huggingface.co")
	v.SetDefault("MODEL_API_TOKEN", "")
	v.SetDefault("MODEL_TIMEOUT", 0)
	v.SetDefault("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/5/tessdata")
	v.SetDefault("TESSERACT_LANGUAGE", "eng")
	v.SetDefault("PADDLE_ENDPOINT", "http://paddleocr:8866/predict/ocr_system")
	v.SetDefault("FETCH_TIMEOUT", DefaultFetchTimeout)
	v.SetDefault("MAX_UPLOAD_SIZE", 10*1024*1024) // 10MB
	v.SetDefault("PREVIEW_MAX_WIDTH", 640)
}

// Validate checks the values that would otherwise fail much later.
func (c *Config) Validate() error {
	switch c.Model.Engine {
	case EngineTrOCR, EngineTesseract, EnginePaddle:
	default:
		return fmt.Errorf("unknown MODEL_ENGINE %q (want %s, %s or %s)",
			c.Model.Engine, EngineTrOCR, EngineTesseract, EnginePaddle)
	}
	if strings.TrimSpace(c.Model.Name) == "" {
		return fmt.Errorf("MODEL_NAME must not be empty")
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.Server.GinMode)
	}
	if c.App.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.App.MaxUploadSize)
	}
	if c.App.PreviewMaxWidth <= 0 {
		return fmt.Errorf("PREVIEW_MAX_WIDTH must be positive, got %d", c.App.PreviewMaxWidth)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
