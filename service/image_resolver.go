package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Aashish23092/print-ocr/config"
	"github.com/Aashish23092/print-ocr/dto"
	"github.com/Aashish23092/print-ocr/utils"
)

// ImageResolver turns an upload or a URL into a normalised dto.Image.
type ImageResolver struct {
	httpClient   *http.Client
	maxSize      int64
	previewWidth int
	now          func() time.Time
	log          *zap.Logger
}

func NewImageResolver(cfg config.AppConfig, log *zap.Logger) *ImageResolver {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = config.DefaultFetchTimeout
	}
	return &ImageResolver{
		httpClient:   &http.Client{Timeout: timeout},
		maxSize:      cfg.MaxUploadSize,
		previewWidth: cfg.PreviewMaxWidth,
		now:          time.Now,
		log:          log,
	}
}

// FromUpload decodes an uploaded file. The filename extension or the
// declared content type must name PNG or JPEG.
func (r *ImageResolver) FromUpload(filename, contentType string, data []byte) (*dto.Image, error) {
	if !dto.IsSupportedExtension(filename) && !isSupportedMimeType(contentType) {
		return nil, &dto.DecodeError{Source: dto.SourceUpload, Name: filename, Err: dto.ErrUnsupportedType}
	}
	if int64(len(data)) > r.maxSize {
		return nil, &dto.DecodeError{Source: dto.SourceUpload, Name: filename, Err: dto.ErrTooLarge}
	}
	return r.decode(dto.SourceUpload, filename, data)
}

// FromURL downloads rawURL with a single bounded GET and decodes the body.
func (r *ImageResolver) FromURL(ctx context.Context, rawURL string) (*dto.Image, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, &dto.FetchError{URL: rawURL, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &dto.FetchError{URL: rawURL, Err: fmt.Errorf("only absolute http(s) URLs are supported")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &dto.FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "image/png, image/jpeg")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &dto.FetchError{URL: rawURL, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &dto.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxSize+1))
	if err != nil {
		return nil, &dto.FetchError{URL: rawURL, Timeout: isTimeout(err), Err: err}
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = u.Host
	}
	if int64(len(data)) > r.maxSize {
		return nil, &dto.DecodeError{Source: dto.SourceURL, Name: name, Err: dto.ErrTooLarge}
	}

	r.log.Info("Image fetched",
		zap.String("url", u.Redacted()),
		zap.String("content_type", resp.Header.Get("Content-Type")),
		zap.Int("bytes", len(data)))

	return r.decode(dto.SourceURL, name, data)
}

func (r *ImageResolver) decode(source dto.ImageSource, name string, data []byte) (*dto.Image, error) {
	if len(data) == 0 {
		return nil, &dto.DecodeError{Source: source, Name: name, Err: dto.ErrEmptyImage}
	}

	img, format, err := utils.DecodeImage(data)
	if err != nil {
		return nil, &dto.DecodeError{Source: source, Name: name, Err: err}
	}

	rgb := utils.ToRGB(img)
	preview, err := utils.Preview(rgb, r.previewWidth)
	if err != nil {
		return nil, &dto.DecodeError{Source: source, Name: name, Err: err}
	}

	r.log.Info("Image acquired",
		zap.String("source", string(source)),
		zap.String("name", name),
		zap.String("format", format),
		zap.Int("width", rgb.Bounds().Dx()),
		zap.Int("height", rgb.Bounds().Dy()))

	return &dto.Image{
		Pixels:     rgb,
		Source:     source,
		Name:       name,
		Format:     format,
		AcquiredAt: r.now(),
		Preview:    preview,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isSupportedMimeType checks if the MIME type is supported
func isSupportedMimeType(mimeType string) bool {
	mimeType = strings.ToLower(mimeType)
	for _, valid := range []string{"image/png", "image/jpeg", "image/jpg"} {
		if strings.HasPrefix(mimeType, valid) {
			return true
		}
	}
	return false
}
