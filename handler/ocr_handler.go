package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aashish23092/print-ocr/dto"
	"github.com/Aashish23092/print-ocr/service"
	"github.com/Aashish23092/print-ocr/session"
)

const noticeBusy = "busy"

// MultipartOverhead is the room left in an upload request body for the
// multipart boundaries and part headers around the file itself.
const MultipartOverhead = 1 << 20

// ModelInfo identifies the loaded model in the page and health output.
type ModelInfo interface {
	service.Model
	Engine() string
	LoadedAt() time.Time
}

// OCRHandler serves the interactive page and its form actions.
type OCRHandler struct {
	resolver   *service.ImageResolver
	recognizer *service.RecognitionService
	model      ModelInfo
	session    *session.Session
	maxUpload  int64
	log        *zap.Logger
}

// NewOCRHandler creates a new OCRHandler instance
func NewOCRHandler(
	resolver *service.ImageResolver,
	recognizer *service.RecognitionService,
	model ModelInfo,
	sess *session.Session,
	maxUpload int64,
	log *zap.Logger,
) *OCRHandler {
	return &OCRHandler{
		resolver:   resolver,
		recognizer: recognizer,
		model:      model,
		session:    sess,
		maxUpload:  maxUpload,
		log:        log,
	}
}

type pageView struct {
	Tab            string
	Engine         string
	Model          string
	Busy           bool
	Notice         string
	Image          *dto.Image
	ImageVersion   int64
	Result         *dto.RecognitionResult
	UploadError    string
	URLError       string
	RecognizeError string
}

// Index renders the page for the current session state.
func (h *OCRHandler) Index(c *gin.Context) {
	snap := h.session.Snapshot()

	view := pageView{
		Tab:    string(snap.LastSource),
		Engine: h.model.Engine(),
		Model:  h.model.Model(),
		Busy:   snap.State == session.Recognizing,
		Image:  snap.Image,
		Result: snap.Result,
	}
	switch c.Query("tab") {
	case string(dto.SourceUpload), string(dto.SourceURL):
		view.Tab = c.Query("tab")
	}
	if snap.Image != nil {
		view.ImageVersion = snap.Image.AcquiredAt.UnixNano()
	}
	if c.Query("notice") == noticeBusy {
		view.Notice = h.userMessage(session.ErrBusy)
	}
	if f := snap.Failure; f != nil {
		msg := h.userMessage(f.Err)
		switch f.Stage {
		case session.StageUpload:
			view.UploadError = msg
		case session.StageURL:
			view.URLError = msg
		case session.StageRecognize:
			view.RecognizeError = msg
		}
	}

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "index.html", view)
}

// UploadImage handles the POST /image/upload endpoint
func (h *OCRHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+MultipartOverhead)

	file, err := c.FormFile("file")
	if isBodyTooLarge(err) {
		h.acquireFailed(c, dto.SourceUpload, &dto.DecodeError{Source: dto.SourceUpload, Err: dto.ErrTooLarge})
		return
	}
	if err != nil {
		h.acquireFailed(c, dto.SourceUpload, &dto.DecodeError{Source: dto.SourceUpload, Err: dto.ErrEmptyImage})
		return
	}

	reader, err := file.Open()
	if err != nil {
		h.acquireFailed(c, dto.SourceUpload, &dto.DecodeError{Source: dto.SourceUpload, Name: file.Filename, Err: err})
		return
	}
	defer reader.Close()

	// One extra byte lets the resolver see that the limit was exceeded.
	data, err := io.ReadAll(io.LimitReader(reader, h.maxUpload+1))
	if err != nil {
		h.acquireFailed(c, dto.SourceUpload, &dto.DecodeError{Source: dto.SourceUpload, Name: file.Filename, Err: err})
		return
	}

	img, err := h.resolver.FromUpload(file.Filename, file.Header.Get("Content-Type"), data)
	if err != nil {
		h.acquireFailed(c, dto.SourceUpload, err)
		return
	}
	h.acquire(c, img)
}

// FetchImage handles the POST /image/url endpoint
func (h *OCRHandler) FetchImage(c *gin.Context) {
	var req dto.URLRequest
	if err := c.ShouldBind(&req); err != nil {
		h.acquireFailed(c, dto.SourceURL, &dto.FetchError{Err: err})
		return
	}
	if err := req.Validate(); err != nil {
		h.acquireFailed(c, dto.SourceURL, &dto.FetchError{Err: err})
		return
	}

	img, err := h.resolver.FromURL(c.Request.Context(), req.URL)
	if err != nil {
		h.acquireFailed(c, dto.SourceURL, err)
		return
	}
	h.acquire(c, img)
}

// Recognize handles the POST /recognize endpoint. Inference runs in this
// request and the page is redirected once it finishes.
func (h *OCRHandler) Recognize(c *gin.Context) {
	img, err := h.session.BeginRecognition()
	switch {
	case errors.Is(err, session.ErrBusy):
		h.redirect(c, url.Values{"notice": {noticeBusy}})
		return
	case err != nil:
		h.redirect(c, nil)
		return
	}

	result, err := h.recognizer.Recognize(c.Request.Context(), img, h.model)
	if err != nil {
		h.log.Warn("Recognition failed", zap.Error(err))
		_ = h.session.FailRecognition(err)
	} else {
		_ = h.session.CompleteRecognition(result)
	}
	h.redirect(c, nil)
}

// Reset handles the POST /reset endpoint
func (h *OCRHandler) Reset(c *gin.Context) {
	if err := h.session.Reset(); errors.Is(err, session.ErrBusy) {
		h.redirect(c, url.Values{"notice": {noticeBusy}})
		return
	}
	h.redirect(c, nil)
}

// Image serves the preview of the acquired image.
func (h *OCRHandler) Image(c *gin.Context) {
	snap := h.session.Snapshot()
	if snap.Image == nil {
		h.sendError(c, http.StatusNotFound, "NO_IMAGE", "No image has been acquired")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", snap.Image.Preview)
}

// Download serves the recognized text as a plain-text attachment.
func (h *OCRHandler) Download(c *gin.Context) {
	snap := h.session.Snapshot()
	if snap.Result == nil {
		h.sendError(c, http.StatusNotFound, "NO_RESULT", "No recognized text is available")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, snap.Result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(snap.Result.Text))
}

// Health handles GET /health
func (h *OCRHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:   "healthy",
		Service:  "Print OCR",
		Engine:   h.model.Engine(),
		Model:    h.model.Model(),
		State:    h.session.State().String(),
		LoadedAt: h.model.LoadedAt().UTC().Format(time.RFC3339),
	})
}

func (h *OCRHandler) acquire(c *gin.Context, img *dto.Image) {
	if err := h.session.Acquire(img); err != nil {
		h.redirect(c, url.Values{"notice": {noticeBusy}})
		return
	}
	h.redirect(c, url.Values{"tab": {string(img.Source)}})
}

func (h *OCRHandler) acquireFailed(c *gin.Context, source dto.ImageSource, err error) {
	h.log.Warn("Image acquisition failed",
		zap.String("source", string(source)),
		zap.Error(err))
	if busyErr := h.session.AcquireFailed(source, err); busyErr != nil {
		h.redirect(c, url.Values{"notice": {noticeBusy}})
		return
	}
	h.redirect(c, url.Values{"tab": {string(source)}})
}

func (h *OCRHandler) redirect(c *gin.Context, query url.Values) {
	target := "/"
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	c.Redirect(http.StatusSeeOther, target)
}

// isBodyTooLarge reports whether err came from the request body limit.
// The multipart reader does not always wrap the *http.MaxBytesError.
func isBodyTooLarge(err error) bool {
	if err == nil {
		return false
	}
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// sendError sends a structured error response
func (h *OCRHandler) sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    statusCode,
	})
}
