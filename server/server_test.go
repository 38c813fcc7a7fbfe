package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Aashish23092/print-ocr/client"
	"github.com/Aashish23092/print-ocr/config"
	"github.com/Aashish23092/print-ocr/dto"
	"github.com/Aashish23092/print-ocr/handler"
	"github.com/Aashish23092/print-ocr/service"
	"github.com/Aashish23092/print-ocr/session"
	"github.com/Aashish23092/print-ocr/utils/utilstest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// wordEngine stands in for the pretrained model: it always reads the same word.
type wordEngine struct {
	word string
	err  error
}

func (e *wordEngine) Name() string {
	return "fake"
}

func (e *wordEngine) Ready(ctx context.Context) error {
	return nil
}

func (e *wordEngine) Close() error {
	return nil
}

func (e *wordEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.word, nil
}

var (
	textareaRe = regexp.MustCompile(`(?s)<textarea id="recognized"[^>]*>\n(.*?)</textarea>`)
	filenameRe = regexp.MustCompile(`^attachment; filename="(recognized_text_\d{8}_\d{6}\.txt)"$`)
)

type testApp struct {
	router  *gin.Engine
	session *session.Session
}

func newTestApp(t *testing.T, engine client.Engine) *testApp {
	t.Helper()
	log := zap.NewNop()

	model, err := client.NewModelHandle(context.Background(), engine, config.DefaultModelName)
	require.NoError(t, err)

	appCfg := config.AppConfig{FetchTimeout: time.Second, MaxUploadSize: 1 << 20, PreviewMaxWidth: 320}
	sess := session.New()
	h := handler.NewOCRHandler(
		service.NewImageResolver(appCfg, log),
		service.NewRecognitionService(log),
		model,
		sess,
		appCfg.MaxUploadSize,
		log,
	)
	router, err := NewRouter(h, appCfg.MaxUploadSize, log)
	require.NoError(t, err)
	return &testApp{router: router, session: sess}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) get(path string) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (a *testApp) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

func (a *testApp) upload(t *testing.T, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/image/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req)
}

func TestIndexAwaitingInput(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})

	w := app.get("/")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Please upload an image or paste a URL to begin.")
	assert.Contains(t, body, config.DefaultModelName)
	assert.NotContains(t, body, `action="/recognize"`)
}

func TestIndexTabs(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})

	assert.Contains(t, app.get("/").Body.String(), `id="upload-panel"`)
	assert.Contains(t, app.get("/?tab=url").Body.String(), `id="url-panel"`)
	assert.Contains(t, app.get("/?tab=bogus").Body.String(), `id="upload-panel"`)
}

func TestEndToEndHello(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})

	w := app.upload(t, "hello.png", utilstest.SamplePNG(200, 60))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?tab=upload", w.Header().Get("Location"))
	assert.Equal(t, session.ImageAcquired, app.session.State())

	page := app.get("/").Body.String()
	assert.Contains(t, page, "Input Image: hello.png")
	assert.Contains(t, page, `action="/recognize"`)
	assert.NotContains(t, page, "Recognized Text")

	preview := app.get("/image")
	require.Equal(t, http.StatusOK, preview.Code)
	assert.Equal(t, "image/png", preview.Header().Get("Content-Type"))

	w = app.postForm("/recognize", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, session.ResultReady, app.session.State())

	page = app.get("/").Body.String()
	m := textareaRe.FindStringSubmatch(page)
	require.NotNil(t, m, "textarea missing from page")
	assert.Equal(t, "HELLO", html.UnescapeString(m[1]))

	dl := app.get("/download")
	require.Equal(t, http.StatusOK, dl.Code)
	assert.True(t, strings.HasPrefix(dl.Header().Get("Content-Type"), "text/plain"))
	assert.Regexp(t, filenameRe, dl.Header().Get("Content-Disposition"))
	assert.Equal(t, "HELLO", dl.Body.String())
}

func TestDownloadMatchesTextareaByteForByte(t *testing.T) {
	text := "Invoice <No. 42> & \"Total\": 3.50\nsecond line"
	app := newTestApp(t, &wordEngine{word: text})

	app.upload(t, "invoice.jpg", utilstest.SampleJPEG(120, 40))
	app.postForm("/recognize", nil)

	m := textareaRe.FindStringSubmatch(app.get("/").Body.String())
	require.NotNil(t, m)
	dl := app.get("/download")

	assert.Equal(t, html.UnescapeString(m[1]), dl.Body.String())
	assert.Equal(t, text, dl.Body.String())
}

func TestUploadMalformedImage(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})

	w := app.upload(t, "broken.png", []byte("this is not a png"))

	require.Equal(t, http.StatusSeeOther, w.Code)
	page := app.get("/?tab=upload")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `id="upload-error"`)
	assert.Contains(t, page.Body.String(), "could not be read as an image")
	assert.Contains(t, page.Body.String(), "Please upload an image or paste a URL to begin.")
	assert.Equal(t, http.StatusNotFound, app.get("/image").Code)
}

func TestUploadUnsupportedType(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})

	app.upload(t, "scan.gif", []byte("GIF89a"))

	assert.Contains(t, app.get("/").Body.String(), "Unsupported file type")
}

// countingReader records how much of a request body the server consumed.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func TestUploadOversizedBodyIsNotBuffered(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})
	app.upload(t, "hello.png", utilstest.SamplePNG(20, 20))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "huge.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x89}, 3<<20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	total := int64(body.Len())

	counter := &countingReader{r: &body}
	req := httptest.NewRequest(http.MethodPost, "/image/upload", counter)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := app.do(req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.LessOrEqual(t, counter.n, int64(1<<20+handler.MultipartOverhead+1))
	assert.Less(t, counter.n, total)
	page := app.get("/?tab=upload").Body.String()
	assert.Contains(t, page, `id="upload-error"`)
	assert.Contains(t, page, "The image is larger than the 1 MB limit.")
	assert.Equal(t, http.StatusNotFound, app.get("/image").Code)
}

func TestUploadMissingFile(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})

	w := app.postForm("/image/upload", nil)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, app.get("/").Body.String(), "No image data was received")
}

func TestURLNotFound(t *testing.T) {
	remote := httptest.NewServer(http.NotFoundHandler())
	defer remote.Close()
	app := newTestApp(t, &wordEngine{word: "HELLO"})
	app.upload(t, "hello.png", utilstest.SamplePNG(20, 20))

	w := app.postForm("/image/url", url.Values{"url": {remote.URL + "/missing.png"}})

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?tab=url", w.Header().Get("Location"))
	page := app.get("/").Body.String()
	assert.Contains(t, page, `id="url-error"`)
	assert.Contains(t, page, "HTTP 404")
	assert.Equal(t, http.StatusNotFound, app.get("/image").Code)
}

func TestURLSuccess(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(utilstest.SamplePNG(50, 20))
	}))
	defer remote.Close()
	app := newTestApp(t, &wordEngine{word: "HELLO"})

	app.postForm("/image/url", url.Values{"url": {remote.URL + "/word.png"}})

	assert.Equal(t, session.ImageAcquired, app.session.State())
	assert.Contains(t, app.get("/").Body.String(), "Input Image: word.png")
}

func TestURLEmptyBody(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer remote.Close()
	app := newTestApp(t, &wordEngine{word: "HELLO"})

	w := app.postForm("/image/url", url.Values{"url": {remote.URL + "/blank.png"}})

	require.Equal(t, http.StatusSeeOther, w.Code)
	page := app.get("/").Body.String()
	assert.Contains(t, page, `id="url-error"`)
	assert.Contains(t, page, "The URL returned no image data.")
	assert.NotContains(t, page, "Please choose a file")
}

func TestURLEmpty(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})

	app.postForm("/image/url", url.Values{"url": {"   "}})

	assert.Contains(t, app.get("/").Body.String(), "Please paste an image URL.")
}

func TestRecognitionFailureKeepsImage(t *testing.T) {
	app := newTestApp(t, &wordEngine{err: errors.New("decoder exploded at /opt/models")})
	app.upload(t, "hello.png", utilstest.SamplePNG(20, 20))

	app.postForm("/recognize", nil)

	page := app.get("/").Body.String()
	assert.Contains(t, page, `id="recognize-error"`)
	assert.NotContains(t, page, "/opt/models", "internal detail must not leak")
	assert.Equal(t, http.StatusOK, app.get("/image").Code)
	assert.Equal(t, http.StatusNotFound, app.get("/download").Code)
}

func TestRecognizeWithoutImage(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})

	w := app.postForm("/recognize", nil)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, session.Idle, app.session.State())
}

func TestRecognizeWhileBusy(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})
	app.upload(t, "hello.png", utilstest.SamplePNG(20, 20))
	_, err := app.session.BeginRecognition()
	require.NoError(t, err)

	w := app.postForm("/recognize", nil)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?notice=busy", w.Header().Get("Location"))
	page := app.get("/?notice=busy").Body.String()
	assert.Contains(t, page, "Recognition is already running")
	assert.Contains(t, page, `http-equiv="refresh"`)
}

func TestReset(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})
	app.upload(t, "hello.png", utilstest.SamplePNG(20, 20))

	app.postForm("/reset", nil)

	assert.Equal(t, session.Idle, app.session.State())
	assert.Equal(t, http.StatusNotFound, app.get("/image").Code)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})

	w := app.get("/health")

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "Print OCR", resp.Service)
	assert.Equal(t, "fake", resp.Engine)
	assert.Equal(t, config.DefaultModelName, resp.Model)
	assert.Equal(t, "idle", resp.State)

	loadedAt, err := time.Parse(time.RFC3339, resp.LoadedAt)
	require.NoError(t, err)
	assert.False(t, loadedAt.IsZero())
	assert.WithinDuration(t, time.Now(), loadedAt, time.Minute)
}

func TestRequestIDHeader(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})

	assert.NotEmpty(t, app.get("/health").Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", app.do(req).Header().Get("X-Request-ID"))
}

func TestStaticStylesheet(t *testing.T) {
	app := newTestApp(t, &wordEngine{word: "HELLO"})

	w := app.get("/static/style.css")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".title")
}
