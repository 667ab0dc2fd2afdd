package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfpro/artifact"
	"pdfpro/pdf"
	"pdfpro/pdf/pdftest"
	"pdfpro/transform"
)

type testServer struct {
	router *gin.Engine
	dirs   []string
}

func newTestServer(t *testing.T, mutate ...func(*Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	root := t.TempDir()
	artifacts, err := artifact.NewManager(artifact.Options{
		UploadDir: filepath.Join(root, "uploads"),
		TempDir:   filepath.Join(root, "temp"),
		Logger:    logger,
	})
	require.NoError(t, err)

	dispatcher := transform.NewDispatcher(transform.Options{
		Artifacts:  artifacts,
		Rasterizer: pdf.NewRasterizer("definitely-not-a-rasterizer"),
		Logger:     logger,
	})

	config := &Config{MaxFileSize: 10 << 20, MaxFiles: 20, CORSOrigins: []string{"*"}}
	for _, m := range mutate {
		m(config)
	}
	config.MaxRequestSize = int64(config.MaxFiles)*config.MaxFileSize + 1<<20

	r := gin.New()
	SetupRoutes(r, NewHandler(config, artifacts, dispatcher, logger))
	return &testServer{router: r, dirs: artifacts.Dirs()}
}

type upload struct {
	field, name string
	data        []byte
}

func (s *testServer) post(t *testing.T, path string, fields map[string]string, files ...upload) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// assertNoArtifacts checks that the request left nothing behind on disk.
func (s *testServer) assertNoArtifacts(t *testing.T) {
	t.Helper()
	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "files left in %s", dir)
	}
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) *pdf.Document {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	doc, err := pdf.Decode("response.pdf", rec.Body.Bytes())
	require.NoError(t, err)
	return doc
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/api/health"} {
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		body := errorBody(t, rec)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, ServiceName, body["service"])
		assert.Contains(t, body, "uptime")
		assert.Contains(t, body, "timestamp")
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/api/nope", errorBody(t, rec)["path"])
}

func TestEveryOperationIsRouted(t *testing.T) {
	s := newTestServer(t)

	routes := make(map[string]bool)
	for _, r := range s.router.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, op := range transform.Operations() {
		assert.True(t, routes["POST /api/"+string(op)], "operation %s not routed", op)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMerge(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/api/merge", nil,
		upload{field: "files", name: "first.pdf", data: pdftest.New(2)},
		upload{field: "files", name: "second.pdf", data: pdftest.New(3)},
	)
	doc := decodeResponse(t, rec)
	assert.Equal(t, 5, doc.PageCount())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "first_merged.pdf")
	s.assertNoArtifacts(t)
}

func TestMergeRequiresTwoFiles(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/api/merge", nil, upload{field: "files", name: "only.pdf", data: pdftest.New(1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec)["error"], "at least 2 PDF files")
	s.assertNoArtifacts(t)
}

func TestSplit(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/api/split", map[string]string{"ranges": "1-2,4"}, upload{field: "file", name: "book.pdf", data: pdftest.New(5)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "book_split.zip")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "book_pages_1-2.pdf", zr.File[0].Name)
	assert.Equal(t, "book_page_4.pdf", zr.File[1].Name)
	s.assertNoArtifacts(t)
}

func TestSplitSingleRangeReturnsPDF(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/api/split", map[string]string{"mode": "range", "ranges": "2-3"}, upload{field: "file", name: "book.pdf", data: pdftest.New(4)})
	doc := decodeResponse(t, rec)
	assert.Equal(t, 2, doc.PageCount())
	s.assertNoArtifacts(t)
}

func TestCompress(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/api/compress", nil, upload{field: "file", name: "doc.pdf", data: pdftest.New(3)})
	decodeResponse(t, rec)
	assert.NotEmpty(t, rec.Header().Get("X-Original-Size"))
	assert.NotEmpty(t, rec.Header().Get("X-Compressed-Size"))
	assert.NotEmpty(t, rec.Header().Get("X-Compression-Ratio"))
	s.assertNoArtifacts(t)
}

func TestRotate(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/api/rotate", map[string]string{"angle": "180", "pages": "1"}, upload{field: "file", name: "doc.pdf", data: pdftest.New(2)})
	doc := decodeResponse(t, rec)

	pages, err := doc.Pages()
	require.NoError(t, err)
	assert.Equal(t, 180, pages[0].Rotation)
	assert.Equal(t, 0, pages[1].Rotation)
	s.assertNoArtifacts(t)
}

func TestWatermark(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/api/watermark", map[string]string{"text": "DRAFT", "position": "diagonal", "opacity": "0.5"},
		upload{field: "file", name: "doc.pdf", data: pdftest.New(2)})
	doc := decodeResponse(t, rec)
	assert.Equal(t, 2, doc.PageCount())
	s.assertNoArtifacts(t)
}

func TestImageToPDF(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/api/image-to-pdf", map[string]string{"pageSize": "letter"},
		upload{field: "files", name: "a.png", data: pngBytes(t)},
		upload{field: "files", name: "b.png", data: pngBytes(t)},
	)
	doc := decodeResponse(t, rec)
	assert.Equal(t, 2, doc.PageCount())
	s.assertNoArtifacts(t)
}

func TestExtractText(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/api/extract-text", nil, upload{field: "file", name: "doc.pdf", data: pdftest.New(2)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Success bool   `json:"success"`
		Text    string `json:"text"`
		Pages   int    `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Pages)
	assert.Contains(t, body.Text, "Page 2")
	s.assertNoArtifacts(t)
}

func TestDeleteAndReorderPages(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/api/delete-pages", map[string]string{"pages": "2"}, upload{field: "file", name: "doc.pdf", data: pdftest.New(5)})
	assert.Equal(t, 4, decodeResponse(t, rec).PageCount())

	rec = s.post(t, "/api/reorder-pages", map[string]string{"order": "2,1"}, upload{field: "file", name: "doc.pdf", data: pdftest.New(2)})
	assert.Equal(t, 2, decodeResponse(t, rec).PageCount())
	s.assertNoArtifacts(t)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		fields  map[string]string
		files   []upload
		wantErr string
	}{
		{
			name:    "missing file",
			path:    "/api/compress",
			wantErr: "PDF file is required",
		},
		{
			name:    "missing pages",
			path:    "/api/delete-pages",
			files:   []upload{{field: "file", name: "doc.pdf", data: pdftest.New(2)}},
			wantErr: "pages is required",
		},
		{
			name:    "delete every page",
			path:    "/api/delete-pages",
			fields:  map[string]string{"pages": "1-2"},
			files:   []upload{{field: "file", name: "doc.pdf", data: pdftest.New(2)}},
			wantErr: "cannot delete all pages",
		},
		{
			name:    "bad angle",
			path:    "/api/rotate",
			fields:  map[string]string{"angle": "45"},
			files:   []upload{{field: "file", name: "doc.pdf", data: pdftest.New(1)}},
			wantErr: "angle must be one of",
		},
		{
			name:    "incomplete order",
			path:    "/api/reorder-pages",
			fields:  map[string]string{"order": "1,2"},
			files:   []upload{{field: "file", name: "doc.pdf", data: pdftest.New(3)}},
			wantErr: "exactly 3 page numbers",
		},
		{
			name:    "opacity out of range",
			path:    "/api/watermark",
			fields:  map[string]string{"opacity": "2"},
			files:   []upload{{field: "file", name: "doc.pdf", data: pdftest.New(1)}},
			wantErr: "opacity must be at most 1",
		},
		{
			name:    "text upload",
			path:    "/api/compress",
			files:   []upload{{field: "file", name: "notes.pdf", data: []byte("just some text")}},
			wantErr: "Invalid file type",
		},
		{
			name:    "pdf on image route",
			path:    "/api/image-to-pdf",
			files:   []upload{{field: "files", name: "doc.pdf", data: pdftest.New(1)}},
			wantErr: "is not an image file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.post(t, tt.path, tt.fields, tt.files...)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, errorBody(t, rec)["error"], tt.wantErr)
			s.assertNoArtifacts(t)
		})
	}
}

func TestFileTooLarge(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.MaxFileSize = 64 })

	rec := s.post(t, "/api/compress", nil, upload{field: "file", name: "big.pdf", data: pdftest.New(1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	s.assertNoArtifacts(t)
}

func TestTooManyFiles(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.MaxFiles = 2 })

	var files []upload
	for i := 0; i < 3; i++ {
		files = append(files, upload{field: "files", name: "doc.pdf", data: pdftest.New(1)})
	}
	rec := s.post(t, "/api/merge", nil, files...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec)["error"], "Too many files")
	s.assertNoArtifacts(t)
}

func TestFilesUnderOtherFields(t *testing.T) {
	t.Run("count includes every field", func(t *testing.T) {
		s := newTestServer(t, func(c *Config) { c.MaxFiles = 2 })

		rec := s.post(t, "/api/merge", nil,
			upload{field: "files", name: "a.pdf", data: pdftest.New(1)},
			upload{field: "files", name: "b.pdf", data: pdftest.New(1)},
			upload{field: "other", name: "c.pdf", data: pdftest.New(1)},
			upload{field: "other", name: "d.pdf", data: pdftest.New(1)},
		)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		s.assertNoArtifacts(t)
	})

	t.Run("unexpected field", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.post(t, "/api/merge", nil,
			upload{field: "files", name: "a.pdf", data: pdftest.New(1)},
			upload{field: "files", name: "b.pdf", data: pdftest.New(1)},
			upload{field: "extra", name: "notes.txt", data: []byte("just some text")},
		)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Contains(t, errorBody(t, rec)["error"], `Unexpected file field "extra"`)
		s.assertNoArtifacts(t)
	})
}

func TestCorruptPDF(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/api/compress", nil, upload{field: "file", name: "broken.pdf", data: []byte("%PDF-1.4\nthis is not really a pdf\n%%EOF\n")})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := errorBody(t, rec)
	assert.Equal(t, "PDF operation failed", body["error"])
	details, _ := body["details"].(string)
	assert.NotEmpty(t, details)
	assert.LessOrEqual(t, len(details), pdf.MaxClientErrorLength+3)
	s.assertNoArtifacts(t)
}

func TestPDFToImageWithoutRasterizer(t *testing.T) {
	s := newTestServer(t)

	rec := s.post(t, "/api/pdf-to-image", map[string]string{"format": "png"}, upload{field: "file", name: "doc.pdf", data: pdftest.New(1)})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	body := errorBody(t, rec)
	assert.Contains(t, body["error"], "PDF to image conversion")
	assert.Contains(t, body["message"], "definitely-not-a-rasterizer")
	s.assertNoArtifacts(t)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{in: "short", n: 10, want: "short"},
		{in: "abcdef", n: 3, want: "abc..."},
		{in: "aé", n: 2, want: "a..."},   // é is two bytes
		{in: "ab€cd", n: 4, want: "ab..."}, // € is three bytes
		{in: "ab€cd", n: 5, want: "ab€..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		assert.Equal(t, tt.want, got, "truncate(%q, %d)", tt.in, tt.n)
		assert.True(t, utf8.ValidString(got))
	}
}
