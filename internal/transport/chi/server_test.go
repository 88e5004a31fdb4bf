package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/taxrag/internal/domain"
	domanswer "github.com/kailas-cloud/taxrag/internal/domain/answer"
	healthuc "github.com/kailas-cloud/taxrag/internal/usecase/health"
)

type mockAnswerer struct {
	rec domanswer.Record
	err error
	got string
}

func (m *mockAnswerer) Answer(_ context.Context, q string) (domanswer.Record, error) {
	m.got = q
	return m.rec, m.err
}

type mockIndexer struct {
	chunks int
	err    error
	paths  []string
}

func (m *mockIndexer) IndexFile(_ context.Context, path string) (int, error) {
	m.paths = append(m.paths, path)
	return m.chunks, m.err
}

type mockPages struct {
	pages []string
}

func (m *mockPages) Pages(_ context.Context, _ string) []string { return m.pages }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type fixture struct {
	answers *mockAnswerer
	indexer *mockIndexer
	pages   *mockPages
	health  *mockHealth
	dataDir string
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dataDir := t.TempDir()
	f := &fixture{
		answers: &mockAnswerer{},
		indexer: &mockIndexer{},
		pages:   &mockPages{},
		health:  &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}},
		dataDir: dataDir,
	}
	srv := NewServer(f.answers, f.indexer, f.pages, f.health, Options{
		DataDir:        dataDir,
		UploadDir:      filepath.Join(dataDir, "pdfs"),
		MaxUploadBytes: 1 << 10,
	}, zap.NewNop())
	f.handler = NewRouter(srv, zap.NewNop())
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte(content))
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestChat_Answer(t *testing.T) {
	f := newFixture(t)
	f.answers.rec = domanswer.New("Based on the tax documents: ...", []string{"tax.pdf - Article 5"})

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"user_id":"u1","message":"residency exemptions"}`))
	rec := f.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[ChatResponse](t, rec)
	if resp.Answer != "Based on the tax documents: ..." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "tax.pdf - Article 5" {
		t.Errorf("sources = %v", resp.Sources)
	}
	if f.answers.got != "residency exemptions" {
		t.Errorf("question = %q", f.answers.got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestChat_NotFoundHasEmptySources(t *testing.T) {
	f := newFixture(t)
	f.answers.rec = domanswer.NotFound("nothing")

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":""}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"sources":[]`) {
		t.Errorf("expected empty sources array, got %s", rec.Body.String())
	}
}

func TestChat_BadRequest(t *testing.T) {
	f := newFixture(t)
	for name, body := range map[string]string{
		"invalid json":    `{`,
		"missing message": `{"user_id":"u1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := f.do(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
		code ErrorCode
	}{
		{fmt.Errorf("retrieve: %w", domain.ErrEmbeddingProviderError), http.StatusBadGateway, CodeEmbeddingProvider},
		{fmt.Errorf("retrieve: %w", domain.NewDimensionMismatch(4, 3, -1)), http.StatusInternalServerError, CodeInternal},
		{domain.ErrInvalidTopK, http.StatusBadRequest, CodeValidationFailed},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f := newFixture(t)
			f.answers.err = tt.err
			rec := f.do(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"q"}`)))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if got := decode[ErrorResponse](t, rec); got.Code != tt.code {
				t.Errorf("code = %q, want %q", got.Code, tt.code)
			}
		})
	}
}

func TestUpload_SavesAndIndexes(t *testing.T) {
	f := newFixture(t)
	f.indexer.chunks = 3

	rec := f.do(uploadRequest(t, "proclamation.pdf", "%PDF-1.4"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[UploadResponse](t, rec)
	if resp.Filename != "proclamation.pdf" || !resp.Indexed || resp.Chunks != 3 {
		t.Errorf("response = %+v", resp)
	}

	want := filepath.Join(f.dataDir, "pdfs", "proclamation.pdf")
	if len(f.indexer.paths) != 1 || f.indexer.paths[0] != want {
		t.Errorf("indexed paths = %v, want [%s]", f.indexer.paths, want)
	}
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "%PDF-1.4" {
		t.Errorf("saved file = %q, err %v", data, err)
	}
}

func TestUpload_StripsDirectories(t *testing.T) {
	f := newFixture(t)
	rec := f.do(uploadRequest(t, "../../etc/evil.pdf", "x"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[UploadResponse](t, rec).Filename; got != "evil.pdf" {
		t.Errorf("filename = %q", got)
	}
}

func TestUpload_Rejections(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(uploadRequest(t, "notes.docx", "x")); rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("unsupported type: status = %d", rec.Code)
	}
	if rec := f.do(uploadRequest(t, "big.pdf", strings.Repeat("x", 4<<10))); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("too large: status = %d", rec.Code)
	}
	noFile := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(""))
	if rec := f.do(noFile); rec.Code != http.StatusBadRequest {
		t.Errorf("missing file: status = %d", rec.Code)
	}
	if len(f.indexer.paths) != 0 {
		t.Errorf("nothing should be indexed, got %v", f.indexer.paths)
	}
}

func TestUpload_IndexFailure(t *testing.T) {
	f := newFixture(t)
	f.indexer.err = fmt.Errorf("index a.pdf: %w", domain.ErrEmbeddingProviderError)
	if rec := f.do(uploadRequest(t, "a.pdf", "x")); rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestReadDocument(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(filepath.Join(f.dataDir, "tax.pdf"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	f.pages.pages = []string{strings.Repeat("a", 800), strings.Repeat("b", 800)}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/read-pdf/tax.pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[PreviewResponse](t, rec)
	if len(resp.Content) != previewChars {
		t.Errorf("content length = %d, want %d", len(resp.Content), previewChars)
	}
	if resp.Filename != "tax.pdf" {
		t.Errorf("filename = %q", resp.Filename)
	}
}

func TestReadDocument_NotFound(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/read-pdf/missing.pdf", "/read-pdf/..%2F..%2Fetc%2Fpasswd"} {
		if rec := f.do(httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, rec.Code)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)
	f.health.report = healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{"embedding": healthuc.CheckOK},
		Chunks: 7,
	}
	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[HealthResponse](t, rec)
	if resp.Status != "ok" || resp.Chunks != 7 || resp.Checks["embedding"] != "ok" {
		t.Errorf("response = %+v", resp)
	}

	f.health.report = healthuc.Report{Status: healthuc.Degraded}
	if rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d, want 503", rec.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if got := decode[ErrorResponse](t, rec); got.Code != CodeNotFound {
		t.Errorf("code = %q", got.Code)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if got := decode[ErrorResponse](t, rec); got.Code != CodeInternal {
		t.Errorf("code = %q", got.Code)
	}
}

func TestCleanFilename(t *testing.T) {
	tests := map[string]string{
		"a.pdf":            "a.pdf",
		"dir/a.pdf":        "a.pdf",
		`..\..\win\a.pdf`:  "a.pdf",
		"../../etc/passwd": "passwd",
	}
	for in, want := range tests {
		if got, ok := cleanFilename(in); !ok || got != want {
			t.Errorf("cleanFilename(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "..", ".", ".env", "/"} {
		if _, ok := cleanFilename(in); ok {
			t.Errorf("cleanFilename(%q) should be rejected", in)
		}
	}
}
