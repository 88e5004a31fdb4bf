package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/taxrag/internal/domain"
	logpkg "github.com/kailas-cloud/taxrag/internal/logger"
	"github.com/kailas-cloud/taxrag/internal/repository/pdfloader"
	healthuc "github.com/kailas-cloud/taxrag/internal/usecase/health"
)

// ErrorCode is a machine-readable error identifier in error responses.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeValidationFailed    ErrorCode = "validation_failed"
	CodeNotFound            ErrorCode = "not_found"
	CodeUnsupportedDocument ErrorCode = "unsupported_document"
	CodePayloadTooLarge     ErrorCode = "payload_too_large"
	CodeEmbeddingProvider   ErrorCode = "embedding_provider_error"
	CodeInternal            ErrorCode = "internal_error"
)

// previewChars caps the text returned by the document preview endpoint.
const previewChars = 1000

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	UserID  string  `json:"user_id"`
	Message *string `json:"message"`
}

// ChatResponse is the body returned by POST /api/chat.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// UploadResponse is the body returned by POST /api/upload.
type UploadResponse struct {
	Filename string `json:"filename"`
	Indexed  bool   `json:"indexed"`
	Chunks   int    `json:"chunks"`
}

// PreviewResponse is the body returned by GET /read-pdf/{filename}.
type PreviewResponse struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Chunks int               `json:"chunks"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the chat, upload and health endpoints.
type Server struct {
	answers        Answerer
	indexer        Indexer
	pages          PageReader
	health         HealthChecker
	uploadDir      string
	dataDir        string
	maxUploadBytes int64
	logger         *zap.Logger
	errorHandlers  []errorHandler
}

// Options configures file handling for a Server.
type Options struct {
	UploadDir      string
	DataDir        string
	MaxUploadBytes int64
}

// NewServer creates an HTTP API server.
func NewServer(
	answers Answerer,
	indexer Indexer,
	pages PageReader,
	health HealthChecker,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 64 << 20
	}
	s := &Server{
		answers:        answers,
		indexer:        indexer,
		pages:          pages,
		health:         health,
		uploadDir:      opts.UploadDir,
		dataDir:        opts.DataDir,
		maxUploadBytes: opts.MaxUploadBytes,
		logger:         logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidTopK, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnsupportedDocument, http.StatusUnsupportedMediaType, CodeUnsupportedDocument),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/read-pdf/{filename}", s.ReadDocument)
	r.Post("/api/chat", s.Chat)
	r.Post("/api/upload", s.Upload)
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Message == nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "message is required")
		return
	}

	ctx := logpkg.WithFields(r.Context(), zap.String("user_id", req.UserID))
	rec, err := s.answers.Answer(ctx, *req.Message)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	logpkg.FromContext(ctx).Debug("Question answered",
		zap.Bool("found", rec.Found()),
		zap.Int("sources", len(rec.Sources())),
	)
	writeJSON(w, http.StatusOK, ChatResponse{Answer: rec.Text(), Sources: rec.Sources()})
}

// Upload handles POST /api/upload: stores the multipart "file" and indexes it.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	name, ok := cleanFilename(header.Filename)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid filename")
		return
	}
	if !pdfloader.Supported(name) {
		writeError(w, http.StatusUnsupportedMediaType, CodeUnsupportedDocument, "only .pdf and .txt documents are accepted")
		return
	}

	dest, err := s.save(file, name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	n, err := s.indexer.IndexFile(r.Context(), dest)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{Filename: name, Indexed: true, Chunks: n})
}

// ReadDocument handles GET /read-pdf/{filename}: a text preview of a corpus document.
func (s *Server) ReadDocument(w http.ResponseWriter, r *http.Request) {
	name, ok := cleanFilename(chi.URLParam(r, "filename"))
	if !ok {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid filename")
		return
	}

	path := ""
	for _, dir := range []string{s.dataDir, s.uploadDir} {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if st, err := os.Stat(candidate); err == nil && st.Mode().IsRegular() {
			path = candidate
			break
		}
	}
	if path == "" {
		writeError(w, http.StatusNotFound, CodeNotFound, "File not found")
		return
	}

	content := strings.Join(s.pages.Pages(r.Context(), path), "")
	if runes := []rune(content); len(runes) > previewChars {
		content = string(runes[:previewChars])
	}
	writeJSON(w, http.StatusOK, PreviewResponse{Filename: name, Content: content})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
		Chunks: report.Chunks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) save(src io.Reader, name string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	dest := filepath.Join(s.uploadDir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dest, err)
	}
	return dest, nil
}

// cleanFilename keeps only the base name and rejects anything that could escape a directory.
func cleanFilename(name string) (string, bool) {
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
	if base == "/" || base == "." || base == ".." || strings.HasPrefix(base, ".") {
		return "", false
	}
	return base, true
}


func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}
