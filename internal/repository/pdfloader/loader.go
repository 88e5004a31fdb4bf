package pdfloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/kailas-cloud/taxrag/internal/domain"
)

// pageBreak separates pages in plain-text documents.
const pageBreak = "\f"

// Loader extracts per-page text from PDF and plain-text documents.
type Loader struct {
	logger *zap.Logger
}

// New creates a document loader.
func New(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// Pages returns the text of every page of the document at path, in page order.
// Extraction failures are logged and yield no pages (whole file) or an empty
// page (single page), so callers never see an error.
func (l *Loader) Pages(ctx context.Context, path string) []string {
	pages, err := l.Load(ctx, path)
	if err != nil {
		l.logger.Warn("Document text extraction failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil
	}
	return pages
}

// Load is Pages with the extraction error surfaced.
func (l *Loader) Load(ctx context.Context, path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return l.loadPDF(ctx, path)
	case ".txt":
		return loadText(path)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedDocument, filepath.Ext(path))
	}
}

// Supports reports whether the loader can read path.
func (l *Loader) Supports(path string) bool { return Supported(path) }

// Supported reports whether a document type can be loaded, judged by extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt":
		return true
	}
	return false
}

func (l *Loader) loadPDF(ctx context.Context, path string) (pages []string, err error) {
	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("parse pdf %s: %v", path, r)
		}
	}()

	f, rdr, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	n := rdr.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extract %s: %w", path, err)
		}
		p := rdr.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			l.logger.Debug("Page text extraction failed",
				zap.String("path", path),
				zap.Int("page", i),
				zap.Error(err),
			)
			text = ""
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func loadText(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return strings.Split(string(b), pageBreak), nil
}
