package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/taxrag/internal/domain"
	"github.com/kailas-cloud/taxrag/internal/metrics"
)

// Result reports the outcome of indexing one document.
type Result struct {
	Path   string
	Source string
	Chunks int
	Err    error
}

// Service feeds documents through the chunker into the store.
type Service struct {
	chunker *Chunker
	store   Store
	loader  Loader
	logger  *zap.Logger
}

// New creates an ingestion service. loader may be nil when only raw pages are indexed.
func New(store Store, loader Loader, logger *zap.Logger) *Service {
	return &Service{
		chunker: NewChunker(),
		store:   store,
		loader:  loader,
		logger:  logger,
	}
}

// IndexDocument chunks pages and appends them to the store with a single rebuild.
// A document without extractable text indexes zero chunks and is not an error.
func (s *Service) IndexDocument(ctx context.Context, pages []string, source string) (int, error) {
	chunks := s.chunker.Split(pages, source)
	if len(chunks) == 0 {
		metrics.DocumentsIndexedTotal.WithLabelValues("empty").Inc()
		s.logger.Warn("Document has no extractable text",
			zap.String("source", source),
			zap.Int("pages", len(pages)),
		)
		return 0, nil
	}

	if err := s.store.AddMany(ctx, chunks); err != nil {
		metrics.DocumentsIndexedTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("index %s: %w", source, err)
	}

	metrics.DocumentsIndexedTotal.WithLabelValues("indexed").Inc()
	s.logger.Info("Document indexed",
		zap.String("source", source),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}

// IndexFile loads a document from disk and indexes it under its base name.
// A type the loader cannot read fails with domain.ErrUnsupportedDocument.
func (s *Service) IndexFile(ctx context.Context, path string) (int, error) {
	if s.loader == nil {
		return 0, fmt.Errorf("index %s: no document loader configured", path)
	}
	if !s.loader.Supports(path) {
		metrics.DocumentsIndexedTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("index %s: %w", path, domain.ErrUnsupportedDocument)
	}
	pages := s.loader.Pages(ctx, path)
	return s.IndexDocument(ctx, pages, filepath.Base(path))
}

// IndexPaths indexes each path independently: a failing document is reported and
// skipped, never blocking the rest. Duplicate paths are indexed once.
// progress, if non-nil, is called after every document.
func (s *Service) IndexPaths(ctx context.Context, paths []string, progress func(Result)) []Result {
	start := time.Now()
	seen := make(map[string]struct{}, len(paths))
	results := make([]Result, 0, len(paths))

	for _, p := range paths {
		clean := filepath.Clean(p)
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}

		if err := ctx.Err(); err != nil {
			results = append(results, Result{Path: clean, Source: filepath.Base(clean), Err: err})
			continue
		}

		n, err := s.IndexFile(ctx, clean)
		res := Result{Path: clean, Source: filepath.Base(clean), Chunks: n, Err: err}
		if err != nil {
			s.logger.Error("Skipping document",
				zap.String("path", clean),
				zap.Error(err),
			)
		}
		results = append(results, res)
		if progress != nil {
			progress(res)
		}
	}

	s.logger.Info("Corpus indexing finished",
		zap.Int("documents", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results
}

// Discover walks root and returns files whose slash-separated relative path matches
// any pattern (doublestar syntax, e.g. "**/*.pdf"). Matching ignores case.
// A missing root yields no paths.
func Discover(root string, patterns []string) ([]string, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid include pattern %q", p)
		}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matchAny(patterns, filepath.ToSlash(rel)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, nil
}

func matchAny(patterns []string, rel string) bool {
	lower := strings.ToLower(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(strings.ToLower(p), lower); ok {
			return true
		}
	}
	return false
}
