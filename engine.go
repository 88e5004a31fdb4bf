package taxrag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/taxrag/internal/domain"
	"github.com/kailas-cloud/taxrag/internal/repository/pdfloader"
	"github.com/kailas-cloud/taxrag/internal/repository/vectorstore"
	"github.com/kailas-cloud/taxrag/internal/transport/local"
	answeruc "github.com/kailas-cloud/taxrag/internal/usecase/answer"
	ingestuc "github.com/kailas-cloud/taxrag/internal/usecase/ingest"
)

// Hit is one retrieved chunk.
type Hit struct {
	Text     string
	Source   string
	Citation string
	Score    float64
}

// IndexReport is the outcome of indexing one file.
type IndexReport struct {
	Path   string
	Source string
	Chunks int
	Err    error
}

// Engine is the taxrag entry point: ingestion, retrieval and answering over
// one in-memory corpus. Safe for concurrent use.
type Engine struct {
	store   *vectorstore.Store
	ingest  *ingestuc.Service
	answers *answeruc.Service
}

// New creates an empty Engine.
func New(opts ...Option) *Engine {
	cfg := &engineConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	var docEmb domain.Embedder = local.New(local.DefaultDimensions)
	if cfg.embedder != nil {
		docEmb = adaptEmbedder(cfg.embedder)
	}
	queryEmb := docEmb
	if cfg.queryEmbedder != nil {
		queryEmb = adaptEmbedder(cfg.queryEmbedder)
	}
	if cfg.docInstruction != "" {
		docEmb = domain.NewInstructionEmbedder(docEmb, cfg.docInstruction)
	}
	if cfg.queryInstruction != "" {
		queryEmb = domain.NewInstructionEmbedder(queryEmb, cfg.queryInstruction)
	}

	store := vectorstore.New(docEmb, queryEmb, cfg.logger)
	answers := answeruc.New(store, cfg.logger)
	if cfg.topK > 0 {
		answers = answers.WithTopK(cfg.topK)
	}
	if cfg.maxExcerpts > 0 {
		answers = answers.WithMaxExcerpts(cfg.maxExcerpts)
	}

	return &Engine{
		store:   store,
		ingest:  ingestuc.New(store, pdfloader.New(cfg.logger), cfg.logger),
		answers: answers,
	}
}

// IndexDocument splits pages into chunks, one per non-blank page, and adds them
// to the index. Returns the number of chunks added.
func (e *Engine) IndexDocument(ctx context.Context, pages []string, source string) (int, error) {
	n, err := e.ingest.IndexDocument(ctx, pages, source)
	if err != nil {
		return 0, fmt.Errorf("taxrag: %w", err)
	}
	return n, nil
}

// IndexFile loads a .pdf or .txt file and indexes its pages under the file's base name.
// Other file types fail with ErrUnsupportedDocument.
func (e *Engine) IndexFile(ctx context.Context, path string) (int, error) {
	n, err := e.ingest.IndexFile(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("taxrag: %w", err)
	}
	return n, nil
}

// IndexPaths indexes each file independently: one failure never blocks the others.
func (e *Engine) IndexPaths(ctx context.Context, paths []string) []IndexReport {
	results := e.ingest.IndexPaths(ctx, paths, nil)
	out := make([]IndexReport, len(results))
	for i, r := range results {
		out[i] = IndexReport(r)
	}
	return out
}

// AnswerQuestion returns an extractive answer and the source label of every
// retrieved chunk in rank order.
func (e *Engine) AnswerQuestion(ctx context.Context, question string) (string, []string, error) {
	rec, err := e.answers.Answer(ctx, question)
	if err != nil {
		return "", nil, fmt.Errorf("taxrag: %w", err)
	}
	return rec.Text(), rec.Sources(), nil
}

// Search returns up to k chunks by descending similarity to query.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	results, err := e.store.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("taxrag: %w", err)
	}
	hits := make([]Hit, len(results))
	for i, r := range results {
		c := r.Chunk()
		citation, _ := c.Citation()
		hits[i] = Hit{Text: c.Text(), Source: c.Source(), Citation: citation, Score: r.Score()}
	}
	return hits, nil
}

// Len returns the number of indexed chunks.
func (e *Engine) Len() int {
	return e.store.Len()
}
