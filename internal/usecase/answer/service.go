package answer

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	domanswer "github.com/kailas-cloud/taxrag/internal/domain/answer"
	"github.com/kailas-cloud/taxrag/internal/metrics"
)

const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 5
	// DefaultMaxExcerpts caps how many retrieved chunks are quoted in the answer body.
	DefaultMaxExcerpts = 3

	// Header opens every grounded answer.
	Header = "Based on the uploaded Ethiopian tax proclamations, the most relevant excerpts are:\n\n"
	// NotFoundMessage is returned when nothing was retrieved.
	NotFoundMessage = "I could not find an answer in the uploaded Ethiopian tax proclamations."

	excerptSeparator = "\n\n---\n\n"
)

// Service assembles extractive answers from retrieved chunks.
type Service struct {
	searcher    Searcher
	logger      *zap.Logger
	topK        int
	maxExcerpts int
}

// New creates an answer service with default retrieval settings.
func New(searcher Searcher, logger *zap.Logger) *Service {
	return &Service{
		searcher:    searcher,
		logger:      logger,
		topK:        DefaultTopK,
		maxExcerpts: DefaultMaxExcerpts,
	}
}

// WithTopK overrides the retrieval depth. Non-positive values are ignored.
func (s *Service) WithTopK(k int) *Service {
	if k > 0 {
		s.topK = k
	}
	return s
}

// WithMaxExcerpts overrides how many chunks are quoted. Non-positive values are ignored.
func (s *Service) WithMaxExcerpts(n int) *Service {
	if n > 0 {
		s.maxExcerpts = n
	}
	return s
}

// Answer retrieves the top chunks for question and stitches them into an answer.
// Nothing is generated: every sentence of the body is source text.
// A blank question or an empty index produces the not-found answer.
func (s *Service) Answer(ctx context.Context, question string) (domanswer.Record, error) {
	if strings.TrimSpace(question) == "" {
		metrics.AnswersTotal.WithLabelValues("not_found").Inc()
		return domanswer.NotFound(NotFoundMessage), nil
	}

	results, err := s.searcher.Search(ctx, question, s.topK)
	if err != nil {
		metrics.AnswersTotal.WithLabelValues("error").Inc()
		return domanswer.Record{}, fmt.Errorf("retrieve: %w", err)
	}
	if len(results) == 0 {
		metrics.AnswersTotal.WithLabelValues("not_found").Inc()
		s.logger.Debug("No chunks retrieved", zap.String("question", question))
		return domanswer.NotFound(NotFoundMessage), nil
	}

	excerpts := make([]string, 0, min(len(results), s.maxExcerpts))
	sources := make([]string, 0, len(results))
	var articles []string

	for i := range results {
		c := results[i].Chunk()
		if len(excerpts) < s.maxExcerpts {
			excerpts = append(excerpts, c.Text())
		}
		if a, ok := c.Citation(); ok {
			articles = append(articles, a)
		}
		sources = append(sources, c.Label())
	}

	text := strings.TrimSpace(Header + strings.Join(excerpts, excerptSeparator) + "\n\n" + citationClause(articles))

	metrics.AnswersTotal.WithLabelValues("found").Inc()
	s.logger.Debug("Answer assembled",
		zap.Int("results", len(results)),
		zap.Int("citations", len(articles)),
	)
	return domanswer.New(text, sources), nil
}

// citationClause lists unique citations in sorted order, or "" when there are none.
func citationClause(articles []string) string {
	if len(articles) == 0 {
		return ""
	}
	unique := slices.Clone(articles)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	noun := "Article "
	if len(unique) > 1 {
		noun = "Articles "
	}
	return " Relevant Proclamation " + noun + strings.Join(unique, ", ") + " are referenced."
}
