package taxrag

import "go.uber.org/zap"

// Option configures the Engine.
type Option interface {
	apply(*engineConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*engineConfig)

func (f optionFunc) apply(c *engineConfig) { f(c) }

type engineConfig struct {
	embedder      Embedder
	queryEmbedder Embedder

	docInstruction   string
	queryInstruction string

	topK        int
	maxExcerpts int

	logger *zap.Logger
}

// WithEmbedder sets the embedder for chunks and, unless WithQueryEmbedder is
// also given, for queries.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *engineConfig) {
		c.embedder = e
	})
}

// WithQueryEmbedder sets a separate embedder for queries. It must produce
// vectors of the same dimensionality as the chunk embedder.
func WithQueryEmbedder(e Embedder) Option {
	return optionFunc(func(c *engineConfig) {
		c.queryEmbedder = e
	})
}

// WithInstructions prepends instruction text before embedding chunks and
// queries, for asymmetric embedding models.
func WithInstructions(document, query string) Option {
	return optionFunc(func(c *engineConfig) {
		c.docInstruction = document
		c.queryInstruction = query
	})
}

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return optionFunc(func(c *engineConfig) {
		c.topK = k
	})
}

// WithMaxExcerpts sets how many retrieved chunks are quoted in an answer.
func WithMaxExcerpts(n int) Option {
	return optionFunc(func(c *engineConfig) {
		c.maxExcerpts = n
	})
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *engineConfig) {
		c.logger = l
	})
}
