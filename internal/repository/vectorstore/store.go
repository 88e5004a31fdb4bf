package vectorstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/taxrag/internal/domain"
	"github.com/kailas-cloud/taxrag/internal/domain/chunk"
	"github.com/kailas-cloud/taxrag/internal/domain/search/result"
	"github.com/kailas-cloud/taxrag/internal/metrics"
)

// snapshot is one consistent published state: chunk i is index row i.
// Never mutated after publication.
type snapshot struct {
	chunks []chunk.Chunk
	index  *flatIndex
}

// Stats describes the published snapshot.
type Stats struct {
	Chunks     int
	Dimensions int
}

// Store is an append-only, in-memory chunk corpus with an exact inner-product index.
//
// Writers are serialized and build the next snapshot off to the side, then publish it
// atomically. Readers load the current snapshot once per query, so a search observes
// either the state before a write or the fully rebuilt state after it.
type Store struct {
	docEmbedder   domain.Embedder
	queryEmbedder domain.Embedder
	logger        *zap.Logger

	writeMu sync.Mutex
	current atomic.Pointer[snapshot]
}

// New creates an empty store. docEmbedder vectorizes chunk text at rebuild time,
// queryEmbedder vectorizes search queries; both must produce the same dimensionality.
func New(docEmbedder, queryEmbedder domain.Embedder, logger *zap.Logger) *Store {
	s := &Store{
		docEmbedder:   docEmbedder,
		queryEmbedder: queryEmbedder,
		logger:        logger,
	}
	s.current.Store(&snapshot{})
	return s
}

// Add appends one chunk and rebuilds the whole index.
func (s *Store) Add(ctx context.Context, c chunk.Chunk) error {
	return s.AddMany(ctx, []chunk.Chunk{c})
}

// AddMany appends chunks in order and rebuilds the index exactly once.
// On failure nothing is appended and the previous snapshot stays published.
func (s *Store) AddMany(ctx context.Context, chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.current.Load()
	next := slices.Concat(prev.chunks, chunks)

	snap, err := s.build(ctx, next)
	if err != nil {
		return err
	}
	s.publish(snap)

	s.logger.Debug("Chunks added",
		zap.Int("added", len(chunks)),
		zap.Int("total", len(snap.chunks)),
	)
	return nil
}

// Rebuild re-embeds the current chunk sequence and republishes the index.
func (s *Store) Rebuild(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap, err := s.build(ctx, s.current.Load().chunks)
	if err != nil {
		return err
	}
	s.publish(snap)
	return nil
}

// Search returns the k chunks most similar to query, highest score first.
// An empty store yields an empty result without calling the embedder.
// k larger than the corpus is clamped.
func (s *Store) Search(ctx context.Context, query string, k int) ([]result.Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidTopK, k)
	}

	snap := s.current.Load()
	if len(snap.chunks) == 0 || snap.index == nil {
		return []result.Result{}, nil
	}

	start := time.Now()

	emb, err := s.queryEmbedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := snap.index.search(emb.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	results := make([]result.Result, len(hits))
	for i, h := range hits {
		results[i] = result.New(snap.chunks[h.position], h.score, h.position)
	}

	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	return results, nil
}

// Len returns the number of chunks in the published snapshot.
func (s *Store) Len() int {
	return len(s.current.Load().chunks)
}

// Stats describes the published snapshot.
func (s *Store) Stats() Stats {
	snap := s.current.Load()
	st := Stats{Chunks: len(snap.chunks)}
	if snap.index != nil {
		st.Dimensions = snap.index.dim
	}
	return st
}

// build embeds every chunk text in one batch and constructs a fresh index.
func (s *Store) build(ctx context.Context, chunks []chunk.Chunk) (*snapshot, error) {
	if len(chunks) == 0 {
		return &snapshot{}, nil
	}
	start := time.Now()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text()
	}

	res, err := domain.EmbedAll(ctx, s.docEmbedder, texts)
	if err != nil {
		s.rebuildFailed(len(chunks), err)
		return nil, fmt.Errorf("vectorize chunks: %w", err)
	}

	idx, err := newFlatIndex(res.Embeddings)
	if err != nil {
		s.rebuildFailed(len(chunks), err)
		return nil, fmt.Errorf("build index: %w", err)
	}

	duration := time.Since(start)
	metrics.IndexRebuildsTotal.WithLabelValues("success").Inc()
	metrics.IndexRebuildDuration.Observe(duration.Seconds())

	s.logger.Debug("Index rebuilt",
		zap.Int("chunks", len(chunks)),
		zap.Int("dimensions", idx.dim),
		zap.Int("total_tokens", res.TotalTokens),
		zap.Duration("duration", duration),
	)

	return &snapshot{chunks: chunks, index: idx}, nil
}

func (s *Store) publish(snap *snapshot) {
	s.current.Store(snap)
	metrics.IndexChunks.Set(float64(len(snap.chunks)))
}

func (s *Store) rebuildFailed(chunks int, err error) {
	metrics.IndexRebuildsTotal.WithLabelValues("error").Inc()
	s.logger.Error("Index rebuild failed, keeping last good snapshot",
		zap.Int("chunks", chunks),
		zap.Error(err),
	)
}
