package local

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/taxrag/internal/domain"
)

// DefaultDimensions is the vector size when none is configured.
const DefaultDimensions = 384

// prefixLen is the rune length of the stem feature emitted for long tokens,
// so "residents" and "residency" share a bucket.
const prefixLen = 5

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*`)

// Embedder is an offline feature-hashing bag-of-words embedder.
// Vectors are deterministic and L2-normalized, so inner product equals cosine.
type Embedder struct {
	dimensions int
	stopwords  map[string]struct{}
}

// New creates a hashing embedder. Non-positive dimensions fall back to DefaultDimensions.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions, stopwords: defaultStopwords()}
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int { return e.dimensions }

// Embed vectorizes a single text. Token usage counts the kept tokens.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err //nolint:wrapcheck // context error
	}
	vec, tokens := e.vectorize(text)
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: tokens, TotalTokens: tokens}, nil
}

// BatchEmbed vectorizes texts in order.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return domain.BatchEmbeddingResult{}, err //nolint:wrapcheck // context error
		}
		vec, tokens := e.vectorize(t)
		out.Embeddings[i] = vec
		out.PromptTokens += tokens
		out.TotalTokens += tokens
	}
	return out, nil
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

func (e *Embedder) vectorize(text string) ([]float32, int) {
	acc := make([]float64, e.dimensions)
	tokens := e.tokenize(text)
	for _, tok := range tokens {
		e.add(acc, tok, 1)
		if utf8.RuneCountInString(tok) > prefixLen+1 {
			e.add(acc, "~"+string([]rune(tok)[:prefixLen]), 0.5)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, e.dimensions)
	if norm == 0 {
		return vec, len(tokens)
	}
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec, len(tokens)
}

// add hashes feature into a bucket; a second hash bit picks the sign to
// keep collisions from only ever adding up.
func (e *Embedder) add(acc []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(e.dimensions))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	acc[bucket] += weight
}

func (e *Embedder) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := e.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on",
		"at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this",
		"that", "these", "those", "from", "into", "about", "than", "so", "such", "can", "will",
		"shall", "may", "what", "which", "who", "how", "do", "does", "i", "my", "we", "our", "you",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
