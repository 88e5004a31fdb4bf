package local

import (
	"context"
	"math"
	"slices"
	"testing"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestEmbed_DeterministicAndNormalized(t *testing.T) {
	e := New(64)
	a, err := e.Embed(context.Background(), "Income tax Article 5 applies to residents.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := e.Embed(context.Background(), "Income tax Article 5 applies to residents.")

	if len(a.Embedding) != 64 {
		t.Fatalf("expected 64 dimensions, got %d", len(a.Embedding))
	}
	if !slices.Equal(a.Embedding, b.Embedding) {
		t.Error("expected identical vectors for identical text")
	}
	if n := dot(a.Embedding, a.Embedding); math.Abs(n-1) > 1e-5 {
		t.Errorf("expected unit norm, got %f", n)
	}
	if a.TotalTokens == 0 {
		t.Error("expected token usage")
	}
}

func TestEmbed_RelatedTextScoresHigher(t *testing.T) {
	e := New(0)
	q, _ := e.Embed(context.Background(), "residency exemptions")
	near, _ := e.Embed(context.Background(), "Article 5A covers exemptions.")
	far, _ := e.Embed(context.Background(), "Customs duty on imported vehicles.")

	if dot(q.Embedding, near.Embedding) <= dot(q.Embedding, far.Embedding) {
		t.Error("expected the exemptions page to score above the unrelated page")
	}
}

func TestEmbed_StopwordsOnlyIsZeroVector(t *testing.T) {
	res, _ := New(16).Embed(context.Background(), "the and of")
	for _, v := range res.Embedding {
		if v != 0 {
			t.Fatalf("expected zero vector, got %v", res.Embedding)
		}
	}
	if res.TotalTokens != 0 {
		t.Errorf("expected 0 tokens, got %d", res.TotalTokens)
	}
}

func TestBatchEmbed_MatchesSingle(t *testing.T) {
	e := New(32)
	texts := []string{"Article 12 VAT", "withholding tax"}
	batch, err := e.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Embeddings) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(batch.Embeddings))
	}
	for i, text := range texts {
		single, _ := e.Embed(context.Background(), text)
		if !slices.Equal(single.Embedding, batch.Embeddings[i]) {
			t.Errorf("vector %d differs between batch and single", i)
		}
	}
}

func TestBatchEmbed_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(8).BatchEmbed(ctx, []string{"x"}); err == nil {
		t.Error("expected context error")
	}
}
