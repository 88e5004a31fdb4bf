package ingest

import "testing"

func TestChunker_OneChunkPerNonEmptyPage(t *testing.T) {
	pages := []string{"Article 1  applies\n\nhere", "   ", "", "\tsecond\tpage "}
	chunks := NewChunker().Split(pages, "proc.pdf")

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text() != "Article 1 applies here" {
		t.Errorf("unexpected normalized text %q", chunks[0].Text())
	}
	if chunks[1].Text() != "second page" {
		t.Errorf("unexpected normalized text %q", chunks[1].Text())
	}
	for i, c := range chunks {
		if c.Source() != "proc.pdf" {
			t.Errorf("chunk %d: source %q", i, c.Source())
		}
	}
}

func TestChunker_AttachesFirstCitation(t *testing.T) {
	chunks := NewChunker().Split([]string{
		"Under Art. 12 and Article 13 the rate is 10%",
		"No reference on this page",
	}, "vat.pdf")

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	got, ok := chunks[0].Citation()
	if !ok || got != "Article 12" {
		t.Errorf("expected Article 12, got %q (ok=%v)", got, ok)
	}
	if chunks[0].Label() != "vat.pdf - Article 12" {
		t.Errorf("unexpected label %q", chunks[0].Label())
	}
	if _, ok := chunks[1].Citation(); ok {
		t.Error("expected no citation on second page")
	}
	if chunks[1].Label() != "vat.pdf" {
		t.Errorf("unexpected label %q", chunks[1].Label())
	}
}

func TestChunker_EmptyInput(t *testing.T) {
	if got := NewChunker().Split(nil, "x"); len(got) != 0 {
		t.Errorf("expected no chunks, got %d", len(got))
	}
	if got := NewChunker().Split([]string{" \n\t "}, "x"); len(got) != 0 {
		t.Errorf("expected no chunks for whitespace page, got %d", len(got))
	}
}
