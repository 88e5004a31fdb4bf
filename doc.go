// Package taxrag answers questions strictly from an ingested corpus of
// documents, citing the "Article N" references found in the source text.
//
// Documents are split one chunk per page, embedded and kept in an in-memory
// exact inner-product index. Answers are extractive: the top excerpts are
// quoted verbatim together with a clause listing every cited article.
//
//	engine := taxrag.New()
//	_, _ = engine.IndexDocument(ctx, pages, "income-tax.pdf")
//	answer, sources, _ := engine.AnswerQuestion(ctx, "Who is a resident?")
//
// Without WithEmbedder the engine uses a deterministic offline embedder.
package taxrag
