package main

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	ingestuc "github.com/kailas-cloud/taxrag/internal/usecase/ingest"
)

// indexProgress draws a bar on stderr while documents are indexed.
// Disabled when stderr is not a terminal.
type indexProgress struct {
	bar *progressbar.ProgressBar
}

func newIndexProgress(total int) *indexProgress {
	if total <= 0 || !term.IsTerminal(int(os.Stderr.Fd())) {
		return &indexProgress{}
	}
	return &indexProgress{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("indexing"),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)}
}

// step is passed to ingest.Service.IndexPaths as the progress callback.
func (p *indexProgress) step(r ingestuc.Result) {
	if p.bar == nil {
		return
	}
	p.bar.Describe("indexing " + r.Source)
	_ = p.bar.Add(1)
}

func (p *indexProgress) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
