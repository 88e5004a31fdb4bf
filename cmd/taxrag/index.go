package main

import (
	"fmt"

	"github.com/spf13/cobra"

	ingestuc "github.com/kailas-cloud/taxrag/internal/usecase/ingest"
)

var indexCmd = &cobra.Command{
	Use:   "index [paths...]",
	Short: "Index documents and print a per-document report",
	Long: `Indexes each given .pdf or .txt file independently. With no paths, indexes
the corpus data dir. Exits non-zero when any document failed.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, envName, true)
	if err != nil {
		return err
	}
	defer a.close()

	paths := args
	if len(paths) == 0 {
		if paths, err = a.corpusPaths(); err != nil {
			return err
		}
	}

	results := indexWithProgress(cmd, a, paths)
	for _, r := range results {
		if r.Err != nil {
			cmd.Printf("FAIL  %s: %v\n", r.Path, r.Err)
			continue
		}
		cmd.Printf("ok    %s (%d chunks)\n", r.Path, r.Chunks)
	}
	cmd.Printf("\n%d documents, %d chunks indexed\n", len(results), a.store.Len())

	if failed := countFailed(results); failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}

func indexWithProgress(cmd *cobra.Command, a *app, paths []string) []ingestuc.Result {
	progress := newIndexProgress(len(paths))
	defer progress.finish()
	return a.ingest.IndexPaths(cmd.Context(), paths, progress.step)
}
