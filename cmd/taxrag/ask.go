package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Index the corpus and answer one question",
	Long: `Indexes every document under the corpus data dir, then prints an extractive
answer and its sources.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

type askOutput struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, envName, true)
	if err != nil {
		return err
	}
	defer a.close()

	paths, err := a.corpusPaths()
	if err != nil {
		return err
	}
	indexWithProgress(cmd, a, paths)

	rec, err := a.answers.Answer(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(askOutput{Answer: rec.Text(), Sources: rec.Sources()}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(rec.Text())
	if sources := rec.Sources(); len(sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, s := range sources {
			cmd.Printf("  [%d] %s\n", i+1, s)
		}
	}
	return nil
}
