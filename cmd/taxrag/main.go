package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/taxrag/internal/config"
	"github.com/kailas-cloud/taxrag/internal/version"
)

var (
	envName    string
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "taxrag",
	Short: "Answer questions from Ethiopian tax proclamations with article citations",
	Long: `taxrag indexes PDF and text documents page by page and answers questions
with verbatim excerpts, listing every "Article N" the retrieved pages cite.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(version.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "environment name; selects config/<env>.yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "explicit config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress details to stderr")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the selected config file. A missing file falls back to defaults
// so the binary runs with no setup.
func loadConfig() (config.Config, bool, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(envName)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), false, nil
	}
	if err != nil {
		return config.Config{}, false, fmt.Errorf("load config: %w", err)
	}
	return cfg, true, nil
}
