package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/taxrag/internal/transport/chi"
	ingestuc "github.com/kailas-cloud/taxrag/internal/usecase/ingest"
	"github.com/kailas-cloud/taxrag/internal/version"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Starts the chat, upload and health API. Documents under the corpus data dir
are indexed in the background while the server already accepts requests.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides http.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, found, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.HTTP.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, envName, false)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	logger.Info("Starting taxrag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", envName),
		zap.Bool("config_file", found),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("data_dir", cfg.Corpus.DataDir),
	)

	if !cfg.Corpus.DisablePreindex {
		go a.preindex(ctx)
	}

	server := chiTransport.NewServer(a.answers, a.ingest, a.loader, a.health, chiTransport.Options{
		UploadDir:      cfg.Corpus.UploadDir,
		DataDir:        cfg.Corpus.DataDir,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chiTransport.NewRouter(server, logger),
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// preindex indexes every corpus document found at startup. Failures are logged
// per document and never stop the server.
func (a *app) preindex(ctx context.Context) {
	paths, err := a.corpusPaths()
	if err != nil {
		a.logger.Error("Corpus pre-index skipped", zap.Error(err))
		return
	}
	if len(paths) == 0 {
		a.logger.Info("No corpus documents found", zap.String("data_dir", a.cfg.Corpus.DataDir))
		return
	}

	a.logger.Info("Pre-indexing corpus", zap.Int("documents", len(paths)))
	results := a.ingest.IndexPaths(ctx, paths, nil)
	a.logger.Info("Corpus pre-index done",
		zap.Int("documents", len(results)),
		zap.Int("failed", countFailed(results)),
		zap.Int("chunks", a.store.Len()),
	)
}

func countFailed(results []ingestuc.Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
