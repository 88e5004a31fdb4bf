package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/taxrag/internal/config"
	"github.com/kailas-cloud/taxrag/internal/db"
	"github.com/kailas-cloud/taxrag/internal/db/memory"
	dbRedis "github.com/kailas-cloud/taxrag/internal/db/redis"
	"github.com/kailas-cloud/taxrag/internal/domain"
	logpkg "github.com/kailas-cloud/taxrag/internal/logger"
	"github.com/kailas-cloud/taxrag/internal/metrics"
	"github.com/kailas-cloud/taxrag/internal/repository/embcache"
	"github.com/kailas-cloud/taxrag/internal/repository/pdfloader"
	"github.com/kailas-cloud/taxrag/internal/repository/vectorstore"
	"github.com/kailas-cloud/taxrag/internal/transport/local"
	openaiEmb "github.com/kailas-cloud/taxrag/internal/transport/openai"
	answeruc "github.com/kailas-cloud/taxrag/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/taxrag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/taxrag/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/taxrag/internal/usecase/ingest"
)

// app is the composition root shared by every subcommand.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	cache  db.Store // nil when caching is disabled
	loader *pdfloader.Loader
	store  *vectorstore.Store

	ingest  *ingestuc.Service
	answers *answeruc.Service
	health  *healthuc.Service
}

// newApp wires every component. oneShot commands log tersely to stderr so stdout
// stays readable; --verbose restores the configured level.
func newApp(ctx context.Context, cfg config.Config, env string, oneShot bool) (*app, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if oneShot {
		level := ""
		if verbose {
			level = cfg.Logging.Level
			if level == "" {
				level = "info"
			}
		}
		logger, err = logpkg.NewCLILogger(level)
	} else {
		logger, err = logpkg.NewLogger(env, cfg.Logging.Level)
	}
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	// Register metrics explicitly (no init())
	metrics.Register()

	cache, err := newCacheStore(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	docEmbedder := buildEmbedder(cfg.Embedding, cfg.Cache, cfg.Embedding.DocumentInstruction, cache, logger)
	queryEmbedder := buildEmbedder(cfg.Embedding, cfg.Cache, cfg.Embedding.QueryInstruction, cache, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.String("cache", cfg.Cache.Driver),
	)

	loader := pdfloader.New(logger)
	store := vectorstore.New(docEmbedder, queryEmbedder, logger)

	answers := answeruc.New(store, logger).
		WithTopK(cfg.Answer.TopK).
		WithMaxExcerpts(cfg.Answer.MaxExcerpts)

	// Pass nil interface (not typed nil pointer!) when caching is disabled.
	var cachePinger healthuc.CachePinger
	if cache != nil {
		cachePinger = cache
	}
	health := healthuc.New(cachePinger, newEmbeddingHealthChecker(docEmbedder), store)

	return &app{
		cfg:     cfg,
		logger:  logger,
		cache:   cache,
		loader:  loader,
		store:   store,
		ingest:  ingestuc.New(store, loader, logger),
		answers: answers,
		health:  health,
	}, nil
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
	_ = a.logger.Sync()
}

// corpusPaths lists the documents under the data dir matching the include patterns.
func (a *app) corpusPaths() ([]string, error) {
	paths, err := ingestuc.Discover(a.cfg.Corpus.DataDir, a.cfg.Corpus.Include)
	if err != nil {
		return nil, fmt.Errorf("discover corpus: %w", err)
	}
	return paths, nil
}

func newCacheStore(ctx context.Context, cfg config.CacheConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		return memory.New(), nil
	case config.CacheRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Addrs,
			Username:   cfg.Username,
			Password:   cfg.Password,
			DB:         cfg.DB,
			ClientName: "taxrag",
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: Provider -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	embCfg config.EmbeddingConfig,
	cacheCfg config.CacheConfig,
	instruction string,
	cache db.Store,
	logger *zap.Logger,
) domain.Embedder {
	var (
		base  domain.Embedder
		model string
	)
	switch embCfg.Provider {
	case config.ProviderOpenAI:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     embCfg.APIKey,
			BaseURL:    embCfg.BaseURL,
			Model:      embCfg.Model,
			Dimensions: embCfg.Dimensions,
			BatchSize:  embCfg.BatchSize,
			Provider:   embCfg.Provider,
			Logger:     logger,
		})
		model = embCfg.Model
	default:
		dims := embCfg.Dimensions
		if dims == 0 {
			dims = local.DefaultDimensions
		}
		base = local.New(dims)
		model = fmt.Sprintf("hashing-%d", dims)
	}

	// Cached, namespaced by provider and model so switching either never reuses stale vectors
	embedder := base
	if cache != nil {
		cached := embcache.New(base, cache, metrics.EmbeddingCacheTotal, logger).
			WithNamespace(embCfg.Provider + "/" + model)
		if cacheCfg.KeyPrefix != "" {
			cached = cached.WithKeyPrefix(cacheCfg.KeyPrefix)
		}
		if cacheCfg.TTLSec > 0 {
			cached = cached.WithTTL(time.Duration(cacheCfg.TTLSec) * time.Second)
		}
		embedder = cached
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, embCfg.Provider, model, logger)

	// Instruction prefix (outermost: cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}
