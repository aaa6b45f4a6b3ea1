package main

import (
	"context"
	"fmt"

	"github.com/fadilmartias/jobseek/internal/config"
	"github.com/fadilmartias/jobseek/internal/database"
	"github.com/fadilmartias/jobseek/internal/repository"
	"github.com/fadilmartias/jobseek/internal/service"
	"github.com/fadilmartias/jobseek/internal/usecase"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// components is everything a command needs, built once per process.
type components struct {
	logger   *zap.Logger
	db       *gorm.DB
	rdb      *redis.Client
	embedder *service.EmbeddingService

	jobRepo    repository.JobRepositoryInterface
	embRepo    repository.EmbeddingRepositoryInterface
	searchRepo repository.SearchRepositoryInterface

	search   *usecase.SearchUsecase
	backfill *usecase.BackfillUsecase
	ingest   *usecase.IngestUsecase
}

// newLogger builds the process logger and installs it as the zap global so
// config parsing warnings are not lost.
func newLogger() (*zap.Logger, error) {
	build := zap.NewDevelopment
	if config.LoadAppConfig().IsProduction() {
		build = zap.NewProduction
	}
	logger, err := build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func validateConfig() error {
	if err := config.LoadEmbeddingConfig().Validate(); err != nil {
		return fmt.Errorf("embedding config: %w", err)
	}
	if err := config.LoadSearchConfig().Validate(); err != nil {
		return fmt.Errorf("search config: %w", err)
	}
	return nil
}

// openStore connects to Postgres and brings the schema up to date.
func openStore(ctx context.Context, logger *zap.Logger) (*gorm.DB, error) {
	db, err := database.ConnectDB(ctx, config.LoadDBConfig(), config.LoadAppConfig(), logger)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, db, config.LoadEmbeddingConfig().Dimension); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func newProviderFactory(embCfg *config.EmbeddingConfig, logger *zap.Logger) service.ProviderFactory {
	switch embCfg.Provider {
	case config.EmbeddingProviderGemini:
		return func(ctx context.Context) (service.EmbeddingProvider, error) {
			return service.NewGeminiEmbeddingProvider(ctx, config.LoadGeminiConfig(), embCfg.ModelName, embCfg.Dimension, logger)
		}
	default:
		return service.NewTEIProviderFactory(embCfg.TEIURL, embCfg.TEITimeout, embCfg.ModelName, logger)
	}
}

func buildComponents(ctx context.Context, logger *zap.Logger) (*components, error) {
	if err := validateConfig(); err != nil {
		return nil, err
	}
	appCfg := config.LoadAppConfig()
	embCfg := config.LoadEmbeddingConfig()
	searchCfg := config.LoadSearchConfig()
	scrapeCfg := config.LoadScraperConfig()
	redisCfg := config.LoadRedisConfig()

	c := &components{logger: logger}

	switch appCfg.StoreDriver {
	case "memory":
		store := repository.NewMemoryStore(embCfg.ModelName, embCfg.Dimension)
		c.jobRepo, c.embRepo, c.searchRepo = store, store, store
		logger.Warn("using in-memory store, data is lost on exit")
	case "postgres":
		db, err := openStore(ctx, logger)
		if err != nil {
			return nil, err
		}
		c.db = db
		c.jobRepo = repository.NewJobRepository(db, embCfg.ModelName)
		c.embRepo = repository.NewEmbeddingRepository(db)
		c.searchRepo = repository.NewSearchRepository(db, embCfg.ModelName, embCfg.Dimension, searchCfg.Probes)
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", appCfg.StoreDriver)
	}

	embedder, err := service.NewEmbeddingService(service.EmbeddingServiceConfig{
		ModelName:      embCfg.ModelName,
		Dimension:      embCfg.Dimension,
		BatchSize:      embCfg.BatchSize,
		QueryCacheSize: embCfg.QueryCacheSize,
	}, newProviderFactory(embCfg, logger), logger)
	if err != nil {
		c.close()
		return nil, err
	}
	c.embedder = embedder

	var locker service.Locker = service.NewLocalLocker()
	if redisCfg.URL != "" {
		rdb, err := database.NewRedisClient(ctx, redisCfg.URL)
		if err != nil {
			c.close()
			return nil, err
		}
		c.rdb = rdb
		locker = service.NewRedisLocker(rdb, redisCfg.LockKey, redisCfg.LockTTL)
	}

	fetchers := []service.BoardFetcher{
		service.NewGreenhouseFetcher(scrapeCfg, ""),
		service.NewAshbyFetcher(scrapeCfg, ""),
	}

	c.search = usecase.NewSearchUsecase(c.jobRepo, c.searchRepo, embedder, searchCfg, logger)
	c.backfill = usecase.NewBackfillUsecase(c.jobRepo, c.embRepo, embedder, locker, embCfg.BackfillLimit(), logger)
	c.ingest = usecase.NewIngestUsecase(c.jobRepo, c.backfill, fetchers, scrapeCfg.Concurrency, scrapeCfg.SleepBetweenCalls, logger)
	return c, nil
}

func (c *components) close() {
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = c.logger.Sync()
}
