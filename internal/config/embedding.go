package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	EmbeddingProviderTEI    = "tei"
	EmbeddingProviderGemini = "gemini"
)

type EmbeddingConfig struct {
	Provider  string
	ModelName string
	Dimension int
	BatchSize int
	// BackfillMultiplier sizes one backfill pass as BatchSize * BackfillMultiplier.
	BackfillMultiplier int
	TEIURL             string
	TEITimeout         time.Duration
	QueryCacheSize     int
}

var (
	embeddingConfig *EmbeddingConfig
	embeddingOnce   sync.Once
)

func LoadEmbeddingConfig() *EmbeddingConfig {
	embeddingOnce.Do(func() {
		embeddingConfig = &EmbeddingConfig{
			Provider:           getEnv("EMBEDDING_PROVIDER", EmbeddingProviderTEI),
			ModelName:          getEnv("MODEL_NAME", "sentence-transformers/all-MiniLM-L6-v2"),
			Dimension:          getEnvInt("MODEL_EMBED_DIM", 384),
			BatchSize:          getEnvInt("MODEL_BATCH_SIZE", 64),
			BackfillMultiplier: getEnvInt("MODEL_BACKFILL_MULTIPLIER", 4),
			TEIURL:             getEnv("TEI_URL", "http://localhost:8080"),
			TEITimeout:         getEnvDuration("TEI_TIMEOUT", 30*time.Second),
			QueryCacheSize:     getEnvInt("MODEL_QUERY_CACHE_SIZE", 1024),
		}
	})
	return embeddingConfig
}

// BackfillLimit is the row bound of a single backfill pass.
func (c *EmbeddingConfig) BackfillLimit() int {
	return c.BatchSize * c.BackfillMultiplier
}

func (c *EmbeddingConfig) Validate() error {
	switch c.Provider {
	case EmbeddingProviderTEI, EmbeddingProviderGemini:
	default:
		return fmt.Errorf("unsupported embedding provider %q", c.Provider)
	}
	if c.ModelName == "" {
		return fmt.Errorf("MODEL_NAME is required")
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("MODEL_EMBED_DIM must be positive, got %d", c.Dimension)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("MODEL_BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.BackfillMultiplier <= 0 {
		return fmt.Errorf("MODEL_BACKFILL_MULTIPLIER must be positive, got %d", c.BackfillMultiplier)
	}
	return nil
}
