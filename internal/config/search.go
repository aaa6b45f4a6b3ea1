package config

import (
	"fmt"
	"sync"
)

type SearchConfig struct {
	VectorWeight        float64
	TextWeight          float64
	RecencyWeight       float64
	RecencyHalfLifeDays int
	// Probes is the ivfflat.probes value set for every similarity query.
	Probes          int
	DefaultPageSize int
	MaxPageSize     int
}

var (
	searchConfig *SearchConfig
	searchOnce   sync.Once
)

func LoadSearchConfig() *SearchConfig {
	searchOnce.Do(func() {
		searchConfig = &SearchConfig{
			VectorWeight:        getEnvFloat("MODEL_HYBRID_VEC_W", 0.7),
			TextWeight:          getEnvFloat("MODEL_HYBRID_KW_W", 0.2),
			RecencyWeight:       getEnvFloat("MODEL_HYBRID_REC_W", 0.1),
			RecencyHalfLifeDays: getEnvInt("MODEL_RECENCY_HALF_LIFE_DAYS", 7),
			Probes:              getEnvInt("SEARCH_IVFFLAT_PROBES", 10),
			DefaultPageSize:     getEnvInt("SEARCH_DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:         getEnvInt("SEARCH_MAX_PAGE_SIZE", 100),
		}
	})
	return searchConfig
}

func (c *SearchConfig) Validate() error {
	if c.VectorWeight < 0 || c.TextWeight < 0 || c.RecencyWeight < 0 {
		return fmt.Errorf("hybrid weights must not be negative")
	}
	if sum := c.VectorWeight + c.TextWeight + c.RecencyWeight; sum <= 0 {
		return fmt.Errorf("hybrid weights must sum to a positive total, got %v", sum)
	}
	if c.RecencyHalfLifeDays <= 0 {
		return fmt.Errorf("MODEL_RECENCY_HALF_LIFE_DAYS must be positive, got %d", c.RecencyHalfLifeDays)
	}
	if c.Probes <= 0 {
		return fmt.Errorf("SEARCH_IVFFLAT_PROBES must be positive, got %d", c.Probes)
	}
	if c.MaxPageSize <= 0 || c.DefaultPageSize <= 0 || c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("invalid page size bounds: default=%d max=%d", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}
