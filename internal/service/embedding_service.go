package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/fadilmartias/jobseek/internal/model"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

var (
	// ErrModelUnavailable is returned by every call once the provider failed
	// to initialize. It is not retried.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	ErrInvalidEmbedding = errors.New("invalid embedding")
)

// EmbeddingProvider turns texts into raw vectors, one per text, in order.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ProviderFactory builds the provider. It runs once, on first use.
type ProviderFactory func(ctx context.Context) (EmbeddingProvider, error)

type EmbeddingServiceInterface interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
	ModelName() string
	Dimension() int
}

type EmbeddingServiceConfig struct {
	ModelName      string
	Dimension      int
	BatchSize      int
	QueryCacheSize int
}

// EmbeddingService is the process-wide embedding generator. It is built once
// at startup and shared by search and backfill.
type EmbeddingService struct {
	cfg     EmbeddingServiceConfig
	factory ProviderFactory
	logger  *zap.Logger

	once     sync.Once
	provider EmbeddingProvider
	initErr  error

	queryCache *lru.Cache[string, []float32]
}

func NewEmbeddingService(cfg EmbeddingServiceConfig, factory ProviderFactory, logger *zap.Logger) (*EmbeddingService, error) {
	if factory == nil {
		return nil, fmt.Errorf("embedding provider factory is required")
	}
	if cfg.Dimension <= 0 || cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("invalid embedding config: dimension=%d batch=%d", cfg.Dimension, cfg.BatchSize)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &EmbeddingService{cfg: cfg, factory: factory, logger: logger}
	if cfg.QueryCacheSize > 0 {
		cache, err := lru.New[string, []float32](cfg.QueryCacheSize)
		if err != nil {
			return nil, fmt.Errorf("query cache: %w", err)
		}
		s.queryCache = cache
	}
	return s, nil
}

func (s *EmbeddingService) ModelName() string { return s.cfg.ModelName }

func (s *EmbeddingService) Dimension() int { return s.cfg.Dimension }

// Warmup loads the provider eagerly so a broken model fails at startup.
func (s *EmbeddingService) Warmup(ctx context.Context) error {
	_, err := s.load(ctx)
	return err
}

func (s *EmbeddingService) load(ctx context.Context) (EmbeddingProvider, error) {
	s.once.Do(func() {
		s.provider, s.initErr = s.factory(ctx)
		if s.initErr != nil {
			s.logger.Error("embedding provider init failed", zap.String("model", s.cfg.ModelName), zap.Error(s.initErr))
			return
		}
		s.logger.Info("embedding provider ready", zap.String("model", s.cfg.ModelName), zap.Int("dimension", s.cfg.Dimension))
	})
	if s.initErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, s.initErr)
	}
	return s.provider, nil
}

// EmbedTexts returns one unit-length vector per text, in input order.
func (s *EmbeddingService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	provider, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(texts))
		batch := texts[start:end]
		vecs, err := provider.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("%w: provider returned %d vectors for %d texts", ErrInvalidEmbedding, len(vecs), len(batch))
		}
		for i, v := range vecs {
			unit, err := s.normalize(v)
			if err != nil {
				return nil, fmt.Errorf("text %d: %w", start+i, err)
			}
			out = append(out, unit)
		}
	}
	return out, nil
}

// EmbedQuery embeds a single search query, memoized by its text.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidEmbedding)
	}
	if s.queryCache != nil {
		if v, ok := s.queryCache.Get(q); ok {
			return append([]float32(nil), v...), nil
		}
	}
	vecs, err := s.EmbedTexts(ctx, []string{q})
	if err != nil {
		return nil, err
	}
	if s.queryCache != nil {
		s.queryCache.Add(q, append([]float32(nil), vecs[0]...))
	}
	return vecs[0], nil
}

func (s *EmbeddingService) normalize(v []float32) ([]float32, error) {
	if len(v) != s.cfg.Dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", model.ErrDimensionMismatch, len(v), s.cfg.Dimension)
	}
	return L2Normalize(v)
}

// L2Normalize scales v to unit length. NaN, Inf and all-zero vectors are rejected.
func L2Normalize(v []float32) ([]float32, error) {
	var sum float64
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: value at index %d is %v", ErrInvalidEmbedding, i, x)
		}
		sum += f * f
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: zero vector", ErrInvalidEmbedding)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}
