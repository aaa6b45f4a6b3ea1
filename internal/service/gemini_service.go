package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fadilmartias/jobseek/internal/config"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const geminiMaxTextLen = 10000

// GeminiEmbeddingProvider embeds texts through the Gemini embedContent API
// with retry, exponential backoff and a consecutive-failure circuit breaker.
type GeminiEmbeddingProvider struct {
	client    *genai.Client
	model     string
	dimension int
	logger    *zap.Logger

	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RequestTimeout    time.Duration
	consecutiveErrors atomic.Int32
	circuitBreakerMax int32
}

func NewGeminiEmbeddingProvider(ctx context.Context, cfg *config.GeminiConfig, model string, dimension int, logger *zap.Logger) (*GeminiEmbeddingProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiEmbeddingProvider{
		client:            client,
		model:             model,
		dimension:         dimension,
		logger:            logger,
		MaxRetries:        cfg.MaxRetries,
		BaseDelay:         time.Second,
		MaxDelay:          90 * time.Second,
		RequestTimeout:    cfg.RequestTimeout,
		circuitBreakerMax: 5,
	}, nil
}

func (p *GeminiEmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if n := p.consecutiveErrors.Load(); n >= p.circuitBreakerMax {
		return nil, fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", n)
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		t = strings.TrimSpace(t)
		if len(t) > geminiMaxTextLen {
			t = t[:geminiMaxTextLen]
		}
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	embedConfig := &genai.EmbedContentConfig{
		TaskType:             "SEMANTIC_SIMILARITY",
		OutputDimensionality: genai.Ptr(int32(p.dimension)),
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, p.RequestTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.calculateBackoff(attempt)
			p.logger.Warn("retrying gemini embed",
				zap.Int("attempt", attempt), zap.Int("max_retries", p.MaxRetries), zap.Duration("delay", delay))

			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return nil, fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := p.client.Models.EmbedContent(timeoutCtx, p.model, contents, embedConfig)
		if err == nil {
			p.consecutiveErrors.Store(0)
			vecs, err := p.validateEmbeddingResponse(result, len(texts))
			if err != nil {
				return nil, fmt.Errorf("invalid embedding response: %w", err)
			}
			return vecs, nil
		}

		lastErr = err
		if !isRetryableGeminiError(err) {
			p.consecutiveErrors.Add(1)
			return nil, fmt.Errorf("gemini embed failed: %w", err)
		}
		p.logger.Warn("retryable gemini error", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	p.consecutiveErrors.Add(1)
	return nil, fmt.Errorf("max retries (%d) exceeded for gemini embed: %w", p.MaxRetries, lastErr)
}

func (p *GeminiEmbeddingProvider) calculateBackoff(attempt int) time.Duration {
	delay := p.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	jitter := time.Duration(float64(delay) * 0.25)
	return delay - jitter/2 + time.Duration(float64(jitter)*0.5)
}

func isRetryableGeminiError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return retryableStatus(apiErrPtr.Code)
	}
	msg := err.Error()
	for _, s := range []string{"connection refused", "connection reset", "timeout", "temporary failure", "EOF"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func retryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

func (p *GeminiEmbeddingProvider) validateEmbeddingResponse(resp *genai.EmbedContentResponse, want int) ([][]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("response is nil")
	}
	if len(resp.Embeddings) != want {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), want)
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		out[i] = e.Values
	}
	return out, nil
}

func (p *GeminiEmbeddingProvider) ResetCircuitBreaker() {
	p.consecutiveErrors.Store(0)
	p.logger.Info("gemini circuit breaker reset")
}

func (p *GeminiEmbeddingProvider) CircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	n := p.consecutiveErrors.Load()
	return int(n), n >= p.circuitBreakerMax
}
