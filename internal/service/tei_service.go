package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// TEIEmbeddingProvider calls a text-embeddings-inference server hosting a
// sentence-transformers model.
type TEIEmbeddingProvider struct {
	client *resty.Client
	logger *zap.Logger
}

type teiEmbedRequest struct {
	Inputs    []string `json:"inputs"`
	Normalize bool     `json:"normalize"`
	Truncate  bool     `json:"truncate"`
}

func NewTEIEmbeddingProvider(baseURL string, timeout time.Duration, logger *zap.Logger) *TEIEmbeddingProvider {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && retryableStatus(r.StatusCode()))
		})
	return &TEIEmbeddingProvider{client: client, logger: logger}
}

// Info checks the server is reachable and returns the model id it serves.
func (p *TEIEmbeddingProvider) Info(ctx context.Context) (string, error) {
	resp, err := p.client.R().SetContext(ctx).Get("/info")
	if err != nil {
		return "", fmt.Errorf("tei info: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("tei info returned %d: %s", resp.StatusCode(), resp.String())
	}
	return gjson.GetBytes(resp.Body(), "model_id").String(), nil
}

func (p *TEIEmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(teiEmbedRequest{Inputs: texts, Normalize: true, Truncate: true}).
		Post("/embed")
	if err != nil {
		return nil, fmt.Errorf("tei embed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tei embed returned %d: %s", resp.StatusCode(), resp.String())
	}

	body := gjson.ParseBytes(resp.Body())
	if !body.IsArray() {
		return nil, fmt.Errorf("tei embed: unexpected response %q", truncate(resp.String(), 200))
	}
	rows := body.Array()
	out := make([][]float32, len(rows))
	for i, row := range rows {
		values := row.Array()
		vec := make([]float32, len(values))
		for j, v := range values {
			vec[j] = float32(v.Float())
		}
		out[i] = vec
	}
	return out, nil
}

// NewTEIProviderFactory returns a factory that verifies the server is up
// before handing out the provider.
func NewTEIProviderFactory(baseURL string, timeout time.Duration, modelName string, logger *zap.Logger) ProviderFactory {
	return func(ctx context.Context) (EmbeddingProvider, error) {
		p := NewTEIEmbeddingProvider(baseURL, timeout, logger)
		served, err := p.Info(ctx)
		if err != nil {
			return nil, err
		}
		if served != "" && served != modelName {
			logger.Warn("tei serves a different model than configured",
				zap.String("configured", modelName), zap.String("served", served))
		}
		return p, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
