package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fadilmartias/jobseek/internal/config"
	"github.com/fadilmartias/jobseek/internal/dto"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var aiRoleRe = regexp.MustCompile(`(?i)\bAI\b|\bML\b|machine\s+learning|artificial\s+intelligence|deep\s+learning|LLM|NLP|data\s+scientist|(ML|AI)\s+engineer|(research|applied)\s+(scientist|engineer)`)

// IsAIRole reports whether a posting looks like an AI/ML role.
func IsAIRole(title, description string) bool {
	return aiRoleRe.MatchString(title + "\n" + description)
}

// BoardFetcher pulls every posting of one company board from a job-board API.
type BoardFetcher interface {
	Source() string
	Boards() []string
	Fetch(ctx context.Context, board string) ([]dto.JobInput, error)
}

// BoardResult is the outcome of one board fetch. Err is set when the fetch
// failed, in which case Jobs is empty and the board must not be deactivated.
type BoardResult struct {
	Source string
	Board  string
	Jobs   []dto.JobInput
	Err    error
}

// FetchAll fetches every board of every fetcher with bounded concurrency.
// A failing board does not cancel the others. Results keep fetcher/board order.
func FetchAll(ctx context.Context, fetchers []BoardFetcher, concurrency int, pause time.Duration, logger *zap.Logger) []BoardResult {
	var results []BoardResult
	for _, f := range fetchers {
		for _, b := range f.Boards() {
			results = append(results, BoardResult{Source: f.Source(), Board: b})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	idx := 0
	for _, f := range fetchers {
		for range f.Boards() {
			res := &results[idx]
			idx++
			fetcher := f
			g.Go(func() error {
				jobs, err := fetcher.Fetch(gctx, res.Board)
				if err != nil {
					logger.Warn("board fetch failed", zap.String("source", res.Source), zap.String("board", res.Board), zap.Error(err))
					res.Err = err
				} else {
					res.Jobs = jobs
					logger.Info("board fetched", zap.String("source", res.Source), zap.String("board", res.Board), zap.Int("jobs", len(jobs)))
				}
				if pause > 0 {
					select {
					case <-time.After(pause):
					case <-gctx.Done():
					}
				}
				return nil
			})
		}
	}
	_ = g.Wait()
	return results
}

func newBoardClient(cfg *config.ScraperConfig) *resty.Client {
	return resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && retryableStatus(r.StatusCode()))
		})
}

func getBoardJSON(ctx context.Context, client *resty.Client, url string, params map[string]string) (gjson.Result, error) {
	resp, err := client.R().SetContext(ctx).SetQueryParams(params).Get(url)
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.IsError() {
		return gjson.Result{}, fmt.Errorf("%s returned %d", url, resp.StatusCode())
	}
	if !gjson.ValidBytes(resp.Body()) {
		return gjson.Result{}, fmt.Errorf("%s returned invalid json", url)
	}
	return gjson.ParseBytes(resp.Body()), nil
}

// firstString returns the first non-empty string among the given paths.
func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.Type != gjson.Null {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func parsePostedAt(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func namesOf(arr gjson.Result) []string {
	var out []string
	for _, item := range arr.Array() {
		if name := strings.TrimSpace(item.Get("name").String()); name != "" {
			out = append(out, name)
		}
	}
	return out
}
