package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fadilmartias/jobseek/internal/config"
	"github.com/fadilmartias/jobseek/internal/dto"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	SourceGreenhouse         = "greenhouse"
	DefaultGreenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"
)

type GreenhouseFetcher struct {
	client  *resty.Client
	baseURL string
	boards  []string
}

func NewGreenhouseFetcher(cfg *config.ScraperConfig, baseURL string) *GreenhouseFetcher {
	if baseURL == "" {
		baseURL = DefaultGreenhouseBaseURL
	}
	return &GreenhouseFetcher{
		client:  newBoardClient(cfg),
		baseURL: strings.TrimRight(baseURL, "/"),
		boards:  cfg.GreenhouseBoards,
	}
}

func (f *GreenhouseFetcher) Source() string { return SourceGreenhouse }

func (f *GreenhouseFetcher) Boards() []string { return f.boards }

func (f *GreenhouseFetcher) Fetch(ctx context.Context, board string) ([]dto.JobInput, error) {
	endpoint := fmt.Sprintf("%s/%s/jobs", f.baseURL, url.PathEscape(board))
	body, err := getBoardJSON(ctx, f.client, endpoint, map[string]string{"content": "true"})
	if err != nil {
		return nil, fmt.Errorf("greenhouse %s: %w", board, err)
	}

	var out []dto.JobInput
	body.Get("jobs").ForEach(func(_, j gjson.Result) bool {
		in := dto.JobInput{
			Source:          SourceGreenhouse,
			SourceID:        firstString(j, "id"),
			Company:         board,
			Title:           firstString(j, "title"),
			PostedAt:        parsePostedAt(firstString(j, "updated_at", "created_at")),
			URL:             firstString(j, "absolute_url"),
			DescriptionHTML: j.Get("content").String(),
			Tags:            namesOf(j.Get("departments")),
		}
		if loc := firstString(j, "location.name"); loc != "" {
			in.Locations = []string{loc}
		}
		if comp := j.Get("compensation"); comp.Exists() && comp.Type != gjson.Null {
			in.Compensation = []byte(comp.Raw)
		}
		out = append(out, in)
		return true
	})
	return out, nil
}
