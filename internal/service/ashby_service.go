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
	SourceAshby         = "ashby"
	DefaultAshbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"
)

type AshbyFetcher struct {
	client  *resty.Client
	baseURL string
	orgs    []string
}

func NewAshbyFetcher(cfg *config.ScraperConfig, baseURL string) *AshbyFetcher {
	if baseURL == "" {
		baseURL = DefaultAshbyBaseURL
	}
	return &AshbyFetcher{
		client:  newBoardClient(cfg),
		baseURL: strings.TrimRight(baseURL, "/"),
		orgs:    cfg.AshbyOrgs,
	}
}

func (f *AshbyFetcher) Source() string { return SourceAshby }

func (f *AshbyFetcher) Boards() []string { return f.orgs }

func (f *AshbyFetcher) Fetch(ctx context.Context, org string) ([]dto.JobInput, error) {
	endpoint := fmt.Sprintf("%s/%s", f.baseURL, url.PathEscape(org))
	body, err := getBoardJSON(ctx, f.client, endpoint, map[string]string{"includeCompensation": "true"})
	if err != nil {
		return nil, fmt.Errorf("ashby %s: %w", org, err)
	}

	// Posting lists show up under several keys depending on the board version.
	postings := body.Get("jobs")
	for _, key := range []string{"jobPostings", "postings"} {
		if postings.IsArray() && len(postings.Array()) > 0 {
			break
		}
		postings = body.Get(key)
	}

	var out []dto.JobInput
	postings.ForEach(func(_, p gjson.Result) bool {
		in := dto.JobInput{
			Source:          SourceAshby,
			SourceID:        firstString(p, "id", "jobId", "guid"),
			Company:         org,
			Title:           firstString(p, "title", "jobTitle"),
			PostedAt:        parsePostedAt(firstString(p, "publishedAt", "updatedAt", "createdAt")),
			URL:             firstString(p, "applyUrl", "jobUrl"),
			DescriptionHTML: firstString(p, "descriptionHtml", "description", "jobDescription"),
			DescriptionText: firstString(p, "descriptionPlain"),
			Tags:            namesOf(p.Get("teams")),
		}
		if loc := ashbyLocation(p); loc != "" {
			in.Locations = []string{loc}
		}
		if remote := p.Get("isRemote"); remote.IsBool() {
			v := remote.Bool()
			in.Remote = &v
		}
		for _, key := range []string{"compensation", "salary"} {
			if comp := p.Get(key); comp.Exists() && comp.Type != gjson.Null {
				in.Compensation = []byte(comp.Raw)
				break
			}
		}
		out = append(out, in)
		return true
	})
	return out, nil
}

func ashbyLocation(p gjson.Result) string {
	if loc := firstString(p, "locationName"); loc != "" {
		return loc
	}
	// location is either a plain string or an object with a name.
	if loc := p.Get("location"); loc.Type == gjson.String {
		if s := strings.TrimSpace(loc.String()); s != "" {
			return s
		}
	} else if loc.IsObject() {
		if s := firstString(loc, "name"); s != "" {
			return s
		}
	}
	return firstString(p, "locations.0.name")
}
