package dto

import (
	"time"

	"github.com/fadilmartias/jobseek/internal/model"
)

// SearchQuery carries the GET /search parameters.
type SearchQuery struct {
	Q        string `query:"q"`
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
	Mode     string `query:"mode"`
	Company  string `query:"company"`
	Location string `query:"location"`
}

func (q SearchQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

func (q SearchQuery) Filters() model.SearchFilters {
	return model.SearchFilters{Company: q.Company, Location: q.Location}
}

type JobResultDTO struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Company     string     `json:"company"`
	Title       string     `json:"title"`
	Locations   []string   `json:"locations"`
	Remote      *bool      `json:"remote"`
	URL         string     `json:"url"`
	PostedAt    *time.Time `json:"posted_at"`
	Tags        []string   `json:"tags"`
	CosineSim   float64    `json:"cosine_sim"`
	TextMatch   *float64   `json:"text_match,omitempty"`
	Recency     *float64   `json:"recency,omitempty"`
	HybridScore *float64   `json:"hybrid_score,omitempty"`
}

func NewJobResultDTO(r model.RankedJob) JobResultDTO {
	out := JobResultDTO{
		ID:          r.ID,
		Source:      r.Source,
		Company:     r.Company,
		Title:       r.Title,
		Locations:   []string(r.Locations),
		Remote:      r.Remote,
		PostedAt:    r.PostedAt,
		Tags:        []string(r.Tags),
		CosineSim:   r.CosineSim,
		TextMatch:   r.TextMatch,
		Recency:     r.Recency,
		HybridScore: r.HybridScore,
	}
	if r.URL != nil {
		out.URL = *r.URL
	}
	if out.Locations == nil {
		out.Locations = []string{}
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out
}

func NewJobResultDTOs(rows []model.RankedJob) []JobResultDTO {
	out := make([]JobResultDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, NewJobResultDTO(r))
	}
	return out
}
