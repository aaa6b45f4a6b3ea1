package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// SearchMode selects the ranking formula.
type SearchMode int

const (
	SearchModeSemantic SearchMode = iota
	SearchModeHybrid
)

func (m SearchMode) String() string {
	switch m {
	case SearchModeSemantic:
		return "semantic"
	case SearchModeHybrid:
		return "hybrid"
	}
	return fmt.Sprintf("SearchMode(%d)", int(m))
}

// ParseSearchMode maps the wire value to a mode. An empty value is semantic,
// anything else unknown is an error.
func ParseSearchMode(s string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "semantic":
		return SearchModeSemantic, nil
	case "hybrid":
		return SearchModeHybrid, nil
	}
	return 0, fmt.Errorf("unknown search mode: %q", s)
}

// SearchFilters are conjunctive; zero values are no-ops.
type SearchFilters struct {
	Company  string
	Location string
}

// HybridWeights blend the three hybrid terms. Recency 0 gives the two-term form.
type HybridWeights struct {
	Vector          float64
	Text            float64
	Recency         float64
	RecencyHalfLife time.Duration
}

// RankedJob is a read-only projection of a job plus its scores.
type RankedJob struct {
	ID          string                      `json:"id"`
	Source      string                      `json:"source"`
	Company     string                      `json:"company"`
	Title       string                      `json:"title"`
	Locations   datatypes.JSONSlice[string] `json:"locations"`
	Remote      *bool                       `json:"remote"`
	URL         *string                     `json:"url"`
	PostedAt    *time.Time                  `json:"posted_at"`
	Tags        pq.StringArray              `json:"tags"`
	CosineSim   float64                     `json:"cosine_sim"`
	TextMatch   *float64                    `json:"text_match,omitempty"`
	Recency     *float64                    `json:"recency,omitempty"`
	HybridScore *float64                    `json:"hybrid_score,omitempty"`
}
