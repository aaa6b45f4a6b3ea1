package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fadilmartias/jobseek/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const rankedColumns = `j.id, j.source, j.company, j.title, j.locations, j.remote, j.url, j.posted_at, j.tags`

type SearchRepository struct {
	db        *gorm.DB
	modelName string
	dimension int
	probes    int
}

func NewSearchRepository(db *gorm.DB, modelName string, dimension, probes int) *SearchRepository {
	return &SearchRepository{db: db, modelName: modelName, dimension: dimension, probes: probes}
}

// SearchSemantic ranks active jobs by cosine similarity to vec. Ties go to the
// newest posting, undated postings last, then to the lowest id.
func (r *SearchRepository) SearchSemantic(ctx context.Context, vec []float32, limit, offset int, filters model.SearchFilters) ([]model.RankedJob, error) {
	if err := r.checkVector(vec); err != nil {
		return nil, err
	}
	where, args := r.baseArgs(vec, limit, offset, filters)

	// Ordering by the raw distance keeps the ivfflat index usable; it is the
	// same order as cosine_sim DESC.
	query := `
SELECT ` + rankedColumns + `,
       1 - (e.embedding <=> @vec) AS cosine_sim
FROM jobs j
JOIN job_embeddings e ON e.job_id = j.id
WHERE ` + where + `
ORDER BY e.embedding <=> @vec ASC, j.posted_at DESC NULLS LAST, j.id ASC
LIMIT @limit OFFSET @offset`

	return r.rank(ctx, query, args)
}

// SearchHybrid blends cosine similarity, a keyword match on title/company and
// an exponential recency decay into hybrid_score.
func (r *SearchRepository) SearchHybrid(ctx context.Context, vec []float32, text string, limit, offset int, filters model.SearchFilters, weights model.HybridWeights) ([]model.RankedJob, error) {
	if err := r.checkVector(vec); err != nil {
		return nil, err
	}
	if weights.RecencyHalfLife <= 0 {
		return nil, fmt.Errorf("recency half-life must be positive, got %s", weights.RecencyHalfLife)
	}
	where, args := r.baseArgs(vec, limit, offset, filters)

	// A NULL pattern never matches, so an empty keyword scores 0.
	var pattern *string
	if t := strings.TrimSpace(text); t != "" {
		p := containsPattern(t)
		pattern = &p
	}
	args["pattern"] = pattern
	args["w_vec"] = weights.Vector
	args["w_text"] = weights.Text
	args["w_rec"] = weights.Recency
	args["half_life"] = weights.RecencyHalfLife.Seconds()

	query := `
WITH scored AS (
	SELECT ` + rankedColumns + `,
	       1 - (e.embedding <=> @vec) AS cosine_sim,
	       CASE
	           WHEN j.title ILIKE @pattern THEN 1.0::float8
	           WHEN j.company::text ILIKE @pattern THEN 0.8::float8
	           ELSE 0.0::float8
	       END AS text_match,
	       CASE
	           WHEN j.posted_at IS NULL THEN 0.0::float8
	           ELSE exp(-ln(2.0::float8) * GREATEST(EXTRACT(EPOCH FROM (now() - j.posted_at))::float8, 0) / CAST(@half_life AS float8))
	       END AS recency
	FROM jobs j
	JOIN job_embeddings e ON e.job_id = j.id
	WHERE ` + where + `
)
SELECT scored.*,
       CAST(@w_vec AS float8) * cosine_sim + CAST(@w_text AS float8) * text_match + CAST(@w_rec AS float8) * recency AS hybrid_score
FROM scored
ORDER BY hybrid_score DESC, posted_at DESC NULLS LAST, id ASC
LIMIT @limit OFFSET @offset`

	return r.rank(ctx, query, args)
}

// rank runs the query in its own transaction so the ivfflat probe count only
// applies to this statement.
func (r *SearchRepository) rank(ctx context.Context, query string, args map[string]any) ([]model.RankedJob, error) {
	rows := make([]model.RankedJob, 0)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL ivfflat.probes = %d", r.probes)).Error; err != nil {
			return fmt.Errorf("set ivfflat.probes: %w", err)
		}
		return tx.Raw(query, args).Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("rank jobs: %w", err)
	}
	return rows, nil
}

func (r *SearchRepository) checkVector(vec []float32) error {
	if len(vec) != r.dimension {
		return fmt.Errorf("%w: query has %d dimensions, store expects %d", model.ErrDimensionMismatch, len(vec), r.dimension)
	}
	return nil
}

// baseArgs builds the shared WHERE clause and its named arguments.
func (r *SearchRepository) baseArgs(vec []float32, limit, offset int, filters model.SearchFilters) (string, map[string]any) {
	args := map[string]any{
		"vec":    pgvector.NewVector(vec),
		"model":  r.modelName,
		"limit":  limit,
		"offset": offset,
	}
	conds := []string{"j.is_active", "e.model_name = @model"}
	if c := strings.TrimSpace(filters.Company); c != "" {
		conds = append(conds, "j.company = @company")
		args["company"] = c
	}
	if l := strings.TrimSpace(filters.Location); l != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM jsonb_array_elements_text(j.locations) AS loc WHERE loc ILIKE @location)")
		args["location"] = containsPattern(l)
	}
	return strings.Join(conds, " AND "), args
}
