package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fadilmartias/jobseek/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 500

var jobUpdateColumns = []string{
	"source", "source_id", "company", "title", "locations", "remote", "posted_at", "url",
	"description_html", "description_text", "tags", "compensation", "is_active", "updated_at",
}

type JobRepository struct {
	db        *gorm.DB
	modelName string
}

// NewJobRepository binds the repository to the active embedding model; counts
// only consider embeddings written by that model.
func NewJobRepository(db *gorm.DB, modelName string) *JobRepository {
	return &JobRepository{db: db, modelName: modelName}
}

// UpsertJobs inserts new postings and refreshes existing ones. A posting seen
// again is reactivated; inserted_at is never overwritten.
func (r *JobRepository) UpsertJobs(ctx context.Context, jobs []model.Job) (int, error) {
	rows := dedupeJobs(jobs)
	if len(rows) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for i := range rows {
		rows[i].IsActive = true
		rows[i].UpdatedAt = now
		if rows[i].InsertedAt.IsZero() {
			rows[i].InsertedAt = now
		}
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(jobUpdateColumns),
		}).
		CreateInBatches(&rows, upsertBatchSize).Error
	if err != nil {
		return 0, fmt.Errorf("upsert jobs: %w", err)
	}
	return len(rows), nil
}

// dedupeJobs keeps the last occurrence of every id; Postgres rejects an
// ON CONFLICT statement that touches the same row twice.
func dedupeJobs(jobs []model.Job) []model.Job {
	index := make(map[string]int, len(jobs))
	out := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if i, ok := index[j.ID]; ok {
			out[i] = j
			continue
		}
		index[j.ID] = len(out)
		out = append(out, j)
	}
	return out
}

func (r *JobRepository) FindJobByID(ctx context.Context, id string) (*model.Job, error) {
	var j model.Job
	err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job %s: %w", id, err)
	}
	return &j, nil
}

// DeactivateMissing soft-deletes the active postings of one board that were
// not part of its latest successful fetch.
func (r *JobRepository) DeactivateMissing(ctx context.Context, source, company string, keepIDs []string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Job{}).
		Where("source = ? AND company = ? AND is_active", source, company)
	if len(keepIDs) > 0 {
		q = q.Where("id NOT IN ?", keepIDs)
	}
	res := q.Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return 0, fmt.Errorf("deactivate %s/%s: %w", source, company, res.Error)
	}
	return res.RowsAffected, nil
}

const selectMissingEmbeddingsSQL = `
SELECT j.id AS job_id, t.text_to_embed
FROM jobs j
CROSS JOIN LATERAL (
	SELECT COALESCE(j.title, '') || ' at ' || COALESCE(j.company::text, '') || ' in ' || COALESCE(
		(SELECT string_agg(l.loc, ', ' ORDER BY l.ord)
		 FROM jsonb_array_elements_text(COALESCE(j.locations, '[]'::jsonb)) WITH ORDINALITY AS l(loc, ord)),
		'Remote') AS text_to_embed
) t
LEFT JOIN job_embeddings e ON e.job_id = j.id
WHERE e.job_id IS NULL
   OR e.model_name <> @model
   OR e.content_hash <> md5(t.text_to_embed)
ORDER BY j.id
LIMIT @limit`

func (r *JobRepository) GetJobsMissingEmbeddings(ctx context.Context, modelName string, limit int) ([]model.PendingEmbedding, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("missing embeddings limit must be positive, got %d", limit)
	}
	var rows []model.PendingEmbedding
	err := r.db.WithContext(ctx).
		Raw(selectMissingEmbeddingsSQL, map[string]any{"model": modelName, "limit": limit}).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("select missing embeddings: %w", err)
	}
	return rows, nil
}

// CountActiveJobsWithEmbeddings counts the searchable corpus: active jobs
// joined to an embedding of the active model, narrowed by filters.
func (r *JobRepository) CountActiveJobsWithEmbeddings(ctx context.Context, filters model.SearchFilters) (int64, error) {
	var total int64
	q := r.db.WithContext(ctx).
		Table("jobs AS j").
		Joins("JOIN job_embeddings e ON e.job_id = j.id").
		Where("j.is_active AND e.model_name = ?", r.modelName)
	q = applyFilters(q, filters)
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count searchable jobs: %w", err)
	}
	return total, nil
}

func applyFilters(q *gorm.DB, f model.SearchFilters) *gorm.DB {
	if c := strings.TrimSpace(f.Company); c != "" {
		q = q.Where("j.company = ?", c)
	}
	if l := strings.TrimSpace(f.Location); l != "" {
		q = q.Where("EXISTS (SELECT 1 FROM jsonb_array_elements_text(j.locations) AS loc WHERE loc ILIKE ?)", containsPattern(l))
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s as a literal substring.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
