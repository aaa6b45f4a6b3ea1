package repository

import (
	"context"
	"fmt"

	"github.com/fadilmartias/jobseek/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EmbeddingRepository struct {
	db *gorm.DB
}

func NewEmbeddingRepository(db *gorm.DB) *EmbeddingRepository {
	return &EmbeddingRepository{db}
}

// UpsertEmbeddings writes one row per job, replacing any previous vector.
// Concurrent writers for the same job resolve last-writer-wins on the job_id key.
func (r *EmbeddingRepository) UpsertEmbeddings(ctx context.Context, rows []model.JobEmbedding) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"model_name", "embedding", "content_hash", "embedded_at"}),
		}).
		CreateInBatches(&rows, upsertBatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("upsert embeddings: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
