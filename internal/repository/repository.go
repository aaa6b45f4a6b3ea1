package repository

import (
	"context"

	"github.com/fadilmartias/jobseek/internal/model"
)

type JobRepositoryInterface interface {
	UpsertJobs(ctx context.Context, jobs []model.Job) (int, error)
	FindJobByID(ctx context.Context, id string) (*model.Job, error)
	DeactivateMissing(ctx context.Context, source, company string, keepIDs []string) (int64, error)
	// GetJobsMissingEmbeddings returns at most limit jobs that have no
	// embedding, one from another model, or one computed from outdated text.
	GetJobsMissingEmbeddings(ctx context.Context, modelName string, limit int) ([]model.PendingEmbedding, error)
	CountActiveJobsWithEmbeddings(ctx context.Context, filters model.SearchFilters) (int64, error)
}

type EmbeddingRepositoryInterface interface {
	UpsertEmbeddings(ctx context.Context, rows []model.JobEmbedding) (int, error)
}

type SearchRepositoryInterface interface {
	SearchSemantic(ctx context.Context, vec []float32, limit, offset int, filters model.SearchFilters) ([]model.RankedJob, error)
	SearchHybrid(ctx context.Context, vec []float32, text string, limit, offset int, filters model.SearchFilters, weights model.HybridWeights) ([]model.RankedJob, error)
}
