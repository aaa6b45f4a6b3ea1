package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fadilmartias/jobseek/internal/config"
	"github.com/fadilmartias/jobseek/internal/dto"
	"github.com/fadilmartias/jobseek/internal/model"
	"github.com/fadilmartias/jobseek/internal/repository"
	"github.com/fadilmartias/jobseek/internal/response"
	"github.com/fadilmartias/jobseek/internal/service"
	"go.uber.org/zap"
)

// ErrInvalidRequest marks caller mistakes: bad paging or an unknown mode.
var ErrInvalidRequest = errors.New("invalid request")

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

type SearchUsecase struct {
	jobRepo    repository.JobRepositoryInterface
	searchRepo repository.SearchRepositoryInterface
	embedder   QueryEmbedder
	cfg        *config.SearchConfig
	logger     *zap.Logger
}

var _ QueryEmbedder = (*service.EmbeddingService)(nil)

func NewSearchUsecase(jobRepo repository.JobRepositoryInterface, searchRepo repository.SearchRepositoryInterface, embedder QueryEmbedder, cfg *config.SearchConfig, logger *zap.Logger) *SearchUsecase {
	return &SearchUsecase{jobRepo: jobRepo, searchRepo: searchRepo, embedder: embedder, cfg: cfg, logger: logger}
}

func (uc *SearchUsecase) weights() model.HybridWeights {
	return model.HybridWeights{
		Vector:          uc.cfg.VectorWeight,
		Text:            uc.cfg.TextWeight,
		Recency:         uc.cfg.RecencyWeight,
		RecencyHalfLife: time.Duration(uc.cfg.RecencyHalfLifeDays) * 24 * time.Hour,
	}
}

// DoJobSearch runs one paginated search. Total counts every active job with
// an embedding that matches the filters, not only the rows on this page.
func (uc *SearchUsecase) DoJobSearch(ctx context.Context, q dto.SearchQuery) (*response.Page[dto.JobResultDTO], error) {
	if q.Page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidRequest, q.Page)
	}
	if q.PageSize < 1 || q.PageSize > uc.cfg.MaxPageSize {
		return nil, fmt.Errorf("%w: page_size must be between 1 and %d, got %d", ErrInvalidRequest, uc.cfg.MaxPageSize, q.PageSize)
	}
	mode, err := model.ParseSearchMode(q.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	text := strings.TrimSpace(q.Q)
	if text == "" {
		return response.EmptyPage[dto.JobResultDTO](q.Page, q.PageSize), nil
	}

	vec, err := uc.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	filters := q.Filters()
	total, err := uc.jobRepo.CountActiveJobsWithEmbeddings(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	var rows []model.RankedJob
	switch mode {
	case model.SearchModeSemantic:
		rows, err = uc.searchRepo.SearchSemantic(ctx, vec, q.PageSize, q.Offset(), filters)
	case model.SearchModeHybrid:
		rows, err = uc.searchRepo.SearchHybrid(ctx, vec, text, q.PageSize, q.Offset(), filters, uc.weights())
	default:
		return nil, fmt.Errorf("%w: unhandled mode %s", ErrInvalidRequest, mode)
	}
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", mode, err)
	}

	uc.logger.Debug("search done",
		zap.String("mode", mode.String()), zap.Int("page", q.Page), zap.Int("rows", len(rows)), zap.Int64("total", total))
	return response.NewPage(dto.NewJobResultDTOs(rows), total, q.Page, q.PageSize), nil
}

func (uc *SearchUsecase) GetJob(ctx context.Context, id string) (*dto.JobDetailDTO, error) {
	job, err := uc.jobRepo.FindJobByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := dto.NewJobDetailDTO(job)
	return &out, nil
}
