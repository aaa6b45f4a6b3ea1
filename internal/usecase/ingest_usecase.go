package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadilmartias/jobseek/internal/model"
	"github.com/fadilmartias/jobseek/internal/repository"
	"github.com/fadilmartias/jobseek/internal/service"
	"go.uber.org/zap"
)

type IngestReport struct {
	BoardsOK     int   `json:"boards_ok"`
	BoardsFailed int   `json:"boards_failed"`
	Fetched      int   `json:"fetched"`
	Kept         int   `json:"kept"`
	Upserted     int   `json:"upserted"`
	Deactivated  int64 `json:"deactivated"`
	Embedded     int   `json:"embedded"`
	// EmbedSkipped is set when another backfill held the lock.
	EmbedSkipped bool `json:"embed_skipped"`
}

type IngestUsecase struct {
	jobRepo     repository.JobRepositoryInterface
	backfill    *BackfillUsecase
	fetchers    []service.BoardFetcher
	concurrency int
	pause       time.Duration
	logger      *zap.Logger
}

func NewIngestUsecase(jobRepo repository.JobRepositoryInterface, backfill *BackfillUsecase, fetchers []service.BoardFetcher, concurrency int, pause time.Duration, logger *zap.Logger) *IngestUsecase {
	return &IngestUsecase{
		jobRepo:     jobRepo,
		backfill:    backfill,
		fetchers:    fetchers,
		concurrency: concurrency,
		pause:       pause,
		logger:      logger,
	}
}

// Run fetches every configured board, stores the AI/ML postings, retires
// postings that vanished from a board that fetched successfully and then
// embeds whatever is new or changed.
func (uc *IngestUsecase) Run(ctx context.Context) (*IngestReport, error) {
	report := &IngestReport{}
	results := service.FetchAll(ctx, uc.fetchers, uc.concurrency, uc.pause, uc.logger)

	type boardKey struct{ source, company string }
	var jobs []model.Job
	keep := make(map[boardKey][]string)
	for _, res := range results {
		if res.Err != nil {
			report.BoardsFailed++
			continue
		}
		report.BoardsOK++
		report.Fetched += len(res.Jobs)
		key := boardKey{res.Source, res.Board}
		keep[key] = []string{}
		for _, in := range res.Jobs {
			job := in.ToModel()
			if !service.IsAIRole(job.Title, job.DescriptionText) {
				continue
			}
			jobs = append(jobs, job)
			keep[key] = append(keep[key], job.ID)
		}
	}
	report.Kept = len(jobs)

	if len(jobs) > 0 {
		n, err := uc.jobRepo.UpsertJobs(ctx, jobs)
		if err != nil {
			return report, fmt.Errorf("upsert jobs: %w", err)
		}
		report.Upserted = n
	}

	for key, ids := range keep {
		n, err := uc.jobRepo.DeactivateMissing(ctx, key.source, key.company, ids)
		if err != nil {
			return report, err
		}
		report.Deactivated += n
	}

	uc.logger.Info("ingest stored",
		zap.Int("boards_ok", report.BoardsOK), zap.Int("boards_failed", report.BoardsFailed),
		zap.Int("fetched", report.Fetched), zap.Int("kept", report.Kept), zap.Int64("deactivated", report.Deactivated))

	embedded, err := uc.backfill.RunExclusive(ctx)
	switch {
	case errors.Is(err, service.ErrLockHeld):
		report.EmbedSkipped = true
		uc.logger.Info("backfill already running, skipping embed step")
	case err != nil:
		return report, fmt.Errorf("backfill: %w", err)
	}
	report.Embedded = embedded
	return report, nil
}
