package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadilmartias/jobseek/internal/model"
	"github.com/fadilmartias/jobseek/internal/repository"
	"github.com/fadilmartias/jobseek/internal/service"
	"github.com/fadilmartias/jobseek/internal/util"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// ErrBackfillStalled means a non-empty batch wrote nothing, so looping again
// would select the same rows forever.
var ErrBackfillStalled = errors.New("embedding backfill made no progress")

type TextEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

type BackfillUsecase struct {
	jobRepo   repository.JobRepositoryInterface
	embRepo   repository.EmbeddingRepositoryInterface
	embedder  TextEmbedder
	locker    service.Locker
	passLimit int
	logger    *zap.Logger
	now       func() time.Time
}

var _ TextEmbedder = (*service.EmbeddingService)(nil)

func NewBackfillUsecase(jobRepo repository.JobRepositoryInterface, embRepo repository.EmbeddingRepositoryInterface, embedder TextEmbedder, locker service.Locker, passLimit int, logger *zap.Logger) *BackfillUsecase {
	if locker == nil {
		locker = service.NewLocalLocker()
	}
	return &BackfillUsecase{
		jobRepo:   jobRepo,
		embRepo:   embRepo,
		embedder:  embedder,
		locker:    locker,
		passLimit: passLimit,
		logger:    logger,
		now:       time.Now,
	}
}

// EmbedAllMissing embeds every job whose embedding is absent or stale for the
// active model and returns how many rows were written. Batches already
// written stay written when a later batch fails.
func (uc *BackfillUsecase) EmbedAllMissing(ctx context.Context) (int, error) {
	modelName := uc.embedder.ModelName()
	total := 0
	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		pending, err := uc.jobRepo.GetJobsMissingEmbeddings(ctx, modelName, uc.passLimit)
		if err != nil {
			return total, fmt.Errorf("select pending jobs: %w", err)
		}
		if len(pending) == 0 {
			break
		}

		texts := make([]string, len(pending))
		for i, p := range pending {
			texts[i] = p.TextToEmbed
		}
		vecs, err := uc.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return total, fmt.Errorf("embed pass %d: %w", pass, err)
		}

		embeddedAt := uc.now().UTC()
		rows := make([]model.JobEmbedding, len(pending))
		for i, p := range pending {
			rows[i] = model.JobEmbedding{
				JobID:       p.JobID,
				ModelName:   modelName,
				Embedding:   pgvector.NewVector(vecs[i]),
				ContentHash: util.ContentHash(p.TextToEmbed),
				EmbeddedAt:  embeddedAt,
			}
		}
		n, err := uc.embRepo.UpsertEmbeddings(ctx, rows)
		if err != nil {
			return total, fmt.Errorf("upsert pass %d: %w", pass, err)
		}
		if n == 0 {
			return total, fmt.Errorf("%w: %d pending jobs on pass %d", ErrBackfillStalled, len(pending), pass)
		}
		total += n
		uc.logger.Info("embedding pass done", zap.Int("pass", pass), zap.Int("embedded", n), zap.Int("total", total))
	}
	if total > 0 {
		uc.logger.Info("embedding backfill finished", zap.String("model", modelName), zap.Int("embedded", total))
	}
	return total, nil
}

// RunExclusive runs EmbedAllMissing while holding the backfill lock. It
// returns service.ErrLockHeld when another run owns it.
func (uc *BackfillUsecase) RunExclusive(ctx context.Context) (int, error) {
	release, err := uc.locker.TryLock(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		// release with a fresh context so a cancelled run still frees the lock
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := release(relCtx); err != nil {
			uc.logger.Warn("release backfill lock", zap.Error(err))
		}
	}()
	return uc.EmbedAllMissing(ctx)
}
