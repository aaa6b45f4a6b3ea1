package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/fadilmartias/jobseek/internal/dto"
	"github.com/fadilmartias/jobseek/internal/model"
	"github.com/fadilmartias/jobseek/internal/repository"
	"github.com/fadilmartias/jobseek/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubFetcher struct {
	source string
	boards map[string][]dto.JobInput
	order  []string
	fail   map[string]bool
}

func (s *stubFetcher) Source() string   { return s.source }
func (s *stubFetcher) Boards() []string { return s.order }

func (s *stubFetcher) Fetch(_ context.Context, board string) ([]dto.JobInput, error) {
	if s.fail[board] {
		return nil, errors.New("board down")
	}
	return s.boards[board], nil
}

func posting(source, company, title, url string) dto.JobInput {
	return dto.JobInput{Source: source, Company: company, Title: title, URL: url, DescriptionHTML: "<p>" + title + "</p>"}
}

func TestIngestRun(t *testing.T) {
	store := repository.NewMemoryStore(testModel, 4)
	ctx := context.Background()

	// a posting from the failing board that must survive
	survivor := posting("greenhouse", "down", "ML Engineer", "https://x/down/1").ToModel()
	_, err := store.UpsertJobs(ctx, []model.Job{survivor})
	require.NoError(t, err)
	// a posting that vanished from a healthy board
	vanished := posting("greenhouse", "acme", "Applied Scientist", "https://x/acme/old").ToModel()
	_, err = store.UpsertJobs(ctx, []model.Job{vanished})
	require.NoError(t, err)

	gh := &stubFetcher{
		source: "greenhouse",
		order:  []string{"acme", "down"},
		boards: map[string][]dto.JobInput{
			"acme": {
				posting("greenhouse", "acme", "Machine Learning Engineer", "https://x/acme/1"),
				posting("greenhouse", "acme", "Office Manager", "https://x/acme/2"),
			},
		},
		fail: map[string]bool{"down": true},
	}
	ab := &stubFetcher{
		source: "ashby",
		order:  []string{"openai"},
		boards: map[string][]dto.JobInput{
			"openai": {posting("ashby", "openai", "Research Engineer", "https://x/openai/1")},
		},
	}

	emb := newFakeEmbedder(4)
	backfill := NewBackfillUsecase(store, store, emb, service.NewLocalLocker(), 10, zap.NewNop())
	uc := NewIngestUsecase(store, backfill, []service.BoardFetcher{gh, ab}, 2, 0, zap.NewNop())

	report, err := uc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.BoardsOK)
	assert.Equal(t, 1, report.BoardsFailed)
	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, 2, report.Kept)
	assert.Equal(t, 2, report.Upserted)
	assert.EqualValues(t, 1, report.Deactivated)
	assert.False(t, report.EmbedSkipped)
	// the two new postings plus the survivor; the vanished one is inactive but still embedded
	assert.Equal(t, 4, report.Embedded)

	got, err := store.FindJobByID(ctx, survivor.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	got, err = store.FindJobByID(ctx, vanished.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	total, err := store.CountActiveJobsWithEmbeddings(ctx, model.SearchFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	// a second run changes nothing
	report, err = uc.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Deactivated)
	assert.Zero(t, report.Embedded)
}

func TestIngestSkipsEmbedWhenLocked(t *testing.T) {
	store := repository.NewMemoryStore(testModel, 4)
	locker := service.NewLocalLocker()
	backfill := NewBackfillUsecase(store, store, newFakeEmbedder(4), locker, 10, zap.NewNop())
	gh := &stubFetcher{
		source: "greenhouse",
		order:  []string{"acme"},
		boards: map[string][]dto.JobInput{"acme": {posting("greenhouse", "acme", "LLM Engineer", "https://x/1")}},
	}
	uc := NewIngestUsecase(store, backfill, []service.BoardFetcher{gh}, 1, 0, zap.NewNop())
	ctx := context.Background()

	release, err := locker.TryLock(ctx)
	require.NoError(t, err)
	defer release(ctx)

	report, err := uc.Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.EmbedSkipped)
	assert.Equal(t, 1, report.Upserted)
	assert.Zero(t, report.Embedded)
}
