package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/fadilmartias/jobseek/internal/config"
	"github.com/fadilmartias/jobseek/internal/dto"
	"github.com/fadilmartias/jobseek/internal/model"
	"github.com/fadilmartias/jobseek/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSearchConfig() *config.SearchConfig {
	return &config.SearchConfig{
		VectorWeight:        0.7,
		TextWeight:          0.2,
		RecencyWeight:       0.1,
		RecencyHalfLifeDays: 7,
		Probes:              10,
		DefaultPageSize:     20,
		MaxPageSize:         100,
	}
}

type searchFixture struct {
	store    *repository.MemoryStore
	embedder *fakeEmbedder
	uc       *SearchUsecase
	backfill *BackfillUsecase
}

func newSearchFixture(t *testing.T, dim int) *searchFixture {
	t.Helper()
	store := repository.NewMemoryStore(testModel, dim)
	emb := newFakeEmbedder(dim)
	return &searchFixture{
		store:    store,
		embedder: emb,
		uc:       NewSearchUsecase(store, store, emb, testSearchConfig(), zap.NewNop()),
		backfill: NewBackfillUsecase(store, store, emb, nil, 8, zap.NewNop()),
	}
}

func (f *searchFixture) seed(t *testing.T, jobs ...model.Job) {
	t.Helper()
	ctx := context.Background()
	_, err := f.store.UpsertJobs(ctx, jobs)
	require.NoError(t, err)
	_, err = f.backfill.EmbedAllMissing(ctx)
	require.NoError(t, err)
}

func TestDoJobSearchEmptyQuery(t *testing.T) {
	f := newSearchFixture(t, 4)
	f.seed(t, model.Job{ID: "1", Title: "ML Engineer", Company: "Acme"})

	for _, q := range []string{"", "   ", "\t"} {
		page, err := f.uc.DoJobSearch(context.Background(), dto.SearchQuery{Q: q, Page: 3, PageSize: 7})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.NotNil(t, page.Items)
		assert.Zero(t, page.Total)
		assert.Equal(t, 3, page.Page)
		assert.Equal(t, 7, page.PageSize)
		assert.Zero(t, page.TotalPages)
	}
	assert.Zero(t, f.embedder.queries)
}

func TestDoJobSearchValidation(t *testing.T) {
	f := newSearchFixture(t, 4)
	ctx := context.Background()

	cases := []dto.SearchQuery{
		{Q: "ml", Page: 0, PageSize: 10},
		{Q: "ml", Page: 1, PageSize: 0},
		{Q: "ml", Page: 1, PageSize: 101},
		{Q: "ml", Page: 1, PageSize: 10, Mode: "bogus"},
		{Q: "", Page: 1, PageSize: 10, Mode: "bogus"},
	}
	for _, q := range cases {
		_, err := f.uc.DoJobSearch(ctx, q)
		assert.ErrorIs(t, err, ErrInvalidRequest, "%+v", q)
	}
	assert.Zero(t, f.embedder.queries)
}

func TestDoJobSearchSemantic(t *testing.T) {
	f := newSearchFixture(t, 8)
	f.embedder.fixed["machine learning"] = basis(8, 0)
	f.embedder.fixed["Perfect Match at Acme in Remote"] = basis(8, 0)
	f.embedder.fixed["Bad Match at Acme in Remote"] = basis(8, 1)
	f.seed(t,
		model.Job{ID: "A", Title: "Perfect Match", Company: "Acme"},
		model.Job{ID: "B", Title: "Bad Match", Company: "Acme"},
	)

	page, err := f.uc.DoJobSearch(context.Background(), dto.SearchQuery{Q: "machine learning", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "A", page.Items[0].ID)
	assert.InDelta(t, 1.0, page.Items[0].CosineSim, 1e-6)
	assert.Equal(t, "B", page.Items[1].ID)
	assert.Nil(t, page.Items[0].HybridScore)
	assert.EqualValues(t, 2, page.Total)
	assert.EqualValues(t, 1, page.TotalPages)
	assert.Equal(t, 1, f.embedder.queries)
}

func TestDoJobSearchNoEmbeddings(t *testing.T) {
	f := newSearchFixture(t, 4)
	_, err := f.store.UpsertJobs(context.Background(), []model.Job{{ID: "1", Title: "ML Engineer"}})
	require.NoError(t, err)

	page, err := f.uc.DoJobSearch(context.Background(), dto.SearchQuery{Q: "ml", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
	assert.Zero(t, page.TotalPages)
}

func TestDoJobSearchPagination(t *testing.T) {
	f := newSearchFixture(t, 4)
	var jobs []model.Job
	for i := 0; i < 5; i++ {
		jobs = append(jobs, model.Job{ID: fmt.Sprintf("j%d", i), Title: fmt.Sprintf("Role %d", i), Company: "Acme"})
	}
	f.seed(t, jobs...)
	ctx := context.Background()

	seen := map[string]bool{}
	for p := 1; p <= 3; p++ {
		page, err := f.uc.DoJobSearch(ctx, dto.SearchQuery{Q: "role", Page: p, PageSize: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 5, page.Total)
		assert.EqualValues(t, 3, page.TotalPages)
		for _, it := range page.Items {
			assert.False(t, seen[it.ID])
			seen[it.ID] = true
		}
	}
	assert.Len(t, seen, 5)

	page, err := f.uc.DoJobSearch(ctx, dto.SearchQuery{Q: "role", Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 5, page.Total)
}

func TestDoJobSearchHybridAndFilters(t *testing.T) {
	f := newSearchFixture(t, 8)
	f.embedder.fixed["rust"] = basis(8, 0)
	for _, text := range []string{"Rust Engineer at Acme in Remote", "Engineer at Rustacean Labs in Remote", "Engineer at Other in Remote"} {
		f.embedder.fixed[text] = basis(8, 1)
	}
	f.seed(t,
		model.Job{ID: "title", Title: "Rust Engineer", Company: "Acme"},
		model.Job{ID: "company", Title: "Engineer", Company: "Rustacean Labs"},
		model.Job{ID: "plain", Title: "Engineer", Company: "Other"},
	)
	ctx := context.Background()

	page, err := f.uc.DoJobSearch(ctx, dto.SearchQuery{Q: "rust", Page: 1, PageSize: 10, Mode: "hybrid"})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "title", page.Items[0].ID)
	assert.Equal(t, "company", page.Items[1].ID)
	require.NotNil(t, page.Items[0].TextMatch)
	assert.Equal(t, 1.0, *page.Items[0].TextMatch)
	assert.Equal(t, 0.8, *page.Items[1].TextMatch)

	page, err = f.uc.DoJobSearch(ctx, dto.SearchQuery{Q: "rust", Page: 1, PageSize: 10, Mode: "HYBRID", Company: "acme"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.EqualValues(t, 1, page.Total)
}

func TestGetJob(t *testing.T) {
	f := newSearchFixture(t, 4)
	f.seed(t, model.Job{ID: "1", Title: "ML Engineer", Company: "Acme"})

	job, err := f.uc.GetJob(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "ML Engineer", job.Title)
	assert.Equal(t, []string{}, job.Locations)

	_, err = f.uc.GetJob(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrJobNotFound)
}
