package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fadilmartias/jobseek/internal/model"
	"github.com/fadilmartias/jobseek/internal/util"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

const testModel = "test-model"

func fill(dim int, v float32) []float32 {
	out := make([]float32, dim)
	for i := range out {
		out[i] = v
	}
	return out
}

func basis(dim, i int) []float32 {
	out := make([]float32, dim)
	out[i] = 1
	return out
}

func seedJob(t *testing.T, s *MemoryStore, j model.Job, vec []float32) {
	t.Helper()
	j.IsActive = true
	s.PutJob(j)
	if vec != nil {
		_, err := s.UpsertEmbeddings(context.Background(), []model.JobEmbedding{{
			JobID:       j.ID,
			ModelName:   testModel,
			Embedding:   pgvector.NewVector(vec),
			ContentHash: util.ContentHash(j.TextToEmbed()),
		}})
		require.NoError(t, err)
	}
}

func TestSemanticPerfectAndBadMatch(t *testing.T) {
	const dim = 384
	s := NewMemoryStore(testModel, dim)
	seedJob(t, s, model.Job{ID: "A", Title: "Perfect Match", Company: "Acme"}, fill(dim, 1))
	seedJob(t, s, model.Job{ID: "B", Title: "Bad Match", Company: "Acme"}, fill(dim, -1))

	rows, err := s.SearchSemantic(context.Background(), fill(dim, 1), 10, 0, model.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].ID)
	assert.Equal(t, "B", rows[1].ID)
	assert.InDelta(t, 1.0, rows[0].CosineSim, 1e-6)
	assert.InDelta(t, -1.0, rows[1].CosineSim, 1e-6)
	assert.Nil(t, rows[0].HybridScore)
}

func TestSearchWithoutEmbeddingsIsEmpty(t *testing.T) {
	s := NewMemoryStore(testModel, 4)
	seedJob(t, s, model.Job{ID: "A", Title: "ML Engineer"}, nil)

	ctx := context.Background()
	rows, err := s.SearchSemantic(ctx, basis(4, 0), 10, 0, model.SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)

	total, err := s.CountActiveJobsWithEmbeddings(ctx, model.SearchFilters{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSearchExcludesInactiveAndOtherModels(t *testing.T) {
	s := NewMemoryStore(testModel, 4)
	ctx := context.Background()
	seedJob(t, s, model.Job{ID: "active", Title: "x"}, basis(4, 0))
	seedJob(t, s, model.Job{ID: "gone", Title: "y"}, basis(4, 0))
	seedJob(t, s, model.Job{ID: "other", Title: "z"}, nil)

	gone, _ := s.FindJobByID(ctx, "gone")
	gone.IsActive = false
	s.PutJob(*gone)
	_, err := s.UpsertEmbeddings(ctx, []model.JobEmbedding{{JobID: "other", ModelName: "old-model", Embedding: pgvector.NewVector(basis(4, 0))}})
	require.NoError(t, err)

	rows, err := s.SearchSemantic(ctx, basis(4, 0), 10, 0, model.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "active", rows[0].ID)

	total, err := s.CountActiveJobsWithEmbeddings(ctx, model.SearchFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestSearchTieBreak(t *testing.T) {
	s := NewMemoryStore(testModel, 4)
	newer := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	older := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	vec := basis(4, 0)
	seedJob(t, s, model.Job{ID: "c", Title: "t"}, vec)
	seedJob(t, s, model.Job{ID: "a", Title: "t"}, vec)
	seedJob(t, s, model.Job{ID: "old", Title: "t", PostedAt: &older}, vec)
	seedJob(t, s, model.Job{ID: "new", Title: "t", PostedAt: &newer}, vec)

	rows, err := s.SearchSemantic(context.Background(), vec, 10, 0, model.SearchFilters{})
	require.NoError(t, err)
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"new", "old", "a", "c"}, ids)
}

func TestSearchPaginationIsStable(t *testing.T) {
	s := NewMemoryStore(testModel, 4)
	for i := 0; i < 7; i++ {
		seedJob(t, s, model.Job{ID: fmt.Sprintf("job-%d", i), Title: "t"}, basis(4, 0))
	}
	ctx := context.Background()
	seen := map[string]bool{}
	for offset := 0; offset < 9; offset += 3 {
		rows, err := s.SearchSemantic(ctx, basis(4, 0), 3, offset, model.SearchFilters{})
		require.NoError(t, err)
		for _, r := range rows {
			assert.False(t, seen[r.ID], "duplicate %s", r.ID)
			seen[r.ID] = true
		}
	}
	assert.Len(t, seen, 7)

	rows, err := s.SearchSemantic(ctx, basis(4, 0), 3, 30, model.SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSearchFilters(t *testing.T) {
	s := NewMemoryStore(testModel, 4)
	ctx := context.Background()
	vec := basis(4, 0)
	seedJob(t, s, model.Job{ID: "1", Title: "t", Company: "Anthropic", Locations: datatypes.JSONSlice[string]{"San Francisco, CA"}}, vec)
	seedJob(t, s, model.Job{ID: "2", Title: "t", Company: "anthropic", Locations: datatypes.JSONSlice[string]{"London"}}, vec)
	seedJob(t, s, model.Job{ID: "3", Title: "t", Company: "Cohere", Locations: datatypes.JSONSlice[string]{"Toronto", "San Francisco"}}, vec)

	total, err := s.CountActiveJobsWithEmbeddings(ctx, model.SearchFilters{Company: "ANTHROPIC"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	total, err = s.CountActiveJobsWithEmbeddings(ctx, model.SearchFilters{Location: "san fran"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	rows, err := s.SearchSemantic(ctx, vec, 10, 0, model.SearchFilters{Company: "anthropic", Location: "san"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].ID)
}

func TestHybridScoring(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(testModel, 4).WithClock(func() time.Time { return now })
	weekAgo := now.Add(-7 * 24 * time.Hour)
	vec := basis(4, 0)

	seedJob(t, s, model.Job{ID: "title", Title: "Senior ML Engineer", Company: "Acme", PostedAt: &weekAgo}, vec)
	seedJob(t, s, model.Job{ID: "company", Title: "Researcher", Company: "ML Labs"}, vec)
	seedJob(t, s, model.Job{ID: "none", Title: "Researcher", Company: "Acme", PostedAt: &now}, basis(4, 1))

	w := model.HybridWeights{Vector: 0.7, Text: 0.2, Recency: 0.1, RecencyHalfLife: 7 * 24 * time.Hour}
	rows, err := s.SearchHybrid(context.Background(), vec, "ml", 10, 0, model.SearchFilters{}, w)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "title", rows[0].ID)
	assert.InDelta(t, 0.7+0.2*1.0+0.1*0.5, *rows[0].HybridScore, 1e-9)
	assert.InDelta(t, 1.0, *rows[0].TextMatch, 1e-9)
	assert.InDelta(t, 0.5, *rows[0].Recency, 1e-9)

	assert.Equal(t, "company", rows[1].ID)
	assert.InDelta(t, 0.7+0.2*0.8, *rows[1].HybridScore, 1e-9)
	assert.InDelta(t, 0.0, *rows[1].Recency, 1e-9)

	assert.Equal(t, "none", rows[2].ID)
	assert.InDelta(t, 0.1, *rows[2].HybridScore, 1e-9)
}

func TestHybridTwoTermForm(t *testing.T) {
	s := NewMemoryStore(testModel, 2)
	posted := time.Now()
	seedJob(t, s, model.Job{ID: "x", Title: "ML Engineer", PostedAt: &posted}, []float32{1, 0})

	w := model.HybridWeights{Vector: 0.7, Text: 0.3, RecencyHalfLife: 7 * 24 * time.Hour}
	rows, err := s.SearchHybrid(context.Background(), []float32{1, 0}, "engineer", 10, 0, model.SearchFilters{}, w)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1.0, *rows[0].HybridScore, 1e-9)
}

func TestSearchDimensionMismatch(t *testing.T) {
	s := NewMemoryStore(testModel, 4)
	_, err := s.SearchSemantic(context.Background(), []float32{1, 0}, 10, 0, model.SearchFilters{})
	assert.ErrorIs(t, err, model.ErrDimensionMismatch)
}

func TestMissingEmbeddings(t *testing.T) {
	s := NewMemoryStore(testModel, 2)
	ctx := context.Background()
	seedJob(t, s, model.Job{ID: "fresh", Title: "A", Company: "C", Locations: datatypes.JSONSlice[string]{"Paris", "Berlin"}}, []float32{1, 0})
	seedJob(t, s, model.Job{ID: "none", Title: "B", Company: "C"}, nil)
	seedJob(t, s, model.Job{ID: "stale", Title: "C", Company: "C"}, []float32{1, 0})
	seedJob(t, s, model.Job{ID: "wrong-model", Title: "D", Company: "C"}, nil)

	_, err := s.UpsertEmbeddings(ctx, []model.JobEmbedding{{JobID: "wrong-model", ModelName: "old", Embedding: pgvector.NewVector([]float32{1, 0})}})
	require.NoError(t, err)

	stale, _ := s.FindJobByID(ctx, "stale")
	stale.Title = "C renamed"
	s.PutJob(*stale)

	pending, err := s.GetJobsMissingEmbeddings(ctx, testModel, 10)
	require.NoError(t, err)
	var ids []string
	for _, p := range pending {
		ids = append(ids, p.JobID)
	}
	assert.Equal(t, []string{"none", "stale", "wrong-model"}, ids)
	assert.Equal(t, "B at C in Remote", pending[0].TextToEmbed)
	assert.Equal(t, "C renamed at C in Remote", pending[1].TextToEmbed)

	limited, err := s.GetJobsMissingEmbeddings(ctx, testModel, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestUpsertJobsAndDeactivate(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := created
	s := NewMemoryStore(testModel, 2).WithClock(func() time.Time { return clock })
	ctx := context.Background()

	n, err := s.UpsertJobs(ctx, []model.Job{
		{ID: "1", Source: "greenhouse", Company: "acme", Title: "ML"},
		{ID: "2", Source: "greenhouse", Company: "acme", Title: "AI"},
		{ID: "2", Source: "greenhouse", Company: "acme", Title: "AI v2"},
		{ID: "3", Source: "ashby", Company: "acme", Title: "NLP"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	j2, err := s.FindJobByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "AI v2", j2.Title)

	clock = created.Add(time.Hour)
	_, err = s.UpsertJobs(ctx, []model.Job{{ID: "1", Source: "greenhouse", Company: "acme", Title: "ML Engineer"}})
	require.NoError(t, err)
	j1, _ := s.FindJobByID(ctx, "1")
	assert.Equal(t, created, j1.InsertedAt)
	assert.Equal(t, clock, j1.UpdatedAt)

	deactivated, err := s.DeactivateMissing(ctx, "greenhouse", "ACME", []string{"1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, deactivated)

	j2, _ = s.FindJobByID(ctx, "2")
	assert.False(t, j2.IsActive)
	j3, _ := s.FindJobByID(ctx, "3")
	assert.True(t, j3.IsActive)

	_, err = s.FindJobByID(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrJobNotFound)
}

func TestUpsertEmbeddingUnknownJob(t *testing.T) {
	s := NewMemoryStore(testModel, 2)
	_, err := s.UpsertEmbeddings(context.Background(), []model.JobEmbedding{{JobID: "ghost", ModelName: testModel}})
	assert.ErrorIs(t, err, model.ErrJobNotFound)
}
