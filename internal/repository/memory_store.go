package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fadilmartias/jobseek/internal/model"
	"github.com/fadilmartias/jobseek/internal/util"
)

// MemoryStore keeps jobs and embeddings in process and ranks with an exact
// scan. It honours the same contract as the Postgres repositories and backs
// STORE_DRIVER=memory and the tests.
type MemoryStore struct {
	mu         sync.RWMutex
	modelName  string
	dimension  int
	jobs       map[string]model.Job
	embeddings map[string]model.JobEmbedding
	now        func() time.Time
}

func NewMemoryStore(modelName string, dimension int) *MemoryStore {
	return &MemoryStore{
		modelName:  modelName,
		dimension:  dimension,
		jobs:       make(map[string]model.Job),
		embeddings: make(map[string]model.JobEmbedding),
		now:        time.Now,
	}
}

// WithClock replaces the clock used for timestamps and recency.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) UpsertJobs(_ context.Context, jobs []model.Job) (int, error) {
	rows := dedupeJobs(jobs)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	for _, j := range rows {
		if prev, ok := s.jobs[j.ID]; ok {
			j.InsertedAt = prev.InsertedAt
		} else if j.InsertedAt.IsZero() {
			j.InsertedAt = now
		}
		j.IsActive = true
		j.UpdatedAt = now
		s.jobs[j.ID] = j
	}
	return len(rows), nil
}

// PutJob stores a job as-is, including its active flag.
func (s *MemoryStore) PutJob(j model.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
}

func (s *MemoryStore) FindJobByID(_ context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, model.ErrJobNotFound
	}
	return &j, nil
}

func (s *MemoryStore) DeactivateMissing(_ context.Context, source, company string, keepIDs []string) (int64, error) {
	keep := make(map[string]struct{}, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, j := range s.jobs {
		if !j.IsActive || j.Source != source || !strings.EqualFold(j.Company, company) {
			continue
		}
		if _, ok := keep[id]; ok {
			continue
		}
		j.IsActive = false
		j.UpdatedAt = s.now().UTC()
		s.jobs[id] = j
		n++
	}
	return n, nil
}

func (s *MemoryStore) GetJobsMissingEmbeddings(_ context.Context, modelName string, limit int) ([]model.PendingEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.PendingEmbedding, 0)
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		j := s.jobs[id]
		text := j.TextToEmbed()
		e, ok := s.embeddings[id]
		if ok && e.ModelName == modelName && e.ContentHash == util.ContentHash(text) {
			continue
		}
		out = append(out, model.PendingEmbedding{JobID: id, TextToEmbed: text})
	}
	return out, nil
}

func (s *MemoryStore) UpsertEmbeddings(_ context.Context, rows []model.JobEmbedding) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range rows {
		if _, ok := s.jobs[e.JobID]; !ok {
			return 0, model.ErrJobNotFound
		}
		if e.EmbeddedAt.IsZero() {
			e.EmbeddedAt = s.now().UTC()
		}
		s.embeddings[e.JobID] = e
	}
	return len(rows), nil
}

func (s *MemoryStore) CountActiveJobsWithEmbeddings(_ context.Context, filters model.SearchFilters) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, j := range s.jobs {
		if s.searchable(j, filters) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) SearchSemantic(_ context.Context, vec []float32, limit, offset int, filters model.SearchFilters) ([]model.RankedJob, error) {
	if len(vec) != s.dimension {
		return nil, model.ErrDimensionMismatch
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []model.RankedJob
	for _, j := range s.jobs {
		if !s.searchable(j, filters) {
			continue
		}
		r := rankedFromJob(j)
		r.CosineSim = CosineSimilarity(s.embeddings[j.ID].Embedding.Slice(), vec)
		rows = append(rows, r)
	}
	sort.Slice(rows, func(a, b int) bool {
		return rankLess(rows[a].CosineSim, rows[b].CosineSim, rows[a].PostedAt, rows[b].PostedAt, rows[a].ID, rows[b].ID)
	})
	return paginate(rows, limit, offset), nil
}

func (s *MemoryStore) SearchHybrid(_ context.Context, vec []float32, text string, limit, offset int, filters model.SearchFilters, weights model.HybridWeights) ([]model.RankedJob, error) {
	if len(vec) != s.dimension {
		return nil, model.ErrDimensionMismatch
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	var rows []model.RankedJob
	for _, j := range s.jobs {
		if !s.searchable(j, filters) {
			continue
		}
		r := rankedFromJob(j)
		r.CosineSim = CosineSimilarity(s.embeddings[j.ID].Embedding.Slice(), vec)
		tm := TextMatchScore(text, j.Title, j.Company)
		rec := RecencyScore(j.PostedAt, now, weights.RecencyHalfLife)
		score := weights.Vector*r.CosineSim + weights.Text*tm + weights.Recency*rec
		r.TextMatch, r.Recency, r.HybridScore = &tm, &rec, &score
		rows = append(rows, r)
	}
	sort.Slice(rows, func(a, b int) bool {
		return rankLess(*rows[a].HybridScore, *rows[b].HybridScore, rows[a].PostedAt, rows[b].PostedAt, rows[a].ID, rows[b].ID)
	})
	return paginate(rows, limit, offset), nil
}

// searchable mirrors the SQL join: active, embedded by the active model,
// matching every supplied filter. Callers hold the lock.
func (s *MemoryStore) searchable(j model.Job, f model.SearchFilters) bool {
	if !j.IsActive {
		return false
	}
	e, ok := s.embeddings[j.ID]
	if !ok || e.ModelName != s.modelName {
		return false
	}
	if c := strings.TrimSpace(f.Company); c != "" && !strings.EqualFold(j.Company, c) {
		return false
	}
	if l := strings.ToLower(strings.TrimSpace(f.Location)); l != "" {
		found := false
		for _, loc := range j.Locations {
			if strings.Contains(strings.ToLower(loc), l) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func rankedFromJob(j model.Job) model.RankedJob {
	return model.RankedJob{
		ID:        j.ID,
		Source:    j.Source,
		Company:   j.Company,
		Title:     j.Title,
		Locations: j.Locations,
		Remote:    j.Remote,
		URL:       j.URL,
		PostedAt:  j.PostedAt,
		Tags:      j.Tags,
	}
}

func paginate(rows []model.RankedJob, limit, offset int) []model.RankedJob {
	out := make([]model.RankedJob, 0)
	if offset < 0 || limit <= 0 || offset >= len(rows) {
		return out
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return append(out, rows[offset:end]...)
}
