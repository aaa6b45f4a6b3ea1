package usecase

import (
	"context"
	"errors"
	"hash/fnv"

	"github.com/fadilmartias/jobseek/internal/model"
)

const testModel = "test-model"

// fakeEmbedder maps known texts to fixed vectors and hashes the rest onto a
// basis vector.
type fakeEmbedder struct {
	dim        int
	model      string
	fixed      map[string][]float32
	batches    [][]string
	queries    int
	failOnCall int
	calls      int
}

func newFakeEmbedder(dim int) *fakeEmbedder {
	return &fakeEmbedder{dim: dim, model: testModel, fixed: map[string][]float32{}}
}

func (f *fakeEmbedder) vector(text string) []float32 {
	if v, ok := f.fixed[text]; ok {
		return v
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	v := make([]float32, f.dim)
	v[int(h.Sum32()%uint32(f.dim))] = 1
	return v
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failOnCall > 0 && f.calls == f.failOnCall {
		return nil, errors.New("provider exploded")
	}
	f.batches = append(f.batches, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, q string) ([]float32, error) {
	f.queries++
	return f.vector(q), nil
}

func (f *fakeEmbedder) ModelName() string { return f.model }

// noopEmbeddingRepo accepts writes without storing them.
type noopEmbeddingRepo struct{}

func (noopEmbeddingRepo) UpsertEmbeddings(context.Context, []model.JobEmbedding) (int, error) {
	return 0, nil
}

func basis(dim, i int) []float32 {
	v := make([]float32, dim)
	v[i] = 1
	return v
}
