package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orionfinancialai/finrag/internal/models"
	"github.com/orionfinancialai/finrag/internal/vectorstore"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, f.err
}

type fakeStore struct {
	hits       []vectorstore.Hit
	err        error
	lastFilter vectorstore.Filter
	lastLimit  int
	calls      int
}

func (f *fakeStore) Init(context.Context, int) error { return nil }

func (f *fakeStore) ReplaceFiling(context.Context, vectorstore.Filter, []vectorstore.Point) error {
	return nil
}

func (f *fakeStore) Search(_ context.Context, _ []float32, filter vectorstore.Filter, limit int) ([]vectorstore.Hit, error) {
	f.calls++
	f.lastFilter = filter
	f.lastLimit = limit
	return f.hits, f.err
}

func (f *fakeStore) Close() error { return nil }

func TestSearchEmptyQueryReturnsNothing(t *testing.T) {
	store := &fakeStore{}
	r := New(&fakeEmbedder{}, store, 5, 0.5)

	for _, query := range []string{"", "   ", "\n\t"} {
		results, err := r.Search(context.Background(), query, "MMM", 2018)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
	assert.Zero(t, store.calls, "no store round-trip for empty queries")
}

func TestSearchBuildsExactFilter(t *testing.T) {
	store := &fakeStore{hits: []vectorstore.Hit{
		{Payload: vectorstore.Payload{Ticker: "MMM", Year: 2018, Text: "Net income was $2 billion"}, Score: 0.9},
	}}
	r := New(&fakeEmbedder{}, store, 5, 0.5)

	results, err := r.Search(context.Background(), "net income", "mmm", 2018)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, vectorstore.Filter{Ticker: "MMM", Year: 2018}, store.lastFilter)
	assert.Equal(t, 5, store.lastLimit)
	assert.Equal(t, "MMM", results[0].Ticker)
	assert.Equal(t, 2018, results[0].Year)
}

func TestSearchNoMatches(t *testing.T) {
	r := New(&fakeEmbedder{}, &fakeStore{}, 5, 0.5)
	results, err := r.Search(context.Background(), "net income", "ZZZT", 1999)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchInvalidMetadata(t *testing.T) {
	r := New(&fakeEmbedder{}, &fakeStore{}, 5, 0.5)
	_, err := r.Search(context.Background(), "net income", "BRK.A", 2018)
	assert.Error(t, err)
	_, err = r.Search(context.Background(), "net income", "MMM", 0)
	assert.Error(t, err)
}

func TestSearchEmbeddingError(t *testing.T) {
	r := New(&fakeEmbedder{err: errors.New("rate limited")}, &fakeStore{}, 5, 0.5)
	_, err := r.Search(context.Background(), "net income", "MMM", 2018)
	require.Error(t, err)

	var ee *models.EmbeddingError
	assert.ErrorAs(t, err, &ee)
}

func TestSearchStoreError(t *testing.T) {
	r := New(&fakeEmbedder{}, &fakeStore{err: errors.New("unreachable")}, 5, 0.5)
	_, err := r.Search(context.Background(), "net income", "MMM", 2018)
	require.Error(t, err)

	var ie *models.IndexError
	assert.ErrorAs(t, err, &ie)
}

func TestSearchTruncatesToTopK(t *testing.T) {
	hits := make([]vectorstore.Hit, 4)
	for i := range hits {
		hits[i] = vectorstore.Hit{Payload: vectorstore.Payload{Ticker: "MMM", Year: 2018, Text: "chunk"}, Score: float64(4 - i)}
	}
	r := New(&fakeEmbedder{}, &fakeStore{hits: hits}, 2, 1.0)

	results, err := r.Search(context.Background(), "anything", "MMM", 2018)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestNewDefaults(t *testing.T) {
	r := New(&fakeEmbedder{}, &fakeStore{}, 0, -1)
	assert.Equal(t, 5, r.topK)
	assert.Equal(t, 0.5, r.alpha)
}
