// Package chromemdb implements the vector store contract on chromem-go, an
// embedded vector database. It needs no external service, which makes it
// the backend of choice for local runs and tests.
package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/orionfinancialai/finrag/internal/vectorstore"
)

var _ vectorstore.VectorStore = (*Store)(nil)

const compress = false

// Store wraps a chromem collection. Embeddings are always supplied by the
// caller, so no embedding function is registered with the collection.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

// New opens a persistent database at path, or an in-memory one when
// inMemory is set.
func New(path, collectionName string, inMemory bool) (*Store, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}
	return &Store{db: db, name: collectionName}, nil
}

func (s *Store) Init(_ context.Context, _ int) error {
	c, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	s.collection = c
	return nil
}

func where(f vectorstore.Filter) map[string]string {
	return map[string]string{
		"ticker": f.Ticker,
		"year":   strconv.Itoa(f.Year),
	}
}

func (s *Store) ReplaceFiling(ctx context.Context, f vectorstore.Filter, points []vectorstore.Point) error {
	if s.collection == nil {
		return fmt.Errorf("collection not initialized")
	}
	if s.collection.Count() > 0 {
		if err := s.collection.Delete(ctx, where(f), nil); err != nil {
			return fmt.Errorf("failed to delete prior documents: %w", err)
		}
	}
	if len(points) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(points))
	for i, p := range points {
		docs[i] = chromem.Document{
			ID:        p.ID,
			Content:   p.Payload.Text,
			Embedding: p.Vector,
			Metadata: map[string]string{
				"ticker": p.Payload.Ticker,
				"year":   strconv.Itoa(p.Payload.Year),
				"kind":   p.Payload.Kind,
				"source": p.Payload.Source,
				"page":   strconv.Itoa(p.Payload.Page),
				"chunk":  strconv.Itoa(p.Payload.Chunk),
			},
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, f vectorstore.Filter, limit int) ([]vectorstore.Hit, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	// chromem rejects nResults larger than the collection, so clamp; an
	// empty collection is simply no hits.
	if count := s.collection.Count(); count < limit {
		limit = count
	}
	if limit == 0 {
		return nil, nil
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, limit, where(f), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	hits := make([]vectorstore.Hit, 0, len(results))
	for _, r := range results {
		year, _ := strconv.Atoi(r.Metadata["year"])
		page, _ := strconv.Atoi(r.Metadata["page"])
		chunk, _ := strconv.Atoi(r.Metadata["chunk"])
		hits = append(hits, vectorstore.Hit{
			Payload: vectorstore.Payload{
				Ticker: r.Metadata["ticker"],
				Year:   year,
				Text:   r.Content,
				Kind:   r.Metadata["kind"],
				Source: r.Metadata["source"],
				Page:   page,
				Chunk:  chunk,
			},
			Score: float64(r.Similarity),
		})
	}
	return hits, nil
}

func (s *Store) Close() error { return nil }
