// Package vectorstore defines the storage contract the orchestrators write
// to and read from. Backends live in subpackages; the core runtime only
// depends on this interface.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Payload is the metadata stored alongside every vector. Ticker and Year
// are never empty on an indexed point; they are what the exact-match
// filter keys on.
type Payload struct {
	Ticker string `json:"ticker"`
	Year   int    `json:"year"`
	Text   string `json:"text"`
	Kind   string `json:"kind,omitempty"`
	Source string `json:"source,omitempty"`
	Page   int    `json:"page,omitempty"`
	Chunk  int    `json:"chunk,omitempty"`
}

// Point is one indexed chunk.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Filter is an exact-match constraint on ticker and year. Both fields are
// required; fuzzy matching is deliberately not supported.
type Filter struct {
	Ticker string
	Year   int
}

// Hit is a similarity match with the backend's native score, higher is
// more similar.
type Hit struct {
	Payload Payload
	Score   float64
}

// VectorStore persists chunk vectors and answers filtered similarity
// queries. Search must never return a hit whose payload does not satisfy
// the filter exactly.
type VectorStore interface {
	// Init prepares the collection/table for vectors of the given
	// dimensionality. Idempotent.
	Init(ctx context.Context, dim int) error

	// ReplaceFiling removes every point previously stored under the filter
	// key and writes the given points in its place. This is what gives
	// re-ingestion upsert rather than merge semantics.
	ReplaceFiling(ctx context.Context, f Filter, points []Point) error

	// Search returns up to limit hits matching the filter, ranked by
	// similarity to the vector. No match is an empty slice, not an error.
	Search(ctx context.Context, vector []float32, f Filter, limit int) ([]Hit, error)

	Close() error
}

// PointID derives a stable UUID for a chunk from its identity. Re-ingesting
// the same filing produces the same IDs, so even a backend without
// delete-by-filter overwrites rather than duplicates.
func PointID(ticker string, year int, source string, page, chunk int) string {
	name := fmt.Sprintf("%s/%d/%s/%d/%d", ticker, year, source, page, chunk)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
