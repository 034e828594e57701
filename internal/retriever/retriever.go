// Package retriever answers metadata-scoped similarity queries against the
// vector store. Results never cross a ticker/year boundary: the filter is
// exact-match and applied by the store itself.
package retriever

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/orionfinancialai/finrag/internal/embedding"
	"github.com/orionfinancialai/finrag/internal/ingest"
	"github.com/orionfinancialai/finrag/internal/models"
	"github.com/orionfinancialai/finrag/internal/vectorstore"
)

// Retriever embeds queries and runs filtered hybrid search.
type Retriever struct {
	embedder embedding.Embedder
	store    vectorstore.VectorStore
	topK     int
	// alpha weights vector similarity against lexical overlap; 1 is pure
	// vector search.
	alpha float64
}

func New(e embedding.Embedder, s vectorstore.VectorStore, topK int, alpha float64) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if alpha < 0 || alpha > 1 {
		alpha = 0.5
	}
	return &Retriever{embedder: e, store: s, topK: topK, alpha: alpha}
}

// Search returns the top-K chunks for the query within (ticker, year).
// An empty or whitespace-only query and a never-ingested (ticker, year)
// both yield an empty result, not an error.
func (r *Retriever) Search(ctx context.Context, query, ticker string, year int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	ticker, err := ingest.ValidateMetadata(ticker, year)
	if err != nil {
		return nil, err
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &models.EmbeddingError{Source: "query", Err: err}
	}

	filter := vectorstore.Filter{Ticker: ticker, Year: year}
	hits, err := r.store.Search(ctx, vector, filter, r.topK)
	if err != nil {
		return nil, &models.IndexError{Op: "search", Err: err}
	}
	if len(hits) == 0 {
		log.Debug().Str("ticker", ticker).Int("year", year).Msg("no chunks matched the filter")
		return nil, nil
	}

	results := fuse(query, hits, r.alpha)
	if len(results) > r.topK {
		results = results[:r.topK]
	}
	return results, nil
}
