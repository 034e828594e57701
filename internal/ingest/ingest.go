// Package ingest orchestrates the parse → embed → index pipeline for a
// single filing and for batch directories.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/orionfinancialai/finrag/internal/embedding"
	"github.com/orionfinancialai/finrag/internal/models"
	"github.com/orionfinancialai/finrag/internal/parser"
	"github.com/orionfinancialai/finrag/internal/vectorstore"
)

// Pipeline ingests filings. All collaborators are injected so tests can
// run the whole flow against fakes.
type Pipeline struct {
	parser   parser.Parser
	embedder embedding.Embedder
	store    vectorstore.VectorStore
}

func NewPipeline(p parser.Parser, e embedding.Embedder, s vectorstore.VectorStore) *Pipeline {
	return &Pipeline{parser: p, embedder: e, store: s}
}

// ValidateMetadata checks the filing identity before any network call is
// made. Tickers are normalized to upper case.
func ValidateMetadata(ticker string, year int) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" || !isAlnum(ticker) {
		return "", fmt.Errorf("invalid ticker symbol %q: must be alphanumeric", ticker)
	}
	if year < 1900 || year > 2100 {
		return "", fmt.Errorf("invalid year %d", year)
	}
	return ticker, nil
}

func isAlnum(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// IngestFiling parses the file, embeds every chunk, and replaces whatever
// was previously indexed under (ticker, year). It returns the number of
// chunks written. A document that parses to nothing is not an error.
func (p *Pipeline) IngestFiling(ctx context.Context, filePath, ticker string, year int) (int, error) {
	ticker, err := ValidateMetadata(ticker, year)
	if err != nil {
		return 0, err
	}

	log.Info().Str("ticker", ticker).Int("year", year).Str("file", filePath).Msg("starting ingestion")

	chunks, err := p.parser.Parse(ctx, filePath)
	if err != nil {
		return 0, &models.ParseError{Path: filePath, Err: err}
	}
	if len(chunks) == 0 {
		log.Warn().Str("file", filePath).Msg("no chunks extracted")
		return 0, nil
	}

	source := filepath.Base(filePath)
	embedded, err := embedding.EmbedChunks(ctx, p.embedder, source, chunks)
	if err != nil {
		return 0, err
	}

	points := make([]vectorstore.Point, len(embedded))
	for i, ce := range embedded {
		points[i] = vectorstore.Point{
			ID:     vectorstore.PointID(ticker, year, source, ce.PageNumber, ce.ChunkID),
			Vector: ce.Embedding,
			Payload: vectorstore.Payload{
				Ticker: ticker,
				Year:   year,
				Text:   ce.Content,
				Kind:   string(ce.Kind),
				Source: source,
				Page:   ce.PageNumber,
				Chunk:  ce.ChunkID,
			},
		}
	}

	filter := vectorstore.Filter{Ticker: ticker, Year: year}
	if err := p.store.ReplaceFiling(ctx, filter, points); err != nil {
		return 0, &models.IndexError{Op: "replace", Err: err}
	}

	log.Info().Str("ticker", ticker).Int("year", year).Int("chunks", len(points)).Msg("indexing complete")
	return len(points), nil
}
