// Package qdrant implements the vector store contract against the Qdrant
// HTTP API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/orionfinancialai/finrag/internal/vectorstore"
)

// Ensure Store implements the interface.
var _ vectorstore.VectorStore = (*Store)(nil)

const defaultTimeout = 60 * time.Second

// Store talks to a Qdrant instance over REST. Writes use wait=true so a
// completed ingest is immediately searchable.
type Store struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
}

// Config holds connection settings for a Qdrant instance.
type Config struct {
	// URL of the Qdrant instance, e.g. https://xyz.cloud.qdrant.io:6333.
	URL string
	// APIKey may be empty for an unsecured local instance.
	APIKey string
	// Collection name, created on Init if missing.
	Collection string
	// Timeout for each request (default 60s).
	Timeout time.Duration
}

func New(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant: URL is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Store{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type filterJSON struct {
	Must []condition `json:"must"`
}

type condition struct {
	Key   string `json:"key"`
	Match match  `json:"match"`
}

type match struct {
	Value any `json:"value"`
}

func buildFilter(f vectorstore.Filter) filterJSON {
	return filterJSON{Must: []condition{
		{Key: "ticker", Match: match{Value: f.Ticker}},
		{Key: "year", Match: match{Value: f.Year}},
	}}
}

// Init creates the collection if it does not exist and declares payload
// indexes on the filter fields.
func (s *Store) Init(ctx context.Context, dim int) error {
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		body := map[string]any{
			"vectors": map[string]any{"size": dim, "distance": "Cosine"},
		}
		if err := s.do(ctx, http.MethodPut, "/collections/"+s.collection, body, nil); err != nil {
			return err
		}
	}

	// Payload indexes make the exact-match filter cheap. Qdrant ignores
	// re-declaration of an existing index only on some versions, so 409s
	// are tolerated.
	for field, schema := range map[string]string{"ticker": "keyword", "year": "integer"} {
		body := map[string]any{"field_name": field, "field_schema": schema}
		if err := s.do(ctx, http.MethodPut, "/collections/"+s.collection+"/index", body, nil); err != nil {
			if !strings.Contains(err.Error(), "409") && !strings.Contains(err.Error(), "already exists") {
				return err
			}
		}
	}
	return nil
}

func (s *Store) collectionExists(ctx context.Context) (bool, error) {
	req, err := s.newRequest(ctx, http.MethodGet, "/collections/"+s.collection, nil)
	if err != nil {
		return false, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("qdrant: check collection: %s", resp.Status)
	}
}

// ReplaceFiling deletes every point matching the filter and upserts the new
// points in batches.
func (s *Store) ReplaceFiling(ctx context.Context, f vectorstore.Filter, points []vectorstore.Point) error {
	del := map[string]any{"filter": buildFilter(f)}
	if err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/delete?wait=true", del, nil); err != nil {
		return err
	}

	const batchSize = 64
	for start := 0; start < len(points); start += batchSize {
		end := min(start+batchSize, len(points))
		batch := make([]map[string]any, 0, end-start)
		for _, p := range points[start:end] {
			batch = append(batch, map[string]any{
				"id":      p.ID,
				"vector":  p.Vector,
				"payload": p.Payload,
			})
		}
		body := map[string]any{"points": batch}
		if err := s.do(ctx, http.MethodPut, "/collections/"+s.collection+"/points?wait=true", body, nil); err != nil {
			return err
		}
	}
	return nil
}

type searchResponse struct {
	Result []struct {
		Score   float64              `json:"score"`
		Payload vectorstore.Payload  `json:"payload"`
	} `json:"result"`
}

func (s *Store) Search(ctx context.Context, vector []float32, f vectorstore.Filter, limit int) ([]vectorstore.Hit, error) {
	body := map[string]any{
		"vector":       vector,
		"filter":       buildFilter(f),
		"limit":        limit,
		"with_payload": true,
	}

	var resp searchResponse
	if err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", body, &resp); err != nil {
		return nil, err
	}

	hits := make([]vectorstore.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, vectorstore.Hit{Payload: r.Payload, Score: r.Score})
	}
	return hits, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (s *Store) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := s.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("qdrant %s %s: %d %s: %s", method, path, resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(data)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
