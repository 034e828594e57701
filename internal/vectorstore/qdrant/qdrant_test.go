package qdrant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orionfinancialai/finrag/internal/vectorstore"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
	APIKey string
}

func newRecordingServer(t *testing.T, status map[string]int) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			APIKey: r.Header.Get("api-key"),
		}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		requests = append(requests, rec)

		if code, ok := status[r.Method+" "+r.URL.Path]; ok {
			w.WriteHeader(code)
		}
		w.Write([]byte(`{"result":{},"status":"ok"}`))
	}))
	return srv, &requests
}

func newTestStore(t *testing.T, url string) *Store {
	t.Helper()
	s, err := New(Config{URL: url, APIKey: "secret", Collection: "filings"})
	require.NoError(t, err)
	return s
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Collection: "filings"})
	assert.Error(t, err)
	_, err = New(Config{URL: "http://localhost:6333"})
	assert.Error(t, err)
}

func TestInitCreatesMissingCollection(t *testing.T) {
	srv, requests := newRecordingServer(t, map[string]int{
		"GET /collections/filings": http.StatusNotFound,
	})
	defer srv.Close()

	s := newTestStore(t, srv.URL)
	require.NoError(t, s.Init(context.Background(), 1536))

	reqs := *requests
	require.GreaterOrEqual(t, len(reqs), 2)
	assert.Equal(t, "GET", reqs[0].Method)
	assert.Equal(t, "secret", reqs[0].APIKey)

	create := reqs[1]
	assert.Equal(t, "PUT", create.Method)
	assert.Equal(t, "/collections/filings", create.Path)
	vectors := create.Body["vectors"].(map[string]any)
	assert.Equal(t, float64(1536), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])

	// Payload indexes for both filter fields follow.
	indexed := map[string]bool{}
	for _, r := range reqs[2:] {
		assert.Equal(t, "/collections/filings/index", r.Path)
		indexed[r.Body["field_name"].(string)] = true
	}
	assert.True(t, indexed["ticker"])
	assert.True(t, indexed["year"])
}

func TestInitSkipsExistingCollection(t *testing.T) {
	srv, requests := newRecordingServer(t, nil)
	defer srv.Close()

	s := newTestStore(t, srv.URL)
	require.NoError(t, s.Init(context.Background(), 1536))

	for _, r := range *requests {
		assert.NotEqual(t, "PUT /collections/filings", r.Method+" "+r.Path)
	}
}

func TestReplaceFilingDeletesThenUpserts(t *testing.T) {
	srv, requests := newRecordingServer(t, nil)
	defer srv.Close()

	s := newTestStore(t, srv.URL)
	points := []vectorstore.Point{{
		ID:     "11111111-2222-3333-4444-555555555555",
		Vector: []float32{0.1, 0.2},
		Payload: vectorstore.Payload{
			Ticker: "MMM", Year: 2018, Text: "Net income was $2 billion",
		},
	}}
	filter := vectorstore.Filter{Ticker: "MMM", Year: 2018}
	require.NoError(t, s.ReplaceFiling(context.Background(), filter, points))

	reqs := *requests
	require.Len(t, reqs, 2)

	del := reqs[0]
	assert.Equal(t, "POST", del.Method)
	assert.Equal(t, "/collections/filings/points/delete", del.Path)
	assert.Contains(t, del.Query, "wait=true")
	must := del.Body["filter"].(map[string]any)["must"].([]any)
	require.Len(t, must, 2)
	first := must[0].(map[string]any)
	assert.Equal(t, "ticker", first["key"])
	assert.Equal(t, "MMM", first["match"].(map[string]any)["value"])
	second := must[1].(map[string]any)
	assert.Equal(t, "year", second["key"])
	assert.Equal(t, float64(2018), second["match"].(map[string]any)["value"])

	upsert := reqs[1]
	assert.Equal(t, "PUT", upsert.Method)
	assert.Equal(t, "/collections/filings/points", upsert.Path)
	assert.Contains(t, upsert.Query, "wait=true")
	sent := upsert.Body["points"].([]any)
	require.Len(t, sent, 1)
	point := sent[0].(map[string]any)
	assert.Equal(t, points[0].ID, point["id"])
	payload := point["payload"].(map[string]any)
	assert.Equal(t, "MMM", payload["ticker"])
	assert.Equal(t, float64(2018), payload["year"])
}

func TestSearchSendsFilterAndParsesHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/filings/points/search", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(5), body["limit"])
		assert.Equal(t, true, body["with_payload"])
		assert.NotNil(t, body["filter"])

		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{"score": 0.93, "payload": map[string]any{"ticker": "MMM", "year": 2018, "text": "Net income was $2 billion"}},
				{"score": 0.54, "payload": map[string]any{"ticker": "MMM", "year": 2018, "text": "Other text"}},
			},
		})
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)
	hits, err := s.Search(context.Background(), []float32{0.1}, vectorstore.Filter{Ticker: "MMM", Year: 2018}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 0.93, hits[0].Score)
	assert.Equal(t, "MMM", hits[0].Payload.Ticker)
	assert.Equal(t, 2018, hits[0].Payload.Year)
	assert.Equal(t, "Net income was $2 billion", hits[0].Payload.Text)
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":{"error":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)
	_, err := s.Search(context.Background(), []float32{0.1}, vectorstore.Filter{Ticker: "MMM", Year: 2018}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
