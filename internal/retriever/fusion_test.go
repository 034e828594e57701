package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orionfinancialai/finrag/internal/vectorstore"
)

func TestTokenize(t *testing.T) {
	tokens := tokenize("What was the Net income, in 2018?")
	assert.Contains(t, tokens, "net")
	assert.Contains(t, tokens, "income")
	assert.Contains(t, tokens, "2018")
	// Stopwords and punctuation are stripped.
	assert.NotContains(t, tokens, "what")
	assert.NotContains(t, tokens, "the")
	assert.NotContains(t, tokens, "income,")
}

func TestOverlap(t *testing.T) {
	q := tokenize("net income billion")
	assert.Equal(t, 1.0, overlap(q, tokenize("net income was $2 billion")))
	assert.Equal(t, 0.0, overlap(q, tokenize("total debt outstanding")))
	assert.InDelta(t, 1.0/3.0, overlap(q, tokenize("net sales grew")), 1e-9)
	assert.Equal(t, 0.0, overlap(tokenize(""), tokenize("anything")))
}

func TestFuseNormalizesAndBlends(t *testing.T) {
	hits := []vectorstore.Hit{
		{Payload: vectorstore.Payload{Text: "nothing relevant here", Ticker: "MMM", Year: 2018}, Score: 0.8},
		{Payload: vectorstore.Payload{Text: "net income was $2 billion", Ticker: "MMM", Year: 2018}, Score: 0.4},
	}

	// Pure vector ranking keeps the store order.
	results := fuse("net income", hits, 1.0)
	require.Len(t, results, 2)
	assert.Equal(t, "nothing relevant here", results[0].Text)
	assert.Equal(t, 1.0, results[0].VectorScore)
	assert.Equal(t, 0.5, results[1].VectorScore)

	// Pure lexical ranking flips it.
	results = fuse("net income", hits, 0.0)
	assert.Equal(t, "net income was $2 billion", results[0].Text)
	assert.Equal(t, 1.0, results[0].LexicalScore)

	// Blended score is the weighted sum of the two signals.
	results = fuse("net income", hits, 0.5)
	for _, r := range results {
		assert.InDelta(t, 0.5*r.VectorScore+0.5*r.LexicalScore, r.Score, 1e-9)
	}
}

func TestFuseZeroScores(t *testing.T) {
	hits := []vectorstore.Hit{
		{Payload: vectorstore.Payload{Text: "alpha"}, Score: 0},
		{Payload: vectorstore.Payload{Text: "beta"}, Score: 0},
	}
	results := fuse("gamma", hits, 0.5)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Zero(t, r.Score)
	}
}
