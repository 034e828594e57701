package retriever

import (
	"sort"
	"strings"

	"github.com/orionfinancialai/finrag/internal/models"
	"github.com/orionfinancialai/finrag/internal/vectorstore"
)

// fuse blends the store's vector scores with a lexical overlap score and
// re-ranks. Vector scores are normalized to [0,1] by the maximum before
// blending so the two signals are comparable.
func fuse(query string, hits []vectorstore.Hit, alpha float64) []models.SearchResult {
	queryTokens := tokenize(query)

	maxScore := 0.0
	for _, h := range hits {
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}

	results := make([]models.SearchResult, 0, len(hits))
	for _, h := range hits {
		vectorScore := h.Score
		if maxScore > 0 {
			vectorScore = h.Score / maxScore
		}
		lexicalScore := overlap(queryTokens, tokenize(h.Payload.Text))

		results = append(results, models.SearchResult{
			Text:         h.Payload.Text,
			Ticker:       h.Payload.Ticker,
			Year:         h.Payload.Year,
			Source:       h.Payload.Source,
			PageNumber:   h.Payload.Page,
			VectorScore:  vectorScore,
			LexicalScore: lexicalScore,
			Score:        alpha*vectorScore + (1-alpha)*lexicalScore,
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}

// stopwords excluded from lexical matching; question scaffolding would
// otherwise dominate the overlap of every chunk.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "of": {},
	"on": {}, "or": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "how": {},
}

func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(s)) {
		f = strings.Trim(f, ".,;:!?()[]{}\"'|$%")
		if f == "" {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		tokens[f] = struct{}{}
	}
	return tokens
}

// overlap is the fraction of query tokens present in the chunk.
func overlap(query, chunk map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	n := 0
	for t := range query {
		if _, ok := chunk[t]; ok {
			n++
		}
	}
	return float64(n) / float64(len(query))
}
