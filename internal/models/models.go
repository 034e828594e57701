package models

// ChunkKind distinguishes prose from extracted tables. Tables are indexed
// whole so that row/column structure survives retrieval.
type ChunkKind string

const (
	KindText  ChunkKind = "text"
	KindTable ChunkKind = "table"
)

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Content    string
	Kind       ChunkKind
	PageNumber int
	ChunkID    int
}

// ChunkEmbedding is a chunk together with its vector and source file.
type ChunkEmbedding struct {
	Chunk
	Embedding      []float32
	SourceFilename string
}

// SearchResult is a single ranked hit returned by the retriever.
type SearchResult struct {
	Text         string  `json:"text"`
	Ticker       string  `json:"ticker"`
	Year         int     `json:"year"`
	Source       string  `json:"source,omitempty"`
	PageNumber   int     `json:"page,omitempty"`
	Score        float64 `json:"score"`
	VectorScore  float64 `json:"vector_score"`
	LexicalScore float64 `json:"lexical_score"`
}
