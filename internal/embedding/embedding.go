// Package embedding wraps the embedding API clients behind a narrow
// interface so orchestrators and tests never depend on a concrete provider.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/orionfinancialai/finrag/internal/config"
	"github.com/orionfinancialai/finrag/internal/models"
)

// Embedder is the capability the orchestrators need. Satisfied by
// langchaingo's EmbedderImpl and by deterministic fakes in tests.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbedder builds the embedder selected by the config.
func NewEmbedder(cfg *config.Config) (Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOllama:
		return newOllamaEmbedder(cfg)
	case config.ProviderOpenAI:
		return newOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

func newOpenAIEmbedder(cfg *config.Config) (*embeddings.EmbedderImpl, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.OpenAIAPIKey, "Bearer ")),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

func newOllamaEmbedder(cfg *config.Config) (*embeddings.EmbedderImpl, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.OllamaURL),
		ollama.WithModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

// EmbedChunks embeds every chunk and pairs it with its vector and source
// filename. The whole batch goes to the API in one call.
func EmbedChunks(ctx context.Context, embedder Embedder, filename string, chunks []models.Chunk) ([]models.ChunkEmbedding, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, &models.EmbeddingError{Source: filename, Err: err}
	}
	if len(vectors) != len(chunks) {
		return nil, &models.EmbeddingError{
			Source: filename,
			Err:    fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)),
		}
	}

	out := make([]models.ChunkEmbedding, len(chunks))
	for i, chunk := range chunks {
		out[i] = models.ChunkEmbedding{
			Chunk:          chunk,
			Embedding:      vectors[i],
			SourceFilename: filename,
		}
	}
	return out, nil
}
