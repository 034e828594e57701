package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VECTOR_BACKEND", "")
	t.Setenv("EMBEDDING_PROVIDER", "")
	t.Setenv("EMBEDDING_MODEL", "")
	t.Setenv("EMBEDDING_DIM", "")
	t.Setenv("COLLECTION", "")

	cfg := Load()
	assert.Equal(t, BackendQdrant, cfg.Backend)
	assert.Equal(t, ProviderOpenAI, cfg.EmbeddingProvider)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.EmbeddingDim)
	assert.Equal(t, "financial_filings", cfg.Collection)
	assert.Equal(t, RAGConfig{ChunkSize: 1000, ChunkOverlap: 200, TopK: 5, HybridAlpha: 0.5}, cfg.RAG)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VECTOR_BACKEND", "chromem")
	t.Setenv("EMBEDDING_DIM", "768")
	t.Setenv("QDRANT_URL", "http://qdrant:6333")

	cfg := Load()
	assert.Equal(t, BackendChromem, cfg.Backend)
	assert.Equal(t, 768, cfg.EmbeddingDim)
	assert.Equal(t, "http://qdrant:6333", cfg.QdrantURL)
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
backend: chromem
embedding_model: nomic-embed-text
rag:
  chunk_size: 512
  chunk_overlap: 64
  top_k: 3
  hybrid_alpha: 0.7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := &Config{Backend: BackendQdrant, RAG: RAGConfig{ChunkSize: 1000, ChunkOverlap: 200, TopK: 5, HybridAlpha: 0.5}}
	require.NoError(t, cfg.ApplyFile(path))

	assert.Equal(t, BackendChromem, cfg.Backend)
	assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
	assert.Equal(t, RAGConfig{ChunkSize: 512, ChunkOverlap: 64, TopK: 3, HybridAlpha: 0.7}, cfg.RAG)
}

func TestApplyFileMissingIsNotAnError(t *testing.T) {
	cfg := &Config{Backend: BackendQdrant}
	require.NoError(t, cfg.ApplyFile(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Equal(t, BackendQdrant, cfg.Backend)
}

func TestApplyFileBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unterminated"), 0o644))

	cfg := &Config{}
	assert.Error(t, cfg.ApplyFile(path))
}

func validConfig() *Config {
	return &Config{
		QdrantURL:         "http://localhost:6333",
		OpenAIAPIKey:      "sk-test",
		LlamaCloudAPIKey:  "llx-test",
		Backend:           BackendQdrant,
		EmbeddingProvider: ProviderOpenAI,
		RAG:               RAGConfig{ChunkSize: 1000, ChunkOverlap: 200, TopK: 5, HybridAlpha: 0.5},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate(true))
}

func TestValidateBackends(t *testing.T) {
	cfg := validConfig()
	cfg.QdrantURL = ""
	err := cfg.Validate(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QDRANT_URL")

	cfg = validConfig()
	cfg.Backend = BackendPostgres
	err = cfg.Validate(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_DSN")
	cfg.PostgresDSN = "postgres://rag@localhost/rag"
	assert.NoError(t, cfg.Validate(false))

	cfg = validConfig()
	cfg.Backend = "milvus"
	err = cfg.Validate(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown vector backend")
}

func TestValidateProviders(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAIAPIKey = ""
	err := cfg.Validate(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg = validConfig()
	cfg.EmbeddingProvider = ProviderOllama
	cfg.OpenAIAPIKey = ""
	cfg.OllamaURL = "http://localhost:11434"
	assert.NoError(t, cfg.Validate(false))

	cfg.EmbeddingProvider = "cohere"
	err = cfg.Validate(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown embedding provider")
}

func TestValidateParseKey(t *testing.T) {
	cfg := validConfig()
	cfg.LlamaCloudAPIKey = ""

	err := cfg.Validate(true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLAMA_CLOUD_API_KEY")

	// Local extraction needs no parse service credentials.
	assert.NoError(t, cfg.Validate(false))
}

func TestValidateTunables(t *testing.T) {
	cfg := validConfig()
	cfg.RAG.ChunkOverlap = 1000
	err := cfg.Validate(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid chunking config")

	cfg = validConfig()
	cfg.RAG.HybridAlpha = 1.5
	err = cfg.Validate(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hybrid_alpha")
}
