package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Vector store backends.
const (
	BackendQdrant   = "qdrant"
	BackendPostgres = "postgres"
	BackendChromem  = "chromem"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// ParsingInstruction is sent to the parse service with every upload. Table
// fidelity is what makes the indexed filings usable for numeric questions.
const ParsingInstruction = "Extract financial tables as Markdown, preserving headers and row-column structure."

// RAGConfig holds chunking and retrieval tunables, overridable from a YAML
// file via ApplyFile.
type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
	// HybridAlpha weights vector similarity against lexical overlap.
	// 1.0 is pure vector search.
	HybridAlpha float64 `yaml:"hybrid_alpha"`
}

// Config carries every credential and endpoint the pipeline needs. It is
// built once at startup and passed in explicitly so tests can inject fakes.
type Config struct {
	LlamaCloudAPIKey string `yaml:"-"`
	LlamaCloudURL    string `yaml:"-"`

	QdrantURL    string `yaml:"-"`
	QdrantAPIKey string `yaml:"-"`

	OpenAIAPIKey  string `yaml:"-"`
	OpenAIBaseURL string `yaml:"-"`
	OllamaURL     string `yaml:"-"`

	PostgresDSN      string `yaml:"-"`
	PostgresPassword string `yaml:"-"`

	ChromemPath string `yaml:"-"`

	Backend           string `yaml:"backend"`
	EmbeddingProvider string `yaml:"embedding_provider"`
	EmbeddingModel    string `yaml:"embedding_model"`
	EmbeddingDim      int    `yaml:"embedding_dim"`
	Collection        string `yaml:"collection"`

	RAG RAGConfig `yaml:"rag"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first, matching how the deployment scripts run the
// binary.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		LlamaCloudAPIKey: os.Getenv("LLAMA_CLOUD_API_KEY"),
		LlamaCloudURL:    getenv("LLAMA_CLOUD_URL", "https://api.cloud.llamaindex.ai"),

		QdrantURL:    os.Getenv("QDRANT_URL"),
		QdrantAPIKey: os.Getenv("QDRANT_API_KEY"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OllamaURL:     getenv("OLLAMA_URL", "http://localhost:11434"),

		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),

		ChromemPath: getenv("CHROMEM_PATH", "./chromemdb"),

		Backend:           getenv("VECTOR_BACKEND", BackendQdrant),
		EmbeddingProvider: getenv("EMBEDDING_PROVIDER", ProviderOpenAI),
		EmbeddingModel:    getenv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDim:      getenvInt("EMBEDDING_DIM", 1536),
		Collection:        getenv("COLLECTION", "financial_filings"),

		RAG: RAGConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			TopK:         5,
			HybridAlpha:  0.5,
		},
	}
}

// ApplyFile overlays tunables from a YAML file. A missing file is not an
// error; the env-derived defaults stand.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// Validate fails fast on missing credentials for the selected backend and
// embedding provider. remoteParse indicates whether the parse service will
// be used (the local extractor needs no key).
func (c *Config) Validate(remoteParse bool) error {
	switch c.Backend {
	case BackendQdrant:
		if c.QdrantURL == "" {
			return fmt.Errorf("QDRANT_URL is required for the qdrant backend")
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	case BackendChromem:
		if c.ChromemPath == "" {
			return fmt.Errorf("CHROMEM_PATH is required for the chromem backend")
		}
	default:
		return fmt.Errorf("unknown vector backend %q", c.Backend)
	}

	switch c.EmbeddingProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai embedding provider")
		}
	case ProviderOllama:
		if c.OllamaURL == "" {
			return fmt.Errorf("OLLAMA_URL is required for the ollama embedding provider")
		}
	default:
		return fmt.Errorf("unknown embedding provider %q", c.EmbeddingProvider)
	}

	if remoteParse && c.LlamaCloudAPIKey == "" {
		return fmt.Errorf("LLAMA_CLOUD_API_KEY is required unless --local-parse is set")
	}

	if c.RAG.ChunkSize <= 0 || c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("invalid chunking config: size=%d overlap=%d", c.RAG.ChunkSize, c.RAG.ChunkOverlap)
	}
	if c.RAG.HybridAlpha < 0 || c.RAG.HybridAlpha > 1 {
		return fmt.Errorf("hybrid_alpha must be within [0,1], got %v", c.RAG.HybridAlpha)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
