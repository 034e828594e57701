// Package cli wires configuration, backends, and the cobra command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orionfinancialai/finrag/internal/config"
	"github.com/orionfinancialai/finrag/internal/embedding"
	"github.com/orionfinancialai/finrag/internal/parser"
	"github.com/orionfinancialai/finrag/internal/vectorstore"
	"github.com/orionfinancialai/finrag/internal/vectorstore/chromemdb"
	"github.com/orionfinancialai/finrag/internal/vectorstore/pgstore"
	"github.com/orionfinancialai/finrag/internal/vectorstore/qdrant"
)

var (
	cfgFile    string
	localParse bool
)

var rootCmd = &cobra.Command{
	Use:           "finrag",
	Short:         "Forensic RAG pipeline for SEC 10-K filings",
	Long:          "Ingests 10-K filings into a vector index and answers similarity queries scoped to an exact (ticker, year).",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "./configs/config.yaml", "path to optional YAML tunables file")
	rootCmd.PersistentFlags().BoolVar(&localParse, "local-parse", false, "extract text locally instead of using the parse service")
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig builds and validates the configuration. remoteParse marks
// commands that will call the parse service, which needs its API key.
func loadConfig(remoteParse bool) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.ApplyFile(cfgFile); err != nil {
		return nil, err
	}
	if err := cfg.Validate(remoteParse && !localParse); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildStore(cfg *config.Config) (vectorstore.VectorStore, error) {
	switch cfg.Backend {
	case config.BackendQdrant:
		return qdrant.New(qdrant.Config{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.Collection,
		})
	case config.BackendPostgres:
		return pgstore.New(pgstore.Config{
			DSN:      cfg.PostgresDSN,
			Password: cfg.PostgresPassword,
		}), nil
	case config.BackendChromem:
		return chromemdb.New(cfg.ChromemPath, cfg.Collection, false)
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Backend)
	}
}

func buildParser(cfg *config.Config) parser.Parser {
	if localParse {
		return parser.NewLocalParser(cfg.RAG)
	}
	return parser.NewRemoteParser(cfg)
}

func buildEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	return embedding.NewEmbedder(cfg)
}
