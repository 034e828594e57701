package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orionfinancialai/finrag/internal/models"
	"github.com/orionfinancialai/finrag/internal/retriever"
)

var (
	searchQuery  string
	searchTicker string
	searchYear   int
	searchLimit  int
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search indexed filings",
	Long: `Runs a similarity search scoped to an exact (ticker, year).
Vector similarity is blended with lexical overlap for ranking.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchQuery, "query", "", "natural language query")
	searchCmd.Flags().StringVar(&searchTicker, "ticker", "", "filter by ticker")
	searchCmd.Flags().IntVar(&searchYear, "year", 0, "filter by filing year")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	_ = searchCmd.MarkFlagRequired("query")
	_ = searchCmd.MarkFlagRequired("ticker")
	_ = searchCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	if searchLimit > 0 {
		cfg.RAG.TopK = searchLimit
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := store.Init(ctx, cfg.EmbeddingDim); err != nil {
		return err
	}

	r := retriever.New(embedder, store, cfg.RAG.TopK, cfg.RAG.HybridAlpha)
	results, err := r.Search(ctx, searchQuery, searchTicker, searchYear)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, results)
	}
	return outputTable(cmd, results)
}

func outputJSON(cmd *cobra.Command, results []models.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputTable(cmd *cobra.Command, results []models.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		cmd.Printf("  [%d] %s %d (%.2f)\n", i+1, r.Ticker, r.Year, r.Score)
		if r.Source != "" {
			cmd.Printf("      Source: %s p.%d\n", r.Source, r.PageNumber)
		}
		cmd.Printf("      %s\n", r.Text)
		cmd.Println()
	}
	return nil
}
