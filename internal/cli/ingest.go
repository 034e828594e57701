package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/orionfinancialai/finrag/internal/ingest"
)

var (
	ingestFile   string
	ingestTicker string
	ingestYear   int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a single 10-K filing",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "path to the PDF/document file")
	ingestCmd.Flags().StringVar(&ingestTicker, "ticker", "", "stock ticker symbol (e.g. AAPL)")
	ingestCmd.Flags().IntVar(&ingestYear, "year", 0, "filing year (e.g. 2023)")
	_ = ingestCmd.MarkFlagRequired("file")
	_ = ingestCmd.MarkFlagRequired("ticker")
	_ = ingestCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
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

	pipeline := ingest.NewPipeline(buildParser(cfg), embedder, store)
	n, err := pipeline.IngestFiling(ctx, ingestFile, ingestTicker, ingestYear)
	if err != nil {
		return err
	}

	cmd.Printf("Ingested %d chunks for %s %d.\n", n, ingestTicker, ingestYear)
	return nil
}
