package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/orionfinancialai/finrag/internal/ingest"
)

var batchDataDir string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Ingest every filing under a data directory",
	Long: `Walks a tree laid out as TICKER/10-K/ACCESSION/primary-document.*
(the layout produced by the download command), inferring ticker and year
from the path. Failures are logged per filing and the run continues.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchDataDir, "data-dir", "data", "root directory containing filings")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
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
	report, err := pipeline.IngestDirectory(ctx, batchDataDir)
	if err != nil {
		return err
	}

	cmd.Printf("Batch ingestion complete: %d ingested, %d skipped, %d failed.\n",
		report.Ingested, report.Skipped, report.Failed)
	return nil
}
