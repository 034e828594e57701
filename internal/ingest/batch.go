package ingest

import (
	"context"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// accessionRe matches SEC accession numbers (CIK-YY-SEQUENCE), e.g.
// 0000320193-23-000077.
var accessionRe = regexp.MustCompile(`\d{10}-(\d{2})-\d{6}`)

// YearFromAccession extracts the filing year from an accession number.
// Two-digit years 51-99 map to the 1900s, 00-50 to the 2000s.
func YearFromAccession(accession string) (int, bool) {
	m := accessionRe.FindStringSubmatch(accession)
	if m == nil {
		return 0, false
	}
	yy := int(m[1][0]-'0')*10 + int(m[1][1]-'0')
	if yy > 50 {
		return 1900 + yy, true
	}
	return 2000 + yy, true
}

// BatchReport summarizes a directory ingestion run.
type BatchReport struct {
	Ingested int
	Skipped  int
	Failed   int
}

// validBatchFile reports whether a file name looks like an EDGAR primary
// document worth ingesting.
func validBatchFile(name string) bool {
	lower := strings.ToLower(name)
	if !strings.HasPrefix(lower, "primary-document") && !strings.HasPrefix(lower, "full-submission") {
		return false
	}
	switch filepath.Ext(lower) {
	case ".html", ".xml", ".txt", ".pdf":
		return true
	}
	return false
}

// IngestDirectory walks a tree laid out as
// TICKER/10-K/ACCESSION/primary-document.* and ingests every filing it can
// identify. Ticker and year are inferred from the path; one filing's
// failure never stops the run.
func (p *Pipeline) IngestDirectory(ctx context.Context, dataDir string) (BatchReport, error) {
	var files []string
	err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && validBatchFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return BatchReport{}, err
	}

	log.Info().Int("files", len(files)).Str("dir", dataDir).Msg("starting batch ingestion")

	var report BatchReport
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		ticker, year, ok := inferFromPath(path)
		if !ok {
			log.Warn().Str("file", path).Msg("skipping: cannot infer ticker/year from path")
			report.Skipped++
			continue
		}

		if _, err := p.IngestFiling(ctx, path, ticker, year); err != nil {
			log.Error().Err(err).Str("file", path).Msg("failed to ingest filing")
			report.Failed++
			continue
		}
		report.Ingested++
	}

	log.Info().
		Int("ingested", report.Ingested).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("batch ingestion complete")
	return report, nil
}

// inferFromPath expects .../TICKER/10-K/ACCESSION/file and recovers the
// ticker and the year encoded in the accession number.
func inferFromPath(path string) (string, int, bool) {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) < 4 {
		return "", 0, false
	}
	accession := parts[len(parts)-2]
	docType := parts[len(parts)-3]
	ticker := parts[len(parts)-4]

	if docType != "10-K" {
		return "", 0, false
	}
	year, ok := YearFromAccession(accession)
	if !ok {
		return "", 0, false
	}
	return ticker, year, true
}
