// Package parser turns filings into markdown chunks ready for embedding.
// Parsing is done either by the remote parse service (RemoteParser) or by
// local extraction (LocalParser) for formats the service is not needed for.
package parser

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"github.com/orionfinancialai/finrag/internal/config"
	"github.com/orionfinancialai/finrag/internal/models"
)

// Parser extracts ordered chunks from a document on disk.
type Parser interface {
	Parse(ctx context.Context, filePath string) ([]models.Chunk, error)
}

// LocalParser extracts text without any external service. PDFs are read
// page by page so chunks keep their page reference.
type LocalParser struct {
	chunker *Chunker
}

func NewLocalParser(rag config.RAGConfig) *LocalParser {
	return &LocalParser{chunker: NewChunker(rag.ChunkSize, rag.ChunkOverlap)}
}

func (p *LocalParser) Parse(_ context.Context, filePath string) ([]models.Chunk, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return p.parsePDF(filePath)
	case ".docx":
		return p.parseDOCX(filePath)
	case ".pptx":
		return p.parsePPTX(filePath)
	case ".xlsx":
		return p.parseXLSX(filePath)
	case ".ods":
		return p.parseODS(filePath)
	case ".txt", ".md", ".html", ".xml":
		return p.parseTextual(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func (p *LocalParser) parsePDF(filePath string) ([]models.Chunk, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, p.chunker.Chunk(pageText, i, models.KindText)...)
	}
	return renumber(chunks), nil
}

func (p *LocalParser) parseDOCX(filePath string) ([]models.Chunk, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return renumber(p.chunker.Chunk(content, 1, models.KindText)), nil
}

func (p *LocalParser) parsePPTX(filePath string) ([]models.Chunk, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []models.Chunk
	slide := 0
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slide++
		slideText := extractTextFromXML(string(data))
		chunks = append(chunks, p.chunker.Chunk(slideText, slide, models.KindText)...)
	}
	return renumber(chunks), nil
}

func (p *LocalParser) parseXLSX(filePath string) ([]models.Chunk, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		// Sheets are indexed whole; splitting a table mid-row would lose
		// the header context the numbers depend on.
		chunks = append(chunks, models.Chunk{
			Content:    text.String(),
			Kind:       models.KindTable,
			PageNumber: sheetNum + 1,
		})
	}
	return renumber(chunks), nil
}

func (p *LocalParser) parseODS(filePath string) ([]models.Chunk, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []models.Chunk
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Content:    text.String(),
			Kind:       models.KindTable,
			PageNumber: sheetNum + 1,
		})
	}
	return renumber(chunks), nil
}

func (p *LocalParser) parseTextual(filePath string) ([]models.Chunk, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ChunksFromMarkdown(data, 1, p.chunker), nil
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		endIdx := strings.Index(part, "</a:t>")
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}

// renumber assigns sequential chunk IDs across the whole document.
func renumber(chunks []models.Chunk) []models.Chunk {
	for i := range chunks {
		chunks[i].ChunkID = i + 1
	}
	return chunks
}
