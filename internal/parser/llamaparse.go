package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orionfinancialai/finrag/internal/config"
	"github.com/orionfinancialai/finrag/internal/models"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultParseTimeout = 10 * time.Minute
)

// RemoteParser sends documents to the LlamaParse service and retrieves the
// parsed result as markdown. The service is what handles the heavy lifting
// of table extraction from scanned or complex PDFs.
type RemoteParser struct {
	baseURL     string
	apiKey      string
	instruction string
	client      *http.Client

	pollInterval time.Duration
	parseTimeout time.Duration

	chunker *Chunker
}

func NewRemoteParser(cfg *config.Config) *RemoteParser {
	return &RemoteParser{
		baseURL:      strings.TrimRight(cfg.LlamaCloudURL, "/"),
		apiKey:       cfg.LlamaCloudAPIKey,
		instruction:  config.ParsingInstruction,
		client:       &http.Client{Timeout: 2 * time.Minute},
		pollInterval: defaultPollInterval,
		parseTimeout: defaultParseTimeout,
		chunker:      NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
	}
}

type parseJob struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error_message,omitempty"`
}

type parseResult struct {
	Markdown string `json:"markdown"`
}

func (p *RemoteParser) Parse(ctx context.Context, filePath string) ([]models.Chunk, error) {
	jobID, err := p.upload(ctx, filePath)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("job", jobID).Str("file", filePath).Msg("parse job submitted")

	if err := p.waitForJob(ctx, jobID); err != nil {
		return nil, err
	}

	markdown, err := p.fetchMarkdown(ctx, jobID)
	if err != nil {
		return nil, err
	}

	// The service joins pages with a horizontal rule, which recovers the
	// page reference for each chunk.
	var chunks []models.Chunk
	for i, page := range strings.Split(markdown, "\n---\n") {
		chunks = append(chunks, ChunksFromMarkdown([]byte(page), i+1, p.chunker)...)
	}
	return renumber(chunks), nil
}

func (p *RemoteParser) upload(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := w.WriteField("parsing_instruction", p.instruction); err != nil {
		return "", err
	}
	if err := w.WriteField("result_type", "markdown"); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/parsing/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	var job parseJob
	if err := p.do(req, &job); err != nil {
		return "", err
	}
	if job.ID == "" {
		return "", fmt.Errorf("parse service returned no job id")
	}
	return job.ID, nil
}

func (p *RemoteParser) waitForJob(ctx context.Context, jobID string) error {
	deadline := time.Now().Add(p.parseTimeout)
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/parsing/job/"+jobID, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+p.apiKey)

		var job parseJob
		if err := p.do(req, &job); err != nil {
			return err
		}
		switch strings.ToUpper(job.Status) {
		case "SUCCESS":
			return nil
		case "ERROR", "CANCELED":
			return fmt.Errorf("parse job %s failed: %s", jobID, job.Error)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("parse job %s timed out after %s", jobID, p.parseTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.pollInterval):
		}
	}
}

func (p *RemoteParser) fetchMarkdown(ctx context.Context, jobID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/parsing/job/"+jobID+"/result/markdown", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	var result parseResult
	if err := p.do(req, &result); err != nil {
		return "", err
	}
	return result.Markdown, nil
}

func (p *RemoteParser) do(req *http.Request, out any) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("parse service %s: %s: %s", req.URL.Path, resp.Status, strings.TrimSpace(string(data)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
