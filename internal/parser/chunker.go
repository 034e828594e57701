package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/orionfinancialai/finrag/internal/models"
)

const (
	defaultChunkSize    = 1000 // bytes
	defaultChunkOverlap = 200  // bytes
)

// Chunker splits prose into overlapping character windows, breaking at word
// or sentence boundaries where it can.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk splits content into models.Chunk values tagged with the given page
// and kind. Chunk IDs are local to the call; the parser renumbers them
// across the document.
func (c *Chunker) Chunk(content string, page int, kind models.ChunkKind) []models.Chunk {
	var chunks []models.Chunk
	for i, s := range c.split(content) {
		chunks = append(chunks, models.Chunk{
			Content:    s,
			Kind:       kind,
			PageNumber: page,
			ChunkID:    i + 1,
		})
	}
	return chunks
}

func (c *Chunker) split(content string) []string {
	content = strings.TrimSpace(content)
	contentLen := len(content)
	if contentLen == 0 {
		return nil
	}
	if contentLen <= c.size {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < contentLen {
		end := min(start+c.size, contentLen)

		// Look for a space or punctuation within the last 10% of the chunk
		// so windows break on word boundaries where possible.
		if end < contentLen {
			lookBack := min(c.size/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if content[i] == ' ' || content[i] == '\n' || content[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		// Never cut a multi-byte rune at the window edge.
		for end > start && end < contentLen && !utf8.RuneStart(content[end]) {
			end--
		}

		if chunk := strings.TrimSpace(content[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		start += c.size - c.overlap
		for start < contentLen && !utf8.RuneStart(content[start]) {
			start++
		}
		if start >= contentLen {
			break
		}
	}
	return chunks
}
