package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/orionfinancialai/finrag/internal/models"
)

// Segment is a contiguous piece of a markdown document, either prose or a
// GFM pipe table.
type Segment struct {
	Content string
	Kind    models.ChunkKind
}

// SplitMarkdown parses src as GFM markdown and splits it into prose and
// table segments. Tables come out as single segments regardless of size so
// their row-column structure stays intact through chunking.
func SplitMarkdown(src []byte) []Segment {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(src))

	type span struct{ start, stop int }
	var tables []span
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Kind() != east.KindTable {
			return ast.WalkContinue, nil
		}
		start, stop := nodeSpan(n, src)
		if stop > start {
			tables = append(tables, span{start, stop})
		}
		return ast.WalkSkipChildren, nil
	})

	var segments []Segment
	appendText := func(s string) {
		if strings.TrimSpace(s) != "" {
			segments = append(segments, Segment{Content: strings.TrimSpace(s), Kind: models.KindText})
		}
	}

	pos := 0
	for _, t := range tables {
		if t.start > pos {
			appendText(string(src[pos:t.start]))
		}
		segments = append(segments, Segment{
			Content: strings.TrimSpace(string(src[t.start:t.stop])),
			Kind:    models.KindTable,
		})
		pos = t.stop
	}
	if pos < len(src) {
		appendText(string(src[pos:]))
	}
	return segments
}

// nodeSpan finds the byte range of a block node in the source, widened to
// whole lines. Table nodes carry no line info themselves, so the range is
// recovered from the text segments of their cells.
func nodeSpan(n ast.Node, src []byte) (int, int) {
	start, stop := -1, -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			seg := t.Segment
			if start < 0 || seg.Start < start {
				start = seg.Start
			}
			if seg.Stop > stop {
				stop = seg.Stop
			}
		}
		return ast.WalkContinue, nil
	})
	if start < 0 {
		return 0, 0
	}
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	for stop < len(src) && src[stop] != '\n' {
		stop++
	}
	return start, stop
}

// ChunksFromMarkdown splits markdown into segments and chunks the prose,
// keeping tables whole. All chunks carry the given page number.
func ChunksFromMarkdown(src []byte, page int, chunker *Chunker) []models.Chunk {
	var chunks []models.Chunk
	for _, seg := range SplitMarkdown(src) {
		switch seg.Kind {
		case models.KindTable:
			chunks = append(chunks, models.Chunk{
				Content:    seg.Content,
				Kind:       models.KindTable,
				PageNumber: page,
			})
		default:
			chunks = append(chunks, chunker.Chunk(seg.Content, page, models.KindText)...)
		}
	}
	return renumber(chunks)
}
