package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orionfinancialai/finrag/internal/models"
)

const sampleFiling = `# Item 6. Selected Financial Data

The following table sets forth selected financial data for the last five years.

| Year | Revenue | Net Income |
|------|---------|------------|
| 2023 | $100B   | $20B       |
| 2022 | $90B    | $18B       |

End of table.
`

func TestSplitMarkdownSeparatesTables(t *testing.T) {
	segments := SplitMarkdown([]byte(sampleFiling))
	require.Len(t, segments, 3)

	assert.Equal(t, models.KindText, segments[0].Kind)
	assert.Contains(t, segments[0].Content, "Selected Financial Data")

	assert.Equal(t, models.KindTable, segments[1].Kind)
	assert.Contains(t, segments[1].Content, "| 2023 | $100B   | $20B       |")
	assert.Contains(t, segments[1].Content, "| Year | Revenue | Net Income |")

	assert.Equal(t, models.KindText, segments[2].Kind)
	assert.Contains(t, segments[2].Content, "End of table.")
}

func TestSplitMarkdownNoTables(t *testing.T) {
	segments := SplitMarkdown([]byte("Just some prose.\n\nAnd more prose."))
	require.Len(t, segments, 1)
	assert.Equal(t, models.KindText, segments[0].Kind)
}

func TestSplitMarkdownEmpty(t *testing.T) {
	assert.Empty(t, SplitMarkdown(nil))
	assert.Empty(t, SplitMarkdown([]byte("  \n\n ")))
}

func TestChunksFromMarkdownKeepsTablesWhole(t *testing.T) {
	// A chunker small enough that the table would be split if treated
	// as prose.
	chunker := NewChunker(40, 10)
	chunks := ChunksFromMarkdown([]byte(sampleFiling), 2, chunker)
	require.NotEmpty(t, chunks)

	var table *models.Chunk
	for i := range chunks {
		if chunks[i].Kind == models.KindTable {
			require.Nil(t, table, "expected a single table chunk")
			table = &chunks[i]
		}
		assert.Equal(t, 2, chunks[i].PageNumber)
	}
	require.NotNil(t, table)
	assert.Equal(t, 4, len(strings.Split(table.Content, "\n")), "table rows stay together")
	assert.Contains(t, table.Content, "$18B")

	for i, chunk := range chunks {
		assert.Equal(t, i+1, chunk.ChunkID)
	}
}
