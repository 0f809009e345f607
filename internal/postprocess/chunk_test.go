package postprocess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_ShortContentIsOneChunk(t *testing.T) {
	chunks := ChunkText("hello world", ChunkingConfig{MaxChars: 2000, MaxOverlap: 200})
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 11, chunks[0].CharEnd)
}

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, ChunkText("", ChunkingConfig{MaxChars: 10}))
}

func TestChunkText_SplitsOnBudget(t *testing.T) {
	content := strings.Repeat("word ", 100) // 500 chars
	chunks := ChunkText(content, ChunkingConfig{MaxChars: 100, MaxOverlap: 10})

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 110, "no chunk should wildly exceed the configured budget")
	}

	reconstructed := chunks[0].Content
	for i := 1; i < len(chunks); i++ {
		reconstructed += chunks[i].Content
	}
	assert.Contains(t, reconstructed, "word")
}

func TestChunkText_OverlapBetweenConsecutiveChunks(t *testing.T) {
	content := strings.Repeat("a", 50) + " " + strings.Repeat("b", 50) + " " + strings.Repeat("c", 50)
	chunks := ChunkText(content, ChunkingConfig{MaxChars: 60, MaxOverlap: 20})
	require.Greater(t, len(chunks), 1)
	assert.Less(t, chunks[1].CharStart, chunks[0].CharEnd, "consecutive chunks should overlap")
}
