package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/kreuzberg/internal/extract"
)

func TestEncodeDecodeResult_RoundTrips(t *testing.T) {
	tc := 5
	original := &Result{
		Content:           "hello world",
		MimeType:          "text/plain",
		Metadata:          map[string]interface{}{"quality_score": 0.9},
		Tables:            []extract.Table{{Markdown: "| a | b |", PageNumber: 1}},
		DetectedLanguages: []string{"eng"},
		Chunks:            []Chunk{{Content: "hello", CharStart: 0, CharEnd: 5, TokenCount: &tc}},
	}

	payload, err := encodeResult(original)
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	decoded, err := decodeResult(payload)
	require.NoError(t, err)
	assert.Equal(t, original.Content, decoded.Content)
	assert.Equal(t, original.MimeType, decoded.MimeType)
	assert.Equal(t, original.DetectedLanguages, decoded.DetectedLanguages)
	require.Len(t, decoded.Chunks, 1)
	assert.Equal(t, "hello", decoded.Chunks[0].Content)
	require.NotNil(t, decoded.Chunks[0].TokenCount)
	assert.Equal(t, 5, *decoded.Chunks[0].TokenCount)
}

func TestDecodeResult_InvalidPayloadErrors(t *testing.T) {
	_, err := decodeResult([]byte("not msgpack"))
	assert.Error(t, err)
}
