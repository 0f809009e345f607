package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/kreuzberg/internal/extract"
	"github.com/adverant/kreuzberg/internal/ocr"
)

func TestNewExtractPayload_GeneratesJobID(t *testing.T) {
	p1 := NewExtractPayload("/tmp/a.pdf", "application/pdf", extract.Config{UseCache: true})
	p2 := NewExtractPayload("/tmp/a.pdf", "application/pdf", extract.Config{UseCache: true})
	assert.NotEmpty(t, p1.JobID)
	assert.NotEqual(t, p1.JobID, p2.JobID)
	assert.Equal(t, "/tmp/a.pdf", p1.Path)
}

func TestExtractPayload_MarshalUnmarshalRoundTrip(t *testing.T) {
	original := NewExtractPayload("/tmp/doc.pdf", "application/pdf", extract.Config{
		UseCache: true,
		OCR:      &ocr.Config{Language: "eng", PSM: 3},
	})

	data, err := original.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalExtractPayload(data)
	require.NoError(t, err)
	assert.Equal(t, original.JobID, decoded.JobID)
	assert.Equal(t, original.Path, decoded.Path)
	assert.Equal(t, original.MimeHint, decoded.MimeHint)
	require.NotNil(t, decoded.Config.OCR)
	assert.Equal(t, "eng", decoded.Config.OCR.Language)
}

func TestUnmarshalExtractPayload_InvalidJSON(t *testing.T) {
	_, err := UnmarshalExtractPayload([]byte("not json"))
	assert.Error(t, err)
}
