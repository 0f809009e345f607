package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/kreuzberg/internal/errorkind"
)

func fakePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEngine_Process_RecordsImageDimensions(t *testing.T) {
	backend := &fakeProcessor{name: "stub", confidence: 0.9, text: "recognized text"}
	e := NewEngine(backend)

	res, err := e.Process(context.Background(), fakePNG(t, 42, 17), Config{Language: "eng"})
	require.NoError(t, err)
	assert.Equal(t, "recognized text", res.Text)
	assert.Equal(t, 42, res.Metadata["image_width"])
	assert.Equal(t, 17, res.Metadata["image_height"])
}

func TestEngine_Process_InvalidImageIsParsingError(t *testing.T) {
	e := NewEngine(&fakeProcessor{name: "stub"})
	_, err := e.Process(context.Background(), []byte("not an image"), Config{})
	require.Error(t, err)
	assert.Equal(t, errorkind.Parsing, errorkind.KindOf(err))
}

func TestEngine_Process_PropagatesBackendError(t *testing.T) {
	e := NewEngine(&fakeProcessor{name: "stub", err: assertError{"backend exploded"}})
	_, err := e.Process(context.Background(), fakePNG(t, 4, 4), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend exploded")
}
