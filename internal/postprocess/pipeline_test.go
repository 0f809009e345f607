package postprocess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/kreuzberg/internal/errorkind"
)

// tagPlugin appends its tag to the content so tests can observe which stages
// ran and in what order.
type tagPlugin struct {
	name string
	tag  string
	fail bool
}

func (p tagPlugin) Name() string { return p.name }
func (p tagPlugin) Process(ctx context.Context, content string, metadata map[string]interface{}) (string, map[string]interface{}, error) {
	if p.fail {
		return "", nil, errorkind.NewPlugin(p.name, "process", nil)
	}
	return content + p.tag, metadata, nil
}

type rejectAllValidator struct{ name string }

func (v rejectAllValidator) Name() string { return v.name }
func (v rejectAllValidator) Validate(ctx context.Context, result interface{}) error {
	return errorkind.NewValidation(v.name+" rejected", nil)
}

type fakePluginSource struct {
	early, middle, late []Plugin
	validators          []Validator
}

func (f fakePluginSource) EarlyPlugins() []Plugin { return f.early }
func (f fakePluginSource) MiddlePlugins() []Plugin { return f.middle }
func (f fakePluginSource) LatePlugins() []Plugin { return f.late }
func (f fakePluginSource) LateValidators() []Validator { return f.validators }

func TestPipeline_RunWithNoStagesConfigured(t *testing.T) {
	p := New(nil, nil)
	res, err := p.Run(context.Background(), "hello world", nil, Config{})
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Content)
	assert.Nil(t, res.Chunks)
	assert.Nil(t, res.DetectedLanguages)
	assert.Nil(t, res.QualityScore)
}

func TestPipeline_RunChunkingAndQuality(t *testing.T) {
	p := New(nil, nil)
	content := "The quick brown fox jumps over the lazy dog repeatedly throughout this longer passage of text."
	res, err := p.Run(context.Background(), content, nil, Config{
		Chunking:      &ChunkingConfig{MaxChars: 40, MaxOverlap: 5},
		EnableQuality: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Chunks)
	assert.Equal(t, len(res.Chunks), res.Metadata["chunk_count"])
	require.NotNil(t, res.QualityScore)
	assert.GreaterOrEqual(t, *res.QualityScore, 0.0)
}

func TestPipeline_RunLanguageDetection(t *testing.T) {
	p := New(nil, nil)
	res, err := p.Run(context.Background(), englishSample, nil, Config{
		Language: &LanguageDetectionConfig{MinConfidence: 0},
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.DetectedLanguages)
	assert.Equal(t, "eng", res.DetectedLanguages[0])
}

func TestPipeline_RunTokenReduction(t *testing.T) {
	p := New(nil, nil)
	res, err := p.Run(context.Background(), "the cat sat on the mat", nil, Config{
		TokenReduction: &TokenReductionConfig{Level: ReductionModerate, Language: "en"},
	})
	require.NoError(t, err)
	assert.NotContains(t, res.Content, "the")
}

func TestPipeline_RunsEveryPluginStageInOrder(t *testing.T) {
	p := New(fakePluginSource{
		early:  []Plugin{tagPlugin{name: "e", tag: "[early]"}},
		middle: []Plugin{tagPlugin{name: "m", tag: "[middle]"}},
		late:   []Plugin{tagPlugin{name: "l", tag: "[late]"}},
	}, nil)

	res, err := p.Run(context.Background(), "body", nil, Config{})
	require.NoError(t, err)
	assert.Equal(t, "body[early][middle][late]", res.Content)
}

func TestPipeline_FailingPluginIsRecordedAndSkipped(t *testing.T) {
	p := New(fakePluginSource{
		middle: []Plugin{
			tagPlugin{name: "broken", fail: true},
			tagPlugin{name: "ok", tag: "[ok]"},
		},
	}, nil)

	res, err := p.Run(context.Background(), "body", nil, Config{})
	require.NoError(t, err)
	assert.Equal(t, "body[ok]", res.Content)
	assert.Contains(t, res.StageErrors, "middle:broken")
}

func TestPipeline_ValidatorRejectionAbortsRun(t *testing.T) {
	p := New(fakePluginSource{
		validators: []Validator{rejectAllValidator{name: "strict"}},
	}, nil)

	_, err := p.Run(context.Background(), "body", nil, Config{})
	require.Error(t, err)
	assert.Equal(t, errorkind.Validation, errorkind.KindOf(err))
}

func TestPipeline_RunWithNilMetadataInitializes(t *testing.T) {
	p := New(nil, nil)
	res, err := p.Run(context.Background(), "x", nil, Config{})
	require.NoError(t, err)
	assert.NotNil(t, res.Metadata)
	assert.NotNil(t, res.StageErrors)
}
