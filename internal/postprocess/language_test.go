package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const englishSample = "The quick brown fox jumps over the lazy dog near the riverbank every single morning before breakfast."

func TestDetectLanguages_Empty(t *testing.T) {
	assert.Nil(t, DetectLanguages("", LanguageDetectionConfig{MinConfidence: 0.1}))
}

func TestDetectLanguages_BelowThresholdReturnsNothing(t *testing.T) {
	assert.Nil(t, DetectLanguages(englishSample, LanguageDetectionConfig{MinConfidence: 1.1}))
}

func TestDetectLanguages_SingleBestGuess(t *testing.T) {
	langs := DetectLanguages(englishSample, LanguageDetectionConfig{MinConfidence: 0})
	require.Len(t, langs, 1)
	assert.Equal(t, "eng", langs[0].Code)
}

func TestDetectLanguages_MultipleDescendingConfidence(t *testing.T) {
	langs := DetectLanguages(englishSample, LanguageDetectionConfig{MinConfidence: 0, DetectMultiple: true})
	require.NotEmpty(t, langs)
	for i := 1; i < len(langs); i++ {
		assert.GreaterOrEqual(t, langs[i-1].Confidence, langs[i].Confidence)
	}
}
