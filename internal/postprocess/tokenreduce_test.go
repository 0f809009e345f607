package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduce_Off(t *testing.T) {
	text := "This is a test!!! Really???"
	assert.Equal(t, text, Reduce(text, TokenReductionConfig{Level: ReductionOff}))
	assert.Equal(t, text, Reduce(text, TokenReductionConfig{}))
}

func TestReduce_Light_CollapsesPunctuation(t *testing.T) {
	out := Reduce("Wow!!! Really???", TokenReductionConfig{Level: ReductionLight})
	assert.NotContains(t, out, "!!!")
	assert.NotContains(t, out, "???")
	assert.Contains(t, out, "!")
	assert.Contains(t, out, "?")
}

func TestReduce_Moderate_DropsStopwords(t *testing.T) {
	out := Reduce("the cat sat on the mat", TokenReductionConfig{Level: ReductionModerate, Language: "en"})
	assert.NotContains(t, out, "the")
	assert.Contains(t, out, "cat")
	assert.Contains(t, out, "mat")
}

func TestReduce_PreservesCodeBlocks(t *testing.T) {
	text := "the answer is ```the cat sat``` on the mat"
	out := Reduce(text, TokenReductionConfig{Level: ReductionModerate, PreserveCode: true})
	assert.Contains(t, out, "```the cat sat```")
}

func TestReduce_PreservesAllCapsAndDigitsAndPatterns(t *testing.T) {
	text := "the TODO the 123abc the keep-me"
	out := Reduce(text, TokenReductionConfig{
		Level:            ReductionModerate,
		PreservePatterns: []string{"keep-me"},
	})
	assert.Contains(t, out, "TODO")
	assert.Contains(t, out, "123abc")
	assert.Contains(t, out, "keep-me")
	assert.NotContains(t, out, " the ")
}

func TestReduce_MaximumIsMoreAggressiveThanAggressive(t *testing.T) {
	text := "this is a somewhat long sentence about nothing important at all really"
	aggressive := Reduce(text, TokenReductionConfig{Level: ReductionAggressive})
	maximum := Reduce(text, TokenReductionConfig{Level: ReductionMaximum})
	assert.LessOrEqual(t, len(maximum), len(aggressive))
}
