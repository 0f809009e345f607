package ocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHocrToMarkdown_HeadingAndParagraphs(t *testing.T) {
	hocr := `<div class="ocr_page">` +
		`<p class="ocr_par"><span class="ocr_line"><span class="ocr_header">Title Here</span></span></p>` +
		`<p class="ocr_par"><span class="ocr_line">Hello World</span><span class="ocr_line">Second line</span></p>` +
		`</div>`

	got := hocrToMarkdown(hocr)
	assert.Equal(t, "## Title Here\n\nHello World\nSecond line\n", got)
}

func TestHocrToMarkdown_NoParagraphsYieldsEmptyOutput(t *testing.T) {
	assert.Equal(t, "\n", hocrToMarkdown(`<div class="ocr_page">no structured content</div>`))
}

func TestStripTags_RemovesMarkup(t *testing.T) {
	got := stripTags("<span>hello</span> <b>world</b>")
	assert.Equal(t, []string{"hello", "world"}, strings.Fields(got))
}

func TestClassHas_MatchesClassList(t *testing.T) {
	assert.True(t, classHas(`<span class="ocrx_word ocr_header">x</span>`, "ocr_header"))
	assert.False(t, classHas(`<span class="ocrx_word">x</span>`, "ocr_header"))
}
