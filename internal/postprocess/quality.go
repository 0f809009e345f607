package postprocess

import (
	"regexp"
	"strings"
)

var (
	scatteredCharsPattern      = regexp.MustCompile(`\b[a-zA-Z]\s{2,}[a-zA-Z]\s{2,}[a-zA-Z]\b`)
	repeatedPunctPattern       = regexp.MustCompile(`[.]{3,}|[-]{3,}|[_]{3,}`)
	isolatedPunctPattern       = regexp.MustCompile(`\s[.,;:!?]\s`)
	malformedWordsPattern      = regexp.MustCompile(`\b[a-zA-Z]+[0-9]+[a-zA-Z]+[a-zA-Z0-9]*\b`)
	excessiveWhitespacePattern = regexp.MustCompile(`\s{3,}`)

	jsFunctionPattern = regexp.MustCompile(`(?i)function\s+\w+\s*\([^)]*\)\s*\{[^}]*\}`)
	cssRulesPattern   = regexp.MustCompile(`(?i)\.[a-zA-Z][\w-]*\s*\{[^}]*\}`)
	scriptTagPattern  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTagPattern   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)

	navWordsPattern   = regexp.MustCompile(`(?i)\b(?:Skip to main content|Back to top|Main navigation|Site navigation)\b`)
	breadcrumbPattern = regexp.MustCompile(`(?:Home\s*[>»]\s*|[>»]\s*){2,}`)
	paginationPattern = regexp.MustCompile(`(?i)\b(?:Page \d+ of \d+|First page|Last page|Previous page|Next page)\b`)

	sentenceDetect    = regexp.MustCompile(`[.!?]\s+[A-Z]`)
	punctuationDetect = regexp.MustCompile(`[.!?]`)
)

// importantMetadataFields are the keys whose presence earns the metadata bonus.
var importantMetadataFields = []string{"title", "author", "subject", "description", "keywords"}

// QualityScore computes a [0, 1] score from OCR-artifact density, HTML/JS
// leakage, navigation-boilerplate density, structural cadence bonuses, and an
// optional metadata completeness bonus.
func QualityScore(text string, metadata map[string]interface{}) float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0.0
	}

	totalChars := float64(len(text))
	if totalChars < 10 {
		return 0.1
	}

	score := 1.0
	score -= ocrPenalty(text, totalChars) * 0.3
	score -= scriptPenalty(text, totalChars) * 0.2
	score -= navigationPenalty(text, totalChars) * 0.1
	score += structureBonus(text) * 0.2

	if len(metadata) > 0 {
		score += metadataBonus(metadata) * 0.1
	}

	return clamp01(score)
}

func ocrPenalty(text string, totalChars float64) float64 {
	if totalChars == 0 {
		return 0
	}
	artifactChars := matchLen(scatteredCharsPattern, text) +
		matchLen(repeatedPunctPattern, text) +
		matchLen(isolatedPunctPattern, text) +
		matchLen(malformedWordsPattern, text) +
		matchLen(excessiveWhitespacePattern, text)
	return min1(float64(artifactChars) / totalChars)
}

func scriptPenalty(text string, totalChars float64) float64 {
	if totalChars == 0 {
		return 0
	}
	scriptChars := matchLen(jsFunctionPattern, text) +
		matchLen(cssRulesPattern, text) +
		matchLen(scriptTagPattern, text) +
		matchLen(styleTagPattern, text)
	return min1(float64(scriptChars) / totalChars)
}

func navigationPenalty(text string, totalChars float64) float64 {
	if totalChars == 0 {
		return 0
	}
	navChars := matchLen(navWordsPattern, text) +
		matchLen(breadcrumbPattern, text) +
		matchLen(paginationPattern, text)
	return min1(float64(navChars) / totalChars)
}

func structureBonus(text string) float64 {
	if text == "" {
		return 0
	}
	sentenceCount := float64(len(sentenceDetect.FindAllString(text, -1)))
	paragraphCount := float64(strings.Count(text, "\n\n")) + 1
	words := float64(len(strings.Fields(text)))
	if words == 0 {
		return 0
	}

	avgWordsPerSentence := words / maxFloat(sentenceCount, 1)
	avgWordsPerParagraph := words / paragraphCount

	var structureScore float64
	if avgWordsPerSentence >= 10 && avgWordsPerSentence <= 30 {
		structureScore += 0.3
	}
	if avgWordsPerParagraph >= 50 && avgWordsPerParagraph <= 300 {
		structureScore += 0.3
	}
	if paragraphCount > 1 {
		structureScore += 0.2
	}
	if punctuationDetect.MatchString(text) {
		structureScore += 0.2
	}
	return min1(structureScore)
}

func metadataBonus(metadata map[string]interface{}) float64 {
	present := 0
	for _, field := range importantMetadataFields {
		if _, ok := metadata[field]; ok {
			present++
		}
	}
	return float64(present) / float64(len(importantMetadataFields))
}

func matchLen(re *regexp.Regexp, text string) int {
	total := 0
	for _, m := range re.FindAllString(text, -1) {
		total += len(m)
	}
	return total
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
