package postprocess

import (
	"regexp"
	"strconv"
	"strings"
)

// ReductionLevel selects how aggressively tokenreduce.Reduce rewrites text.
type ReductionLevel string

const (
	ReductionOff        ReductionLevel = "off"
	ReductionLight      ReductionLevel = "light"
	ReductionModerate   ReductionLevel = "moderate"
	ReductionAggressive ReductionLevel = "aggressive"
	ReductionMaximum    ReductionLevel = "maximum"
)

// TokenReductionConfig configures Reduce.
type TokenReductionConfig struct {
	Level            ReductionLevel
	Language         string   // stopword set to use, default "en"
	PreserveMarkdown bool
	PreserveCode     bool
	PreservePatterns []string // extra regexes whose matches are never stripped
}

var (
	repeatedExclamation = regexp.MustCompile(`[!]{2,}`)
	repeatedQuestion    = regexp.MustCompile(`[?]{2,}`)
	repeatedComma       = regexp.MustCompile(`[,]{2,}`)
	fencedCodeBlock     = regexp.MustCompile("(?s)```.*?```")
	inlineCode          = regexp.MustCompile("`[^`\n]+`")
	allCapsToken        = regexp.MustCompile(`^[A-Z]{2,}$`)
	digitToken          = regexp.MustCompile(`\d`)
	markdownHeading     = regexp.MustCompile(`^#{1,6}\s`)
	markdownListItem    = regexp.MustCompile(`^\s*[-*+]\s|^\s*\d+\.\s`)
	markdownTableRow    = regexp.MustCompile(`^\s*\|.*\|\s*$`)
)

// enStopwords is the fallback English stopword set used when no richer,
// language-specific list is wired in.
var enStopwords = buildStopwordSet([]string{
	"a", "an", "and", "are", "as", "at", "be", "been", "by", "for", "from", "has", "have", "had", "he", "him",
	"his", "her", "hers", "she", "in", "is", "it", "its", "of", "on", "that", "the", "to", "was", "were",
	"will", "with", "would", "this", "these", "they", "them", "their", "but", "or", "if", "then", "than",
	"when", "where", "who", "which", "what", "how", "why", "do", "does", "did", "can", "could", "should",
	"shall", "may", "might", "must", "up", "down", "out", "over", "under", "again", "further", "once", "here",
	"there", "all", "any", "both", "each", "few", "more", "most", "other", "some", "such", "no", "nor", "not",
	"only", "own", "same", "so", "too", "very", "just", "now",
})

func buildStopwordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Reduce rewrites text according to cfg.Level. Every level preserves ALL-CAPS
// tokens, tokens containing a digit, and any match of cfg.PreservePatterns;
// fenced and inline code blocks are preserved only when cfg.PreserveCode or
// cfg.PreserveMarkdown is set.
func Reduce(text string, cfg TokenReductionConfig) string {
	if text == "" || cfg.Level == "" || cfg.Level == ReductionOff {
		return text
	}

	preserved := make([]string, 0, 8)
	working := text
	if cfg.PreserveCode || cfg.PreserveMarkdown {
		working = extractAndPreserve(working, fencedCodeBlock, &preserved)
		working = extractAndPreserve(working, inlineCode, &preserved)
	}

	switch cfg.Level {
	case ReductionLight:
		working = cleanPunctuation(working)
	case ReductionModerate:
		working = cleanPunctuation(working)
		working = removeStopwords(working, stopwordsFor(cfg.Language), cfg.PreserveMarkdown, cfg.PreservePatterns)
	case ReductionAggressive:
		working = cleanPunctuation(working)
		working = removeStopwords(working, stopwordsFor(cfg.Language), cfg.PreserveMarkdown, cfg.PreservePatterns)
		working = filterByImportance(working, cfg.PreservePatterns, 0.5)
	case ReductionMaximum:
		working = cleanPunctuation(working)
		working = removeStopwords(working, stopwordsFor(cfg.Language), cfg.PreserveMarkdown, cfg.PreservePatterns)
		working = filterByImportance(working, cfg.PreservePatterns, 0.3)
	}

	working = restorePreserved(working, preserved)
	return strings.TrimSpace(working)
}

func stopwordsFor(language string) map[string]struct{} {
	// Only English is wired with a concrete list; other languages fall back
	// to an empty set, so moderate+ reduction still runs but skips stopword
	// removal.
	if language == "" || language == "en" {
		return enStopwords
	}
	return nil
}

// cleanPunctuation collapses repeated punctuation and excessive whitespace —
// the "light" reduction level.
func cleanPunctuation(text string) string {
	text = repeatedExclamation.ReplaceAllString(text, "!")
	text = repeatedQuestion.ReplaceAllString(text, "?")
	text = repeatedComma.ReplaceAllString(text, ",")
	text = excessiveWhitespacePattern.ReplaceAllString(text, " ")
	return text
}

// removeStopwords drops stopword tokens line by line, skipping markdown
// structural lines (headings, list items, table rows) when preserveMarkdown is
// set, and never dropping a token matched by one of the preserve patterns, an
// ALL-CAPS token, or a token containing a digit.
func removeStopwords(text string, stopwords map[string]struct{}, preserveMarkdown bool, patterns []string) string {
	if len(stopwords) == 0 {
		return text
	}
	compiled := compilePatterns(patterns)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if preserveMarkdown && isStructuralMarkdownLine(line) {
			continue
		}
		lines[i] = filterTokens(line, func(tok string) bool {
			return !shouldPreserveToken(tok, compiled) && isStopword(tok, stopwords)
		})
	}
	return strings.Join(lines, "\n")
}

// filterByImportance drops short tokens below a length threshold that scales
// with keepRatio, while still respecting the same preservation rules as
// removeStopwords. It approximates importance filtering without a semantic
// model.
func filterByImportance(text string, patterns []string, keepRatio float64) string {
	compiled := compilePatterns(patterns)
	minLen := int((1 - keepRatio) * 6)
	if minLen < 1 {
		minLen = 1
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if isStructuralMarkdownLine(line) {
			continue
		}
		lines[i] = filterTokens(line, func(tok string) bool {
			if shouldPreserveToken(tok, compiled) {
				return false
			}
			return len(tok) < minLen
		})
	}
	return strings.Join(lines, "\n")
}

func filterTokens(line string, drop func(token string) bool) string {
	fields := strings.Fields(line)
	kept := fields[:0]
	for _, f := range fields {
		if drop(stripPunct(f)) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func shouldPreserveToken(tok string, patterns []*regexp.Regexp) bool {
	if allCapsToken.MatchString(tok) || digitToken.MatchString(tok) {
		return true
	}
	for _, p := range patterns {
		if p.MatchString(tok) {
			return true
		}
	}
	return false
}

func isStopword(tok string, stopwords map[string]struct{}) bool {
	_, ok := stopwords[strings.ToLower(tok)]
	return ok
}

func isStructuralMarkdownLine(line string) bool {
	return markdownHeading.MatchString(line) || markdownListItem.MatchString(line) || markdownTableRow.MatchString(line)
}

func stripPunct(tok string) string {
	return strings.Trim(tok, ".,;:!?\"'()[]{}")
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			compiled = append(compiled, re)
		}
	}
	return compiled
}

func extractAndPreserve(text string, re *regexp.Regexp, preserved *[]string) string {
	return re.ReplaceAllStringFunc(text, func(match string) string {
		*preserved = append(*preserved, match)
		return placeholderFor(len(*preserved) - 1)
	})
}

func restorePreserved(text string, preserved []string) string {
	for i, block := range preserved {
		text = strings.ReplaceAll(text, placeholderFor(i), block)
	}
	return text
}

func placeholderFor(i int) string {
	return "\x00KZPRESERVE" + strconv.Itoa(i) + "\x00"
}
