package postprocess

import (
	"sort"

	"github.com/abadojack/whatlanggo"
)

// LanguageDetectionConfig configures DetectLanguages.
type LanguageDetectionConfig struct {
	MinConfidence  float64
	DetectMultiple bool
}

// DetectedLanguage is one language guess with its confidence in [0, 1].
type DetectedLanguage struct {
	Code       string
	Confidence float64
}

// DetectLanguages runs a statistical language classifier over content. If the
// best guess clears MinConfidence, it is returned alone unless DetectMultiple
// is set, in which case every guess above the threshold is returned in
// descending-confidence order.
func DetectLanguages(content string, cfg LanguageDetectionConfig) []DetectedLanguage {
	if content == "" {
		return nil
	}

	info := whatlanggo.Detect(content)
	if info.Confidence < cfg.MinConfidence {
		return nil
	}

	best := DetectedLanguage{Code: info.Lang.Iso6393(), Confidence: info.Confidence}
	if !cfg.DetectMultiple {
		return []DetectedLanguage{best}
	}

	results := []DetectedLanguage{best}
	for _, alt := range detectAlternatives(content) {
		if alt.Confidence < cfg.MinConfidence || alt.Code == best.Code {
			continue
		}
		results = append(results, alt)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Confidence > results[j].Confidence })
	return results
}

// detectAlternatives re-scores the script-compatible language set whatlanggo
// considered, giving a ranked list beyond the single best guess. whatlanggo's
// public API exposes only the top Info from Detect, so alternatives are
// derived by re-running detection with the best language excluded from
// consideration — a pragmatic approximation of "all codes above threshold"
// without vendoring a multi-label classifier.
func detectAlternatives(content string) []DetectedLanguage {
	first := whatlanggo.Detect(content)
	blacklist := map[whatlanggo.Lang]bool{first.Lang: true}
	second := whatlanggo.DetectWithOptions(content, whatlanggo.Options{Blacklist: blacklist})
	if second.Lang == first.Lang {
		return nil
	}
	return []DetectedLanguage{{Code: second.Lang.Iso6393(), Confidence: second.Confidence}}
}
