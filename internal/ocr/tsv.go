package ocr

import (
	"strconv"
	"strings"
)

// parseTSV parses Tesseract's TSV output format (one header line, then one row
// per recognized element — page/block/paragraph/line/word — tab-separated:
// level, page_num, block_num, par_num, line_num, word_num, left, top, width,
// height, conf, text). Only word-level rows (level 5) with non-empty text and
// confidence >= minConfidence survive.
func parseTSV(tsv string, minConfidence float64) []Word {
	lines := strings.Split(tsv, "\n")
	if len(lines) == 0 {
		return nil
	}

	var words []Word
	for i, line := range lines {
		if i == 0 || line == "" {
			continue // header row
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}
		level, err := strconv.Atoi(cols[0])
		if err != nil || level != 5 {
			continue
		}
		text := cols[11]
		if strings.TrimSpace(text) == "" {
			continue
		}
		conf, _ := strconv.ParseFloat(cols[10], 64)
		if conf < minConfidence {
			continue
		}
		w := Word{
			Text:       text,
			BlockNum:   atoiOr(cols[2], 0),
			ParNum:     atoiOr(cols[3], 0),
			LineNum:    atoiOr(cols[4], 0),
			WordNum:    atoiOr(cols[5], 0),
			Left:       atoiOr(cols[6], 0),
			Top:        atoiOr(cols[7], 0),
			Width:      atoiOr(cols[8], 0),
			Height:     atoiOr(cols[9], 0),
			Confidence: conf,
		}
		words = append(words, w)
	}
	return words
}

func atoiOr(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
