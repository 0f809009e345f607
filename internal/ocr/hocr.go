package ocr

import (
	"regexp"
	"strings"
)

var (
	hocrClassAttr = regexp.MustCompile(`class="([^"]*)"`)
	hocrTagStrip  = regexp.MustCompile(`(?is)<[^>]+>`)
)

// hocrToMarkdown converts a Tesseract hOCR document to markdown, preserving
// heading/paragraph structure inferred from the hOCR class attributes:
// ocr_par becomes a paragraph break, ocr_line joins with a single newline, and
// a line classed ocr_header (some Tesseract builds emit this for large text) is
// rendered as a level-2 heading.
func hocrToMarkdown(hocr string) string {
	var out strings.Builder

	pars := splitByClass(hocr, "ocr_par")
	for _, par := range pars {
		lines := splitByClass(par, "ocr_line")
		var lineTexts []string
		for _, line := range lines {
			text := stripTags(line)
			text = strings.Join(strings.Fields(text), " ")
			if text == "" {
				continue
			}
			if classHas(line, "ocr_header") {
				lineTexts = append(lineTexts, "## "+text)
			} else {
				lineTexts = append(lineTexts, text)
			}
		}
		if len(lineTexts) == 0 {
			continue
		}
		out.WriteString(strings.Join(lineTexts, "\n"))
		out.WriteString("\n\n")
	}

	return strings.TrimRight(out.String(), "\n") + "\n"
}

// splitByClass extracts the inner HTML of every element tagged with the given
// hOCR class, in document order. hOCR is a constrained HTML dialect (Tesseract's
// own output), so a regex-based split is sufficient without pulling in a full
// HTML parser for this one conversion.
func splitByClass(html, class string) []string {
	var out []string
	remaining := html
	needle := `class="` + class
	for {
		idx := strings.Index(remaining, needle)
		if idx < 0 {
			break
		}
		tagStart := strings.LastIndexByte(remaining[:idx], '<')
		if tagStart < 0 {
			break
		}
		tagEnd := strings.IndexByte(remaining[tagStart:], '>')
		if tagEnd < 0 {
			break
		}
		tagEnd += tagStart

		depth := 1
		searchFrom := tagEnd + 1
		contentEnd := -1
		closeTagLen := 0
		for searchFrom < len(remaining) {
			nextOpen := strings.Index(remaining[searchFrom:], "<")
			if nextOpen < 0 {
				break
			}
			pos := searchFrom + nextOpen
			if strings.HasPrefix(remaining[pos:], "</") {
				depth--
				end := strings.IndexByte(remaining[pos:], '>')
				if end < 0 {
					break
				}
				if depth == 0 {
					contentEnd = pos
					closeTagLen = end + 1
					break
				}
				searchFrom = pos + end + 1
			} else {
				depth++
				end := strings.IndexByte(remaining[pos:], '>')
				if end < 0 {
					break
				}
				searchFrom = pos + end + 1
			}
		}
		if contentEnd < 0 {
			break
		}
		out = append(out, remaining[tagEnd+1:contentEnd])
		remaining = remaining[contentEnd+closeTagLen:]
	}
	return out
}

func classHas(html, class string) bool {
	m := hocrClassAttr.FindStringSubmatch(html)
	if m == nil {
		return false
	}
	for _, c := range strings.Fields(m[1]) {
		if c == class {
			return true
		}
	}
	return false
}

func stripTags(html string) string {
	return hocrTagStrip.ReplaceAllString(html, " ")
}
