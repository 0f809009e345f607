package postprocess

import "strings"

// Chunk is one overlapping window of content.
type Chunk struct {
	Content    string
	CharStart  int
	CharEnd    int
	TokenCount int
}

// ChunkingConfig bounds Chunk splits into windows of at most MaxChars
// characters with MaxOverlap characters shared between consecutive windows.
type ChunkingConfig struct {
	MaxChars   int
	MaxOverlap int
}

// ChunkText splits content into overlapping windows. The boundary policy
// prefers the last whitespace within [maxChars-overlap, maxChars]; if none
// exists, it breaks exactly at maxChars.
func ChunkText(content string, cfg ChunkingConfig) []Chunk {
	if cfg.MaxChars <= 0 || len(content) <= cfg.MaxChars {
		if content == "" {
			return nil
		}
		return []Chunk{{Content: content, CharStart: 0, CharEnd: len(content), TokenCount: estimateTokens(content)}}
	}
	overlap := cfg.MaxOverlap
	if overlap < 0 || overlap >= cfg.MaxChars {
		overlap = 0
	}

	var chunks []Chunk
	start := 0
	for start < len(content) {
		end := start + cfg.MaxChars
		if end >= len(content) {
			end = len(content)
		} else {
			end = findBoundary(content, start, end, overlap)
		}
		if end <= start {
			end = start + cfg.MaxChars
			if end > len(content) {
				end = len(content)
			}
		}

		chunks = append(chunks, Chunk{
			Content:    content[start:end],
			CharStart:  start,
			CharEnd:    end,
			TokenCount: estimateTokens(content[start:end]),
		})

		if end >= len(content) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// findBoundary looks for the last whitespace rune in [maxChars-overlap,
// maxChars] (relative to start) and returns its absolute index, or the raw
// maxChars cut point if no whitespace is found in that window.
func findBoundary(content string, start, hardEnd, overlap int) int {
	windowStart := hardEnd - overlap
	if windowStart < start {
		windowStart = start
	}
	window := content[windowStart:hardEnd]
	if idx := strings.LastIndexAny(window, " \t\n\r"); idx >= 0 {
		return windowStart + idx + 1
	}
	return hardEnd
}

// estimateTokens is a rough whitespace-token count used when no tokenizer is
// configured; good enough for metadata.chunk_count bookkeeping and for the
// token-count field callers use to budget prompts.
func estimateTokens(s string) int {
	return len(strings.Fields(s))
}
