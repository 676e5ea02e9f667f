package utils

import "strings"

const (
	DefaultMaxChars      = 10000
	DefaultNewAfterChars = 6000
	DefaultCombineUnder  = 2000
)

// SplitText splits a long string into chunks of approximately 'chunkSize' characters.
// It includes an 'overlap' to preserve context at boundaries.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	totalLen := len(runes)
	if chunkSize <= 0 || totalLen <= chunkSize {
		return []string{text}
	}

	var chunks []string
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == totalLen {
			break
		}
	}

	return chunks
}

// ChunkParagraphs packs blank-line separated paragraphs into chunks. A
// chunk is closed once it passes newAfter characters; pieces shorter than
// combineUnder are always merged forward; nothing exceeds maxChars.
func ChunkParagraphs(text string, maxChars, newAfter, combineUnder int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if newAfter <= 0 || newAfter > maxChars {
		newAfter = maxChars
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, para := range splitParagraphs(text) {
		for _, piece := range SplitText(para, maxChars, 0) {
			n := len([]rune(piece))
			if curLen > 0 && curLen+n+2 > maxChars {
				flush()
			}
			if curLen > 0 {
				cur.WriteString("\n\n")
				curLen += 2
			}
			cur.WriteString(piece)
			curLen += n
			if curLen >= newAfter && curLen >= combineUnder {
				flush()
			}
		}
	}
	flush()
	return chunks
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
