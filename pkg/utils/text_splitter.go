package utils

import "unicode"

// SplitText cuts a document into chunks of roughly chunkSize characters with
// 'overlap' characters carried between neighbours so boundary context is not
// lost. Character-based; callers pick sizes that keep chunks inside the
// embedding model's context.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	runes := []rune(text)
	totalLen := len(runes)

	var chunks []string
	i := 0
	for {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		} else {
			end = breakNear(runes, end, i)
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == totalLen {
			break
		}

		next := end - overlap
		if next <= i {
			// Degenerate overlap would stall; tile without overlap instead.
			next = end
		}
		i = next
	}

	return chunks
}

// breakNear walks back from end looking for whitespace so words are not cut
// in half. Gives up after a short window and cuts mid-word rather than
// producing a degenerate chunk.
func breakNear(runes []rune, end, start int) int {
	const window = 80
	for i := end; i > end-window && i > start+1; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
