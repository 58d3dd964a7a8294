package strategy

import (
	"strings"
)

const answerMarker = "answer:"

// splitAnswer separates the final "Answer:" line from the reasoning that
// precedes it. Without a marker the whole text is the answer.
func splitAnswer(text string) (answer, trace string) {
	lower := strings.ToLower(text)
	idx := strings.LastIndex(lower, answerMarker)
	if idx < 0 {
		return text, ""
	}
	// Only a marker at the start of a line counts.
	if idx > 0 && lower[idx-1] != '\n' {
		return text, ""
	}

	answer = strings.TrimSpace(text[idx+len(answerMarker):])
	if answer == "" {
		return text, ""
	}
	return answer, strings.TrimSpace(text[:idx])
}
