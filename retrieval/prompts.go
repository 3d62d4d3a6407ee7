package retrieval

import (
	"fmt"
	"strings"
	"unicode"
)

const multiQueryPrompt = `You are an AI language model assistant. Your task is to generate %d different versions of the given user question to retrieve relevant documents from a vector database. By generating multiple perspectives on the user question, your goal is to help the user overcome some of the limitations of the distance-based similarity search. Provide these alternative questions separated by newlines.
Original question: %s`

func buildMultiQueryPrompt(question string, n int) string {
	return fmt.Sprintf(multiQueryPrompt, n, question)
}

// parseRephrasings reads one question per line from a model reply.
// List markers are stripped, blank lines and repeats of earlier lines are
// dropped, and at most n questions are kept.
func parseRephrasings(reply, original string, n int) []string {
	seen := map[string]bool{normalize(original): true}
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(stripListMarker(line))
		if line == "" {
			continue
		}
		key := normalize(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}

// stripListMarker removes "1.", "2)", "-" or "*" prefixes.
func stripListMarker(line string) string {
	line = strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(line, "- "); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(line, "* "); ok {
		return rest
	}
	digits := strings.IndexFunc(line, func(r rune) bool { return !unicode.IsDigit(r) })
	if digits > 0 && (line[digits] == '.' || line[digits] == ')') {
		return line[digits+1:]
	}
	return line
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
