package index

import (
	"strings"
	"unicode"
)

// Stop words to filter out when checking for verbatim matches
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "how": true, "what": true, "where": true, "i": true,
	"does": true, "can": true,
}

// tokenize splits text on anything that cannot appear in an identifier,
// lowercases, and drops stop words. "http.ListenAndServe()" yields
// "http" and "listenandserve".
func tokenize(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	filtered := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ToLower(word)
		if !stopWords[word] {
			filtered = append(filtered, word)
		}
	}
	return filtered
}

// containsAllQueryWords reports whether every significant query word
// appears in the chunk text.
func containsAllQueryWords(text, query string) bool {
	queryWords := tokenize(query)
	if len(queryWords) == 0 {
		return false
	}

	textWords := make(map[string]bool)
	for _, word := range tokenize(text) {
		textWords[word] = true
	}

	for _, word := range queryWords {
		if !textWords[word] {
			return false
		}
	}
	return true
}
