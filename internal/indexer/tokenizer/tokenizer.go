// Package tokenizer normalises page text into index terms. It splits on
// whitespace, strips punctuation from both ends of each word, lower-cases
// it and drops stop-words. No stemming is applied.
package tokenizer

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Tokenize returns the terms of text in document order, duplicates kept.
func Tokenize(text string) []string {
	words := strings.Fields(text)
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if term, ok := NormalizeTerm(word); ok {
			terms = append(terms, term)
		}
	}
	return terms
}

// NormalizeTerm applies the indexing rule to a single word. It reports false
// when nothing indexable remains.
func NormalizeTerm(word string) (string, bool) {
	term := strings.ToLower(StripPunctuation(word))
	if term == "" {
		return "", false
	}
	if IsStopWord(term) {
		return "", false
	}
	return term, true
}

// StripPunctuation removes leading and trailing characters that are neither
// letters nor digits. Inner punctuation such as in "don't" or "e-mail" is
// kept.
func StripPunctuation(word string) string {
	return strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// IsStopWord reports whether the lower-case word is ignored by the index.
func IsStopWord(word string) bool {
	_, isStop := stopWords[word]
	return isStop
}
