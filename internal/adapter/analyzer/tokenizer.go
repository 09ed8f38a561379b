package analyzer

import (
	"iter"
	"strings"

	"cortex/internal/port"
)

var _ port.Tokenizer = (*Tokenizer)(nil)

// Tokenizer splits text into lowercase word tokens. Tokens keeps stopwords so
// the raw stream stays reusable; Terms drops them.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a Tokenizer backed by the shared English stopword set.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{stopwords: stopwords}
}

// Tokens yields every word of text matching [A-Za-z0-9][A-Za-z0-9_\-']*,
// lowercased, skipping single-character words. The sequence is lazy and can
// be ranged over more than once.
func (t *Tokenizer) Tokens(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		i := 0
		for i < len(text) {
			if !isWordStart(text[i]) {
				i++
				continue
			}
			j := i + 1
			for j < len(text) && isWordByte(text[j]) {
				j++
			}
			if j-i > 1 && !yield(strings.ToLower(text[i:j])) {
				return
			}
			i = j
		}
	}
}

// Terms yields the tokens of text that are not stopwords.
func (t *Tokenizer) Terms(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for tok := range t.Tokens(text) {
			if t.IsStopword(tok) {
				continue
			}
			if !yield(tok) {
				return
			}
		}
	}
}

// IsStopword reports whether a lowercase token is a stopword.
func (t *Tokenizer) IsStopword(token string) bool {
	_, ok := t.stopwords[token]
	return ok
}

func isWordStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isWordByte(c byte) bool {
	return isWordStart(c) || c == '_' || c == '-' || c == '\''
}

// stopwords holds common English function words. It is built once and never
// mutated.
var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "when",
		"while", "of", "to", "in", "on", "for", "from", "with", "as",
		"is", "are", "was", "were", "be", "been", "being", "at", "by", "it",
		"its", "this", "that", "these", "those", "you", "your", "we", "our",
		"i", "me", "my", "they", "them", "their", "he", "him", "his", "she",
		"her", "hers", "not", "no", "yes", "can", "could", "should", "would",
		"will", "just", "about", "into", "over", "under", "up", "down", "out",
		"also", "than",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
