package analyzer

import (
	"slices"
	"testing"
)

func TestTokenizer_Tokens(t *testing.T) {
	tok := NewTokenizer()

	tokens := slices.Collect(tok.Tokens("The Engine failure was caused by overheating."))
	expected := []string{"the", "engine", "failure", "was", "caused", "by", "overheating"}
	if !slices.Equal(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}

func TestTokenizer_Terms_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer()

	terms := slices.Collect(tok.Terms("the quick brown fox is over the lazy dog"))
	expected := []string{"quick", "brown", "fox", "lazy", "dog"}
	if !slices.Equal(terms, expected) {
		t.Errorf("expected %v, got %v", expected, terms)
	}
}

func TestTokenizer_ShortWordRemoval(t *testing.T) {
	tok := NewTokenizer()

	tokens := slices.Collect(tok.Tokens("a I x go to 7"))
	for _, token := range tokens {
		if len(token) < 2 {
			t.Errorf("short word should be removed: %s", token)
		}
	}
	if !slices.Equal(tokens, []string{"go", "to"}) {
		t.Errorf("unexpected tokens: %v", tokens)
	}
}

func TestTokenizer_EmptyInput(t *testing.T) {
	tok := NewTokenizer()

	for _, input := range []string{"", "   \n\t", "!!! ... ---", "é ü ß"} {
		if tokens := slices.Collect(tok.Tokens(input)); len(tokens) != 0 {
			t.Errorf("expected 0 tokens for %q, got %v", input, tokens)
		}
	}
}

func TestTokenizer_Restartable(t *testing.T) {
	tok := NewTokenizer()
	seq := tok.Terms("rocket propulsion and rocket fuel")

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) {
		t.Errorf("expected identical passes, got %v and %v", first, second)
	}
}

func TestTokenizer_EarlyStop(t *testing.T) {
	tok := NewTokenizer()

	var got []string
	for token := range tok.Tokens("alpha beta gamma delta") {
		got = append(got, token)
		if len(got) == 2 {
			break
		}
	}
	if !slices.Equal(got, []string{"alpha", "beta"}) {
		t.Errorf("expected early stop after two tokens, got %v", got)
	}
}

func TestTokens_WordPattern(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"hello world", []string{"hello", "world"}},
		{"hello_world", []string{"hello_world"}},
		{"hello-world", []string{"hello-world"}},
		{"don't stop", []string{"don't", "stop"}},
		{"_private -dash 'quote", []string{"private", "dash", "quote"}},
		{"func(x, y)", []string{"func"}},
		{"CamelCase", []string{"camelcase"}},
		{"123numbers456", []string{"123numbers456"}},
		{"café naïve", []string{"caf", "na", "ve"}},
	}

	tok := NewTokenizer()
	for _, tt := range tests {
		got := slices.Collect(tok.Tokens(tt.input))
		if !slices.Equal(got, tt.expected) {
			t.Errorf("Tokens(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestStopwords_Count(t *testing.T) {
	if len(stopwords) != 69 {
		t.Errorf("expected 69 stopwords, got %d", len(stopwords))
	}
	tok := NewTokenizer()
	if !tok.IsStopword("the") || tok.IsStopword("engine") {
		t.Error("unexpected stopword classification")
	}
}
