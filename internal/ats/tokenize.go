package ats

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TokenSet is the de-duplicated set of normalized words of a text.
type TokenSet map[string]struct{}

func (t TokenSet) Len() int { return len(t) }

func (t TokenSet) Contains(token string) bool {
	_, ok := t[token]
	return ok
}

// Sorted returns the tokens in lexical order.
func (t TokenSet) Sorted() []string {
	out := make([]string, 0, len(t))
	for token := range t {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// Tokenizer turns text into a TokenSet: case folding, word splitting,
// alphabetic filtering and stop-word removal.
type Tokenizer struct {
	stopWords StopWords
}

// NewTokenizer creates a tokenizer with the given stop words.
// A nil set selects EnglishStopWords.
func NewTokenizer(stopWords StopWords) *Tokenizer {
	if stopWords == nil {
		stopWords = EnglishStopWords()
	}
	return &Tokenizer{stopWords: stopWords}
}

// Tokenize returns the Token Set of text. Empty text gives an empty set.
func (t *Tokenizer) Tokenize(text string) TokenSet {
	set := make(TokenSet)
	for _, word := range Words(text) {
		if !isAlpha(word) || t.stopWords.Contains(word) {
			continue
		}
		set[word] = struct{}{}
	}
	return set
}

// Words lower-cases text and splits it into word tokens without any filtering.
//
// Splitting follows the Penn Treebank conventions closely enough for keyword
// comparison: brackets, quotes, commas, colons and similar marks always
// separate tokens; trailing periods and quotes are split off except after a
// known abbreviation inside the text ("etc.", "inc."); clitics such as
// n't and 's become their own tokens. Interior hyphens, dots, slashes and
// apostrophes keep a token whole, so "ci/cd" or "next.js" stay single tokens.
func Words(text string) []string {
	// cases.Caser is stateful, so a fresh one is used per call.
	lower := cases.Lower(language.Und).String(text)

	var words []string
	for _, field := range strings.FieldsFunc(lower, isSeparator) {
		for _, piece := range strings.Split(field, "--") {
			words = appendPiece(words, piece)
		}
	}
	// The period after the last word ends the text, even after an abbreviation.
	if n := len(words); n > 0 {
		words[n-1] = strings.TrimSuffix(words[n-1], ".")
	}
	return words
}

// clitics are split from the end of a word, longest first.
var clitics = []string{"n't", "'re", "'ve", "'ll", "'s", "'d", "'m"}

// fused words the Treebank tokenizer splits in two.
var fused = map[string][2]string{
	"cannot": {"can", "not"},
	"gonna":  {"gon", "na"},
	"gotta":  {"got", "ta"},
	"wanna":  {"wan", "na"},
	"lemme":  {"lem", "me"},
	"gimme":  {"gim", "me"},
}

// abbreviations keep their trailing period inside a sentence, so they fail the
// alphabetic filter instead of counting as keywords.
var abbreviations = map[string]struct{}{
	"approx": {}, "co": {}, "corp": {}, "dept": {}, "dr": {}, "etc": {},
	"inc": {}, "jr": {}, "ltd": {}, "mr": {}, "mrs": {}, "ms": {},
	"no": {}, "sr": {}, "st": {}, "vs": {},
}

func appendPiece(words []string, piece string) []string {
	piece = strings.TrimLeft(piece, "'`")
	trimmed := strings.TrimRight(piece, ".'`")
	if _, ok := abbreviations[trimmed]; ok && strings.TrimRight(piece, "'`") == trimmed+"." {
		return append(words, trimmed+".")
	}
	piece = trimmed
	if piece == "" {
		return words
	}

	if parts, ok := fused[piece]; ok {
		return append(words, parts[0], parts[1])
	}

	for _, clitic := range clitics {
		if len(piece) > len(clitic) && strings.HasSuffix(piece, clitic) {
			return append(words, piece[:len(piece)-len(clitic)], clitic)
		}
	}

	return append(words, piece)
}

func isSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case ',', ';', ':', '@', '#', '$', '%', '&', '?', '!', '"',
		'(', ')', '[', ']', '{', '}', '<', '>',
		'“', '”', '…':
		return true
	}
	return false
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
