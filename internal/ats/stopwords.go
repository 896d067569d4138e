package ats

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"sync"
)

//go:embed english.txt
var englishStopWords string

// StopWords is a set of lower-cased words ignored by the tokenizer.
type StopWords map[string]struct{}

var loadEnglish = sync.OnceValue(func() StopWords {
	words, err := LoadStopWords(strings.NewReader(englishStopWords))
	if err != nil {
		// The embedded list is plain text; a failure here means the binary is broken.
		panic(fmt.Sprintf("parsing embedded stop words: %v", err))
	}
	return words
})

// EnglishStopWords returns the standard English stop-word list shipped with the package.
// The returned set is shared and must not be modified.
func EnglishStopWords() StopWords {
	return loadEnglish()
}

// LoadStopWords reads one word per line. Blank lines and lines starting with '#' are skipped.
func LoadStopWords(r io.Reader) (StopWords, error) {
	words := make(StopWords)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stop words: %w", err)
	}
	return words, nil
}

// Contains reports whether word is a stop word.
func (s StopWords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

func (s StopWords) Len() int { return len(s) }
