package resume

import (
	"strings"
	"unicode"
)

// SectionHeaders are placed on their own lines by CleanText.
var SectionHeaders = []string{"SUMMARY", "PROJECTS", "EDUCATION", "STRENGTHS", "SKILLS"}

var techNames = strings.NewReplacer(
	"Next . js", "Next.js",
	"React . js", "React.js",
)

// CleanText normalizes text extracted from a PDF so it reads well and can be sent to a model.
func CleanText(text string) string {
	text = strings.Join(strings.Fields(text), " ")

	for _, header := range SectionHeaders {
		text = strings.ReplaceAll(text, header, "\n"+header+"\n")
	}

	text = strings.ReplaceAll(text, "-", "\n- ")
	text = joinLetters(text)

	return techNames.Replace(text)
}

// joinLetters drops a whitespace rune sitting between two one-letter words,
// so letter-spaced text such as "J o h n" becomes "John".
func joinLetters(text string) string {
	runes := []rune(text)
	out := make([]rune, 0, len(runes))

	for i, r := range runes {
		if unicode.IsSpace(r) && singleLetterAt(runes, i-1) && singleLetterAt(runes, i+1) {
			continue
		}
		out = append(out, r)
	}

	return string(out)
}

// singleLetterAt reports whether runes[i] is a one-letter word.
func singleLetterAt(runes []rune, i int) bool {
	if i < 0 || i >= len(runes) || !isWord(runes[i]) {
		return false
	}
	if i > 0 && isWord(runes[i-1]) {
		return false
	}
	if i+1 < len(runes) && isWord(runes[i+1]) {
		return false
	}
	return true
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
