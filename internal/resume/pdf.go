package resume

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is the text of a single PDF page.
type Page struct {
	Number int
	Text   string
}

// ExtractPages returns the trimmed text of every page that has any. Pages are numbered from 1.
func ExtractPages(path string) ([]Page, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return nil, fmt.Errorf("opening pdf %q: %w", path, err)
	}
	defer file.Close()

	var pages []Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extracting text from page %d: %w", i, err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	return pages, nil
}

// ReadText returns the plain text of a resume. PDF pages are concatenated
// as extracted, anything else is read as a text file.
func ReadText(path string) (string, error) {
	if !IsPDF(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading resume %q: %w", path, err)
		}
		return string(data), nil
	}

	pages, err := ExtractPages(path)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for _, page := range pages {
		builder.WriteString(page.Text)
	}
	return builder.String(), nil
}

// FullText cleans every page and joins them with newlines.
func FullText(pages []Page) string {
	cleaned := make([]string, 0, len(pages))
	for _, page := range pages {
		cleaned = append(cleaned, CleanText(page.Text))
	}
	return strings.Join(cleaned, "\n")
}

func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
