package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MaxDescriptionBytes caps a description extracted from a web page.
	MaxDescriptionBytes = 15000

	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	// StdinSource makes LoadDescription read from standard input.
	StdinSource = "-"
)

var stdin io.Reader = os.Stdin

// DescriptionSelectors are tried in order when a page has no JobPosting JSON-LD.
var DescriptionSelectors = []string{
	".show-more-less-html__markup",
	".description__text",
	".job-description",
	"#job-description",
	".jobs-description__content",
	"article",
	"main",
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	htmlTags   = regexp.MustCompile(`<[^>]*>`)
)

// NewHTTPClient returns a client with the default timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// LoadDescription returns a job description from an http(s) URL, a file, or
// standard input when source is "-".
func LoadDescription(ctx context.Context, client *http.Client, source string) (string, error) {
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return "", fmt.Errorf("job description source is required")
	case source == StdinSource:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading job description from stdin: %w", err)
		}
		return string(data), nil
	case IsURL(source):
		return FetchDescription(ctx, client, source)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return "", fmt.Errorf("reading job description %q: %w", source, err)
		}
		return string(data), nil
	}
}

func IsURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// HTTPFetcher fetches listing descriptions over plain HTTP.
type HTTPFetcher struct {
	Client *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return FetchDescription(ctx, f.Client, url)
}

// FetchDescription downloads a job page and extracts its description text.
func FetchDescription(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = NewHTTPClient()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request for %q: %w", url, err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %q: HTTP %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", url, err)
	}

	description := ExtractDescription(doc)
	if description == "" {
		return "", fmt.Errorf("no job description found at %q", url)
	}
	return description, nil
}

// ExtractDescription pulls the description out of a job page: JobPosting JSON-LD
// first, then DescriptionSelectors, then the whole body. The result has
// collapsed whitespace and is at most MaxDescriptionBytes long.
func ExtractDescription(doc *goquery.Document) string {
	content := jsonLDDescription(doc)

	if content == "" {
		doc.Find("script, style, noscript, nav, header, footer").Remove()
		for _, selector := range DescriptionSelectors {
			if selection := doc.Find(selector); selection.Length() > 0 {
				content = spacedText(selection.First())
				if strings.TrimSpace(content) != "" {
					break
				}
			}
		}
	}

	if strings.TrimSpace(content) == "" {
		content = spacedText(doc.Find("body"))
	}

	return truncate(collapse(content), MaxDescriptionBytes)
}

func jsonLDDescription(doc *goquery.Document) string {
	var content string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, node := range decodeJSONLD(s.Text()) {
			if !isJobPosting(node["@type"]) {
				continue
			}
			if desc, ok := node["description"].(string); ok && strings.TrimSpace(desc) != "" {
				content = StripHTML(desc)
				return false
			}
		}
		return true
	})
	return content
}

// decodeJSONLD flattens a JSON-LD block into its nodes, following arrays and @graph.
func decodeJSONLD(raw string) []map[string]any {
	var data any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &data); err != nil {
		return nil
	}

	var nodes []map[string]any
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case []any:
			for _, item := range val {
				walk(item)
			}
		case map[string]any:
			nodes = append(nodes, val)
			if graph, ok := val["@graph"]; ok {
				walk(graph)
			}
		}
	}
	walk(data)
	return nodes
}

func isJobPosting(t any) bool {
	switch val := t.(type) {
	case string:
		return val == "JobPosting"
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

// StripHTML returns the text of an HTML fragment with collapsed whitespace.
func StripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapse(htmlTags.ReplaceAllString(html, " "))
	}
	return collapse(spacedText(doc.Selection))
}

const blockElements = "p, div, li, ul, ol, br, h1, h2, h3, h4, h5, h6, tr, td, th, section"

// spacedText returns the text of a selection with block elements separated by spaces.
func spacedText(sel *goquery.Selection) string {
	sel.Find(blockElements).AppendHtml(" ")
	return sel.Text()
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
