package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func document(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		html   string
		expect string
	}{
		{
			name: "json-ld job posting",
			html: `<html><head><script type="application/ld+json">
{"@context": "https://schema.org", "@type": "JobPosting", "title": "Go Developer",
 "description": "<p>Knows <b>Go</b> and Python</p><ul><li>Docker</li><li>Kubernetes</li></ul>"}
</script></head><body><div class="job-description">Ignored</div></body></html>`,
			expect: "Knows Go and Python Docker Kubernetes",
		},
		{
			name: "json-ld graph",
			html: `<script type="application/ld+json">{"@graph": [{"@type": "Organization"}, {"@type": ["JobPosting"], "description": "Linux and AWS"}]}</script>`,
			expect: "Linux and AWS",
		},
		{
			name:   "description container",
			html:   `<html><body><nav>Menu</nav><div class="show-more-less-html__markup"><p>Go</p><p>Docker</p></div><footer>Footer</footer></body></html>`,
			expect: "Go Docker",
		},
		{
			name:   "body fallback",
			html:   `<html><body><header>Site</header><p>Familiar with   Linux</p><script>var x = 1;</script></body></html>`,
			expect: "Familiar with Linux",
		},
		{
			name:   "broken json-ld falls back",
			html:   `<html><head><script type="application/ld+json">{broken</script></head><body><main>Python</main></body></html>`,
			expect: "Python",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, ExtractDescription(document(t, tt.html)))
		})
	}
}

func TestExtractDescriptionTruncates(t *testing.T) {
	html := "<html><body><main>" + strings.Repeat("é", MaxDescriptionBytes) + "</main></body></html>"

	description := ExtractDescription(document(t, html))

	assert.LessOrEqual(t, len(description), MaxDescriptionBytes)
	assert.Equal(t, MaxDescriptionBytes/2, len([]rune(description)))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Go Python", StripHTML("<p>Go</p>\n<p>Python</p>"))
	assert.Equal(t, "plain text", StripHTML("  plain   text "))
}

func TestFetchDescription(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/job":
			_, _ = w.Write([]byte(`<html><body><div class="description__text">Go and Kubernetes</div></body></html>`))
		case "/empty":
			_, _ = w.Write([]byte(`<html><body></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	description, err := FetchDescription(context.Background(), server.Client(), server.URL+"/job")
	require.NoError(t, err)
	assert.Equal(t, "Go and Kubernetes", description)
	assert.Equal(t, DefaultUserAgent, userAgent)

	_, err = FetchDescription(context.Background(), server.Client(), server.URL+"/missing")
	assert.ErrorContains(t, err, "HTTP 404")

	_, err = FetchDescription(context.Background(), server.Client(), server.URL+"/empty")
	assert.ErrorContains(t, err, "no job description")
}

func TestLoadDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><main>From the web</main></body></html>`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "job.txt")
	require.NoError(t, os.WriteFile(path, []byte("From a file"), 0o600))

	original := stdin
	stdin = strings.NewReader("From stdin")
	defer func() { stdin = original }()

	ctx := context.Background()

	fromURL, err := LoadDescription(ctx, server.Client(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "From the web", fromURL)

	fromFile, err := LoadDescription(ctx, nil, path)
	require.NoError(t, err)
	assert.Equal(t, "From a file", fromFile)

	fromStdin, err := LoadDescription(ctx, nil, "-")
	require.NoError(t, err)
	assert.Equal(t, "From stdin", fromStdin)

	_, err = LoadDescription(ctx, nil, "")
	assert.Error(t, err)

	_, err = LoadDescription(ctx, nil, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/job"))
	assert.True(t, IsURL("HTTP://example.com"))
	assert.False(t, IsURL("job.txt"))
	assert.False(t, IsURL("-"))
}
