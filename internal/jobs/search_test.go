package jobs

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	html string
	err  error
	urls []string
}

func (f *fakeRenderer) Render(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.html, f.err
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func TestParseListings(t *testing.T) {
	listings, err := ParseListings(readFixture(t, "search.html"), Selectors{}, 0)
	require.NoError(t, err)

	require.Equal(t, 3, listings.Len())

	first := listings.Items[0]
	assert.Equal(t, &Listing{
		ID:       "3912345678",
		Title:    "Golang Developer",
		Company:  "Acme",
		Location: "Pune, Maharashtra, India",
		URL:      "https://in.linkedin.com/jobs/view/golang-developer-at-acme-3912345678",
		PostedAt: "2026-10-10",
	}, first)

	second := listings.Items[1]
	assert.Equal(t, "3987654321", second.ID)
	assert.Equal(t, "Globex", second.Company)
	assert.Equal(t, "2 days ago", second.PostedAt)
	assert.Equal(t, "https://in.linkedin.com/jobs/view/backend-engineer-at-globex-3987654321", second.URL)

	third := listings.Items[2]
	assert.Equal(t, "3900000002", third.ID)
	assert.Empty(t, third.Location)
	assert.Empty(t, third.PostedAt)
}

func TestParseListingsLimit(t *testing.T) {
	listings, err := ParseListings(readFixture(t, "search.html"), Selectors{}, 2)
	require.NoError(t, err)

	require.Equal(t, 2, listings.Len())
	assert.Equal(t, "Golang Developer", listings.Items[0].Title)
	assert.Equal(t, "Backend Engineer", listings.Items[1].Title)
}

func TestParseListingsCustomSelectors(t *testing.T) {
	html := `<div class="job" data-id="job-7"><a class="go" href="/jobs/7">Go Engineer</a><span class="org">Hooli</span></div>`

	listings, err := ParseListings(html, Selectors{Card: "div.job", Title: "a.go", Company: ".org", Link: "a.go", IDAttr: "data-id"}, 0)
	require.NoError(t, err)

	require.Equal(t, 1, listings.Len())
	assert.Equal(t, "Go Engineer", listings.Items[0].Title)
	assert.Equal(t, "Hooli", listings.Items[0].Company)
	assert.Equal(t, "/jobs/7", listings.Items[0].ID)
}

func TestSearcherSearch(t *testing.T) {
	renderer := &fakeRenderer{html: readFixture(t, "search.html")}
	searcher := NewSearcher(renderer, SearchOptions{Limit: 1})

	listings, err := searcher.Search(context.Background(), Query{Keywords: "Golang Developer", Location: "Pune, Maharashtra, India"})
	require.NoError(t, err)

	assert.Equal(t, 1, listings.Len())
	require.Len(t, renderer.urls, 1)
	assert.Equal(t, "https://www.linkedin.com/jobs/search?keywords=Golang+Developer&location=Pune%2C+Maharashtra%2C+India", renderer.urls[0])
}

func TestSearcherCustomURL(t *testing.T) {
	searcher := NewSearcher(&fakeRenderer{}, SearchOptions{URL: "https://jobs.example.com/?q={{keywords}}&where={{location}}"})

	assert.Equal(t, "https://jobs.example.com/?q=go&where=", searcher.SearchURL(Query{Keywords: " go "}))
}

func TestSearcherErrors(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("chrome not found")}
	searcher := NewSearcher(renderer, SearchOptions{})

	_, err := searcher.Search(context.Background(), Query{Keywords: "Go"})
	assert.ErrorContains(t, err, "chrome not found")

	_, err = searcher.Search(context.Background(), Query{Keywords: "  "})
	assert.Error(t, err)
	assert.Len(t, renderer.urls, 1)
}
