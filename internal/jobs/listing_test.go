package jobs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spigell/ats-scorer/internal/ats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleListings() *Listings {
	return &Listings{Items: []*Listing{
		{ID: "1", Title: "Go Developer", Company: "Acme", URL: "https://example.com/1", ATS: &ats.Result{Score: 42}},
		{ID: "2", Title: "SRE", Company: "Globex", URL: "https://example.com/2"},
		{ID: "3", Title: "Backend Engineer", Company: "acme", URL: "https://example.com/3", ATS: &ats.Result{Score: 86}},
		{ID: "4", Title: "Platform Engineer", Company: "Initech", URL: "https://example.com/4", ATS: &ats.Result{Score: 70}, FetchError: "timeout"},
	}}
}

func ids(l *Listings) []string {
	out := make([]string, 0, l.Len())
	for _, item := range l.Items {
		out = append(out, item.ID)
	}
	return out
}

func TestListingsExclude(t *testing.T) {
	listings := sampleListings()

	excluded := listings.Exclude(ListingCompanyField, []string{" ACME "})

	assert.Equal(t, []string{"1", "3"}, excluded)
	assert.Equal(t, []string{"2", "4"}, ids(listings))

	excluded = listings.Exclude(ListingIDField, []string{"4", "404"})
	assert.Equal(t, []string{"4"}, excluded)
	assert.Equal(t, []string{"2"}, ids(listings))

	assert.Nil(t, listings.Exclude(ListingURLField, nil))
}

func TestListingsFindByID(t *testing.T) {
	listings := sampleListings()

	assert.Equal(t, "SRE", listings.FindByID("2").Title)
	assert.Nil(t, listings.FindByID("missing"))
}

func TestListingsRemoveByIndex(t *testing.T) {
	listings := sampleListings()

	listings.RemoveByIndex(0)

	assert.Equal(t, []string{"4", "2", "3"}, ids(listings))
}

func TestListingsSortByScore(t *testing.T) {
	listings := sampleListings()

	listings.SortByScore()

	assert.Equal(t, []string{"3", "4", "1", "2"}, ids(listings))
}

func TestListingsReportByCompany(t *testing.T) {
	listings := sampleListings()
	listings.Items = append(listings.Items, &Listing{ID: "5", Title: "Anonymous"})

	report := listings.ReportByCompany()

	require.Len(t, report["Acme"], 1)
	assert.Equal(t, map[string]string{
		"title":     "Go Developer",
		"url":       "https://example.com/1",
		"location":  "",
		"posted":    "",
		"ats score": "42.00%",
	}, report["Acme"][0])

	assert.NotContains(t, report["Globex"][0], "ats score")
	assert.Equal(t, "timeout", report["Initech"][0]["error"])
	assert.Equal(t, "Anonymous", report["unknown company"][0]["title"])
}

func TestExcludedListingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	excluded, err := ExcludedFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, excluded.IDs())

	excluded.Append(sampleListings().ToExcluded())
	require.NoError(t, excluded.ToFile(path))

	// A shorter rewrite must not leave trailing bytes of the previous content.
	short := &ExcludedListings{Items: excluded.Items[:1]}
	require.NoError(t, short.ToFile(path))

	loaded, err := ExcludedFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, loaded.IDs())
	assert.Equal(t, "Acme", loaded.Items[0].Company)
	assert.False(t, loaded.Items[0].ExcludedAt.IsZero())
}

func TestExcludedFromFileErrors(t *testing.T) {
	_, err := ExcludedFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = ExcludedFromFile(path)
	assert.Error(t, err)
}

func TestDumpToTmpFile(t *testing.T) {
	listings := sampleListings()

	path, err := listings.DumpToTmpFile()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(path) })

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Listings
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ids(listings), ids(&decoded))
	assert.InDelta(t, 86.0, decoded.Items[2].ATS.Score, 1e-9)
}
