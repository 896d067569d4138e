package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spigell/ats-scorer/internal/ats"
)

const (
	ListingIDField      = "ID"
	ListingCompanyField = "Company"
	ListingURLField     = "URL"
)

type Listings struct {
	Items []*Listing
}

// Listing is a single job posting found by a search or given by the user.
type Listing struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	Location    string `json:"location,omitempty"`
	URL         string `json:"url,omitempty"`
	PostedAt    string `json:"posted_at,omitempty"`
	Description string `json:"description,omitempty"`

	ATS        *ats.Result `json:"ats,omitempty"`
	FetchError string      `json:"fetch_error,omitempty"`
}

type ExcludedListings struct {
	Items []*ExcludedListing
}

type ExcludedListing struct {
	ID         string
	URL        string
	Company    string
	ExcludedAt time.Time
}

func (l *Listings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "listings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (l *Listings) ToExcluded() *ExcludedListings {
	excluded := &ExcludedListings{}
	now := time.Now().UTC()
	for _, listing := range l.Items {
		excluded.Items = append(excluded.Items, &ExcludedListing{
			ID:         listing.ID,
			URL:        listing.URL,
			Company:    listing.Company,
			ExcludedAt: now,
		})
	}
	return excluded
}

// ExcludedFromFile reads an exclude file. An empty file holds no listings.
func ExcludedFromFile(path string) (*ExcludedListings, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedListings{}, nil
	}

	var excluded ExcludedListings
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, fmt.Errorf("decoding exclude file %q: %w", path, err)
	}
	return &excluded, nil
}

func (e *ExcludedListings) Append(s *ExcludedListings) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedListings) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, listing := range e.Items {
		ids = append(ids, listing.ID)
	}
	return ids
}

func (e *ExcludedListings) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

func (li *Listing) GetStringField(name string) string {
	switch name {
	case ListingIDField:
		return li.ID
	case ListingCompanyField:
		return li.Company
	case ListingURLField:
		return li.URL
	default:
		return ""
	}
}

// Score returns the ATS score or -1 when the listing was not scored.
func (li *Listing) Score() float64 {
	if li.ATS == nil {
		return -1
	}
	return li.ATS.Score
}

// ReportByCompany groups listings by company for display.
func (l *Listings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, listing := range l.Items {
		key := listing.Company
		if key == "" {
			key = "unknown company"
		}

		entry := map[string]string{
			"title":    listing.Title,
			"url":      listing.URL,
			"location": listing.Location,
			"posted":   listing.PostedAt,
		}
		if listing.ATS != nil {
			entry["ats score"] = fmt.Sprintf("%.2f%%", listing.ATS.Score)
		}
		if listing.FetchError != "" {
			entry["error"] = listing.FetchError
		}
		report[key] = append(report[key], entry)
	}
	return report
}

func (l *Listings) Len() int {
	return len(l.Items)
}

func (l *Listings) FindByID(id string) *Listing {
	for _, listing := range l.Items {
		if listing.ID == id {
			return listing
		}
	}
	return nil
}

// Exclude removes every listing whose field matches one of targets, ignoring
// case, and returns the IDs of the removed listings. Order is preserved.
func (l *Listings) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	lookup := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		lookup[strings.ToLower(strings.TrimSpace(target))] = struct{}{}
	}

	var excluded []string
	kept := l.Items[:0]
	for _, listing := range l.Items {
		if _, ok := lookup[strings.ToLower(strings.TrimSpace(listing.GetStringField(name)))]; ok {
			excluded = append(excluded, listing.ID)
			continue
		}
		kept = append(kept, listing)
	}
	clear(l.Items[len(kept):])
	l.Items = kept

	return excluded
}

// RemoveByIndex remove listing from list by index. Do not preserve order.
func (l *Listings) RemoveByIndex(idx int) {
	l.Items[idx] = l.Items[len(l.Items)-1]
	l.Items = l.Items[:len(l.Items)-1]
}

// SortByScore orders listings by ATS score, best first. Unscored listings go last.
func (l *Listings) SortByScore() {
	sort.SliceStable(l.Items, func(i, j int) bool {
		return l.Items[i].Score() > l.Items[j].Score()
	})
}
