package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const DefaultSearchURL = "https://www.linkedin.com/jobs/search?keywords={{keywords}}&location={{location}}"

// Selectors locate listing fields inside a rendered search page.
type Selectors struct {
	Card     string `mapstructure:"card"`
	Title    string `mapstructure:"title"`
	Company  string `mapstructure:"company"`
	Location string `mapstructure:"location"`
	Link     string `mapstructure:"link"`
	Posted   string `mapstructure:"posted"`
	// IDAttr is read from the card; when empty or absent the ID is taken from the link.
	IDAttr string `mapstructure:"id-attr"`
}

// DefaultSelectors match the LinkedIn guest job search page.
func DefaultSelectors() Selectors {
	return Selectors{
		Card:     "div.base-card, div.job-search-card",
		Title:    ".base-search-card__title",
		Company:  ".base-search-card__subtitle",
		Location: ".job-search-card__location",
		Link:     "a.base-card__full-link",
		Posted:   "time",
		IDAttr:   "data-entity-urn",
	}
}

func (s Selectors) withDefaults() Selectors {
	def := DefaultSelectors()
	if s.Card == "" {
		s.Card = def.Card
	}
	if s.Title == "" {
		s.Title = def.Title
	}
	if s.Company == "" {
		s.Company = def.Company
	}
	if s.Location == "" {
		s.Location = def.Location
	}
	if s.Link == "" {
		s.Link = def.Link
	}
	if s.Posted == "" {
		s.Posted = def.Posted
	}
	if s.IDAttr == "" {
		s.IDAttr = def.IDAttr
	}
	return s
}

type Query struct {
	Keywords string
	Location string
}

// Searcher finds job listings by rendering a search results page.
type Searcher struct {
	renderer  Renderer
	urlTmpl   string
	selectors Selectors
	limit     int
	logger    *zap.Logger
}

type SearchOptions struct {
	URL       string
	Selectors Selectors
	Limit     int
	Logger    *zap.Logger
}

func NewSearcher(renderer Renderer, opts SearchOptions) *Searcher {
	tmpl := strings.TrimSpace(opts.URL)
	if tmpl == "" {
		tmpl = DefaultSearchURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		renderer:  renderer,
		urlTmpl:   tmpl,
		selectors: opts.Selectors.withDefaults(),
		limit:     opts.Limit,
		logger:    logger,
	}
}

// SearchURL fills the URL template with the escaped query.
func (s *Searcher) SearchURL(q Query) string {
	return strings.NewReplacer(
		"{{keywords}}", url.QueryEscape(strings.TrimSpace(q.Keywords)),
		"{{location}}", url.QueryEscape(strings.TrimSpace(q.Location)),
	).Replace(s.urlTmpl)
}

func (s *Searcher) Search(ctx context.Context, q Query) (*Listings, error) {
	if strings.TrimSpace(q.Keywords) == "" {
		return nil, errors.New("search keywords are required")
	}

	searchURL := s.SearchURL(q)
	s.logger.Info("searching listings", zap.String("url", searchURL))

	html, err := s.renderer.Render(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	listings, err := ParseListings(html, s.selectors, s.limit)
	if err != nil {
		return nil, err
	}

	s.logger.Info("listings found", zap.Int("count", listings.Len()))

	return listings, nil
}

var numericID = regexp.MustCompile(`(\d{6,})`)

// ParseListings reads listing cards from a search page. Listings without a
// title or link are skipped and duplicates by ID are dropped. A positive limit
// caps the number of listings returned.
func ParseListings(html string, selectors Selectors, limit int) (*Listings, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing search page: %w", err)
	}

	selectors = selectors.withDefaults()
	listings := &Listings{}
	seen := make(map[string]struct{})

	doc.Find(selectors.Card).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		listing := parseCard(card, selectors)
		if listing == nil {
			return true
		}
		if _, ok := seen[listing.ID]; ok {
			return true
		}
		seen[listing.ID] = struct{}{}
		listings.Items = append(listings.Items, listing)

		return limit <= 0 || listings.Len() < limit
	})

	return listings, nil
}

func parseCard(card *goquery.Selection, selectors Selectors) *Listing {
	title := collapse(card.Find(selectors.Title).First().Text())
	link, _ := card.Find(selectors.Link).First().Attr("href")
	link = canonicalURL(link)
	if title == "" || link == "" {
		return nil
	}

	listing := &Listing{
		Title:    title,
		Company:  collapse(card.Find(selectors.Company).First().Text()),
		Location: collapse(card.Find(selectors.Location).First().Text()),
		URL:      link,
	}

	posted := card.Find(selectors.Posted).First()
	if datetime, ok := posted.Attr("datetime"); ok {
		listing.PostedAt = strings.TrimSpace(datetime)
	} else {
		listing.PostedAt = collapse(posted.Text())
	}

	if urn, ok := card.Attr(selectors.IDAttr); ok {
		if m := numericID.FindString(urn); m != "" {
			listing.ID = m
		}
	}
	if listing.ID == "" {
		if m := numericID.FindString(link); m != "" {
			listing.ID = m
		} else {
			listing.ID = link
		}
	}

	return listing
}

// canonicalURL drops the query string and fragment, which carry tracking parameters.
func canonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
