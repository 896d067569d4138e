package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/jobs"
)

const SeenHistoryName = "seen_history"

type seenHistoryFilter struct {
	toggle
}

// NewSeenHistory creates a filter that removes listings already scored in an earlier run.
func NewSeenHistory() Filter {
	return &seenHistoryFilter{}
}

func (f *seenHistoryFilter) Name() string { return SeenHistoryName }

func (f *seenHistoryFilter) Validate(*Config) error { return nil }

func (f *seenHistoryFilter) Apply(ctx context.Context, deps Deps, l *jobs.Listings) (*jobs.Listings, Step, error) {
	initial := l.Len()
	if deps.History == nil {
		deps.Logger.Info("history store is not configured; skipping seen_history filter")
		return l, Step{Initial: initial, Dropped: 0, Left: l.Len()}, nil
	}

	urls := make([]string, 0, l.Len())
	for _, listing := range l.Items {
		if listing.URL != "" {
			urls = append(urls, listing.URL)
		}
	}

	seen, err := deps.History.Seen(ctx, urls)
	if err != nil {
		return l, Step{}, fmt.Errorf("checking history: %w", err)
	}

	targets := make([]string, 0, len(seen))
	for url, ok := range seen {
		if ok {
			targets = append(targets, url)
		}
	}

	excluded := l.Exclude(jobs.ListingURLField, targets)
	if len(excluded) > 0 {
		deps.Logger.Info("excluding listings scored before",
			zap.Strings("excluded_listings", excluded),
			zap.Int("listings_left", l.Len()),
		)
	}

	return l, Step{Initial: initial, Dropped: len(excluded), Left: l.Len()}, nil
}

func (f *seenHistoryFilter) Status() Status {
	details := map[string]string{
		"exclude_seen": strconv.FormatBool(f.IsEnabled()),
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
