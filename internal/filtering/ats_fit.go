package filtering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/ats-scorer/internal/ats"
	"github.com/spigell/ats-scorer/internal/jobs"
)

const (
	ATSFitName = "ats_fit"

	defaultFetchConcurrency = 4
)

type atsFitFilter struct {
	toggle
	minimum     float64
	concurrency int
}

// NewATSFit creates the step that scores every listing against the resume and
// drops listings below the configured minimum score.
func NewATSFit() Filter {
	return &atsFitFilter{}
}

func (f *atsFitFilter) Name() string { return ATSFitName }

func (f *atsFitFilter) Validate(cfg *Config) error {
	f.minimum = 0
	f.concurrency = defaultFetchConcurrency
	if cfg == nil {
		return nil
	}
	if cfg.MinimumATSScore < 0 || cfg.MinimumATSScore > ats.MaxScore {
		return fmt.Errorf("minimum ats score must be within [0, %v], got %v", ats.MaxScore, cfg.MinimumATSScore)
	}
	if cfg.FetchConcurrency < 0 {
		return fmt.Errorf("fetch concurrency must not be negative, got %d", cfg.FetchConcurrency)
	}
	f.minimum = cfg.MinimumATSScore
	if cfg.FetchConcurrency > 0 {
		f.concurrency = cfg.FetchConcurrency
	}
	return nil
}

func (f *atsFitFilter) Apply(ctx context.Context, deps Deps, l *jobs.Listings) (*jobs.Listings, Step, error) {
	initial := l.Len()
	if strings.TrimSpace(deps.ResumeText) == "" {
		return l, Step{}, errors.New("resume text is required for ats scoring")
	}

	scorer := deps.Scorer
	if scorer == nil {
		var err error
		if scorer, err = ats.NewScorer(); err != nil {
			return l, Step{}, err
		}
	}

	if err := f.fetchDescriptions(ctx, deps, l); err != nil {
		return l, Step{}, err
	}

	kept := make([]*jobs.Listing, 0, initial)
	for _, listing := range l.Items {
		if listing.Description == "" {
			deps.Logger.Warn("listing has no description; keeping it unscored",
				zap.String("listing_id", listing.ID),
				zap.String("error", listing.FetchError),
			)
			kept = append(kept, listing)
			continue
		}

		result := scorer.Score(deps.ResumeText, listing.Description)
		listing.ATS = &result

		if result.Score < f.minimum {
			deps.Logger.Info("listing rejected by ats score",
				zap.String("listing_id", listing.ID),
				zap.Float64("ats_score", result.Score),
				zap.Float64("threshold", f.minimum),
			)
			continue
		}

		deps.Logger.Debug("listing scored",
			zap.String("listing_id", listing.ID),
			zap.Float64("ats_score", result.Score),
			zap.Float64("keyword_score", result.KeywordScore),
			zap.Bool("friendly", result.Friendly),
		)
		kept = append(kept, listing)
	}

	l.Items = kept
	l.SortByScore()

	return l, Step{Initial: initial, Dropped: initial - l.Len(), Left: l.Len()}, nil
}

// fetchDescriptions fills missing descriptions in parallel. A failed fetch is
// recorded on the listing and does not fail the step.
func (f *atsFitFilter) fetchDescriptions(ctx context.Context, deps Deps, l *jobs.Listings) error {
	if deps.Fetcher == nil {
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for _, listing := range l.Items {
		if listing.Description != "" || listing.URL == "" {
			continue
		}

		g.Go(func() error {
			description, err := deps.Fetcher.Fetch(gCtx, listing.URL)
			if err != nil {
				listing.FetchError = err.Error()
				deps.Logger.Warn("fetching listing description failed",
					zap.String("listing_id", listing.ID),
					zap.Error(err),
				)
				return nil
			}
			listing.Description = description
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (f *atsFitFilter) Status() Status {
	details := map[string]string{
		"minimum_ats_score": fmt.Sprintf("%.2f", f.minimum),
		"fetch_concurrency": strconv.Itoa(f.concurrency),
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
