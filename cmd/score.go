package cmd

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/ats-scorer/internal/ats"
	"github.com/spigell/ats-scorer/internal/history"
	"github.com/spigell/ats-scorer/internal/jobs"
	lg "github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/resume"
)

const maxParallelJobLoads = 4

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a resume against one or more job descriptions",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("resume", "r", "", "resume file, PDF or plain text")
	scoreCmd.Flags().StringArray("job", nil, "job description: a file, an http(s) URL or - for stdin. Can be repeated")
	scoreCmd.Flags().Bool("details", false, "print the keyword and format breakdown")
	scoreCmd.Flags().Bool("no-history", false, "do not save scores to history")

	scoreCmd.MarkFlagRequired("resume")
	scoreCmd.MarkFlagRequired("job")
}

type scoredJob struct {
	source string
	result ats.Result
}

func score(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	resumePath, _ := cmd.Flags().GetString("resume")
	sources, _ := cmd.Flags().GetStringArray("job")
	details, _ := cmd.Flags().GetBool("details")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	resumeText, err := resume.ReadText(resumePath)
	if err != nil {
		logger.Fatal("reading resume", zap.Error(err))
	}

	scorer, err := newScorer(config.Scoring)
	if err != nil {
		logger.Fatal("building scorer", zap.Error(err))
	}

	descriptions, err := loadDescriptions(ctx, jobs.NewHTTPClient(), sources)
	if err != nil {
		logger.Fatal("loading job descriptions", zap.Error(err))
	}

	results := make([]scoredJob, 0, len(sources))
	for i, source := range sources {
		result := scorer.Score(resumeText, descriptions[i])
		lg.WithScoringFields(logger, resumePath, source).Debug("scored",
			zap.Float64("ats_score", result.Score),
			zap.Float64("keyword_score", result.KeywordScore),
			zap.Bool("friendly", result.Friendly),
		)
		results = append(results, scoredJob{source: source, result: result})
		printScore(cmd.OutOrStdout(), source, result, details)
	}

	if noHistory {
		return
	}

	store, err := openHistory(config)
	if err != nil {
		logger.Warn("scores are not saved", zap.Error(err))
		return
	}
	defer store.Close()

	resumeName := filepath.Base(resumePath)
	for _, r := range results {
		record := history.Record{
			Source:       r.source,
			Resume:       resumeName,
			Score:        r.result.Score,
			KeywordScore: r.result.KeywordScore,
			FormatScore:  r.result.FormatScore,
			Friendly:     r.result.Friendly,
			Missing:      r.result.Missing,
		}
		if err := store.Save(ctx, record); err != nil {
			logger.Warn("saving score to history", zap.String("source", r.source), zap.Error(err))
		}
	}
}

// loadDescriptions loads every source in parallel and keeps their order.
// Standard input can be read only once, so "-" may appear once and is loaded
// before the others.
func loadDescriptions(ctx context.Context, client *http.Client, sources []string) ([]string, error) {
	descriptions := make([]string, len(sources))

	stdinIdx := -1
	for i, source := range sources {
		if strings.TrimSpace(source) != jobs.StdinSource {
			continue
		}
		if stdinIdx >= 0 {
			return nil, errors.New("standard input (-) can be given as a job only once")
		}
		stdinIdx = i
	}

	if stdinIdx >= 0 {
		text, err := jobs.LoadDescription(ctx, client, jobs.StdinSource)
		if err != nil {
			return nil, err
		}
		descriptions[stdinIdx] = text
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelJobLoads)

	for i, source := range sources {
		if i == stdinIdx {
			continue
		}
		g.Go(func() error {
			text, err := jobs.LoadDescription(gCtx, client, source)
			if err != nil {
				return err
			}
			descriptions[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return descriptions, nil
}
