package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/filtering"
	"github.com/spigell/ats-scorer/internal/history"
	"github.com/spigell/ats-scorer/internal/jobs"
	"github.com/spigell/ats-scorer/internal/resume"
)

const (
	PromptShow                = "Show listings"
	PromptReportByCompanies   = "Report by companies"
	PromptListingsToFile      = "Dump listings to file"
	PromptAppendToExcludeFile = "Append all listings to exclude file"
	PromptExit                = "Exit"
)

var errExit = errors.New("exit requested")

var searchCmd = &cobra.Command{
	Use:   "search <resume>",
	Short: "Search job listings matching the resume and rank them by ATS score",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		search(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolP("auto-approve", "y", false, "do not ask questions: take the first suggested title and print the results")
	searchCmd.Flags().StringP("title", "t", "", "job title to search for, skips resume extraction")
	searchCmd.Flags().StringP("location", "l", "", "search location, overrides search.location")
	searchCmd.Flags().Int("limit", 0, "maximum number of listings, overrides search.limit")
	searchCmd.Flags().Bool("include-seen", false, "keep listings already stored in history")
	searchCmd.Flags().StringP("exclude-file", "e", "", "special file with listings to exclude. Default is unset.")
}

func search(cmd *cobra.Command, resumePath string) {
	ctx := context.Background()
	logger, config := setup()

	if config.Search == nil {
		logger.Fatal("search configuration is required")
	}
	applySearchFlags(cmd, config.Search)

	autoApprove, _ := cmd.Flags().GetBool("auto-approve")

	resumeText, err := resume.ReadText(resumePath)
	if err != nil {
		logger.Fatal("reading resume", zap.Error(err))
	}

	title, _ := cmd.Flags().GetString("title")
	title = strings.TrimSpace(title)
	if title == "" {
		title, err = suggestTitle(ctx, config, resumePath, autoApprove, logger)
		if err != nil {
			logger.Fatal("choosing a job title", zap.Error(err))
		}
	}

	logger.Info("starting the search",
		zap.String("title", title),
		zap.String("location", config.Search.Location),
	)

	renderer := jobs.NewBrowserRenderer(config.Search.Timeout, config.Search.Headless, logger)
	searcher := jobs.NewSearcher(renderer, jobs.SearchOptions{
		URL:       config.Search.URL,
		Selectors: config.Search.Selectors,
		Limit:     config.Search.Limit,
		Logger:    logger,
	})

	listings, err := searcher.Search(ctx, jobs.Query{Keywords: title, Location: config.Search.Location})
	if err != nil {
		logger.Fatal("searching listings", zap.Error(err))
	}

	if listings.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no listings found"))
		return
	}

	scorer, err := newScorer(config.Scoring)
	if err != nil {
		logger.Fatal("building scorer", zap.Error(err))
	}

	deps := filtering.Deps{
		Logger:     logger,
		Scorer:     scorer,
		ResumeText: resumeText,
		Fetcher:    &jobs.HTTPFetcher{Client: jobs.NewHTTPClient()},
	}

	store, err := openHistory(config)
	if err != nil {
		logger.Warn("history is unavailable; seen listings are kept and scores are not saved", zap.Error(err))
	} else {
		defer store.Close()
		deps.History = store
	}

	steps := filtering.Default()
	if includeSeen, _ := cmd.Flags().GetBool("include-seen"); includeSeen {
		filtering.DisableByName(steps, filtering.SeenHistoryName, "include-seen flag is set")
	}

	listings, err = filtering.Run(ctx, filterConfig(config.Search), deps, steps, listings)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if store != nil {
		saveListings(ctx, store, filepath.Base(resumePath), listings, logger)
	}

	if listings.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no listings left after filters"))
		return
	}

	if autoApprove {
		printListings(cmd.OutOrStdout(), listings)
		return
	}

	prompt := promptui.Select{
		Label: "What next?",
		Items: []string{PromptShow, PromptReportByCompanies, PromptListingsToFile, PromptAppendToExcludeFile, PromptExit},
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of listings", zap.Int("count", listings.Len()))

		if err := handleAction(cmd.OutOrStdout(), action, logger, config.Search.ExcludeFile, listings); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(w io.Writer, action string, logger *zap.Logger, excludeFile string, listings *jobs.Listings) error {
	switch action {
	case PromptShow:
		printListings(w, listings)
		return nil
	case PromptReportByCompanies:
		pretty, _ := json.MarshalIndent(listings.ReportByCompany(), "", "  ")
		fmt.Fprintln(w, string(pretty))
		return nil
	case PromptListingsToFile:
		filename, err := listings.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return appendToExcludeFile(excludeFile, listings, logger)
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// appendToExcludeFile stores all listings in the exclude file and empties the list.
func appendToExcludeFile(excludeFile string, listings *jobs.Listings, logger *zap.Logger) error {
	if strings.TrimSpace(excludeFile) == "" {
		return errors.New("exclude file is not configured, set search.exclude-file or --exclude-file")
	}

	excluded, err := jobs.ExcludedFromFile(excludeFile)
	if errors.Is(err, fs.ErrNotExist) {
		excluded, err = &jobs.ExcludedListings{}, nil
	}
	if err != nil {
		return err
	}

	excluded.Append(listings.ToExcluded())

	if err := excluded.ToFile(excludeFile); err != nil {
		return err
	}

	logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", listings.Len()))

	listings.Exclude(jobs.ListingIDField, excluded.IDs())
	return nil
}

// suggestTitle extracts job titles from the resume and picks one, asking the
// user unless autoApprove is set.
func suggestTitle(ctx context.Context, config *Config, resumePath string, autoApprove bool, logger *zap.Logger) (string, error) {
	text, err := resumeTextForAI(resumePath)
	if err != nil {
		return "", fmt.Errorf("reading resume: %w", err)
	}

	extractor, err := newExtractor(ctx, config.AI, logger)
	if err != nil {
		return "", fmt.Errorf("building resume extractor: %w", err)
	}

	extraction, err := extractor.Extract(ctx, text)
	if err != nil {
		return "", err
	}

	titles := extraction.Details.JobTitles()
	if len(titles) == 0 {
		return "", errors.New("no job titles suggested for the resume, pass --title")
	}

	logger.Info("suggested job titles", zap.Strings("titles", titles))

	if autoApprove {
		return titles[0], nil
	}

	titlePrompt := promptui.Select{
		Label: "Choose a job title to search for",
		Items: titles,
	}
	_, title, err := titlePrompt.Run()
	return title, err
}

func applySearchFlags(cmd *cobra.Command, cfg *SearchConfig) {
	if location, _ := cmd.Flags().GetString("location"); strings.TrimSpace(location) != "" {
		cfg.Location = location
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		cfg.Limit = limit
	}
	if excludeFile, _ := cmd.Flags().GetString("exclude-file"); strings.TrimSpace(excludeFile) != "" {
		cfg.ExcludeFile = excludeFile
	}
}

func filterConfig(cfg *SearchConfig) *filtering.Config {
	fc := &filtering.Config{
		ExcludeFile:      cfg.ExcludeFile,
		MinimumATSScore:  cfg.MinimumATSScore,
		FetchConcurrency: cfg.FetchConcurrency,
	}
	if cfg.Exclude != nil {
		fc.Companies = cfg.Exclude.Companies
	}
	return fc
}

// saveListings stores every scored listing so later searches can skip it.
func saveListings(ctx context.Context, store *history.Store, resumeName string, listings *jobs.Listings, logger *zap.Logger) {
	saved := 0
	for _, listing := range listings.Items {
		if listing.ATS == nil || listing.URL == "" {
			continue
		}
		err := store.Save(ctx, history.Record{
			Source:       listing.URL,
			Resume:       resumeName,
			Title:        listing.Title,
			Company:      listing.Company,
			Score:        listing.ATS.Score,
			KeywordScore: listing.ATS.KeywordScore,
			FormatScore:  listing.ATS.FormatScore,
			Friendly:     listing.ATS.Friendly,
			Missing:      listing.ATS.Missing,
		})
		if err != nil {
			logger.Warn("saving listing to history", zap.String("listing_id", listing.ID), zap.Error(err))
			continue
		}
		saved++
	}
	logger.Debug("listings saved to history", zap.Int("count", saved))
}
