package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/ai"
	"github.com/spigell/ats-scorer/internal/ai/gemini"
	lg "github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/resume"
	"github.com/spigell/ats-scorer/internal/secrets"
)

var extractCmd = &cobra.Command{
	Use:   "extract <resume>",
	Short: "Extract structured details from a resume with Gemini",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		extract(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Bool("text-only", false, "print the cleaned resume text and skip extraction")
}

func extract(cmd *cobra.Command, path string) {
	ctx := context.Background()
	logger, config := setup()

	text, err := resumeTextForAI(path)
	if err != nil {
		logger.Fatal("reading resume", zap.Error(err))
	}

	if textOnly, _ := cmd.Flags().GetBool("text-only"); textOnly {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return
	}

	extractor, err := newExtractor(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building resume extractor", zap.Error(err))
	}

	extraction, err := extractor.Extract(ctx, text)
	if err != nil {
		logger.Fatal("extracting resume details", zap.Error(err))
	}

	pretty, err := json.MarshalIndent(extraction.Details, "", "  ")
	if err != nil {
		logger.Fatal("encoding resume details", zap.Error(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}

// resumeTextForAI returns the cleaned page text of a PDF or the cleaned
// contents of any other file.
func resumeTextForAI(path string) (string, error) {
	if resume.IsPDF(path) {
		pages, err := resume.ExtractPages(path)
		if err != nil {
			return "", err
		}
		return resume.FullText(pages), nil
	}

	text, err := resume.ReadText(path)
	if err != nil {
		return "", err
	}
	return resume.CleanText(text), nil
}

func newExtractor(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Extractor, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.ProviderName {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (or set ai.gemini.api-key-file)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, gemini.Options{
		Model:      cfg.Gemini.Model,
		MaxRetries: cfg.Gemini.MaxRetries,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	extractorLogger := lg.WithCommonFields(logger, gemini.ProviderName, generator.Model())

	return gemini.NewExtractor(generator, extractorLogger, cfg.Gemini.MaxLogLength), nil
}
