package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/ats"
	"github.com/spigell/ats-scorer/internal/jobs"
	"github.com/spigell/ats-scorer/internal/logger"
)

const (
	app = "ats-scorer"
)

type Config struct {
	Scoring *ScoringConfig `mapstructure:"scoring"`
	AI      *AIConfig      `mapstructure:"ai"`
	Search  *SearchConfig  `mapstructure:"search"`
	History *HistoryConfig `mapstructure:"history"`
}

type ScoringConfig struct {
	KeywordWeight float64 `mapstructure:"keyword-weight" validate:"gte=0,lte=1"`
	FormatWeight  float64 `mapstructure:"format-weight" validate:"gte=0,lte=1"`
	StopWordsFile string  `mapstructure:"stop-words-file"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
}

type SearchConfig struct {
	URL              string         `mapstructure:"url"`
	Location         string         `mapstructure:"location"`
	Limit            int            `mapstructure:"limit" validate:"gte=0"`
	Timeout          time.Duration  `mapstructure:"timeout" validate:"gte=0"`
	Headless         bool           `mapstructure:"headless"`
	ExcludeFile      string         `mapstructure:"exclude-file"`
	MinimumATSScore  float64        `mapstructure:"minimum-ats-score" validate:"gte=0,lte=100"`
	FetchConcurrency int            `mapstructure:"fetch-concurrency" validate:"gte=0"`
	Selectors        jobs.Selectors `mapstructure:"selectors"`
	Exclude          *struct {
		Companies []string `mapstructure:"companies"`
	} `mapstructure:"exclude"`
}

type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ats-scorer estimates how an applicant tracking system would rank a resume against job descriptions",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ats-scorer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scoring.keyword-weight", ats.DefaultKeywordWeight)
	v.SetDefault("scoring.format-weight", ats.DefaultFormatWeight)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("search.url", jobs.DefaultSearchURL)
	v.SetDefault("search.location", "Pune, Maharashtra, India")
	v.SetDefault("search.limit", 25)
	v.SetDefault("search.timeout", "60s")
	v.SetDefault("search.headless", true)
	v.SetDefault("history.path", "")
}

func initConfig() {
	// A missing .env file is fine, the key may come from the environment or the config.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every key has a default, so only an explicit or broken config file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return config, nil
}

// setup builds the logger and the config shared by all commands.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting with config", zap.Any("config", config))

	return logger, config
}

// newScorer builds the scorer from the scoring section.
func newScorer(cfg *ScoringConfig) (*ats.Scorer, error) {
	if cfg == nil {
		return ats.NewScorer()
	}

	opts := []ats.Option{ats.WithWeights(ats.Weights{Keyword: cfg.KeywordWeight, Format: cfg.FormatWeight})}

	if path := strings.TrimSpace(cfg.StopWordsFile); path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening stop words file: %w", err)
		}
		defer file.Close()

		words, err := ats.LoadStopWords(file)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ats.WithTokenizer(ats.NewTokenizer(words)))
	}

	return ats.NewScorer(opts...)
}
