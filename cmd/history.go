package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored scores, newest first",
	Run: func(cmd *cobra.Command, _ []string) {
		showHistory(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Float64("min-score", 0, "show only scores at or above this value")
	historyCmd.Flags().Int("limit", 20, "maximum number of rows, 0 shows all")
}

func showHistory(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	store, err := openHistory(config)
	if err != nil {
		logger.Fatal("opening history", zap.Error(err))
	}
	defer store.Close()

	minScore, _ := cmd.Flags().GetFloat64("min-score")
	limit, _ := cmd.Flags().GetInt("limit")

	records, err := store.List(ctx, history.Query{MinScore: minScore, Limit: limit})
	if err != nil {
		logger.Fatal("listing history", zap.Error(err))
	}

	printHistory(cmd.OutOrStdout(), records)
}

func openHistory(config *Config) (*history.Store, error) {
	path := ""
	if config != nil && config.History != nil {
		path = config.History.Path
	}
	return history.Open(path)
}
