package main

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/config"
	"github.com/sells-group/prospector/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the job board and print candidates as JSON",
	Long: `Fetches the configured job board and prints the hiring companies it
lists. When the board is unreachable or yields nothing, a fixed sample list is
printed instead and "source" is "fallback".

Examples:
  scrape
  scrape --categories "customer success manager,onboarding" > candidates.json`,
	RunE: runScrape,
}

func init() {
	f := scrapeCmd.Flags()
	f.StringSlice("categories", nil, "role categories to keep (default from config)")
	f.String("url", "", "job board URL (default from config)")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if u, _ := cmd.Flags().GetString("url"); u != "" {
		cfg.Scrape.TargetURL = u
	}
	if err := cfg.Validate(config.ModeScrape); err != nil {
		return err
	}

	categories, _ := cmd.Flags().GetStringSlice("categories")
	if len(categories) == 0 {
		categories = cfg.Scrape.Categories
	}

	board, err := scrape.NewJobBoard(cfg.Scrape.TargetURL, scrape.WithTimeout(cfg.Scrape.Timeout()))
	if err != nil {
		return eris.Wrap(err, "scrape: job board")
	}

	res, err := board.Scrape(ctx, categories)
	if err != nil {
		return err
	}
	zap.L().Info("scrape complete", zap.String("source", res.Source), zap.Int("jobs", len(res.Jobs)))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"source":    res.Source,
		"count":     len(res.Jobs),
		"companies": res.Jobs,
	})
}
