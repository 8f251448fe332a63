package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var maxItems int

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one scrape over every registered site",
	Long:  "Runs the fetch, extract and upsert pipeline once and prints the run result as JSON.",
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().IntVar(&maxItems, "max-items", 0, "job cards to capture per site (default: DEFAULT_MAX_ITEMS)")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer a.Close()

	n := maxItems
	if n == 0 {
		n = cfg.DefaultMaxItems
	}

	result, err := a.scraper.Run(ctx, n)
	if err != nil {
		logger.Error("scrape run failed", "error", err)
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
