package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/justsurfingit/jobboard/internal/config"
	"github.com/justsurfingit/jobboard/internal/database"
	"github.com/justsurfingit/jobboard/internal/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	envFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobboard",
	Short: "Job board aggregator API",
	Long:  "Scrapes job listing pages with a real browser, extracts postings with an LLM and serves them over HTTP.",
	// Default to `serve` so running the binary with no args starts the API
	RunE:         runServe,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// loadConfig reads the dotenv file if present, then the environment.
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
			logger.Debug("no env file, using process environment", "path", envFile)
		}
	}
	return config.Load()
}

// app holds the wired services shared by the subcommands.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	jobs    *services.JobService
	scraper *services.ScraperService
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg}

	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.db = db
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	sites, err := cfg.Sites()
	if err != nil {
		a.Close()
		return nil, err
	}

	fetcher, err := services.NewPageFetcher(cfg.Browser, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	// A missing key is not fatal: the read endpoints still work and runs
	// fail with a run-level error.
	var extractor services.Extractor
	llm, err := services.NewLLMService(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Warn("extraction disabled", "error", err)
	} else {
		extractor = llm
	}

	var status services.StatusStore = services.NewMemoryStatusStore()
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		status = services.NewRedisStatusStore(rdb, services.DefaultStatusKey)
		logger.Info("run status stored in redis")
	}

	a.jobs = services.NewJobService(db, logger)
	a.scraper = services.NewScraperService(sites, fetcher, extractor, a.jobs, status, logger)
	return a, nil
}
