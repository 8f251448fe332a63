package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the registered job listing pages",
	Long:  "Prints the site registry (SITES_FILE or the built-in list) in processing order.",
	RunE:  runSites,
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

func runSites(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return err
	}
	sites, err := cfg.Sites()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load sites: %v\n", err)
		return err
	}

	fmt.Printf("%-30s %-12s %s\n", "Site", "Source", "Selector")
	fmt.Println(strings.Repeat("─", 80))
	for _, s := range sites {
		fmt.Printf("%-30s %-12s %s\n", s.Label(), s.Source, s.Selector)
	}
	fmt.Printf("\nTotal: %d sites\n", len(sites))
	return nil
}
