package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"commonsfetch/pkg/collector"
	"commonsfetch/pkg/logger"
	"commonsfetch/pkg/ui"
)

var searchLimit int

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Print download URLs matching a search term",
	Long: `Search Wikimedia Commons for <term> and print one accepted download URL per
line, without downloading anything. Progress marks go to stderr.`,
	Example: `  commonsfetch search lighthouse --limit 5
  commonsfetch search "red fox" --max-file-size 1000000 | xargs -n1 curl -O`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runSearch(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of URLs (default from config)")
	addSearchFlags(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	term := joinTerm(args)

	flags := commonFlags(cmd)
	if cmd.Flags().Changed("limit") {
		flags["limit"] = searchLimit
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newClient(cfg, log, progressObserver(cfg, os.Stderr, log))

	urls, err := collector.New(client, log).SearchImages(ctx, term, searchOptions(cfg))
	if cfg.Output.Progress {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		log.WithError(err).WithField("term", term).Error("Search failed")
		ui.PrintError("Search failed", err.Error())
		os.Exit(1)
	}

	for _, u := range urls {
		fmt.Fprintln(cmd.OutOrStdout(), u)
	}
}
