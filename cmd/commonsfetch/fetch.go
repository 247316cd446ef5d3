package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"commonsfetch/pkg/collector"
	"commonsfetch/pkg/fetcher"
	"commonsfetch/pkg/logger"
	"commonsfetch/pkg/ui"
)

var (
	// Fetch command flags
	fetchCount int
	outputDir  string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <term>",
	Short: "Download images matching a search term",
	Long: `Search Wikimedia Commons for <term> and download up to --count images.

Files are written to <output>/<term>/. Both directories are created if
missing, but the parent of <output> must already exist. A file with the same
name is overwritten. The first failed request or write stops the run; files
saved before it are kept.`,
	Example: `  # Download 20 lighthouse images into ./images/lighthouse
  commonsfetch fetch lighthouse -n 20

  # Only PNGs under 5 MB, into ./photos
  commonsfetch fetch "red fox" --mime-types image/png --max-file-size 5000000 -o photos`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runFetch(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVarP(&fetchCount, "count", "n", 0, "number of images to download (default from config)")
	fetchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "base output directory (default: images)")
	addSearchFlags(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) {
	term := joinTerm(args)

	flags := commonFlags(cmd)
	if cmd.Flags().Changed("count") {
		flags["limit"] = fetchCount
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	log := logger.GetLogger()
	log.WithField("version", version).Info("commonsfetch starting")

	if !quiet {
		ui.PrintInfo("Search term", term)
		ui.PrintInfo("Images", strconv.Itoa(cfg.Search.Limit))
		ui.PrintInfo("Output", cfg.Output.BaseDirectory)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observer := progressObserver(cfg, os.Stdout, log)
	client := newClient(cfg, log, observer)

	opts := fetcher.Options{
		BaseDirectory: cfg.Output.BaseDirectory,
		Search:        searchOptions(cfg),
	}
	f := fetcher.New(client, collector.New(client, log), opts, observer, log)

	result, err := f.Download(ctx, term, cfg.Search.Limit)
	if cfg.Output.Progress {
		fmt.Println()
	}
	if err != nil {
		ui.PrintError("Download failed", err.Error())
		if result != nil && len(result.Files) > 0 {
			ui.PrintInfo("Files kept", fmt.Sprintf("%d in %s", len(result.Files), result.Dir))
		}
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Saved %d of %d images to %s (%d bytes, %s)",
		len(result.Files), cfg.Search.Limit, result.Dir, result.Bytes, result.Duration.Round(time.Millisecond)))
}
