package main

import (
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"commonsfetch/pkg/collector"
	"commonsfetch/pkg/config"
	"commonsfetch/pkg/logger"
	"commonsfetch/pkg/mediawiki"
	"commonsfetch/pkg/ui"
)

// search flags shared by fetch and search
var (
	endpoint       string
	userAgent      string
	timeout        time.Duration
	maxFileSize    int64
	mimeTypes      []string
	noContinuation bool
)

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "MediaWiki api.php endpoint (default: Wikimedia Commons)")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent sent with every request")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request timeout, 0 for none")
	cmd.Flags().Int64Var(&maxFileSize, "max-file-size", config.DefaultMaxFileSize, "largest accepted file, in bytes")
	cmd.Flags().StringSliceVar(&mimeTypes, "mime-types", config.DefaultMIMETypes, "accepted MIME types")
	cmd.Flags().BoolVar(&noContinuation, "no-continuation", false, "re-issue the first search page instead of following the continue token")
}

// commonFlags collects the flags the user actually set, keyed the way
// config.MergeCommandLineFlags expects
func commonFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if changed("endpoint") {
		flags["endpoint"] = endpoint
	}
	if changed("user-agent") {
		flags["user-agent"] = userAgent
	}
	if changed("timeout") {
		flags["timeout"] = timeout
	}
	if changed("max-file-size") {
		flags["max-file-size"] = maxFileSize
	}
	if changed("mime-types") {
		flags["mime-types"] = mimeTypes
	}
	if changed("no-continuation") {
		flags["follow-continuation"] = !noContinuation
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if quiet {
		flags["progress"] = false
	}
	return flags
}

// loadConfig loads configuration and initializes the global logger
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// progressObserver returns the progress hook for a run: console marks on w
// unless disabled, plus debug log entries
func progressObserver(cfg *config.Config, w io.Writer, log logger.Logger) ui.Observer {
	observers := ui.MultiObserver{ui.NewLogObserver(log)}
	if cfg.Output.Progress {
		observers = append(observers, ui.NewConsoleObserver(w))
	}
	return observers
}

func newClient(cfg *config.Config, log logger.Logger, observer ui.Observer) *mediawiki.Client {
	client := mediawiki.NewClient(cfg.API.Timeout, log)
	client.SetBaseURL(cfg.API.Endpoint)
	client.SetHeader("User-Agent", cfg.API.UserAgent)
	client.SetObserver(observer)
	return client
}

func searchOptions(cfg *config.Config) collector.Options {
	return collector.Options{
		Limit: cfg.Search.Limit,
		Filter: collector.Filter{
			MaxSize:   cfg.Search.MaxFileSize,
			MIMETypes: cfg.Search.MIMETypes,
		},
		FollowContinuation: cfg.Search.FollowContinuation,
	}
}

func joinTerm(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
