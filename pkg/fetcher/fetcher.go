package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"commonsfetch/pkg/collector"
	"commonsfetch/pkg/logger"
	"commonsfetch/pkg/storage"
	"commonsfetch/pkg/ui"

	"github.com/google/uuid"
)

// DefaultBaseDirectory is the root under which per-term folders are created
const DefaultBaseDirectory = "images"

// Downloader retrieves the bytes behind a URL
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// URLSource produces the URLs to download for a term
type URLSource interface {
	SearchImages(ctx context.Context, term string, opts collector.Options) ([]string, error)
}

// Options configures a Fetcher
type Options struct {
	BaseDirectory string
	// Search is passed to the URLSource; its Limit is replaced by the
	// count given to Download.
	Search collector.Options
}

// DefaultOptions returns options writing under DefaultBaseDirectory
func DefaultOptions() Options {
	return Options{
		BaseDirectory: DefaultBaseDirectory,
		Search:        collector.DefaultOptions(0),
	}
}

// Result describes one Download run. On failure it holds whatever was
// written before the error.
type Result struct {
	RunID    string
	Term     string
	Dir      string
	URLs     []string
	Files    []string
	Bytes    int64
	Duration time.Duration
}

// Fetcher downloads search results into <base>/<term>/, one file at a time
type Fetcher struct {
	client   Downloader
	source   URLSource
	opts     Options
	observer ui.Observer
	logger   logger.Logger
}

// New creates a Fetcher
func New(client Downloader, source URLSource, opts Options, observer ui.Observer, log logger.Logger) *Fetcher {
	if opts.BaseDirectory == "" {
		opts.BaseDirectory = DefaultBaseDirectory
	}
	if observer == nil {
		observer = ui.NopObserver{}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Fetcher{
		client:   client,
		source:   source,
		opts:     opts,
		observer: observer,
		logger:   log,
	}
}

// Download collects up to n URLs for term and saves each one. The first
// failure stops the run; files already written stay on disk.
func (f *Fetcher) Download(ctx context.Context, term string, n int) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID: uuid.New().String(),
		Term:  term,
	}
	defer func() { result.Duration = time.Since(start) }()

	log := f.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"term":   term,
	})

	manager, err := storage.NewManager(f.opts.BaseDirectory, term)
	if err != nil {
		log.WithError(err).Error("Failed to prepare output directory")
		return result, fmt.Errorf("prepare output directory: %w", err)
	}
	result.Dir = manager.Dir()

	opts := f.opts.Search
	opts.Limit = n
	urls, err := f.source.SearchImages(ctx, term, opts)
	if err != nil {
		log.WithError(err).Error("Search failed")
		return result, fmt.Errorf("search %q: %w", term, err)
	}
	result.URLs = urls

	log.InfoWithFields("Starting downloads", map[string]interface{}{
		"requested": n,
		"found":     len(urls),
		"dir":       result.Dir,
	})

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		path, size, err := f.fetchOne(ctx, manager, u)
		logger.LogDownload(log, term, u, path, int(size), err)
		if err != nil {
			return result, err
		}

		result.Files = append(result.Files, path)
		result.Bytes += size
		f.observer.Downloaded(u, path, int(size))
	}

	log.InfoWithFields("Downloads finished", map[string]interface{}{
		"files":    len(result.Files),
		"bytes":    result.Bytes,
		"duration": time.Since(start).String(),
	})
	return result, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, manager *storage.Manager, u string) (string, int64, error) {
	data, err := f.client.Download(ctx, u)
	if err != nil {
		return "", 0, fmt.Errorf("download %s: %w", u, err)
	}

	path, size, err := manager.Save(bytes.NewReader(data), storage.FilenameFromURL(u))
	if err != nil {
		return "", 0, fmt.Errorf("save %s: %w", u, err)
	}
	return path, size, nil
}
