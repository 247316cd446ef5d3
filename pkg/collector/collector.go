package collector

import (
	"context"
	"fmt"

	"commonsfetch/pkg/logger"
	"commonsfetch/pkg/mediawiki"
)

// DefaultMaxSize is the size ceiling, in bytes, applied when none is given
const DefaultMaxSize int64 = 80000000

// Client defines the MediaWiki operations the collector depends on
type Client interface {
	Search(ctx context.Context, term string, limit int, cont mediawiki.Continue) (*mediawiki.SearchResponse, error)
	ImageInfo(ctx context.Context, title string) (*mediawiki.ImageInfo, error)
}

// Filter decides which image-info records make it into the result list
type Filter struct {
	MaxSize   int64
	MIMETypes []string
}

// DefaultFilter accepts PNG and JPEG files up to DefaultMaxSize
func DefaultFilter() Filter {
	return Filter{
		MaxSize:   DefaultMaxSize,
		MIMETypes: []string{"image/png", "image/jpeg"},
	}
}

// Accepts reports whether info passes the MIME and size checks
func (f Filter) Accepts(info *mediawiki.ImageInfo) bool {
	if info == nil || info.Size > f.MaxSize {
		return false
	}
	for _, m := range f.MIMETypes {
		if info.Mime == m {
			return true
		}
	}
	return false
}

// Options controls a single search
type Options struct {
	Limit  int
	Filter Filter
	// FollowContinuation threads the API's continue token into the next
	// page request. When false the first-page query is re-issued, which can
	// return the same hits again.
	FollowContinuation bool
}

// DefaultOptions returns options for n results with the default filter
func DefaultOptions(n int) Options {
	return Options{
		Limit:              n,
		Filter:             DefaultFilter(),
		FollowContinuation: true,
	}
}

// Collector pages through search results and keeps the URLs that pass the filter
type Collector struct {
	client Client
	logger logger.Logger
}

// New creates a collector backed by client
func New(client Client, log logger.Logger) *Collector {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Collector{client: client, logger: log}
}

// SearchImages returns up to opts.Limit download URLs for term, in hit order
func (c *Collector) SearchImages(ctx context.Context, term string, opts Options) ([]string, error) {
	results := make([]string, 0, max(opts.Limit, 0))
	remaining := opts.Limit
	var cont mediawiki.Continue
	page := 0

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		page++

		resp, err := c.client.Search(ctx, term, min(remaining, mediawiki.MaxSearchLimit), cont)
		if err != nil {
			return results, fmt.Errorf("search page %d for %q: %w", page, term, err)
		}

		hits := resp.Query.Search
		if len(hits) == 0 {
			c.logger.DebugWithFields("No more search hits", map[string]interface{}{
				"term": term,
				"page": page,
			})
			break
		}

		accepted := 0
		for _, hit := range hits {
			if remaining == 0 {
				break
			}

			info, err := c.client.ImageInfo(ctx, hit.Title)
			if err != nil {
				return results, fmt.Errorf("image info for %q: %w", hit.Title, err)
			}

			if !opts.Filter.Accepts(info) {
				c.logger.DebugWithFields("Rejected by filter", map[string]interface{}{
					"title": hit.Title,
					"mime":  info.Mime,
					"size":  info.Size,
				})
				continue
			}

			results = append(results, info.URL)
			accepted++
			remaining--
		}

		c.logger.DebugWithFields("Search page processed", map[string]interface{}{
			"term":      term,
			"page":      page,
			"hits":      len(hits),
			"accepted":  accepted,
			"remaining": remaining,
		})

		if opts.FollowContinuation {
			if len(resp.Continue) == 0 {
				break
			}
			cont = resp.Continue
		} else if accepted == 0 {
			// the same query comes back every time, so a page with nothing new ends the run
			break
		}
	}

	return results, nil
}
