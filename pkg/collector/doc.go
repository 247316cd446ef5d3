// Package collector turns a search term into an ordered list of image URLs.
//
// Each search page costs one API call, and every hit on it costs one more for
// its image info. Hits whose MIME type or size fail the Filter are skipped.
// The result never holds more than Options.Limit entries.
//
// Usage:
//
//	c := collector.New(client, log)
//	urls, err := c.SearchImages(ctx, "lighthouse", collector.DefaultOptions(20))
package collector
