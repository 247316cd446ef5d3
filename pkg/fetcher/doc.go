// Package fetcher ties the collector and storage together: it asks for up to
// n image URLs and saves each response body under <base>/<term>/.
//
// Downloads run sequentially. Any error ends the run and is returned along
// with a Result listing the files written so far. Every run carries a random
// run_id in its log entries.
package fetcher
