package ui

import (
	"io"
	"net/url"
	"sync"

	"commonsfetch/pkg/logger"
)

const (
	// APICallMark is written once per API request
	APICallMark = "."
	// DownloadMark is written once per saved file
	DownloadMark = "+"
)

// Observer receives progress events from the API client and the fetcher
type Observer interface {
	APICall(params url.Values)
	Downloaded(url, path string, size int)
}

// ConsoleObserver writes a single character per event, giving the same
// heartbeat as a plain terminal session: "." per API call, "+" per file.
type ConsoleObserver struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleObserver creates an observer writing progress marks to w
func NewConsoleObserver(w io.Writer) *ConsoleObserver {
	return &ConsoleObserver{w: w}
}

func (o *ConsoleObserver) APICall(params url.Values) {
	o.write(APICallMark)
}

func (o *ConsoleObserver) Downloaded(url, path string, size int) {
	o.write(DownloadMark)
}

func (o *ConsoleObserver) write(mark string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = io.WriteString(o.w, mark)
}

// LogObserver reports progress as debug-level structured log entries
type LogObserver struct {
	log logger.Logger
}

// NewLogObserver creates an observer that logs through l
func NewLogObserver(l logger.Logger) *LogObserver {
	return &LogObserver{log: l}
}

func (o *LogObserver) APICall(params url.Values) {
	o.log.DebugWithFields("API call", map[string]interface{}{
		"params": params.Encode(),
	})
}

func (o *LogObserver) Downloaded(url, path string, size int) {
	o.log.DebugWithFields("File saved", map[string]interface{}{
		"url":  url,
		"path": path,
		"size": size,
	})
}

// MultiObserver fans events out to several observers
type MultiObserver []Observer

func (m MultiObserver) APICall(params url.Values) {
	for _, o := range m {
		o.APICall(params)
	}
}

func (m MultiObserver) Downloaded(url, path string, size int) {
	for _, o := range m {
		o.Downloaded(url, path, size)
	}
}

// NopObserver ignores all events
type NopObserver struct{}

func (NopObserver) APICall(url.Values)             {}
func (NopObserver) Downloaded(string, string, int) {}

// CountingObserver tallies events; useful for summaries and tests
type CountingObserver struct {
	mu        sync.Mutex
	APICalls  int
	Downloads int
	Bytes     int64
}

func (c *CountingObserver) APICall(url.Values) {
	c.mu.Lock()
	c.APICalls++
	c.mu.Unlock()
}

func (c *CountingObserver) Downloaded(_, _ string, size int) {
	c.mu.Lock()
	c.Downloads++
	c.Bytes += int64(size)
	c.mu.Unlock()
}

// Snapshot returns the current counts
func (c *CountingObserver) Snapshot() (apiCalls, downloads int, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.APICalls, c.Downloads, c.Bytes
}
