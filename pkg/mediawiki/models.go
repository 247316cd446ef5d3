package mediawiki

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// APIError is the error object MediaWiki embeds in a 200 response
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// envelope carries the keys shared by every response
type envelope struct {
	Error *APIError `json:"error"`
}

// Continue is the continuation token returned with a partial result set.
// Values are kept as strings so they can be sent back verbatim.
type Continue map[string]string

// UnmarshalJSON accepts both string and numeric token values
func (c *Continue) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Continue, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("continue.%s: unsupported value %s", k, string(v))
		}
		out[k] = n.String()
	}
	*c = out
	return nil
}

// SearchResponse is the body of a list=search request
type SearchResponse struct {
	Continue Continue     `json:"continue,omitempty"`
	Query    *SearchQuery `json:"query"`
}

// SearchQuery holds one page of search hits
type SearchQuery struct {
	SearchInfo *SearchInfo `json:"searchinfo,omitempty"`
	Search     []SearchHit `json:"search"`
}

// SearchInfo carries the total number of matches
type SearchInfo struct {
	TotalHits int `json:"totalhits"`
}

// SearchHit identifies a remote file by title
type SearchHit struct {
	NS     int    `json:"ns"`
	Title  string `json:"title"`
	PageID int    `json:"pageid"`
	Size   int64  `json:"size"`
}

// ImageInfoResponse is the body of a prop=imageinfo request
type ImageInfoResponse struct {
	Query *PagesQuery `json:"query"`
}

// PagesQuery holds pages keyed by their internal page ID
type PagesQuery struct {
	Pages map[string]Page `json:"pages"`
}

// Page is one File: page and its image info records
type Page struct {
	PageID    int         `json:"pageid"`
	NS        int         `json:"ns"`
	Title     string      `json:"title"`
	ImageInfo []ImageInfo `json:"imageinfo"`
}

// ImageInfo is per-file metadata
type ImageInfo struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Mime string `json:"mime"`
}

// FirstPage returns the single page of a title lookup. The API keys pages by
// ID (negative for missing titles); with several pages the lowest key wins.
func (q *PagesQuery) FirstPage() (Page, bool) {
	if q == nil || len(q.Pages) == 0 {
		return Page{}, false
	}

	keys := make([]string, 0, len(q.Pages))
	for k := range q.Pages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	return q.Pages[keys[0]], true
}
