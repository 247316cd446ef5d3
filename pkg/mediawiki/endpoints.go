package mediawiki

import (
	"net/url"
	"strconv"
)

const (
	// BaseURL is the Wikimedia Commons API endpoint
	BaseURL = "https://commons.wikimedia.org/w/api.php"

	// FileNamespace is the MediaWiki namespace holding File: pages
	FileNamespace = 6

	// MaxSearchLimit is the largest page size list=search accepts for anonymous clients
	MaxSearchLimit = 50

	// ImageInfoProps are the imageinfo properties requested per hit
	ImageInfoProps = "url|size|mime"
)

// Params are extra query parameters for one API call
type Params map[string]string

// DefaultParams returns the parameters sent with every request
func DefaultParams() Params {
	return Params{
		"action": "query",
		"format": "json",
	}
}

// BuildParams merges extra over the defaults; keys in extra win
func BuildParams(extra Params) url.Values {
	values := url.Values{}
	for k, v := range DefaultParams() {
		values.Set(k, v)
	}
	for k, v := range extra {
		values.Set(k, v)
	}
	return values
}

// SearchParams builds the list=search request for one page of results
func SearchParams(term string, limit int, cont Continue) Params {
	params := Params{
		"list":        "search",
		"srnamespace": strconv.Itoa(FileNamespace),
		"srsearch":    term,
		"srlimit":     strconv.Itoa(ClampSearchLimit(limit)),
	}
	for k, v := range cont {
		params[k] = v
	}
	return params
}

// ImageInfoParams builds the prop=imageinfo request for a single title
func ImageInfoParams(title string) Params {
	return Params{
		"prop":   "imageinfo",
		"titles": title,
		"iiprop": ImageInfoProps,
	}
}

// ClampSearchLimit bounds a page size to 1..MaxSearchLimit
func ClampSearchLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}
