package mediawiki

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildParams(t *testing.T) {
	tests := []struct {
		name     string
		extra    Params
		expected url.Values
	}{
		{
			name:  "defaults only",
			extra: nil,
			expected: url.Values{
				"action": {"query"},
				"format": {"json"},
			},
		},
		{
			name:  "extension keeps defaults",
			extra: Params{"srnamespace": "6"},
			expected: url.Values{
				"action":      {"query"},
				"format":      {"json"},
				"srnamespace": {"6"},
			},
		},
		{
			name:  "caller keys win",
			extra: Params{"format": "xml", "prop": "imageinfo"},
			expected: url.Values{
				"action": {"query"},
				"format": {"xml"},
				"prop":   {"imageinfo"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildParams(tt.extra))
		})
	}
}

func TestBuildParamsDoesNotMutateDefaults(t *testing.T) {
	_ = BuildParams(Params{"action": "parse"})
	assert.Equal(t, "query", DefaultParams()["action"])
}

func TestSearchParams(t *testing.T) {
	params := SearchParams("red fox", 120, nil)

	assert.Equal(t, "search", params["list"])
	assert.Equal(t, "6", params["srnamespace"])
	assert.Equal(t, "red fox", params["srsearch"])
	assert.Equal(t, "50", params["srlimit"])
	assert.NotContains(t, params, "sroffset")
}

func TestSearchParamsWithContinuation(t *testing.T) {
	params := SearchParams("red fox", 10, Continue{"sroffset": "50", "continue": "-||"})

	assert.Equal(t, "10", params["srlimit"])
	assert.Equal(t, "50", params["sroffset"])
	assert.Equal(t, "-||", params["continue"])
}

func TestImageInfoParams(t *testing.T) {
	params := ImageInfoParams("File:Red fox.jpg")

	assert.Equal(t, Params{
		"prop":   "imageinfo",
		"titles": "File:Red fox.jpg",
		"iiprop": "url|size|mime",
	}, params)
}

func TestClampSearchLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{49, 49},
		{50, 50},
		{51, 50},
		{1000, 50},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampSearchLimit(tt.in), "limit %d", tt.in)
	}
}
