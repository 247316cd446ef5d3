package mediawiki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	errs "commonsfetch/pkg/errors"
	"commonsfetch/pkg/logger"
	"commonsfetch/pkg/ui"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

// newTestServer returns a client pointed at a handler, plus the queries it received
func newTestServer(t *testing.T, handler func(w http.ResponseWriter, q url.Values)) (*Client, *[]url.Values) {
	t.Helper()

	var seen []url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Query())
		handler(w, r.URL.Query())
	}))
	t.Cleanup(server.Close)

	client := NewClient(5*time.Second, logger.NewNopLogger())
	client.SetBaseURL(server.URL + "/w/api.php")
	return client, &seen
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient(t *testing.T) {
	log := logger.NewTestLogger()
	client := NewClient(30*time.Second, log)

	assert.NotNil(t, client.httpClient)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Equal(t, BaseURL, client.BaseURL())
	assert.Equal(t, DefaultUserAgent, client.headers["User-Agent"])
	assert.Equal(t, log, client.logger)
}

func TestQueryMergesDefaultParams(t *testing.T) {
	client, seen := newTestServer(t, func(w http.ResponseWriter, q url.Values) {
		writeJSON(w, map[string]interface{}{"batchcomplete": ""})
	})

	var out map[string]interface{}
	err := client.Query(context.Background(), Params{"srnamespace": "6"}, &out)
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	assert.Equal(t, url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"srnamespace": {"6"},
	}, (*seen)[0])
	assert.Contains(t, out, "batchcomplete")
}

func TestQuerySendsHeaders(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		writeJSON(w, map[string]interface{}{})
	}))
	defer server.Close()

	client := NewClient(0, logger.NewNopLogger())
	client.SetBaseURL(server.URL)
	client.SetHeader("User-Agent", "test-agent/2.0")

	var out map[string]interface{}
	require.NoError(t, client.Query(context.Background(), nil, &out))
	assert.Equal(t, "test-agent/2.0", gotAgent)
}

func TestQueryNotifiesObserver(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, q url.Values) {
		writeJSON(w, map[string]interface{}{})
	})
	var buf bytes.Buffer
	client.SetObserver(ui.NewConsoleObserver(&buf))

	var out map[string]interface{}
	for i := 0; i < 3; i++ {
		require.NoError(t, client.Query(context.Background(), nil, &out))
	}
	assert.Equal(t, "...", buf.String())
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType errs.ErrorType
		wantCode int
	}{
		{name: "not found", status: http.StatusNotFound, body: "", wantType: errs.ErrorTypeHTTPStatus, wantCode: 404},
		{name: "server error", status: http.StatusInternalServerError, body: "oops", wantType: errs.ErrorTypeHTTPStatus, wantCode: 500},
		{name: "redirect is not success", status: http.StatusNotModified, body: "", wantType: errs.ErrorTypeHTTPStatus, wantCode: 304},
		{name: "invalid json", status: http.StatusOK, body: "<html>", wantType: errs.ErrorTypeParsing},
		{name: "api error object", status: http.StatusOK, body: `{"error":{"code":"badvalue","info":"Unrecognized value"}}`, wantType: errs.ErrorTypeAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(0, logger.NewNopLogger())
			client.SetHTTPClient(&http.Client{Transport: &mockRoundTripper{
				handler: func(req *http.Request) (*http.Response, error) {
					return newResponse(tt.status, tt.body), nil
				},
			}})

			var out map[string]interface{}
			err := client.Query(context.Background(), nil, &out)
			require.Error(t, err)
			assert.True(t, errs.Is(err, tt.wantType), "got %v", err)
			assert.Equal(t, tt.wantCode, errs.StatusCode(err))
		})
	}
}

func TestQueryNetworkError(t *testing.T) {
	boom := errors.New("connection refused")
	client := NewClient(0, logger.NewNopLogger())
	client.SetHTTPClient(&http.Client{Transport: &mockRoundTripper{
		handler: func(req *http.Request) (*http.Response, error) {
			return nil, boom
		},
	}})

	var out map[string]interface{}
	err := client.Query(context.Background(), nil, &out)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeNetwork))
	assert.ErrorIs(t, err, boom)
}

func TestSearch(t *testing.T) {
	client, seen := newTestServer(t, func(w http.ResponseWriter, q url.Values) {
		writeJSON(w, map[string]interface{}{
			"continue": map[string]interface{}{"sroffset": 2, "continue": "-||"},
			"query": map[string]interface{}{
				"searchinfo": map[string]interface{}{"totalhits": 10},
				"search": []map[string]interface{}{
					{"ns": 6, "title": "File:A.jpg"},
					{"ns": 6, "title": "File:B.png"},
				},
			},
		})
	})

	resp, err := client.Search(context.Background(), "fox", 2, nil)
	require.NoError(t, err)

	require.Len(t, resp.Query.Search, 2)
	assert.Equal(t, "File:A.jpg", resp.Query.Search[0].Title)
	assert.Equal(t, 10, resp.Query.SearchInfo.TotalHits)
	assert.Equal(t, Continue{"sroffset": "2", "continue": "-||"}, resp.Continue)

	q := (*seen)[0]
	assert.Equal(t, "search", q.Get("list"))
	assert.Equal(t, "6", q.Get("srnamespace"))
	assert.Equal(t, "fox", q.Get("srsearch"))
	assert.Equal(t, "2", q.Get("srlimit"))
}

func TestSearchMissingKeys(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{name: "no query", body: map[string]interface{}{"batchcomplete": ""}},
		{name: "no search", body: map[string]interface{}{"query": map[string]interface{}{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, q url.Values) {
				writeJSON(w, tt.body)
			})

			_, err := client.Search(context.Background(), "fox", 5, nil)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.ErrorTypeStructure))
		})
	}
}

func TestImageInfo(t *testing.T) {
	client, seen := newTestServer(t, func(w http.ResponseWriter, q url.Values) {
		writeJSON(w, map[string]interface{}{
			"query": map[string]interface{}{
				"pages": map[string]interface{}{
					"4242": map[string]interface{}{
						"pageid": 4242,
						"ns":     6,
						"title":  q.Get("titles"),
						"imageinfo": []map[string]interface{}{
							{"url": "https://upload.example/a/ab/Fox.jpg", "size": 12345, "mime": "image/jpeg"},
						},
					},
				},
			},
		})
	})

	info, err := client.ImageInfo(context.Background(), "File:Fox.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://upload.example/a/ab/Fox.jpg", info.URL)
	assert.Equal(t, int64(12345), info.Size)
	assert.Equal(t, "image/jpeg", info.Mime)

	q := (*seen)[0]
	assert.Equal(t, "imageinfo", q.Get("prop"))
	assert.Equal(t, "File:Fox.jpg", q.Get("titles"))
	assert.Equal(t, "url|size|mime", q.Get("iiprop"))
}

func TestImageInfoMissingKeys(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{name: "no query", body: map[string]interface{}{}},
		{name: "no pages", body: map[string]interface{}{"query": map[string]interface{}{}}},
		{name: "missing file", body: map[string]interface{}{"query": map[string]interface{}{
			"pages": map[string]interface{}{"-1": map[string]interface{}{"ns": 6, "title": "File:Gone.jpg", "missing": ""}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, q url.Values) {
				writeJSON(w, tt.body)
			})

			_, err := client.ImageInfo(context.Background(), "File:Gone.jpg")
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.ErrorTypeStructure))
		})
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg bytes"))
	}))
	defer server.Close()

	client := NewClient(0, logger.NewNopLogger())

	data, err := client.Download(context.Background(), server.URL+"/fox.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), data)

	_, err = client.Download(context.Background(), server.URL+"/missing.jpg")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errs.StatusCode(err))
}

func TestDownloadHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(0, logger.NewNopLogger())
	_, err := client.Download(ctx, server.URL+"/fox.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFirstPage(t *testing.T) {
	q := &PagesQuery{Pages: map[string]Page{
		"20": {Title: "File:B.jpg"},
		"3":  {Title: "File:A.jpg"},
	}}

	page, ok := q.FirstPage()
	require.True(t, ok)
	assert.Equal(t, "File:A.jpg", page.Title)

	_, ok = (&PagesQuery{}).FirstPage()
	assert.False(t, ok)
}

func TestContinueUnmarshal(t *testing.T) {
	var c Continue
	require.NoError(t, json.Unmarshal([]byte(`{"sroffset":50,"continue":"-||"}`), &c))
	assert.Equal(t, Continue{"sroffset": "50", "continue": "-||"}, c)

	assert.Error(t, json.Unmarshal([]byte(`{"sroffset":true}`), &c))
}
