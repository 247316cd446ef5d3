package mediawiki

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	errs "commonsfetch/pkg/errors"
	"commonsfetch/pkg/logger"
	"commonsfetch/pkg/ui"
)

// DefaultUserAgent identifies the client to Wikimedia, whose API policy
// rejects requests without a descriptive agent.
const DefaultUserAgent = "commonsfetch/1.0 (https://github.com/commonsfetch/commonsfetch)"

// Client is a MediaWiki API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
	observer   ui.Observer
}

// NewClient creates a new API client. A zero timeout leaves the
// http.Client default in place, which never times out.
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": DefaultUserAgent,
			"Accept":     "application/json",
		},
		baseURL:  BaseURL,
		logger:   log,
		observer: ui.NopObserver{},
	}
}

// SetBaseURL points the client at a different api.php endpoint
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// BaseURL returns the endpoint the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHTTPClient replaces the underlying transport client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetObserver installs the progress hook notified once per API call
func (c *Client) SetObserver(o ui.Observer) {
	if o == nil {
		o = ui.NopObserver{}
	}
	c.observer = o
}

// Query issues one GET against the API with extra merged over the default
// parameters, and decodes the JSON body into target.
func (c *Client) Query(ctx context.Context, extra Params, target interface{}) error {
	params := BuildParams(extra)
	c.observer.APICall(params)

	body, err := c.get(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return c.parseError(err, body)
	}
	if env.Error != nil {
		c.logger.WarnWithFields("API returned an error", map[string]interface{}{
			"code": env.Error.Code,
			"info": env.Error.Info,
		})
		return errs.New(errs.ErrorTypeAPI, 0, nil, "%s: %s", env.Error.Code, env.Error.Info)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return c.parseError(err, body)
	}
	return nil
}

// Search fetches one page of File: namespace search hits
func (c *Client) Search(ctx context.Context, term string, limit int, cont Continue) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.Query(ctx, SearchParams(term, limit, cont), &resp); err != nil {
		return nil, err
	}

	if resp.Query == nil {
		return nil, errs.New(errs.ErrorTypeStructure, 0, nil, "search response has no %q key", "query")
	}
	if resp.Query.Search == nil {
		return nil, errs.New(errs.ErrorTypeStructure, 0, nil, "search response has no %q key", "query.search")
	}

	c.logger.DebugWithFields("search page fetched", map[string]interface{}{
		"term":     term,
		"hits":     len(resp.Query.Search),
		"continue": len(resp.Continue) > 0,
	})
	return &resp, nil
}

// ImageInfo looks up URL, size and MIME type for a single title
func (c *Client) ImageInfo(ctx context.Context, title string) (*ImageInfo, error) {
	var resp ImageInfoResponse
	if err := c.Query(ctx, ImageInfoParams(title), &resp); err != nil {
		return nil, err
	}

	if resp.Query == nil {
		return nil, errs.New(errs.ErrorTypeStructure, 0, nil, "imageinfo response has no %q key", "query")
	}
	page, ok := resp.Query.FirstPage()
	if !ok {
		return nil, errs.New(errs.ErrorTypeStructure, 0, nil, "imageinfo response has no %q for %s", "pages", title)
	}
	if len(page.ImageInfo) == 0 {
		return nil, errs.New(errs.ErrorTypeStructure, 0, nil, "page %q has no imageinfo", title)
	}

	info := page.ImageInfo[0]
	return &info, nil
}

// Download fetches a binary payload
func (c *Client) Download(ctx context.Context, fileURL string) ([]byte, error) {
	return c.get(ctx, fileURL)
}

// get performs a GET and returns the body of a 2xx response
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, err, "failed to create request: %v", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      rawURL,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, errs.New(errs.ErrorTypeNetwork, 0, err, "request to %s failed: %v", rawURL, err)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, rawURL, resp.StatusCode, time.Since(start).Milliseconds())

	if !errs.IsSuccessStatus(resp.StatusCode) {
		return nil, errs.New(errs.ErrorTypeHTTPStatus, resp.StatusCode, nil,
			"unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeNetwork, resp.StatusCode, err, "failed to read response body: %v", err)
	}
	return body, nil
}

func (c *Client) parseError(err error, body []byte) error {
	preview := string(bytes.TrimSpace(body))
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
		"error":        err.Error(),
		"body_preview": preview,
	})
	return errs.New(errs.ErrorTypeParsing, 0, err, "failed to parse JSON: %v", err)
}
