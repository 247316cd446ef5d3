// Package mediawikitest provides a fake MediaWiki API for tests.
package mediawikitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// File is an image known to the mock server
type File struct {
	Title string
	Mime  string
	Body  []byte
	// Size overrides len(Body) in imageinfo responses when non-zero
	Size int64
}

// Server simulates api.php search and imageinfo requests and serves the
// file bodies it advertises under /files/.
type Server struct {
	server *httptest.Server

	mu             sync.RWMutex
	files          []File
	errorResponses map[string]int // keyed by "search", "imageinfo" or a /files/ path

	requestCount int32
	apiCalls     int32
	downloads    int32
}

// NewServer starts a mock server holding files in search order
func NewServer(files ...File) *Server {
	m := &Server{
		files:          files,
		errorResponses: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/w/api.php", m.handleAPI)
	mux.HandleFunc("/files/", m.handleFile)

	m.server = httptest.NewServer(mux)
	return m
}

// APIURL returns the api.php endpoint
func (m *Server) APIURL() string {
	return m.server.URL + "/w/api.php"
}

// FileURL returns the download URL advertised for a title
func (m *Server) FileURL(title string) string {
	return m.server.URL + "/files/" + fileName(title)
}

// Close shuts the server down
func (m *Server) Close() {
	m.server.Close()
}

// SetErrorResponse makes requests for endpoint fail with code
func (m *Server) SetErrorResponse(endpoint string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[endpoint] = code
}

// ClearErrorResponse removes a configured failure
func (m *Server) ClearErrorResponse(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errorResponses, endpoint)
}

// GetRequestCount returns the number of requests served
func (m *Server) GetRequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// GetAPICallCount returns the number of api.php requests served
func (m *Server) GetAPICallCount() int {
	return int(atomic.LoadInt32(&m.apiCalls))
}

// GetDownloadCount returns the number of file bodies served
func (m *Server) GetDownloadCount() int {
	return int(atomic.LoadInt32(&m.downloads))
}

func (m *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	atomic.AddInt32(&m.apiCalls, 1)

	q := r.URL.Query()
	if q.Get("action") != "query" || q.Get("format") != "json" {
		writeJSON(w, map[string]interface{}{
			"error": map[string]string{"code": "badparams", "info": "action=query&format=json required"},
		})
		return
	}

	switch {
	case q.Get("list") == "search":
		if code := m.getErrorResponse("search"); code > 0 {
			w.WriteHeader(code)
			return
		}
		m.handleSearch(w, q.Get("srlimit"), q.Get("sroffset"))
	case q.Get("prop") == "imageinfo":
		if code := m.getErrorResponse("imageinfo"); code > 0 {
			w.WriteHeader(code)
			return
		}
		m.handleImageInfo(w, q.Get("titles"))
	default:
		writeJSON(w, map[string]interface{}{
			"error": map[string]string{"code": "unknown_request", "info": "unsupported query"},
		})
	}
}

func (m *Server) handleSearch(w http.ResponseWriter, srlimit, sroffset string) {
	limit, err := strconv.Atoi(srlimit)
	if err != nil || limit < 1 || limit > 50 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	offset, _ := strconv.Atoi(sroffset)

	m.mu.RLock()
	total := len(m.files)
	hits := make([]map[string]interface{}, 0, limit)
	for i := offset; i < total && len(hits) < limit; i++ {
		f := m.files[i]
		hits = append(hits, map[string]interface{}{
			"ns":     6,
			"title":  f.Title,
			"pageid": i + 1,
			"size":   f.size(),
		})
	}
	m.mu.RUnlock()

	resp := map[string]interface{}{
		"batchcomplete": "",
		"query": map[string]interface{}{
			"searchinfo": map[string]interface{}{"totalhits": total},
			"search":     hits,
		},
	}
	if next := offset + len(hits); next < total {
		resp["continue"] = map[string]interface{}{
			"sroffset": next,
			"continue": "-||",
		}
	}
	writeJSON(w, resp)
}

func (m *Server) handleImageInfo(w http.ResponseWriter, title string) {
	f, id, ok := m.lookup(title)
	if !ok {
		writeJSON(w, map[string]interface{}{
			"query": map[string]interface{}{
				"pages": map[string]interface{}{
					"-1": map[string]interface{}{"ns": 6, "title": title, "missing": ""},
				},
			},
		})
		return
	}

	writeJSON(w, map[string]interface{}{
		"batchcomplete": "",
		"query": map[string]interface{}{
			"pages": map[string]interface{}{
				strconv.Itoa(id): map[string]interface{}{
					"pageid": id,
					"ns":     6,
					"title":  f.Title,
					"imageinfo": []map[string]interface{}{{
						"url":  m.FileURL(f.Title),
						"size": f.size(),
						"mime": f.Mime,
					}},
				},
			},
		},
	})
}

func (m *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	if code := m.getErrorResponse(r.URL.Path); code > 0 {
		http.Error(w, http.StatusText(code), code)
		return
	}

	name := path.Base(r.URL.Path)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.files {
		if fileName(f.Title) == name {
			atomic.AddInt32(&m.downloads, 1)
			w.Header().Set("Content-Type", f.Mime)
			_, _ = w.Write(f.Body)
			return
		}
	}
	http.NotFound(w, r)
}

func (m *Server) lookup(title string) (File, int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, f := range m.files {
		if f.Title == title {
			return f, i + 1, true
		}
	}
	return File{}, 0, false
}

func (m *Server) getErrorResponse(endpoint string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errorResponses[endpoint]
}

func (f File) size() int64 {
	if f.Size != 0 {
		return f.Size
	}
	return int64(len(f.Body))
}

func fileName(title string) string {
	return strings.ReplaceAll(strings.TrimPrefix(title, "File:"), " ", "_")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
