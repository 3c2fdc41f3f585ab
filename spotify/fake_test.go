package spotify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeCatalog serves the token endpoint and the handful of Web API routes the
// gateway uses.
type fakeCatalog struct {
	t   *testing.T
	srv *httptest.Server

	tokenCalls atomic.Int32
	apiCalls   atomic.Int32
	tokenDelay time.Duration
	tokenFails atomic.Int32 // remaining token requests to fail with 500

	mu       sync.Mutex
	issued   int
	revoked  map[string]bool
	routes   map[string]http.HandlerFunc
	requests []*http.Request
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	f := &fakeCatalog{
		t:       t,
		revoked: map[string]bool{},
		routes:  map[string]http.HandlerFunc{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", f.handleToken)
	mux.HandleFunc("/v1/", f.handleAPI)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeCatalog) gateway(t *testing.T) *Gateway {
	t.Helper()
	g, err := New(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     f.srv.URL + "/token",
		APIURL:       f.srv.URL + "/v1",
		RetryDelay:   time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return g
}

func (f *fakeCatalog) handleToken(w http.ResponseWriter, r *http.Request) {
	f.tokenCalls.Add(1)
	if f.tokenDelay > 0 {
		time.Sleep(f.tokenDelay)
	}

	user, pass, ok := r.BasicAuth()
	if !ok || user != "client-id" || pass != "client-secret" {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
		return
	}
	if f.tokenFails.Load() > 0 {
		f.tokenFails.Add(-1)
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}

	f.mu.Lock()
	f.issued++
	token := fmt.Sprintf("token-%d", f.issued)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

// revoke makes the API answer 401 for token.
func (f *fakeCatalog) revoke(token string) {
	f.mu.Lock()
	f.revoked[token] = true
	f.mu.Unlock()
}

func (f *fakeCatalog) route(path string, h http.HandlerFunc) {
	f.mu.Lock()
	f.routes[path] = h
	f.mu.Unlock()
}

func (f *fakeCatalog) handleAPI(w http.ResponseWriter, r *http.Request) {
	f.apiCalls.Add(1)
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	f.mu.Lock()
	f.requests = append(f.requests, r)
	revoked := f.revoked[token]
	h := f.routes[strings.TrimPrefix(r.URL.Path, "/v1")]
	f.mu.Unlock()

	if token == "" || revoked {
		writeAPIError(w, http.StatusUnauthorized, "The access token expired")
		return
	}
	if h == nil {
		writeAPIError(w, http.StatusNotFound, "Not found.")
		return
	}
	h(w, r)
}

func (f *fakeCatalog) lastRequest(path string) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if strings.TrimPrefix(f.requests[i].URL.Path, "/v1") == path {
			return f.requests[i]
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{"status": status, "message": message},
	})
}

func albumSearchBody(ids ...string) map[string]interface{} {
	items := []map[string]interface{}{}
	for _, id := range ids {
		items = append(items, map[string]interface{}{
			"id":      id,
			"name":    "OK Computer",
			"artists": []map[string]interface{}{{"name": "Radiohead"}},
			"images":  []map[string]interface{}{{"url": "https://img.example/" + id + ".jpg"}},
		})
	}
	return map[string]interface{}{"albums": map[string]interface{}{"items": items}}
}

func albumBody(id string, trackCount int) map[string]interface{} {
	tracks := []map[string]interface{}{}
	for i := 1; i <= trackCount; i++ {
		tracks = append(tracks, map[string]interface{}{
			"name":         fmt.Sprintf("Track %d", i),
			"duration_ms":  180000 + i*1000,
			"track_number": i,
			"preview_url":  fmt.Sprintf("https://p.example/%d.mp3", i),
		})
	}
	return map[string]interface{}{
		"id":            id,
		"name":          "OK Computer",
		"artists":       []map[string]interface{}{{"name": "Radiohead"}},
		"release_date":  "1997-05-21",
		"images":        []map[string]interface{}{{"url": "https://img.example/cover.jpg"}},
		"external_urls": map[string]string{"spotify": "https://open.spotify.com/album/" + id},
		"tracks":        map[string]interface{}{"items": tracks},
	}
}
