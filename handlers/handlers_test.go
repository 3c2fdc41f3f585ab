package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"vinylogue/controller"
	"vinylogue/database"
	"vinylogue/models"
	"vinylogue/spotify"
)

type fakeService struct {
	cardCalls   int
	lastArtist  string
	lastAlbum   string
	lastLimit   int
	png         []byte
	err         error
	searchQuery string
}

func (f *fakeService) Health() controller.Health {
	return controller.Health{Status: "ok", Credential: "valid", History: true}
}

func (f *fakeService) GenerateAlbumCard(_ context.Context, artist, album string) (*controller.AlbumCard, error) {
	f.cardCalls++
	f.lastArtist, f.lastAlbum = artist, album
	if f.err != nil {
		return nil, f.err
	}
	return &controller.AlbumCard{PNG: f.png}, nil
}

func (f *fakeService) ResolveArtist(_ context.Context, name string) (models.ArtistRecord, error) {
	if f.err != nil {
		return models.ArtistRecord{}, f.err
	}
	return models.ArtistRecord{ID: "r1", Name: name, TopTracks: []models.ArtistTrack{}}, nil
}

func (f *fakeService) Search(_ context.Context, query string) ([]models.SearchResult, error) {
	f.searchQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return []models.SearchResult{{Type: models.SearchResultAlbum, ID: "a1", Name: "OK Computer", Artist: "Radiohead"}}, nil
}

func (f *fakeService) RecentCards(_ context.Context, limit int) ([]database.RenderRecord, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []database.RenderRecord{{ID: 1, Title: "OK Computer"}}, nil
}

func (f *fakeService) PopularCards(_ context.Context, limit int) ([]database.PopularRecord, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []database.PopularRecord{{AlbumID: "a1", RenderCount: 3}}, nil
}

func newRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewManager(svc, 3600).Register(r)
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	w := do(newRouter(&fakeService{}), httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d %s", w.Code, w.Body.String())
	}
	var body controller.Health
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding health body %q: %v", w.Body.String(), err)
	}
	if body.Status != "ok" || body.Credential != "valid" || !body.History {
		t.Errorf("GET /health body = %+v", body)
	}
}

func TestAlbumCardServesPNG(t *testing.T) {
	svc := &fakeService{png: []byte("\x89PNG fake")}
	r := newRouter(svc)

	w := do(r, httptest.NewRequest(http.MethodGet, "/album-card?artist=+Radiohead+&album=OK%20Computer", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", cc)
	}
	if w.Body.String() != string(svc.png) {
		t.Errorf("body = %q", w.Body.String())
	}
	if svc.lastArtist != "Radiohead" || svc.lastAlbum != "OK Computer" {
		t.Errorf("service got %q / %q", svc.lastArtist, svc.lastAlbum)
	}

	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `"`) || len(etag) != 34 {
		t.Fatalf("ETag = %q", etag)
	}

	req := httptest.NewRequest(http.MethodGet, "/album-card?artist=Radiohead&album=OK%20Computer", nil)
	req.Header.Set("If-None-Match", `"other", W/`+etag)
	w = do(r, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("conditional GET status = %d; want 304", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("304 carried a body of %d bytes", w.Body.Len())
	}
}

func TestAlbumCardMissingParams(t *testing.T) {
	for _, target := range []string{"/album-card", "/album-card?artist=Radiohead", "/album-card?album=OK", "/album-card?artist=%20&album=OK"} {
		svc := &fakeService{}
		w := do(newRouter(svc), httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d; want 400", target, w.Code)
		}
		if svc.cardCalls != 0 {
			t.Errorf("GET %s reached the service", target)
		}
		if body := decodeError(t, w); body.Error != controller.KindInvalidInput {
			t.Errorf("GET %s error = %q", target, body.Error)
		}
	}
}

func TestAlbumCardErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   controller.ErrorKind
	}{
		{"invalid", &spotify.Error{Kind: spotify.KindInvalidInput}, http.StatusBadRequest, controller.KindInvalidInput},
		{"not_found", &spotify.Error{Kind: spotify.KindNotFound, Op: "search"}, http.StatusNotFound, controller.KindNotFound},
		{"auth", &spotify.Error{Kind: spotify.KindAuthFailure, Err: errors.New("secret-token-value rejected")}, http.StatusBadGateway, controller.KindAuthFailure},
		{"upstream", &spotify.Error{Kind: spotify.KindUpstream, Status: 500}, http.StatusBadGateway, controller.KindUpstream},
		{"other", errors.New("boom"), http.StatusInternalServerError, controller.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(&fakeService{err: tt.err}), httptest.NewRequest(http.MethodGet, "/album-card?artist=a&album=b", nil))
			if w.Code != tt.status {
				t.Errorf("status = %d; want %d", w.Code, tt.status)
			}
			body := decodeError(t, w)
			if body.Error != tt.kind {
				t.Errorf("error = %q; want %q", body.Error, tt.kind)
			}
			if strings.Contains(w.Body.String(), "secret-token-value") {
				t.Error("error body leaked upstream detail")
			}
		})
	}
}

func TestArtistAndSearch(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc)

	w := do(r, httptest.NewRequest(http.MethodGet, "/artist?name=Radiohead", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /artist = %d", w.Code)
	}
	var artist models.ArtistRecord
	if err := json.Unmarshal(w.Body.Bytes(), &artist); err != nil || artist.Name != "Radiohead" {
		t.Errorf("artist body = %s (%v)", w.Body.String(), err)
	}

	if w := do(r, httptest.NewRequest(http.MethodGet, "/artist", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("GET /artist without name = %d", w.Code)
	}

	w = do(r, httptest.NewRequest(http.MethodGet, "/search?q=ok+computer", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /search = %d", w.Code)
	}
	var search struct {
		Results []models.SearchResult `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &search); err != nil || len(search.Results) != 1 {
		t.Errorf("search body = %s (%v)", w.Body.String(), err)
	}
	if svc.searchQuery != "ok computer" {
		t.Errorf("query = %q", svc.searchQuery)
	}

	if w := do(r, httptest.NewRequest(http.MethodGet, "/search?q=", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("GET /search without q = %d", w.Code)
	}
}

func TestCardsLimits(t *testing.T) {
	tests := []struct {
		target string
		status int
		limit  int
	}{
		{"/cards/recent", http.StatusOK, database.DefaultRecentLimit},
		{"/cards/recent?limit=5", http.StatusOK, 5},
		{"/cards/recent?limit=1000", http.StatusOK, database.MaxRecentLimit},
		{"/cards/recent?limit=0", http.StatusBadRequest, -1},
		{"/cards/recent?limit=abc", http.StatusBadRequest, -1},
		{"/cards/popular?limit=3", http.StatusOK, 3},
	}
	for _, tt := range tests {
		svc := &fakeService{lastLimit: -1}
		w := do(newRouter(svc), httptest.NewRequest(http.MethodGet, tt.target, nil))
		if w.Code != tt.status {
			t.Errorf("GET %s = %d; want %d", tt.target, w.Code, tt.status)
		}
		if svc.lastLimit != tt.limit {
			t.Errorf("GET %s passed limit %d; want %d", tt.target, svc.lastLimit, tt.limit)
		}
	}
}

func TestCardsHistoryDisabled(t *testing.T) {
	w := do(newRouter(&fakeService{err: controller.ErrHistoryDisabled}), httptest.NewRequest(http.MethodGet, "/cards/recent", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", w.Code)
	}
	if body := decodeError(t, w); body.Error != controller.KindHistoryDisabled {
		t.Errorf("error = %q", body.Error)
	}
}

func TestETagMatches(t *testing.T) {
	etag := `"abc"`
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{`"x"`, false},
		{"*", true},
	}
	for _, tt := range tests {
		if got := etagMatches(tt.header, etag); got != tt.want {
			t.Errorf("etagMatches(%q) = %v; want %v", tt.header, got, tt.want)
		}
	}
}

func TestIndexPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "cards.example"
	w := do(newRouter(&fakeService{}), req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET / = %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "http://cards.example/album-card?") {
		t.Error("landing page does not point at the request host")
	}
}
