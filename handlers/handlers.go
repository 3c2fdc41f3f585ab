package handlers

// handlers adapt HTTP requests to the controller. They validate parameters,
// set caching headers and turn controller errors into JSON error bodies.

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"vinylogue/controller"
	"vinylogue/database"
	"vinylogue/models"
	"vinylogue/pages"
)

type Service interface {
	Health() controller.Health
	GenerateAlbumCard(ctx context.Context, artist, album string) (*controller.AlbumCard, error)
	ResolveArtist(ctx context.Context, name string) (models.ArtistRecord, error)
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	RecentCards(ctx context.Context, limit int) ([]database.RenderRecord, error)
	PopularCards(ctx context.Context, limit int) ([]database.PopularRecord, error)
}

type ErrorResponse struct {
	Error   controller.ErrorKind `json:"error"`
	Message string               `json:"message"`
}

type Manager struct {
	Service     Service
	CacheMaxAge int
}

func NewManager(service Service, cacheMaxAge int) *Manager {
	return &Manager{
		Service:     service,
		CacheMaxAge: cacheMaxAge,
	}
}

// Register mounts every route on r.
func (manager *Manager) Register(r gin.IRoutes) {
	r.GET("/", manager.Index)
	r.GET("/health", manager.Health)
	r.GET("/album-card", manager.AlbumCard)
	r.GET("/artist", manager.Artist)
	r.GET("/search", manager.Search)
	r.GET("/cards/recent", manager.RecentCards)
	r.GET("/cards/popular", manager.PopularCards)
}

func (manager *Manager) Index(c *gin.Context) {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(pages.Index(scheme+"://"+c.Request.Host)))
}

func (manager *Manager) Health(c *gin.Context) {
	c.JSON(http.StatusOK, manager.Service.Health())
}

func (manager *Manager) AlbumCard(c *gin.Context) {
	artist := strings.TrimSpace(c.Query("artist"))
	album := strings.TrimSpace(c.Query("album"))
	if artist == "" || album == "" {
		badRequest(c, "artist and album are required")
		return
	}

	card, err := manager.Service.GenerateAlbumCard(c.Request.Context(), artist, album)
	if err != nil {
		respondError(c, err)
		return
	}

	etag := strongETag(card.PNG)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "public, max-age="+strconv.Itoa(manager.CacheMaxAge))
	if etagMatches(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "image/png", card.PNG)
}

func (manager *Manager) Artist(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		badRequest(c, "name is required")
		return
	}

	artist, err := manager.Service.ResolveArtist(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artist)
}

func (manager *Manager) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		badRequest(c, "q is required")
		return
	}

	results, err := manager.Service.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (manager *Manager) RecentCards(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	records, err := manager.Service.RecentCards(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": records})
}

func (manager *Manager) PopularCards(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	records, err := manager.Service.PopularCards(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": records})
}

// parseLimit reads ?limit=, defaulting and clamping to the history bounds.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return database.DefaultRecentLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		badRequest(c, "limit must be a positive integer")
		return 0, false
	}
	return min(limit, database.MaxRecentLimit), true
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: controller.KindInvalidInput, Message: message})
}

func respondError(c *gin.Context, err error) {
	kind := controller.KindOf(err)
	log.Tracef("%s %s failed: %s", c.Request.Method, c.Request.URL.Path, kind)
	c.JSON(kind.HTTPStatus(), ErrorResponse{Error: kind, Message: kind.Message()})
}

func strongETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// etagMatches applies the weak comparison If-None-Match calls for.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
