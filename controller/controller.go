package controller

import (
	"context"
	"sync"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"vinylogue/database"
	"vinylogue/models"
	"vinylogue/sentryhelper"
	"vinylogue/spotify"
)

type Gateway interface {
	ResolveAlbum(ctx context.Context, artist, album string) (models.AlbumRecord, error)
	ResolveArtist(ctx context.Context, artist string) (models.ArtistRecord, error)
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

type Renderer interface {
	Render(ctx context.Context, album models.AlbumRecord) ([]byte, error)
}

type History interface {
	RecordRender(ctx context.Context, r database.RenderRecord) error
	GetRecent(ctx context.Context, limit int) ([]database.RenderRecord, error)
	GetMostRendered(ctx context.Context, limit int) ([]database.PopularRecord, error)
}

// credentialReporter is implemented by gateways that can describe their token.
type credentialReporter interface {
	TokenState() spotify.TokenState
}

// Health is the liveness report served on /health.
type Health struct {
	Status     string `json:"status"`
	Credential string `json:"credential,omitempty"`
	History    bool   `json:"history"`
}

// AlbumCard is a rendered card and the album it was drawn from.
type AlbumCard struct {
	Album models.AlbumRecord
	PNG   []byte
}

// Controller sequences the gateway and the renderer. It keeps no per-request
// state; history writes run in the background and Close waits for them.
type Controller struct {
	gateway  Gateway
	renderer Renderer
	history  History

	pending sync.WaitGroup
}

// NewController wires the pieces together. history may be nil to disable
// render history.
func NewController(gateway Gateway, renderer Renderer, history History) *Controller {
	return &Controller{
		gateway:  gateway,
		renderer: renderer,
		history:  history,
	}
}

// GenerateAlbumCard resolves the album and renders its card. Gateway errors
// are returned unchanged; the renderer is only called once an album is found.
func (c *Controller) GenerateAlbumCard(ctx context.Context, artist, album string) (*AlbumCard, error) {
	logger := log.WithFields(log.Fields{
		"module": "controller",
		"method": "GenerateAlbumCard",
	})
	logger.Tracef("generating card for artist=%q album=%q", artist, album)

	sentryhelper.ConfigureScope(ctx, func(scope *sentry.Scope) {
		scope.SetTag("card.artist", artist)
		scope.SetTag("card.album", album)
	})

	record, err := c.gateway.ResolveAlbum(ctx, artist, album)
	if err != nil {
		c.report(ctx, err)
		return nil, err
	}

	sentryhelper.AddBreadcrumb(ctx, &sentry.Breadcrumb{
		Category: "card",
		Message:  "Resolved album " + record.ID,
		Level:    sentry.LevelInfo,
	})

	png, err := c.renderer.Render(ctx, record)
	if err != nil {
		c.report(ctx, err)
		return nil, err
	}
	logger.Debugf("rendered '%s' (%d tracks, %d bytes)", record.Title, len(record.Tracks), len(png))

	c.recordRender(ctx, artist, album, record)
	return &AlbumCard{Album: record, PNG: png}, nil
}

func (c *Controller) ResolveArtist(ctx context.Context, name string) (models.ArtistRecord, error) {
	record, err := c.gateway.ResolveArtist(ctx, name)
	if err != nil {
		c.report(ctx, err)
		return models.ArtistRecord{}, err
	}
	return record, nil
}

func (c *Controller) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	results, err := c.gateway.Search(ctx, query)
	if err != nil {
		c.report(ctx, err)
		return nil, err
	}
	return results, nil
}

func (c *Controller) RecentCards(ctx context.Context, limit int) ([]database.RenderRecord, error) {
	if c.history == nil {
		return nil, ErrHistoryDisabled
	}
	records, err := c.history.GetRecent(ctx, limit)
	if err != nil {
		c.report(ctx, err)
		return nil, err
	}
	return records, nil
}

func (c *Controller) PopularCards(ctx context.Context, limit int) ([]database.PopularRecord, error) {
	if c.history == nil {
		return nil, ErrHistoryDisabled
	}
	records, err := c.history.GetMostRendered(ctx, limit)
	if err != nil {
		c.report(ctx, err)
		return nil, err
	}
	return records, nil
}

// Health reports process liveness plus the catalog credential state. An
// absent or expired token is still healthy; it is fetched on the next request.
func (c *Controller) Health() Health {
	h := Health{Status: "ok", History: c.history != nil}
	if r, ok := c.gateway.(credentialReporter); ok {
		h.Credential = r.TokenState().String()
	}
	return h
}

// Close waits for in-flight history writes.
func (c *Controller) Close() {
	c.pending.Wait()
}

// recordRender stores the render in the background while the caller writes
// the response. A failed write is logged and reported but never fails the
// request.
func (c *Controller) recordRender(ctx context.Context, artist, album string, record models.AlbumRecord) {
	if c.history == nil {
		return
	}
	entry := database.RenderRecord{
		ArtistQuery: artist,
		AlbumQuery:  album,
		AlbumID:     record.ID,
		Title:       record.Title,
		Artists:     record.ArtistNames,
		ReleaseYear: record.ReleaseYear(),
		TrackCount:  len(record.Tracks),
		URL:         record.CanonicalURL,
	}

	detached := sentryhelper.DetachFromTransaction(ctx)
	c.pending.Go(func() {
		ctx, span := sentryhelper.StartLinkedTransaction(detached, "history.record", "db.insert", map[string]string{
			"album_id": record.ID,
		})
		defer span.Finish()

		if err := c.history.RecordRender(ctx, entry); err != nil {
			span.Status = sentry.SpanStatusInternalError
			log.Errorf("Error recording render of %s: %v", record.ID, err)
			sentryhelper.CaptureException(ctx, err)
			return
		}
		span.Status = sentry.SpanStatusOK
	})
}

func (c *Controller) report(ctx context.Context, err error) {
	kind := KindOf(err)
	if !kind.Reportable() {
		log.Debugf("request failed with %s: %v", kind, err)
		return
	}
	log.Errorf("request failed with %s: %v", kind, err)
	sentryhelper.CaptureException(ctx, err)
}
