package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

type Database struct {
	db  *sql.DB
	now func() time.Time
}

// RenderRecord is one successfully rendered card.
type RenderRecord struct {
	ID          int64     `json:"id"`
	ArtistQuery string    `json:"artist_query"`
	AlbumQuery  string    `json:"album_query"`
	AlbumID     string    `json:"album_id"`
	Title       string    `json:"title"`
	Artists     []string  `json:"artists"`
	ReleaseYear int       `json:"release_year,omitempty"`
	TrackCount  int       `json:"track_count"`
	URL         string    `json:"url"`
	RenderedAt  time.Time `json:"rendered_at"`
}

type PopularRecord struct {
	AlbumID      string    `json:"album_id"`
	Title        string    `json:"title"`
	Artists      []string  `json:"artists"`
	URL          string    `json:"url"`
	RenderCount  int       `json:"render_count"`
	LastRendered time.Time `json:"last_rendered"`
}

// New opens (creating if needed) the sqlite database at dbPath and applies migrations.
func New(dbPath string) (*Database, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets history reads proceed while a render is being recorded
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &Database{db: db, now: time.Now}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infof("Database initialized at %s", dbPath)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS card_renders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			artist_query TEXT NOT NULL,
			album_query TEXT NOT NULL,
			album_id TEXT NOT NULL,
			title TEXT NOT NULL,
			artists TEXT NOT NULL DEFAULT '',
			release_year INTEGER NOT NULL DEFAULT 0,
			track_count INTEGER NOT NULL DEFAULT 0,
			url TEXT NOT NULL DEFAULT '',
			rendered_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_card_renders_rendered_at ON card_renders(rendered_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_card_renders_album_id ON card_renders(album_id)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// RecordRender inserts a render record. RenderedAt defaults to now.
func (d *Database) RecordRender(ctx context.Context, r RenderRecord) error {
	if r.RenderedAt.IsZero() {
		r.RenderedAt = d.now()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO card_renders (artist_query, album_query, album_id, title, artists, release_year, track_count, url, rendered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ArtistQuery, r.AlbumQuery, r.AlbumID, r.Title, strings.Join(r.Artists, artistSeparator),
		r.ReleaseYear, r.TrackCount, r.URL, r.RenderedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record render: %w", err)
	}
	return nil
}

// GetRecent returns the newest renders first. limit is clamped to
// 1..MaxRecentLimit with DefaultRecentLimit for non-positive values.
func (d *Database) GetRecent(ctx context.Context, limit int) ([]RenderRecord, error) {
	limit = clampLimit(limit)

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, artist_query, album_query, album_id, title, artists, release_year, track_count, url, rendered_at
		 FROM card_renders
		 ORDER BY rendered_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query renders: %w", err)
	}
	defer rows.Close()

	records := []RenderRecord{}
	for rows.Next() {
		var r RenderRecord
		var artists, renderedAt string
		if err := rows.Scan(&r.ID, &r.ArtistQuery, &r.AlbumQuery, &r.AlbumID, &r.Title, &artists,
			&r.ReleaseYear, &r.TrackCount, &r.URL, &renderedAt); err != nil {
			return nil, fmt.Errorf("failed to scan render row: %w", err)
		}
		r.Artists = splitArtists(artists)
		r.RenderedAt = parseTimestamp(renderedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetMostRendered returns the albums rendered most often.
func (d *Database) GetMostRendered(ctx context.Context, limit int) ([]PopularRecord, error) {
	limit = clampLimit(limit)

	rows, err := d.db.QueryContext(ctx,
		`SELECT album_id, MAX(title), MAX(artists), MAX(url), COUNT(*) AS render_count, MAX(rendered_at) AS last_rendered
		 FROM card_renders
		 GROUP BY album_id
		 ORDER BY render_count DESC, last_rendered DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query most rendered: %w", err)
	}
	defer rows.Close()

	records := []PopularRecord{}
	for rows.Next() {
		var r PopularRecord
		var artists, lastRendered string
		if err := rows.Scan(&r.AlbumID, &r.Title, &artists, &r.URL, &r.RenderCount, &lastRendered); err != nil {
			return nil, fmt.Errorf("failed to scan most rendered row: %w", err)
		}
		r.Artists = splitArtists(artists)
		r.LastRendered = parseTimestamp(lastRendered)
		records = append(records, r)
	}
	return records, rows.Err()
}

const artistSeparator = "\x1f"

// Fixed-width so rendered_at sorts lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func splitArtists(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, artistSeparator)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return min(limit, MaxRecentLimit)
}

func parseTimestamp(s string) time.Time {
	formats := []string{
		timestampLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	log.Warnf("failed to parse rendered_at timestamp '%s' with all known formats", s)
	return time.Time{}
}
