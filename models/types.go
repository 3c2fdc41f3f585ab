package models

import (
	"fmt"
	"time"
)

// TrackRecord is one track of an album, in album order.
type TrackRecord struct {
	Name        string `json:"name"`
	DurationMs  int    `json:"duration_ms"`
	TrackNumber int    `json:"track_number"`
	PreviewURL  string `json:"preview_url,omitempty"`
}

// DurationDisplay formats the track length as m:ss.
func (t TrackRecord) DurationDisplay() string {
	return DurationDisplay(t.DurationMs)
}

// AlbumRecord is the normalized album returned by the gateway and drawn by the
// compositor. Tracks are in album order and are never re-sorted.
type AlbumRecord struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	ArtistNames   []string      `json:"artists"`
	ReleaseDate   time.Time     `json:"release_date"`
	CoverImageURL string        `json:"cover_image_url,omitempty"`
	CanonicalURL  string        `json:"url"`
	Tracks        []TrackRecord `json:"tracks"`
}

// ReleaseYear returns the calendar year of the release, or 0 when unknown.
func (a AlbumRecord) ReleaseYear() int {
	if a.ReleaseDate.IsZero() {
		return 0
	}
	return a.ReleaseDate.Year()
}

type ArtistTrack struct {
	Name       string `json:"name"`
	DurationMs int    `json:"duration_ms"`
	Duration   string `json:"duration"`
	Album      string `json:"album"`
	PreviewURL string `json:"preview_url,omitempty"`
}

type ArtistAlbum struct {
	Name        string `json:"name"`
	ImageURL    string `json:"image_url,omitempty"`
	ReleaseDate string `json:"release_date"`
}

type RelatedArtist struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

// ArtistRecord is the primary artist plus optional enrichment. Each enrichment
// slice is independently empty when its upstream call failed.
type ArtistRecord struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	ImageURL       string          `json:"image_url,omitempty"`
	CanonicalURL   string          `json:"url"`
	TopTracks      []ArtistTrack   `json:"top_tracks"`
	TopAlbums      []ArtistAlbum   `json:"top_albums"`
	RelatedArtists []RelatedArtist `json:"related_artists"`
}

type SearchResultType string

const (
	SearchResultAlbum  SearchResultType = "album"
	SearchResultArtist SearchResultType = "artist"
)

type SearchResult struct {
	Type     SearchResultType `json:"type"`
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Artist   string           `json:"artist,omitempty"`
	ImageURL string           `json:"image_url,omitempty"`
}

// DurationDisplay renders milliseconds as minutes:seconds using floor division.
// Minutes are unpadded, seconds are always two digits.
func DurationDisplay(ms int) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

var releaseDateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// ParseReleaseDate accepts the day, month and year precisions the catalog uses.
func ParseReleaseDate(s string) (time.Time, error) {
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized release date %q", s)
}
