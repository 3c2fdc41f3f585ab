package spotify

import (
	"context"

	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"

	"vinylogue/models"
)

// ResolveAlbum finds the best match for album by artist and returns its full
// record. The first search result is taken as-is; relevance ranking is left
// to the catalog.
func (g *Gateway) ResolveAlbum(ctx context.Context, artist, album string) (models.AlbumRecord, error) {
	query, ok := albumQuery(artist, album)
	if !ok {
		return models.AlbumRecord{}, &Error{Kind: KindInvalidInput, Op: "resolve album"}
	}
	log.Tracef("Resolving album with query %q", query)

	var results *spotifyclient.SearchResult
	err := g.call(ctx, "search album", func(ctx context.Context) error {
		var err error
		results, err = g.api.Search(ctx, query, spotifyclient.SearchTypeAlbum, spotifyclient.Limit(1))
		return err
	})
	if err != nil {
		return models.AlbumRecord{}, err
	}
	if results == nil || results.Albums == nil || len(results.Albums.Albums) == 0 {
		return models.AlbumRecord{}, &Error{Kind: KindNotFound, Op: "search album"}
	}
	id := results.Albums.Albums[0].ID

	var full *spotifyclient.FullAlbum
	err = g.call(ctx, "get album", func(ctx context.Context) error {
		var err error
		full, err = g.api.GetAlbum(ctx, id)
		return err
	})
	if err != nil {
		return models.AlbumRecord{}, err
	}

	record := albumRecord(full)
	log.Debugf("Resolved album '%s' by %v (%d tracks)", record.Title, record.ArtistNames, len(record.Tracks))
	return record, nil
}

func albumRecord(a *spotifyclient.FullAlbum) models.AlbumRecord {
	artists := make([]string, 0, len(a.Artists))
	for _, artist := range a.Artists {
		artists = append(artists, artist.Name)
	}

	tracks := make([]models.TrackRecord, 0, len(a.Tracks.Tracks))
	for _, t := range a.Tracks.Tracks {
		tracks = append(tracks, models.TrackRecord{
			Name:        t.Name,
			DurationMs:  int(t.Duration),
			TrackNumber: int(t.TrackNumber),
			PreviewURL:  t.PreviewURL,
		})
	}

	released, err := models.ParseReleaseDate(a.ReleaseDate)
	if err != nil {
		log.Warnf("Album %s: %v", a.ID, err)
	}

	return models.AlbumRecord{
		ID:            string(a.ID),
		Title:         a.Name,
		ArtistNames:   artists,
		ReleaseDate:   released,
		CoverImageURL: firstImageURL(a.Images),
		CanonicalURL:  a.ExternalURLs["spotify"],
		Tracks:        tracks,
	}
}
