package spotify

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"

	"vinylogue/models"
)

const (
	topTracksLimit      = 5
	topAlbumsLimit      = 4
	relatedArtistsLimit = 4
)

// ResolveArtist finds the best match for artist and enriches it with top
// tracks, albums and related artists. The three enrichment calls run
// concurrently; any of them failing leaves that field empty.
func (g *Gateway) ResolveArtist(ctx context.Context, artist string) (models.ArtistRecord, error) {
	query := SanitizeQuery(artist)
	if query == "" {
		return models.ArtistRecord{}, &Error{Kind: KindInvalidInput, Op: "resolve artist"}
	}
	log.Tracef("Resolving artist with query %q", query)

	var results *spotifyclient.SearchResult
	err := g.call(ctx, "search artist", func(ctx context.Context) error {
		var err error
		results, err = g.api.Search(ctx, query, spotifyclient.SearchTypeArtist, spotifyclient.Limit(1))
		return err
	})
	if err != nil {
		return models.ArtistRecord{}, err
	}
	if results == nil || results.Artists == nil || len(results.Artists.Artists) == 0 {
		return models.ArtistRecord{}, &Error{Kind: KindNotFound, Op: "search artist"}
	}
	found := results.Artists.Artists[0]

	record := models.ArtistRecord{
		ID:             string(found.ID),
		Name:           found.Name,
		ImageURL:       firstImageURL(found.Images),
		CanonicalURL:   found.ExternalURLs["spotify"],
		TopTracks:      []models.ArtistTrack{},
		TopAlbums:      []models.ArtistAlbum{},
		RelatedArtists: []models.RelatedArtist{},
	}

	var wg sync.WaitGroup
	wg.Go(func() {
		tracks, err := g.topTracks(ctx, found.ID)
		if err != nil {
			log.Warnf("Top tracks for artist %s unavailable: %v", found.ID, err)
			return
		}
		record.TopTracks = tracks
	})
	wg.Go(func() {
		albums, err := g.topAlbums(ctx, found.ID)
		if err != nil {
			log.Warnf("Albums for artist %s unavailable: %v", found.ID, err)
			return
		}
		record.TopAlbums = albums
	})
	wg.Go(func() {
		related, err := g.relatedArtists(ctx, found.ID)
		if err != nil {
			log.Warnf("Related artists for %s unavailable: %v", found.ID, err)
			return
		}
		record.RelatedArtists = related
	})
	wg.Wait()

	log.Debugf("Resolved artist '%s' (%d top tracks, %d albums, %d related)",
		record.Name, len(record.TopTracks), len(record.TopAlbums), len(record.RelatedArtists))
	return record, nil
}

func (g *Gateway) topTracks(ctx context.Context, id spotifyclient.ID) ([]models.ArtistTrack, error) {
	var tracks []spotifyclient.FullTrack
	err := g.call(ctx, "artist top tracks", func(ctx context.Context) error {
		var err error
		tracks, err = g.api.GetArtistsTopTracks(ctx, id, g.market)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.ArtistTrack, 0, topTracksLimit)
	for _, t := range tracks {
		if len(out) == topTracksLimit {
			break
		}
		ms := int(t.Duration)
		out = append(out, models.ArtistTrack{
			Name:       t.Name,
			DurationMs: ms,
			Duration:   models.DurationDisplay(ms),
			Album:      t.Album.Name,
			PreviewURL: t.PreviewURL,
		})
	}
	return out, nil
}

func (g *Gateway) topAlbums(ctx context.Context, id spotifyclient.ID) ([]models.ArtistAlbum, error) {
	var page *spotifyclient.SimpleAlbumPage
	err := g.call(ctx, "artist albums", func(ctx context.Context) error {
		var err error
		page, err = g.api.GetArtistAlbums(ctx, id,
			[]spotifyclient.AlbumType{spotifyclient.AlbumTypeAlbum, spotifyclient.AlbumTypeSingle},
			spotifyclient.Limit(topAlbumsLimit),
			spotifyclient.Market(g.market),
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.ArtistAlbum, 0, topAlbumsLimit)
	if page == nil {
		return out, nil
	}
	for _, a := range page.Albums {
		if len(out) == topAlbumsLimit {
			break
		}
		out = append(out, models.ArtistAlbum{
			Name:        a.Name,
			ImageURL:    firstImageURL(a.Images),
			ReleaseDate: a.ReleaseDate,
		})
	}
	return out, nil
}

func (g *Gateway) relatedArtists(ctx context.Context, id spotifyclient.ID) ([]models.RelatedArtist, error) {
	var artists []spotifyclient.FullArtist
	err := g.call(ctx, "related artists", func(ctx context.Context) error {
		var err error
		artists, err = g.api.GetRelatedArtists(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.RelatedArtist, 0, relatedArtistsLimit)
	for _, a := range artists {
		if len(out) == relatedArtistsLimit {
			break
		}
		out = append(out, models.RelatedArtist{
			Name:     a.Name,
			ImageURL: firstImageURL(a.Images),
		})
	}
	return out, nil
}
