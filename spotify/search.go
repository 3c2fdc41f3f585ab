package spotify

import (
	"context"

	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"

	"vinylogue/models"
)

const searchLimit = 8

// Search returns albums followed by artists matching query. A query that
// sanitizes to nothing yields no results and no upstream call.
func (g *Gateway) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = SanitizeQuery(query)
	if query == "" {
		return []models.SearchResult{}, nil
	}
	log.Tracef("Searching catalog for %q", query)

	var results *spotifyclient.SearchResult
	err := g.call(ctx, "search", func(ctx context.Context) error {
		var err error
		results, err = g.api.Search(ctx, query,
			spotifyclient.SearchTypeAlbum|spotifyclient.SearchTypeArtist,
			spotifyclient.Limit(searchLimit),
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := []models.SearchResult{}
	if results == nil {
		return out, nil
	}
	if results.Albums != nil {
		for _, a := range results.Albums.Albums {
			r := models.SearchResult{
				Type:     models.SearchResultAlbum,
				ID:       string(a.ID),
				Name:     a.Name,
				ImageURL: firstImageURL(a.Images),
			}
			if len(a.Artists) > 0 {
				r.Artist = a.Artists[0].Name
			}
			out = append(out, r)
		}
	}
	if results.Artists != nil {
		for _, a := range results.Artists.Artists {
			out = append(out, models.SearchResult{
				Type:     models.SearchResultArtist,
				ID:       string(a.ID),
				Name:     a.Name,
				ImageURL: firstImageURL(a.Images),
			})
		}
	}
	return out, nil
}
