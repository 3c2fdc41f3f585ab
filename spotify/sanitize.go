package spotify

import (
	"regexp"
	"strings"
)

var (
	disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// SanitizeQuery keeps only letters, digits and whitespace, collapses
// whitespace runs to a single space and trims the result.
func SanitizeQuery(s string) string {
	s = disallowedChars.ReplaceAllString(s, "")
	s = whitespaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// albumQuery builds the upstream album search string. ok is false when
// either part sanitizes to nothing.
func albumQuery(artist, album string) (query string, ok bool) {
	artist = SanitizeQuery(artist)
	album = SanitizeQuery(album)
	if artist == "" || album == "" {
		return "", false
	}
	return album + " artist:" + artist, true
}
