package card

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"vinylogue/models"
)

// Canvas geometry. Documents embedding cards rely on the exact size.
const (
	Width       = 1200
	Height      = 630
	Padding     = 40
	ArtworkSize = 250

	panelRadius   = 20
	artworkRadius = 12

	ContentX     = Padding*2 + ArtworkSize + Padding*2
	ContentWidth = Width - ContentX - Padding*3
	contentTop   = Padding * 2

	titleLineHeight = 56
	titleGap        = 40 // after the title block, larger than the natural line height
	lineStep        = 56

	MaxTrackRows    = 4
	trackRowPitch   = 44
	trackBaseline   = 24
	trackNameIndent = 48
	durationReserve = 160

	brandSize   = 24
	brandGap    = 12
	footerLineY = Height - Padding*2
)

var (
	titleStyle     = Style{Size: 48, Bold: true}
	artistStyle    = Style{Size: 32}
	releaseStyle   = Style{Size: 24}
	numberStyle    = Style{Size: 20}
	trackStyle     = Style{Size: 24}
	durationStyle  = Style{Size: 20}
	playStyle      = Style{Size: 20}
	watermarkStyle = Style{Size: 18}
)

var (
	colorPanel         = color.NRGBA{R: 39, G: 39, B: 42, A: 242}
	colorPrimary       = color.NRGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff}
	colorText          = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorTextSecondary = color.NRGBA{R: 0xa1, G: 0xa1, B: 0xaa, A: 0xff}
	colorTextTertiary  = color.NRGBA{R: 0x71, G: 0x71, B: 0x7a, A: 0xff}
	colorShadow        = color.NRGBA{A: 102}
	colorBlack         = color.NRGBA{A: 0xff}
)

const playLabel = "Play on Spotify"

// TextOp is one string drawn with its baseline origin at (X, Y).
type TextOp struct {
	Text  string
	Style Style
	X, Y  float64
	Color color.NRGBA
}

type TrackRow struct {
	Number   TextOp
	Name     TextOp
	Duration TextOp
}

// Layout is every positioned element of a card, computed before any pixel
// is drawn.
type Layout struct {
	Panel     image.Rectangle
	Artwork   image.Rectangle
	Title     []TextOp
	Artist    TextOp
	Release   TextOp
	Tracks    []TrackRow
	Brand     image.Rectangle
	Play      TextOp
	Watermark TextOp
}

// TextOps returns the text elements in drawing order.
func (l *Layout) TextOps() []TextOp {
	ops := make([]TextOp, 0, len(l.Title)+len(l.Tracks)*3+4)
	ops = append(ops, l.Title...)
	ops = append(ops, l.Artist, l.Release)
	for _, row := range l.Tracks {
		ops = append(ops, row.Number, row.Name, row.Duration)
	}
	return append(ops, l.Play, l.Watermark)
}

// ReleaseLine is "<year> • <n> tracks", or just the count when the year is unknown.
func ReleaseLine(album models.AlbumRecord) string {
	if year := album.ReleaseYear(); year > 0 {
		return fmt.Sprintf("%d • %d tracks", year, len(album.Tracks))
	}
	return fmt.Sprintf("%d tracks", len(album.Tracks))
}

// PlanLayout positions every element of the card for album.
func PlanLayout(album models.AlbumRecord, m Measurer, watermark string) (*Layout, error) {
	l := &Layout{
		Panel:   image.Rect(Padding, Padding, Width-Padding, Height-Padding),
		Artwork: image.Rect(Padding*2, Padding*2, Padding*2+ArtworkSize, Padding*2+ArtworkSize),
	}
	y := float64(contentTop)

	lines, err := WrapText(m, album.Title, titleStyle, ContentWidth)
	if err != nil {
		return nil, fmt.Errorf("wrapping title: %w", err)
	}
	for i, line := range lines {
		l.Title = append(l.Title, TextOp{
			Text:  line,
			Style: titleStyle,
			X:     ContentX,
			Y:     y + titleLineHeight + float64(i*titleLineHeight),
			Color: colorText,
		})
	}

	y += float64(len(lines)*titleLineHeight + titleGap)
	artist, err := TruncateText(m, strings.Join(album.ArtistNames, ", "), artistStyle, ContentWidth)
	if err != nil {
		return nil, fmt.Errorf("truncating artist: %w", err)
	}
	l.Artist = TextOp{Text: artist, Style: artistStyle, X: ContentX, Y: y, Color: colorPrimary}

	y += lineStep
	l.Release = TextOp{Text: ReleaseLine(album), Style: releaseStyle, X: ContentX, Y: y, Color: colorTextSecondary}

	y += lineStep
	columnRight := float64(ContentX + ContentWidth)
	for i, track := range album.Tracks {
		if i == MaxTrackRows {
			break
		}
		baseline := y + float64(i*trackRowPitch+trackBaseline)

		name, err := TruncateText(m, track.Name, trackStyle, ContentWidth-durationReserve)
		if err != nil {
			return nil, fmt.Errorf("truncating track %d: %w", track.TrackNumber, err)
		}
		duration := track.DurationDisplay()
		dw, err := m.MeasureWidth(duration, durationStyle)
		if err != nil {
			return nil, fmt.Errorf("measuring duration: %w", err)
		}

		l.Tracks = append(l.Tracks, TrackRow{
			Number: TextOp{
				Text:  fmt.Sprintf("%02d", track.TrackNumber),
				Style: numberStyle,
				X:     ContentX,
				Y:     baseline,
				Color: colorTextSecondary,
			},
			Name: TextOp{
				Text:  name,
				Style: trackStyle,
				X:     ContentX + trackNameIndent,
				Y:     baseline,
				Color: colorText,
			},
			Duration: TextOp{
				Text:  duration,
				Style: durationStyle,
				X:     columnRight - dw,
				Y:     baseline,
				Color: colorTextSecondary,
			},
		})
	}

	l.Brand = image.Rect(ContentX, footerLineY-32, ContentX+brandSize, footerLineY-32+brandSize)
	l.Play = TextOp{
		Text:  playLabel,
		Style: playStyle,
		X:     ContentX + brandSize + brandGap,
		Y:     footerLineY - 16,
		Color: colorPrimary,
	}

	ww, err := m.MeasureWidth(watermark, watermarkStyle)
	if err != nil {
		return nil, fmt.Errorf("measuring watermark: %w", err)
	}
	l.Watermark = TextOp{
		Text:  watermark,
		Style: watermarkStyle,
		X:     float64(Width-Padding*2) - ww,
		Y:     footerLineY - 16,
		Color: colorTextTertiary,
	}

	return l, nil
}
