// Package card composes album cards: a fixed-size transparent PNG with a
// rounded panel, cover artwork, wrapped title, artist, release line, the
// first tracks and a footer.
package card

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"vinylogue/models"
)

// ErrRender wraps every compositing or encoding failure.
var ErrRender = errors.New("card render failed")

const DefaultWatermark = "Generated by Vinylogue"

type Options struct {
	// Fetcher loads cover artwork. Nil renders cards without artwork.
	Fetcher   ArtworkFetcher
	Watermark string
}

// Renderer is safe for concurrent use; each render owns its canvas and faces.
type Renderer struct {
	fetcher   ArtworkFetcher
	watermark string
}

func NewRenderer(opts Options) *Renderer {
	watermark := opts.Watermark
	if watermark == "" {
		watermark = DefaultWatermark
	}
	return &Renderer{fetcher: opts.Fetcher, watermark: watermark}
}

// Render composes the card for album and encodes it as PNG.
func (r *Renderer) Render(ctx context.Context, album models.AlbumRecord) ([]byte, error) {
	span := sentry.StartSpan(ctx, "card.render")
	span.Description = "Render card: " + album.Title
	defer span.Finish()

	img, err := r.Compose(span.Context(), album)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("%w: encoding png: %v", ErrRender, err)
	}
	span.Status = sentry.SpanStatusOK
	log.Debugf("Rendered card for '%s' (%d bytes)", album.Title, buf.Len())
	return buf.Bytes(), nil
}

// Compose draws the card without encoding it.
func (r *Renderer) Compose(ctx context.Context, album models.AlbumRecord) (*image.RGBA, error) {
	art := r.artwork(ctx, album.CoverImageURL)

	fonts, err := newFontBook()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	defer fonts.Close()

	layout, err := PlanLayout(album, fonts, r.watermark)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	fillRoundedRect(canvas, layout.Panel, panelRadius, image.NewUniform(colorPanel), image.Point{})
	if art != nil {
		drawArtworkShadow(canvas, layout.Artwork, layout.Panel)
		drawArtwork(canvas, layout.Artwork, art)
	}
	drawBrandMark(canvas, layout.Brand)

	for _, op := range layout.TextOps() {
		if err := drawText(canvas, fonts, op); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRender, err)
		}
	}
	return canvas, nil
}

// artwork returns nil when there is no URL or the fetch fails; the card is
// still drawn, just without the cover.
func (r *Renderer) artwork(ctx context.Context, url string) image.Image {
	if url == "" || r.fetcher == nil {
		return nil
	}
	span := sentry.StartSpan(ctx, "card.artwork")
	defer span.Finish()

	img, err := r.fetcher.Fetch(span.Context(), url)
	if err != nil {
		span.Status = sentry.SpanStatusUnavailable
		log.Warnf("Artwork unavailable, rendering without it: %v", err)
		return nil
	}
	span.Status = sentry.SpanStatusOK
	return img
}

func drawText(dst draw.Image, fonts *fontBook, op TextOp) error {
	if op.Text == "" {
		return nil
	}
	face, err := fonts.face(op.Style)
	if err != nil {
		return err
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(op.Color),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(op.X * 64), Y: fixed.Int26_6(op.Y * 64)},
	}
	d.DrawString(op.Text)
	return nil
}
