package card

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"
)

// circleKappa places cubic control points so four segments approximate a circle.
const circleKappa = 0.5522847

const (
	shadowSigma   = 15
	shadowOffsetY = 15
	shadowMargin  = shadowSigma * 3
)

// roundedRectMask returns a rasterizer holding a rounded rectangle of the
// given size in its own coordinate space.
func roundedRectMask(w, h int, radius float32) *vector.Rasterizer {
	z := vector.NewRasterizer(w, h)
	fw, fh := float32(w), float32(h)
	r := min(radius, fw/2, fh/2)

	z.MoveTo(r, 0)
	z.LineTo(fw-r, 0)
	z.QuadTo(fw, 0, fw, r)
	z.LineTo(fw, fh-r)
	z.QuadTo(fw, fh, fw-r, fh)
	z.LineTo(r, fh)
	z.QuadTo(0, fh, 0, fh-r)
	z.LineTo(0, r)
	z.QuadTo(0, 0, r, 0)
	z.ClosePath()
	return z
}

// fillRoundedRect composites src onto dst through a rounded mask covering
// rect. src is sampled starting at sp.
func fillRoundedRect(dst draw.Image, rect image.Rectangle, radius float32, src image.Image, sp image.Point) {
	if rect.Empty() {
		return
	}
	roundedRectMask(rect.Dx(), rect.Dy(), radius).Draw(dst, rect, src, sp)
}

// fillCircle paints a disc of the given colour centred in box.
func fillCircle(dst draw.Image, box image.Rectangle, radius float32, c color.Color) {
	if box.Empty() {
		return
	}
	z := vector.NewRasterizer(box.Dx(), box.Dy())
	cx, cy := float32(box.Dx())/2, float32(box.Dy())/2
	k := radius * circleKappa

	z.MoveTo(cx+radius, cy)
	z.CubeTo(cx+radius, cy+k, cx+k, cy+radius, cx, cy+radius)
	z.CubeTo(cx-k, cy+radius, cx-radius, cy+k, cx-radius, cy)
	z.CubeTo(cx-radius, cy-k, cx-k, cy-radius, cx, cy-radius)
	z.CubeTo(cx+k, cy-radius, cx+radius, cy-k, cx+radius, cy)
	z.ClosePath()
	z.Draw(dst, box, image.NewUniform(c), image.Point{})
}

// drawBrandMark paints the stylised play logo: a primary disc carrying a
// dark ring and a dark centre.
func drawBrandMark(dst draw.Image, box image.Rectangle) {
	scale := float32(box.Dx()) / brandSize
	fillCircle(dst, box, 12*scale, colorPrimary)
	fillCircle(dst, box, 8*scale, colorBlack)
	fillCircle(dst, box, 6*scale, colorPrimary)
	fillCircle(dst, box, 4*scale, colorBlack)
}

// drawArtworkShadow paints a blurred drop shadow under the artwork box. The
// shadow is clipped to the panel so pixels outside it stay fully transparent.
func drawArtworkShadow(dst draw.Image, artwork, panel image.Rectangle) {
	w := artwork.Dx() + shadowMargin*2
	h := artwork.Dy() + shadowMargin*2
	local := imaging.New(w, h, color.NRGBA{})
	box := image.Rect(shadowMargin, shadowMargin, shadowMargin+artwork.Dx(), shadowMargin+artwork.Dy())
	fillRoundedRect(local, box, artworkRadius, image.NewUniform(colorShadow), image.Point{})
	blurred := imaging.Blur(local, shadowSigma)

	layer := image.NewNRGBA(dst.Bounds())
	origin := artwork.Min.Add(image.Pt(-shadowMargin, shadowOffsetY-shadowMargin))
	draw.Draw(layer, image.Rectangle{Min: origin, Max: origin.Add(blurred.Bounds().Size())}, blurred, image.Point{}, draw.Src)

	fillRoundedRect(dst, panel, panelRadius, layer, panel.Min)
}

// drawArtwork scales art to cover the artwork box and clips it to rounded corners.
func drawArtwork(dst draw.Image, box image.Rectangle, art image.Image) {
	scaled := imaging.Fill(art, box.Dx(), box.Dy(), imaging.Center, imaging.Lanczos)
	fillRoundedRect(dst, box, artworkRadius, scaled, image.Point{})
}
