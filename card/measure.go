package card

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Style selects a face: pixel size and weight.
type Style struct {
	Size float64
	Bold bool
}

// Measurer reports the advance width of text in a given style. Layout only
// depends on this, so it can be exercised without a rasterizer.
type Measurer interface {
	MeasureWidth(text string, style Style) (float64, error)
}

type fontSet struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// Parsed fonts are safe to share; faces are not, so each render gets its own fontBook.
var loadFonts = sync.OnceValues(func() (fontSet, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return fontSet{}, fmt.Errorf("parsing regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return fontSet{}, fmt.Errorf("parsing bold font: %w", err)
	}
	return fontSet{regular: regular, bold: bold}, nil
})

// fontBook lazily creates one face per style for a single render.
type fontBook struct {
	fonts fontSet
	faces map[Style]font.Face
}

func newFontBook() (*fontBook, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &fontBook{fonts: fonts, faces: make(map[Style]font.Face)}, nil
}

func (b *fontBook) face(style Style) (font.Face, error) {
	if f, ok := b.faces[style]; ok {
		return f, nil
	}
	src := b.fonts.regular
	if style.Bold {
		src = b.fonts.bold
	}
	// 72 DPI makes Size a pixel size.
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    style.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %.0fpx face: %w", style.Size, err)
	}
	b.faces[style] = f
	return f, nil
}

func (b *fontBook) MeasureWidth(text string, style Style) (float64, error) {
	f, err := b.face(style)
	if err != nil {
		return 0, err
	}
	return float64(font.MeasureString(f, text)) / 64, nil
}

func (b *fontBook) Close() {
	for _, f := range b.faces {
		_ = f.Close()
	}
}
