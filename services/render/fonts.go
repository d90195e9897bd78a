package render

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
	fontsErr    error
)

func parseFonts() error {
	fontsOnce.Do(func() {
		regularFont, fontsErr = opentype.Parse(goregular.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("parse regular font: %w", fontsErr)
			return
		}
		boldFont, fontsErr = opentype.Parse(gobold.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("parse bold font: %w", fontsErr)
		}
	})
	return fontsErr
}

// faces holds every face used on the card, sized for one pixel density.
type faces struct {
	title    font.Face
	year     font.Face
	body     font.Face
	bodyBold font.Face
	label    font.Face
	scale    float64
}

func newFaces(scale float64) (*faces, error) {
	if err := parseFonts(); err != nil {
		return nil, err
	}
	mk := func(f *opentype.Font, size float64) (font.Face, error) {
		return opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size * scale,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}
	fs := &faces{scale: scale}
	var err error
	if fs.title, err = mk(boldFont, titleSize); err != nil {
		return nil, err
	}
	if fs.year, err = mk(regularFont, yearSize); err != nil {
		return nil, err
	}
	if fs.body, err = mk(regularFont, bodySize); err != nil {
		return nil, err
	}
	if fs.bodyBold, err = mk(boldFont, bodySize); err != nil {
		return nil, err
	}
	if fs.label, err = mk(regularFont, labelSize); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *faces) Close() {
	for _, f := range []font.Face{fs.title, fs.year, fs.body, fs.bodyBold, fs.label} {
		if f != nil {
			_ = f.Close()
		}
	}
}

// measurer returns a width function in logical pixels for a face.
func (fs *faces) measurer(face font.Face) func(string) float64 {
	return func(s string) float64 {
		return fixedToFloat(font.MeasureString(face, s)) / fs.scale
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
