// Package render rasterizes a review card into an RGBA image.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/vector"
)

// Card layout in logical pixels. The surface is Width x Card.Height; the card
// body starts at bodyTop and the poster floats over its top edge.
const (
	Width = 400

	bodyTop    = 40
	bodyRadius = 24

	posterX      = 140
	posterY      = 12
	posterW      = 120
	posterH      = 180
	posterRadius = 12
	posterFrame  = 4

	titleSize     = 22
	titleBaseline = 220
	yearSize      = 16
	yearBaseline  = 243

	starCount  = 5
	starCenter = 262
	starPitch  = 28
	starOuter  = 10
	starInner  = 4.2

	dividerY      = 288
	bodySize      = 14
	textBaseline  = 314
	lineHeight    = 22
	TextMaxWidth  = 304
	contentMargin = 24

	attributionInset = 24
	attributionGap   = 30
	labelSize        = 13
)

var (
	gradientFrom   = color.RGBA{0x4a, 0x55, 0x68, 0xff}
	gradientTo     = color.RGBA{0x2d, 0x37, 0x48, 0xff}
	colorWhite     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorMutedText = color.RGBA{0xd1, 0xd5, 0xdb, 0xff}
	colorStarOn    = color.RGBA{0x4a, 0xde, 0x80, 0xff}
	colorStarOff   = color.RGBA{0x4b, 0x55, 0x63, 0xff}
	colorDivider   = color.RGBA{0x4b, 0x55, 0x63, 0xff}
	colorSlot      = color.RGBA{0x37, 0x41, 0x51, 0xff}
	colorSlotLabel = color.RGBA{0x9c, 0xa3, 0xaf, 0xff}
)

// PlaceholderLabel is drawn in the poster slot when no artwork is available.
const PlaceholderLabel = "No image"

// Card is everything the rasterizer draws.
type Card struct {
	Title        string
	Year         string
	Rating       int
	ReviewText   string
	ReviewerName string
	Expanded     bool
	HasReview    bool
	Height       int
	Poster       image.Image // nil draws the placeholder
}

// Result is a rendered card plus what was drawn, for callers that need to
// report on it.
type Result struct {
	Image       *image.RGBA
	Lines       []string
	Placeholder bool
}

// Render draws the card at the given pixel density.
func Render(c Card, scale int) (*Result, error) {
	if scale < 1 {
		return nil, fmt.Errorf("invalid scale %d", scale)
	}
	if c.Height <= bodyTop {
		return nil, fmt.Errorf("invalid card height %d", c.Height)
	}

	fs, err := newFaces(float64(scale))
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}
	defer fs.Close()

	s := float32(scale)
	dst := image.NewRGBA(image.Rect(0, 0, Width*scale, c.Height*scale))
	res := &Result{Image: dst}

	body := image.Rect(0, bodyTop*scale, Width*scale, c.Height*scale)
	fillRoundedRect(dst, body, bodyRadius*s, diagonalGradient{rect: body, from: gradientFrom, to: gradientTo})

	res.Placeholder = drawPoster(dst, fs, c.Poster, scale)

	title := Ellipsize(fs.measurer(fs.title), c.Title, Width-2*contentMargin)
	drawCentered(dst, fs, fs.title, title, titleBaseline, colorWhite)
	drawCentered(dst, fs, fs.year, c.Year, yearBaseline, colorMutedText)

	drawStars(dst, c.Rating, s)

	if c.HasReview {
		fillRect(dst, image.Rect(2*contentMargin*scale, dividerY*scale, (Width-2*contentMargin)*scale, dividerY*scale+scale), colorDivider)
		res.Lines = drawReviewText(dst, fs, c.ReviewText, c.Height)
	}

	if c.Expanded {
		drawAttribution(dst, fs, c.ReviewerName, c.Height-attributionInset)
	}

	return res, nil
}

// EncodePNG serializes an image as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawPoster(dst *image.RGBA, fs *faces, poster image.Image, scale int) bool {
	s := float32(scale)
	frame := image.Rect(
		(posterX-posterFrame)*scale, (posterY-posterFrame)*scale,
		(posterX+posterW+posterFrame)*scale, (posterY+posterH+posterFrame)*scale,
	)
	fillRoundedRect(dst, frame, (posterRadius+posterFrame)*s, image.NewUniform(colorWhite))

	slot := image.Rect(posterX*scale, posterY*scale, (posterX+posterW)*scale, (posterY+posterH)*scale)
	if poster == nil || poster.Bounds().Empty() {
		fillRoundedRect(dst, slot, posterRadius*s, image.NewUniform(colorSlot))
		baseline := posterY + posterH/2 + labelSize/3
		drawCentered(dst, fs, fs.label, PlaceholderLabel, baseline, colorSlotLabel)
		return true
	}

	clipRoundedRect(dst, slot, posterRadius*s, coverScale(poster, slot.Dx(), slot.Dy()))
	return false
}

// coverScale crops src to the target aspect ratio around its centre and
// scales it to w x h, like CSS object-fit: cover.
func coverScale(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	var crop image.Rectangle
	if b.Dx()*h > b.Dy()*w {
		cw := b.Dy() * w / h
		x0 := b.Min.X + (b.Dx()-cw)/2
		crop = image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	} else {
		ch := b.Dx() * h / w
		y0 := b.Min.Y + (b.Dy()-ch)/2
		crop = image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), src, crop, xdraw.Src, nil)
	return out
}

func drawStars(dst *image.RGBA, rating int, s float32) {
	first := float32(Width)/2 - float32(starCount-1)*starPitch/2
	size := int(2*starOuter*s) + 2
	for i := 0; i < starCount; i++ {
		c := colorStarOff
		if i < rating {
			c = colorStarOn
		}
		cx := (first + float32(i)*starPitch) * s
		cy := starCenter * s
		box := image.Rect(int(cx)-size/2, int(cy)-size/2, int(cx)-size/2+size, int(cy)-size/2+size)
		z := vector.NewRasterizer(size, size)
		star(z, cx-float32(box.Min.X), cy-float32(box.Min.Y), starOuter*s, starInner*s)
		z.Draw(dst, box, image.NewUniform(c), image.Point{})
	}
}

// drawReviewText wraps and draws the review, dropping lines that would run
// into the attribution. It returns the lines actually drawn.
func drawReviewText(dst *image.RGBA, fs *faces, text string, height int) []string {
	measure := fs.measurer(fs.body)
	lines := WrapText(measure, text, TextMaxWidth)
	lastBaseline := height - attributionInset - attributionGap
	fit := 0
	for i := range lines {
		if textBaseline+i*lineHeight > lastBaseline {
			break
		}
		fit++
	}
	if fit < len(lines) {
		lines = lines[:fit]
		if fit > 0 {
			lines[fit-1] = withEllipsis(measure, lines[fit-1], TextMaxWidth)
		}
	}
	for i, line := range lines {
		drawCentered(dst, fs, fs.body, line, textBaseline+i*lineHeight, colorWhite)
	}
	return lines
}

// drawAttribution centres "Review by <name>" as one unit: the combined width
// is measured first, then each segment is drawn from the shared start offset.
func drawAttribution(dst *image.RGBA, fs *faces, name string, baseline int) {
	const prefix = "Review by "
	prefixW := font.MeasureString(fs.body, prefix)
	nameW := font.MeasureString(fs.bodyBold, name)
	total := fixedToFloat(prefixW + nameW)
	start := (float64(dst.Bounds().Dx()) - total) / 2
	y := float64(baseline) * fs.scale

	drawString(dst, fs.body, prefix, start, y, colorMutedText)
	drawString(dst, fs.bodyBold, name, start+fixedToFloat(prefixW), y, colorWhite)
}

// drawCentered draws s horizontally centred at a logical baseline.
func drawCentered(dst *image.RGBA, fs *faces, face font.Face, s string, baseline int, c color.Color) {
	w := fixedToFloat(font.MeasureString(face, s))
	x := (float64(dst.Bounds().Dx()) - w) / 2
	drawString(dst, face, s, x, float64(baseline)*fs.scale, c)
}

// drawString draws s with its baseline origin at device pixel (x, y).
func drawString(dst *image.RGBA, face font.Face, s string, x, y float64, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	d.Dot.X = floatToFixed(x)
	d.Dot.Y = floatToFixed(y)
	d.DrawString(s)
}
