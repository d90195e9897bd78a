package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// kappa is the cubic control distance that approximates a quarter circle.
const kappa = 0.5522847498

// roundedRect appends a rounded rectangle to z. Coordinates are in z's space.
func roundedRect(z *vector.Rasterizer, x, y, w, h, r float32) {
	r = min(r, w/2, h/2)
	k := r * kappa
	z.MoveTo(x+r, y)
	z.LineTo(x+w-r, y)
	z.CubeTo(x+w-r+k, y, x+w, y+r-k, x+w, y+r)
	z.LineTo(x+w, y+h-r)
	z.CubeTo(x+w, y+h-r+k, x+w-r+k, y+h, x+w-r, y+h)
	z.LineTo(x+r, y+h)
	z.CubeTo(x+r-k, y+h, x, y+h-r+k, x, y+h-r)
	z.LineTo(x, y+r)
	z.CubeTo(x, y+r-k, x+r-k, y, x+r, y)
	z.ClosePath()
}

// star appends a five-pointed star centred on (cx, cy).
func star(z *vector.Rasterizer, cx, cy, outer, inner float32) {
	for i := 0; i < 10; i++ {
		radius := outer
		if i%2 == 1 {
			radius = inner
		}
		angle := -math.Pi/2 + float64(i)*math.Pi/5
		px := cx + radius*float32(math.Cos(angle))
		py := cy + radius*float32(math.Sin(angle))
		if i == 0 {
			z.MoveTo(px, py)
		} else {
			z.LineTo(px, py)
		}
	}
	z.ClosePath()
}

// fillRoundedRect paints a rounded rectangle (device pixels) with src.
// src is sampled in dst coordinates.
func fillRoundedRect(dst draw.Image, rect image.Rectangle, radius float32, src image.Image) {
	z := vector.NewRasterizer(rect.Dx(), rect.Dy())
	z.DrawOp = draw.Over
	roundedRect(z, 0, 0, float32(rect.Dx()), float32(rect.Dy()), radius)
	z.Draw(dst, rect, src, rect.Min)
}

// clipRoundedRect paints img (whose bounds start at 0,0) into rect, clipped to
// a rounded rectangle.
func clipRoundedRect(dst draw.Image, rect image.Rectangle, radius float32, img image.Image) {
	z := vector.NewRasterizer(rect.Dx(), rect.Dy())
	z.DrawOp = draw.Over
	roundedRect(z, 0, 0, float32(rect.Dx()), float32(rect.Dy()), radius)
	z.Draw(dst, rect, img, img.Bounds().Min)
}

func fillRect(dst draw.Image, rect image.Rectangle, c color.Color) {
	draw.Draw(dst, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

// diagonalGradient is a two-stop linear gradient running from the top-left to
// the bottom-right corner of rect.
type diagonalGradient struct {
	rect     image.Rectangle
	from, to color.RGBA
}

func (g diagonalGradient) ColorModel() color.Model { return color.RGBAModel }

func (g diagonalGradient) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (g diagonalGradient) At(x, y int) color.Color {
	dx := float64(g.rect.Dx())
	dy := float64(g.rect.Dy())
	den := dx*dx + dy*dy
	t := 0.0
	if den > 0 {
		t = (float64(x-g.rect.Min.X)*dx + float64(y-g.rect.Min.Y)*dy) / den
	}
	t = math.Max(0, math.Min(1, t))
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return color.RGBA{
		R: lerp(g.from.R, g.to.R),
		G: lerp(g.from.G, g.to.G),
		B: lerp(g.from.B, g.to.B),
		A: lerp(g.from.A, g.to.A),
	}
}
