// Package hud rasterizes the debug overlay text into an RGBA image.
package hud

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Panel draws lines of text onto a fixed-size, semi-transparent backdrop.
// The returned image is reused between calls.
type Panel struct {
	ctx  *freetype.Context
	dst  *image.RGBA
	size float64

	Background color.RGBA
	Foreground color.RGBA
	Padding    int
}

func NewPanel(w, h int, sizePt float64) (*Panel, error) {
	if w <= 0 || h <= 0 || sizePt <= 0 {
		return nil, fmt.Errorf("hud panel: invalid geometry %dx%d at %vpt", w, h, sizePt)
	}
	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("hud panel: parse font: %w", err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(f)
	ctx.SetFontSize(sizePt)
	ctx.SetDst(dst)
	ctx.SetClip(dst.Bounds())
	ctx.SetHinting(font.HintingFull)

	return &Panel{
		ctx:        ctx,
		dst:        dst,
		size:       sizePt,
		Background: color.RGBA{A: 160},
		Foreground: color.RGBA{R: 235, G: 235, B: 235, A: 255},
		Padding:    6,
	}, nil
}

// LineHeight is the baseline-to-baseline distance in pixels.
func (p *Panel) LineHeight() int {
	return int(p.ctx.PointToFixed(p.size*1.3) >> 6)
}

func (p *Panel) Bounds() image.Rectangle { return p.dst.Bounds() }

// Draw clears the panel and renders lines top to bottom. Lines that do not
// fit are dropped.
func (p *Panel) Draw(lines []string) (*image.RGBA, error) {
	draw.Draw(p.dst, p.dst.Bounds(), image.NewUniform(p.Background), image.Point{}, draw.Src)
	p.ctx.SetSrc(image.NewUniform(p.Foreground))

	lh := p.LineHeight()
	ascent := int(p.ctx.PointToFixed(p.size) >> 6)
	y := p.Padding + ascent
	for _, line := range lines {
		if y > p.dst.Bounds().Dy() {
			break
		}
		if _, err := p.ctx.DrawString(line, freetype.Pt(p.Padding, y)); err != nil {
			return nil, fmt.Errorf("hud panel: draw %q: %w", line, err)
		}
		y += lh
	}
	return p.dst, nil
}
