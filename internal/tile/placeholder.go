package tile

import (
	"image"
	"image/draw"
)

// PlaceholderTiles is the width and height, in tiles, of a generated atlas.
const PlaceholderTiles = 16

// Placeholder generates an atlas for the categories registered on a. Each
// mapped tile is filled with its category colour and shaded along the edges
// whose neighbor does not match, so autotiling stays visible without art.
func Placeholder(tileU, tileV int, a *Autotiler) (*Atlas, error) {
	if tileU <= 0 || tileV <= 0 {
		return nil, ErrAtlasGeometry
	}
	img := image.NewRGBA(image.Rect(0, 0, PlaceholderTiles*tileU, PlaceholderTiles*tileV))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)

	p := &painter{img: img, tileU: tileU, tileV: tileV}
	for _, c := range a.Categories() {
		painted := make(map[uint16]bool)
		for m := 0; m < 256; m++ {
			idx, ok := c.Table.Lookup(uint8(m))
			if !ok || painted[idx] {
				continue
			}
			painted[idx] = true
			p.tile(idx, CategoryColor(c.Type), uint8(m), c.Layout != LayoutCardinal)
		}
		if !painted[c.Solid] {
			p.tile(c.Solid, CategoryColor(c.Type), 0xFF, false)
		}
	}
	p.unknown(a.Unknown)

	return NewAtlas(img, tileU, tileV)
}

type painter struct {
	img          *image.RGBA
	tileU, tileV int
}

func (p *painter) origin(idx uint16) (int, int, bool) {
	n := int(idx)
	if n >= PlaceholderTiles*PlaceholderTiles {
		return 0, 0, false
	}
	return (n % PlaceholderTiles) * p.tileU, (n / PlaceholderTiles) * p.tileV, true
}

func (p *painter) tile(idx uint16, base RGB, mask uint8, corners bool) {
	x0, y0, ok := p.origin(idx)
	if !ok {
		return
	}
	edge := base.Mul(Palette.Edge)
	bw := max(1, p.tileU/8)
	bh := max(1, p.tileV/8)

	for y := 0; y < p.tileV; y++ {
		for x := 0; x < p.tileU; x++ {
			col := base
			top, bottom := y < bh, y >= p.tileV-bh
			left, right := x < bw, x >= p.tileU-bw
			switch {
			case top && mask&BitN == 0,
				bottom && mask&BitS == 0,
				left && mask&BitW == 0,
				right && mask&BitE == 0:
				col = edge
			case corners && top && right && mask&BitNE == 0,
				corners && bottom && right && mask&BitSE == 0,
				corners && bottom && left && mask&BitSW == 0,
				corners && top && left && mask&BitNW == 0:
				col = edge
			}
			p.img.SetRGBA(x0+x, y0+y, col.RGBA())
		}
	}
}

func (p *painter) unknown(idx uint16) {
	x0, y0, ok := p.origin(idx)
	if !ok {
		return
	}
	dark := Palette.Unknown.Mul(64)
	for y := 0; y < p.tileV; y++ {
		for x := 0; x < p.tileU; x++ {
			col := Palette.Unknown
			if (x*2/p.tileU+y*2/p.tileV)%2 == 1 {
				col = dark
			}
			p.img.SetRGBA(x0+x, y0+y, col.RGBA())
		}
	}
}
