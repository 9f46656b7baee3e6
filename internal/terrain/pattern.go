package terrain

import (
	"fmt"

	"tilestream/internal/tile"
)

// DefaultPattern is the hand-drawn 16x16 grass/water/forest map the engine
// shipped with before it had generated terrain.
var DefaultPattern = [][]uint8{
	{2, 2, 1, 2, 2, 1, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2},
	{2, 2, 1, 1, 2, 1, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2},
	{2, 0, 0, 1, 1, 1, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2},
	{0, 0, 0, 0, 1, 1, 2, 2, 2, 2, 0, 0, 0, 2, 2, 2},
	{0, 0, 0, 0, 1, 1, 1, 2, 2, 0, 0, 0, 0, 0, 2, 2},
	{0, 0, 0, 0, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 2, 2},
	{0, 0, 0, 2, 2, 1, 1, 1, 2, 2, 0, 0, 0, 0, 0, 2},
	{0, 0, 0, 2, 2, 2, 1, 1, 1, 2, 0, 0, 0, 0, 0, 2},
	{0, 0, 0, 0, 2, 2, 2, 1, 1, 1, 0, 0, 0, 0, 0, 2},
	{2, 0, 0, 0, 0, 2, 2, 2, 1, 1, 1, 2, 0, 0, 2, 2},
	{2, 2, 2, 0, 0, 0, 2, 0, 1, 1, 1, 0, 0, 0, 2, 2},
	{2, 2, 2, 2, 0, 0, 0, 1, 1, 1, 1, 0, 0, 0, 2, 2},
	{2, 2, 2, 2, 0, 0, 0, 1, 1, 1, 1, 0, 0, 0, 0, 0},
	{2, 2, 0, 0, 0, 0, 0, 1, 1, 1, 1, 0, 0, 0, 0, 0},
	{2, 2, 2, 0, 0, 0, 2, 2, 1, 1, 2, 2, 2, 0, 0, 0},
	{2, 2, 2, 2, 0, 0, 2, 1, 1, 1, 2, 2, 2, 2, 0, 0},
}

// Pattern repeats a fixed map across world tile space.
type Pattern struct {
	rows [][]uint8
}

// NewPattern copies rows. Every row must be non-empty and as long as the
// first; nil selects DefaultPattern.
func NewPattern(rows [][]uint8) (*Pattern, error) {
	if rows == nil {
		rows = DefaultPattern
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("terrain pattern: no rows")
	}
	w := len(rows[0])
	p := &Pattern{rows: make([][]uint8, len(rows))}
	for i, r := range rows {
		if len(r) == 0 || len(r) != w {
			return nil, fmt.Errorf("terrain pattern: row %d has %d tiles, want %d", i, len(r), w)
		}
		p.rows[i] = append([]uint8(nil), r...)
	}
	return p, nil
}

// Default returns the pattern over DefaultPattern.
func Default() *Pattern {
	p, _ := NewPattern(DefaultPattern)
	return p
}

// At returns the type at world tile (wx, wy).
func (p *Pattern) At(wx, wy int) uint8 {
	row := p.rows[floorMod(wy, len(p.rows))]
	return row[floorMod(wx, len(row))]
}

func (p *Pattern) Fill(cx, cy int, g *tile.Grid) {
	ox, oy := origin(cx, g.W), origin(cy, g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			g.Set(x, y, p.At(ox+x, oy+y))
		}
	}
}
