package tile

import "fmt"

// Tile types used by the default categories.
const (
	Grass  uint8 = 0
	Water  uint8 = 1
	Forest uint8 = 2
)

// Grid is a fixed-size W x H array of tile types, stored row-major.
type Grid struct {
	W, H  int
	Types []uint8
}

func NewGrid(w, h int) *Grid {
	return &Grid{W: w, H: h, Types: make([]uint8, w*h)}
}

func (g *Grid) idx(x, y int) int {
	return y*g.W + x
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.W && y < g.H
}

func (g *Grid) At(x, y int) uint8 {
	return g.Types[g.idx(x, y)]
}

func (g *Grid) Set(x, y int, t uint8) {
	g.Types[g.idx(x, y)] = t
}

// Fill sets every tile to t.
func (g *Grid) Fill(t uint8) {
	for i := range g.Types {
		g.Types[i] = t
	}
}

// CopyFrom replaces the contents of g with src. Dimensions must match.
func (g *Grid) CopyFrom(src *Grid) error {
	if src == nil {
		return fmt.Errorf("copy grid: nil source")
	}
	if src.W != g.W || src.H != g.H {
		return fmt.Errorf("copy grid: %dx%d into %dx%d", src.W, src.H, g.W, g.H)
	}
	copy(g.Types, src.Types)
	return nil
}

func (g *Grid) Clone() *Grid {
	c := NewGrid(g.W, g.H)
	copy(c.Types, g.Types)
	return c
}
