// Package terrain supplies the tile types of a chunk from its coordinate.
package terrain

import (
	"fmt"

	"tilestream/internal/tile"
)

// Source fills g with the tile types of chunk (cx, cy). Chunks are centred on
// their coordinate, so tile column 0 of chunk cx sits at world tile
// cx*g.W - g.W/2.
type Source interface {
	Fill(cx, cy int, g *tile.Grid)
}

// Kinds accepted by New.
const (
	KindPattern = "pattern"
	KindNoise   = "noise"
)

type Options struct {
	Kind        string
	Seed        int64
	Scale       float64
	WaterLevel  float64
	ForestLevel float64
	CacheMB     int
}

// New builds the source named by o.Kind, wrapped in a grid cache when
// o.CacheMB is positive.
func New(o Options) (Source, error) {
	var src Source
	switch o.Kind {
	case "", KindPattern:
		src = Default()
	case KindNoise:
		n := NewNoise(o.Seed)
		if o.Scale > 0 {
			n.Scale = float32(o.Scale)
		}
		n.WaterLevel = float32(o.WaterLevel)
		n.ForestLevel = float32(o.ForestLevel)
		src = n
	default:
		return nil, fmt.Errorf("unknown terrain kind %q", o.Kind)
	}
	if o.CacheMB <= 0 {
		return src, nil
	}
	return NewCached(src, int64(o.CacheMB)<<20)
}

func origin(c, size int) int {
	return c*size - size/2
}
