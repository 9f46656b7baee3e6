package terrain

import (
	"github.com/ojrac/opensimplex-go"

	"tilestream/internal/tile"
)

// Noise classifies fractal simplex noise into water, grass and forest.
type Noise struct {
	Scale       float32 // world tiles per noise unit
	Octaves     int
	Lacunarity  float32
	Persistence float32

	// Values below WaterLevel are water, above ForestLevel forest.
	WaterLevel  float32
	ForestLevel float32

	noise   opensimplex.Noise32
	offsets []float32
}

func NewNoise(seed int64) *Noise {
	n := &Noise{
		Scale:       48,
		Octaves:     4,
		Lacunarity:  2,
		Persistence: 0.5,
		WaterLevel:  -0.25,
		ForestLevel: 0.3,
		noise:       opensimplex.New32(seed),
	}
	// Shift each octave so their lattices do not line up at the origin.
	for i := 0; i < 8; i++ {
		h := splitmix64(uint64(seed) + uint64(i))
		n.offsets = append(n.offsets, float32(h%4096))
	}
	return n
}

// Value returns the normalized fractal noise at world tile (wx, wy), in [-1, 1].
func (n *Noise) Value(wx, wy int) float32 {
	var sum, norm float32
	amp := float32(1)
	freq := 1 / n.Scale
	for i := 0; i < n.Octaves; i++ {
		off := n.offsets[i%len(n.offsets)]
		sum += n.noise.Eval2(float32(wx)*freq+off, float32(wy)*freq+off) * amp
		norm += amp
		amp *= n.Persistence
		freq *= n.Lacunarity
	}
	if norm == 0 {
		return 0
	}
	v := sum / norm
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// At returns the tile type at world tile (wx, wy).
func (n *Noise) At(wx, wy int) uint8 {
	v := n.Value(wx, wy)
	switch {
	case v < n.WaterLevel:
		return tile.Water
	case v > n.ForestLevel:
		return tile.Forest
	}
	return tile.Grass
}

func (n *Noise) Fill(cx, cy int, g *tile.Grid) {
	ox, oy := origin(cx, g.W), origin(cy, g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			g.Set(x, y, n.At(ox+x, oy+y))
		}
	}
}
