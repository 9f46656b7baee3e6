package chunk

import "fmt"

// Vertex layout: two triangles per tile, interleaved x, y, u, v.
const (
	VertexFloats = 4
	TileVertices = 6
	TileFloats   = TileVertices * VertexFloats
)

// Layout fixes the size of every chunk.
type Layout struct {
	TilesX, TilesY           int
	TilePixelsX, TilePixelsY int
}

// DefaultLayout is 16x16 tiles of 32x32 pixels, a 512x512 pixel chunk.
var DefaultLayout = Layout{TilesX: 16, TilesY: 16, TilePixelsX: 32, TilePixelsY: 32}

func (l Layout) Validate() error {
	if l.TilesX <= 0 || l.TilesY <= 0 {
		return fmt.Errorf("chunk layout: tiles %dx%d must be positive", l.TilesX, l.TilesY)
	}
	if l.TilePixelsX <= 0 || l.TilePixelsY <= 0 {
		return fmt.Errorf("chunk layout: tile pixels %dx%d must be positive", l.TilePixelsX, l.TilePixelsY)
	}
	return nil
}

func (l Layout) PixelsX() int   { return l.TilesX * l.TilePixelsX }
func (l Layout) PixelsY() int   { return l.TilesY * l.TilePixelsY }
func (l Layout) TileCount() int { return l.TilesX * l.TilesY }

// VertexCount is the number of vertices drawn per chunk.
func (l Layout) VertexCount() int { return l.TileCount() * TileVertices }

// BufferLen is the number of floats in a chunk's vertex buffer.
func (l Layout) BufferLen() int { return l.TileCount() * TileFloats }
