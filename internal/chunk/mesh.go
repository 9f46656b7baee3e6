package chunk

import (
	"fmt"

	"tilestream/internal/tile"
)

// Mesh is one chunk's tile grid and the vertex buffer drawn for it.
//
// Loading data, positioning, autotiling and uploading are separate steps and
// the caller runs them in that order: LoadTileData, SetPosition,
// UpdateTileAtlasIndices, Upload. None of them implies another.
type Mesh struct {
	ctx   *Context
	coord Coord

	tiles    *tile.Grid
	indices  []uint16  // one atlas index per tile
	vertices []float32 // Layout.BufferLen floats

	buf      BufferHandle
	uploaded bool
	released bool
	unknown  int
}

// NewMesh allocates the fixed-size tile and vertex storage and the backend
// buffer for one chunk.
func NewMesh(ctx *Context) (*Mesh, error) {
	if err := ctx.validate(); err != nil {
		return nil, err
	}
	buf, err := ctx.Backend.CreateVertexBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: create vertex buffer: %v", ErrChunkResource, err)
	}
	l := ctx.Layout
	return &Mesh{
		ctx:      ctx,
		tiles:    tile.NewGrid(l.TilesX, l.TilesY),
		indices:  make([]uint16, l.TileCount()),
		vertices: make([]float32, l.BufferLen()),
		buf:      buf,
	}, nil
}

// LoadTileData replaces the tile types. Geometry and atlas indices are left
// as they were.
func (m *Mesh) LoadTileData(g *tile.Grid) error {
	if g == nil || g.W != m.tiles.W || g.H != m.tiles.H {
		w, h := 0, 0
		if g != nil {
			w, h = g.W, g.H
		}
		return fmt.Errorf("%w: got %dx%d, chunk is %dx%d", ErrGridSize, w, h, m.tiles.W, m.tiles.H)
	}
	return m.tiles.CopyFrom(g)
}

// SetPosition moves the chunk to c and rewrites the x, y of every vertex.
// UVs are untouched.
func (m *Mesh) SetPosition(c Coord) {
	m.coord = c
	l := m.ctx.Layout
	ox, oy := c.Origin(l)

	for ty := 0; ty < l.TilesY; ty++ {
		for tx := 0; tx < l.TilesX; tx++ {
			x0 := float32(ox + tx*l.TilePixelsX)
			y0 := float32(oy + ty*l.TilePixelsY)
			x1 := x0 + float32(l.TilePixelsX)
			y1 := y0 + float32(l.TilePixelsY)

			v := m.vertices[(ty*l.TilesX+tx)*TileFloats:]
			v[0], v[1] = x0, y0
			v[4], v[5] = x1, y0
			v[8], v[9] = x1, y1
			v[12], v[13] = x0, y0
			v[16], v[17] = x0, y1
			v[20], v[21] = x1, y1
		}
	}
}

// UpdateTileAtlasIndices autotiles every tile and rewrites the u, v of every
// vertex. Positions are untouched.
func (m *Mesh) UpdateTileAtlasIndices() {
	l := m.ctx.Layout
	m.unknown = 0

	for ty := 0; ty < l.TilesY; ty++ {
		for tx := 0; tx < l.TilesX; tx++ {
			i := ty*l.TilesX + tx
			idx, err := m.ctx.Tiler.Resolve(m.tiles, tx, ty)
			if err != nil || int(idx) >= m.ctx.Atlas.Capacity() {
				m.unknown++
				idx = m.fallback()
			}
			m.indices[i] = idx

			u0, v0, u1, v1 := m.ctx.Atlas.UVRect(idx)
			v := m.vertices[i*TileFloats:]
			v[2], v[3] = u0, v0
			v[6], v[7] = u1, v0
			v[10], v[11] = u1, v1
			v[14], v[15] = u0, v0
			v[18], v[19] = u0, v1
			v[22], v[23] = u1, v1
		}
	}
}

// fallback is the unknown tile, or 0 when the atlas is too small to hold it.
func (m *Mesh) fallback() uint16 {
	if u := m.ctx.Tiler.Unknown; int(u) < m.ctx.Atlas.Capacity() {
		return u
	}
	return 0
}

// Upload replaces the whole backend buffer with the vertex data.
func (m *Mesh) Upload() error {
	if m.released {
		return fmt.Errorf("%w: upload after release", ErrChunkResource)
	}
	b := m.ctx.Backend
	if err := b.UploadStatic(m.buf, m.vertices); err != nil {
		return fmt.Errorf("%w: upload chunk %v: %v", ErrChunkResource, m.coord, err)
	}
	b.ConfigureAttribute(m.buf, 0, 2, VertexFloats, 0)
	b.ConfigureAttribute(m.buf, 1, 2, VertexFloats, 2)
	m.uploaded = true
	return nil
}

// Draw issues one draw call for the chunk with the shared program and atlas.
func (m *Mesh) Draw(cam Camera) {
	if !m.uploaded || m.released {
		return
	}
	b := m.ctx.Backend
	b.UseProgram(m.ctx.Program)
	b.BindTexture2D(m.ctx.Texture)
	b.SetUniformMat4(m.ctx.Program, UniformProjection, cam.Projection())
	b.SetUniformMat4(m.ctx.Program, UniformView, cam.View())
	b.DrawTriangles(m.buf, m.ctx.Layout.VertexCount())
}

// Release frees the backend buffer. The mesh must not be used afterwards.
func (m *Mesh) Release() {
	if m.released {
		return
	}
	m.ctx.Backend.DestroyBuffer(m.buf)
	m.released = true
	m.uploaded = false
}

func (m *Mesh) Coord() Coord         { return m.coord }
func (m *Mesh) Tiles() *tile.Grid    { return m.tiles }
func (m *Mesh) Vertices() []float32  { return m.vertices }
func (m *Mesh) Buffer() BufferHandle { return m.buf }
func (m *Mesh) Uploaded() bool       { return m.uploaded }

// AtlasIndex returns the atlas index assigned to tile (x, y) by the last
// UpdateTileAtlasIndices.
func (m *Mesh) AtlasIndex(x, y int) uint16 {
	return m.indices[y*m.tiles.W+x]
}

// Unknown counts the tiles that fell back to the unknown index in the last
// UpdateTileAtlasIndices.
func (m *Mesh) Unknown() int { return m.unknown }
