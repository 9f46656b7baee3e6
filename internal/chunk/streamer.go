package chunk

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"tilestream/internal/tile"
	"tilestream/pkg/logger"
)

// Terrain fills g with the tile types of chunk (cx, cy).
type Terrain interface {
	Fill(cx, cy int, g *tile.Grid)
}

type Options struct {
	RadiusX, RadiusY int
	Terrain          Terrain   // nil fills every chunk with grass
	Events           *EventBus // optional
}

// Stats are running totals over the streamer's lifetime.
type Stats struct {
	Resident int
	Loaded   int
	Evicted  int
	Passes   int
	Retries  int
	Failures int
}

type resident struct {
	mesh   *Mesh
	active bool
}

// Streamer keeps the chunks within a square radius of the camera resident.
// It is driven from the render thread and is not safe for concurrent use.
type Streamer struct {
	ctx     *Context
	rx, ry  int
	terrain Terrain
	events  *EventBus

	chunks    map[Coord]*resident
	center    Coord
	hasCenter bool
	scratch   *tile.Grid

	stats Stats
	log   *logrus.Entry
}

func NewStreamer(ctx *Context, o Options) (*Streamer, error) {
	if err := ctx.validate(); err != nil {
		return nil, err
	}
	if o.RadiusX < 0 || o.RadiusY < 0 {
		return nil, fmt.Errorf("chunk streamer: negative radius %dx%d", o.RadiusX, o.RadiusY)
	}
	if o.Terrain == nil {
		o.Terrain = flat(tile.Grass)
	}
	return &Streamer{
		ctx:     ctx,
		rx:      o.RadiusX,
		ry:      o.RadiusY,
		terrain: o.Terrain,
		events:  o.Events,
		chunks:  make(map[Coord]*resident),
		scratch: tile.NewGrid(ctx.Layout.TilesX, ctx.Layout.TilesY),
		log:     logger.Log.WithField("component", "chunk-streamer"),
	}, nil
}

type flat uint8

func (f flat) Fill(_, _ int, g *tile.Grid) { g.Fill(uint8(f)) }

// ChunkAt returns the chunk under a world position.
func (s *Streamer) ChunkAt(pos mgl32.Vec3) Coord {
	return CoordAt(pos, s.ctx.Layout)
}

// Update runs an activation pass when pos lies in a different chunk than the
// last committed center, or when no pass has succeeded yet. It reports
// whether a pass ran.
func (s *Streamer) Update(pos mgl32.Vec3) (bool, error) {
	c := s.ChunkAt(pos)
	if s.hasCenter && c == s.center {
		return false, nil
	}
	return true, s.Activate(c)
}

// Activate makes the resident set exactly the square around center. Missing
// chunks are built, chunks outside the square are released. The center is
// only committed once the whole pass succeeded.
func (s *Streamer) Activate(center Coord) error {
	for c, r := range s.chunks {
		r.active = c.Within(center, s.rx, s.ry)
	}

	var missing []Coord
	for y := center.Y - s.ry; y <= center.Y+s.ry; y++ {
		for x := center.X - s.rx; x <= center.X+s.rx; x++ {
			c := Coord{X: x, Y: y}
			if _, ok := s.chunks[c]; !ok {
				missing = append(missing, c)
			}
		}
	}
	retained := len(s.chunks) - s.countInactive()

	evicted := 0
	for _, c := range missing {
		m, err := s.build(c)
		if err != nil && errors.Is(err, ErrChunkResource) {
			// Free what is leaving anyway, then try once more.
			s.stats.Retries++
			evicted += s.evictInactive()
			s.log.WithError(err).WithField("chunk", c).Warn("chunk build failed, retrying after eviction")
			m, err = s.build(c)
		}
		if err != nil {
			s.stats.Failures++
			s.log.WithError(err).WithFields(logrus.Fields{
				"chunk":  c,
				"center": center,
			}).Error("activation pass aborted")
			return fmt.Errorf("activate %v: %w", center, err)
		}
		s.chunks[c] = &resident{mesh: m, active: true}
		s.stats.Loaded++
		s.events.Emit(Event{Type: EventChunkLoaded, Coord: c, Resident: len(s.chunks)})
	}
	evicted += s.evictInactive()

	prev, had := s.center, s.hasCenter
	s.center, s.hasCenter = center, true
	s.stats.Passes++
	s.stats.Resident = len(s.chunks)

	s.log.WithFields(logrus.Fields{
		"center":   center,
		"created":  len(missing),
		"retained": retained,
		"evicted":  evicted,
		"resident": len(s.chunks),
	}).Debug("activation pass")

	if !had || prev != center {
		s.events.Emit(Event{Type: EventCenterChanged, Coord: center, Resident: len(s.chunks)})
	}
	return nil
}

// build runs the full construction sequence for one chunk.
func (s *Streamer) build(c Coord) (*Mesh, error) {
	m, err := NewMesh(s.ctx)
	if err != nil {
		return nil, err
	}
	s.terrain.Fill(c.X, c.Y, s.scratch)
	if err := m.LoadTileData(s.scratch); err != nil {
		m.Release()
		return nil, err
	}
	m.SetPosition(c)
	m.UpdateTileAtlasIndices()
	if n := m.Unknown(); n > 0 {
		s.log.WithFields(logrus.Fields{"chunk": c, "tiles": n}).Debug("unknown tile types replaced")
	}
	if err := m.Upload(); err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}

func (s *Streamer) countInactive() int {
	n := 0
	for _, r := range s.chunks {
		if !r.active {
			n++
		}
	}
	return n
}

func (s *Streamer) evictInactive() int {
	n := 0
	for c, r := range s.chunks {
		if r.active {
			continue
		}
		r.mesh.Release()
		delete(s.chunks, c)
		n++
		s.stats.Evicted++
		s.events.Emit(Event{Type: EventChunkEvicted, Coord: c, Resident: len(s.chunks)})
	}
	return n
}

// Render draws every resident chunk. Order is unspecified.
func (s *Streamer) Render(cam Camera) {
	for _, r := range s.chunks {
		r.mesh.Draw(cam)
	}
}

// Resident returns the resident coordinates ordered by row, then column.
func (s *Streamer) Resident() []Coord {
	out := make([]Coord, 0, len(s.chunks))
	for c := range s.chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func (s *Streamer) Mesh(c Coord) (*Mesh, bool) {
	r, ok := s.chunks[c]
	if !ok {
		return nil, false
	}
	return r.mesh, true
}

// Center returns the last committed center and whether a pass has succeeded.
func (s *Streamer) Center() (Coord, bool) {
	return s.center, s.hasCenter
}

func (s *Streamer) Radius() (int, int) { return s.rx, s.ry }

func (s *Streamer) Stats() Stats {
	st := s.stats
	st.Resident = len(s.chunks)
	return st
}

// Close releases every resident chunk.
func (s *Streamer) Close() {
	for c, r := range s.chunks {
		r.mesh.Release()
		delete(s.chunks, c)
	}
	s.hasCenter = false
}
