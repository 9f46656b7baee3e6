package chunk

import (
	"errors"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"tilestream/internal/tile"
)

// fakeBackend records backend calls in memory.
type fakeBackend struct {
	next      BufferHandle
	live      map[BufferHandle][]float32
	attrs     map[BufferHandle][][4]int
	created   int
	destroyed int
	draws     map[BufferHandle]int
	uniforms  map[string]mgl32.Mat4
	program   ProgramHandle
	texture   TextureHandle

	failCreate int // fail this many CreateVertexBuffer calls
	failUpload int
	maxLive    int // 0 = unlimited
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		live:     make(map[BufferHandle][]float32),
		attrs:    make(map[BufferHandle][][4]int),
		draws:    make(map[BufferHandle]int),
		uniforms: make(map[string]mgl32.Mat4),
	}
}

var errOutOfMemory = errors.New("out of memory")

func (f *fakeBackend) CreateVertexBuffer() (BufferHandle, error) {
	if f.failCreate > 0 {
		f.failCreate--
		return 0, errOutOfMemory
	}
	if f.maxLive > 0 && len(f.live) >= f.maxLive {
		return 0, errOutOfMemory
	}
	f.next++
	f.created++
	f.live[f.next] = nil
	return f.next, nil
}

func (f *fakeBackend) UploadStatic(buf BufferHandle, data []float32) error {
	if f.failUpload > 0 {
		f.failUpload--
		return errOutOfMemory
	}
	f.live[buf] = append([]float32(nil), data...)
	return nil
}

func (f *fakeBackend) ConfigureAttribute(buf BufferHandle, index, components, stride, offset int) {
	f.attrs[buf] = append(f.attrs[buf], [4]int{index, components, stride, offset})
}

func (f *fakeBackend) UseProgram(p ProgramHandle)    { f.program = p }
func (f *fakeBackend) BindTexture2D(t TextureHandle) { f.texture = t }

func (f *fakeBackend) SetUniformMat4(p ProgramHandle, name string, m mgl32.Mat4) {
	f.uniforms[name] = m
}

func (f *fakeBackend) DrawTriangles(buf BufferHandle, vertexCount int) {
	f.draws[buf] += vertexCount
}

func (f *fakeBackend) DestroyBuffer(buf BufferHandle) {
	delete(f.live, buf)
	f.destroyed++
}

type fakeCamera struct {
	pos        mgl32.Vec3
	proj, view mgl32.Mat4
}

func (c fakeCamera) Position() mgl32.Vec3   { return c.pos }
func (c fakeCamera) Projection() mgl32.Mat4 { return c.proj }
func (c fakeCamera) View() mgl32.Mat4       { return c.view }

func newTestContext(t *testing.T, l Layout) (*Context, *fakeBackend) {
	t.Helper()
	tiler, err := tile.NewDefault(tile.LayoutBlob)
	if err != nil {
		t.Fatal(err)
	}
	atlas, err := tile.NewAtlas(image.NewRGBA(image.Rect(0, 0, 256, 256)), 16, 16)
	if err != nil {
		t.Fatal(err)
	}
	b := newFakeBackend()
	return &Context{Backend: b, Program: 7, Texture: 9, Atlas: atlas, Tiler: tiler, Layout: l}, b
}

func squareAround(c Coord, rx, ry int) map[Coord]bool {
	out := make(map[Coord]bool)
	for y := c.Y - ry; y <= c.Y+ry; y++ {
		for x := c.X - rx; x <= c.X+rx; x++ {
			out[Coord{X: x, Y: y}] = true
		}
	}
	return out
}

func assertResident(t *testing.T, s *Streamer, want map[Coord]bool) {
	t.Helper()
	got := s.Resident()
	if len(got) != len(want) {
		t.Fatalf("expected %d resident chunks, got %d: %v", len(want), len(got), got)
	}
	for _, c := range got {
		if !want[c] {
			t.Fatalf("unexpected resident chunk %v", c)
		}
	}
}

func TestCoordAt(t *testing.T) {
	l := DefaultLayout // 512x512 pixel chunks
	tests := []struct {
		x, y float32
		want Coord
	}{
		{0, 0, Coord{0, 0}},
		{255.9, -256, Coord{0, 0}},
		{256, 0, Coord{1, 0}},
		{-256.1, 0, Coord{-1, 0}},
		{600, 0, Coord{1, 0}},
		{-768, -769, Coord{-1, -2}},
		{-767.5, 767.5, Coord{-1, 1}},
		{1280, -1280, Coord{3, -2}},
	}
	for _, tt := range tests {
		got := CoordAt(mgl32.Vec3{tt.x, tt.y, 0}, l)
		if got != tt.want {
			t.Errorf("CoordAt(%v,%v): expected %v, got %v", tt.x, tt.y, tt.want, got)
		}
	}
}

func TestCoordBoundsRoundTrip(t *testing.T) {
	layouts := []Layout{DefaultLayout, {TilesX: 3, TilesY: 5, TilePixelsX: 8, TilePixelsY: 4}}
	for _, l := range layouts {
		for cy := -3; cy <= 3; cy++ {
			for cx := -3; cx <= 3; cx++ {
				c := Coord{cx, cy}
				ox, oy := c.Origin(l)
				corners := [][2]int{
					{ox, oy},
					{ox + l.PixelsX() - 1, oy},
					{ox, oy + l.PixelsY() - 1},
					{ox + l.PixelsX() - 1, oy + l.PixelsY() - 1},
				}
				for _, p := range corners {
					if got := CoordAt(mgl32.Vec3{float32(p[0]), float32(p[1]), 0}, l); got != c {
						t.Fatalf("layout %+v position %v: expected %v, got %v", l, p, c, got)
					}
					inner := mgl32.Vec3{float32(p[0]) + 0.5, float32(p[1]) + 0.5, 0}
					if got := CoordAt(inner, l); got != c {
						t.Fatalf("layout %+v position %v: expected %v, got %v", l, inner, c, got)
					}
				}
			}
		}
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{7, 2, 3}, {-7, 2, -4}, {-8, 2, -4}, {0, 5, 0}, {-1, 512, -1}, {511, 512, 0},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("floorDiv(%d,%d): expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestMeshBufferShape(t *testing.T) {
	layouts := []Layout{
		DefaultLayout,
		{TilesX: 1, TilesY: 1, TilePixelsX: 1, TilePixelsY: 1},
		{TilesX: 32, TilesY: 8, TilePixelsX: 16, TilePixelsY: 24},
	}
	for _, l := range layouts {
		ctx, b := newTestContext(t, l)
		m, err := NewMesh(ctx)
		if err != nil {
			t.Fatal(err)
		}
		m.SetPosition(Coord{-2, 5})
		m.UpdateTileAtlasIndices()
		if err := m.Upload(); err != nil {
			t.Fatal(err)
		}
		if got, want := len(b.live[m.Buffer()]), l.TileCount()*24; got != want {
			t.Errorf("layout %+v: expected %d floats uploaded, got %d", l, want, got)
		}
		attrs := b.attrs[m.Buffer()]
		if len(attrs) != 2 || attrs[0] != [4]int{0, 2, 4, 0} || attrs[1] != [4]int{1, 2, 4, 2} {
			t.Errorf("unexpected attribute setup %v", attrs)
		}
	}
}

func TestMeshGeometry(t *testing.T) {
	l := Layout{TilesX: 2, TilesY: 2, TilePixelsX: 32, TilePixelsY: 32}
	ctx, _ := newTestContext(t, l)
	m, err := NewMesh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	m.SetPosition(Coord{1, -1})
	// Chunk is 64x64 pixels; origin (1*64-32, -1*64-32) = (32, -96).
	// Tile (1,0) spans x 64..96, y -96..-64.
	v := m.Vertices()[1*TileFloats:]
	want := [][2]float32{{64, -96}, {96, -96}, {96, -64}, {64, -96}, {64, -64}, {96, -64}}
	for i, p := range want {
		if v[i*4] != p[0] || v[i*4+1] != p[1] {
			t.Errorf("vertex %d: expected %v, got (%v,%v)", i, p, v[i*4], v[i*4+1])
		}
	}

	// Positioning must not touch UVs, autotiling must not touch positions.
	for i := 0; i < len(m.Vertices()); i += 4 {
		if m.Vertices()[i+2] != 0 || m.Vertices()[i+3] != 0 {
			t.Fatal("SetPosition wrote UVs")
		}
	}
	before := append([]float32(nil), m.Vertices()...)
	m.UpdateTileAtlasIndices()
	for i := 0; i < len(before); i += 4 {
		if before[i] != m.Vertices()[i] || before[i+1] != m.Vertices()[i+1] {
			t.Fatal("UpdateTileAtlasIndices moved vertices")
		}
	}
}

func TestMeshAutotileUVs(t *testing.T) {
	l := Layout{TilesX: 3, TilesY: 3, TilePixelsX: 8, TilePixelsY: 8}
	ctx, _ := newTestContext(t, l)
	m, err := NewMesh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	g := tile.NewGrid(3, 3)
	g.Set(1, 1, tile.Water)
	g.Set(2, 2, 200) // unregistered type
	if err := m.LoadTileData(g); err != nil {
		t.Fatal(err)
	}
	// Loading alone derives nothing.
	if m.AtlasIndex(1, 1) != 0 {
		t.Error("LoadTileData should not autotile")
	}
	m.SetPosition(Coord{})
	m.UpdateTileAtlasIndices()

	water, _ := ctx.Tiler.Category(tile.Water)
	isolated, _ := water.Table.Lookup(0)
	if got := m.AtlasIndex(1, 1); got != isolated {
		t.Errorf("expected isolated water %d, got %d", isolated, got)
	}
	if got := m.AtlasIndex(2, 2); got != ctx.Tiler.Unknown {
		t.Errorf("expected unknown index %d, got %d", ctx.Tiler.Unknown, got)
	}
	if m.Unknown() != 1 {
		t.Errorf("expected 1 unknown tile, got %d", m.Unknown())
	}

	u0, v0, u1, v1 := ctx.Atlas.UVRect(isolated)
	v := m.Vertices()[(1*3+1)*TileFloats:]
	if v[2] != u0 || v[3] != v0 || v[10] != u1 || v[11] != v1 || v[18] != u0 || v[19] != v1 {
		t.Errorf("unexpected UVs %v", v[:TileFloats])
	}
}

func TestMeshIndexBeyondAtlasFallsBack(t *testing.T) {
	l := Layout{TilesX: 2, TilesY: 2, TilePixelsX: 8, TilePixelsY: 8}
	ctx, _ := newTestContext(t, l)
	small, err := tile.NewAtlas(image.NewRGBA(image.Rect(0, 0, 64, 64)), 16, 16) // 16 tiles
	if err != nil {
		t.Fatal(err)
	}
	ctx.Atlas = small
	m, err := NewMesh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	g := tile.NewGrid(2, 2)
	g.Fill(tile.Forest) // solid forest lives at 96+46, outside a 16-tile atlas
	if err := m.LoadTileData(g); err != nil {
		t.Fatal(err)
	}
	m.UpdateTileAtlasIndices()
	if m.AtlasIndex(0, 0) != 0 || m.Unknown() != 4 {
		t.Errorf("expected fallback to index 0 for all tiles, got %d with %d unknown", m.AtlasIndex(0, 0), m.Unknown())
	}
}

func TestMeshLoadTileDataRejectsWrongSize(t *testing.T) {
	ctx, _ := newTestContext(t, DefaultLayout)
	m, err := NewMesh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.LoadTileData(tile.NewGrid(8, 8)); !errors.Is(err, ErrGridSize) {
		t.Errorf("expected ErrGridSize, got %v", err)
	}
	if err := m.LoadTileData(nil); !errors.Is(err, ErrGridSize) {
		t.Errorf("expected ErrGridSize for nil grid, got %v", err)
	}
}

func TestMeshDrawAndRelease(t *testing.T) {
	l := Layout{TilesX: 4, TilesY: 4, TilePixelsX: 8, TilePixelsY: 8}
	ctx, b := newTestContext(t, l)
	m, err := NewMesh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cam := fakeCamera{proj: mgl32.Ident4().Mul(2), view: mgl32.Translate3D(-5, -6, 0)}

	m.Draw(cam)
	if b.draws[m.Buffer()] != 0 {
		t.Error("expected no draw before upload")
	}
	if err := m.Upload(); err != nil {
		t.Fatal(err)
	}
	m.Draw(cam)
	if b.draws[m.Buffer()] != 16*6 {
		t.Errorf("expected %d vertices drawn, got %d", 16*6, b.draws[m.Buffer()])
	}
	if b.program != 7 || b.texture != 9 {
		t.Errorf("expected shared program/texture 7/9, got %d/%d", b.program, b.texture)
	}
	if b.uniforms[UniformProjection] != cam.proj || b.uniforms[UniformView] != cam.view {
		t.Error("camera matrices not passed as uniforms")
	}

	m.Release()
	m.Release()
	if b.destroyed != 1 {
		t.Errorf("expected buffer destroyed once, got %d", b.destroyed)
	}
	if err := m.Upload(); !errors.Is(err, ErrChunkResource) {
		t.Errorf("expected ErrChunkResource after release, got %v", err)
	}
}

func TestMeshCreateFailure(t *testing.T) {
	ctx, b := newTestContext(t, DefaultLayout)
	b.failCreate = 1
	if _, err := NewMesh(ctx); !errors.Is(err, ErrChunkResource) {
		t.Errorf("expected ErrChunkResource, got %v", err)
	}
	if _, err := NewMesh(&Context{}); err == nil {
		t.Error("expected error for empty context")
	}
}

func TestStreamerScenario(t *testing.T) {
	ctx, b := newTestContext(t, DefaultLayout)
	bus := NewEventBus()
	var loaded, evicted []Coord
	bus.Subscribe(EventChunkLoaded, func(e Event) { loaded = append(loaded, e.Coord) })
	bus.Subscribe(EventChunkEvicted, func(e Event) { evicted = append(evicted, e.Coord) })

	s, err := NewStreamer(ctx, Options{RadiusX: 1, RadiusY: 1, Events: bus})
	if err != nil {
		t.Fatal(err)
	}

	ran, err := s.Update(mgl32.Vec3{0, 0, 0})
	if err != nil || !ran {
		t.Fatalf("expected first update to run, got %v, %v", ran, err)
	}
	assertResident(t, s, squareAround(Coord{0, 0}, 1, 1))
	if len(loaded) != 9 || b.created != 9 {
		t.Fatalf("expected 9 chunks built, got %d events and %d buffers", len(loaded), b.created)
	}

	before := make(map[Coord]*Mesh)
	for _, c := range s.Resident() {
		m, _ := s.Mesh(c)
		before[c] = m
	}

	loaded = nil
	ran, err = s.Update(mgl32.Vec3{600, 0, 0})
	if err != nil || !ran {
		t.Fatalf("expected pass for new chunk, got %v, %v", ran, err)
	}
	if c, ok := s.Center(); !ok || c != (Coord{1, 0}) {
		t.Fatalf("expected center (1,0), got %v", c)
	}
	assertResident(t, s, squareAround(Coord{1, 0}, 1, 1))

	// Moving one chunk east keeps the x=0 and x=1 columns, builds x=2 and
	// drops x=-1.
	if len(loaded) != 3 || len(evicted) != 3 {
		t.Errorf("expected 3 built and 3 evicted, got %d and %d", len(loaded), len(evicted))
	}
	for _, c := range loaded {
		if c.X != 2 {
			t.Errorf("unexpected new chunk %v", c)
		}
	}
	for _, c := range evicted {
		if c.X != -1 {
			t.Errorf("unexpected evicted chunk %v", c)
		}
	}
	retained := 0
	for _, c := range s.Resident() {
		m, _ := s.Mesh(c)
		if before[c] == m {
			retained++
		}
	}
	if retained != 6 {
		t.Errorf("expected 6 retained meshes, got %d", retained)
	}
	if len(b.live) != 9 || b.destroyed != 3 {
		t.Errorf("expected 9 live buffers and 3 destroyed, got %d and %d", len(b.live), b.destroyed)
	}

	st := s.Stats()
	if st.Resident != 9 || st.Loaded != 12 || st.Evicted != 3 || st.Passes != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestStreamerSkipsUnchangedChunk(t *testing.T) {
	ctx, b := newTestContext(t, DefaultLayout)
	s, err := NewStreamer(ctx, Options{RadiusX: 1, RadiusY: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Update(mgl32.Vec3{10, 10, 0}); err != nil {
		t.Fatal(err)
	}
	for _, x := range []float32{11, 100, 255, -255} {
		ran, err := s.Update(mgl32.Vec3{x, 0, 0})
		if err != nil || ran {
			t.Errorf("x=%v: expected no pass inside chunk (0,0), got %v, %v", x, ran, err)
		}
	}
	if b.created != 9 || s.Stats().Passes != 1 {
		t.Errorf("expected a single pass, got %d buffers and %d passes", b.created, s.Stats().Passes)
	}
}

func TestStreamerResidentSetMatchesSquare(t *testing.T) {
	ctx, _ := newTestContext(t, Layout{TilesX: 2, TilesY: 2, TilePixelsX: 4, TilePixelsY: 4})
	s, err := NewStreamer(ctx, Options{RadiusX: 2, RadiusY: 1})
	if err != nil {
		t.Fatal(err)
	}
	path := []Coord{{0, 0}, {1, 0}, {5, 5}, {-3, 4}, {-4, 4}, {-4, -9}, {0, 0}}
	for _, c := range path {
		if err := s.Activate(c); err != nil {
			t.Fatal(err)
		}
		assertResident(t, s, squareAround(c, 2, 1))
		for _, r := range s.Resident() {
			if !r.Within(c, 2, 1) {
				t.Fatalf("chunk %v outside radius of %v", r, c)
			}
			m, _ := s.Mesh(r)
			if m.Coord() != r {
				t.Fatalf("mesh at %v reports coord %v", r, m.Coord())
			}
		}
	}
}

func TestStreamerRender(t *testing.T) {
	ctx, b := newTestContext(t, Layout{TilesX: 2, TilesY: 2, TilePixelsX: 4, TilePixelsY: 4})
	s, err := NewStreamer(ctx, Options{RadiusX: 1, RadiusY: 0})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Update(mgl32.Vec3{}); err != nil {
		t.Fatal(err)
	}
	s.Render(fakeCamera{proj: mgl32.Ident4(), view: mgl32.Ident4()})
	if len(b.draws) != 3 {
		t.Fatalf("expected 3 chunks drawn, got %d", len(b.draws))
	}
	for buf, n := range b.draws {
		if n != 4*6 {
			t.Errorf("buffer %d: expected 24 vertices, got %d", buf, n)
		}
	}
}

func TestStreamerRetriesAfterEviction(t *testing.T) {
	ctx, b := newTestContext(t, Layout{TilesX: 2, TilesY: 2, TilePixelsX: 4, TilePixelsY: 4})
	s, err := NewStreamer(ctx, Options{RadiusX: 1, RadiusY: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Activate(Coord{0, 0}); err != nil {
		t.Fatal(err)
	}
	// The backend can only hold the 9 chunks already resident; the new
	// column fits only once the old one has been evicted.
	b.maxLive = 9
	if err := s.Activate(Coord{1, 0}); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	assertResident(t, s, squareAround(Coord{1, 0}, 1, 1))
	if s.Stats().Retries != 1 {
		t.Errorf("expected 1 retry, got %d", s.Stats().Retries)
	}
}

func TestStreamerFailureKeepsCenter(t *testing.T) {
	ctx, b := newTestContext(t, Layout{TilesX: 2, TilesY: 2, TilePixelsX: 4, TilePixelsY: 4})
	s, err := NewStreamer(ctx, Options{RadiusX: 1, RadiusY: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Activate(Coord{0, 0}); err != nil {
		t.Fatal(err)
	}

	b.failUpload = 2
	ran, err := s.Update(mgl32.Vec3{8, 0, 0}) // chunk (1,0)
	if !ran || !errors.Is(err, ErrChunkResource) {
		t.Fatalf("expected ErrChunkResource, got %v, %v", ran, err)
	}
	if c, _ := s.Center(); c != (Coord{0, 0}) {
		t.Errorf("expected center to stay (0,0), got %v", c)
	}
	if s.Stats().Failures != 1 {
		t.Errorf("expected 1 failure, got %d", s.Stats().Failures)
	}

	// The next update retries the same target and completes.
	ran, err = s.Update(mgl32.Vec3{8, 0, 0})
	if !ran || err != nil {
		t.Fatalf("expected successful retry pass, got %v, %v", ran, err)
	}
	assertResident(t, s, squareAround(Coord{1, 0}, 1, 1))
	if len(b.live) != 9 {
		t.Errorf("expected 9 live buffers, got %d", len(b.live))
	}
}

func TestStreamerUsesTerrain(t *testing.T) {
	ctx, _ := newTestContext(t, Layout{TilesX: 2, TilesY: 2, TilePixelsX: 4, TilePixelsY: 4})
	var asked []Coord
	terrain := terrainFunc(func(cx, cy int, g *tile.Grid) {
		asked = append(asked, Coord{cx, cy})
		g.Fill(tile.Water)
	})
	s, err := NewStreamer(ctx, Options{RadiusX: 0, RadiusY: 0, Terrain: terrain})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Activate(Coord{-4, 2}); err != nil {
		t.Fatal(err)
	}
	if len(asked) != 1 || asked[0] != (Coord{-4, 2}) {
		t.Fatalf("expected terrain asked for (-4,2), got %v", asked)
	}
	m, _ := s.Mesh(Coord{-4, 2})
	water, _ := ctx.Tiler.Category(tile.Water)
	if m.Tiles().At(0, 0) != tile.Water || m.AtlasIndex(1, 1) != water.Solid {
		t.Error("expected a solid water chunk")
	}
}

func TestStreamerClose(t *testing.T) {
	ctx, b := newTestContext(t, Layout{TilesX: 2, TilesY: 2, TilePixelsX: 4, TilePixelsY: 4})
	s, err := NewStreamer(ctx, Options{RadiusX: 1, RadiusY: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Update(mgl32.Vec3{}); err != nil {
		t.Fatal(err)
	}
	s.Close()
	if len(b.live) != 0 || len(s.Resident()) != 0 {
		t.Errorf("expected everything released, got %d live buffers", len(b.live))
	}
	if _, ok := s.Center(); ok {
		t.Error("expected no center after close")
	}
	if _, err := NewStreamer(ctx, Options{RadiusX: -1}); err == nil {
		t.Error("expected error for negative radius")
	}
}

type terrainFunc func(cx, cy int, g *tile.Grid)

func (f terrainFunc) Fill(cx, cy int, g *tile.Grid) { f(cx, cy, g) }
