package chunk

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Coord identifies a chunk in the infinite chunk grid. Chunk (X, Y) covers
// world pixels [X*W - W/2, X*W - W/2 + W) horizontally, likewise vertically.
type Coord struct {
	X, Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Origin returns the world-pixel position of the chunk's top-left corner.
func (c Coord) Origin(l Layout) (int, int) {
	return c.X*l.PixelsX() - l.PixelsX()/2, c.Y*l.PixelsY() - l.PixelsY()/2
}

// Within reports whether c lies in the (2rx+1) x (2ry+1) square around center.
func (c Coord) Within(center Coord, rx, ry int) bool {
	return abs(c.X-center.X) <= rx && abs(c.Y-center.Y) <= ry
}

// CoordAt returns the chunk under a world position. Boundaries belong to the
// chunk on their positive side.
func CoordAt(pos mgl32.Vec3, l Layout) Coord {
	px := int(math.Floor(float64(pos.X())))
	py := int(math.Floor(float64(pos.Y())))
	return Coord{
		X: floorDiv(px+l.PixelsX()/2, l.PixelsX()),
		Y: floorDiv(py+l.PixelsY()/2, l.PixelsY()),
	}
}

// floorDiv performs mathematical floor division for integers.
func floorDiv(a, b int) int {
	q := a / b
	r := a % b
	if (r != 0) && ((r < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
