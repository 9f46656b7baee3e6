// Package camera holds the 2D view used to stream and draw chunks.
package camera

import "github.com/go-gl/mathgl/mgl32"

// Camera is an orthographic camera centred on Pos, in world-pixel space.
// Screen y grows downward.
type Camera struct {
	pos           mgl32.Vec3
	width, height int

	proj mgl32.Mat4
	view mgl32.Mat4
}

// NewOrtho returns a camera at the origin with a w x h pixel viewport.
func NewOrtho(w, h int) *Camera {
	c := &Camera{view: mgl32.Ident4()}
	c.Resize(w, h)
	return c
}

// Resize rebuilds the projection for a new viewport size.
func (c *Camera) Resize(w, h int) {
	c.width, c.height = w, h
	halfX := float32(w / 2)
	halfY := float32(h / 2)
	c.proj = mgl32.Ortho(-halfX, halfX, halfY, -halfY, -1, 1)
}

// MoveTo places the camera. The view translation is the negated position.
func (c *Camera) MoveTo(x, y, z float32) {
	c.pos = mgl32.Vec3{x, y, z}
	c.view = mgl32.Translate3D(-x, -y, -z)
}

func (c *Camera) MoveBy(dx, dy float32) {
	c.MoveTo(c.pos.X()+dx, c.pos.Y()+dy, c.pos.Z())
}

func (c *Camera) Position() mgl32.Vec3   { return c.pos }
func (c *Camera) Projection() mgl32.Mat4 { return c.proj }
func (c *Camera) View() mgl32.Mat4       { return c.view }

func (c *Camera) Viewport() (int, int) { return c.width, c.height }

// ScreenToWorld maps a window pixel (origin top-left) to world pixels.
func (c *Camera) ScreenToWorld(sx, sy float64) (float32, float32) {
	return float32(sx) - float32(c.width/2) + c.pos.X(),
		float32(sy) - float32(c.height/2) + c.pos.Y()
}
