package hud

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"tilestream/internal/chunk"
)

// Info is the state shown on the debug overlay.
type Info struct {
	FPS      float64
	Camera   mgl32.Vec3
	Cursor   mgl32.Vec2 // world position under the mouse
	Center   chunk.Coord
	Radius   [2]int
	Stats    chunk.Stats
	Buffers  int // vertex buffers alive in the graphics backend
	Renderer string
}

func Lines(i Info) []string {
	lines := []string{
		fmt.Sprintf("fps %.0f", i.FPS),
		fmt.Sprintf("camera %.0f, %.0f  cursor %.0f, %.0f", i.Camera.X(), i.Camera.Y(), i.Cursor.X(), i.Cursor.Y()),
		fmt.Sprintf("chunk %v  radius %dx%d", i.Center, i.Radius[0], i.Radius[1]),
		fmt.Sprintf("resident %d  buffers %d", i.Stats.Resident, i.Buffers),
		fmt.Sprintf("loaded %d  evicted %d", i.Stats.Loaded, i.Stats.Evicted),
		fmt.Sprintf("passes %d  retries %d", i.Stats.Passes, i.Stats.Retries),
	}
	if i.Renderer != "" {
		lines = append(lines, i.Renderer)
	}
	return lines
}
