package game

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"tilestream/internal/camera"
)

type Input struct {
	prevKeys map[glfw.Key]bool
}

func NewInput() *Input {
	return &Input{
		prevKeys: make(map[glfw.Key]bool),
	}
}

func (in *Input) JustPressed(window *glfw.Window, key glfw.Key) bool {
	down := window.GetKey(key) == glfw.Press
	jp := down && !in.prevKeys[key]
	in.prevKeys[key] = down
	return jp
}

// PanDirection returns the unit camera pan direction from the arrow keys and
// WASD. Screen y grows downward.
func PanDirection(window *glfw.Window) mgl32.Vec2 {
	pressed := func(keys ...glfw.Key) bool {
		for _, k := range keys {
			if window.GetKey(k) == glfw.Press {
				return true
			}
		}
		return false
	}

	var d mgl32.Vec2
	if pressed(glfw.KeyLeft, glfw.KeyA) {
		d[0]--
	}
	if pressed(glfw.KeyRight, glfw.KeyD) {
		d[0]++
	}
	if pressed(glfw.KeyUp, glfw.KeyW) {
		d[1]--
	}
	if pressed(glfw.KeyDown, glfw.KeyS) {
		d[1]++
	}
	if d.Len() == 0 {
		return d
	}
	return d.Normalize()
}

// CursorWorldPos converts the cursor position to world pixels. The camera
// viewport is in framebuffer pixels, which differ from window coordinates on
// scaled displays.
func CursorWorldPos(window *glfw.Window, cam *camera.Camera) mgl32.Vec2 {
	cx, cy := window.GetCursorPos()
	winW, winH := window.GetSize()
	if winW <= 0 || winH <= 0 {
		return cam.Position().Vec2()
	}
	fbW, fbH := cam.Viewport()
	x, y := cam.ScreenToWorld(cx*float64(fbW)/float64(winW), cy*float64(fbH)/float64(winH))
	return mgl32.Vec2{x, y}
}
