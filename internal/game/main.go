// Package game runs the interactive chunk viewer: window, GL backend, camera
// control and the per-frame streaming loop.
package game

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/sirupsen/logrus"

	"tilestream/internal/assets"
	"tilestream/internal/camera"
	"tilestream/internal/chunk"
	"tilestream/internal/config"
	"tilestream/internal/hud"
	"tilestream/internal/terrain"
	"tilestream/internal/tile"
	"tilestream/pkg/logger"
)

// Run opens the window and streams chunks around the camera until the window
// closes or a streaming pass fails.
func Run(s *config.Settings) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	window, err := initWindow(s.Window)
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("%w: gl init: %w", ErrContextInit, err)
	}
	logger.Log.WithFields(logrus.Fields{
		"vendor":   gl.GoStr(gl.GetString(gl.VENDOR)),
		"renderer": gl.GoStr(gl.GetString(gl.RENDERER)),
		"version":  gl.GoStr(gl.GetString(gl.VERSION)),
	}).Info("OpenGL context ready")

	// GL state.
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.ClearColor(
		float32(ClearColor.R)/255.0,
		float32(ClearColor.G)/255.0,
		float32(ClearColor.B)/255.0,
		1.0,
	)

	tiler, err := tile.NewDefault(tile.Layout(s.Autotile.Layout))
	if err != nil {
		return fmt.Errorf("autotiler: %w", err)
	}
	atlas, err := loadAtlas(s, tiler)
	if err != nil {
		return err
	}

	rend, err := NewRenderer(atlas)
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	defer rend.Destroy()

	overlay, err := NewOverlay(s.Debug.Overlay)
	if err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	defer overlay.Destroy()

	src, err := terrain.New(s.TerrainOptions())
	if err != nil {
		return fmt.Errorf("terrain: %w", err)
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	events := chunk.NewEventBus()
	events.Subscribe(chunk.EventCenterChanged, func(e chunk.Event) {
		logger.Log.WithFields(logrus.Fields{
			"center":   e.Coord,
			"resident": e.Resident,
		}).Debug("stream center moved")
	})

	streamer, err := chunk.NewStreamer(rend.ChunkContext(atlas, tiler, s.Layout()), chunk.Options{
		RadiusX: s.Stream.RadiusX,
		RadiusY: s.Stream.RadiusY,
		Terrain: src,
		Events:  events,
	})
	if err != nil {
		return err
	}
	defer streamer.Close()

	fbW, fbH := window.GetFramebufferSize()
	cam := camera.NewOrtho(fbW, fbH)
	cam.MoveTo(float32(s.Camera.X), float32(s.Camera.Y), 0)
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		if w > 0 && h > 0 {
			cam.Resize(w, h)
		}
	})

	input := NewInput()
	rendererInfo := gl.GoStr(gl.GetString(gl.RENDERER))

	last := glfw.GetTime()
	for !window.ShouldClose() {
		now := glfw.GetTime()
		dt := now - last
		last = now
		if dt > MaxFrameDT {
			dt = MaxFrameDT
		}

		glfw.PollEvents()
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
			continue
		}
		if input.JustPressed(window, glfw.KeyF3) {
			overlay.Toggle()
		}

		fbW, fbH := window.GetFramebufferSize()
		if fbW <= 0 || fbH <= 0 {
			continue
		}

		step := PanDirection(window).Mul(float32(s.Camera.Speed * dt))
		if step[0] != 0 || step[1] != 0 {
			cam.MoveBy(step[0], step[1])
		}

		if _, err := streamer.Update(cam.Position()); err != nil {
			return err
		}

		center, _ := streamer.Center()
		rx, ry := streamer.Radius()
		if err := overlay.Update(dt, hud.Info{
			Camera:   cam.Position(),
			Cursor:   CursorWorldPos(window, cam),
			Center:   center,
			Radius:   [2]int{rx, ry},
			Stats:    streamer.Stats(),
			Buffers:  rend.LiveBuffers(),
			Renderer: rendererInfo,
		}); err != nil {
			logger.Log.WithError(err).Warn("overlay update failed")
		}

		rend.BeginFrame(fbW, fbH)
		streamer.Render(cam)
		overlay.Draw(fbW, fbH)

		window.SwapBuffers()
	}

	st := streamer.Stats()
	logger.Log.WithFields(logrus.Fields{
		"loaded":  st.Loaded,
		"evicted": st.Evicted,
		"passes":  st.Passes,
		"retries": st.Retries,
	}).Info("shutting down")
	return nil
}

// loadAtlas decodes the configured atlas, falling back to the generated
// placeholder when the file is missing or unreadable.
func loadAtlas(s *config.Settings, tiler *tile.Autotiler) (*tile.Atlas, error) {
	dec := assets.Chain{assets.STBI{}, assets.Std{}}
	atlas, err := tile.LoadAtlas(dec, s.Atlas.Path, s.Atlas.TilePixelsU, s.Atlas.TilePixelsV)
	if err == nil {
		logger.Log.WithFields(logrus.Fields{
			"path":  s.Atlas.Path,
			"tiles": fmt.Sprintf("%dx%d", atlas.NumTilesU, atlas.NumTilesV),
		}).Info("atlas loaded")
		return atlas, nil
	}
	if !errors.Is(err, tile.ErrImageDecode) {
		return nil, fmt.Errorf("atlas: %w", err)
	}
	logger.Log.WithError(err).WithField("path", s.Atlas.Path).Warn("atlas unavailable, using placeholder")
	return tile.Placeholder(s.Atlas.TilePixelsU, s.Atlas.TilePixelsV, tiler)
}
