package game

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"tilestream/internal/hud"
)

// Overlay draws the debug panel in the top-left corner. The panel is
// rasterized on the CPU and re-uploaded every OverlayRefresh seconds.
type Overlay struct {
	refresh hud.Refresh
	panel   *hud.Panel

	prog uint32
	vao  uint32
	vbo  uint32
	tex  uint32
	uRes int32
}

func NewOverlay(visible bool) (*Overlay, error) {
	panel, err := hud.NewPanel(OverlayWidth, OverlayHeight, OverlayFontSize)
	if err != nil {
		return nil, err
	}
	prog, err := linkProgram(overlayVertSrc, overlayFragSrc)
	if err != nil {
		return nil, fmt.Errorf("overlay program: %w", err)
	}

	o := &Overlay{
		refresh: hud.Refresh{Interval: OverlayRefresh, Visible: visible},
		panel:   panel,
		prog:    prog,
	}
	gl.UseProgram(prog)
	o.uRes = gl.GetUniformLocation(prog, gl.Str("uResolution\x00"))
	gl.Uniform1i(gl.GetUniformLocation(prog, gl.Str("uPanel\x00")), 1) // texture unit 1

	img, err := panel.Draw(nil)
	if err != nil {
		gl.DeleteProgram(prog)
		return nil, err
	}
	o.tex = uploadTexture(img)

	// Quad: pos(2) + uv(2) = 4 floats, two triangles.
	x0, y0 := float32(OverlayMargin), float32(OverlayMargin)
	x1, y1 := x0+OverlayWidth, y0+OverlayHeight
	quad := [24]float32{
		x0, y0, 0, 0,
		x1, y0, 1, 0,
		x1, y1, 1, 1,
		x0, y0, 0, 0,
		x0, y1, 0, 1,
		x1, y1, 1, 1,
	}
	gl.GenVertexArrays(1, &o.vao)
	gl.GenBuffers(1, &o.vbo)
	gl.BindVertexArray(o.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quad)*floatBytes, gl.Ptr(&quad[0]), gl.STATIC_DRAW)
	stride := int32(4 * floatBytes)
	gl.EnableVertexAttribArray(0) // aPos
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, glOffset(0))
	gl.EnableVertexAttribArray(1) // aUV
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, glOffset(2*floatBytes))
	gl.BindVertexArray(0)

	return o, nil
}

func (o *Overlay) Toggle() { o.refresh.Toggle() }

// Update counts the frame and, when visible and due, redraws the panel from
// info. FPS is filled in by the overlay.
func (o *Overlay) Update(dt float64, info hud.Info) error {
	if !o.refresh.Tick(dt) {
		return nil
	}

	info.FPS = o.refresh.FPS()
	img, err := o.panel.Draw(hud.Lines(info))
	if err != nil {
		return err
	}
	gl.BindTexture(gl.TEXTURE_2D, o.tex)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0,
		int32(img.Bounds().Dx()), int32(img.Bounds().Dy()),
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	o.refresh.MarkDrawn()
	return nil
}

func (o *Overlay) Draw(fbW, fbH int) {
	if !o.refresh.Ready() {
		return
	}
	gl.UseProgram(o.prog)
	gl.Uniform2f(o.uRes, float32(fbW), float32(fbH))
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, o.tex)

	// The panel is premultiplied.
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	gl.BindVertexArray(o.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	gl.Disable(gl.BLEND)
	gl.ActiveTexture(gl.TEXTURE0)
}

func (o *Overlay) Destroy() {
	gl.DeleteBuffers(1, &o.vbo)
	gl.DeleteVertexArrays(1, &o.vao)
	gl.DeleteTextures(1, &o.tex)
	gl.DeleteProgram(o.prog)
}
