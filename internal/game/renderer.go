package game

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"

	"tilestream/internal/chunk"
	"tilestream/internal/tile"
)

// Renderer owns the GL objects shared by every chunk: the chunk program, the
// atlas texture and the buffer backend.
type Renderer struct {
	backend *glBackend

	chunkProg uint32
	uAtlas    int32
	atlasTex  uint32
}

func NewRenderer(atlas *tile.Atlas) (*Renderer, error) {
	if atlas == nil || atlas.Image == nil {
		return nil, fmt.Errorf("renderer: nil atlas")
	}
	prog, err := linkProgram(chunkVertSrc, chunkFragSrc)
	if err != nil {
		return nil, fmt.Errorf("chunk program: %w", err)
	}

	r := &Renderer{
		backend:   newGLBackend(),
		chunkProg: prog,
	}
	gl.UseProgram(prog)
	r.uAtlas = gl.GetUniformLocation(prog, gl.Str("uAtlas\x00"))
	gl.Uniform1i(r.uAtlas, 0) // texture unit 0

	r.atlasTex = uploadTexture(atlas.Image)
	return r, nil
}

// uploadTexture creates a nearest-filtered, edge-clamped RGBA texture.
func uploadTexture(img *image.RGBA) uint32 {
	b := img.Bounds()
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8,
		int32(b.Dx()), int32(b.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

// ChunkContext bundles the shared resources for chunk meshes.
func (r *Renderer) ChunkContext(atlas *tile.Atlas, tiler *tile.Autotiler, layout chunk.Layout) *chunk.Context {
	return &chunk.Context{
		Backend: r.backend,
		Program: chunk.ProgramHandle(r.chunkProg),
		Texture: chunk.TextureHandle(r.atlasTex),
		Atlas:   atlas,
		Tiler:   tiler,
		Layout:  layout,
	}
}

// BeginFrame sets the viewport and clears the screen.
func (r *Renderer) BeginFrame(fbW, fbH int) {
	gl.Viewport(0, 0, int32(fbW), int32(fbH))
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// LiveBuffers reports the number of chunk buffers currently allocated.
func (r *Renderer) LiveBuffers() int { return r.backend.Live() }

func (r *Renderer) Destroy() {
	r.backend.destroyAll()
	gl.DeleteTextures(1, &r.atlasTex)
	gl.DeleteProgram(r.chunkProg)
}
