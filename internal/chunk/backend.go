package chunk

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"tilestream/internal/tile"
)

var (
	// ErrChunkResource reports a failed buffer allocation or upload.
	ErrChunkResource = errors.New("chunk resource")
	// ErrGridSize reports tile data whose size does not match the layout.
	ErrGridSize = errors.New("tile grid size mismatch")
)

type (
	BufferHandle  uint32
	ProgramHandle uint32
	TextureHandle uint32
)

// Backend is the slice of the graphics API chunks need. Strides and offsets
// are counted in floats. All calls happen on the render thread.
type Backend interface {
	CreateVertexBuffer() (BufferHandle, error)
	UploadStatic(buf BufferHandle, data []float32) error
	ConfigureAttribute(buf BufferHandle, index, components, stride, offset int)
	UseProgram(p ProgramHandle)
	BindTexture2D(t TextureHandle)
	SetUniformMat4(p ProgramHandle, name string, m mgl32.Mat4)
	DrawTriangles(buf BufferHandle, vertexCount int)
	DestroyBuffer(buf BufferHandle)
}

// Camera is read by the streamer for its position and by meshes for their
// uniforms. Chunks never move it.
type Camera interface {
	Position() mgl32.Vec3
	Projection() mgl32.Mat4
	View() mgl32.Mat4
}

// Uniform names the chunk program must declare.
const (
	UniformProjection = "projection"
	UniformView       = "view"
)

// Context holds the resources every mesh shares. It is built once after the
// graphics context exists and outlives all chunks.
type Context struct {
	Backend Backend
	Program ProgramHandle
	Texture TextureHandle
	Atlas   *tile.Atlas
	Tiler   *tile.Autotiler
	Layout  Layout
}

func (c *Context) validate() error {
	if c == nil {
		return fmt.Errorf("chunk context: nil")
	}
	if c.Backend == nil || c.Atlas == nil || c.Tiler == nil {
		return fmt.Errorf("chunk context: backend, atlas and autotiler are required")
	}
	return c.Layout.Validate()
}
