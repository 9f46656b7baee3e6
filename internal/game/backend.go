package game

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"tilestream/internal/chunk"
)

const floatBytes = 4

// glOffset converts a byte offset to unsafe.Pointer for OpenGL VBO offset params.
func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

type uniformKey struct {
	prog chunk.ProgramHandle
	name string
}

// glBackend implements chunk.Backend on OpenGL 4.1 core. Each buffer handle
// is a VBO name paired with its own VAO.
type glBackend struct {
	vaos     map[chunk.BufferHandle]uint32
	uniforms map[uniformKey]int32
}

func newGLBackend() *glBackend {
	return &glBackend{
		vaos:     make(map[chunk.BufferHandle]uint32),
		uniforms: make(map[uniformKey]int32),
	}
}

func (b *glBackend) CreateVertexBuffer() (chunk.BufferHandle, error) {
	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	if vao == 0 || vbo == 0 {
		gl.DeleteVertexArrays(1, &vao)
		gl.DeleteBuffers(1, &vbo)
		return 0, fmt.Errorf("gen vertex buffer: %s", glErrorString(gl.GetError()))
	}
	h := chunk.BufferHandle(vbo)
	b.vaos[h] = vao
	return h, nil
}

func (b *glBackend) UploadStatic(buf chunk.BufferHandle, data []float32) error {
	vao, ok := b.vaos[buf]
	if !ok {
		return fmt.Errorf("upload: unknown buffer %d", buf)
	}
	if len(data) == 0 {
		return fmt.Errorf("upload: empty vertex data")
	}
	drainGLErrors()
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*floatBytes, gl.Ptr(data), gl.STATIC_DRAW)
	if e := gl.GetError(); e != gl.NO_ERROR {
		return fmt.Errorf("buffer data: %s", glErrorString(e))
	}
	return nil
}

func (b *glBackend) ConfigureAttribute(buf chunk.BufferHandle, index, components, stride, offset int) {
	vao, ok := b.vaos[buf]
	if !ok {
		return
	}
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.EnableVertexAttribArray(uint32(index))
	gl.VertexAttribPointer(uint32(index), int32(components), gl.FLOAT, false,
		int32(stride*floatBytes), glOffset(offset*floatBytes))
	gl.BindVertexArray(0)
}

func (b *glBackend) UseProgram(p chunk.ProgramHandle) { gl.UseProgram(uint32(p)) }

func (b *glBackend) BindTexture2D(t chunk.TextureHandle) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (b *glBackend) SetUniformMat4(p chunk.ProgramHandle, name string, m mgl32.Mat4) {
	loc := b.uniformLocation(p, name)
	if loc < 0 {
		return
	}
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func (b *glBackend) uniformLocation(p chunk.ProgramHandle, name string) int32 {
	k := uniformKey{prog: p, name: name}
	if loc, ok := b.uniforms[k]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
	b.uniforms[k] = loc
	return loc
}

func (b *glBackend) DrawTriangles(buf chunk.BufferHandle, vertexCount int) {
	vao, ok := b.vaos[buf]
	if !ok {
		return
	}
	gl.BindVertexArray(vao)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(vertexCount))
	gl.BindVertexArray(0)
}

func (b *glBackend) DestroyBuffer(buf chunk.BufferHandle) {
	vao, ok := b.vaos[buf]
	if !ok {
		return
	}
	vbo := uint32(buf)
	gl.DeleteBuffers(1, &vbo)
	gl.DeleteVertexArrays(1, &vao)
	delete(b.vaos, buf)
}

// Live reports how many buffers are allocated.
func (b *glBackend) Live() int { return len(b.vaos) }

func (b *glBackend) destroyAll() {
	for h := range b.vaos {
		b.DestroyBuffer(h)
	}
}

func drainGLErrors() {
	for i := 0; i < 16 && gl.GetError() != gl.NO_ERROR; i++ {
	}
}

func glErrorString(e uint32) string {
	switch e {
	case gl.NO_ERROR:
		return "no error"
	case gl.INVALID_ENUM:
		return "invalid enum"
	case gl.INVALID_VALUE:
		return "invalid value"
	case gl.INVALID_OPERATION:
		return "invalid operation"
	case gl.OUT_OF_MEMORY:
		return "out of memory"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "invalid framebuffer operation"
	}
	return fmt.Sprintf("gl error 0x%x", e)
}
