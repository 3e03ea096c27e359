package render

import (
	"github.com/faiface/glhf"
	"github.com/go-gl/gl/v3.3-core/gl"

	"voxelworld/internal/mesh"
)

// Mesh owns the GL objects of one uploaded batch: an interleaved vertex
// buffer plus an element buffer drawn with DrawElements. Construct and
// release on the main thread only.
type Mesh struct {
	vao, vbo, ebo uint32
	indices       int32
	Opaque        bool
}

// interleave packs a batch into pos/tex/normal/color vertex order, matching
// the block shader's attribute format.
func interleave(b *mesh.Batch) []float32 {
	n := len(b.Positions) / 3
	data := make([]float32, 0, n*11)
	for i := 0; i < n; i++ {
		data = append(data,
			b.Positions[i*3], b.Positions[i*3+1], b.Positions[i*3+2],
			b.UVs[i*2], b.UVs[i*2+1],
			b.Normals[i*3], b.Normals[i*3+1], b.Normals[i*3+2],
			b.Colors[i*3], b.Colors[i*3+1], b.Colors[i*3+2],
		)
	}
	return data
}

func NewMesh(shader *glhf.Shader, b *mesh.Batch) *Mesh {
	m := &Mesh{indices: int32(len(b.Indices)), Opaque: b.Opaque}
	if m.indices == 0 {
		return m
	}
	data := interleave(b)

	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.GenBuffers(1, &m.ebo)
	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(b.Indices)*4, gl.Ptr(b.Indices), gl.STATIC_DRAW)

	offset := 0
	for _, attr := range shader.VertexFormat() {
		loc := gl.GetAttribLocation(shader.ID(), gl.Str(attr.Name+"\x00"))
		var size int32
		switch attr.Type {
		case glhf.Float:
			size = 1
		case glhf.Vec2:
			size = 2
		case glhf.Vec3:
			size = 3
		case glhf.Vec4:
			size = 4
		}
		gl.VertexAttribPointer(
			uint32(loc),
			size,
			gl.FLOAT,
			false,
			int32(shader.VertexFormat().Size()),
			gl.PtrOffset(offset),
		)
		gl.EnableVertexAttribArray(uint32(loc))
		offset += attr.Type.Size()
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
	return m
}

// Quads reports the merged quad count for debug stats.
func (m *Mesh) Quads() int {
	return int(m.indices) / 6
}

func (m *Mesh) Draw() {
	if m.vao != 0 {
		gl.BindVertexArray(m.vao)
		gl.DrawElements(gl.TRIANGLES, m.indices, gl.UNSIGNED_INT, gl.PtrOffset(0))
		gl.BindVertexArray(0)
	}
}

func (m *Mesh) Release() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ebo)
		m.vao, m.vbo, m.ebo = 0, 0, 0
	}
}
