package render

import (
	"github.com/faiface/glhf"
	"github.com/faiface/mainthread"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/coord"
)

type Lines struct {
	vao, vbo uint32
	shader   *glhf.Shader
	nvertex  int
}

func NewLines(shader *glhf.Shader, data []float32) *Lines {
	l := new(Lines)
	l.shader = shader
	l.nvertex = len(data) / (shader.VertexFormat().Size() / 4)
	gl.GenVertexArrays(1, &l.vao)
	gl.GenBuffers(1, &l.vbo)
	gl.BindVertexArray(l.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	loc := gl.GetAttribLocation(shader.ID(), gl.Str("pos\x00"))
	gl.VertexAttribPointer(uint32(loc), 3, gl.FLOAT, false,
		int32(shader.VertexFormat().Size()), gl.PtrOffset(0))
	gl.EnableVertexAttribArray(uint32(loc))
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return l
}

func (l *Lines) Draw(mat mgl32.Mat4) {
	if l.vao != 0 {
		l.shader.SetUniformAttr(0, mat)
		gl.BindVertexArray(l.vao)
		gl.DrawArrays(gl.LINES, 0, int32(l.nvertex))
		gl.BindVertexArray(0)
	}
}

func (l *Lines) Release() {
	if l.vao != 0 {
		gl.DeleteVertexArrays(1, &l.vao)
		gl.DeleteBuffers(1, &l.vbo)
		l.vao = 0
		l.vbo = 0
	}
}

// LineRender draws the crosshair and the wireframe around the targeted
// block.
type LineRender struct {
	shader    *glhf.Shader
	cross     *Lines
	wireFrame *Lines
}

func NewLineRender() (*LineRender, error) {
	r := &LineRender{}
	var err error
	mainthread.Call(func() {
		r.shader, err = glhf.NewShader(glhf.AttrFormat{
			glhf.Attr{Name: "pos", Type: glhf.Vec3},
		}, glhf.AttrFormat{
			glhf.Attr{Name: "matrix", Type: glhf.Mat4},
		}, lineVertexSource, lineFragmentSource)
		if err != nil {
			return
		}
		r.cross = makeCross(r.shader)
		r.wireFrame = NewLines(r.shader, makeWireFrameData())
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// DrawCross draws the screen-center crosshair.
func (r *LineRender) DrawCross(width, height int) {
	r.shader.Begin()
	project := mgl32.Ortho2D(0, float32(width), float32(height), 0)
	model := mgl32.Translate3D(float32(width/2), float32(height/2), 0)
	model = model.Mul4(mgl32.Scale3D(float32(height/30), float32(height/30), 0))
	r.cross.Draw(project.Mul4(model))
	r.shader.End()
}

// DrawWireFrame outlines the block the camera is aiming at.
func (r *LineRender) DrawWireFrame(mat mgl32.Mat4, block coord.World) {
	r.shader.Begin()
	m := mat.Mul4(mgl32.Translate3D(
		float32(block.X)+0.5, float32(block.Y)+0.5, float32(block.Z)+0.5))
	m = m.Mul4(mgl32.Scale3D(1.06, 1.06, 1.06))
	r.wireFrame.Draw(m)
	r.shader.End()
}

func makeCross(shader *glhf.Shader) *Lines {
	return NewLines(shader, []float32{
		-0.5, 0, 0, 0.5, 0, 0,
		0, -0.5, 0, 0, 0.5, 0,
	})
}

// makeWireFrameData is the 12 edges of a unit cube centered at the origin.
func makeWireFrameData() []float32 {
	const h = 0.5
	corners := [8][3]float32{
		{-h, -h, -h}, {h, -h, -h}, {h, -h, h}, {-h, -h, h},
		{-h, h, -h}, {h, h, -h}, {h, h, h}, {-h, h, h},
	}
	edges := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	var data []float32
	for _, e := range edges {
		a, b := corners[e[0]], corners[e[1]]
		data = append(data, a[0], a[1], a[2], b[0], b[1], b[2])
	}
	return data
}
