package cull

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// boxTriangles indexes Box.Corners() into the 12 triangles of a box.
var boxTriangles = [12][3]int{
	{0, 1, 2}, {0, 2, 3}, // bottom
	{4, 6, 5}, {4, 7, 6}, // top
	{0, 4, 5}, {0, 5, 1}, // -z
	{3, 2, 6}, {3, 6, 7}, // +z
	{0, 3, 7}, {0, 7, 4}, // -x
	{1, 5, 6}, {1, 6, 2}, // +x
}

// DepthBuffer is a low-resolution software depth buffer. Depth values are
// NDC z in [-1,1]; smaller is closer.
type DepthBuffer struct {
	W, H  int
	depth []float32
}

func NewDepthBuffer(w, h int) *DepthBuffer {
	d := &DepthBuffer{W: w, H: h, depth: make([]float32, w*h)}
	d.Clear()
	return d
}

func (d *DepthBuffer) Clear() {
	for i := range d.depth {
		d.depth[i] = math.MaxFloat32
	}
}

// projected is a corner after perspective division, in pixel coordinates
// plus NDC depth. ok is false when the corner sits behind the near plane.
type projected struct {
	x, y, z float32
	ok      bool
}

func (d *DepthBuffer) project(vp *mgl32.Mat4, p mgl32.Vec3) projected {
	clip := vp.Mul4x1(p.Vec4(1))
	if clip.W() <= 1e-6 {
		return projected{}
	}
	inv := 1 / clip.W()
	return projected{
		x:  (clip.X()*inv + 1) * 0.5 * float32(d.W),
		y:  (clip.Y()*inv + 1) * 0.5 * float32(d.H),
		z:  clip.Z() * inv,
		ok: true,
	}
}

// RasterizeBox draws the box's triangles into the buffer, keeping the
// nearest depth per pixel. Boxes crossing the near plane are skipped whole:
// a missing occluder only weakens culling, never breaks it.
func (d *DepthBuffer) RasterizeBox(vp *mgl32.Mat4, b Box) {
	corners := b.Corners()
	var pts [8]projected
	for i, c := range corners {
		pts[i] = d.project(vp, c)
		if !pts[i].ok {
			return
		}
	}
	for _, tri := range boxTriangles {
		d.rasterizeTriangle(pts[tri[0]], pts[tri[1]], pts[tri[2]])
	}
}

func (d *DepthBuffer) rasterizeTriangle(a, b, c projected) {
	minX := int(math.Floor(float64(min3(a.x, b.x, c.x))))
	maxX := int(math.Ceil(float64(max3(a.x, b.x, c.x))))
	minY := int(math.Floor(float64(min3(a.y, b.y, c.y))))
	maxY := int(math.Ceil(float64(max3(a.y, b.y, c.y))))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > d.W-1 {
		maxX = d.W - 1
	}
	if maxY > d.H-1 {
		maxY = d.H - 1
	}

	// Winding after projection depends on which side faces the camera;
	// normalize so both orientations fill.
	area := edge(a, b, c.x, c.y)
	if area == 0 {
		return
	}
	if area < 0 {
		b, c = c, b
		area = -area
	}
	inv := 1 / area
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float32(x)+0.5, float32(y)+0.5
			w0 := edge(b, c, px, py) * inv
			w1 := edge(c, a, px, py) * inv
			w2 := edge(a, b, px, py) * inv
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.z + w1*b.z + w2*c.z
			idx := y*d.W + x
			if z < d.depth[idx] {
				d.depth[idx] = z
			}
		}
	}
}

// TestBox reports whether the box is fully behind the rasterized occluders.
// It over-approximates the box by its screen-space bounding rectangle and
// nearest corner depth; every covered pixel must already hold a strictly
// nearer depth.
func (d *DepthBuffer) TestBox(vp *mgl32.Mat4, b Box) bool {
	corners := b.Corners()
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	nearZ := float32(math.MaxFloat32)
	for _, c := range corners {
		p := d.project(vp, c)
		if !p.ok {
			// A corner behind the camera: assume visible.
			return false
		}
		minX, maxX = minf(minX, p.x), maxf(maxX, p.x)
		minY, maxY = minf(minY, p.y), maxf(maxY, p.y)
		nearZ = minf(nearZ, p.z)
	}
	x0, x1 := int(math.Floor(float64(minX))), int(math.Ceil(float64(maxX)))
	y0, y1 := int(math.Floor(float64(minY))), int(math.Ceil(float64(maxY)))
	if x1 < 0 || y1 < 0 || x0 > d.W-1 || y0 > d.H-1 {
		// Off-screen boxes are the frustum stage's business, not ours.
		return false
	}
	x0, y0 = maxi(x0, 0), maxi(y0, 0)
	x1, y1 = mini(x1, d.W-1), mini(y1, d.H-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if d.depth[y*d.W+x] >= nearZ {
				return false
			}
		}
	}
	return true
}

func edge(a, b projected, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

func min3(a, b, c float32) float32 { return minf(minf(a, b), c) }
func max3(a, b, c float32) float32 { return maxf(maxf(a, b), c) }

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func mini(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}
