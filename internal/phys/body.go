package phys

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxStep caps the integration step. Longer frames are truncated rather
// than integrated, trading a momentary slowdown for no tunneling.
const MaxStep = 0.1

// BlockSource answers solidity queries for the block grid. Blocks are unit
// cubes spanning [x,x+1) on each axis.
type BlockSource interface {
	IsSolid(x, y, z int64) bool
}

// Body is a moving box. Pos is the bottom-center of the box; Vel is in
// blocks per second.
type Body struct {
	Pos mgl64.Vec3
	Vel mgl64.Vec3

	Width  float64
	Height float64

	OnGround bool
}

// Box returns the body's current world-space bounds.
func (b *Body) Box() AABB {
	h := b.Width / 2
	return AABB{
		Min: mgl64.Vec3{b.Pos.X() - h, b.Pos.Y(), b.Pos.Z() - h},
		Max: mgl64.Vec3{b.Pos.X() + h, b.Pos.Y() + b.Height, b.Pos.Z() + h},
	}
}

// solidsIn collects the unit boxes of every solid block intersecting the
// region.
func solidsIn(src BlockSource, region AABB) []AABB {
	x0 := int64(math.Floor(region.Min.X()))
	y0 := int64(math.Floor(region.Min.Y()))
	z0 := int64(math.Floor(region.Min.Z()))
	x1 := int64(math.Floor(region.Max.X()))
	y1 := int64(math.Floor(region.Max.Y()))
	z1 := int64(math.Floor(region.Max.Z()))

	var out []AABB
	for y := y0; y <= y1; y++ {
		for z := z0; z <= z1; z++ {
			for x := x0; x <= x1; x++ {
				if !src.IsSolid(x, y, z) {
					continue
				}
				out = append(out, AABB{
					Min: mgl64.Vec3{float64(x), float64(y), float64(z)},
					Max: mgl64.Vec3{float64(x) + 1, float64(y) + 1, float64(z) + 1},
				})
			}
		}
	}
	return out
}

// Step integrates the body by dt seconds against the block grid. The swept
// region is queried once; each axis is then clipped independently against
// that fixed candidate set, Y first. Velocity components that hit an
// obstacle are zeroed; OnGround is set when downward Y motion collided.
func Step(src BlockSource, b *Body, dt float64) {
	if dt > MaxStep {
		dt = MaxStep
	}
	if dt <= 0 {
		return
	}
	move := b.Vel.Mul(dt)
	box := b.Box()
	solids := solidsIn(src, box.Expand(move))

	dy := move.Y()
	for _, s := range solids {
		dy = s.clipAxis(box, 1, dy)
	}
	hitY := dy != move.Y()
	b.OnGround = hitY && move.Y() < 0
	box = box.Offset(mgl64.Vec3{0, dy, 0})

	dx := move.X()
	for _, s := range solids {
		dx = s.clipAxis(box, 0, dx)
	}
	hitX := dx != move.X()
	box = box.Offset(mgl64.Vec3{dx, 0, 0})

	dz := move.Z()
	for _, s := range solids {
		dz = s.clipAxis(box, 2, dz)
	}
	hitZ := dz != move.Z()

	b.Pos = b.Pos.Add(mgl64.Vec3{dx, dy, dz})
	if hitY {
		b.Vel[1] = 0
	}
	if hitX {
		b.Vel[0] = 0
	}
	if hitZ {
		b.Vel[2] = 0
	}
}
