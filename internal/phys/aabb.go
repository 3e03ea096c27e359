// Package phys resolves axis-aligned box movement against the block grid.
// Movement is clipped one axis at a time, Y first so walking over steps and
// landing behave before horizontal sliding.
package phys

import (
	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned box in world space.
type AABB struct {
	Min, Max mgl64.Vec3
}

// Offset returns the box translated by d.
func (b AABB) Offset(d mgl64.Vec3) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// Expand grows the box by the displacement, in the displacement's
// direction only. The result is the volume the moving box may sweep.
func (b AABB) Expand(d mgl64.Vec3) AABB {
	out := b
	for axis := 0; axis < 3; axis++ {
		if d[axis] < 0 {
			out.Min[axis] += d[axis]
		} else {
			out.Max[axis] += d[axis]
		}
	}
	return out
}

// Intersects reports open-interval overlap on all three axes.
func (b AABB) Intersects(o AABB) bool {
	for axis := 0; axis < 3; axis++ {
		if b.Max[axis] <= o.Min[axis] || b.Min[axis] >= o.Max[axis] {
			return false
		}
	}
	return true
}

// overlapsExcept reports overlap on the two axes other than the given one.
func (b AABB) overlapsExcept(o AABB, axis int) bool {
	for a := 0; a < 3; a++ {
		if a == axis {
			continue
		}
		if b.Max[a] <= o.Min[a] || b.Min[a] >= o.Max[a] {
			return false
		}
	}
	return true
}

// contactEps tolerates rounding from repeated clip-and-offset cycles: a box
// resting a few ulps inside a surface still counts as touching it instead
// of falling through.
const contactEps = 1e-7

// clipAxis reduces the displacement d along one axis so the moving box b
// stops at the obstacle o. Boxes not overlapping on the other two axes
// never clip.
func (o AABB) clipAxis(b AABB, axis int, d float64) float64 {
	if !b.overlapsExcept(o, axis) {
		return d
	}
	if d > 0 && b.Max[axis] <= o.Min[axis]+contactEps {
		if gap := o.Min[axis] - b.Max[axis]; gap < d {
			d = gap
		}
	}
	if d < 0 && b.Min[axis] >= o.Max[axis]-contactEps {
		if gap := o.Max[axis] - b.Min[axis]; gap > d {
			d = gap
		}
	}
	return d
}
