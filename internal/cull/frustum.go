// Package cull filters sub-chunks before rendering through three stages:
// a frustum test against geometry-derived bounding boxes, an analytic
// ray/box occlusion pass, and a software-rasterized depth test running on a
// worker one frame behind.
package cull

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/coord"
)

// Key identifies the sub-chunk a box belongs to.
type Key = coord.Sub

// Box is a world-space axis-aligned bounding box.
type Box struct {
	Min, Max mgl32.Vec3
}

// Center returns the box midpoint.
func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Corners returns the eight box vertices.
func (b Box) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{b.Min.X(), b.Min.Y(), b.Min.Z()},
		{b.Max.X(), b.Min.Y(), b.Min.Z()},
		{b.Max.X(), b.Min.Y(), b.Max.Z()},
		{b.Min.X(), b.Min.Y(), b.Max.Z()},
		{b.Min.X(), b.Max.Y(), b.Min.Z()},
		{b.Max.X(), b.Max.Y(), b.Min.Z()},
		{b.Max.X(), b.Max.Y(), b.Max.Z()},
		{b.Min.X(), b.Max.Y(), b.Max.Z()},
	}
}

// FrustumPlanes extracts the six clip planes from a view-projection matrix.
// A point is inside a plane when the homogeneous dot product is
// non-negative.
func FrustumPlanes(mat *mgl32.Mat4) []mgl32.Vec4 {
	c1, c2, c3, c4 := mat.Rows()
	return []mgl32.Vec4{
		c4.Add(c1), // left
		c4.Sub(c1), // right
		c4.Sub(c2), // top
		c4.Add(c2), // bottom
		c4.Add(c3), // near
		c4.Sub(c3), // far
	}
}

// BoxVisible reports whether any part of the box can be inside the frustum.
// A box with all eight corners outside one plane is rejected; everything
// else is kept, which over-approximates the true intersection but never
// drops a visible box.
func BoxVisible(planes []mgl32.Vec4, box Box) bool {
	corners := box.Corners()
	for _, plane := range planes {
		out := 0
		for _, p := range corners {
			if plane.Dot(p.Vec4(1)) < 0 {
				out++
			} else {
				break
			}
		}
		if out == len(corners) {
			return false
		}
	}
	return true
}
