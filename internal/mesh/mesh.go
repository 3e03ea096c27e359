// Package mesh turns sub-chunk block and light arrays into renderable
// vertex batches. Greedy merging collapses coplanar same-material,
// same-light faces into large quads; non-greedy decoration blocks come out
// as per-instance transforms instead.
package mesh

import (
	"voxelworld/internal/block"
	"voxelworld/internal/coord"
)

// Input is everything a build needs, copied or transferred so the builder
// can run off the main thread. Neighbor arrays may be nil: missing neighbor
// data means "assume exposed", the conservative default at chunk edges.
type Input struct {
	Blocks []uint16
	Light  []uint8

	Neighbors Neighbors

	// Props is the dense id -> mesh property table (registry snapshot).
	Props []block.MeshProps
}

// Neighbors holds the four horizontal neighbor sub-chunks' block arrays.
type Neighbors struct {
	PosX, NegX, PosZ, NegZ []uint16
}

// Batch is one draw unit: all quads sharing an opacity class and texture
// group. Positions are sub-chunk local; colors carry the light tint.
type Batch struct {
	Opaque  bool
	Texture uint16

	Positions []float32 // 3 per vertex
	UVs       []float32 // 2 per vertex
	Normals   []float32 // 3 per vertex
	Colors    []float32 // 3 per vertex
	Indices   []uint32
}

// QuadCount returns the number of merged quads in the batch.
func (b *Batch) QuadCount() int {
	return len(b.Indices) / 6
}

// Instance is a non-greedy block occurrence.
type Instance struct {
	ID      uint16
	X, Y, Z int
	Sky     uint8
	Blk     uint8
}

// Stats reports what merging achieved.
type Stats struct {
	FacesBeforeMerge int
	Quads            int
}

// Result of one sub-chunk build. An all-air sub-chunk yields zero batches
// and zero instances, never an empty mesh object.
type Result struct {
	Batches   []Batch
	Instances []Instance
	Stats     Stats
}

// Empty reports whether the result carries nothing renderable.
func (r *Result) Empty() bool {
	return len(r.Batches) == 0 && len(r.Instances) == 0
}

// Key identifies the sub-chunk a build belongs to.
type Key = coord.Sub
