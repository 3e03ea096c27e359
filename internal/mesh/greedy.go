package mesh

import (
	"sort"

	"voxelworld/internal/block"
	"voxelworld/internal/chunk"
)

// sub-chunk extents indexed by axis (x=0, y=1, z=2).
var sizes = [3]int{chunk.SizeX, chunk.SizeY, chunk.SizeZ}

type direction struct {
	axis int
	sign int
	// u,v are the in-plane axes the mask iterates over.
	u, v int
	// flip reverses the corner order to keep the winding facing outward.
	flip   bool
	normal [3]float32
}

var directions = [6]direction{
	{axis: 0, sign: -1, u: 1, v: 2, flip: false, normal: [3]float32{-1, 0, 0}},
	{axis: 0, sign: +1, u: 1, v: 2, flip: true, normal: [3]float32{1, 0, 0}},
	{axis: 1, sign: -1, u: 0, v: 2, flip: true, normal: [3]float32{0, -1, 0}},
	{axis: 1, sign: +1, u: 0, v: 2, flip: false, normal: [3]float32{0, 1, 0}},
	{axis: 2, sign: -1, u: 0, v: 1, flip: true, normal: [3]float32{0, 0, -1}},
	{axis: 2, sign: +1, u: 0, v: 1, flip: false, normal: [3]float32{0, 0, 1}},
}

// maskCell is one visible face awaiting merging. Faces merge only when both
// the block id and the face light agree.
type maskCell struct {
	id    uint16
	light uint8
	set   bool
}

type batchKey struct {
	opaque  bool
	texture uint16
}

type builder struct {
	in      *Input
	batches map[batchKey]*Batch
	stats   Stats
}

// Build runs the full greedy pass over one sub-chunk.
func Build(in *Input) Result {
	b := &builder{in: in, batches: make(map[batchKey]*Batch)}

	for _, dir := range directions {
		b.meshDirection(dir)
	}

	res := Result{Stats: b.stats, Instances: b.instances()}
	if len(b.batches) > 0 {
		keys := make([]batchKey, 0, len(b.batches))
		for k := range b.batches {
			keys = append(keys, k)
		}
		// Opaque batches first, then by texture group, so the renderer can
		// draw front-to-back opaque and blend translucents after.
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].opaque != keys[j].opaque {
				return keys[i].opaque
			}
			return keys[i].texture < keys[j].texture
		})
		for _, k := range keys {
			res.Batches = append(res.Batches, *b.batches[k])
		}
	}
	return res
}

func (b *builder) props(id uint16) block.MeshProps {
	if int(id) >= len(b.in.Props) {
		return block.MeshProps{}
	}
	return b.in.Props[id]
}

func (b *builder) blockAt(x, y, z int) uint16 {
	return b.in.Blocks[chunk.Index(x, y, z)]
}

// neighborAt samples a cell that may fall outside the sub-chunk. Vertical
// overflow and absent horizontal neighbors read as air: faces at an edge
// with unknown neighbors must be emitted, never falsely occluded.
func (b *builder) neighborAt(x, y, z int) uint16 {
	if y < 0 || y >= chunk.SizeY {
		return uint16(block.Air)
	}
	switch {
	case x < 0:
		if b.in.Neighbors.NegX == nil {
			return uint16(block.Air)
		}
		return b.in.Neighbors.NegX[chunk.Index(chunk.SizeX-1, y, z)]
	case x >= chunk.SizeX:
		if b.in.Neighbors.PosX == nil {
			return uint16(block.Air)
		}
		return b.in.Neighbors.PosX[chunk.Index(0, y, z)]
	case z < 0:
		if b.in.Neighbors.NegZ == nil {
			return uint16(block.Air)
		}
		return b.in.Neighbors.NegZ[chunk.Index(x, y, chunk.SizeZ-1)]
	case z >= chunk.SizeZ:
		if b.in.Neighbors.PosZ == nil {
			return uint16(block.Air)
		}
		return b.in.Neighbors.PosZ[chunk.Index(x, y, 0)]
	}
	return b.blockAt(x, y, z)
}

// faceLight samples the light of the cell a face looks into. Cells outside
// the sub-chunk count as fully lit; their real light arrives when the
// neighbor remeshes.
func (b *builder) faceLight(x, y, z int) uint8 {
	if !chunk.InBounds(x, y, z) {
		return 15
	}
	l := b.in.Light[chunk.Index(x, y, z)]
	sky, blk := l>>4, l&0x0F
	if blk > sky {
		return blk
	}
	return sky
}

func (b *builder) meshDirection(dir direction) {
	su, sv := sizes[dir.u], sizes[dir.v]
	mask := make([]maskCell, su*sv)

	for layer := 0; layer < sizes[dir.axis]; layer++ {
		// Fill the visibility mask for this layer.
		n := 0
		var c [3]int
		c[dir.axis] = layer
		for iu := 0; iu < su; iu++ {
			c[dir.u] = iu
			for iv := 0; iv < sv; iv++ {
				c[dir.v] = iv
				mask[iu*sv+iv] = maskCell{}

				id := b.blockAt(c[0], c[1], c[2])
				if id == uint16(block.Air) {
					continue
				}
				p := b.props(id)
				if !p.Greedy {
					continue
				}
				var nc [3]int
				nc[0], nc[1], nc[2] = c[0], c[1], c[2]
				nc[dir.axis] += dir.sign
				nid := b.neighborAt(nc[0], nc[1], nc[2])
				if nid == id || b.props(nid).Opaque {
					continue
				}
				mask[iu*sv+iv] = maskCell{
					id:    id,
					light: b.faceLight(nc[0], nc[1], nc[2]),
					set:   true,
				}
				n++
			}
		}
		if n == 0 {
			continue
		}
		b.stats.FacesBeforeMerge += n
		b.mergeLayer(dir, layer, mask, su, sv)
	}
}

// mergeLayer greedily expands each unconsumed mask cell first along v, then
// along u, and emits one quad per merged rectangle.
func (b *builder) mergeLayer(dir direction, layer int, mask []maskCell, su, sv int) {
	for i := 0; i < su*sv; {
		if !mask[i].set {
			i++
			continue
		}
		cell := mask[i]
		u0, v0 := i/sv, i%sv

		width := 1
		for v1 := v0 + 1; v1 < sv && mask[u0*sv+v1] == cell; v1++ {
			width++
		}
		height := 1
	expand:
		for u1 := u0 + 1; u1 < su; u1++ {
			for v1 := v0; v1 < v0+width; v1++ {
				if mask[u1*sv+v1] != cell {
					break expand
				}
			}
			height++
		}

		b.emitQuad(dir, layer, cell, u0, v0, height, width)

		for uu := u0; uu < u0+height; uu++ {
			for vv := v0; vv < v0+width; vv++ {
				mask[uu*sv+vv].set = false
				mask[uu*sv+vv].id = 0
				mask[uu*sv+vv].light = 0
			}
		}
		i += width
	}
}

func (b *builder) emitQuad(dir direction, layer int, cell maskCell, u0, v0, du, dv int) {
	p := b.props(cell.id)
	key := batchKey{opaque: p.Opaque, texture: p.Texture}
	batch, ok := b.batches[key]
	if !ok {
		batch = &Batch{Opaque: p.Opaque, Texture: p.Texture}
		b.batches[key] = batch
	}

	plane := layer
	if dir.sign > 0 {
		plane++
	}

	// Corner offsets in (u,v) space, counter-clockwise seen from outside.
	corners := [4][2]int{
		{0, 0}, {du, 0}, {du, dv}, {0, dv},
	}
	if dir.flip {
		corners = [4][2]int{{0, 0}, {0, dv}, {du, dv}, {du, 0}}
	}

	base := uint32(len(batch.Positions) / 3)
	tint := float32(cell.light) / 15
	for _, cr := range corners {
		var pos [3]float32
		pos[dir.axis] = float32(plane)
		pos[dir.u] = float32(u0 + cr[0])
		pos[dir.v] = float32(v0 + cr[1])
		batch.Positions = append(batch.Positions, pos[0], pos[1], pos[2])
		batch.UVs = append(batch.UVs, float32(cr[0]), float32(cr[1]))
		batch.Normals = append(batch.Normals, dir.normal[0], dir.normal[1], dir.normal[2])
		batch.Colors = append(batch.Colors, tint, tint, tint)
	}
	batch.Indices = append(batch.Indices,
		base, base+1, base+2,
		base+2, base+3, base,
	)
	b.stats.Quads++
}

// instances collects the non-greedy blocks with their cell light.
func (b *builder) instances() []Instance {
	var out []Instance
	for y := 0; y < chunk.SizeY; y++ {
		for z := 0; z < chunk.SizeZ; z++ {
			for x := 0; x < chunk.SizeX; x++ {
				id := b.blockAt(x, y, z)
				if id == uint16(block.Air) || b.props(id).Greedy {
					continue
				}
				l := b.in.Light[chunk.Index(x, y, z)]
				out = append(out, Instance{
					ID: id, X: x, Y: y, Z: z,
					Sky: l >> 4, Blk: l & 0x0F,
				})
			}
		}
	}
	return out
}
