// Package chunk implements the dense voxel storage: fixed-size sub-chunks
// and the column that stacks them.
package chunk

import (
	"log"

	"voxelworld/internal/block"
	"voxelworld/internal/coord"
)

const (
	SizeX = coord.ChunkSizeX
	SizeZ = coord.ChunkSizeZ
	SizeY = coord.SubChunkHeight

	// BlockCount is the number of cells in one sub-chunk.
	BlockCount = SizeX * SizeZ * SizeY
)

// SubChunk owns two dense arrays for one 32x32x64 slice of a column: 16-bit
// block ids and 8-bit packed light (high nibble skylight, low nibble
// blocklight). Layout is Y-major: index = y*32*32 + z*32 + x.
type SubChunk struct {
	blocks []uint16
	light  []uint8
	nonAir int
}

func NewSubChunk() *SubChunk {
	return &SubChunk{
		blocks: make([]uint16, BlockCount),
		light:  make([]uint8, BlockCount),
	}
}

// FromArrays wraps existing arrays, e.g. loaded from the store. The arrays
// are owned by the sub-chunk afterwards.
func FromArrays(blocks []uint16, light []uint8) *SubChunk {
	if len(blocks) != BlockCount || len(light) != BlockCount {
		log.Panicf("chunk: bad array sizes %d/%d", len(blocks), len(light))
	}
	s := &SubChunk{blocks: blocks, light: light}
	for _, id := range blocks {
		if id != uint16(block.Air) {
			s.nonAir++
		}
	}
	return s
}

// Index maps local coordinates to the array slot. Out-of-bounds input is a
// contract violation, never wrapped or clamped.
func Index(x, y, z int) int {
	if x < 0 || x >= SizeX || y < 0 || y >= SizeY || z < 0 || z >= SizeZ {
		log.Panicf("chunk: coordinate (%d,%d,%d) out of sub-chunk bounds", x, y, z)
	}
	return y*SizeX*SizeZ + z*SizeX + x
}

// InBounds reports whether the coordinates are inside the sub-chunk, for
// callers that need to gate instead of panic.
func InBounds(x, y, z int) bool {
	return x >= 0 && x < SizeX && y >= 0 && y < SizeY && z >= 0 && z < SizeZ
}

func (s *SubChunk) Block(x, y, z int) block.ID {
	return block.ID(s.blocks[Index(x, y, z)])
}

// SetBlock stores id and reports whether the stored value actually changed,
// so callers can skip downstream work on no-ops.
func (s *SubChunk) SetBlock(x, y, z int, id block.ID) bool {
	i := Index(x, y, z)
	old := block.ID(s.blocks[i])
	if old == id {
		return false
	}
	s.blocks[i] = uint16(id)
	if old == block.Air {
		s.nonAir++
	} else if id == block.Air {
		s.nonAir--
	}
	return true
}

func (s *SubChunk) Skylight(x, y, z int) uint8 {
	return s.light[Index(x, y, z)] >> 4
}

func (s *SubChunk) Blocklight(x, y, z int) uint8 {
	return s.light[Index(x, y, z)] & 0x0F
}

func (s *SubChunk) SetSkylight(x, y, z int, level uint8) {
	if level > 15 {
		log.Panicf("chunk: skylight level %d out of range", level)
	}
	i := Index(x, y, z)
	s.light[i] = s.light[i]&0x0F | level<<4
}

func (s *SubChunk) SetBlocklight(x, y, z int, level uint8) {
	if level > 15 {
		log.Panicf("chunk: blocklight level %d out of range", level)
	}
	i := Index(x, y, z)
	s.light[i] = s.light[i]&0xF0 | level
}

// HighestBlockAt scans downward and returns the local Y of the first non-air
// block in the (x,z) column of this sub-chunk, or false if it is all air.
func (s *SubChunk) HighestBlockAt(x, z int) (int, bool) {
	for y := SizeY - 1; y >= 0; y-- {
		if s.blocks[Index(x, y, z)] != uint16(block.Air) {
			return y, true
		}
	}
	return 0, false
}

// Empty reports whether every cell is air.
func (s *SubChunk) Empty() bool {
	return s.nonAir == 0
}

// NonAir returns the number of non-air cells.
func (s *SubChunk) NonAir() int {
	return s.nonAir
}

// Blocks exposes the underlying block array without copying, for zero-copy
// handoff when the buffer is being transferred to a worker. The main thread
// must not mutate it while a worker holds it; use CloneBlocks for shared
// snapshots.
func (s *SubChunk) Blocks() []uint16 {
	return s.blocks
}

// Light exposes the underlying packed light array without copying.
func (s *SubChunk) Light() []uint8 {
	return s.light
}

func (s *SubChunk) CloneBlocks() []uint16 {
	c := make([]uint16, BlockCount)
	copy(c, s.blocks)
	return c
}

func (s *SubChunk) CloneLight() []uint8 {
	c := make([]uint8, BlockCount)
	copy(c, s.light)
	return c
}

// ReplaceLight swaps in a light array computed elsewhere (the lighting
// worker returns independent arrays). Ownership transfers to the sub-chunk.
func (s *SubChunk) ReplaceLight(light []uint8) {
	if len(light) != BlockCount {
		log.Panicf("chunk: bad light array size %d", len(light))
	}
	s.light = light
}
