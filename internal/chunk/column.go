package chunk

import (
	"log"
	"time"

	"voxelworld/internal/block"
	"voxelworld/internal/coord"
)

// State is the lifecycle of a column.
type State int

const (
	Unloaded State = iota
	Generating
	Loaded
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "UNLOADED"
	case Generating:
		return "GENERATING"
	case Loaded:
		return "LOADED"
	}
	return "UNKNOWN"
}

// Column owns up to 16 sub-chunks for one (x,z) grid cell. Sub-chunks are
// sparse: slots stay nil until something writes into them. All mutation
// happens on the main thread.
type Column struct {
	Pos   coord.Chunk
	state State

	subs  [coord.SubChunkCount]*SubChunk
	dirty [coord.SubChunkCount]bool

	// Version bumps on every mutation so caches can detect staleness
	// without comparing contents.
	Version int64
}

func NewColumn(pos coord.Chunk) *Column {
	return &Column{Pos: pos, Version: time.Now().UnixNano()}
}

func (c *Column) State() State { return c.state }

func (c *Column) SetState(s State) {
	if s < Unloaded || s > Loaded {
		log.Panicf("chunk: bad column state %d", s)
	}
	c.state = s
}

func (c *Column) bumpVersion() {
	c.Version++
}

// Sub returns the sub-chunk at index i, or nil if absent.
func (c *Column) Sub(i int) *SubChunk {
	if i < 0 || i >= coord.SubChunkCount {
		log.Panicf("chunk: sub-chunk index %d out of range", i)
	}
	return c.subs[i]
}

// EnsureSub returns the sub-chunk at index i, allocating it if absent.
func (c *Column) EnsureSub(i int) *SubChunk {
	if i < 0 || i >= coord.SubChunkCount {
		log.Panicf("chunk: sub-chunk index %d out of range", i)
	}
	if c.subs[i] == nil {
		c.subs[i] = NewSubChunk()
	}
	return c.subs[i]
}

// SetSub installs a sub-chunk loaded from the store.
func (c *Column) SetSub(i int, s *SubChunk) {
	if i < 0 || i >= coord.SubChunkCount {
		log.Panicf("chunk: sub-chunk index %d out of range", i)
	}
	c.subs[i] = s
	c.dirty[i] = true
	c.bumpVersion()
}

// Block reads a block at column-local coordinates. Absent sub-chunks read as
// air.
func (c *Column) Block(l coord.Local) block.ID {
	if l.Y < 0 || l.Y >= coord.ColumnHeight {
		log.Panicf("chunk: local y %d out of column bounds", l.Y)
	}
	s := c.subs[coord.SubIndex(l.Y)]
	if s == nil {
		return block.Air
	}
	return s.Block(l.X, coord.SubLocalY(l.Y), l.Z)
}

// SetBlock writes a block at column-local coordinates, allocating the
// sub-chunk on demand, and reports whether the value changed. A change marks
// the sub-chunk dirty.
func (c *Column) SetBlock(l coord.Local, id block.ID) bool {
	if l.Y < 0 || l.Y >= coord.ColumnHeight {
		log.Panicf("chunk: local y %d out of column bounds", l.Y)
	}
	i := coord.SubIndex(l.Y)
	if c.subs[i] == nil && id == block.Air {
		return false
	}
	changed := c.EnsureSub(i).SetBlock(l.X, coord.SubLocalY(l.Y), l.Z, id)
	if changed {
		c.dirty[i] = true
		c.bumpVersion()
	}
	return changed
}

func (c *Column) Skylight(l coord.Local) uint8 {
	s := c.subs[coord.SubIndex(l.Y)]
	if s == nil {
		return 15
	}
	return s.Skylight(l.X, coord.SubLocalY(l.Y), l.Z)
}

func (c *Column) Blocklight(l coord.Local) uint8 {
	s := c.subs[coord.SubIndex(l.Y)]
	if s == nil {
		return 0
	}
	return s.Blocklight(l.X, coord.SubLocalY(l.Y), l.Z)
}

// HighestBlockAt scans the whole column downward for the first non-air
// block and returns its column-local Y.
func (c *Column) HighestBlockAt(x, z int) (int, bool) {
	for i := coord.SubChunkCount - 1; i >= 0; i-- {
		s := c.subs[i]
		if s == nil || s.Empty() {
			continue
		}
		if y, ok := s.HighestBlockAt(x, z); ok {
			return i*coord.SubChunkHeight + y, true
		}
	}
	return 0, false
}

// MarkDirty flags a sub-chunk for remeshing/relighting.
func (c *Column) MarkDirty(sub int) {
	if sub < 0 || sub >= coord.SubChunkCount {
		log.Panicf("chunk: sub-chunk index %d out of range", sub)
	}
	c.dirty[sub] = true
	c.bumpVersion()
}

// MarkAllDirty flags every present sub-chunk.
func (c *Column) MarkAllDirty() {
	for i, s := range c.subs {
		if s != nil {
			c.dirty[i] = true
		}
	}
	c.bumpVersion()
}

// IsDirty reports whether a sub-chunk has unconsumed mutations.
func (c *Column) IsDirty(sub int) bool {
	return c.dirty[sub]
}

// ConsumeDirty returns the dirty sub-chunk indices and clears the flags.
// The meshing pass calls this once it has snapshotted the arrays.
func (c *Column) ConsumeDirty() []int {
	var out []int
	for i := range c.dirty {
		if c.dirty[i] {
			out = append(out, i)
			c.dirty[i] = false
		}
	}
	return out
}

// Release drops all sub-chunk storage. Reads after release would return
// ghosts, so the manager only calls this as the final step of unload.
func (c *Column) Release() {
	for i := range c.subs {
		c.subs[i] = nil
		c.dirty[i] = false
	}
	c.state = Unloaded
	c.bumpVersion()
}
