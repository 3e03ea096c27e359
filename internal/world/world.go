// Package world owns the set of loaded chunk columns and every world-space
// block access the rest of the engine performs. All methods are main-thread
// only; workers never see these types, only copied arrays.
package world

import (
	"log"

	"github.com/pkg/errors"

	"voxelworld/internal/block"
	"voxelworld/internal/chunk"
	"voxelworld/internal/coord"
)

// Generator populates a freshly created column. Implementations must be
// deterministic for a fixed seed.
type Generator interface {
	Generate(col *chunk.Column) error
}

// Manager exclusively owns all chunk columns.
type Manager struct {
	reg     *block.Registry
	gen     Generator
	columns map[coord.Chunk]*chunk.Column
	states  *block.StateTable
	events  *Events
}

func NewManager(reg *block.Registry, gen Generator) *Manager {
	return &Manager{
		reg:     reg,
		gen:     gen,
		columns: make(map[coord.Chunk]*chunk.Column),
		states:  block.NewStateTable(),
		events:  NewEvents(),
	}
}

func (m *Manager) Registry() *block.Registry { return m.reg }
func (m *Manager) Events() *Events           { return m.events }
func (m *Manager) States() *block.StateTable { return m.states }

// Column returns a loaded column, or nil.
func (m *Manager) Column(c coord.Chunk) *chunk.Column {
	return m.columns[c]
}

// Columns calls f for every loaded column.
func (m *Manager) Columns(f func(*chunk.Column)) {
	for _, col := range m.columns {
		f(col)
	}
}

// LoadChunk loads (generating if needed) the column at c. Idempotent: an
// already-loaded column is returned as-is. On generation failure the column
// still ends LOADED with whatever was generated before the failure, and the
// error is returned.
func (m *Manager) LoadChunk(c coord.Chunk) (*chunk.Column, error) {
	if col, ok := m.columns[c]; ok {
		return col, nil
	}
	col := chunk.NewColumn(c)
	m.columns[c] = col
	col.SetState(chunk.Generating)
	var err error
	if m.gen != nil {
		err = m.gen.Generate(col)
	}
	// The lifecycle must resolve to a terminal state even on failure.
	col.SetState(chunk.Loaded)
	col.MarkAllDirty()
	m.events.emitLoaded(c)
	if err != nil {
		return col, errors.Wrapf(err, "generate column (%d,%d)", c.X, c.Z)
	}
	return col, nil
}

// UnloadChunk releases a column's storage and deregisters it everywhere:
// block states drop, and unload observers (lighting queue, mesh cache,
// debug overlays) are told to forget it. Unknown columns are a no-op.
func (m *Manager) UnloadChunk(c coord.Chunk) {
	col, ok := m.columns[c]
	if !ok {
		return
	}
	delete(m.columns, c)
	m.states.RemoveColumn(c)
	col.Release()
	m.events.emitUnloaded(c)
}

// Block reads the block at a world coordinate. Missing columns and
// out-of-range Y read as air, never an error.
func (m *Manager) Block(w coord.World) block.ID {
	if !coord.InColumnBounds(w.Y) {
		return block.Air
	}
	col, ok := m.columns[coord.WorldToChunk(w)]
	if !ok {
		return block.Air
	}
	return col.Block(coord.WorldToLocal(w))
}

// HasColumn reports whether the column containing w is loaded.
func (m *Manager) HasColumn(c coord.Chunk) bool {
	_, ok := m.columns[c]
	return ok
}

// SetBlock writes a block and reports whether anything changed. Writes into
// unloaded columns are dropped (recoverable absence). A change on a column
// border also dirties the adjacent column(s), since their face exposure
// depends on this block.
func (m *Manager) SetBlock(w coord.World, id block.ID) bool {
	if !coord.InColumnBounds(w.Y) {
		log.Printf("world: set block at y=%d outside column, dropped", w.Y)
		return false
	}
	ck := coord.WorldToChunk(w)
	col, ok := m.columns[ck]
	if !ok {
		return false
	}
	l := coord.WorldToLocal(w)
	if !col.SetBlock(l, id) {
		return false
	}
	if id == block.Air {
		m.states.Remove(w)
	}
	m.dirtyNeighbors(ck, l)
	m.events.emitBlockChanged(w, id)
	return true
}

// dirtyNeighbors marks adjacent columns dirty when an edit lands on a
// horizontal column boundary, and adjacent sub-chunks when it lands on a
// vertical sub-chunk boundary.
func (m *Manager) dirtyNeighbors(ck coord.Chunk, l coord.Local) {
	sub := coord.SubIndex(l.Y)
	mark := func(c coord.Chunk, s int) {
		if col, ok := m.columns[c]; ok && s >= 0 && s < coord.SubChunkCount {
			col.MarkDirty(s)
		}
	}
	if l.X == 0 {
		mark(coord.Chunk{X: ck.X - 1, Z: ck.Z}, sub)
	}
	if l.X == coord.ChunkSizeX-1 {
		mark(coord.Chunk{X: ck.X + 1, Z: ck.Z}, sub)
	}
	if l.Z == 0 {
		mark(coord.Chunk{X: ck.X, Z: ck.Z - 1}, sub)
	}
	if l.Z == coord.ChunkSizeZ-1 {
		mark(coord.Chunk{X: ck.X, Z: ck.Z + 1}, sub)
	}
	if coord.SubLocalY(l.Y) == 0 && sub > 0 {
		mark(ck, sub-1)
	}
	if coord.SubLocalY(l.Y) == coord.SubChunkHeight-1 && sub < coord.SubChunkCount-1 {
		mark(ck, sub+1)
	}
}

// Skylight and Blocklight read the stored light channels. Missing data reads
// as full sky / no blocklight.
func (m *Manager) Skylight(w coord.World) uint8 {
	if !coord.InColumnBounds(w.Y) {
		return 15
	}
	col, ok := m.columns[coord.WorldToChunk(w)]
	if !ok {
		return 15
	}
	return col.Skylight(coord.WorldToLocal(w))
}

func (m *Manager) Blocklight(w coord.World) uint8 {
	if !coord.InColumnBounds(w.Y) {
		return 0
	}
	col, ok := m.columns[coord.WorldToChunk(w)]
	if !ok {
		return 0
	}
	return col.Blocklight(coord.WorldToLocal(w))
}

// renderLight is the light level used to shade a block. Solid blocks store
// zero internally, so they take the maximum over their non-solid neighbors.
// The mesher applies the same rule per face over its own snapshot arrays;
// this is the reference form of that rule.
func (m *Manager) renderLight(w coord.World) (sky, blk uint8) {
	id := m.Block(w)
	if !m.reg.IsSolid(id) {
		return m.Skylight(w), m.Blocklight(w)
	}
	for _, n := range w.Neighbors6() {
		if m.reg.IsSolid(m.Block(n)) {
			continue
		}
		if s := m.Skylight(n); s > sky {
			sky = s
		}
		if b := m.Blocklight(n); b > blk {
			blk = b
		}
	}
	return sky, blk
}

// IsSolid is the collision-shape query physics uses.
func (m *Manager) IsSolid(w coord.World) bool {
	return m.reg.IsSolid(m.Block(w))
}

// HighestBlockAt returns the world Y of the topmost non-air block in the
// column containing (x,z), or false if the column is unloaded or empty.
func (m *Manager) HighestBlockAt(x, z int64) (int64, bool) {
	w := coord.World{X: x, Z: z}
	col, ok := m.columns[coord.WorldToChunk(w)]
	if !ok {
		return 0, false
	}
	l := coord.WorldToLocal(w)
	y, ok := col.HighestBlockAt(l.X, l.Z)
	return int64(y), ok
}

// SubFullyOpaque reports whether every cell of a sub-chunk is an opaque
// block. Fully opaque sub-chunks are valid occluders even when they have no
// mesh.
func (m *Manager) SubFullyOpaque(s coord.Sub) bool {
	col, ok := m.columns[s.Chunk()]
	if !ok {
		return false
	}
	sc := col.Sub(s.Y)
	if sc == nil || sc.NonAir() != chunk.BlockCount {
		return false
	}
	opaque := m.reg.OpaqueSet()
	for _, id := range sc.Blocks() {
		if int(id) >= len(opaque) || !opaque[id] {
			return false
		}
	}
	return true
}
