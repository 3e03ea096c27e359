package block

import "voxelworld/internal/coord"

// StateTable holds per-coordinate mutable block state (furnace contents and
// the like), keyed by position and grouped by column so a whole column's
// state drops in one map delete on unload.
type StateTable struct {
	byColumn map[coord.Chunk]map[coord.World]any
}

func NewStateTable() *StateTable {
	return &StateTable{byColumn: make(map[coord.Chunk]map[coord.World]any)}
}

func (t *StateTable) Get(pos coord.World) (any, bool) {
	col, ok := t.byColumn[coord.WorldToChunk(pos)]
	if !ok {
		return nil, false
	}
	s, ok := col[pos]
	return s, ok
}

// GetOrCreate returns the state at pos, creating it with create on first
// access.
func (t *StateTable) GetOrCreate(pos coord.World, create func() any) any {
	ck := coord.WorldToChunk(pos)
	col, ok := t.byColumn[ck]
	if !ok {
		col = make(map[coord.World]any)
		t.byColumn[ck] = col
	}
	if s, ok := col[pos]; ok {
		return s
	}
	s := create()
	col[pos] = s
	return s
}

// Remove destroys the state at pos, e.g. when the owning block is removed.
func (t *StateTable) Remove(pos coord.World) {
	ck := coord.WorldToChunk(pos)
	col, ok := t.byColumn[ck]
	if !ok {
		return
	}
	delete(col, pos)
	if len(col) == 0 {
		delete(t.byColumn, ck)
	}
}

// RemoveColumn drops every state owned by a column. Called on unload.
func (t *StateTable) RemoveColumn(c coord.Chunk) {
	delete(t.byColumn, c)
}
