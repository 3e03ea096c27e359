package world

import (
	"voxelworld/internal/block"
	"voxelworld/internal/coord"
)

// Events is an explicit observer registry. Unsubscribe is an O(1)
// map delete; subscribers for a column must unhook on unload, which the
// unload event itself makes possible.
type Events struct {
	next      int
	loaded    map[int]func(coord.Chunk)
	unloaded  map[int]func(coord.Chunk)
	blockSet  map[int]func(coord.World, block.ID)
	lightDone map[int]func(coord.Chunk, int)
}

func NewEvents() *Events {
	return &Events{
		loaded:    make(map[int]func(coord.Chunk)),
		unloaded:  make(map[int]func(coord.Chunk)),
		blockSet:  make(map[int]func(coord.World, block.ID)),
		lightDone: make(map[int]func(coord.Chunk, int)),
	}
}

func (e *Events) id() int {
	e.next++
	return e.next
}

// OnColumnLoaded fires after a column reaches LOADED. Returns unsubscribe.
func (e *Events) OnColumnLoaded(f func(coord.Chunk)) func() {
	id := e.id()
	e.loaded[id] = f
	return func() { delete(e.loaded, id) }
}

// OnColumnUnloaded fires after a column is removed and released.
func (e *Events) OnColumnUnloaded(f func(coord.Chunk)) func() {
	id := e.id()
	e.unloaded[id] = f
	return func() { delete(e.unloaded, id) }
}

// OnBlockChanged fires after a block mutation that changed storage.
func (e *Events) OnBlockChanged(f func(coord.World, block.ID)) func() {
	id := e.id()
	e.blockSet[id] = f
	return func() { delete(e.blockSet, id) }
}

// OnLightingUpdated fires when a background lighting pass changed a
// sub-chunk's light array.
func (e *Events) OnLightingUpdated(f func(coord.Chunk, int)) func() {
	id := e.id()
	e.lightDone[id] = f
	return func() { delete(e.lightDone, id) }
}

func (e *Events) emitLoaded(c coord.Chunk) {
	for _, f := range e.loaded {
		f(c)
	}
}

func (e *Events) emitUnloaded(c coord.Chunk) {
	for _, f := range e.unloaded {
		f(c)
	}
}

func (e *Events) emitBlockChanged(w coord.World, id block.ID) {
	for _, f := range e.blockSet {
		f(w, id)
	}
}

// EmitLightingUpdated is called by the lighting scheduler after applying a
// worker result.
func (e *Events) EmitLightingUpdated(c coord.Chunk, sub int) {
	for _, f := range e.lightDone {
		f(c, sub)
	}
}
