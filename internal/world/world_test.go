package world

import (
	"testing"

	"github.com/pkg/errors"

	"voxelworld/internal/block"
	"voxelworld/internal/chunk"
	"voxelworld/internal/coord"
)

type flatGen struct {
	top int
	err error
}

func (g *flatGen) Generate(col *chunk.Column) error {
	for x := 0; x < coord.ChunkSizeX; x++ {
		for z := 0; z < coord.ChunkSizeZ; z++ {
			for y := 0; y <= g.top; y++ {
				col.SetBlock(coord.Local{X: x, Y: y, Z: z}, block.Stone)
			}
		}
	}
	return g.err
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(block.DefaultRegistry(), &flatGen{top: 10})
}

func TestLoadChunkIdempotent(t *testing.T) {
	m := newTestManager(t)
	a, err := m.LoadChunk(coord.Chunk{X: 0, Z: 0})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := m.LoadChunk(coord.Chunk{X: 0, Z: 0})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if a != b {
		t.Fatalf("LoadChunk returned a different instance on reload")
	}
	if a.State() != chunk.Loaded {
		t.Fatalf("state = %v, want LOADED", a.State())
	}
}

func TestGenerationFailureStillLoads(t *testing.T) {
	m := NewManager(block.DefaultRegistry(), &flatGen{top: 3, err: errors.New("boom")})
	col, err := m.LoadChunk(coord.Chunk{X: 1, Z: 1})
	if err == nil {
		t.Fatalf("expected generation error")
	}
	if col.State() != chunk.Loaded {
		t.Fatalf("column stuck in %v after failure", col.State())
	}
}

func TestBlockAccessAndAbsence(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.LoadChunk(coord.Chunk{}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := m.Block(coord.World{X: 5, Y: 5, Z: 5}); got != block.Stone {
		t.Fatalf("generated block = %d, want stone", got)
	}
	if got := m.Block(coord.World{X: 500, Y: 5, Z: 500}); got != block.Air {
		t.Fatalf("unloaded column should read air, got %d", got)
	}
	if got := m.Block(coord.World{X: 5, Y: -1, Z: 5}); got != block.Air {
		t.Fatalf("below-world read should be air, got %d", got)
	}
	if m.SetBlock(coord.World{X: 500, Y: 5, Z: 500}, block.Dirt) {
		t.Fatalf("write into unloaded column should be dropped")
	}
}

func TestBoundaryEditDirtiesNeighbor(t *testing.T) {
	m := newTestManager(t)
	a, _ := m.LoadChunk(coord.Chunk{X: 0, Z: 0})
	b, _ := m.LoadChunk(coord.Chunk{X: 1, Z: 0})
	a.ConsumeDirty()
	b.ConsumeDirty()

	// x=31 is the eastern edge of column (0,0).
	if !m.SetBlock(coord.World{X: 31, Y: 20, Z: 5}, block.Glowstone) {
		t.Fatalf("edit did not apply")
	}
	sub := coord.SubIndex(20)
	if !a.IsDirty(sub) {
		t.Fatalf("owning column not dirty")
	}
	if !b.IsDirty(sub) {
		t.Fatalf("neighbor column not dirty after boundary edit")
	}
}

func TestUnloadDeregisters(t *testing.T) {
	m := newTestManager(t)
	ck := coord.Chunk{X: 2, Z: 3}
	if _, err := m.LoadChunk(ck); err != nil {
		t.Fatalf("load: %v", err)
	}
	pos := coord.LocalToWorld(ck, coord.Local{X: 1, Y: 11, Z: 1})
	m.SetBlock(pos, block.Glowstone)
	m.States().GetOrCreate(pos, func() any { return map[string]int{"fuel": 3} })

	var unloaded []coord.Chunk
	m.Events().OnColumnUnloaded(func(c coord.Chunk) { unloaded = append(unloaded, c) })

	m.UnloadChunk(ck)
	if m.Column(ck) != nil {
		t.Fatalf("column still tracked after unload")
	}
	if _, ok := m.States().Get(pos); ok {
		t.Fatalf("block state leaked past unload")
	}
	if len(unloaded) != 1 || unloaded[0] != ck {
		t.Fatalf("unload event not delivered: %v", unloaded)
	}
	if got := m.Block(pos); got != block.Air {
		t.Fatalf("unloaded column should read air, got %d", got)
	}
}

func TestRenderLightUsesNeighborMax(t *testing.T) {
	m := newTestManager(t)
	col, _ := m.LoadChunk(coord.Chunk{})
	// Solid block at (5,10,5); give one neighbor cell some blocklight.
	sub := col.EnsureSub(0)
	sub.SetBlocklight(5, 11, 5, 9)
	sub.SetSkylight(5, 11, 5, 12)
	sky, blk := m.renderLight(coord.World{X: 5, Y: 10, Z: 5})
	if sky != 12 || blk != 9 {
		t.Fatalf("renderLight = %d/%d, want 12/9", sky, blk)
	}
}

func TestSubFullyOpaque(t *testing.T) {
	m := newTestManager(t)
	col, _ := m.LoadChunk(coord.Chunk{})
	s := col.EnsureSub(1)
	for x := 0; x < chunk.SizeX; x++ {
		for y := 0; y < chunk.SizeY; y++ {
			for z := 0; z < chunk.SizeZ; z++ {
				s.SetBlock(x, y, z, block.Stone)
			}
		}
	}
	if !m.SubFullyOpaque(coord.Sub{X: 0, Z: 0, Y: 1}) {
		t.Fatalf("filled stone sub-chunk should be fully opaque")
	}
	s.SetBlock(0, 0, 0, block.Water)
	if m.SubFullyOpaque(coord.Sub{X: 0, Z: 0, Y: 1}) {
		t.Fatalf("translucent cell should break full opacity")
	}
	if m.SubFullyOpaque(coord.Sub{X: 9, Z: 9, Y: 0}) {
		t.Fatalf("unloaded column can never be an occluder")
	}
}
