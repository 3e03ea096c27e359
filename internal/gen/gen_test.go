package gen

import (
	"testing"

	"voxelworld/internal/block"
	"voxelworld/internal/chunk"
	"voxelworld/internal/coord"
)

func generate(t *testing.T, seed int64, pos coord.Chunk, passes ...Pass) *chunk.Column {
	t.Helper()
	col := chunk.NewColumn(pos)
	p := &Pipeline{Passes: passes}
	if err := p.Generate(col); err != nil {
		t.Fatalf("generate: %v", err)
	}
	return col
}

func TestTerrainDeterministic(t *testing.T) {
	a := generate(t, 7, coord.Chunk{X: -1, Z: 2}, NewTerrain(7))
	b := generate(t, 7, coord.Chunk{X: -1, Z: 2}, NewTerrain(7))
	for i := 0; i < coord.SubChunkCount; i++ {
		sa, sb := a.Sub(i), b.Sub(i)
		if (sa == nil) != (sb == nil) {
			t.Fatalf("sub %d presence differs", i)
		}
		if sa == nil {
			continue
		}
		ba, bb := sa.Blocks(), sb.Blocks()
		for j := range ba {
			if ba[j] != bb[j] {
				t.Fatalf("sub %d cell %d differs: %d vs %d", i, j, ba[j], bb[j])
			}
		}
	}
}

func TestCavePredictionParity(t *testing.T) {
	const seed = 42
	terrain := NewTerrain(seed)
	caves := NewCaves(seed, terrain)
	pos := coord.Chunk{X: 3, Z: -2}
	col := generate(t, seed, pos, terrain, caves)

	base := coord.LocalToWorld(pos, coord.Local{})
	checked := 0
	for dx := 0; dx < coord.ChunkSizeX; dx += 3 {
		for dz := 0; dz < coord.ChunkSizeZ; dz += 3 {
			x, z := base.X+int64(dx), base.Z+int64(dz)
			h := terrain.HeightAt(x, z)
			for y := carveFloor; y <= h-carveCrust; y++ {
				carved := col.Block(coord.Local{X: dx, Y: y, Z: dz}) == block.Air
				predicted := caves.CaveAt(x, int64(y), z)
				if carved != predicted {
					t.Fatalf("parity broke at (%d,%d,%d): carved=%v predicted=%v", x, y, z, carved, predicted)
				}
				if carved {
					checked++
				}
			}
		}
	}
	if checked == 0 {
		t.Fatalf("no carved cells sampled; test is vacuous")
	}
}

func TestColumnHasCaveMatchesScan(t *testing.T) {
	terrain := NewTerrain(11)
	caves := NewCaves(11, terrain)
	for _, p := range [][2]int64{{0, 0}, {17, -40}, {-333, 95}} {
		h := terrain.HeightAt(p[0], p[1])
		want := false
		for y := int64(carveFloor); y <= int64(h-carveCrust); y++ {
			if caves.CaveAt(p[0], y, p[1]) {
				want = true
				break
			}
		}
		if got := caves.ColumnHasCave(p[0], p[1]); got != want {
			t.Fatalf("ColumnHasCave(%v) = %v, want %v", p, got, want)
		}
	}
}

// flatHeight gives full control over depth checks.
func flatHeight(h int) HeightFunc {
	return func(x, z int64) int { return h }
}

func TestWaterFillDeterministic(t *testing.T) {
	terrain := NewTerrain(5)
	mk := func() *chunk.Column {
		w, err := NewWaterFill(5, terrain.HeightAt, 20, 3, 0.4)
		if err != nil {
			t.Fatalf("water: %v", err)
		}
		return generate(t, 5, coord.Chunk{X: 0, Z: 0}, terrain, w)
	}
	a, b := mk(), mk()
	for i := 0; i < coord.SubChunkCount; i++ {
		sa, sb := a.Sub(i), b.Sub(i)
		if (sa == nil) != (sb == nil) {
			t.Fatalf("sub %d presence differs", i)
		}
		if sa == nil {
			continue
		}
		ba, bb := sa.Blocks(), sb.Blocks()
		for j := range ba {
			if ba[j] != bb[j] {
				t.Fatalf("water fill not deterministic at sub %d cell %d", i, j)
			}
		}
	}
}

func TestWaterFillFillsDeepBasin(t *testing.T) {
	// Uniform terrain 10 below a level-20 lake: every column is deep enough,
	// cutoff 0 puts the whole world in a water region.
	w, err := NewWaterFill(1, flatHeight(10), 20, 5, 0)
	if err != nil {
		t.Fatalf("water: %v", err)
	}
	col := chunk.NewColumn(coord.Chunk{})
	// Solid floor so fill starts above it.
	for x := 0; x < coord.ChunkSizeX; x++ {
		for z := 0; z < coord.ChunkSizeZ; z++ {
			col.SetBlock(coord.Local{X: x, Y: 10, Z: z}, block.Stone)
		}
	}
	if err := w.Apply(col); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := col.Block(coord.Local{X: 4, Y: 11, Z: 4}); got != block.Water {
		t.Fatalf("cell above floor = %d, want water", got)
	}
	if got := col.Block(coord.Local{X: 4, Y: 20, Z: 4}); got != block.Water {
		t.Fatalf("cell at water level = %d, want water", got)
	}
	if got := col.Block(coord.Local{X: 4, Y: 21, Z: 4}); got != block.Air {
		t.Fatalf("cell above water level = %d, want air", got)
	}
	if got := col.Block(coord.Local{X: 4, Y: 10, Z: 4}); got != block.Stone {
		t.Fatalf("water overwrote the floor")
	}
}

func TestWaterFillSkipsShallowDepression(t *testing.T) {
	// Terrain 2 below the level with a min depth of 5: never filled.
	w, err := NewWaterFill(1, flatHeight(18), 20, 5, 0)
	if err != nil {
		t.Fatalf("water: %v", err)
	}
	col := chunk.NewColumn(coord.Chunk{})
	if err := w.Apply(col); err != nil {
		t.Fatalf("apply: %v", err)
	}
	for _, y := range []int{19, 20} {
		if got := col.Block(coord.Local{X: 8, Y: y, Z: 8}); got != block.Air {
			t.Fatalf("shallow depression filled at y=%d", y)
		}
	}
}

func TestWaterFillRespectsCutoff(t *testing.T) {
	// Cutoff above the noise range: no column classifies as water region.
	w, err := NewWaterFill(1, flatHeight(5), 20, 5, 2)
	if err != nil {
		t.Fatalf("water: %v", err)
	}
	col := chunk.NewColumn(coord.Chunk{})
	if err := w.Apply(col); err != nil {
		t.Fatalf("apply: %v", err)
	}
	for i := 0; i < coord.SubChunkCount; i++ {
		if s := col.Sub(i); s != nil && !s.Empty() {
			t.Fatalf("dry world grew water")
		}
	}
}
