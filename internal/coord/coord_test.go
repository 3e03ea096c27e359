package coord

import "testing"

func TestWorldRoundTrip(t *testing.T) {
	cases := []World{
		{0, 0, 0},
		{31, 1023, 31},
		{32, 5, 32},
		{-1, 0, -1},
		{-32, 63, -33},
		{-100000007, 512, 99999991},
		{1 << 40, 100, -(1 << 40)},
	}
	for _, w := range cases {
		c := WorldToChunk(w)
		l := WorldToLocal(w)
		if l.X < 0 || l.X >= ChunkSizeX || l.Z < 0 || l.Z >= ChunkSizeZ {
			t.Fatalf("local out of range for %v: %v", w, l)
		}
		if got := LocalToWorld(c, l); got != w {
			t.Fatalf("round trip %v: got %v (chunk %v local %v)", w, got, c, l)
		}
	}
}

func TestWorldToChunkFloors(t *testing.T) {
	if c := WorldToChunk(World{X: -1, Z: -1}); c != (Chunk{X: -1, Z: -1}) {
		t.Fatalf("negative floor division broken: %v", c)
	}
	if c := WorldToChunk(World{X: -32, Z: -33}); c != (Chunk{X: -1, Z: -2}) {
		t.Fatalf("negative floor division broken: %v", c)
	}
	if c := WorldToChunk(World{X: 31, Z: 32}); c != (Chunk{X: 0, Z: 1}) {
		t.Fatalf("positive floor division broken: %v", c)
	}
}

func TestFloorDiv(t *testing.T) {
	cases := []struct{ a, b, want int64 }{
		{-1, 32, -1},
		{-32, 32, -1},
		{-33, 32, -2},
		{0, 32, 0},
		{31, 32, 0},
		{-1, 48, -1}, // non-chunk divisors, as the water-fill grid uses
		{-49, 48, -2},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.want {
			t.Fatalf("FloorDiv(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestChunkKeysInjective(t *testing.T) {
	seen := map[Chunk]World{}
	for x := int64(-3); x <= 3; x++ {
		for z := int64(-3); z <= 3; z++ {
			w := World{X: x * ChunkSizeX, Z: z * ChunkSizeZ}
			c := WorldToChunk(w)
			if prev, ok := seen[c]; ok {
				t.Fatalf("key collision: %v and %v both map to %v", prev, w, c)
			}
			seen[c] = w
		}
	}
}

func TestSubIndexing(t *testing.T) {
	if SubIndex(0) != 0 || SubIndex(63) != 0 || SubIndex(64) != 1 || SubIndex(1023) != 15 {
		t.Fatalf("sub index wrong")
	}
	if SubLocalY(64) != 0 || SubLocalY(127) != 63 {
		t.Fatalf("sub local y wrong")
	}
	if !InColumnBounds(0) || !InColumnBounds(1023) || InColumnBounds(-1) || InColumnBounds(1024) {
		t.Fatalf("column bounds wrong")
	}
}
