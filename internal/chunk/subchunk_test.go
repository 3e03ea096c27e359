package chunk

import (
	"testing"

	"voxelworld/internal/block"
	"voxelworld/internal/coord"
)

func TestSetBlockRoundTrip(t *testing.T) {
	s := NewSubChunk()
	cases := [][3]int{{0, 0, 0}, {31, 63, 31}, {15, 32, 7}, {1, 0, 31}}
	for i, c := range cases {
		id := block.ID(i + 1)
		if !s.SetBlock(c[0], c[1], c[2], id) {
			t.Fatalf("SetBlock(%v) reported no change on fresh cell", c)
		}
		if got := s.Block(c[0], c[1], c[2]); got != id {
			t.Fatalf("Block(%v) = %d, want %d", c, got, id)
		}
	}
	if s.NonAir() != len(cases) {
		t.Fatalf("NonAir = %d, want %d", s.NonAir(), len(cases))
	}
}

func TestSetBlockReportsNoop(t *testing.T) {
	s := NewSubChunk()
	if !s.SetBlock(3, 3, 3, block.Stone) {
		t.Fatalf("first write should change")
	}
	if s.SetBlock(3, 3, 3, block.Stone) {
		t.Fatalf("identical write should report no change")
	}
	if !s.SetBlock(3, 3, 3, block.Air) {
		t.Fatalf("clearing should change")
	}
	if !s.Empty() {
		t.Fatalf("sub-chunk should be empty again")
	}
}

func TestOutOfBoundsPanics(t *testing.T) {
	s := NewSubChunk()
	bad := [][3]int{{-1, 0, 0}, {32, 0, 0}, {0, -1, 0}, {0, 64, 0}, {0, 0, -1}, {0, 0, 32}}
	for _, c := range bad {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("access at %v did not panic", c)
				}
			}()
			s.Block(c[0], c[1], c[2])
		}()
	}
}

func TestLightNibblesIndependent(t *testing.T) {
	for sky := uint8(0); sky <= 15; sky++ {
		for blk := uint8(0); blk <= 15; blk++ {
			s := NewSubChunk()
			s.SetSkylight(1, 2, 3, sky)
			s.SetBlocklight(1, 2, 3, blk)
			if s.Skylight(1, 2, 3) != sky || s.Blocklight(1, 2, 3) != blk {
				t.Fatalf("sky-then-block order corrupted: sky=%d blk=%d got %d/%d",
					sky, blk, s.Skylight(1, 2, 3), s.Blocklight(1, 2, 3))
			}
			s2 := NewSubChunk()
			s2.SetBlocklight(1, 2, 3, blk)
			s2.SetSkylight(1, 2, 3, sky)
			if s2.Skylight(1, 2, 3) != sky || s2.Blocklight(1, 2, 3) != blk {
				t.Fatalf("block-then-sky order corrupted: sky=%d blk=%d got %d/%d",
					sky, blk, s2.Skylight(1, 2, 3), s2.Blocklight(1, 2, 3))
			}
		}
	}
}

func TestHighestBlockAt(t *testing.T) {
	s := NewSubChunk()
	if _, ok := s.HighestBlockAt(4, 4); ok {
		t.Fatalf("empty column reported a block")
	}
	s.SetBlock(4, 10, 4, block.Stone)
	s.SetBlock(4, 40, 4, block.Dirt)
	y, ok := s.HighestBlockAt(4, 4)
	if !ok || y != 40 {
		t.Fatalf("HighestBlockAt = %d,%v want 40,true", y, ok)
	}
}

func TestColumnLifecycleAndDirty(t *testing.T) {
	c := NewColumn(coord.Chunk{X: 1, Z: -2})
	if c.State() != Unloaded {
		t.Fatalf("new column should be UNLOADED")
	}
	c.SetState(Generating)
	c.SetState(Loaded)

	if c.Block(coord.Local{X: 0, Y: 500, Z: 0}) != block.Air {
		t.Fatalf("absent sub-chunk should read air")
	}
	if !c.SetBlock(coord.Local{X: 5, Y: 130, Z: 6}, block.Stone) {
		t.Fatalf("write should change")
	}
	sub := coord.SubIndex(130)
	if !c.IsDirty(sub) {
		t.Fatalf("write should dirty sub %d", sub)
	}
	dirty := c.ConsumeDirty()
	if len(dirty) != 1 || dirty[0] != sub {
		t.Fatalf("ConsumeDirty = %v", dirty)
	}
	if c.IsDirty(sub) {
		t.Fatalf("dirty flag should clear on consume")
	}

	y, ok := c.HighestBlockAt(5, 6)
	if !ok || y != 130 {
		t.Fatalf("HighestBlockAt = %d,%v want 130,true", y, ok)
	}

	c.Release()
	if c.State() != Unloaded || c.Sub(sub) != nil {
		t.Fatalf("release should drop storage and reset state")
	}
}
