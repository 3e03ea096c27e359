package gen

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"voxelworld/internal/block"
	"voxelworld/internal/chunk"
	"voxelworld/internal/coord"
)

// HeightFunc reports the deterministic terrain surface height at a world
// column. Terrain.HeightAt satisfies it.
type HeightFunc func(x, z int64) int

// WaterFill floods terrain depressions inside noise-designated water
// regions. Columns are classified by low-frequency 2-D noise against a
// cutoff; a region cell only fills if the terrain under the water level is
// deep enough, probed at the corners and center of a coarse grid cell and
// cached per cell.
type WaterFill struct {
	region *Noise
	height HeightFunc

	Level    int
	MinDepth int
	Cutoff   float64

	cellSize int
	cells    *lru.Cache
}

const (
	waterRegionScale = 0.004
	waterCellSize    = 8
	waterCellCache   = 4096
)

func NewWaterFill(seed int64, height HeightFunc, level, minDepth int, cutoff float64) (*WaterFill, error) {
	cells, err := lru.New(waterCellCache)
	if err != nil {
		return nil, errors.Wrap(err, "water cell cache")
	}
	return &WaterFill{
		region:   NewNoise(seed + 500),
		height:   height,
		Level:    level,
		MinDepth: minDepth,
		Cutoff:   cutoff,
		cellSize: waterCellSize,
		cells:    cells,
	}, nil
}

// inRegion is the raw column classification.
func (w *WaterFill) inRegion(x, z int64) bool {
	return w.region.Octave2(float64(x)*waterRegionScale, float64(z)*waterRegionScale, 3, 0.5, 2) >= w.Cutoff
}

type waterCell struct {
	X, Z int64
}

// cellDeepEnough samples the terrain height at the four corners and the
// center of the coarse cell containing (x,z) and requires the minimum depth
// below the water level at every sample. Results are cached per cell so
// neighboring columns never re-evaluate the noise.
func (w *WaterFill) cellDeepEnough(x, z int64) bool {
	size := int64(w.cellSize)
	cell := waterCell{X: coord.FloorDiv(x, size), Z: coord.FloorDiv(z, size)}
	if v, ok := w.cells.Get(cell); ok {
		return v.(bool)
	}
	x0, z0 := cell.X*size, cell.Z*size
	x1, z1 := x0+size-1, z0+size-1
	samples := [5][2]int64{
		{x0, z0}, {x1, z0}, {x0, z1}, {x1, z1},
		{x0 + size/2, z0 + size/2},
	}
	deep := true
	for _, s := range samples {
		if w.Level-w.height(s[0], s[1]) < w.MinDepth {
			deep = false
			break
		}
	}
	w.cells.Add(cell, deep)
	return deep
}

// fillable applies the edge-continuity rule: the column itself and all 4
// adjacent plus 4 diagonal neighbor columns must classify as water region,
// so region borders erode identically no matter which chunk evaluates them.
func (w *WaterFill) fillable(x, z int64) bool {
	if !w.inRegion(x, z) {
		return false
	}
	for dx := int64(-1); dx <= 1; dx++ {
		for dz := int64(-1); dz <= 1; dz++ {
			if dx == 0 && dz == 0 {
				continue
			}
			if !w.inRegion(x+dx, z+dz) {
				return false
			}
		}
	}
	return w.cellDeepEnough(x, z)
}

func (w *WaterFill) Apply(col *chunk.Column) error {
	if w.Level < 1 || w.Level >= coord.ColumnHeight {
		return errors.Errorf("water level %d out of range", w.Level)
	}
	base := coord.LocalToWorld(col.Pos, coord.Local{})
	for dx := 0; dx < coord.ChunkSizeX; dx++ {
		for dz := 0; dz < coord.ChunkSizeZ; dz++ {
			x, z := base.X+int64(dx), base.Z+int64(dz)
			if !w.fillable(x, z) {
				continue
			}
			h := w.height(x, z)
			// Fill air from one above the terrain up to the water level,
			// never overwriting non-air blocks.
			for y := h + 1; y <= w.Level; y++ {
				l := coord.Local{X: dx, Y: y, Z: dz}
				if col.Block(l) == block.Air {
					col.SetBlock(l, block.Water)
				}
			}
		}
	}
	return nil
}
