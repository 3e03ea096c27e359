package gen

import (
	"voxelworld/internal/block"
	"voxelworld/internal/chunk"
	"voxelworld/internal/coord"
)

// Pass is one generation stage. Passes run in order on the main thread while
// the column is GENERATING.
type Pass interface {
	Apply(col *chunk.Column) error
}

// Pipeline chains passes into a world.Generator.
type Pipeline struct {
	Passes []Pass
}

func (p *Pipeline) Generate(col *chunk.Column) error {
	for _, pass := range p.Passes {
		if err := pass.Apply(col); err != nil {
			return err
		}
	}
	return nil
}

// Terrain is the surface pass: a two-noise heightmap with grass or sand
// surface, trees, flowers and a cloud layer, plus a bedrock floor.
type Terrain struct {
	height  *Noise
	detail  *Noise
	scatter *Noise
}

const (
	// Surface shape. Heights land in roughly [seaFloor, seaFloor+heightSpan].
	seaFloor   = 12
	heightSpan = 36
	sandTop    = 14

	cloudBase = 200
	cloudTop  = 208
)

func NewTerrain(seed int64) *Terrain {
	return &Terrain{
		height:  NewNoise(seed),
		detail:  NewNoise(seed + 100),
		scatter: NewNoise(seed + 200),
	}
}

// HeightAt is the deterministic surface height for any world (x,z). Feature
// passes and prediction probe it without generating anything.
func (t *Terrain) HeightAt(x, z int64) int {
	fx, fz := float64(x), float64(z)
	f := t.height.Octave2(fx*0.01, fz*0.01, 4, 0.5, 2)
	g := t.detail.Octave2(-fx*0.01, -fz*0.01, 2, 0.9, 2)
	mh := g*heightSpan + 16
	h := seaFloor + int(f*mh)
	if h >= coord.ColumnHeight {
		h = coord.ColumnHeight - 1
	}
	return h
}

func (t *Terrain) Apply(col *chunk.Column) error {
	base := coord.LocalToWorld(col.Pos, coord.Local{})
	for dx := 0; dx < coord.ChunkSizeX; dx++ {
		for dz := 0; dz < coord.ChunkSizeZ; dz++ {
			x, z := base.X+int64(dx), base.Z+int64(dz)
			h := t.HeightAt(x, z)

			surface := block.Grass
			if h <= sandTop {
				surface = block.Sand
			}

			col.SetBlock(coord.Local{X: dx, Y: 0, Z: dz}, block.Bedrock)
			for y := 1; y < h-3; y++ {
				col.SetBlock(coord.Local{X: dx, Y: y, Z: dz}, block.Stone)
			}
			for y := maxInt(1, h-3); y < h; y++ {
				col.SetBlock(coord.Local{X: dx, Y: y, Z: dz}, block.Dirt)
			}
			col.SetBlock(coord.Local{X: dx, Y: h, Z: dz}, surface)

			if surface == block.Grass {
				t.plant(col, dx, dz, x, z, h)
			}
			t.clouds(col, dx, dz, x, z)
		}
	}
	return nil
}

// plant scatters flowers and trees by pure noise thresholds, trees only
// when their canopy fits inside the column.
func (t *Terrain) plant(col *chunk.Column, dx, dz int, x, z int64, h int) {
	fx, fz := float64(x), float64(z)
	if t.scatter.Octave2(-fx*0.1, fz*0.1, 4, 0.8, 2) > 0.6 {
		col.SetBlock(coord.Local{X: dx, Y: h + 1, Z: dz}, block.Flower)
	}

	if dx-3 < 0 || dz-3 < 0 || dx+3 >= coord.ChunkSizeX || dz+3 >= coord.ChunkSizeZ {
		return
	}
	if t.scatter.Octave2(fx, fz, 6, 0.5, 2) <= 0.79 {
		return
	}
	for y := h + 4; y < h+9; y++ {
		for ox := -3; ox <= 3; ox++ {
			for oz := -3; oz <= 3; oz++ {
				d := ox*ox + oz*oz + (y-h-5)*(y-h-5)
				if d < 11 {
					col.SetBlock(coord.Local{X: dx + ox, Y: y, Z: dz + oz}, block.Leaves)
				}
			}
		}
	}
	for y := h + 1; y < h+8; y++ {
		col.SetBlock(coord.Local{X: dx, Y: y, Z: dz}, block.Wood)
	}
}

func (t *Terrain) clouds(col *chunk.Column, dx, dz int, x, z int64) {
	fx, fz := float64(x), float64(z)
	for y := cloudBase; y < cloudTop; y++ {
		if t.scatter.Octave3(fx*0.01, float64(y)*0.1, fz*0.01, 8, 0.5, 2) > 0.69 {
			col.SetBlock(coord.Local{X: dx, Y: y, Z: dz}, block.Cloud)
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
