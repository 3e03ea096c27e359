package gen

import (
	"math"

	"voxelworld/internal/block"
	"voxelworld/internal/chunk"
	"voxelworld/internal/coord"
)

// Caves carves two cave families out of generated terrain:
//
//   - tunnels: two offset 3-D noise samples combined by sum-of-squares;
//     where both samples sit near zero the sum dips below a threshold and a
//     worm-shaped tunnel appears;
//   - caverns: a 2-octave fractal noise plus a Gaussian bonus centered on a
//     preferred depth, carving larger rooms.
//
// The carving decision is a pure function of (seed, x, y, z). CaveAt and
// ColumnHasCave evaluate exactly the same functions, so structure placement
// can ask "is there a cave here" without materializing the chunk; the two
// paths must stay numerically identical.
type Caves struct {
	tunnel  *Noise
	cavern  *Noise
	terrain *Terrain
}

const (
	tunnelScaleXZ   = 1.0 / 28.0
	tunnelScaleY    = 1.0 / 20.0
	tunnelOffset    = 137.0
	tunnelThreshold = 0.016

	cavernScale     = 1.0 / 48.0
	cavernThreshold = 0.74
	cavernCenterY   = 24.0
	cavernSigma     = 12.0
	cavernBonus     = 0.12

	// Carving keeps a crust at the bottom and below the surface.
	carveFloor = 4
	carveCrust = 4
)

func NewCaves(seed int64, terrain *Terrain) *Caves {
	return &Caves{
		tunnel:  NewNoise(seed + 300),
		cavern:  NewNoise(seed + 400),
		terrain: terrain,
	}
}

// tunnelDensity is the sum of squares of one noise field sampled at the
// point and at a fixed offset from it.
func (c *Caves) tunnelDensity(x, y, z int64) float64 {
	fx := float64(x) * tunnelScaleXZ
	fy := float64(y) * tunnelScaleY
	fz := float64(z) * tunnelScaleXZ
	n1 := c.tunnel.Eval3(fx, fy, fz)
	n2 := c.tunnel.Eval3(fx+tunnelOffset, fy+tunnelOffset, fz+tunnelOffset)
	return n1*n1 + n2*n2
}

// cavernValue is the fractal noise plus the per-height Gaussian bonus.
func (c *Caves) cavernValue(x, y, z int64) float64 {
	v := c.cavern.Octave3(float64(x)*cavernScale, float64(y)*cavernScale, float64(z)*cavernScale, 2, 0.5, 2)
	dy := float64(y) - cavernCenterY
	bonus := cavernBonus * math.Exp(-(dy*dy)/(2*cavernSigma*cavernSigma))
	return v + bonus
}

// CaveAt reports whether the carver would open the cell at (x,y,z),
// independent of whether the chunk exists. It accounts for the carve range
// around the terrain surface.
func (c *Caves) CaveAt(x, y, z int64) bool {
	h := c.terrain.HeightAt(x, z)
	if y < carveFloor || y > int64(h-carveCrust) {
		return false
	}
	if c.tunnelDensity(x, y, z) < tunnelThreshold {
		return true
	}
	return c.cavernValue(x, y, z) > cavernThreshold
}

// ColumnHasCave reports whether any cell of the (x,z) block column would be
// carved, for placement queries against unmaterialized terrain.
func (c *Caves) ColumnHasCave(x, z int64) bool {
	h := c.terrain.HeightAt(x, z)
	for y := int64(carveFloor); y <= int64(h-carveCrust); y++ {
		if c.tunnelDensity(x, y, z) < tunnelThreshold || c.cavernValue(x, y, z) > cavernThreshold {
			return true
		}
	}
	return false
}

func (c *Caves) Apply(col *chunk.Column) error {
	base := coord.LocalToWorld(col.Pos, coord.Local{})
	for dx := 0; dx < coord.ChunkSizeX; dx++ {
		for dz := 0; dz < coord.ChunkSizeZ; dz++ {
			x, z := base.X+int64(dx), base.Z+int64(dz)
			h := c.terrain.HeightAt(x, z)
			for y := carveFloor; y <= h-carveCrust; y++ {
				if !c.CaveAt(x, int64(y), z) {
					continue
				}
				col.SetBlock(coord.Local{X: dx, Y: y, Z: dz}, block.Air)
				// Deep tunnel floors occasionally get a light source so
				// caves are not pitch black. Never placed into a cell the
				// carver itself opens, to keep CaveAt parity exact.
				if c.tunnelDensity(x, int64(y), z) < tunnelThreshold/8 && y > carveFloor && !c.CaveAt(x, int64(y-1), z) {
					col.SetBlock(coord.Local{X: dx, Y: y - 1, Z: dz}, block.Glowstone)
				}
			}
		}
	}
	return nil
}
