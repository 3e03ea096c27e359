package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/block"
	"voxelworld/internal/coord"
	"voxelworld/internal/world"
)

const (
	hitMaxRange = 8.0
	hitStep     = 0.125
)

// HitTest marches a short ray from the camera and returns the first
// non-air block cell plus the last empty cell before it (where a new block
// would be placed). Either pointer is nil when nothing is hit.
func HitTest(m *world.Manager, pos, dir mgl32.Vec3) (hit, prev *coord.World) {
	var last coord.World
	haveLast := false
	for t := float32(0); t < hitMaxRange; t += hitStep {
		p := pos.Add(dir.Mul(t))
		cell := coord.World{
			X: int64(math.Floor(float64(p.X()))),
			Y: int64(math.Floor(float64(p.Y()))),
			Z: int64(math.Floor(float64(p.Z()))),
		}
		if haveLast && cell == last {
			continue
		}
		if m.Block(cell) != block.Air {
			h := cell
			if !haveLast {
				return &h, nil
			}
			pv := last
			return &h, &pv
		}
		last = cell
		haveLast = true
	}
	return nil, nil
}
