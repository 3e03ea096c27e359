// Package game ties the engine together: column streaming, worker
// scheduling, input and the frame loop.
package game

import (
	"log"

	"voxelworld/internal/chunk"
	"voxelworld/internal/config"
	"voxelworld/internal/coord"
	"voxelworld/internal/gen"
	"voxelworld/internal/light"

	"github.com/pkg/errors"
)

// columnStore is the slice of the store the generator needs; *store.Store
// satisfies it.
type columnStore interface {
	RangeColumn(c coord.Chunk, f func(subY int, sub *chunk.SubChunk) error) error
	PutSubChunk(c coord.Chunk, subY int, sub *chunk.SubChunk) error
}

// storeGen is the world.Generator: stored columns load from disk, fresh
// ones run the generation pipeline (terrain, caves, water, initial light)
// and are persisted immediately.
type storeGen struct {
	pipeline *gen.Pipeline
	store    columnStore
}

func newStoreGen(cfg config.Config, terrain *gen.Terrain, lightEngine *light.Engine, st columnStore) (*storeGen, error) {
	caves := gen.NewCaves(cfg.Seed, terrain)
	water, err := gen.NewWaterFill(cfg.Seed, terrain.HeightAt,
		cfg.World.WaterLevel, cfg.World.WaterMinDepth, cfg.World.WaterCutoff)
	if err != nil {
		return nil, errors.Wrap(err, "water pass")
	}
	return &storeGen{
		pipeline: &gen.Pipeline{Passes: []gen.Pass{terrain, caves, water, lightEngine}},
		store:    st,
	}, nil
}

func (g *storeGen) Generate(col *chunk.Column) error {
	if g.store != nil {
		found := false
		err := g.store.RangeColumn(col.Pos, func(subY int, sub *chunk.SubChunk) error {
			col.SetSub(subY, sub)
			found = true
			return nil
		})
		if err == nil && found {
			return nil
		}
		if err != nil {
			// Fall through to generation; a corrupt store entry costs a
			// regenerated column, not a crash.
			log.Printf("game: load column (%d,%d) from store: %v", col.Pos.X, col.Pos.Z, err)
		}
	}

	if err := g.pipeline.Generate(col); err != nil {
		return err
	}
	g.persist(col)
	return nil
}

// persist writes every present sub-chunk. Store errors are logged, not
// fatal: the world stays playable without persistence.
func (g *storeGen) persist(col *chunk.Column) {
	if g.store == nil {
		return
	}
	for i := 0; i < coord.SubChunkCount; i++ {
		s := col.Sub(i)
		if s == nil || s.Empty() {
			continue
		}
		if err := g.store.PutSubChunk(col.Pos, i, s); err != nil {
			log.Printf("game: persist column (%d,%d)/%d: %v", col.Pos.X, col.Pos.Z, i, err)
		}
	}
}
