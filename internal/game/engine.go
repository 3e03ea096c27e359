package game

import (
	"log"
	"sort"

	"github.com/pkg/errors"

	"voxelworld/internal/block"
	"voxelworld/internal/chunk"
	"voxelworld/internal/config"
	"voxelworld/internal/coord"
	"voxelworld/internal/gen"
	"voxelworld/internal/light"
	"voxelworld/internal/mesh"
	"voxelworld/internal/store"
	"voxelworld/internal/world"
)

// loadBudget bounds column generation per tick so streaming never stalls a
// frame for long.
const loadBudget = 2

// unloadSlack keeps just-out-of-range columns loaded to stop load/unload
// flapping at the radius boundary.
const unloadSlack = 2

// meshPool is the worker surface the engine needs; *mesh.Pool satisfies it.
type meshPool interface {
	Submit(mesh.Job) bool
	DrainInto(max int, apply func(mesh.Done))
}

// MeshUpdate is a finished sub-chunk build handed to the render layer,
// along with whether that sub-chunk is now a fully opaque occluder.
type MeshUpdate struct {
	Key         coord.Sub
	Result      mesh.Result
	FullyOpaque bool
}

// Engine is the headless core: world state, generation, lighting and
// meshing orchestration. It knows nothing about GL; the frame loop feeds
// it the player position and collects mesh updates.
type Engine struct {
	cfg config.Config
	reg *block.Registry

	World   *world.Manager
	Terrain *gen.Terrain

	store *store.Store

	lightEngine *light.Engine
	lightWorker *light.Worker
	lightSched  *light.Scheduler

	pool        meshPool
	meshPending map[coord.Sub]int64
	meshProps   []block.MeshProps

	// OnColumnUnloaded lets the render/cull layers drop per-column state.
	OnColumnUnloaded func(c coord.Chunk)
}

func NewEngine(cfg config.Config, st *store.Store) (*Engine, error) {
	reg := block.DefaultRegistry()
	terrain := gen.NewTerrain(cfg.Seed)
	lightEngine := light.NewEngine(reg)

	var cs columnStore
	if st != nil {
		cs = st
	}
	g, err := newStoreGen(cfg, terrain, lightEngine, cs)
	if err != nil {
		return nil, errors.Wrap(err, "generator")
	}

	e := &Engine{
		cfg:         cfg,
		reg:         reg,
		World:       world.NewManager(reg, g),
		Terrain:     terrain,
		store:       st,
		lightEngine: lightEngine,
		meshPending: make(map[coord.Sub]int64),
		meshProps:   reg.MeshTable(),
	}
	e.lightWorker = light.NewWorker(lightEngine, 4)
	e.lightSched = light.NewScheduler(light.SchedulerConfig{
		NearRadius:   cfg.Light.NearRadius,
		NearCooldown: cfg.Light.NearCooldown.Std(),
		FarCooldown:  cfg.Light.FarCooldown.Std(),
	}, e.lightWorker)
	e.pool = mesh.NewPool(cfg.Mesh.Workers, cfg.Mesh.QueueDepth)

	events := e.World.Events()
	e.lightSched.OnUpdated = events.EmitLightingUpdated
	events.OnLightingUpdated(func(c coord.Chunk, sub int) {
		if col := e.World.Column(c); col != nil {
			col.MarkDirty(sub)
		}
	})
	events.OnBlockChanged(func(w coord.World, _ block.ID) {
		// Edits re-enter the correction queue; the synchronous dirty
		// marking already triggers the remesh.
		e.lightSched.Enqueue(coord.WorldToChunk(w))
	})
	events.OnColumnLoaded(func(c coord.Chunk) {
		e.lightSched.Enqueue(c)
		// Loaded neighbors built their edge faces against missing data;
		// rebuild them now that this column exists.
		for _, n := range []coord.Chunk{
			{X: c.X + 1, Z: c.Z}, {X: c.X - 1, Z: c.Z},
			{X: c.X, Z: c.Z + 1}, {X: c.X, Z: c.Z - 1},
		} {
			if col := e.World.Column(n); col != nil {
				col.MarkAllDirty()
			}
		}
	})
	events.OnColumnUnloaded(func(c coord.Chunk) {
		e.lightSched.Drop(c)
		for k := range e.meshPending {
			if k.X == c.X && k.Z == c.Z {
				delete(e.meshPending, k)
			}
		}
		if e.OnColumnUnloaded != nil {
			e.OnColumnUnloaded(c)
		}
	})
	return e, nil
}

// Close stops the workers and persists every loaded column.
func (e *Engine) Close() {
	e.World.Columns(func(col *chunk.Column) {
		e.saveColumn(col)
	})
	e.lightWorker.Close()
	if p, ok := e.pool.(*mesh.Pool); ok {
		p.Close()
	}
}

func (e *Engine) saveColumn(col *chunk.Column) {
	if e.store == nil {
		return
	}
	for i := 0; i < coord.SubChunkCount; i++ {
		s := col.Sub(i)
		if s == nil || s.Empty() {
			continue
		}
		if err := e.store.PutSubChunk(col.Pos, i, s); err != nil {
			log.Printf("game: save column (%d,%d)/%d: %v", col.Pos.X, col.Pos.Z, i, err)
		}
	}
}

// Update runs one engine tick around the player's column: stream columns,
// advance background lighting, submit remesh jobs.
func (e *Engine) Update(player coord.Chunk) {
	e.streamColumns(player)
	e.lightSched.Tick(player, e)
	e.lightSched.Apply(e)
	e.submitDirtySubs()
}

// streamColumns loads missing columns inside the render radius, nearest
// first under the per-tick budget, and unloads columns outside the radius
// plus slack.
func (e *Engine) streamColumns(player coord.Chunk) {
	r := e.cfg.RenderRadius
	var missing []coord.Chunk
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			if dx*dx+dz*dz > r*r {
				continue
			}
			c := coord.Chunk{X: player.X + dx, Z: player.Z + dz}
			if !e.World.HasColumn(c) {
				missing = append(missing, c)
			}
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		return chunkDistSqr(missing[i], player) < chunkDistSqr(missing[j], player)
	})
	if len(missing) > loadBudget {
		missing = missing[:loadBudget]
	}
	for _, c := range missing {
		if _, err := e.World.LoadChunk(c); err != nil {
			log.Printf("game: load column (%d,%d): %v", c.X, c.Z, err)
		}
	}

	limit := (r + unloadSlack) * (r + unloadSlack)
	var gone []coord.Chunk
	e.World.Columns(func(col *chunk.Column) {
		if chunkDistSqr(col.Pos, player) > limit {
			gone = append(gone, col.Pos)
		}
	})
	for _, c := range gone {
		if col := e.World.Column(c); col != nil {
			e.saveColumn(col)
		}
		e.World.UnloadChunk(c)
	}
}

func chunkDistSqr(a, b coord.Chunk) int64 {
	dx, dz := a.X-b.X, a.Z-b.Z
	return dx*dx + dz*dz
}

// submitDirtySubs snapshots every dirty sub-chunk and queues a rebuild. A
// full queue puts every unsubmitted flag back so the next tick retries;
// nothing re-dirties an already-lit column, so a consumed flag that never
// reached the pool would stay stale forever.
func (e *Engine) submitDirtySubs() {
	e.World.Columns(func(col *chunk.Column) {
		dirty := col.ConsumeDirty()
		for i, subY := range dirty {
			k := coord.Sub{X: col.Pos.X, Z: col.Pos.Z, Y: subY}
			job := mesh.Job{Key: k, Version: col.Version, Input: e.meshInput(col, subY)}
			if !e.pool.Submit(job) {
				for _, rest := range dirty[i:] {
					col.MarkDirty(rest)
				}
				return
			}
			e.meshPending[k] = col.Version
		}
	})
}

// meshInput snapshots one sub-chunk plus its four horizontal neighbors at
// the same height. Absent neighbors stay nil, which the builder reads as
// exposed.
func (e *Engine) meshInput(col *chunk.Column, subY int) mesh.Input {
	in := mesh.Input{Props: e.meshProps}
	if s := col.Sub(subY); s != nil {
		in.Blocks = s.CloneBlocks()
		in.Light = s.CloneLight()
	} else {
		in.Blocks = make([]uint16, chunk.BlockCount)
		in.Light = make([]uint8, chunk.BlockCount)
	}
	grab := func(c coord.Chunk) []uint16 {
		n := e.World.Column(c)
		if n == nil {
			return nil
		}
		s := n.Sub(subY)
		if s == nil {
			return make([]uint16, chunk.BlockCount)
		}
		return s.CloneBlocks()
	}
	in.Neighbors.PosX = grab(coord.Chunk{X: col.Pos.X + 1, Z: col.Pos.Z})
	in.Neighbors.NegX = grab(coord.Chunk{X: col.Pos.X - 1, Z: col.Pos.Z})
	in.Neighbors.PosZ = grab(coord.Chunk{X: col.Pos.X, Z: col.Pos.Z + 1})
	in.Neighbors.NegZ = grab(coord.Chunk{X: col.Pos.X, Z: col.Pos.Z - 1})
	return in
}

// DrainMeshes collects finished builds. Results for unloaded columns or
// superseded submissions are dropped; the newer build is already queued.
func (e *Engine) DrainMeshes(apply func(MeshUpdate)) {
	e.pool.DrainInto(0, func(d mesh.Done) {
		pendingVersion, pending := e.meshPending[d.Key]
		if !pending || pendingVersion != d.Version {
			return
		}
		delete(e.meshPending, d.Key)
		if d.Err != nil {
			log.Printf("game: mesh build %v: %v", d.Key, d.Err)
			return
		}
		if !e.World.HasColumn(d.Key.Chunk()) {
			return
		}
		apply(MeshUpdate{
			Key:         d.Key,
			Result:      d.Result,
			FullyOpaque: e.World.SubFullyOpaque(d.Key),
		})
	})
}

// light.ColumnSource: snapshots go to the lighting worker, results come
// back through ApplyLight. Both refuse unloaded columns.

func (e *Engine) SnapshotColumn(c coord.Chunk) (light.Request, bool) {
	col := e.World.Column(c)
	if col == nil || col.State() != chunk.Loaded {
		return light.Request{}, false
	}
	return light.SnapshotColumn(col, true), true
}

func (e *Engine) ApplyLight(c coord.Chunk, subY int, lightArr []uint8) bool {
	col := e.World.Column(c)
	if col == nil {
		return false
	}
	col.EnsureSub(subY).ReplaceLight(lightArr)
	return true
}

// phys.BlockSource over the loaded world.
func (e *Engine) IsSolid(x, y, z int64) bool {
	if !coord.InColumnBounds(y) {
		return false
	}
	return e.World.IsSolid(coord.World{X: x, Y: y, Z: z})
}
