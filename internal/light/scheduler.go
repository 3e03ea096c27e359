package light

import (
	"log"
	"time"

	"voxelworld/internal/coord"
)

// ColumnSource is the scheduler's narrow view of the world: snapshot a
// column for the worker and apply a returned light array. Both report false
// when the column is no longer loaded.
type ColumnSource interface {
	SnapshotColumn(c coord.Chunk) (Request, bool)
	ApplyLight(c coord.Chunk, subY int, light []uint8) bool
}

// SchedulerConfig tunes the background correction pass. Columns near the
// player get a shorter cooldown so visible corrections land first.
type SchedulerConfig struct {
	NearRadius   int64
	NearCooldown time.Duration
	FarCooldown  time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		NearRadius:   4,
		NearCooldown: 2 * time.Second,
		FarCooldown:  15 * time.Second,
	}
}

// Dispatcher is the worker surface the scheduler needs; *Worker satisfies
// it.
type Dispatcher interface {
	Dispatch(Request) bool
	DrainInto(max int, apply func(Response))
}

// Scheduler feeds the lighting worker one column per update tick and
// re-queues processed columns at the tail, running the correction pass
// perpetually. Main-thread only.
type Scheduler struct {
	cfg    SchedulerConfig
	worker Dispatcher

	queue     []coord.Chunk
	queued    map[coord.Chunk]bool
	pending   map[coord.Chunk]bool
	processed map[coord.Chunk]time.Time

	// epoch counts column incarnations. Drop bumps it, requests carry it,
	// and Apply rejects responses stamped with an older value, so a result
	// computed before an unload cannot land on the reloaded column.
	epoch map[coord.Chunk]uint64

	// OnUpdated fires for every sub-chunk whose light actually changed.
	OnUpdated func(c coord.Chunk, subY int)

	now func() time.Time
}

func NewScheduler(cfg SchedulerConfig, worker Dispatcher) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		worker:    worker,
		queued:    make(map[coord.Chunk]bool),
		pending:   make(map[coord.Chunk]bool),
		processed: make(map[coord.Chunk]time.Time),
		epoch:     make(map[coord.Chunk]uint64),
		now:       time.Now,
	}
}

// Enqueue adds a column to the correction queue. Already-queued columns are
// left where they are.
func (s *Scheduler) Enqueue(c coord.Chunk) {
	if s.queued[c] {
		return
	}
	s.queued[c] = true
	s.queue = append(s.queue, c)
}

// Drop removes a column from every tracking structure. Called on unload; an
// in-flight worker request keeps running but its result will be discarded.
func (s *Scheduler) Drop(c coord.Chunk) {
	if s.queued[c] {
		delete(s.queued, c)
		for i, q := range s.queue {
			if q == c {
				s.queue = append(s.queue[:i], s.queue[i+1:]...)
				break
			}
		}
	}
	delete(s.pending, c)
	delete(s.processed, c)
	s.epoch[c]++
}

// cooldown picks the near or far window by chunk-grid distance to the
// player's column.
func (s *Scheduler) cooldown(c, player coord.Chunk) time.Duration {
	dx, dz := c.X-player.X, c.Z-player.Z
	if dx < 0 {
		dx = -dx
	}
	if dz < 0 {
		dz = -dz
	}
	if dx <= s.cfg.NearRadius && dz <= s.cfg.NearRadius {
		return s.cfg.NearCooldown
	}
	return s.cfg.FarCooldown
}

// Tick dispatches at most one queued column to the worker. Columns with a
// result still pending are skipped outright (at most one in-flight request
// per column); columns processed inside their cooldown window are skipped
// and re-queued at the tail.
func (s *Scheduler) Tick(player coord.Chunk, src ColumnSource) {
	for range s.queue {
		c := s.queue[0]
		s.queue = s.queue[1:]

		if s.pending[c] {
			// Apply re-queues it once the in-flight result lands.
			delete(s.queued, c)
			continue
		}
		if t, ok := s.processed[c]; ok && s.now().Sub(t) < s.cooldown(c, player) {
			s.queue = append(s.queue, c)
			continue
		}

		req, ok := src.SnapshotColumn(c)
		if !ok {
			delete(s.queued, c)
			continue
		}
		req.Epoch = s.epoch[c]
		if !s.worker.Dispatch(req) {
			// Worker saturated; retry this column next tick.
			s.queue = append([]coord.Chunk{c}, s.queue...)
			return
		}
		delete(s.queued, c)
		s.pending[c] = true
		return
	}
}

// Apply drains worker responses and writes accepted results back into the
// world. Results for unloaded columns are dropped silently; error responses
// are logged and discarded with prior lighting untouched.
func (s *Scheduler) Apply(src ColumnSource) {
	s.worker.DrainInto(0, func(resp Response) {
		c := coord.Chunk{X: resp.X, Z: resp.Z}
		if !s.pending[c] || resp.Epoch != s.epoch[c] {
			// Unloaded while in flight, or computed before an
			// unload/reload cycle; the current request stays pending.
			return
		}
		delete(s.pending, c)
		if resp.Err != nil {
			log.Printf("light: recompute of column (%d,%d) failed: %v", c.X, c.Z, resp.Err)
			// Stays in rotation, rate-limited by the cooldown.
			s.processed[c] = s.now()
			s.Enqueue(c)
			return
		}
		for _, sub := range resp.Subs {
			if !sub.Changed {
				continue
			}
			if !src.ApplyLight(c, sub.SubY, sub.Light) {
				return
			}
			if s.OnUpdated != nil {
				s.OnUpdated(c, sub.SubY)
			}
		}
		s.processed[c] = s.now()
		s.Enqueue(c)
	})
}

// PendingCount is exposed for tests and debug stats.
func (s *Scheduler) PendingCount() int { return len(s.pending) }
