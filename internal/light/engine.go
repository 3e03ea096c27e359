// Package light computes skylight and blocklight for chunk columns. The
// engine is invoked synchronously during generation and from the background
// worker for drift correction; both paths run the same full recompute.
package light

import (
	"bytes"

	"github.com/pkg/errors"

	"voxelworld/internal/block"
	"voxelworld/internal/chunk"
	"voxelworld/internal/coord"
)

// SubSnapshot is one sub-chunk's arrays as handed to the engine. The engine
// never mutates them.
type SubSnapshot struct {
	SubY   int
	Blocks []uint16
	Light  []uint8
}

// Request is a full-column lighting recompute job. Epoch identifies the
// column incarnation that issued it; the scheduler bumps it on unload so
// results from a previous incarnation cannot land on a reloaded column.
type Request struct {
	X, Z  int64
	Epoch uint64
	Subs  []SubSnapshot
}

// SubResult carries the freshly computed light array for one sub-chunk and
// whether it differs from the input.
type SubResult struct {
	SubY    int
	Light   []uint8
	Changed bool
}

// Response is the worker's reply. Err is set instead of Subs on malformed
// input; callers log and discard, leaving prior lighting untouched.
type Response struct {
	X, Z  int64
	Epoch uint64
	Subs  []SubResult
	Err   error
}

// Engine recomputes column lighting from scratch with a bounded BFS flood
// fill. Recomputation is idempotent: a second run over unchanged blocks
// produces identical arrays and reports no changes.
type Engine struct {
	props []block.LightProps
}

func NewEngine(reg *block.Registry) *Engine {
	return &Engine{props: reg.LightTable()}
}

const (
	colCells = coord.ColumnHeight * chunk.SizeX * chunk.SizeZ
	maxLight = 15
)

func colIndex(x, y, z int) int {
	return (y*chunk.SizeZ+z)*chunk.SizeX + x
}

func (e *Engine) prop(id uint16) block.LightProps {
	if int(id) >= len(e.props) {
		return block.LightProps{}
	}
	return e.props[id]
}

// Recompute validates the request, floods both channels and returns one
// result per input sub-chunk.
func (e *Engine) Recompute(req *Request) ([]SubResult, error) {
	seen := make(map[int]bool, len(req.Subs))
	for _, s := range req.Subs {
		if s.SubY < 0 || s.SubY >= coord.SubChunkCount {
			return nil, errors.Errorf("sub-chunk index %d out of range", s.SubY)
		}
		if seen[s.SubY] {
			return nil, errors.Errorf("sub-chunk %d appears twice", s.SubY)
		}
		seen[s.SubY] = true
		if len(s.Blocks) != chunk.BlockCount || len(s.Light) != chunk.BlockCount {
			return nil, errors.Errorf("sub-chunk %d has malformed arrays (%d/%d)", s.SubY, len(s.Blocks), len(s.Light))
		}
	}

	// Stitch the sparse sub-chunks into full-column arrays; absent
	// sub-chunks are air.
	ids := make([]uint16, colCells)
	for _, s := range req.Subs {
		copy(ids[s.SubY*chunk.BlockCount:], s.Blocks)
	}

	sky := make([]uint8, colCells)
	blk := make([]uint8, colCells)
	e.floodSkylight(ids, sky)
	e.floodBlocklight(ids, blk)

	results := make([]SubResult, 0, len(req.Subs))
	for _, s := range req.Subs {
		out := make([]uint8, chunk.BlockCount)
		off := s.SubY * chunk.BlockCount
		for i := 0; i < chunk.BlockCount; i++ {
			out[i] = sky[off+i]<<4 | blk[off+i]
		}
		results = append(results, SubResult{
			SubY:    s.SubY,
			Light:   out,
			Changed: !bytes.Equal(out, s.Light),
		})
	}
	return results, nil
}

// floodSkylight seeds full sunlight straight down from the open sky, then
// spreads it sideways and around overhangs with the BFS.
func (e *Engine) floodSkylight(ids []uint16, sky []uint8) {
	queue := make([]int32, 0, 4096)
	for z := 0; z < chunk.SizeZ; z++ {
		for x := 0; x < chunk.SizeX; x++ {
			level := uint8(maxLight)
			for y := coord.ColumnHeight - 1; y >= 0; y-- {
				i := colIndex(x, y, z)
				p := e.prop(ids[i])
				if p.Opaque {
					break
				}
				if p.LightBlock > 0 {
					if p.LightBlock >= level {
						level = 0
					} else {
						level -= p.LightBlock
					}
				}
				if level == 0 {
					break
				}
				sky[i] = level
				queue = append(queue, int32(i))
			}
		}
	}
	e.flood(ids, sky, queue, true)
}

// floodBlocklight seeds every emitting block at its emission level and
// spreads isotropically.
func (e *Engine) floodBlocklight(ids []uint16, blk []uint8) {
	queue := make([]int32, 0, 256)
	for i, id := range ids {
		if em := e.prop(id).Emission; em > 0 {
			blk[i] = em
			queue = append(queue, int32(i))
		}
	}
	e.flood(ids, blk, queue, false)
}

// flood is the shared BFS: visit neighbors, subtract one level per hop plus
// the neighbor's light-blocking amount, stop when the level reaches zero or
// the visited cell already holds a value at least as large.
func (e *Engine) flood(ids []uint16, light []uint8, queue []int32, downFull bool) {
	for head := 0; head < len(queue); head++ {
		i := int(queue[head])
		level := light[i]
		if level <= 1 {
			continue
		}
		x := i % chunk.SizeX
		z := (i / chunk.SizeX) % chunk.SizeZ
		y := i / (chunk.SizeX * chunk.SizeZ)

		for d := 0; d < 6; d++ {
			nx, ny, nz := x, y, z
			switch d {
			case 0:
				nx--
			case 1:
				nx++
			case 2:
				ny--
			case 3:
				ny++
			case 4:
				nz--
			case 5:
				nz++
			}
			if nx < 0 || nx >= chunk.SizeX || nz < 0 || nz >= chunk.SizeZ || ny < 0 || ny >= coord.ColumnHeight {
				continue
			}
			ni := colIndex(nx, ny, nz)
			p := e.prop(ids[ni])
			if p.Opaque {
				continue
			}
			var cand uint8
			if downFull && d == 2 && level == maxLight && p.LightBlock == 0 {
				// Full skylight falls straight down unattenuated.
				cand = maxLight
			} else {
				cost := uint8(1) + p.LightBlock
				if cost >= level {
					continue
				}
				cand = level - cost
			}
			if cand > light[ni] {
				light[ni] = cand
				queue = append(queue, int32(ni))
			}
		}
	}
}

// LightColumn runs the engine synchronously against a live column during
// generation, writing the results straight back.
func (e *Engine) LightColumn(col *chunk.Column) error {
	req := SnapshotColumn(col, false)
	results, err := e.Recompute(&req)
	if err != nil {
		return errors.Wrap(err, "light column")
	}
	for _, r := range results {
		if r.Changed {
			col.EnsureSub(r.SubY).ReplaceLight(r.Light)
		}
	}
	return nil
}

// Apply makes LightColumn usable as a generation pass.
func (e *Engine) Apply(col *chunk.Column) error {
	return e.LightColumn(col)
}

// SnapshotColumn captures a column's arrays for the engine. When copy is
// true the arrays are cloned so a worker can hold them while the main
// thread keeps mutating; the synchronous path reads them in place.
func SnapshotColumn(col *chunk.Column, copyArrays bool) Request {
	req := Request{X: col.Pos.X, Z: col.Pos.Z}
	for i := 0; i < coord.SubChunkCount; i++ {
		s := col.Sub(i)
		if s == nil {
			continue
		}
		snap := SubSnapshot{SubY: i}
		if copyArrays {
			snap.Blocks = s.CloneBlocks()
			snap.Light = s.CloneLight()
		} else {
			snap.Blocks = s.Blocks()
			snap.Light = s.Light()
		}
		req.Subs = append(req.Subs, snap)
	}
	return req
}
