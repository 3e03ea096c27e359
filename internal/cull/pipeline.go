package cull

import (
	"github.com/go-gl/mathgl/mgl32"
)

// rasterDispatcher is the worker surface the pipeline needs; *RasterWorker
// satisfies it.
type rasterDispatcher interface {
	Dispatch(RasterRequest) bool
	Collect() (RasterResponse, bool)
}

// Pipeline runs the three visibility stages over the registered sub-chunk
// boxes. Main-thread only; the raster stage is one frame behind by design.
type Pipeline struct {
	cfg    AnalyticConfig
	raster rasterDispatcher

	// boxes holds geometry-derived bounds, set when a mesh is built and
	// dropped when it is rebuilt or released.
	boxes map[Key]Box

	// occluders tracks fully opaque sub-chunks. A buried sub-chunk with no
	// mesh still occludes.
	occluders map[Key]Box

	frame        uint64
	inFlight     bool
	lastOccluded map[Key]bool

	// Stats of the most recent applied raster frame.
	RasterStats RasterStats
}

func NewPipeline(cfg AnalyticConfig, raster rasterDispatcher) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		raster:       raster,
		boxes:        make(map[Key]Box),
		occluders:    make(map[Key]Box),
		lastOccluded: make(map[Key]bool),
	}
}

// SetBox records the bounds of a sub-chunk's built geometry.
func (p *Pipeline) SetBox(k Key, b Box) {
	p.boxes[k] = b
}

// DropBox forgets a sub-chunk's bounds, on rebuild or unload.
func (p *Pipeline) DropBox(k Key) {
	delete(p.boxes, k)
	delete(p.lastOccluded, k)
}

// SetOccluder marks or unmarks a sub-chunk as fully opaque.
func (p *Pipeline) SetOccluder(k Key, b Box, opaque bool) {
	if opaque {
		p.occluders[k] = b
	} else {
		delete(p.occluders, k)
	}
}

// DropColumn clears every per-sub entry of an unloaded column.
func (p *Pipeline) DropColumn(x, z int64) {
	for k := range p.boxes {
		if k.X == x && k.Z == z {
			delete(p.boxes, k)
			delete(p.lastOccluded, k)
		}
	}
	for k := range p.occluders {
		if k.X == x && k.Z == z {
			delete(p.occluders, k)
		}
	}
}

// Visible runs the full pipeline for one frame and returns the sub-chunks
// to draw, sorted near to far. The raster result applied is the previous
// frame's; this frame's raster work is dispatched before returning.
func (p *Pipeline) Visible(cam mgl32.Vec3, viewProj mgl32.Mat4) []Key {
	// Stage 3 result from frame N-1 lands first.
	if p.inFlight {
		if resp, ok := p.raster.Collect(); ok {
			p.inFlight = false
			p.RasterStats = resp.Stats
			p.lastOccluded = make(map[Key]bool, len(resp.Occluded))
			for _, k := range resp.Occluded {
				p.lastOccluded[k] = true
			}
		}
	}

	// Stage 1: frustum against built-geometry boxes.
	planes := FrustumPlanes(&viewProj)
	inFrustum := make([]Candidate, 0, len(p.boxes))
	for k, b := range p.boxes {
		if BoxVisible(planes, b) {
			inFrustum = append(inFrustum, Candidate{ID: k, Box: b})
		}
	}

	// Stage 2: analytic ray occlusion.
	survivors := AnalyticCull(cam, inFrustum, p.cfg)

	// Dispatch stage 3 for this frame, but only when the worker is idle;
	// the pipeline never queues more than one frame.
	if !p.inFlight {
		p.frame++
		occ := make([]Box, 0, len(p.occluders))
		for _, b := range p.occluders {
			occ = append(occ, b)
		}
		cands := make([]Candidate, len(survivors))
		copy(cands, survivors)
		if p.raster.Dispatch(RasterRequest{
			FrameID:    p.frame,
			ViewProj:   viewProj,
			Occluders:  occ,
			Candidates: cands,
		}) {
			p.inFlight = true
		}
	}

	out := make([]Key, 0, len(survivors))
	for _, c := range survivors {
		if p.lastOccluded[c.ID] {
			continue
		}
		out = append(out, c.ID)
	}
	return out
}
