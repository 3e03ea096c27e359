package cull

import (
	"github.com/go-gl/mathgl/mgl32"
)

// RasterRequest carries one frame's occlusion workload to the worker. All
// slices are owned by the worker once dispatched.
type RasterRequest struct {
	FrameID    uint64
	ViewProj   mgl32.Mat4
	Occluders  []Box
	Candidates []Candidate
}

// RasterStats summarizes one frame's raster pass.
type RasterStats struct {
	Occluders int
	Tested    int
	Occluded  int
}

// RasterResponse tags the occluded candidate set with the frame it was
// computed for.
type RasterResponse struct {
	FrameID  uint64
	Occluded []Key
	Stats    RasterStats
}

// RasterWorker rasterizes occluder boxes into a depth buffer off the main
// thread. Capacity one in each direction enforces the depth-one frame
// pipeline.
type RasterWorker struct {
	buf   *DepthBuffer
	reqs  chan RasterRequest
	resps chan RasterResponse
	quit  chan struct{}
}

func NewRasterWorker(w, h int) *RasterWorker {
	rw := &RasterWorker{
		buf:   NewDepthBuffer(w, h),
		reqs:  make(chan RasterRequest, 1),
		resps: make(chan RasterResponse, 1),
		quit:  make(chan struct{}),
	}
	go rw.run()
	return rw
}

func (w *RasterWorker) run() {
	for {
		select {
		case <-w.quit:
			return
		case req := <-w.reqs:
			w.resps <- w.process(req)
		}
	}
}

func (w *RasterWorker) process(req RasterRequest) RasterResponse {
	w.buf.Clear()
	for _, b := range req.Occluders {
		w.buf.RasterizeBox(&req.ViewProj, b)
	}
	resp := RasterResponse{
		FrameID: req.FrameID,
		Stats: RasterStats{
			Occluders: len(req.Occluders),
			Tested:    len(req.Candidates),
		},
	}
	for _, c := range req.Candidates {
		if w.buf.TestBox(&req.ViewProj, c.Box) {
			resp.Occluded = append(resp.Occluded, c.ID)
			resp.Stats.Occluded++
		}
	}
	return resp
}

// Dispatch hands a frame to the worker. With the depth-one pipeline a
// failed dispatch means the previous frame was never collected; callers
// treat it as a dropped frame.
func (w *RasterWorker) Dispatch(req RasterRequest) bool {
	select {
	case w.reqs <- req:
		return true
	default:
		return false
	}
}

// Collect returns the finished frame, if any.
func (w *RasterWorker) Collect() (RasterResponse, bool) {
	select {
	case resp := <-w.resps:
		return resp, true
	default:
		return RasterResponse{}, false
	}
}

func (w *RasterWorker) Close() {
	close(w.quit)
}
