package cull

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/coord"
)

func lookDownNegZ() (mgl32.Vec3, mgl32.Mat4) {
	eye := mgl32.Vec3{0, 0, 10}
	view := mgl32.LookAtV(eye, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(70), 1, 0.1, 500)
	return eye, proj.Mul4(view)
}

func boxAt(cx, cy, cz, half float32) Box {
	return Box{
		Min: mgl32.Vec3{cx - half, cy - half, cz - half},
		Max: mgl32.Vec3{cx + half, cy + half, cz + half},
	}
}

func TestFrustumAcceptsFrontRejectsBehind(t *testing.T) {
	_, vp := lookDownNegZ()
	planes := FrustumPlanes(&vp)

	if !BoxVisible(planes, boxAt(0, 0, -5, 2)) {
		t.Fatalf("box in front of camera culled")
	}
	if BoxVisible(planes, boxAt(0, 0, 30, 2)) {
		t.Fatalf("box behind camera survived")
	}
	if BoxVisible(planes, boxAt(200, 0, -5, 2)) {
		t.Fatalf("box far off to the side survived")
	}
	// A box straddling a plane stays visible.
	if !BoxVisible(planes, boxAt(0, 0, 9, 4)) {
		t.Fatalf("box straddling the near plane culled")
	}
}

func TestAnalyticOccludesBoxBehindLargeBlocker(t *testing.T) {
	eye := mgl32.Vec3{0, 0, 10}
	blocker := Candidate{ID: coord.Sub{Y: 0}, Box: boxAt(0, 0, 0, 6)}
	hidden := Candidate{ID: coord.Sub{Y: 1}, Box: boxAt(0, 0, -40, 2)}

	cfg := DefaultAnalyticConfig()
	cfg.ExemptNearest = 1
	out := AnalyticCull(eye, []Candidate{hidden, blocker}, cfg)
	if len(out) != 1 || out[0].ID != blocker.ID {
		t.Fatalf("survivors = %v", out)
	}
}

func TestAnalyticNeverOccludesExemptNearest(t *testing.T) {
	eye := mgl32.Vec3{0, 0, 10}
	blocker := Candidate{ID: coord.Sub{Y: 0}, Box: boxAt(0, 0, 0, 6)}
	hidden := Candidate{ID: coord.Sub{Y: 1}, Box: boxAt(0, 0, -40, 2)}

	cfg := DefaultAnalyticConfig()
	cfg.ExemptNearest = 2
	out := AnalyticCull(eye, []Candidate{hidden, blocker}, cfg)
	if len(out) != 2 {
		t.Fatalf("exempt candidate occluded: %v", out)
	}
}

func TestAnalyticKeepsOffAxisBox(t *testing.T) {
	eye := mgl32.Vec3{0, 0, 10}
	blocker := Candidate{ID: coord.Sub{Y: 0}, Box: boxAt(0, 0, 0, 6)}
	aside := Candidate{ID: coord.Sub{Y: 1}, Box: boxAt(60, 0, 10, 2)}

	cfg := DefaultAnalyticConfig()
	cfg.ExemptNearest = 1
	out := AnalyticCull(eye, []Candidate{aside, blocker}, cfg)
	if len(out) != 2 {
		t.Fatalf("box off the blocker's ray was occluded")
	}
}

func TestDepthBufferOcclusion(t *testing.T) {
	_, vp := lookDownNegZ()
	buf := NewDepthBuffer(64, 64)

	// Big slab right in front of the camera hides the small box behind it.
	buf.RasterizeBox(&vp, Box{Min: mgl32.Vec3{-5, -5, -1}, Max: mgl32.Vec3{5, 5, 1}})
	if !buf.TestBox(&vp, boxAt(0, 0, -8, 1)) {
		t.Fatalf("box behind slab not occluded")
	}
	// A box between camera and slab is in front of every rasterized depth.
	if buf.TestBox(&vp, boxAt(0, 0, 5, 1)) {
		t.Fatalf("box in front of slab reported occluded")
	}
	// Empty buffer occludes nothing.
	buf.Clear()
	if buf.TestBox(&vp, boxAt(0, 0, -8, 1)) {
		t.Fatalf("cleared buffer occluded a box")
	}
}

// fakeRaster plays the worker with scripted responses.
type fakeRaster struct {
	requests  []RasterRequest
	responses []RasterResponse
}

func (f *fakeRaster) Dispatch(req RasterRequest) bool {
	f.requests = append(f.requests, req)
	return true
}

func (f *fakeRaster) Collect() (RasterResponse, bool) {
	if len(f.responses) == 0 {
		return RasterResponse{}, false
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r, true
}

func TestPipelineAppliesRasterOneFrameLate(t *testing.T) {
	eye, vp := lookDownNegZ()
	fr := &fakeRaster{}
	p := NewPipeline(DefaultAnalyticConfig(), fr)

	a := coord.Sub{X: 0, Z: 0, Y: 0}
	b := coord.Sub{X: 0, Z: 0, Y: 1}
	p.SetBox(a, boxAt(0, 0, -5, 2))
	p.SetBox(b, boxAt(3, 0, -8, 2))

	first := p.Visible(eye, vp)
	if len(first) != 2 {
		t.Fatalf("frame 1 visible = %v", first)
	}
	if len(fr.requests) != 1 || fr.requests[0].FrameID != 1 {
		t.Fatalf("frame 1 raster request not dispatched")
	}

	// Worker reports b occluded; frame 2 must honor it and dispatch anew.
	fr.responses = []RasterResponse{{FrameID: 1, Occluded: []Key{b}}}
	second := p.Visible(eye, vp)
	if len(second) != 1 || second[0] != a {
		t.Fatalf("frame 2 visible = %v", second)
	}
	if len(fr.requests) != 2 {
		t.Fatalf("frame 2 raster request not dispatched")
	}
}

func TestPipelineSkipsDispatchWhileInFlight(t *testing.T) {
	eye, vp := lookDownNegZ()
	fr := &fakeRaster{}
	p := NewPipeline(DefaultAnalyticConfig(), fr)
	p.SetBox(coord.Sub{}, boxAt(0, 0, -5, 2))

	p.Visible(eye, vp)
	p.Visible(eye, vp) // worker still busy, nothing to collect
	if len(fr.requests) != 1 {
		t.Fatalf("pipeline queued a second frame while one was in flight")
	}
}

func TestPipelineDropColumn(t *testing.T) {
	eye, vp := lookDownNegZ()
	fr := &fakeRaster{}
	p := NewPipeline(DefaultAnalyticConfig(), fr)
	k := coord.Sub{X: 2, Z: 3, Y: 1}
	p.SetBox(k, boxAt(0, 0, -5, 2))
	p.SetOccluder(k, boxAt(0, 0, -5, 2), true)

	p.DropColumn(2, 3)
	if got := p.Visible(eye, vp); len(got) != 0 {
		t.Fatalf("dropped column still visible: %v", got)
	}
	if len(fr.requests[0].Occluders) != 0 {
		t.Fatalf("dropped column still occluding")
	}
}
