package cull

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Candidate is one sub-chunk surviving the frustum stage.
type Candidate struct {
	ID  Key
	Box Box
}

// AnalyticConfig tunes the ray/box occlusion pass. The thresholds are
// empirical; keep them adjustable rather than derived.
type AnalyticConfig struct {
	// ExemptNearest candidates are never occluded, they sit too close to
	// the camera for a coarse box test to be trustworthy.
	ExemptNearest int
	// MinAngularSize in degrees an occluder must subtend to count.
	MinAngularSize float64
	// SampleFraction of the candidate's sample points an occluder must
	// block.
	SampleFraction float64
	// DistanceRatio bounds how close the occluder must be relative to the
	// candidate (occluder distance <= ratio * candidate distance).
	DistanceRatio float64
}

func DefaultAnalyticConfig() AnalyticConfig {
	return AnalyticConfig{
		ExemptNearest:  4,
		MinAngularSize: 45,
		SampleFraction: 0.8,
		DistanceRatio:  0.9,
	}
}

// AnalyticCull removes candidates hidden behind a closer candidate's box.
// It returns the surviving candidates sorted near to far. The test is
// deliberately conservative: a candidate is dropped only when one closer box
// lies on the camera ray, is substantially closer, looms large from the
// camera, and blocks most of the candidate's sample points.
func AnalyticCull(cam mgl32.Vec3, cands []Candidate, cfg AnalyticConfig) []Candidate {
	sorted := make([]Candidate, len(cands))
	copy(sorted, cands)
	sort.Slice(sorted, func(i, j int) bool {
		vi := sorted[i].Box.Center().Sub(cam)
		vj := sorted[j].Box.Center().Sub(cam)
		di, dj := vi.Dot(vi), vj.Dot(vj)
		return di < dj
	})

	minAngular := cfg.MinAngularSize * math.Pi / 180

	out := sorted[:0]
	for i, cand := range sorted {
		if i < cfg.ExemptNearest {
			out = append(out, cand)
			continue
		}
		dist := float64(cand.Box.Center().Sub(cam).Len())
		occluded := false
		for j := 0; j < i; j++ {
			blocker := sorted[j]
			bdist := float64(blocker.Box.Center().Sub(cam).Len())
			if bdist > cfg.DistanceRatio*dist {
				continue
			}
			if angularSize(cam, blocker.Box, bdist) < minAngular {
				continue
			}
			if blockedFraction(cam, blocker.Box, cand.Box) >= cfg.SampleFraction {
				occluded = true
				break
			}
		}
		if !occluded {
			out = append(out, cand)
		}
	}
	return out
}

// angularSize approximates the angle a box subtends, treating it as a
// sphere of half its diagonal.
func angularSize(cam mgl32.Vec3, b Box, dist float64) float64 {
	radius := float64(b.Max.Sub(b.Min).Len()) / 2
	if dist <= radius {
		return math.Pi
	}
	return 2 * math.Asin(radius/dist)
}

// blockedFraction casts rays from the camera to the candidate's center and
// four alternating corners and reports the fraction the blocker intercepts.
func blockedFraction(cam mgl32.Vec3, blocker, cand Box) float64 {
	corners := cand.Corners()
	samples := [5]mgl32.Vec3{
		cand.Center(),
		corners[0], corners[2], corners[5], corners[7],
	}
	hit := 0
	for _, s := range samples {
		if rayHitsBox(cam, s, blocker) {
			hit++
		}
	}
	return float64(hit) / float64(len(samples))
}

// rayHitsBox is a slab test over the segment from origin to target.
func rayHitsBox(origin, target mgl32.Vec3, b Box) bool {
	dir := target.Sub(origin)
	tmin, tmax := 0.0, 1.0
	for axis := 0; axis < 3; axis++ {
		o, d := float64(origin[axis]), float64(dir[axis])
		lo, hi := float64(b.Min[axis]), float64(b.Max[axis])
		if math.Abs(d) < 1e-9 {
			if o < lo || o > hi {
				return false
			}
			continue
		}
		t1, t2 := (lo-o)/d, (hi-o)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return false
		}
	}
	return true
}
