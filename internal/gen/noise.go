// Package gen holds terrain and feature generation. Every feature is a pure
// function of (seed, world coordinates): the same inputs always produce the
// same blocks, so prediction code can re-derive terrain without
// materializing chunks.
package gen

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Noise is a seeded opensimplex source with octave helpers for terrain
// shaping. Octave outputs are normalized to [0,1].
type Noise struct {
	sim opensimplex.Noise
}

func NewNoise(seed int64) *Noise {
	return &Noise{sim: opensimplex.New(seed)}
}

// Eval2 and Eval3 are the raw samples in [-1,1].
func (n *Noise) Eval2(x, y float64) float64 {
	return n.sim.Eval2(x, y)
}

func (n *Noise) Eval3(x, y, z float64) float64 {
	return n.sim.Eval3(x, y, z)
}

func (n *Noise) Octave2(x, y float64, octaves int, persistence, lacunarity float64) float64 {
	var (
		freq  = 1.0
		amp   = 1.0
		max   = 1.0
		total = n.sim.Eval2(x, y)
	)
	for i := 0; i < octaves; i++ {
		freq *= lacunarity
		amp *= persistence
		max += amp
		total += n.sim.Eval2(x*freq, y*freq) * amp
	}
	return (1 + total/max) / 2
}

func (n *Noise) Octave3(x, y, z float64, octaves int, persistence, lacunarity float64) float64 {
	var (
		freq  = 1.0
		amp   = 1.0
		max   = 1.0
		total = n.sim.Eval3(x, y, z)
	)
	for i := 0; i < octaves; i++ {
		freq *= lacunarity
		amp *= persistence
		max += amp
		total += n.sim.Eval3(x*freq, y*freq, z*freq) * amp
	}
	return (1 + total/max) / 2
}
