package phys

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// gridSource answers solidity from a predicate.
type gridSource func(x, y, z int64) bool

func (g gridSource) IsSolid(x, y, z int64) bool { return g(x, y, z) }

var empty = gridSource(func(x, y, z int64) bool { return false })

// floor is an infinite solid layer at y=0, so surfaces sit at y=1.
var floor = gridSource(func(x, y, z int64) bool { return y == 0 })

func playerAt(x, y, z float64) *Body {
	return &Body{
		Pos:    mgl64.Vec3{x, y, z},
		Width:  0.6,
		Height: 1.8,
	}
}

func TestStepFreeFall(t *testing.T) {
	b := playerAt(0.5, 10, 0.5)
	b.Vel = mgl64.Vec3{0, -4, 0}
	Step(empty, b, 0.1)
	if got := b.Pos.Y(); math.Abs(got-9.6) > 1e-12 {
		t.Fatalf("y after free fall = %v, want 9.6", got)
	}
	if b.OnGround {
		t.Fatalf("grounded in empty world")
	}
}

func TestStepCapsTimeStep(t *testing.T) {
	b := playerAt(0.5, 10, 0.5)
	b.Vel = mgl64.Vec3{0, -4, 0}
	Step(empty, b, 5) // a multi-second hitch integrates as 0.1s
	if got := b.Pos.Y(); math.Abs(got-9.6) > 1e-12 {
		t.Fatalf("y after capped step = %v, want 9.6", got)
	}
}

func TestStepLandsOnBlockTop(t *testing.T) {
	b := playerAt(0.5, 3, 0.5)
	b.Vel = mgl64.Vec3{0, -30, 0}
	Step(floor, b, 0.1)
	if got := b.Pos.Y(); got != 1 {
		t.Fatalf("feet at %v, want 1 (block top)", got)
	}
	if !b.OnGround {
		t.Fatalf("landing did not set grounded")
	}
	if b.Vel.Y() != 0 {
		t.Fatalf("vertical velocity kept after landing: %v", b.Vel.Y())
	}
}

func TestStepWallSlideZeroesNormalOnly(t *testing.T) {
	// A wall filling x=2 for all y,z. Moving diagonally into it slides
	// along z while x stops at the face.
	wall := gridSource(func(x, y, z int64) bool { return x == 2 && y >= 0 && y < 4 })
	b := playerAt(1.2, 0, 0.5)
	b.Vel = mgl64.Vec3{8, 0, 3}
	Step(wall, b, 0.1)

	if got := b.Pos.X(); got != 1.7 {
		t.Fatalf("x = %v, want 1.7 (box face flush against wall)", got)
	}
	if got := b.Pos.Z(); math.Abs(got-0.8) > 1e-12 {
		t.Fatalf("z = %v, want 0.8 (tangent motion preserved)", got)
	}
	if b.Vel.X() != 0 {
		t.Fatalf("normal velocity kept: %v", b.Vel.X())
	}
	if b.Vel.Z() != 3 {
		t.Fatalf("tangent velocity changed: %v", b.Vel.Z())
	}
	if b.OnGround {
		t.Fatalf("horizontal hit set grounded")
	}
}

func TestStepCeilingHitIsNotGrounded(t *testing.T) {
	ceiling := gridSource(func(x, y, z int64) bool { return y == 5 })
	b := playerAt(0.5, 2, 0.5)
	b.Vel = mgl64.Vec3{0, 30, 0}
	Step(ceiling, b, 0.1)
	if b.OnGround {
		t.Fatalf("upward collision set grounded")
	}
	if b.Vel.Y() != 0 {
		t.Fatalf("upward velocity kept after ceiling hit")
	}
	// Head stops flush under the ceiling.
	if got := b.Pos.Y() + b.Height; math.Abs(got-5) > 1e-9 {
		t.Fatalf("head at %v, want 5", got)
	}
}

func TestGravitySettlesOnSingleBlock(t *testing.T) {
	// One solid block occupying (0,0,0)-(1,1,1); the body starts well above
	// it and falls under simple gravity until it rests on top.
	single := gridSource(func(x, y, z int64) bool { return x == 0 && y == 0 && z == 0 })
	b := playerAt(0.5, 10, 0.5)

	const g, dt = 20.0, 0.05
	for i := 0; i < 400; i++ {
		b.Vel[1] -= g * dt
		Step(single, b, dt)
	}
	if math.Abs(b.Pos.Y()-1) > 1e-9 {
		t.Fatalf("resting height = %v, want 1", b.Pos.Y())
	}
	if !b.OnGround {
		t.Fatalf("settled body not grounded")
	}
}
