package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/store"
)

type CameraMovement int

const (
	MoveForward CameraMovement = iota
	MoveBackward
	MoveLeft
	MoveRight
)

// Camera is the view state: position, yaw/pitch angles and the derived
// basis vectors. In walk mode the position follows the physics body; in
// flight mode OnMoveChange translates it directly.
type Camera struct {
	pos    mgl32.Vec3
	up     mgl32.Vec3
	right  mgl32.Vec3
	front  mgl32.Vec3
	wfront mgl32.Vec3

	rotatex, rotatey float32

	Sens float32

	flying bool
}

func NewCamera(pos mgl32.Vec3) *Camera {
	c := &Camera{
		pos:     pos,
		front:   mgl32.Vec3{0, 0, -1},
		rotatex: -90,
		Sens:    0.14,
	}
	c.updateAngles()
	return c
}

func (c *Camera) Restore(state store.PlayerState) {
	c.pos = mgl32.Vec3{float32(state.X), float32(state.Y), float32(state.Z)}
	c.rotatex = float32(state.Rx)
	c.rotatey = float32(state.Ry)
	c.flying = state.FlightMode
	c.updateAngles()
}

func (c *Camera) State() store.PlayerState {
	return store.PlayerState{
		X:          float64(c.pos.X()),
		Y:          float64(c.pos.Y()),
		Z:          float64(c.pos.Z()),
		Rx:         float64(c.rotatex),
		Ry:         float64(c.rotatey),
		FlightMode: c.flying,
	}
}

func (c *Camera) Matrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.pos, c.pos.Add(c.front), c.up)
}

func (c *Camera) SetPos(pos mgl32.Vec3) {
	c.pos = pos
}

func (c *Camera) Pos() mgl32.Vec3 {
	return c.pos
}

func (c *Camera) Front() mgl32.Vec3 {
	return c.front
}

// WalkFront is the forward direction flattened onto the horizontal plane.
func (c *Camera) WalkFront() mgl32.Vec3 {
	return c.wfront
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.right
}

func (c *Camera) FlipFlying() {
	c.flying = !c.flying
}

func (c *Camera) Flying() bool {
	return c.flying
}

func (c *Camera) OnAngleChange(dx, dy float32) {
	if mgl32.Abs(dx) > 200 || mgl32.Abs(dy) > 200 {
		return
	}
	c.rotatex += dx * c.Sens
	c.rotatey += dy * c.Sens
	if c.rotatey > 89 {
		c.rotatey = 89
	}
	if c.rotatey < -89 {
		c.rotatey = -89
	}
	c.updateAngles()
}

// OnMoveChange translates the camera in flight mode. Walking movement goes
// through the physics body instead; callers use WalkFront/Right to build
// the walk velocity.
func (c *Camera) OnMoveChange(dir CameraMovement, delta float32) {
	if !c.flying {
		return
	}
	delta = 5 * delta
	switch dir {
	case MoveForward:
		c.pos = c.pos.Add(c.front.Mul(delta))
	case MoveBackward:
		c.pos = c.pos.Sub(c.front.Mul(delta))
	case MoveLeft:
		c.pos = c.pos.Sub(c.right.Mul(delta))
	case MoveRight:
		c.pos = c.pos.Add(c.right.Mul(delta))
	}
}

func (c *Camera) updateAngles() {
	front := mgl32.Vec3{
		cos(radian(c.rotatey)) * cos(radian(c.rotatex)),
		sin(radian(c.rotatey)),
		cos(radian(c.rotatey)) * sin(radian(c.rotatex)),
	}
	c.front = front.Normalize()
	c.right = c.front.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
	c.wfront = mgl32.Vec3{0, 1, 0}.Cross(c.right).Normalize()
}

func radian(deg float32) float32 {
	return deg * math.Pi / 180
}

func cos(x float32) float32 {
	return float32(math.Cos(float64(x)))
}

func sin(x float32) float32 {
	return float32(math.Sin(float64(x)))
}
