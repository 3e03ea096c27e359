package game

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/faiface/mainthread"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.2/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"voxelworld/internal/block"
	"voxelworld/internal/config"
	"voxelworld/internal/coord"
	"voxelworld/internal/cull"
	"voxelworld/internal/phys"
	"voxelworld/internal/render"
	"voxelworld/internal/store"
)

const eyeHeight = 1.6

// availableItems is the placement palette cycled with E/R.
var availableItems = []block.ID{
	block.Stone,
	block.Dirt,
	block.Grass,
	block.Sand,
	block.Wood,
	block.Leaves,
	block.Glowstone,
	block.Flower,
}

// Game owns the window, the camera/body pair and the per-frame loop.
type Game struct {
	cfg config.Config
	win *glfw.Window

	engine *Engine
	store  *store.Store

	camera *render.Camera
	body   *phys.Body

	blockRender *render.BlockRender
	lineRender  *render.LineRender

	cullPipe     *cull.Pipeline
	rasterWorker *cull.RasterWorker

	lx, ly   float64
	prevtime float64

	itemidx int

	fps            fps
	exclusiveMouse bool
	closed         bool
}

func initGL(w, h int) *glfw.Window {
	if err := glfw.Init(); err != nil {
		log.Fatal(err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, gl.TRUE)

	win, err := glfw.CreateWindow(w, h, "voxelworld", nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	win.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		log.Fatal(err)
	}
	glfw.SwapInterval(1) // vsync
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	return win
}

func NewGame(cfg config.Config, texturePath string, w, h int) (*Game, error) {
	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return nil, errors.Wrap(err, "store")
	}
	engine, err := NewEngine(cfg, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	g := &Game{
		cfg:    cfg,
		engine: engine,
		store:  st,
	}
	mainthread.Call(func() {
		win := initGL(w, h)
		win.SetMouseButtonCallback(g.onMouseButtonCallback)
		win.SetCursorPosCallback(g.onCursorPosCallback)
		win.SetFramebufferSizeCallback(g.onFrameBufferSizeCallback)
		win.SetKeyCallback(g.onKeyCallback)
		g.win = win
	})

	state := st.GetPlayerState()
	g.camera = render.NewCamera(mgl32.Vec3{0, 120, 0})
	g.camera.Restore(state)
	g.body = &phys.Body{
		Pos:    mgl64.Vec3{state.X, state.Y - eyeHeight, state.Z},
		Width:  0.6,
		Height: 1.8,
	}

	fog := float32(cfg.RenderRadius * coord.ChunkSizeX)
	g.blockRender, err = render.NewBlockRender(texturePath, fog)
	if err != nil {
		return nil, err
	}
	g.lineRender, err = render.NewLineRender()
	if err != nil {
		return nil, err
	}

	g.rasterWorker = cull.NewRasterWorker(cfg.Cull.RasterWidth, cfg.Cull.RasterHeight)
	g.cullPipe = cull.NewPipeline(cull.AnalyticConfig{
		ExemptNearest:  cfg.Cull.ExemptNearest,
		MinAngularSize: cfg.Cull.MinAngularSize,
		SampleFraction: cfg.Cull.SampleFraction,
		DistanceRatio:  cfg.Cull.DistanceRatio,
	}, g.rasterWorker)

	engine.OnColumnUnloaded = func(c coord.Chunk) {
		mainthread.CallNonBlock(func() {
			g.blockRender.RemoveColumn(c.X, c.Z)
		})
		g.cullPipe.DropColumn(c.X, c.Z)
	}
	return g, nil
}

func (g *Game) setExclusiveMouse(exclusive bool) {
	if exclusive {
		g.win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		g.win.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
	g.exclusiveMouse = exclusive
}

func (g *Game) onMouseButtonCallback(win *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	if !g.exclusiveMouse {
		g.setExclusiveMouse(true)
		return
	}
	if action != glfw.Press {
		return
	}
	hit, prev := HitTest(g.engine.World, g.camera.Pos(), g.camera.Front())
	switch button {
	case glfw.MouseButton1:
		if hit != nil && g.engine.World.Block(*hit) != block.Bedrock {
			g.engine.World.SetBlock(*hit, block.Air)
		}
	case glfw.MouseButton2:
		if prev != nil && !g.occupies(*prev) {
			g.engine.World.SetBlock(*prev, availableItems[g.itemidx])
		}
	}
}

// occupies reports whether the player's body overlaps a block cell.
func (g *Game) occupies(w coord.World) bool {
	box := g.body.Box()
	cell := phys.AABB{
		Min: mgl64.Vec3{float64(w.X), float64(w.Y), float64(w.Z)},
		Max: mgl64.Vec3{float64(w.X) + 1, float64(w.Y) + 1, float64(w.Z) + 1},
	}
	return box.Intersects(cell)
}

func (g *Game) onFrameBufferSizeCallback(window *glfw.Window, width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (g *Game) onCursorPosCallback(win *glfw.Window, xpos, ypos float64) {
	if !g.exclusiveMouse {
		return
	}
	if g.lx == 0 && g.ly == 0 {
		g.lx, g.ly = xpos, ypos
		return
	}
	dx, dy := xpos-g.lx, g.ly-ypos
	g.lx, g.ly = xpos, ypos
	g.camera.OnAngleChange(float32(dx), float32(dy))
}

func (g *Game) onKeyCallback(win *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	switch key {
	case glfw.KeyTab:
		g.camera.FlipFlying()
		if !g.camera.Flying() {
			p := g.camera.Pos()
			g.body.Pos = mgl64.Vec3{float64(p.X()), float64(p.Y()) - eyeHeight, float64(p.Z())}
			g.body.Vel = mgl64.Vec3{}
		}
	case glfw.KeySpace:
		if g.body.OnGround {
			g.body.Vel[1] = 8
		}
	case glfw.KeyE:
		g.itemidx = (g.itemidx + 1) % len(availableItems)
	case glfw.KeyR:
		g.itemidx--
		if g.itemidx < 0 {
			g.itemidx = len(availableItems) - 1
		}
	}
}

func (g *Game) handleInput(dt float64) {
	if g.win.GetKey(glfw.KeyEscape) == glfw.Press {
		g.setExclusiveMouse(false)
	}

	if g.camera.Flying() {
		speed := float32(0.2)
		if g.win.GetKey(glfw.KeyW) == glfw.Press {
			g.camera.OnMoveChange(render.MoveForward, speed)
		}
		if g.win.GetKey(glfw.KeyS) == glfw.Press {
			g.camera.OnMoveChange(render.MoveBackward, speed)
		}
		if g.win.GetKey(glfw.KeyA) == glfw.Press {
			g.camera.OnMoveChange(render.MoveLeft, speed)
		}
		if g.win.GetKey(glfw.KeyD) == glfw.Press {
			g.camera.OnMoveChange(render.MoveRight, speed)
		}
		return
	}

	// Walking: horizontal velocity from the camera direction, gravity on
	// the body, swept collision against the grid.
	const walkSpeed = 5.0
	var wish mgl32.Vec3
	if g.win.GetKey(glfw.KeyW) == glfw.Press {
		wish = wish.Add(g.camera.WalkFront())
	}
	if g.win.GetKey(glfw.KeyS) == glfw.Press {
		wish = wish.Sub(g.camera.WalkFront())
	}
	if g.win.GetKey(glfw.KeyA) == glfw.Press {
		wish = wish.Sub(g.camera.Right())
	}
	if g.win.GetKey(glfw.KeyD) == glfw.Press {
		wish = wish.Add(g.camera.Right())
	}
	if wish.Len() > 0 {
		wish = wish.Normalize().Mul(walkSpeed)
	}
	g.body.Vel[0] = float64(wish.X())
	g.body.Vel[2] = float64(wish.Z())
	g.body.Vel[1] -= 20 * dt
	if g.body.Vel[1] < -50 {
		g.body.Vel[1] = -50
	}
	phys.Step(g.engine, g.body, dt)

	p := g.body.Pos
	g.camera.SetPos(mgl32.Vec3{float32(p.X()), float32(p.Y() + eyeHeight), float32(p.Z())})
}

func (g *Game) playerChunk() coord.Chunk {
	p := g.camera.Pos()
	return coord.WorldToChunk(coord.World{
		X: int64(math.Floor(float64(p.X()))),
		Z: int64(math.Floor(float64(p.Z()))),
	})
}

func (g *Game) viewProj() mgl32.Mat4 {
	width, height := g.win.GetSize()
	far := float32(g.cfg.RenderRadius * coord.ChunkSizeX)
	proj := mgl32.Perspective(mgl32.DegToRad(45), float32(width)/float32(height), 0.1, far)
	return proj.Mul4(g.camera.Matrix())
}

// subBox is the full extents of one sub-chunk, used for the occluder set.
func subBox(k coord.Sub) cull.Box {
	min := mgl32.Vec3{
		float32(k.X * coord.ChunkSizeX),
		float32(k.Y * coord.SubChunkHeight),
		float32(k.Z * coord.ChunkSizeZ),
	}
	return cull.Box{
		Min: min,
		Max: min.Add(mgl32.Vec3{coord.ChunkSizeX, coord.SubChunkHeight, coord.ChunkSizeZ}),
	}
}

// applyMeshes uploads finished builds and refreshes culling state. Main
// thread only.
func (g *Game) applyMeshes() {
	g.engine.DrainMeshes(func(u MeshUpdate) {
		if box, ok := g.blockRender.Upload(u.Key, &u.Result); ok {
			g.cullPipe.SetBox(u.Key, box)
		} else {
			g.cullPipe.DropBox(u.Key)
		}
		g.cullPipe.SetOccluder(u.Key, subBox(u.Key), u.FullyOpaque)
	})
}

func (g *Game) renderStat() {
	g.fps.update()
	p := g.camera.Pos()
	c := g.playerChunk()
	stat := g.blockRender.Stat()
	title := fmt.Sprintf("voxelworld [%.1f %.1f %.1f] (%d,%d) subs:%d/%d quads:%d fps:%d",
		p.X(), p.Y(), p.Z(), c.X, c.Z,
		stat.RenderedSubs, stat.CachedSubs, stat.Quads, g.fps.fps)
	g.win.SetTitle(title)
}

func (g *Game) ShouldClose() bool {
	return g.closed
}

// Update runs one frame.
func (g *Game) Update() {
	mainthread.Call(func() {
		now := glfw.GetTime()
		dt := now - g.prevtime
		g.prevtime = now
		if dt > 0.2 {
			dt = 0.2
		}

		g.handleInput(dt)
		g.engine.Update(g.playerChunk())
		g.applyMeshes()

		gl.ClearColor(0.57, 0.71, 0.77, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		mat := g.viewProj()
		visible := g.cullPipe.Visible(g.camera.Pos(), mat)
		g.blockRender.Draw(mat, g.camera.Pos(), visible)

		if hit, _ := HitTest(g.engine.World, g.camera.Pos(), g.camera.Front()); hit != nil {
			g.lineRender.DrawWireFrame(mat, *hit)
		}
		w, h := g.win.GetFramebufferSize()
		g.lineRender.DrawCross(w, h)

		g.renderStat()

		g.win.SwapBuffers()
		glfw.PollEvents()
		g.closed = g.win.ShouldClose()
	})
}

// Close persists the player state and the loaded world, then shuts the
// workers down.
func (g *Game) Close() {
	if err := g.store.UpdatePlayerState(g.camera.State()); err != nil {
		log.Printf("game: save player state: %v", err)
	}
	g.engine.Close()
	g.rasterWorker.Close()
	g.store.Close()
}

type fps struct {
	lastUpdate time.Time
	cnt        int
	fps        int
}

func (f *fps) update() {
	f.cnt++
	now := time.Now()
	p := now.Sub(f.lastUpdate)
	if p >= time.Second {
		f.fps = int(float64(f.cnt) / p.Seconds())
		f.cnt = 0
		f.lastUpdate = now
	}
}
