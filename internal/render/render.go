package render

import (
	"image"
	"image/draw"
	_ "image/png"
	"os"

	"github.com/faiface/glhf"
	"github.com/faiface/mainthread"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"voxelworld/internal/coord"
	"voxelworld/internal/cull"
	"voxelworld/internal/mesh"
)

func loadImage(fname string) ([]uint8, image.Rectangle, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba.Pix, img.Bounds(), nil
}

// subMeshes is every GL mesh of one uploaded sub-chunk.
type subMeshes struct {
	meshes []*Mesh
	box    cull.Box
}

// Stat is the per-frame render summary shown in the window title.
type Stat struct {
	Quads        int
	CachedSubs   int
	RenderedSubs int
}

// BlockRender uploads built sub-chunk meshes and draws whatever the
// visibility pipeline passes in. All methods run on the main thread.
type BlockRender struct {
	shader  *glhf.Shader
	texture *glhf.Texture

	fogDistance float32

	cache map[coord.Sub]*subMeshes

	stat Stat
}

func NewBlockRender(texturePath string, fogDistance float32) (*BlockRender, error) {
	img, rect, err := loadImage(texturePath)
	if err != nil {
		return nil, errors.Wrapf(err, "load texture %s", texturePath)
	}

	r := &BlockRender{
		fogDistance: fogDistance,
		cache:       make(map[coord.Sub]*subMeshes),
	}
	var serr error
	mainthread.Call(func() {
		r.shader, serr = glhf.NewShader(glhf.AttrFormat{
			glhf.Attr{Name: "pos", Type: glhf.Vec3},
			glhf.Attr{Name: "tex", Type: glhf.Vec2},
			glhf.Attr{Name: "normal", Type: glhf.Vec3},
			glhf.Attr{Name: "color", Type: glhf.Vec3},
		}, glhf.AttrFormat{
			glhf.Attr{Name: "matrix", Type: glhf.Mat4},
			glhf.Attr{Name: "camera", Type: glhf.Vec3},
			glhf.Attr{Name: "fogdis", Type: glhf.Float},
		}, blockVertexSource, blockFragmentSource)
		if serr != nil {
			return
		}
		r.texture = glhf.NewTexture(rect.Dx(), rect.Dy(), false, img)
	})
	if serr != nil {
		return nil, serr
	}
	return r, nil
}

// subOrigin is the world position of a sub-chunk's minimum corner.
func subOrigin(k coord.Sub) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(k.X * coord.ChunkSizeX),
		float32(k.Y * coord.SubChunkHeight),
		float32(k.Z * coord.ChunkSizeZ),
	}
}

// Upload replaces the GL meshes of one sub-chunk with a fresh build result
// and returns the geometry-derived world-space bounds. ok is false for an
// empty result, which only clears the slot.
func (r *BlockRender) Upload(k coord.Sub, res *mesh.Result) (cull.Box, bool) {
	r.Remove(k)
	if res.Empty() {
		return cull.Box{}, false
	}

	origin := subOrigin(k)
	sm := &subMeshes{}
	first := true
	grow := func(p mgl32.Vec3) {
		if first {
			sm.box = cull.Box{Min: p, Max: p}
			first = false
			return
		}
		for a := 0; a < 3; a++ {
			if p[a] < sm.box.Min[a] {
				sm.box.Min[a] = p[a]
			}
			if p[a] > sm.box.Max[a] {
				sm.box.Max[a] = p[a]
			}
		}
	}

	for i := range res.Batches {
		b := res.Batches[i]
		world := make([]float32, len(b.Positions))
		for v := 0; v < len(b.Positions); v += 3 {
			world[v] = b.Positions[v] + origin.X()
			world[v+1] = b.Positions[v+1] + origin.Y()
			world[v+2] = b.Positions[v+2] + origin.Z()
			grow(mgl32.Vec3{world[v], world[v+1], world[v+2]})
		}
		b.Positions = world
		sm.meshes = append(sm.meshes, NewMesh(r.shader, &b))
	}
	if batch := makePlantBatch(origin, res.Instances); batch != nil {
		for v := 0; v < len(batch.Positions); v += 3 {
			grow(mgl32.Vec3{batch.Positions[v], batch.Positions[v+1], batch.Positions[v+2]})
		}
		sm.meshes = append(sm.meshes, NewMesh(r.shader, batch))
	}

	r.cache[k] = sm
	return sm.box, true
}

// Remove releases a sub-chunk's meshes.
func (r *BlockRender) Remove(k coord.Sub) {
	if sm, ok := r.cache[k]; ok {
		for _, m := range sm.meshes {
			m.Release()
		}
		delete(r.cache, k)
	}
}

// RemoveColumn releases every sub-chunk mesh of one column.
func (r *BlockRender) RemoveColumn(x, z int64) {
	for k := range r.cache {
		if k.X == x && k.Z == z {
			r.Remove(k)
		}
	}
}

// Draw renders the visible sub-chunks, opaque meshes first.
func (r *BlockRender) Draw(mat mgl32.Mat4, camPos mgl32.Vec3, visible []coord.Sub) {
	r.stat = Stat{CachedSubs: len(r.cache)}

	r.shader.Begin()
	r.texture.Begin()
	r.shader.SetUniformAttr(0, mat)
	r.shader.SetUniformAttr(1, camPos)
	r.shader.SetUniformAttr(2, r.fogDistance)

	for pass := 0; pass < 2; pass++ {
		opaque := pass == 0
		for _, k := range visible {
			sm, ok := r.cache[k]
			if !ok {
				continue
			}
			if opaque {
				r.stat.RenderedSubs++
			}
			for _, m := range sm.meshes {
				if m.Opaque != opaque {
					continue
				}
				r.stat.Quads += m.Quads()
				m.Draw()
			}
		}
	}

	r.texture.End()
	r.shader.End()
}

func (r *BlockRender) Stat() Stat {
	return r.stat
}

// makePlantBatch turns non-greedy block instances into two crossed quads
// each, in the same batch format the greedy mesher emits.
func makePlantBatch(origin mgl32.Vec3, insts []mesh.Instance) *mesh.Batch {
	if len(insts) == 0 {
		return nil
	}
	b := &mesh.Batch{Opaque: false}
	for _, in := range insts {
		x := origin.X() + float32(in.X)
		y := origin.Y() + float32(in.Y)
		z := origin.Z() + float32(in.Z)
		light := in.Sky
		if in.Blk > light {
			light = in.Blk
		}
		tint := float32(light) / 15

		// Two unit quads crossing at the cell center.
		quads := [2][4]mgl32.Vec3{
			{{x + 0.5, y, z}, {x + 0.5, y, z + 1}, {x + 0.5, y + 1, z + 1}, {x + 0.5, y + 1, z}},
			{{x, y, z + 0.5}, {x + 1, y, z + 0.5}, {x + 1, y + 1, z + 0.5}, {x, y + 1, z + 0.5}},
		}
		normals := [2]mgl32.Vec3{{1, 0, 0}, {0, 0, 1}}
		uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
		for q, quad := range quads {
			base := uint32(len(b.Positions) / 3)
			for v, p := range quad {
				b.Positions = append(b.Positions, p.X(), p.Y(), p.Z())
				b.UVs = append(b.UVs, uvs[v][0], uvs[v][1])
				b.Normals = append(b.Normals, normals[q].X(), normals[q].Y(), normals[q].Z())
				b.Colors = append(b.Colors, tint, tint, tint)
			}
			// Both triangle windings so the cross is visible from either
			// side without disabling face culling.
			b.Indices = append(b.Indices,
				base, base+1, base+2, base+2, base+3, base,
				base, base+3, base+2, base+2, base+1, base,
			)
		}
	}
	return b
}
