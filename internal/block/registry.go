// Package block defines the flyweight block descriptors and the registry
// that maps block ids to their static properties. The registry is built once
// at startup and read-only afterwards; per-coordinate mutable state lives in
// a separate side table (state.go), never on the descriptors.
package block

import "log"

// ID is a 16-bit block id. Zero is air: never solid, never opaque, never
// meshed.
type ID uint16

const Air ID = 0

// Definition holds the static properties of one block id.
type Definition struct {
	ID       ID
	Name     string
	Opaque   bool
	Solid    bool
	Hardness float32

	// Emission is the blocklight level (0-15) the block radiates.
	Emission uint8
	// LightBlock is the extra attenuation the block applies to light
	// passing through it, on top of the 1-per-hop falloff. Opaque blocks
	// stop light entirely regardless of this value.
	LightBlock uint8

	// Greedy blocks are full cubes that take part in quad merging.
	// Non-greedy blocks (flowers, partial volumes) are emitted as
	// per-instance transforms instead.
	Greedy bool

	// Texture selects the texture group a meshed face is batched under.
	Texture uint16

	Tags []string
}

// Registry is the id -> definition table. Construct it explicitly and pass
// it to the components that need it; there is no package-level instance.
type Registry struct {
	defs []Definition
}

func NewRegistry() *Registry {
	r := &Registry{defs: make([]Definition, 1, 64)}
	r.defs[0] = Definition{ID: Air, Name: "air", Greedy: true}
	return r
}

// Register adds a definition. Re-registering an id is a programming error.
func (r *Registry) Register(def Definition) {
	if def.ID == Air {
		log.Panicf("block: cannot register over air")
	}
	for int(def.ID) >= len(r.defs) {
		r.defs = append(r.defs, Definition{})
	}
	if r.defs[def.ID].Name != "" {
		log.Panicf("block: id %d registered twice (%q, %q)", def.ID, r.defs[def.ID].Name, def.Name)
	}
	r.defs[def.ID] = def
}

// Get returns the definition for an id. Unknown ids behave as air.
func (r *Registry) Get(id ID) Definition {
	if int(id) >= len(r.defs) || (id != Air && r.defs[id].Name == "") {
		return r.defs[Air]
	}
	return r.defs[id]
}

func (r *Registry) IsOpaque(id ID) bool { return r.Get(id).Opaque }
func (r *Registry) IsSolid(id ID) bool  { return r.Get(id).Solid }

// MaxID returns the highest registered id, for building dense lookup tables
// to ship to workers.
func (r *Registry) MaxID() ID {
	return ID(len(r.defs) - 1)
}

// OpaqueSet returns a dense opacity table indexed by id, safe to hand to a
// worker (it is a copy).
func (r *Registry) OpaqueSet() []bool {
	set := make([]bool, len(r.defs))
	for i, d := range r.defs {
		set[i] = d.Opaque
	}
	return set
}

// MeshProps is the subset of properties the mesh builder needs, flattened
// into a dense table for cheap indexed lookup off the main thread.
type MeshProps struct {
	Opaque  bool
	Greedy  bool
	Texture uint16
}

func (r *Registry) MeshTable() []MeshProps {
	tbl := make([]MeshProps, len(r.defs))
	for i, d := range r.defs {
		tbl[i] = MeshProps{Opaque: d.Opaque, Greedy: d.Greedy, Texture: d.Texture}
	}
	return tbl
}

// LightProps is the lighting worker's view of the registry.
type LightProps struct {
	Opaque     bool
	Solid      bool
	Emission   uint8
	LightBlock uint8
}

func (r *Registry) LightTable() []LightProps {
	tbl := make([]LightProps, len(r.defs))
	for i, d := range r.defs {
		tbl[i] = LightProps{Opaque: d.Opaque, Solid: d.Solid, Emission: d.Emission, LightBlock: d.LightBlock}
	}
	return tbl
}

// Well-known ids used by the default world.
const (
	Stone ID = iota + 1
	Dirt
	Grass
	Sand
	Water
	Wood
	Leaves
	Cloud
	Glowstone
	Flower
	Bedrock
)

// DefaultRegistry builds the block set the stock generator uses.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Definition{ID: Stone, Name: "stone", Opaque: true, Solid: true, Hardness: 3, Greedy: true, Texture: 1})
	r.Register(Definition{ID: Dirt, Name: "dirt", Opaque: true, Solid: true, Hardness: 1, Greedy: true, Texture: 2})
	r.Register(Definition{ID: Grass, Name: "grass", Opaque: true, Solid: true, Hardness: 1, Greedy: true, Texture: 3})
	r.Register(Definition{ID: Sand, Name: "sand", Opaque: true, Solid: true, Hardness: 1, Greedy: true, Texture: 4})
	r.Register(Definition{ID: Water, Name: "water", Opaque: false, Solid: false, LightBlock: 2, Greedy: true, Texture: 5})
	r.Register(Definition{ID: Wood, Name: "wood", Opaque: true, Solid: true, Hardness: 2, Greedy: true, Texture: 6})
	r.Register(Definition{ID: Leaves, Name: "leaves", Opaque: false, Solid: true, LightBlock: 1, Greedy: true, Texture: 7})
	r.Register(Definition{ID: Cloud, Name: "cloud", Opaque: false, Solid: false, Greedy: true, Texture: 8})
	r.Register(Definition{ID: Glowstone, Name: "glowstone", Opaque: true, Solid: true, Hardness: 2, Emission: 15, Greedy: true, Texture: 9})
	r.Register(Definition{ID: Flower, Name: "flower", Opaque: false, Solid: false, Greedy: false, Texture: 10})
	r.Register(Definition{ID: Bedrock, Name: "bedrock", Opaque: true, Solid: true, Hardness: -1, Greedy: true, Texture: 11})
	return r
}
