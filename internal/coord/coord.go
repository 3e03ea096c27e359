// Package coord holds the world/chunk/local coordinate conversions shared by
// every other package. All functions are pure.
package coord

// World extents. A column is 32x32 blocks horizontally and 1024 blocks tall,
// split into 16 sub-chunks of 64 blocks each.
const (
	ChunkSizeX     = 32
	ChunkSizeZ     = 32
	SubChunkHeight = 64
	SubChunkCount  = 16
	ColumnHeight   = SubChunkHeight * SubChunkCount
)

// World identifies a single block. Coordinates are 64-bit on purpose: chunk
// math must keep working far beyond the 32-bit range.
type World struct {
	X, Y, Z int64
}

func (w World) Offset(dx, dy, dz int64) World {
	return World{w.X + dx, w.Y + dy, w.Z + dz}
}

// Neighbors6 returns the six face-adjacent coordinates.
func (w World) Neighbors6() [6]World {
	return [6]World{
		{w.X - 1, w.Y, w.Z}, {w.X + 1, w.Y, w.Z},
		{w.X, w.Y - 1, w.Z}, {w.X, w.Y + 1, w.Z},
		{w.X, w.Y, w.Z - 1}, {w.X, w.Y, w.Z + 1},
	}
}

// Chunk identifies a vertical column on the chunk grid. The struct itself is
// the map key: comparable, injective and exact for any 64-bit coordinate.
type Chunk struct {
	X, Z int64
}

// Sub identifies one sub-chunk inside a column.
type Sub struct {
	X, Z int64
	Y    int
}

func (c Chunk) Sub(y int) Sub {
	return Sub{X: c.X, Z: c.Z, Y: y}
}

func (s Sub) Chunk() Chunk {
	return Chunk{X: s.X, Z: s.Z}
}

// Local is a block position inside a column: X,Z in [0,32), Y in [0,1024).
type Local struct {
	X, Y, Z int
}

// FloorDiv is floor division, not Go's truncating division. -1/32 must be -1.
func FloorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// floorMod always yields a non-negative remainder.
func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// WorldToChunk maps a block position to its column.
func WorldToChunk(w World) Chunk {
	return Chunk{
		X: FloorDiv(w.X, ChunkSizeX),
		Z: FloorDiv(w.Z, ChunkSizeZ),
	}
}

// WorldToLocal maps a block position to column-local coordinates. The local
// Y is the world Y unchanged; callers gate on InColumnBounds first.
func WorldToLocal(w World) Local {
	return Local{
		X: int(floorMod(w.X, ChunkSizeX)),
		Y: int(w.Y),
		Z: int(floorMod(w.Z, ChunkSizeZ)),
	}
}

// LocalToWorld is the inverse of WorldToChunk + WorldToLocal.
func LocalToWorld(c Chunk, l Local) World {
	return World{
		X: c.X*ChunkSizeX + int64(l.X),
		Y: int64(l.Y),
		Z: c.Z*ChunkSizeZ + int64(l.Z),
	}
}

// InColumnBounds reports whether a world Y lies inside the column height.
func InColumnBounds(y int64) bool {
	return y >= 0 && y < ColumnHeight
}

// SubIndex returns which sub-chunk a local Y falls in.
func SubIndex(localY int) int {
	return localY / SubChunkHeight
}

// SubLocalY returns the Y inside that sub-chunk.
func SubLocalY(localY int) int {
	return localY % SubChunkHeight
}
