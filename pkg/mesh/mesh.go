// Package mesh holds the vertex-level data shared by the solid primitives,
// the STL codec and the renderers: points, flat triangle buffers, facets
// and draw modes.
package mesh

import "math"

// Facet is a single STL triangle record. Importers fill Normal from the
// file; consumers that only need geometry read Vert1..Vert3.
type Facet struct {
	Normal Vec3 `json:"normal"`
	Vert1  Vec3 `json:"vert1"`
	Vert2  Vec3 `json:"vert2"`
	Vert3  Vec3 `json:"vert3"`
}

// Mode selects how a renderer draws a vertex buffer.
type Mode int

const (
	ModeFill      Mode = iota // filled triangles
	ModeWireframe             // triangle edges only
)

func (m Mode) String() string {
	switch m {
	case ModeFill:
		return "fill"
	case ModeWireframe:
		return "wireframe"
	default:
		return "unknown"
	}
}

// VertexBuffer is an ordered triangle list: every three consecutive
// vertices form one triangle. The zero value is an empty buffer.
type VertexBuffer struct {
	verts []Vec3
}

// Append adds vertices to the end of the buffer.
func (b *VertexBuffer) Append(vs ...Vec3) {
	b.verts = append(b.verts, vs...)
}

// At returns the vertex at index i.
func (b *VertexBuffer) At(i int) Vec3 {
	return b.verts[i]
}

// Set replaces the vertex at index i.
func (b *VertexBuffer) Set(i int, v Vec3) {
	b.verts[i] = v
}

// Clear removes every vertex, keeping the allocated capacity.
func (b *VertexBuffer) Clear() {
	b.verts = b.verts[:0]
}

// Len returns the number of vertices.
func (b *VertexBuffer) Len() int {
	return len(b.verts)
}

// TriangleCount returns the number of complete triangles.
func (b *VertexBuffer) TriangleCount() int {
	return len(b.verts) / 3
}

// IsEmpty returns true if the buffer has no vertices.
func (b *VertexBuffer) IsEmpty() bool {
	return len(b.verts) == 0
}

// IsTriangleList reports whether the vertex count is a multiple of three.
func (b *VertexBuffer) IsTriangleList() bool {
	return len(b.verts)%3 == 0
}

// Translate adds delta to every vertex in place.
func (b *VertexBuffer) Translate(delta Vec3) {
	for i := range b.verts {
		b.verts[i] = b.verts[i].Add(delta)
	}
}

// Vertices returns a copy of the vertex list.
func (b *VertexBuffer) Vertices() []Vec3 {
	out := make([]Vec3, len(b.verts))
	copy(out, b.verts)
	return out
}

// Bounds returns the axis-aligned bounding box of the buffer.
// An empty buffer yields two zero vectors.
func (b *VertexBuffer) Bounds() (min, max Vec3) {
	if len(b.verts) == 0 {
		return Vec3{}, Vec3{}
	}
	min = Vec3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = Vec3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range b.verts {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		min.Z = math.Min(min.Z, v.Z)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
		max.Z = math.Max(max.Z, v.Z)
	}
	return min, max
}

// Flatten returns the vertices as a flat [x0,y0,z0, x1,y1,z1, ...] slice,
// the layout GPU-side consumers expect.
func (b *VertexBuffer) Flatten() []float32 {
	out := make([]float32, 0, len(b.verts)*3)
	for _, v := range b.verts {
		out = append(out, float32(v.X), float32(v.Y), float32(v.Z))
	}
	return out
}
