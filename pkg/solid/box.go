package solid

import "github.com/chazu/stlprim/pkg/mesh"

// BoxVertexCount is the vertex count of every built box: 6 faces of 2
// triangles.
const BoxVertexCount = 36

// Box is an axis-aligned box centred on its position.
type Box struct {
	Solid
	width, height, depth float64
}

// NewBox returns a 1×1×1 box at the origin.
func NewBox() *Box {
	b := &Box{width: 1, height: 1, depth: 1}
	b.build()
	return b
}

// Kind returns KindBox.
func (b *Box) Kind() Kind { return KindBox }

// Width returns the extent along x.
func (b *Box) Width() float64 { return b.width }

// Height returns the extent along y.
func (b *Box) Height() float64 { return b.height }

// Depth returns the extent along z.
func (b *Box) Depth() float64 { return b.depth }

// Set changes all three dimensions and rebuilds once. On error the box keeps
// its previous dimensions and geometry.
func (b *Box) Set(width, height, depth float64) error {
	if err := validateBox(width, height, depth); err != nil {
		return err
	}
	b.width, b.height, b.depth = width, height, depth
	b.build()
	return nil
}

// SetSize makes the box a cube with the given edge length.
func (b *Box) SetSize(size float64) error {
	return b.Set(size, size, size)
}

// SetWidth, SetHeight and SetDepth each rebuild the whole box; use Set when
// changing more than one dimension.
func (b *Box) SetWidth(width float64) error {
	return b.Set(width, b.height, b.depth)
}

func (b *Box) SetHeight(height float64) error {
	return b.Set(b.width, height, b.depth)
}

func (b *Box) SetDepth(depth float64) error {
	return b.Set(b.width, b.height, depth)
}

// Rebuild recomputes the vertex buffer from the current dimensions and
// position, discarding any previous vertices.
func (b *Box) Rebuild() error {
	if err := validateBox(b.width, b.height, b.depth); err != nil {
		return err
	}
	b.build()
	return nil
}

func validateBox(width, height, depth float64) error {
	if err := checkDimension("width", width); err != nil {
		return err
	}
	if err := checkDimension("height", height); err != nil {
		return err
	}
	return checkDimension("depth", depth)
}

// build emits the faces bottom, +x, top, +z, -x, -z. Corners v1..v4 are the
// bottom ring and v5..v8 the top ring.
func (b *Box) build() {
	p := b.position
	hw, hh, hd := b.width/2, b.height/2, b.depth/2

	v1 := mesh.Vec3{X: p.X - hw, Y: p.Y - hh, Z: p.Z - hd}
	v2 := mesh.Vec3{X: p.X + hw, Y: p.Y - hh, Z: p.Z - hd}
	v3 := mesh.Vec3{X: p.X + hw, Y: p.Y - hh, Z: p.Z + hd}
	v4 := mesh.Vec3{X: p.X - hw, Y: p.Y - hh, Z: p.Z + hd}

	v5 := mesh.Vec3{X: p.X - hw, Y: p.Y + hh, Z: p.Z + hd}
	v6 := mesh.Vec3{X: p.X - hw, Y: p.Y + hh, Z: p.Z - hd}
	v7 := mesh.Vec3{X: p.X + hw, Y: p.Y + hh, Z: p.Z - hd}
	v8 := mesh.Vec3{X: p.X + hw, Y: p.Y + hh, Z: p.Z + hd}

	b.buf.Clear()
	b.addFace(v1, v2, v3, v4)
	b.addFace(v2, v7, v8, v3)
	b.addFace(v8, v7, v6, v5)
	b.addFace(v8, v5, v4, v3)
	b.addFace(v5, v6, v1, v4)
	b.addFace(v6, v7, v2, v1)
}

// addFace splits quad (a, b, c, d) along the a-c diagonal.
func (b *Box) addFace(v1, v2, v3, v4 mesh.Vec3) {
	b.buf.Append(v1, v2, v3)
	b.buf.Append(v4, v1, v3)
}
