// Package solid builds triangle meshes for parametric solids and streams
// them to an STL exporter. Every primitive owns a flat vertex buffer in which
// each three consecutive vertices are one triangle, wound counter-clockwise
// when seen from outside the solid.
package solid

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/chazu/stlprim/pkg/mesh"
	"github.com/chazu/stlprim/pkg/stl"
)

var (
	// ErrInvalidParameter is returned by setters and Rebuild when a
	// dimension is not a positive finite number or a resolution is below 3.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrMalformedBuffer is returned by ExportTriangles when the vertex
	// count is not a multiple of three.
	ErrMalformedBuffer = errors.New("vertices must be divisible by 3")
)

// Kind enumerates the closed set of primitive shapes.
type Kind int

const (
	KindBox      Kind = iota // axis-aligned box
	KindCylinder             // capped cylinder along x
	KindModel                // imported triangle soup
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindCylinder:
		return "cylinder"
	case KindModel:
		return "model"
	default:
		return "unknown"
	}
}

// TriangleSink receives exported triangles. *stl.Exporter implements it.
type TriangleSink interface {
	AddTriangle(a, b, c, normal mesh.Vec3)
}

// Renderer draws a triangle list. Implementations live with the host
// application; the primitives only hand over vertices and a mode.
type Renderer interface {
	Draw(vertices []mesh.Vec3, mode mesh.Mode)
}

// Primitive is implemented by *Box, *Cylinder and *Model.
type Primitive interface {
	Kind() Kind
	Position() mesh.Vec3
	Vertices() []mesh.Vec3
	VertexCount() int
	Bounds() (min, max mesh.Vec3)
	Reposition(x, y, z float64)
	ExportTriangles(sink TriangleSink) error
	Draw(r Renderer)
	DrawWireframe(r Renderer)
	Save(path string, ascii bool) error
}

// Rebuilder is a primitive whose geometry is computed from parameters.
type Rebuilder interface {
	Primitive
	Rebuild() error
}

// Compile-time interface checks.
var (
	_ Rebuilder    = (*Box)(nil)
	_ Rebuilder    = (*Cylinder)(nil)
	_ Primitive    = (*Model)(nil)
	_ TriangleSink = (*stl.Exporter)(nil)
	_ fmt.Stringer = Kind(0)
)

// Solid is the state shared by every primitive: a position and the vertex
// buffer it exclusively owns.
type Solid struct {
	position mesh.Vec3
	buf      mesh.VertexBuffer
}

// Position returns the stored position.
func (s *Solid) Position() mesh.Vec3 {
	return s.position
}

// Vertices returns a copy of the vertex buffer in triangle order.
func (s *Solid) Vertices() []mesh.Vec3 {
	return s.buf.Vertices()
}

// VertexCount returns the number of vertices in the buffer.
func (s *Solid) VertexCount() int {
	return s.buf.Len()
}

// Bounds returns the bounding box of the current geometry.
func (s *Solid) Bounds() (min, max mesh.Vec3) {
	return s.buf.Bounds()
}

// Reposition moves the solid to (x, y, z) by translating every existing
// vertex by the difference from the stored position. Geometry is not
// recomputed. On an empty buffer only the position changes.
func (s *Solid) Reposition(x, y, z float64) {
	next := mesh.Vec3{X: x, Y: y, Z: z}
	s.buf.Translate(next.Sub(s.position))
	s.position = next
}

// ExportTriangles sends every triangle to sink in buffer order with a zero
// normal. A buffer whose length is not a multiple of three is rejected
// before anything is sent.
func (s *Solid) ExportTriangles(sink TriangleSink) error {
	n := s.buf.Len()
	if !s.buf.IsTriangleList() {
		log.Printf("solid: export aborted: %d vertices not divisible by 3", n)
		return fmt.Errorf("solid: export: %w (got %d)", ErrMalformedBuffer, n)
	}

	var zero mesh.Vec3
	for i := 0; i < n; i += 3 {
		sink.AddTriangle(s.buf.At(i), s.buf.At(i+1), s.buf.At(i+2), zero)
	}
	return nil
}

// Draw renders the solid filled.
func (s *Solid) Draw(r Renderer) {
	r.Draw(s.buf.Vertices(), mesh.ModeFill)
}

// DrawWireframe renders the triangle edges only.
func (s *Solid) DrawWireframe(r Renderer) {
	r.Draw(s.buf.Vertices(), mesh.ModeWireframe)
}

// Save writes the solid as a single STL model named stl.DefaultModelName.
// Nothing is written if the buffer fails export validation.
func (s *Solid) Save(path string, ascii bool) error {
	exp := stl.NewExporter()
	exp.BeginModel(stl.DefaultModelName)
	if err := s.ExportTriangles(exp); err != nil {
		return err
	}
	exp.UseASCIIFormat(ascii)
	return exp.SaveModel(path)
}

// checkDimension validates a length-like parameter.
func checkDimension(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s must be a positive finite number, got %v", ErrInvalidParameter, name, v)
	}
	return nil
}
