// Package scene groups named primitives into one model that can be drawn
// or exported as a single STL file.
package scene

import (
	"errors"
	"fmt"

	"github.com/chazu/stlprim/pkg/mesh"
	"github.com/chazu/stlprim/pkg/solid"
	"github.com/chazu/stlprim/pkg/stl"
)

var (
	// ErrDuplicatePart is returned by Add when the name is already taken.
	ErrDuplicatePart = errors.New("scene: duplicate part name")
	// ErrUnknownPart is returned by lookups of names never added.
	ErrUnknownPart = errors.New("scene: unknown part")
)

// Part is a named primitive.
type Part struct {
	Name      string          `json:"name"`
	Primitive solid.Primitive `json:"-"`
}

// Scene is an ordered set of uniquely named parts. Export and draw order is
// insertion order.
type Scene struct {
	parts []*Part
	index map[string]int
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{index: make(map[string]int)}
}

// Add appends a part.
func (s *Scene) Add(name string, p solid.Primitive) (*Part, error) {
	if name == "" {
		return nil, fmt.Errorf("scene: part name must not be empty")
	}
	if p == nil {
		return nil, fmt.Errorf("scene: part %q has no primitive", name)
	}
	if _, ok := s.index[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicatePart, name)
	}
	part := &Part{Name: name, Primitive: p}
	s.index[name] = len(s.parts)
	s.parts = append(s.parts, part)
	return part, nil
}

// Lookup returns the part with the given name, or nil.
func (s *Scene) Lookup(name string) *Part {
	i, ok := s.index[name]
	if !ok {
		return nil
	}
	return s.parts[i]
}

// Get is Lookup with an error for missing names.
func (s *Scene) Get(name string) (*Part, error) {
	if p := s.Lookup(name); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPart, name)
}

// Parts returns the parts in insertion order.
func (s *Scene) Parts() []*Part {
	out := make([]*Part, len(s.parts))
	copy(out, s.parts)
	return out
}

// Len returns the number of parts.
func (s *Scene) Len() int {
	return len(s.parts)
}

// TriangleCount returns the total number of triangles over all parts.
func (s *Scene) TriangleCount() int {
	n := 0
	for _, p := range s.parts {
		n += p.Primitive.VertexCount() / 3
	}
	return n
}

// Export streams every part's triangles to sink in part order. Parts are
// validated before anything is sent, so a malformed part leaves the sink
// untouched.
func (s *Scene) Export(sink solid.TriangleSink) error {
	for _, p := range s.parts {
		if p.Primitive.VertexCount()%3 != 0 {
			return fmt.Errorf("scene: part %q: %w", p.Name, solid.ErrMalformedBuffer)
		}
	}
	for _, p := range s.parts {
		if err := p.Primitive.ExportTriangles(sink); err != nil {
			return fmt.Errorf("scene: part %q: %w", p.Name, err)
		}
	}
	return nil
}

// Save writes all parts into one STL model.
func (s *Scene) Save(path, modelName string, ascii bool) error {
	if modelName == "" {
		modelName = stl.DefaultModelName
	}
	exp := stl.NewExporter()
	exp.BeginModel(modelName)
	if err := s.Export(exp); err != nil {
		return err
	}
	exp.UseASCIIFormat(ascii)
	return exp.SaveModel(path)
}

// Draw renders every part with the given mode.
func (s *Scene) Draw(r solid.Renderer, mode mesh.Mode) {
	for _, p := range s.parts {
		if mode == mesh.ModeWireframe {
			p.Primitive.DrawWireframe(r)
		} else {
			p.Primitive.Draw(r)
		}
	}
}
