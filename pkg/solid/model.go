package solid

import (
	"fmt"

	"github.com/chazu/stlprim/pkg/mesh"
	"github.com/chazu/stlprim/pkg/stl"
)

// Model is a solid whose triangles come from an existing STL file. Its
// geometry is fixed at construction.
type Model struct {
	Solid
}

// NewModel copies the vertices of each facet, in order, into a new model.
// Stored normals are ignored and windings are kept as given.
func NewModel(facets []mesh.Facet) *Model {
	m := &Model{}
	for _, f := range facets {
		m.buf.Append(f.Vert1, f.Vert2, f.Vert3)
	}
	return m
}

// LoadModel imports the STL file at path.
func LoadModel(path string) (*Model, error) {
	im := stl.NewImporter()
	if err := im.Load(path); err != nil {
		return nil, fmt.Errorf("solid: load model: %w", err)
	}
	return NewModel(im.Facets()), nil
}

// Kind returns KindModel.
func (m *Model) Kind() Kind { return KindModel }
