package solid

import (
	"path/filepath"
	"testing"

	"github.com/chazu/stlprim/pkg/mesh"
)

func TestNewModelCopiesFacetsInOrder(t *testing.T) {
	facets := []mesh.Facet{
		{
			Normal: mesh.Vec3{Z: 1},
			Vert1:  mesh.Vec3{X: 0},
			Vert2:  mesh.Vec3{X: 1},
			Vert3:  mesh.Vec3{Y: 1},
		},
		{
			// Inward-wound on purpose: the model keeps windings as given.
			Normal: mesh.Vec3{Z: 1},
			Vert1:  mesh.Vec3{X: 0},
			Vert2:  mesh.Vec3{Y: 1},
			Vert3:  mesh.Vec3{X: 1},
		},
	}
	m := NewModel(facets)
	if m.Kind() != KindModel {
		t.Errorf("Kind() = %s, want model", m.Kind())
	}

	verts := m.Vertices()
	if len(verts) != 6 {
		t.Fatalf("VertexCount() = %d, want 6", len(verts))
	}
	for i, f := range facets {
		want := [3]mesh.Vec3{f.Vert1, f.Vert2, f.Vert3}
		for j := range want {
			if verts[3*i+j] != want[j] {
				t.Errorf("facet %d vertex %d = %v, want %v", i, j, verts[3*i+j], want[j])
			}
		}
	}
}

func TestNewModelEmpty(t *testing.T) {
	m := NewModel(nil)
	if m.VertexCount() != 0 {
		t.Errorf("VertexCount() = %d, want 0", m.VertexCount())
	}
	var sink recordingSink
	if err := m.ExportTriangles(&sink); err != nil {
		t.Errorf("ExportTriangles() error = %v", err)
	}
}

func TestLoadModelRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cyl.stl")
	c := NewCylinder()
	if err := c.Set(1, 4, 6); err != nil {
		t.Fatal(err)
	}
	if err := c.Save(path, true); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	m, err := LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	want := c.Vertices()
	got := m.Vertices()
	if len(got) != len(want) {
		t.Fatalf("loaded %d vertices, want %d", len(got), len(want))
	}
	for i := range want {
		if !nearVec(got[i], want[i]) {
			t.Errorf("vertex %d = %v, want %v", i, got[i], want[i])
		}
	}

	m.Reposition(0, 0, 1)
	if m.Vertices()[0].Z != got[0].Z+1 {
		t.Errorf("model reposition did not translate vertices")
	}
}

func TestLoadModelMissing(t *testing.T) {
	if _, err := LoadModel(filepath.Join(t.TempDir(), "missing.stl")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
