package surface_test

import (
	"errors"
	"testing"

	"github.com/chazu/stlprim/pkg/mesh"
	"github.com/chazu/stlprim/pkg/solid"
	"github.com/chazu/stlprim/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestBoxOnReferenceSurface(t *testing.T) {
	b := solid.NewBox()
	if err := b.Set(600, 300, 18); err != nil {
		t.Fatal(err)
	}
	b.Reposition(10, 20, 30)

	if err := surface.Verify(b, 0); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestCylinderOnReferenceSurface(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		length float64
		res    int
	}{
		{"coarse", 1, 10, 4},
		{"default", solid.DefaultCylinderRadius, solid.DefaultCylinderLength, solid.DefaultCylinderResolution},
		{"fine", 0.5, 3, 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := solid.NewCylinder()
			if err := c.Set(tt.radius, tt.length, tt.res); err != nil {
				t.Fatal(err)
			}
			c.Reposition(-5, 2, 7)
			if err := surface.Verify(c, 0); err != nil {
				t.Errorf("Verify() error = %v", err)
			}
		})
	}
}

func TestReferenceOrientation(t *testing.T) {
	c := solid.NewCylinder()
	if err := c.Set(1, 10, 8); err != nil {
		t.Fatal(err)
	}
	ref, err := surface.Reference(c)
	if err != nil {
		t.Fatal(err)
	}
	// A point on the x axis inside the cylinder, and one past the +x cap.
	if d := ref.Evaluate(v3.Vec{X: 4}); d >= 0 {
		t.Errorf("Evaluate(4,0,0) = %v, want inside (negative)", d)
	}
	if d := ref.Evaluate(v3.Vec{X: 6}); d <= 0 {
		t.Errorf("Evaluate(6,0,0) = %v, want outside (positive)", d)
	}
}

func TestMaxDeviationScalesWithSize(t *testing.T) {
	for _, size := range []float64{0.001, 1, 1000} {
		b := solid.NewBox()
		if err := b.SetSize(size); err != nil {
			t.Fatal(err)
		}
		dev, err := surface.MaxDeviation(b)
		if err != nil {
			t.Fatal(err)
		}
		if dev > 1e-9*size {
			t.Errorf("size %v: MaxDeviation() = %v, want ~0", size, dev)
		}
	}
}

func TestModelHasNoReference(t *testing.T) {
	m := solid.NewModel([]mesh.Facet{{Vert2: mesh.Vec3{X: 1}, Vert3: mesh.Vec3{Y: 1}}})
	_, err := surface.Reference(m)
	if !errors.Is(err, surface.ErrNoReference) {
		t.Errorf("Reference() error = %v, want ErrNoReference", err)
	}
	if err := surface.Verify(m, 0); !errors.Is(err, surface.ErrNoReference) {
		t.Errorf("Verify() error = %v, want ErrNoReference", err)
	}
}
