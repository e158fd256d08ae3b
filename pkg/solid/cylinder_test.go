package solid

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/stlprim/pkg/mesh"
)

func TestNewCylinderDefaults(t *testing.T) {
	c := NewCylinder()
	if c.Resolution() != DefaultCylinderResolution {
		t.Errorf("Resolution() = %d, want %d", c.Resolution(), DefaultCylinderResolution)
	}
	if c.Radius() != DefaultCylinderRadius || c.Length() != DefaultCylinderLength {
		t.Errorf("radius/length = %v/%v, want %v/%v", c.Radius(), c.Length(),
			DefaultCylinderRadius, DefaultCylinderLength)
	}
	if c.VertexCount() != VertexCountFor(DefaultCylinderResolution) {
		t.Errorf("VertexCount() = %d, want %d", c.VertexCount(), VertexCountFor(DefaultCylinderResolution))
	}
	if c.Kind() != KindCylinder {
		t.Errorf("Kind() = %s, want cylinder", c.Kind())
	}
}

func TestCylinderGeometry(t *testing.T) {
	tests := []struct {
		name       string
		radius     float64
		length     float64
		resolution int
		pos        mesh.Vec3
	}{
		{"triangle rim", 1, 1, 3, mesh.Vec3{}},
		{"square rim", 1, 10, 4, mesh.Vec3{}},
		{"dowel", 6, 200, 40, mesh.Vec3{}},
		{"offset", 2.5, 7, 17, mesh.Vec3{X: -3, Y: 4, Z: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCylinder()
			c.Reposition(tt.pos.X, tt.pos.Y, tt.pos.Z)
			if err := c.Set(tt.radius, tt.length, tt.resolution); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			verts := c.Vertices()
			if len(verts) != 12*tt.resolution {
				t.Fatalf("vertex count = %d, want %d", len(verts), 12*tt.resolution)
			}

			xA := tt.pos.X - tt.length/2
			xB := tt.pos.X + tt.length/2
			for i, v := range verts {
				if !near(v.X, xA) && !near(v.X, xB) {
					t.Errorf("vertex %d x = %v, not on a cap plane", i, v.X)
				}
				r := math.Hypot(v.Y-tt.pos.Y, v.Z-tt.pos.Z)
				if !near(r, 0) && !near(r, tt.radius) {
					t.Errorf("vertex %d at distance %v from axis, want 0 or %v", i, r, tt.radius)
				}
			}
			assertOutward(t, verts, tt.pos)
		})
	}
}

func TestCylinderEmissionOrder(t *testing.T) {
	c := NewCylinder()
	if err := c.Set(1, 10, 4); err != nil {
		t.Fatal(err)
	}
	verts := c.Vertices()
	n := 4

	// Caps first: every cap triangle starts at its center.
	for i := 0; i < n; i++ {
		if v := verts[3*i]; v != (mesh.Vec3{X: -5}) {
			t.Errorf("cap A triangle %d starts at %v, want center {-5 0 0}", i, v)
		}
		if v := verts[3*(n+i)]; v != (mesh.Vec3{X: 5}) {
			t.Errorf("cap B triangle %d starts at %v, want center {5 0 0}", i, v)
		}
	}

	// Rim vertex 0 sits at theta = 0: y = 0, z = radius.
	rim0 := mesh.Vec3{X: -5, Y: 0, Z: 1}
	if v := verts[2]; !nearVec(v, rim0) {
		t.Errorf("first cap A triangle ends at %v, want %v", v, rim0)
	}

	// Side quads: (prevA, prevB, curA) then (prevB, curB, curA).
	side := verts[6*n:]
	for i := 0; i < n; i++ {
		q := side[6*i : 6*i+6]
		if q[0].X != -5 || q[1].X != 5 || q[2].X != -5 {
			t.Errorf("side quad %d first triangle x = %v %v %v, want -5 5 -5", i, q[0].X, q[1].X, q[2].X)
		}
		if q[3] != q[1] || q[5] != q[2] || q[4].X != 5 {
			t.Errorf("side quad %d second triangle not (prevB, curB, curA)", i)
		}
	}
}

func TestCylinderEndToEnd(t *testing.T) {
	c := NewCylinder()
	if err := c.Set(1, 10, 4); err != nil {
		t.Fatal(err)
	}
	var sink recordingSink
	if err := c.ExportTriangles(&sink); err != nil {
		t.Fatalf("ExportTriangles() error = %v", err)
	}
	if got := 3 * len(sink.tris); got != 48 {
		t.Errorf("exported %d vertices, want 48", got)
	}
	if len(sink.tris) != 16 {
		t.Errorf("exported %d triangles, want 16", len(sink.tris))
	}
	for i, tri := range sink.tris {
		for j, v := range tri {
			r := math.Hypot(v.Y, v.Z)
			if !near(r, 0) && !near(r, 1) {
				t.Errorf("triangle %d vertex %d off rim: r = %v", i, j, r)
			}
		}
	}
}

func TestCylinderSetters(t *testing.T) {
	c := NewCylinder()
	if err := c.SetResolution(8); err != nil {
		t.Fatal(err)
	}
	if c.VertexCount() != 96 {
		t.Errorf("VertexCount() = %d after SetResolution(8), want 96", c.VertexCount())
	}
	if err := c.SetDimensions(3, 20); err != nil {
		t.Fatal(err)
	}
	if err := c.SetRadius(4); err != nil {
		t.Fatal(err)
	}
	if err := c.SetLength(30); err != nil {
		t.Fatal(err)
	}

	min, max := c.Bounds()
	if !near(min.X, -15) || !near(max.X, 15) {
		t.Errorf("x extent = [%v, %v], want [-15, 15]", min.X, max.X)
	}
	if !near(max.Z, 4) {
		t.Errorf("max z = %v, want radius 4", max.Z)
	}
}

func TestCylinderRebuildIdempotent(t *testing.T) {
	c := NewCylinder()
	first := c.Vertices()
	if err := c.Rebuild(); err != nil {
		t.Fatal(err)
	}
	second := c.Vertices()
	if len(first) != len(second) {
		t.Fatalf("vertex count changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("vertex %d differs after rebuild", i)
		}
	}
}

func TestCylinderRebuildAfterReposition(t *testing.T) {
	c := NewCylinder()
	c.Reposition(1, 2, 3)
	moved := c.Vertices()
	if err := c.Rebuild(); err != nil {
		t.Fatal(err)
	}
	rebuilt := c.Vertices()
	for i := range moved {
		if !nearVec(moved[i], rebuilt[i]) {
			t.Fatalf("vertex %d: moved %v, rebuilt %v", i, moved[i], rebuilt[i])
		}
	}
}

func TestCylinderInvalidParameters(t *testing.T) {
	tests := []struct {
		name       string
		radius     float64
		length     float64
		resolution int
	}{
		{"resolution zero", 1, 1, 0},
		{"resolution two", 1, 1, 2},
		{"resolution negative", 1, 1, -5},
		{"zero radius", 0, 1, 8},
		{"negative length", 1, -1, 8},
		{"NaN radius", math.NaN(), 1, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCylinder()
			before := c.Vertices()
			err := c.Set(tt.radius, tt.length, tt.resolution)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("Set() error = %v, want ErrInvalidParameter", err)
			}
			if c.Resolution() != DefaultCylinderResolution {
				t.Errorf("resolution changed to %d", c.Resolution())
			}
			after := c.Vertices()
			if len(after) != len(before) {
				t.Fatalf("geometry changed: %d -> %d vertices", len(before), len(after))
			}
		})
	}
}

func TestVertexCountFor(t *testing.T) {
	for _, n := range []int{3, 4, 40, 256} {
		if got := VertexCountFor(n); got != 12*n {
			t.Errorf("VertexCountFor(%d) = %d, want %d", n, got, 12*n)
		}
	}
}
