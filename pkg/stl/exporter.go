// Package stl is the file-format side of the primitives: an exporter that
// collects triangles and writes them as ASCII or binary STL, and an importer
// that decodes either flavour back into facets.
//
// Binary output goes through github.com/deadsy/sdfx/render, which also
// supplies the on-disk record layouts used for binary decoding.
package stl

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/chazu/stlprim/pkg/mesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultModelName is the solid name used when a caller never calls
// BeginModel.
const DefaultModelName = "stlOutput"

// Exporter accumulates triangles for one model and saves them to disk.
// It is not safe for concurrent use.
type Exporter struct {
	name   string
	ascii  bool
	facets []mesh.Facet
}

// NewExporter returns an exporter for a binary model named DefaultModelName.
func NewExporter() *Exporter {
	return &Exporter{name: DefaultModelName}
}

// BeginModel starts a new model, discarding any triangles collected so far.
func (e *Exporter) BeginModel(name string) {
	e.name = name
	e.facets = e.facets[:0]
}

// AddTriangle appends one triangle. A zero normal is replaced by the
// right-hand winding normal of (a, b, c) when the model is written.
func (e *Exporter) AddTriangle(a, b, c, normal mesh.Vec3) {
	e.facets = append(e.facets, mesh.Facet{Normal: normal, Vert1: a, Vert2: b, Vert3: c})
}

// UseASCIIFormat selects ASCII (true) or binary (false) output for SaveModel.
func (e *Exporter) UseASCIIFormat(ascii bool) {
	e.ascii = ascii
}

// Name returns the current model name.
func (e *Exporter) Name() string {
	return e.name
}

// TriangleCount returns the number of triangles collected.
func (e *Exporter) TriangleCount() int {
	return len(e.facets)
}

// Facets returns a copy of the collected triangles in insertion order.
func (e *Exporter) Facets() []mesh.Facet {
	out := make([]mesh.Facet, len(e.facets))
	copy(out, e.facets)
	return out
}

// SaveModel writes the collected triangles to path in the selected format.
func (e *Exporter) SaveModel(path string) error {
	if !e.ascii {
		if err := render.SaveSTL(path, e.triangles()); err != nil {
			return fmt.Errorf("stl: save %s: %w", path, err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stl: save %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := e.WriteASCII(w); err != nil {
		f.Close()
		return fmt.Errorf("stl: save %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("stl: save %s: %w", path, err)
	}
	return f.Close()
}

// WriteASCII encodes the model as ASCII STL to w.
func (e *Exporter) WriteASCII(w io.Writer) error {
	enc := asciiEncoder{w: w}
	enc.printf("solid %s\n", e.name)
	for _, f := range e.facets {
		n := facetNormal(f)
		enc.printf("  facet normal %g %g %g\n", n.X, n.Y, n.Z)
		enc.printf("    outer loop\n")
		enc.printf("      vertex %g %g %g\n", f.Vert1.X, f.Vert1.Y, f.Vert1.Z)
		enc.printf("      vertex %g %g %g\n", f.Vert2.X, f.Vert2.Y, f.Vert2.Z)
		enc.printf("      vertex %g %g %g\n", f.Vert3.X, f.Vert3.Y, f.Vert3.Z)
		enc.printf("    endloop\n")
		enc.printf("  endfacet\n")
	}
	enc.printf("endsolid %s\n", e.name)
	return enc.err
}

// triangles converts the collected facets to the sdfx mesh representation.
func (e *Exporter) triangles() []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, len(e.facets))
	for _, f := range e.facets {
		out = append(out, &sdf.Triangle3{toV3(f.Vert1), toV3(f.Vert2), toV3(f.Vert3)})
	}
	return out
}

func toV3(v mesh.Vec3) v3.Vec {
	return v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// facetNormal returns the stored normal, or the unit winding normal when the
// stored one is zero. Degenerate triangles keep a zero normal.
func facetNormal(f mesh.Facet) mesh.Vec3 {
	if !f.Normal.IsZero() {
		return f.Normal
	}
	n := f.Vert2.Sub(f.Vert1).Cross(f.Vert3.Sub(f.Vert1))
	l := n.Length()
	if l == 0 {
		return mesh.Vec3{}
	}
	// Adding zero turns -0 into 0 so ASCII output never prints "-0".
	return mesh.Vec3{X: n.X/l + 0, Y: n.Y/l + 0, Z: n.Z/l + 0}
}

// asciiEncoder latches the first write error so callers can check once.
type asciiEncoder struct {
	w   io.Writer
	err error
}

func (enc *asciiEncoder) printf(format string, args ...interface{}) {
	if enc.err != nil {
		return
	}
	_, enc.err = fmt.Fprintf(enc.w, format, args...)
}
