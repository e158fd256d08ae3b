// Package surface checks faceted primitives against the exact solids they
// approximate, using signed distance functions from the
// github.com/deadsy/sdfx SDF-based CAD library. Every vertex a box or
// cylinder emits lies on the boundary of its exact solid, so the largest
// absolute distance over all vertices measures construction error.
package surface

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/stlprim/pkg/solid"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrNoReference is returned for primitives without an analytic surface,
// such as imported models.
var ErrNoReference = errors.New("surface: no reference solid")

// DefaultTolerance is the deviation Verify accepts when called with a
// non-positive tolerance.
const DefaultTolerance = 1e-6

// Reference returns the exact solid for p at its current position.
func Reference(p solid.Primitive) (sdf.SDF3, error) {
	pos := p.Position()
	m := sdf.Translate3d(v3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z})

	switch s := p.(type) {
	case *solid.Box:
		box, err := sdf.Box3D(v3.Vec{X: s.Width(), Y: s.Height(), Z: s.Depth()}, 0)
		if err != nil {
			return nil, fmt.Errorf("surface: box: %w", err)
		}
		return sdf.Transform3D(box, m), nil

	case *solid.Cylinder:
		cyl, err := sdf.Cylinder3D(s.Length(), s.Radius(), 0)
		if err != nil {
			return nil, fmt.Errorf("surface: cylinder: %w", err)
		}
		// sdfx cylinders run along z; ours run along x.
		return sdf.Transform3D(cyl, m.Mul(sdf.RotateY(math.Pi/2))), nil

	default:
		return nil, fmt.Errorf("%w for %s", ErrNoReference, p.Kind())
	}
}

// MaxDeviation returns the largest absolute signed distance from any vertex
// of p to its reference surface.
func MaxDeviation(p solid.Primitive) (float64, error) {
	ref, err := Reference(p)
	if err != nil {
		return 0, err
	}
	var worst float64
	for _, v := range p.Vertices() {
		d := math.Abs(ref.Evaluate(v3.Vec{X: v.X, Y: v.Y, Z: v.Z}))
		if d > worst {
			worst = d
		}
	}
	return worst, nil
}

// Verify fails when any vertex of p is further than tol from its reference
// surface. The tolerance scales with the size of the primitive.
func Verify(p solid.Primitive, tol float64) error {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	dev, err := MaxDeviation(p)
	if err != nil {
		return err
	}
	min, max := p.Bounds()
	scale := math.Max(1, max.Sub(min).Length())
	if dev > tol*scale {
		return fmt.Errorf("surface: %s deviates %g from its reference (tolerance %g)", p.Kind(), dev, tol*scale)
	}
	return nil
}
