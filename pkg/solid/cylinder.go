package solid

import (
	"fmt"
	"math"

	"github.com/chazu/stlprim/pkg/mesh"
)

// Cylinder defaults.
const (
	DefaultCylinderResolution = 40
	DefaultCylinderRadius     = 6
	DefaultCylinderLength     = 200

	// MinCylinderResolution is the smallest rim that still encloses a volume.
	MinCylinderResolution = 3
)

// Cylinder is a capped cylinder whose axis runs along x through its
// position. The rim of each cap is a regular polygon with resolution
// vertices.
type Cylinder struct {
	Solid
	resolution int
	radius     float64
	length     float64
}

// NewCylinder returns a cylinder with the default radius, length and
// resolution at the origin.
func NewCylinder() *Cylinder {
	c := &Cylinder{
		resolution: DefaultCylinderResolution,
		radius:     DefaultCylinderRadius,
		length:     DefaultCylinderLength,
	}
	c.build()
	return c
}

// Kind returns KindCylinder.
func (c *Cylinder) Kind() Kind { return KindCylinder }

// Resolution returns the number of vertices on each cap rim.
func (c *Cylinder) Resolution() int { return c.resolution }

// Radius returns the rim radius.
func (c *Cylinder) Radius() float64 { return c.radius }

// Length returns the full length along x.
func (c *Cylinder) Length() float64 { return c.length }

// VertexCountFor returns the number of vertices a cylinder with the given
// resolution emits: a fan of n triangles per cap plus 2n side triangles.
func VertexCountFor(resolution int) int {
	return 12 * resolution
}

// Set changes every parameter and rebuilds once. On error the cylinder keeps
// its previous parameters and geometry.
func (c *Cylinder) Set(radius, length float64, resolution int) error {
	if err := validateCylinder(radius, length, resolution); err != nil {
		return err
	}
	c.radius, c.length, c.resolution = radius, length, resolution
	c.build()
	return nil
}

// The single-purpose setters below each trigger a full rebuild; prefer Set
// or SetDimensions when changing several values.

// SetResolution changes the rim vertex count.
func (c *Cylinder) SetResolution(resolution int) error {
	return c.Set(c.radius, c.length, resolution)
}

// SetDimensions changes radius and length together.
func (c *Cylinder) SetDimensions(radius, length float64) error {
	return c.Set(radius, length, c.resolution)
}

// SetRadius changes the rim radius.
func (c *Cylinder) SetRadius(radius float64) error {
	return c.Set(radius, c.length, c.resolution)
}

// SetLength changes the length along x.
func (c *Cylinder) SetLength(length float64) error {
	return c.Set(c.radius, length, c.resolution)
}

// Rebuild recomputes the vertex buffer from the current parameters and
// position, discarding any previous vertices.
func (c *Cylinder) Rebuild() error {
	if err := validateCylinder(c.radius, c.length, c.resolution); err != nil {
		return err
	}
	c.build()
	return nil
}

func validateCylinder(radius, length float64, resolution int) error {
	if resolution < MinCylinderResolution {
		return fmt.Errorf("%w: resolution must be at least %d, got %d",
			ErrInvalidParameter, MinCylinderResolution, resolution)
	}
	if err := checkDimension("radius", radius); err != nil {
		return err
	}
	return checkDimension("length", length)
}

// build lays out cap A (at -x), cap B (at +x) and then the side wall. Both
// rims must be complete before any triangle is emitted.
func (c *Cylinder) build() {
	p := c.position
	xA := p.X - c.length/2
	xB := p.X + c.length/2

	rimA := c.rim(xA)
	rimB := c.rim(xB)

	c.buf.Clear()
	c.addCap(rimA, mesh.Vec3{X: xA, Y: p.Y, Z: p.Z}, true)
	c.addCap(rimB, mesh.Vec3{X: xB, Y: p.Y, Z: p.Z}, false)
	c.addSides(rimA, rimB)
}

// rim places resolution points on the circle of the cap at x.
func (c *Cylinder) rim(x float64) []mesh.Vec3 {
	p := c.position
	step := 2 * math.Pi / float64(c.resolution)
	out := make([]mesh.Vec3, c.resolution)
	for i := range out {
		theta := step * float64(i)
		out[i] = mesh.Vec3{
			X: x,
			Y: p.Y + c.radius*math.Sin(theta),
			Z: p.Z + c.radius*math.Cos(theta),
		}
	}
	return out
}

// addCap fans the rim from center. With towardMinusX each triangle is
// (center, prev, cur), which faces -x because the rim turns from +z to +y;
// otherwise (center, cur, prev), which faces +x.
func (c *Cylinder) addCap(rim []mesh.Vec3, center mesh.Vec3, towardMinusX bool) {
	n := len(rim)
	for i := 0; i < n; i++ {
		prev := rim[(i+n-1)%n]
		cur := rim[i]
		if towardMinusX {
			c.buf.Append(center, prev, cur)
		} else {
			c.buf.Append(center, cur, prev)
		}
	}
}

// addSides joins matching segments of the two rims with two triangles each.
func (c *Cylinder) addSides(rimA, rimB []mesh.Vec3) {
	n := len(rimA)
	for i := 0; i < n; i++ {
		prevA, curA := rimA[(i+n-1)%n], rimA[i]
		prevB, curB := rimB[(i+n-1)%n], rimB[i]

		c.buf.Append(prevA, prevB, curA)
		c.buf.Append(prevB, curB, curA)
	}
}
