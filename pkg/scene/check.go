package scene

import (
	"fmt"

	"github.com/chazu/stlprim/pkg/mesh"
)

// Warning is an advisory finding about a scene. Warnings never block export.
type Warning struct {
	Part    string `json:"part"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("part %q: %s", w.Part, w.Message)
}

// Check reports parts without geometry and pairs of parts whose bounding
// boxes overlap. Overlapping solids written into one STL model make the
// result non-manifold for most slicers.
func (s *Scene) Check() []Warning {
	var warnings []Warning
	warnings = append(warnings, s.checkEmpty()...)
	warnings = append(warnings, s.checkOverlap()...)
	return warnings
}

func (s *Scene) checkEmpty() []Warning {
	var warnings []Warning
	for _, p := range s.parts {
		if p.Primitive.VertexCount() == 0 {
			warnings = append(warnings, Warning{Part: p.Name, Message: "no geometry"})
		}
	}
	return warnings
}

// checkOverlap compares bounding boxes pairwise. Boxes that only touch do
// not count.
func (s *Scene) checkOverlap() []Warning {
	type bounds struct{ min, max mesh.Vec3 }

	boxes := make([]bounds, len(s.parts))
	for i, p := range s.parts {
		boxes[i].min, boxes[i].max = p.Primitive.Bounds()
	}

	var warnings []Warning
	for i := range s.parts {
		if s.parts[i].Primitive.VertexCount() == 0 {
			continue
		}
		for j := i + 1; j < len(s.parts); j++ {
			if s.parts[j].Primitive.VertexCount() == 0 {
				continue
			}
			if overlaps(boxes[i].min, boxes[i].max, boxes[j].min, boxes[j].max) {
				warnings = append(warnings, Warning{
					Part:    s.parts[j].Name,
					Message: fmt.Sprintf("bounding box overlaps part %q", s.parts[i].Name),
				})
			}
		}
	}
	return warnings
}

func overlaps(aMin, aMax, bMin, bMax mesh.Vec3) bool {
	return aMin.X < bMax.X && bMin.X < aMax.X &&
		aMin.Y < bMax.Y && bMin.Y < aMax.Y &&
		aMin.Z < bMax.Z && bMin.Z < aMax.Z
}
