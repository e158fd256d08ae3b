package engine

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/chazu/stlprim/pkg/mesh"
	"github.com/chazu/stlprim/pkg/scene"
	"github.com/chazu/stlprim/pkg/solid"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpShape wraps a primitive built by box, cylinder or model. A shape can
// be given to defpart only once.
type sexpShape struct {
	prim solid.Primitive
	used bool
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	switch p := s.prim.(type) {
	case *solid.Box:
		return fmt.Sprintf("(box %gx%gx%g)", p.Width(), p.Height(), p.Depth())
	case *solid.Cylinder:
		return fmt.Sprintf("(cylinder r=%g l=%g n=%d)", p.Radius(), p.Length(), p.Resolution())
	}
	return fmt.Sprintf("(%s %d triangles)", s.prim.Kind(), s.prim.VertexCount()/3)
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

// sexpPartRef names a part already added to the scene.
type sexpPartRef struct {
	name string
}

func (r *sexpPartRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(part %q)", r.name)
}
func (r *sexpPartRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a mesh.Vec3.
type sexpVec3 struct {
	vec mesh.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string and returns the
// keyword name without its prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// checkKeywords rejects keywords a builtin does not understand, so a typo
// such as :widht is reported instead of silently ignored.
func checkKeywords(fn string, pa kwArgs, allowed ...string) error {
	for k := range pa.kw {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: unknown keyword :%s", fn, k)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer. Floats are accepted when they hold a whole
// number.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) && !math.IsInf(v.Val, 0) {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected integer, got %g", v.Val)
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (mesh.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return mesh.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// floatKW reads an optional numeric keyword, returning def when absent.
func floatKW(fn string, pa kwArgs, key string, def float64) (float64, error) {
	v, ok := pa.kw[key]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene DSL into a zygomys environment. Parts
// defined during evaluation are added to sc.
//
// Source code must be preprocessed with preprocessSource() before evaluation
// so that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, sc *scene.Scene, opts options) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: mesh.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (box :width 600 :height 300 :depth 18) or (box :size 10)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := checkKeywords("box", pa, "width", "height", "depth", "size"); err != nil {
			return zygo.SexpNull, err
		}

		b := solid.NewBox()
		if _, ok := pa.kw["size"]; ok {
			if len(pa.kw) > 1 {
				return zygo.SexpNull, fmt.Errorf("box: :size cannot be combined with other dimensions")
			}
			size, err := floatKW("box", pa, "size", 0)
			if err != nil {
				return zygo.SexpNull, err
			}
			if err := b.SetSize(size); err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %w", err)
			}
			return &sexpShape{prim: b}, nil
		}

		w, err := floatKW("box", pa, "width", b.Width())
		if err != nil {
			return zygo.SexpNull, err
		}
		h, err := floatKW("box", pa, "height", b.Height())
		if err != nil {
			return zygo.SexpNull, err
		}
		d, err := floatKW("box", pa, "depth", b.Depth())
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := b.Set(w, h, d); err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &sexpShape{prim: b}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :radius 4 :length 50 :resolution 24)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := checkKeywords("cylinder", pa, "radius", "length", "resolution"); err != nil {
			return zygo.SexpNull, err
		}

		c := solid.NewCylinder()
		r, err := floatKW("cylinder", pa, "radius", c.Radius())
		if err != nil {
			return zygo.SexpNull, err
		}
		l, err := floatKW("cylinder", pa, "length", c.Length())
		if err != nil {
			return zygo.SexpNull, err
		}
		n := opts.cylinderResolution
		if v, ok := pa.kw["resolution"]; ok {
			if n, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: resolution: %w", err)
			}
		}
		if err := c.Set(r, l, n); err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		return &sexpShape{prim: c}, nil
	})

	// -----------------------------------------------------------------------
	// (model "bracket.stl")
	// -----------------------------------------------------------------------
	env.AddFunction("model", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("model requires exactly 1 argument, got %d", len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("model: path: %w", err)
		}
		if !filepath.IsAbs(path) && opts.modelDir != "" {
			path = filepath.Join(opts.modelDir, path)
		}
		m, err := solid.LoadModel(path)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("model: %w", err)
		}
		return &sexpShape{prim: m}, nil
	})

	// -----------------------------------------------------------------------
	// (defpart "name" (box ...) :at (vec3 0 0 19))
	// -----------------------------------------------------------------------
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := checkKeywords("defpart", pa, "at"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("defpart requires a name and a shape expression")
		}

		partName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
		}
		shape, ok := pa.positional[1].(*sexpShape)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("defpart: expected shape expression, got %T", pa.positional[1])
		}
		if shape.used {
			return zygo.SexpNull, fmt.Errorf("defpart: %q: shape %s already belongs to another part",
				partName, shape.SexpString(nil))
		}

		if v, ok := pa.kw["at"]; ok {
			at, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defpart: at: %w", err)
			}
			shape.prim.Reposition(at.X, at.Y, at.Z)
		}

		if _, err := sc.Add(partName, shape.prim); err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: %w", err)
		}
		shape.used = true
		return &sexpPartRef{name: partName}, nil
	})

	// -----------------------------------------------------------------------
	// (part "name")
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires a name argument")
		}
		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}
		if _, err := sc.Get(partName); err != nil {
			return zygo.SexpNull, fmt.Errorf("part: %w", err)
		}
		return &sexpPartRef{name: partName}, nil
	})

	// -----------------------------------------------------------------------
	// (place (part "dowel") :at (vec3 0 20 0))
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := checkKeywords("place", pa, "at"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a part reference as first argument")
		}
		ref, ok := pa.positional[0].(*sexpPartRef)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("place: expected part reference, got %T (%s)",
				pa.positional[0], pa.positional[0].SexpString(nil))
		}
		v, ok := pa.kw["at"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("place: missing :at")
		}
		at, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
		}

		part, err := sc.Get(ref.name)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}
		part.Primitive.Reposition(at.X, at.Y, at.Z)
		return ref, nil
	})
}
