package main

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/chazu/stlprim/pkg/config"
	"github.com/chazu/stlprim/pkg/stl"
)

// TestE2ERailExample exercises the full pipeline: Lisp source → engine →
// scene → draw → meshes. This is the same path that the Wails Evaluate
// binding takes, but without the Wails runtime.
func TestE2ERailExample(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/rail.lisp")
	if err != nil {
		t.Fatalf("failed to read rail.lisp: %v", err)
	}

	result := app.Evaluate(string(source))

	// No errors expected.
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}

	expectedTriangles := map[string]int{
		"end-left":  12,
		"end-right": 12,
		"rail-low":  96,
		"rail-mid":  96,
		"rail-high": 96,
		"hook":      12,
	}
	if len(result.Meshes) != len(expectedTriangles) {
		t.Fatalf("expected %d meshes, got %d", len(expectedTriangles), len(result.Meshes))
	}

	for _, m := range result.Meshes {
		want, ok := expectedTriangles[m.PartName]
		if !ok {
			t.Errorf("unexpected part name: %q", m.PartName)
			continue
		}
		delete(expectedTriangles, m.PartName)

		if len(m.Vertices) != want*9 {
			t.Errorf("part %q: %d vertex floats, want %d", m.PartName, len(m.Vertices), want*9)
		}
		if len(m.Normals) != len(m.Vertices) {
			t.Errorf("part %q: %d normal floats, want %d", m.PartName, len(m.Normals), len(m.Vertices))
		}
		if len(m.Indices) != want*3 {
			t.Errorf("part %q: %d indices, want %d", m.PartName, len(m.Indices), want*3)
		}
		if m.Color == "" {
			t.Errorf("part %q: no color assigned", m.PartName)
		}
		if m.Wireframe {
			t.Errorf("part %q: wireframe set in fill mode", m.PartName)
		}
	}

	for name := range expectedTriangles {
		t.Errorf("missing mesh for part %q", name)
	}

	// Rails only touch the end blocks.
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("(defpart \"test\"")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// TestE2ESingleBox ensures a minimal single-box source renders one mesh.
func TestE2ESingleBox(t *testing.T) {
	app := NewApp()
	source := `(defpart "shelf" (box :width 600 :height 18 :depth 300))`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if result.Meshes[0].PartName != "shelf" {
		t.Errorf("expected part name 'shelf', got %q", result.Meshes[0].PartName)
	}
}

// TestE2EBoxNormalsPointOutward checks the flat normals sent to the viewer.
func TestE2EBoxNormalsPointOutward(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(`(defpart "cube" (box :size 2))`)
	if len(result.Errors) > 0 {
		t.Fatalf("eval errors: %v", result.Errors)
	}

	m := result.Meshes[0]
	for i := 0; i < len(m.Vertices); i += 9 {
		// Centroid of the triangle, dotted with its normal, is positive for
		// an outward face of a cube centered at the origin.
		var dot float32
		for k := 0; k < 3; k++ {
			c := (m.Vertices[i+k] + m.Vertices[i+3+k] + m.Vertices[i+6+k]) / 3
			dot += c * m.Normals[i+k]
		}
		if dot <= 0 {
			t.Errorf("triangle %d: normal points inward", i/9)
		}
	}
}

func TestE2EWireframeToggle(t *testing.T) {
	app := NewApp()
	app.SetWireframe(true)
	result := app.Evaluate(`(defpart "a" (box)) (defpart "b" (cylinder :resolution 3))`)
	if len(result.Errors) > 0 {
		t.Fatalf("eval errors: %v", result.Errors)
	}
	for _, m := range result.Meshes {
		if !m.Wireframe {
			t.Errorf("part %q: expected wireframe", m.PartName)
		}
	}

	app.SetWireframe(false)
	result = app.Evaluate(`(defpart "a" (box))`)
	if result.Meshes[0].Wireframe {
		t.Error("expected fill after switching wireframe off")
	}
}

// TestE2EWireframeConcurrent toggles the mode while evaluations run, the
// way the frontend can. Run with -race to check the flag is guarded.
func TestE2EWireframeConcurrent(t *testing.T) {
	app := NewApp()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(on bool) {
			defer wg.Done()
			app.SetWireframe(on)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			app.Evaluate(`(defpart "a" (box))`)
		}()
	}
	wg.Wait()

	app.SetWireframe(true)
	result := app.Evaluate(`(defpart "a" (box))`)
	if len(result.Meshes) != 1 || !result.Meshes[0].Wireframe {
		t.Errorf("expected one wireframe mesh after toggling, got %+v", result.Meshes)
	}
}

func TestE2EExport(t *testing.T) {
	dir := t.TempDir()

	t.Run("binary", func(t *testing.T) {
		app := newApp(config.Default())
		path := filepath.Join(dir, "rail.stl")
		source, err := os.ReadFile("examples/rail.lisp")
		if err != nil {
			t.Fatal(err)
		}

		res, err := app.Export(string(source), path)
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if res.Triangles != 324 || res.ASCII {
			t.Errorf("Export() = %+v, want 324 binary triangles", res)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if want := int64(84 + 50*324); info.Size() != want {
			t.Errorf("file size = %d, want %d", info.Size(), want)
		}
	})

	t.Run("ascii with model name", func(t *testing.T) {
		cfg := config.Default()
		cfg.Output.ASCII = true
		cfg.Output.ModelName = "rack"
		app := newApp(cfg)
		path := filepath.Join(dir, "cube.stl")

		if _, err := app.Export(`(defpart "cube" (box :size 5))`, path); err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		im := stl.NewImporter()
		if err := im.Load(path); err != nil {
			t.Fatal(err)
		}
		if im.Name() != "rack" || len(im.Facets()) != 12 {
			t.Errorf("reloaded %q with %d facets, want rack with 12", im.Name(), len(im.Facets()))
		}
	})

	t.Run("eval error writes nothing", func(t *testing.T) {
		app := newApp(config.Default())
		path := filepath.Join(dir, "broken.stl")
		_, err := app.Export(`(defpart "x" (box :width -1))`, path)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "invalid parameter") {
			t.Errorf("error = %v, want invalid parameter", err)
		}
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Errorf("expected no file, stat error = %v", statErr)
		}
	})
}

func TestConfiguredCylinderResolution(t *testing.T) {
	cfg := config.Default()
	cfg.Cylinder.Resolution = 5
	app := newApp(cfg)

	result := app.Evaluate(`(defpart "rod" (cylinder))`)
	if len(result.Errors) > 0 {
		t.Fatalf("eval errors: %v", result.Errors)
	}
	if got := len(result.Meshes[0].Indices) / 3; got != 4*5 {
		t.Errorf("triangles = %d, want 20", got)
	}
}

func TestEvalErrorsMessage(t *testing.T) {
	tests := []struct {
		name string
		errs []EvalErrorData
		want string
	}{
		{"single with line", []EvalErrorData{{Line: 3, Message: "boom"}}, "line 3: boom"},
		{"single without line", []EvalErrorData{{Message: "boom"}}, "boom"},
		{"several", []EvalErrorData{{Message: "a"}, {Line: 2, Message: "b"}}, "2 errors; a; line 2: b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalErrorsMessage(tt.errs); got != tt.want {
				t.Errorf("evalErrorsMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
