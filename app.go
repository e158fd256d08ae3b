package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/chazu/stlprim/pkg/config"
	"github.com/chazu/stlprim/pkg/engine"
	"github.com/chazu/stlprim/pkg/mesh"
	"github.com/chazu/stlprim/pkg/scene"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx    context.Context
	engine *engine.Engine
	cfg    config.Config

	mu        sync.Mutex // guards wireframe
	wireframe bool
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
// Vertices form a triangle list; Indices are sequential.
type MeshData struct {
	Vertices  []float32 `json:"vertices"`
	Normals   []float32 `json:"normals"`
	Indices   []uint32  `json:"indices"`
	PartName  string    `json:"partName"`
	Color     string    `json:"color"`
	Wireframe bool      `json:"wireframe"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// ExportResult describes a written STL file.
type ExportResult struct {
	Path      string `json:"path"`
	Triangles int    `json:"triangles"`
	ASCII     bool   `json:"ascii"`
}

// NewApp creates an App using settings from config.DefaultPath when present.
func NewApp() *App {
	cfg, err := config.Load("")
	if err != nil {
		log.Printf("config: %v; using defaults", err)
		cfg = config.Default()
	}
	return newApp(cfg)
}

func newApp(cfg config.Config) *App {
	return &App{
		engine: engine.NewEngine(engine.WithCylinderResolution(cfg.Cylinder.Resolution)),
		cfg:    cfg,
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// SetWireframe switches subsequent Evaluate calls between filled and
// wireframe output.
func (a *App) SetWireframe(on bool) {
	a.mu.Lock()
	a.wireframe = on
	a.mu.Unlock()
}

func (a *App) drawMode() mesh.Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.wireframe {
		return mesh.ModeWireframe
	}
	return mesh.ModeFill
}

// frameRenderer collects one draw call per part into frontend meshes.
type frameRenderer struct {
	meshes []MeshData
}

func (r *frameRenderer) Draw(vertices []mesh.Vec3, mode mesh.Mode) {
	var buf mesh.VertexBuffer
	buf.Append(vertices...)

	m := MeshData{
		Vertices:  buf.Flatten(),
		Normals:   make([]float32, 0, len(vertices)*3),
		Indices:   make([]uint32, len(vertices)),
		Wireframe: mode == mesh.ModeWireframe,
	}
	for i := range m.Indices {
		m.Indices[i] = uint32(i)
	}
	for i := 0; i+2 < len(vertices); i += 3 {
		n := faceNormal(vertices[i], vertices[i+1], vertices[i+2])
		for k := 0; k < 3; k++ {
			m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		}
	}
	r.meshes = append(r.meshes, m)
}

// faceNormal returns the unit normal of a counter-clockwise triangle, or
// zero for a degenerate one.
func faceNormal(a, b, c mesh.Vec3) mesh.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Length()
	if l == 0 {
		return mesh.Vec3{}
	}
	return mesh.Vec3{X: n.X / l, Y: n.Y / l, Z: n.Z / l}
}

// Evaluate takes Lisp source and returns mesh data + errors.
// This is the primary binding called by the frontend editor.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	sc, errs := a.evaluate(source)
	if len(errs) > 0 {
		result.Errors = errs
		return result
	}

	var r frameRenderer
	sc.Draw(&r, a.drawMode())

	for i, p := range sc.Parts() {
		m := r.meshes[i]
		m.PartName = p.Name
		m.Color = colorPalette[i%len(colorPalette)]
		result.Meshes = append(result.Meshes, m)
	}
	for _, w := range sc.Check() {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.String()})
	}
	return result
}

// Export evaluates source and writes every part into one STL file at path,
// using the configured model name and format.
func (a *App) Export(source, path string) (ExportResult, error) {
	sc, errs := a.evaluate(source)
	if len(errs) > 0 {
		return ExportResult{}, fmt.Errorf("export: %s", evalErrorsMessage(errs))
	}
	if err := sc.Save(path, a.cfg.Output.ModelName, a.cfg.Output.ASCII); err != nil {
		log.Printf("Export error: %v", err)
		return ExportResult{}, err
	}
	return ExportResult{Path: path, Triangles: sc.TriangleCount(), ASCII: a.cfg.Output.ASCII}, nil
}

// ExportDialog asks the user for a destination and exports there. An empty
// result with no error means the dialog was cancelled.
func (a *App) ExportDialog(source string) (ExportResult, error) {
	path, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Export STL",
		DefaultFilename: a.cfg.Output.ModelName + ".stl",
		Filters: []runtime.FileFilter{
			{DisplayName: "STL files (*.stl)", Pattern: "*.stl"},
		},
	})
	if err != nil {
		return ExportResult{}, err
	}
	if path == "" {
		return ExportResult{}, nil
	}
	return a.Export(source, path)
}

// evaluate runs the engine and converts any failure into frontend errors.
func (a *App) evaluate(source string) (*scene.Scene, []EvalErrorData) {
	sc, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		return nil, []EvalErrorData{{Message: err.Error()}}
	}
	if len(evalErrs) > 0 {
		out := make([]EvalErrorData, 0, len(evalErrs))
		for _, e := range evalErrs {
			out = append(out, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return nil, out
	}
	return sc, nil
}

// evalErrorsMessage joins errors into one line for non-UI callers.
func evalErrorsMessage(errs []EvalErrorData) string {
	if len(errs) == 1 {
		return formatEvalError(errs[0])
	}
	msg := fmt.Sprintf("%d errors", len(errs))
	for _, e := range errs {
		msg += "; " + formatEvalError(e)
	}
	return msg
}

func formatEvalError(e EvalErrorData) string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}
