package main

import (
	"errors"
	"fmt"

	"github.com/chazu/strata/pkg/config"
	"github.com/chazu/strata/pkg/engine"
	"github.com/chazu/strata/pkg/kernel/sdfx"
	"github.com/chazu/strata/pkg/logging"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/chazu/strata/pkg/pipeline"
	"github.com/chazu/strata/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs job scripts and meshes through the planner. The exported result
// types are JSON-serializable for preview front ends.
type App struct {
	engine    *engine.Engine
	params    config.Params
	overrides map[string]float64
	baseDir   string
}

// MeshData is the JSON-serializable preview mesh for one placed part.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// LayerData summarizes one planned layer.
type LayerData struct {
	Z      float64 `json:"z"`
	Walls  int     `json:"walls"`
	Infill int     `json:"infill"`
	Length float64 `json:"length"`
}

// EvalErrorData is a JSON-serializable error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Result is the full output of Evaluate or SliceMesh.
type Result struct {
	Meshes   []MeshData      `json:"meshes"`
	Layers   []LayerData     `json:"layers"`
	Length   float64         `json:"length"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`

	// Plate is the merged mesh that was planned.
	Plate *mesh.Mesh `json:"-"`
	// Plan is the planner output, nil when there was nothing to plan.
	Plan *pipeline.Result `json:"-"`
}

// OK reports whether the result carries no errors.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

func (r *Result) fail(format string, args ...any) *Result {
	r.Errors = append(r.Errors, EvalErrorData{Message: fmt.Sprintf(format, args...)})
	return r
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, EvalErrorData{Message: fmt.Sprintf(format, args...)})
}

// NewApp creates an App planning with params. Overrides are applied after
// each script's settings, so they win.
func NewApp(params config.Params, overrides map[string]float64) *App {
	return &App{
		engine:    engine.NewEngine(),
		params:    params,
		overrides: overrides,
	}
}

// SetBaseDir resolves relative STL paths in scripts against dir.
func (a *App) SetBaseDir(dir string) {
	a.baseDir = dir
}

func newResult() *Result {
	return &Result{
		Meshes:   []MeshData{},
		Layers:   []LayerData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
}

// Evaluate runs a job script: evaluate and validate it, tessellate the
// plate, merge the parts, and plan the merged mesh.
func (a *App) Evaluate(source string) *Result {
	result := newResult()
	log := logging.Logger()

	// Step 1: Evaluate and validate the script.
	res, err := a.engine.Check(source)
	if err != nil {
		log.Error("app: evaluate", "err", err)
		return result.fail("%v", err)
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.String()})
	}
	if !res.OK() {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	// Step 2: Script settings, then overrides.
	p, err := a.params.Apply(res.Graph.Settings)
	if err != nil {
		return result.fail("settings: %v", err)
	}
	if p, err = p.Apply(a.overrides); err != nil {
		return result.fail("overrides: %v", err)
	}
	if err := p.Validate(); err != nil {
		return result.fail("%v", err)
	}
	p = p.Normalized()

	// Step 3: Tessellate the scene graph into one mesh per placed part.
	meshes, err := tessellate.Tessellate(res.Graph, sdfx.New(p.Resolution), tessellate.WithBaseDir(a.baseDir))
	if err != nil {
		log.Error("app: tessellate", "err", err)
		return result.fail("tessellation failed: %v", err)
	}
	for i, m := range meshes {
		v, n, idx := m.Flatten()
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: v,
			Normals:  n,
			Indices:  idx,
			PartName: m.Name,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	if len(meshes) == 0 {
		result.warn("no parts placed on any plate")
		return result
	}

	// Step 4: Plan the merged plate.
	return a.plan(result, mesh.Merge("plate", meshes...), p)
}

// SliceMesh plans m directly with the App's parameters and overrides.
func (a *App) SliceMesh(m *mesh.Mesh) *Result {
	result := newResult()
	if m.IsEmpty() {
		return result.fail("slice: %v", mesh.ErrEmptyMesh)
	}
	p, err := a.params.Apply(a.overrides)
	if err != nil {
		return result.fail("overrides: %v", err)
	}
	v, n, idx := m.Flatten()
	result.Meshes = append(result.Meshes, MeshData{
		Vertices: v, Normals: n, Indices: idx,
		PartName: m.Name, Color: colorPalette[0],
	})
	return a.plan(result, m, p)
}

func (a *App) plan(result *Result, m *mesh.Mesh, p config.Params) *Result {
	result.Plate = m
	plan, err := pipeline.Plan(m, p)
	if errors.Is(err, pipeline.ErrNothingToPrint) {
		result.warn("%v", err)
		return result
	}
	if err != nil {
		logging.Logger().Error("app: plan", "mesh", m.Name, "err", err)
		return result.fail("planning failed: %v", err)
	}

	result.Plan = plan
	result.Length = plan.Length()
	for _, l := range plan.Layers {
		result.Layers = append(result.Layers, LayerData{
			Z:      l.Z,
			Walls:  len(l.Walls),
			Infill: len(l.Infill),
			Length: l.Length(),
		})
	}
	if plan.Clip != nil && plan.Clip.Unconverged > 0 {
		result.warn("%d facets did not converge while clipping to the build volume", plan.Clip.Unconverged)
	}
	return result
}
