// Package pipeline plans the extruder paths for a mesh: clip to the build
// volume, slice, lay wall loops inward one extrusion width at a time, and
// fill the innermost loops with a rectilinear grid.
package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chazu/strata/pkg/clip"
	"github.com/chazu/strata/pkg/config"
	"github.com/chazu/strata/pkg/logging"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/chazu/strata/pkg/offset"
	"github.com/chazu/strata/pkg/slicer"
	"github.com/chazu/strata/pkg/toolpath"
)

// ErrNothingToPrint is returned when clipping removes the whole mesh.
var ErrNothingToPrint = errors.New("pipeline: mesh lies outside the build volume")

// Result is a planned print.
type Result struct {
	// Layers are ordered by ascending z.
	Layers []toolpath.Layer
	// Clip is set when the mesh was clipped to a build volume.
	Clip *clip.Report
	// Offsets has one report per inner wall pass.
	Offsets []offset.Report
	// Walls is the number of wall passes.
	Walls int
	// Slices is the number of non-empty slices of the outer wall pass.
	Slices int
}

// Length returns the total extruded path length.
func (r *Result) Length() float64 {
	var d float64
	for _, l := range r.Layers {
		d += l.Length()
	}
	return d
}

// Moves flattens every layer, walls first, into extruder moves.
func (r *Result) Moves() []toolpath.Move {
	var paths []toolpath.Path
	for _, l := range r.Layers {
		paths = append(paths, l.Paths()...)
	}
	return toolpath.Moves(paths)
}

// Plan computes the paths for m with parameters p. m is not modified.
func Plan(m *mesh.Mesh, p config.Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p = p.Normalized()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	log := logging.Logger()

	res := &Result{Walls: p.WallCount()}
	work := m
	if p.Volume != nil {
		clipped, rep, err := clip.Clip(m, *p.Volume)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		res.Clip = &rep
		log.Debug("pipeline: clipped", "kept", rep.Kept, "clipped", rep.Clipped, "dropped", rep.Dropped)
		if clipped.IsEmpty() {
			return nil, ErrNothingToPrint
		}
		work = clipped
	}

	bounds := work.Bounds()
	h := p.LayerHeight
	opts := []slicer.Option{
		slicer.WithWorkers(p.Workers),
		slicer.WithRange(bounds.Min.Z, bounds.Max.Z),
	}

	layers := make(map[float64]*toolpath.Layer)
	layer := func(z float64) *toolpath.Layer {
		l, ok := layers[z]
		if !ok {
			l = &toolpath.Layer{Z: z}
			layers[z] = l
		}
		return l
	}

	var inner []slicer.Slice
	cur := work
	for i := 0; i < res.Walls; i++ {
		slices, err := slicer.Cut(cur, h, opts...)
		if err != nil {
			return nil, fmt.Errorf("pipeline: wall %d: %w", i+1, err)
		}
		if i == 0 {
			res.Slices = len(slices)
		}
		for _, s := range slices {
			l := layer(s.Z)
			l.Walls = append(l.Walls, toolpath.Walls(s)...)
		}
		inner = slices

		if i == res.Walls-1 {
			break
		}
		next, rep, err := offset.Offset(cur, -h)
		if err != nil {
			return nil, fmt.Errorf("pipeline: wall %d: %w", i+2, err)
		}
		res.Offsets = append(res.Offsets, rep)
		cur = next
	}

	if pitch, ok := toolpath.ScanPitch(h, p.InfillDensity); ok {
		for _, s := range inner {
			l := layer(s.Z)
			l.Infill = append(l.Infill, toolpath.Infill(s, bounds, pitch)...)
		}
	}

	res.Layers = make([]toolpath.Layer, 0, len(layers))
	for _, l := range layers {
		res.Layers = append(res.Layers, *l)
	}
	sort.Slice(res.Layers, func(i, j int) bool { return res.Layers[i].Z < res.Layers[j].Z })

	log.Info("pipeline: planned",
		"mesh", m.Name, "layers", len(res.Layers), "walls", res.Walls, "length", res.Length())
	return res, nil
}
