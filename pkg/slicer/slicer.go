// Package slicer cuts a mesh into horizontal cross-sections.
//
// Each Slice holds the closed boundary loops (Hulls) of the mesh at one z
// datum. Datums run from the bottom of the mesh upward in steps of the layer
// height, and the top surface always gets a slice of its own.
package slicer

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/logging"
	"github.com/chazu/strata/pkg/mesh"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidLayerHeight is returned for a zero, negative or NaN layer height.
var ErrInvalidLayerHeight = errors.New("slicer: layer height must be positive")

// layerEpsilon absorbs float error when counting how many layer heights fit
// into the mesh extent.
const layerEpsilon = 1e-9

// Slice is the set of hulls cut at one z datum.
type Slice struct {
	Z     float64 `json:"z"`
	Hulls []Hull  `json:"hulls"`
}

// Bounds returns the bounding box of every hull point in the slice.
func (s Slice) Bounds() geom.Box3 {
	b := geom.EmptyBox()
	for _, h := range s.Hulls {
		b = b.Union(h.Bounds())
	}
	return b
}

// Range fixes the z extent used to lay out datums, instead of the extent of
// the mesh being sliced.
type Range struct {
	Min, Max float64
}

// Option configures a call to Cut.
type Option func(*options)

type options struct {
	workers int
	zRange  *Range
}

// WithWorkers slices up to n layers concurrently. Values below 2 keep the
// default sequential behaviour.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithRange lays datums out over [lo, hi] rather than the mesh's own z
// extent. Slicing an offset copy over the original range keeps its layers
// aligned with the original's.
func WithRange(lo, hi float64) Option {
	return func(o *options) {
		o.zRange = &Range{Min: lo, Max: hi}
	}
}

// LayerHeights returns the z datums for a mesh spanning [zMin, zMax] sliced
// at height h: zMin + i*h for i in [0, ceil((zMax-zMin)/h)), followed by
// zMax itself.
func LayerHeights(zMin, zMax, h float64) []float64 {
	n := int(math.Ceil((zMax-zMin)/h - layerEpsilon))
	if n < 0 {
		n = 0
	}
	zs := make([]float64, 0, n+1)
	for i := 0; i < n; i++ {
		zs = append(zs, zMin+float64(i)*h)
	}
	if len(zs) > 0 && zMax-zs[len(zs)-1] <= geom.PlaneTolerance {
		zs = zs[:len(zs)-1]
	}
	return append(zs, zMax)
}

// Cut slices m into layers of height h. Layers that produce no hull are
// left out, so the result may be shorter than LayerHeights. Slices are
// ordered by ascending z.
func Cut(m *mesh.Mesh, h float64, opts ...Option) ([]Slice, error) {
	if !(h > 0) || math.IsInf(h, 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidLayerHeight, h)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("slicer: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	zMin, zMax := zExtent(m)
	if o.zRange != nil {
		zMin, zMax = o.zRange.Min, o.zRange.Max
	}
	zs := LayerHeights(zMin, zMax, h)
	buckets := bucketFacets(m, zs)

	layers := make([]Slice, len(zs))
	if o.workers < 2 {
		for i, z := range zs {
			layers[i] = sliceLayer(m, buckets[i], z)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(o.workers)
		for i, z := range zs {
			g.Go(func() error {
				layers[i] = sliceLayer(m, buckets[i], z)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make([]Slice, 0, len(layers))
	for _, l := range layers {
		if len(l.Hulls) > 0 {
			out = append(out, l)
		}
	}
	return out, nil
}

// zExtent returns the lowest and highest vertex z of m.
func zExtent(m *mesh.Mesh) (lo, hi float64) {
	b := m.Bounds()
	return b.Min.Z, b.Max.Z
}

// bucketFacets assigns each facet to every datum inside its z range, so a
// layer only visits the facets that can cross it.
func bucketFacets(m *mesh.Mesh, zs []float64) [][]int {
	buckets := make([][]int, len(zs))
	for fi, f := range m.Facets {
		if len(f.Vertices) == 0 {
			continue
		}
		lo, hi := f.ZRange()
		start := sort.SearchFloat64s(zs, lo-geom.PlaneTolerance)
		for i := start; i < len(zs) && zs[i] <= hi+geom.PlaneTolerance; i++ {
			buckets[i] = append(buckets[i], fi)
		}
	}
	return buckets
}

// sliceLayer cuts the bucketed facets at z and stitches the result.
func sliceLayer(m *mesh.Mesh, facets []int, z float64) Slice {
	var set edgeSet
	for _, fi := range facets {
		for _, e := range FacetEdges(m.Facets[fi], z) {
			set.add(e)
		}
	}
	hulls := Stitch(set.edges)
	for _, h := range hulls {
		if !h.Closed {
			logging.Logger().Warn("slicer: open hull",
				"z", z, "points", len(h.Points),
				"start", h.Points[0], "end", h.Points[len(h.Points)-1])
		}
	}
	return Slice{Z: z, Hulls: hulls}
}
