// Package clip trims a mesh to an axis-aligned build volume.
//
// Facets entirely inside the volume are copied, facets entirely outside are
// dropped and the rest are cut down to the part inside the box and
// re-triangulated as a fan.
package clip

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/logging"
	"github.com/chazu/strata/pkg/mesh"
)

// ErrInvalidVolume is returned for a volume with a dimension that is not a
// positive finite number.
var ErrInvalidVolume = errors.New("clip: invalid volume")

// classifyDecimals is the rounding applied to facet bounds before the coarse
// inside/outside test, so vertices sitting on a box face are not flagged by
// float jitter.
const classifyDecimals = 8

// Volume is the box from the origin to (X, Y, Z).
type Volume struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// Validate returns ErrInvalidVolume unless every dimension is positive and
// finite.
func (v Volume) Validate() error {
	for _, d := range []float64{v.X, v.Y, v.Z} {
		if !(d > 0) || math.IsInf(d, 1) {
			return fmt.Errorf("%w: %gx%gx%g", ErrInvalidVolume, v.X, v.Y, v.Z)
		}
	}
	return nil
}

// Box returns the volume as bounds.
func (v Volume) Box() geom.Box3 {
	return geom.Box3{Max: geom.P(v.X, v.Y, v.Z)}
}

func (v Volume) size(axis int) float64 {
	return geom.Component(geom.P(v.X, v.Y, v.Z), axis)
}

// Report counts what happened to the source facets.
type Report struct {
	// Kept facets were inside the volume and copied as-is.
	Kept int
	// Dropped facets were outside, degenerate, or clipped to nothing.
	Dropped int
	// Clipped facets were cut and replaced by one or more triangles.
	Clipped int
	// Unconverged facets hit MaxPushIterations. Their remaining outside
	// vertices were discarded.
	Unconverged int
}

// Clip returns a new mesh holding the parts of m inside v. m is not
// modified.
func Clip(m *mesh.Mesh, v Volume) (*mesh.Mesh, Report, error) {
	var rep Report
	if err := v.Validate(); err != nil {
		return nil, rep, err
	}
	if err := m.Validate(); err != nil {
		return nil, rep, fmt.Errorf("clip: %w", err)
	}

	out := m.EmptyCopy()
	for i, f := range m.Facets {
		if len(f.Vertices) < 3 {
			rep.Dropped++
			continue
		}
		switch classify(f, v) {
		case inside:
			out.Add(f.Copy())
			rep.Kept++
			continue
		case outside:
			rep.Dropped++
			continue
		}

		exactInside := true
		for _, p := range f.Vertices {
			if Outcode(p, v) != 0 {
				exactInside = false
				break
			}
		}
		if exactInside {
			out.Add(f.Copy())
			rep.Kept++
			continue
		}

		poly, converged := ClipPolygon(f.Vertices, v)
		if !converged {
			rep.Unconverged++
			logging.Logger().Warn("clip: push iteration cap reached",
				"facet", i, "limit", MaxPushIterations)
		}
		tris := fan(poly)
		if len(tris) == 0 {
			rep.Dropped++
			continue
		}
		out.Add(tris...)
		rep.Clipped++
	}
	return out, rep, nil
}

type class int

const (
	straddling class = iota
	inside
	outside
)

// classify is the coarse bounds test on rounded facet extents.
func classify(f mesh.Facet, v Volume) class {
	b := geom.Bounds(f.Vertices...)
	in := true
	for axis := 0; axis < 3; axis++ {
		lo := geom.Round(geom.Component(b.Min, axis), classifyDecimals)
		hi := geom.Round(geom.Component(b.Max, axis), classifyDecimals)
		w := v.size(axis)
		if hi < 0 || lo > w {
			return outside
		}
		if lo < 0 || hi > w {
			in = false
		}
	}
	if in {
		return inside
	}
	return straddling
}

// fan triangulates a convex polygon from its first vertex. Each triangle
// gets a fresh unit normal. Fewer than three points give nothing.
func fan(poly []geom.Point3) []mesh.Facet {
	if len(poly) < 3 {
		return nil
	}
	out := make([]mesh.Facet, 0, len(poly)-2)
	for i := 1; i+1 < len(poly); i++ {
		f := mesh.NewUnitFacet(poly[0], poly[i], poly[i+1])
		if f.Degenerate() || f.Normal == (geom.Point3{}) {
			continue
		}
		out = append(out, f)
	}
	return out
}
