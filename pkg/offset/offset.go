// Package offset displaces a mesh surface along estimated vertex normals.
//
// Each distinct vertex moves by the same vector wherever it appears, so a
// closed mesh stays closed. The vertex direction combines the normals of the
// facets around it with weights from the Gram matrix of those normals, which
// moves a box corner diagonally by the full offset on every axis. When the
// weights cannot be solved for, the plain sum of the normals is used instead.
//
// Large offsets on concave or finely curved meshes can fold the surface
// through itself. Nothing here detects that.
package offset

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/logging"
	"github.com/chazu/strata/pkg/mesh"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidDistance is returned for a NaN or infinite offset.
var ErrInvalidDistance = errors.New("offset: distance must be finite")

const (
	// NormalTolerance is the summed per-axis difference under which two unit
	// normals around a vertex count as the same direction.
	NormalTolerance = 0.2

	// maxCondition is the largest Gram matrix condition number trusted for
	// the weighted solve.
	maxCondition = 1e8
)

// Weighting records how a vertex direction was computed.
type Weighting int

const (
	// Weighted directions come from the Gram matrix solve.
	Weighted Weighting = iota
	// Averaged directions are the plain sum of the normals, used when the
	// Gram matrix is singular or badly conditioned.
	Averaged
)

func (w Weighting) String() string {
	switch w {
	case Weighted:
		return "weighted"
	case Averaged:
		return "averaged"
	default:
		return fmt.Sprintf("Weighting(%d)", int(w))
	}
}

// Direction is the displacement of a vertex for an offset of 1. Its largest
// component has magnitude 1.
type Direction struct {
	Vector    geom.Point3
	Weighting Weighting
}

// Report counts the distinct vertices moved and how their directions were
// found.
type Report struct {
	Vertices int
	Weighted int
	Averaged int
}

// Offset returns a copy of m with every vertex moved by delta along its
// direction. Positive delta moves outward. Facet order, vertex order and
// facet normals are unchanged.
func Offset(m *mesh.Mesh, delta float64) (*mesh.Mesh, Report, error) {
	var rep Report
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return nil, rep, fmt.Errorf("%w: got %v", ErrInvalidDistance, delta)
	}
	if err := m.Validate(); err != nil {
		return nil, rep, fmt.Errorf("offset: %w", err)
	}

	// Cluster coincident vertices and gather the facet normals around each.
	ix := geom.NewPointIndex(geom.PointTolerance)
	var clusters [][]geom.Point3
	refs := make([][]int, len(m.Facets))
	for fi, f := range m.Facets {
		n := facetNormal(f)
		refs[fi] = make([]int, len(f.Vertices))
		for vi, v := range f.Vertices {
			id, added := ix.Intern(v, len(clusters))
			if added {
				clusters = append(clusters, nil)
			}
			refs[fi][vi] = id
			if n != (geom.Point3{}) {
				clusters[id] = append(clusters[id], n)
			}
		}
	}

	moves := make([]geom.Point3, len(clusters))
	for id, normals := range clusters {
		d := VertexDirection(normals)
		moves[id] = d.Vector.MulScalar(delta)
		rep.Vertices++
		switch d.Weighting {
		case Weighted:
			rep.Weighted++
		case Averaged:
			rep.Averaged++
		}
	}

	out := m.EmptyCopy()
	out.Facets = make([]mesh.Facet, len(m.Facets))
	for fi, f := range m.Facets {
		verts := make([]geom.Point3, len(f.Vertices))
		for vi, v := range f.Vertices {
			verts[vi] = v.Add(moves[refs[fi][vi]])
		}
		out.Facets[fi] = mesh.Facet{Normal: f.Normal, Vertices: verts}
	}
	return out, rep, nil
}

// facetNormal is the unit normal of the facet's vertex loop, or zero for a
// facet without area.
func facetNormal(f mesh.Facet) geom.Point3 {
	if len(f.Vertices) < 3 {
		return geom.Point3{}
	}
	return geom.Unit(geom.FaceNormal(f.Vertices[0], f.Vertices[1], f.Vertices[2]))
}

// VertexDirection combines the unit normals of the facets meeting at a
// vertex. Near-duplicate normals are merged first. The weights w solve
// G w = 1 where G[i][j] is the dot product of normals i and j; the weighted
// sum of the normals is then scaled so its largest component is ±1.
func VertexDirection(normals []geom.Point3) Direction {
	ns := dedupNormals(normals)
	if len(ns) == 0 {
		return Direction{Weighting: Averaged}
	}

	if w, ok := solveWeights(ns); ok {
		var sum geom.Point3
		for i, n := range ns {
			sum = sum.Add(n.MulScalar(w[i]))
		}
		return Direction{Vector: geom.MaxNormalize(sum), Weighting: Weighted}
	}

	logging.Logger().Debug("offset: singular normal system, averaging", "normals", len(ns))
	var sum geom.Point3
	for _, n := range ns {
		sum = sum.Add(n)
	}
	return Direction{Vector: geom.MaxNormalize(sum), Weighting: Averaged}
}

// solveWeights solves the Gram system for ns. It fails for singular or badly
// conditioned systems and for results that are not finite.
func solveWeights(ns []geom.Point3) ([]float64, bool) {
	k := len(ns)
	g := mat.NewDense(k, k, nil)
	for i := range ns {
		for j := range ns {
			g.Set(i, j, ns[i].Dot(ns[j]))
		}
	}
	if c := mat.Cond(g, 2); math.IsNaN(c) || c > maxCondition {
		return nil, false
	}

	ones := make([]float64, k)
	for i := range ones {
		ones[i] = 1
	}
	var w mat.VecDense
	if err := w.SolveVec(g, mat.NewVecDense(k, ones)); err != nil {
		return nil, false
	}

	out := make([]float64, k)
	for i := range out {
		out[i] = w.AtVec(i)
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, false
		}
	}
	return out, true
}

// dedupNormals keeps the first of each group of normals within
// NormalTolerance of each other.
func dedupNormals(normals []geom.Point3) []geom.Point3 {
	var out []geom.Point3
	for _, n := range normals {
		if geom.IsZero(n, 0) {
			continue
		}
		dup := false
		for _, o := range out {
			if geom.SimilarPoints(n, o, NormalTolerance) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	return out
}
