package slicer

import (
	"math"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/mesh"
)

// joinTolerance matches cut points against each other. Facets sharing a
// mesh edge or vertex produce identical cut points (see crossing), so it
// only has to bridge facets dropped as degenerate, which are no wider than
// PlaneTolerance. PointTolerance is far too coarse here: marching cubes
// output has many edges shorter than it.
const joinTolerance = geom.PlaneTolerance

// Edge is one segment of a cross-section, carrying the unit normal of the
// facet it was cut from.
type Edge struct {
	P1, P2 geom.Point3
	Normal geom.Point3
}

// Reversed returns the edge with its endpoints swapped.
func (e Edge) Reversed() Edge {
	return Edge{P1: e.P2, P2: e.P1, Normal: e.Normal}
}

// same reports whether e and o join the same two points, in either order.
func (e Edge) same(o Edge) bool {
	if geom.SimilarPoints(e.P1, o.P1, joinTolerance) && geom.SimilarPoints(e.P2, o.P2, joinTolerance) {
		return true
	}
	return geom.SimilarPoints(e.P1, o.P2, joinTolerance) && geom.SimilarPoints(e.P2, o.P1, joinTolerance)
}

// FacetEdges cuts one facet with the plane z. A facet crossing the plane
// normally yields one edge. A facet lying in the plane yields nothing; its
// outline is supplied by the neighbouring facets. Degenerate facets yield
// nothing.
//
// The facet normal is recomputed from the vertex loop rather than taken from
// f.Normal.
func FacetEdges(f mesh.Facet, z float64) []Edge {
	if f.Degenerate() {
		return nil
	}
	n := geom.Unit(geom.FaceNormal(f.Vertices[0], f.Vertices[1], f.Vertices[2]))

	coplanar := true
	for _, v := range f.Vertices {
		if math.Abs(v.Z-z) > geom.PlaneTolerance {
			coplanar = false
			break
		}
	}
	if coplanar {
		return nil
	}

	var pts []geom.Point3
	for i, a := range f.Vertices {
		p, ok := crossing(a, f.Vertices[(i+1)%len(f.Vertices)], z)
		if !ok || containsSimilar(pts, p) {
			continue
		}
		pts = append(pts, p)
	}

	switch {
	case len(pts) < 2:
		return nil
	case len(pts) == 2:
		if geom.SimilarPoints(pts[0], pts[1], joinTolerance) {
			return nil
		}
		return []Edge{{P1: pts[0], P2: pts[1], Normal: n}}
	}

	// More than two crossings only happens on non-planar polygons; close
	// them as a fan so each crossing is joined.
	edges := make([]Edge, 0, len(pts))
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		if geom.SimilarPoints(p, q, joinTolerance) {
			continue
		}
		edges = append(edges, Edge{P1: p, P2: q, Normal: n})
	}
	return edges
}

// crossing returns where segment a-b meets the plane z. A vertex within
// PlaneTolerance of the plane is the crossing itself, snapped onto the
// plane. Otherwise the endpoints are ordered before interpolating, so the
// two facets sharing an edge compute the same point.
func crossing(a, b geom.Point3, z float64) (geom.Point3, bool) {
	switch {
	case math.Abs(a.Z-z) <= geom.PlaneTolerance:
		a.Z = z
		return a, true
	case math.Abs(b.Z-z) <= geom.PlaneTolerance:
		b.Z = z
		return b, true
	case !geom.PlaneIntersectsSegment(a, b, z, geom.PlaneTolerance):
		return geom.Point3{}, false
	}
	if geom.Less(b, a) {
		a, b = b, a
	}
	return geom.InterpolateAtZ(a, b, z, geom.PlaneTolerance)
}

func containsSimilar(pts []geom.Point3, p geom.Point3) bool {
	for _, q := range pts {
		if geom.SimilarPoints(p, q, joinTolerance) {
			return true
		}
	}
	return false
}

// edgeSet collects the edges of one layer, dropping an edge already
// contributed by a neighbouring facet.
type edgeSet struct {
	ix    *geom.PointIndex
	edges []Edge
}

func (s *edgeSet) add(e Edge) {
	if s.ix == nil {
		s.ix = geom.NewPointIndex(joinTolerance)
	}
	for _, id := range s.ix.Near(e.P1) {
		if s.edges[id].same(e) {
			return
		}
	}
	id := len(s.edges)
	s.edges = append(s.edges, e)
	s.ix.Add(e.P1, id)
	s.ix.Add(e.P2, id)
}
