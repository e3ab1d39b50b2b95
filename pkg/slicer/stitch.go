package slicer

import (
	"github.com/chazu/strata/pkg/geom"
)

// collinearTolerance is the largest sine of the turn angle at which two
// consecutive hull segments are merged into one.
const collinearTolerance = 1e-6

// Hull is an ordered loop of points at one z datum. Normals[i] is the outward
// facet normal of the segment from Points[i] to Points[i+1].
//
// A closed hull does not repeat its first point; the last segment runs from
// the final point back to Points[0] and len(Normals) == len(Points). An open
// hull is a chain whose ends could not be joined, with one normal fewer than
// points.
type Hull struct {
	Points  []geom.Point3 `json:"points"`
	Normals []geom.Point3 `json:"normals"`
	Closed  bool          `json:"closed"`
}

// Segments returns the number of segments in the hull.
func (h Hull) Segments() int {
	if h.Closed {
		return len(h.Points)
	}
	if len(h.Points) == 0 {
		return 0
	}
	return len(h.Points) - 1
}

// Segment returns the endpoints and normal of segment i.
func (h Hull) Segment(i int) (a, b, n geom.Point3) {
	return h.Points[i], h.Points[(i+1)%len(h.Points)], h.Normals[i]
}

// Ring returns the hull points with the first point repeated at the end when
// the hull is closed.
func (h Hull) Ring() []geom.Point3 {
	out := make([]geom.Point3, 0, len(h.Points)+1)
	out = append(out, h.Points...)
	if h.Closed && len(h.Points) > 0 {
		out = append(out, h.Points[0])
	}
	return out
}

// Bounds returns the bounding box of the hull points.
func (h Hull) Bounds() geom.Box3 {
	return geom.Bounds(h.Points...)
}

// Stitch joins an unordered set of edges into hulls. Edges are matched end
// to end by coordinate, in either direction. Each edge is used once. Hulls
// come out in the order of their first edge, and runs of collinear segments
// are merged.
func Stitch(edges []Edge) []Hull {
	if len(edges) == 0 {
		return nil
	}
	ix := geom.NewPointIndex(joinTolerance)
	for i, e := range edges {
		ix.Add(e.P1, i)
		ix.Add(e.P2, i)
	}
	used := make([]bool, len(edges))

	// next takes the lowest unused edge touching p and returns its far end.
	next := func(p geom.Point3) (Edge, bool) {
		for _, id := range ix.Near(p) {
			if used[id] {
				continue
			}
			used[id] = true
			e := edges[id]
			if !geom.SimilarPoints(p, e.P1, joinTolerance) {
				e = e.Reversed()
			}
			return e, true
		}
		return Edge{}, false
	}

	var hulls []Hull
	for seed := range edges {
		if used[seed] {
			continue
		}
		used[seed] = true
		e := edges[seed]
		start := e.P1
		h := Hull{
			Points:  []geom.Point3{start},
			Normals: []geom.Point3{e.Normal},
		}
		cur := e.P2
		for {
			if geom.SimilarPoints(cur, start, joinTolerance) {
				h.Closed = true
				break
			}
			h.Points = append(h.Points, cur)
			ne, ok := next(cur)
			if !ok {
				break
			}
			h.Normals = append(h.Normals, ne.Normal)
			cur = ne.P2
		}

		if !h.Closed {
			// Extend the chain backwards from the seed so a broken loop comes
			// out as one piece rather than several.
			for {
				ne, ok := next(h.Points[0])
				if !ok {
					break
				}
				h.Points = append([]geom.Point3{ne.P2}, h.Points...)
				h.Normals = append([]geom.Point3{ne.Normal}, h.Normals...)
			}
		}

		h = collapseCollinear(h)
		if len(h.Points) < 2 || (h.Closed && len(h.Points) < 3) {
			continue
		}
		hulls = append(hulls, h)
	}
	return hulls
}

// collapseCollinear removes points that sit on a straight run between their
// neighbours. The merged segment keeps the normal of its first part.
func collapseCollinear(h Hull) Hull {
	if h.Closed {
		for changed := true; changed && len(h.Points) > 3; {
			changed = false
			for i := 0; i < len(h.Points) && len(h.Points) > 3; {
				n := len(h.Points)
				if straight(h.Points[(i+n-1)%n], h.Points[i], h.Points[(i+1)%n]) {
					h = removePoint(h, i)
					changed = true
					continue
				}
				i++
			}
		}
		return h
	}
	for i := 1; i < len(h.Points)-1; {
		if straight(h.Points[i-1], h.Points[i], h.Points[i+1]) {
			h = removePoint(h, i)
			continue
		}
		i++
	}
	return h
}

func removePoint(h Hull, i int) Hull {
	h.Points = append(h.Points[:i:i], h.Points[i+1:]...)
	h.Normals = append(h.Normals[:i:i], h.Normals[i+1:]...)
	return h
}

// straight reports whether b lies on the segment from a to c, heading the
// same way.
func straight(a, b, c geom.Point3) bool {
	u, v := b.Sub(a), c.Sub(b)
	lu, lv := u.Length(), v.Length()
	if lu == 0 || lv == 0 {
		return true
	}
	if u.Dot(v) <= 0 {
		return false
	}
	return u.Cross(v).Length() <= collinearTolerance*lu*lv
}
