package clip

import (
	"github.com/chazu/strata/pkg/geom"
)

// MaxPushIterations bounds the number of vertex pushes spent on one polygon.
const MaxPushIterations = 100

const (
	// outcodeTolerance keeps points snapped onto a box face from reading as
	// outside after float round-off in the other coordinates.
	outcodeTolerance = 1e-8

	// dedupTolerance merges pushes that land on the same boundary point.
	dedupTolerance = 1e-9
)

// Outcode bits, one per violated half-space of the volume.
const (
	OutXMin uint8 = 1 << iota
	OutXMax
	OutYMin
	OutYMax
	OutZMin
	OutZMax
)

var axisBits = [3]uint8{OutXMin | OutXMax, OutYMin | OutYMax, OutZMin | OutZMax}

// Outcode returns the half-spaces of v that p lies outside of. Zero means p
// is inside the volume.
func Outcode(p geom.Point3, v Volume) uint8 {
	var code uint8
	for axis := 0; axis < 3; axis++ {
		c := geom.Component(p, axis)
		switch {
		case c < -outcodeTolerance:
			code |= 1 << (2 * axis)
		case c > v.size(axis)+outcodeTolerance:
			code |= 2 << (2 * axis)
		}
	}
	return code
}

// ClipPolygon cuts a planar polygon to the part inside v.
//
// The polygon is processed one axis at a time. Every vertex outside the
// volume on that axis is replaced by the points where the edges to its two
// neighbours cross the violated box face, in polygon order. An edge that
// never reaches the face contributes nothing. Coincident points are then
// merged, keeping the first.
//
// The second result is false if the polygon needed more than
// MaxPushIterations pushes. The vertices left unpushed are discarded, so
// the returned points always lie inside v.
func ClipPolygon(vertices []geom.Point3, v Volume) ([]geom.Point3, bool) {
	arena := make([]geom.Point3, len(vertices), len(vertices)*3)
	copy(arena, vertices)
	poly := make([]int, len(vertices))
	for i := range poly {
		poly[i] = i
	}

	converged := true
	pushes := 0
	for axis := 0; axis < 3 && len(poly) > 0; axis++ {
		n := len(poly)
		work := make([]int, 0, n+2)
		for i, id := range poly {
			p := arena[id]
			if Outcode(p, v)&axisBits[axis] == 0 {
				work = append(work, id)
				continue
			}
			if pushes >= MaxPushIterations {
				converged = false
				continue
			}
			pushes++
			for _, nb := range [2]int{poly[(i+n-1)%n], poly[(i+1)%n]} {
				if q, ok := push(p, arena[nb], v, axis); ok {
					arena = append(arena, q)
					work = append(work, len(arena)-1)
				}
			}
		}
		poly = dedup(arena, work)
	}

	out := make([]geom.Point3, 0, len(poly))
	for _, id := range poly {
		if Outcode(arena[id], v) == 0 {
			out = append(out, arena[id])
		}
	}
	return out, converged
}

// push moves p along the segment toward q until it meets the face of v that
// p violates on axis. The crossing must lie within the segment
// (0 < d <= 1). The pushed coordinate is snapped onto the face.
func push(p, q geom.Point3, v Volume, axis int) (geom.Point3, bool) {
	plane := 0.0
	if geom.Component(p, axis) >= 0 {
		plane = v.size(axis)
	}
	m := q.Sub(p)
	ma := geom.Component(m, axis)
	if ma == 0 {
		return p, false
	}
	d := (plane - geom.Component(p, axis)) / ma
	if !(d > 0 && d <= 1) {
		return p, false
	}
	return geom.SetComponent(p.Add(m.MulScalar(d)), axis, plane), true
}

// dedup returns ids with later near-copies of an earlier point removed.
func dedup(arena []geom.Point3, ids []int) []int {
	out := ids[:0:0]
	for _, id := range ids {
		seen := false
		for _, kept := range out {
			if geom.SimilarPoints(arena[id], arena[kept], dedupTolerance) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, id)
		}
	}
	return out
}
