package geom

import (
	"math"
	"sort"
)

// cell is a bucket of the spatial hash.
type cell struct {
	x, y, z int64
}

type indexEntry struct {
	p  Point3
	id int
}

// PointIndex is a spatial hash over points, keyed by cells the size of the
// similarity tolerance. Two points that satisfy SimilarPoints always land in
// the same or neighbouring cells, so a lookup only inspects 27 buckets
// instead of every stored point.
//
// A PointIndex is not safe for concurrent mutation.
type PointIndex struct {
	tol   float64
	cells map[cell][]indexEntry
	n     int
}

// NewPointIndex returns an empty index matching points within tol.
func NewPointIndex(tol float64) *PointIndex {
	if tol <= 0 {
		tol = PlaneTolerance
	}
	return &PointIndex{tol: tol, cells: make(map[cell][]indexEntry)}
}

func (ix *PointIndex) cellOf(p Point3) cell {
	return cell{
		x: int64(math.Floor(p.X / ix.tol)),
		y: int64(math.Floor(p.Y / ix.tol)),
		z: int64(math.Floor(p.Z / ix.tol)),
	}
}

// Add records p under id. The same id may be added at several points.
func (ix *PointIndex) Add(p Point3, id int) {
	c := ix.cellOf(p)
	ix.cells[c] = append(ix.cells[c], indexEntry{p: p, id: id})
	ix.n++
}

// Len returns the number of stored entries.
func (ix *PointIndex) Len() int {
	return ix.n
}

// Near returns the ids of every entry similar to p, ascending and without
// repeats.
func (ix *PointIndex) Near(p Point3) []int {
	c := ix.cellOf(p)
	var ids []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, e := range ix.cells[cell{c.x + dx, c.y + dy, c.z + dz}] {
					if SimilarPoints(e.p, p, ix.tol) {
						ids = append(ids, e.id)
					}
				}
			}
		}
	}
	if len(ids) < 2 {
		return ids
	}
	sort.Ints(ids)
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}

// Intern returns the id of the first stored point similar to p, adding p
// under next if there is none. The second result reports whether p was
// added.
func (ix *PointIndex) Intern(p Point3, next int) (int, bool) {
	if ids := ix.Near(p); len(ids) > 0 {
		return ids[0], false
	}
	ix.Add(p, next)
	return next, true
}
