package toolpath

import (
	"math"
	"sort"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/slicer"
)

// referenceSide is the side of the square used to derive line spacing from
// density. Larger values only add precision.
const referenceSide = 1000.0

// signTolerance is the normal component below which a crossing is treated
// as tangent to the scan line.
const signTolerance = 1e-9

// InfillSpacing returns the gap between infill lines of width h that fills
// the given fraction of area. For a square of side S, k full-width lines
// cover S(1-sqrt(1-density)) on each axis, leaving (S-hk)/(k+1) between
// them. The result is rounded to 3 decimal places.
func InfillSpacing(h, density float64) float64 {
	k := math.Floor(referenceSide * (1 - math.Sqrt(1-density)) / h)
	return geom.Round((referenceSide-h*k)/(k+1), 3)
}

// ScanPitch returns the distance between scan lines for layer height h and
// the given density, which is clamped to 1. The pitch never drops below h.
// The second result is false when density is not positive and no infill
// should be laid.
func ScanPitch(h, density float64) (float64, bool) {
	if !(density > 0) || !(h > 0) {
		return 0, false
	}
	if density > 1 {
		density = 1
	}
	return math.Max(InfillSpacing(h, density), h), true
}

// ScanLines returns lo, lo+pitch, ... up to and including hi.
func ScanLines(lo, hi, pitch float64) []float64 {
	if !(pitch > 0) || hi < lo {
		return nil
	}
	n := int(math.Floor((hi-lo)/pitch+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*pitch
	}
	return out
}

// Infill returns the grid paths inside the slice: first along each
// horizontal scan line (constant y), then along each vertical one (constant
// x), with scan lines laid from the low corner of bounds. All hulls of the
// slice are cut together rather than pairing crossings hull by hull, so
// holes are left empty.
//
// Along a scan line, a crossing whose hull normal points backwards along
// the line opens a span and one pointing forwards closes it. Each closed
// span becomes a two-point path; a span left open is dropped.
func Infill(s slicer.Slice, bounds geom.Box3, pitch float64) []Path {
	if bounds.Empty() {
		return nil
	}
	var out []Path
	for _, y := range ScanLines(bounds.Min.Y, bounds.Max.Y, pitch) {
		out = append(out, scan(s, y, true)...)
	}
	for _, x := range ScanLines(bounds.Min.X, bounds.Max.X, pitch) {
		out = append(out, scan(s, x, false)...)
	}
	return out
}

type crossing struct {
	p    geom.Point3
	sign int
}

// scan cuts every hull segment of s with the line y = c (horizontal) or
// x = c and pairs up the crossings.
func scan(s slicer.Slice, c float64, horizontal bool) []Path {
	along, across := 0, 1
	if !horizontal {
		along, across = 1, 0
	}

	var xs []crossing
	for _, h := range s.Hulls {
		for i := 0; i < h.Segments(); i++ {
			a, b, n := h.Segment(i)
			p, ok := crossScanLine(a, b, c, across)
			if !ok {
				continue
			}
			xs = append(xs, crossing{p: p, sign: sign(geom.Component(n, along))})
		}
	}
	if len(xs) < 2 {
		return nil
	}

	// Crossings at the same point put the opening one first, so a hull
	// touching the line at a single vertex yields an empty span.
	sort.SliceStable(xs, func(i, j int) bool {
		if xs[i].p != xs[j].p {
			return geom.Less(xs[i].p, xs[j].p)
		}
		return xs[i].sign < xs[j].sign
	})

	var out []Path
	var start *geom.Point3
	for i := range xs {
		switch xs[i].sign {
		case -1:
			start = &xs[i].p
		case 1:
			if start != nil && !geom.SimilarPoints(*start, xs[i].p, geom.PlaneTolerance) {
				out = append(out, Path{Points: []geom.Point3{*start, xs[i].p}})
			}
			start = nil
		}
	}
	return out
}

// crossScanLine intersects segment a-b with the line where the across
// coordinate equals c. The segment covers the half-open range
// [min, max) on that axis so a crossing through a shared vertex is counted
// once. Segments parallel to the line never cross it.
func crossScanLine(a, b geom.Point3, c float64, across int) (geom.Point3, bool) {
	ca, cb := geom.Component(a, across), geom.Component(b, across)
	if ca == cb {
		return geom.Point3{}, false
	}
	if c < math.Min(ca, cb) || c >= math.Max(ca, cb) {
		return geom.Point3{}, false
	}
	t := (c - ca) / (cb - ca)
	p := a.Add(b.Sub(a).MulScalar(t))
	p = geom.SetComponent(p, across, c)
	p.Z = a.Z
	return p, true
}

func sign(v float64) int {
	switch {
	case v < -signTolerance:
		return -1
	case v > signTolerance:
		return 1
	}
	return 0
}
