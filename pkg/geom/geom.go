// Package geom holds the tolerance-based point and vector primitives shared
// by the slicer, clipper, offsetter and path generator.
//
// Points are sdfx vectors so that meshes coming out of the sdfx kernel can be
// used without conversion.
package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Point3 is a real-valued (x, y, z) coordinate. It doubles as a vector type
// for normals and displacements.
type Point3 = v3.Vec

const (
	// PointTolerance is the summed absolute per-axis difference under which
	// two points are treated as the same vertex.
	PointTolerance = 0.01

	// PlaneTolerance is the z distance under which a point is on a
	// horizontal plane.
	PlaneTolerance = 1e-5
)

// P is shorthand for building a Point3.
func P(x, y, z float64) Point3 {
	return Point3{X: x, Y: y, Z: z}
}

// PlaneIntersectsSegment reports whether the segment p1-p2 touches the plane
// z = zDatum. Endpoints lying on the plane count as intersecting.
func PlaneIntersectsSegment(p1, p2 Point3, zDatum, tol float64) bool {
	if math.Abs(p1.Z-zDatum) <= tol || math.Abs(p2.Z-zDatum) <= tol {
		return true
	}
	if p1.Z >= zDatum {
		return p2.Z <= zDatum
	}
	return p2.Z >= zDatum
}

// InterpolateAtZ returns the point where the segment p1-p2 crosses the plane
// z = zDatum. A segment lying in the plane yields p1. A horizontal segment
// away from the plane has no intersection and returns false.
//
// The caller is expected to have checked PlaneIntersectsSegment; the line
// through p1 and p2 is intersected, not the bounded segment.
func InterpolateAtZ(p1, p2 Point3, zDatum, tol float64) (Point3, bool) {
	dz := p2.Z - p1.Z
	if math.Abs(dz) <= tol {
		if math.Abs(p1.Z-zDatum) <= tol {
			return p1, true
		}
		return Point3{}, false
	}
	t := (zDatum - p1.Z) / dz
	return Point3{
		X: p1.X + t*(p2.X-p1.X),
		Y: p1.Y + t*(p2.Y-p1.Y),
		Z: zDatum,
	}, true
}

// SimilarPoints reports whether a and b are within tol of each other,
// measured as the sum of absolute per-axis differences.
func SimilarPoints(a, b Point3, tol float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a.X-b.X)+math.Abs(a.Y-b.Y)+math.Abs(a.Z-b.Z) <= tol
}

// FaceNormal returns (p2-p1) x (p3-p1). The result is not unit length; its
// magnitude is twice the triangle's area.
func FaceNormal(p1, p2, p3 Point3) Point3 {
	return p2.Sub(p1).Cross(p3.Sub(p1))
}

// Unit scales v to unit length. The zero vector is returned unchanged.
func Unit(v Point3) Point3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.MulScalar(1 / l)
}

// MaxNormalize divides v by its largest absolute component, so the
// dominant axis becomes ±1. The zero vector is returned unchanged.
func MaxNormalize(v Point3) Point3 {
	m := math.Max(math.Abs(v.X), math.Max(math.Abs(v.Y), math.Abs(v.Z)))
	if m == 0 {
		return Point3{}
	}
	return v.MulScalar(1 / m)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point3) float64 {
	return b.Sub(a).Length()
}

// IsZero reports whether every component of v is within tol of zero.
func IsZero(v Point3, tol float64) bool {
	return math.Abs(v.X) <= tol && math.Abs(v.Y) <= tol && math.Abs(v.Z) <= tol
}

// Component returns the axis-th coordinate of p (0 = x, 1 = y, 2 = z).
func Component(p Point3, axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// SetComponent returns p with its axis-th coordinate replaced by v.
func SetComponent(p Point3, axis int, v float64) Point3 {
	switch axis {
	case 0:
		p.X = v
	case 1:
		p.Y = v
	default:
		p.Z = v
	}
	return p
}

// Less orders points lexicographically by x, then y, then z.
func Less(a, b Point3) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// Round rounds x to the given number of decimal places.
func Round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}
