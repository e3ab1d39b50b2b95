package geom

import "math"

// Box3 is an axis-aligned bounding box. The zero value is not empty; use
// EmptyBox to start accumulating points.
type Box3 struct {
	Min, Max Point3
}

// EmptyBox returns a box that contains nothing and grows with Extend.
func EmptyBox() Box3 {
	inf := math.Inf(1)
	return Box3{
		Min: Point3{X: inf, Y: inf, Z: inf},
		Max: Point3{X: -inf, Y: -inf, Z: -inf},
	}
}

// Bounds returns the bounding box of pts.
func Bounds(pts ...Point3) Box3 {
	b := EmptyBox()
	for _, p := range pts {
		b = b.Extend(p)
	}
	return b
}

// Empty reports whether the box contains no points.
func (b Box3) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend returns the smallest box containing b and p.
func (b Box3) Extend(p Point3) Box3 {
	b.Min = Point3{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)}
	b.Max = Point3{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)}
	return b
}

// Union returns the smallest box containing both boxes.
func (b Box3) Union(o Box3) Box3 {
	if o.Empty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Size returns the box extent along each axis.
func (b Box3) Size() Point3 {
	if b.Empty() {
		return Point3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the box midpoint.
func (b Box3) Center() Point3 {
	return b.Min.Add(b.Max).MulScalar(0.5)
}

// Volume returns the product of the box extents.
func (b Box3) Volume() float64 {
	s := b.Size()
	return s.X * s.Y * s.Z
}

// Contains reports whether p lies inside the box, widened by tol.
func (b Box3) Contains(p Point3, tol float64) bool {
	return p.X >= b.Min.X-tol && p.X <= b.Max.X+tol &&
		p.Y >= b.Min.Y-tol && p.Y <= b.Max.Y+tol &&
		p.Z >= b.Min.Z-tol && p.Z <= b.Max.Z+tol
}
