// Package meshtest builds small closed meshes for tests and examples.
//
// Every mesh here is watertight with outward normals by the right-hand
// rule, and split into triangles the way an STL exporter would.
package meshtest

import (
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/mesh"
)

// UnitCube returns the cube [0,1]^3.
func UnitCube() *mesh.Mesh {
	return Cube(geom.P(0, 0, 0), geom.P(1, 1, 1))
}

// Cube returns the axis-aligned box with corners lo and hi as 12 triangles.
func Cube(lo, hi geom.Point3) *mesh.Mesh {
	c := func(i, j, k int) geom.Point3 {
		p := lo
		if i == 1 {
			p.X = hi.X
		}
		if j == 1 {
			p.Y = hi.Y
		}
		if k == 1 {
			p.Z = hi.Z
		}
		return p
	}
	tri := func(a, b, d geom.Point3) mesh.Facet {
		return mesh.NewUnitFacet(a, b, d)
	}
	return mesh.New("cube",
		// bottom
		tri(c(0, 0, 0), c(0, 1, 0), c(1, 1, 0)),
		tri(c(0, 0, 0), c(1, 1, 0), c(1, 0, 0)),
		// top
		tri(c(0, 0, 1), c(1, 0, 1), c(1, 1, 1)),
		tri(c(0, 0, 1), c(1, 1, 1), c(0, 1, 1)),
		// front (y = lo)
		tri(c(0, 0, 0), c(1, 0, 0), c(1, 0, 1)),
		tri(c(0, 0, 0), c(1, 0, 1), c(0, 0, 1)),
		// back (y = hi)
		tri(c(0, 1, 0), c(0, 1, 1), c(1, 1, 1)),
		tri(c(0, 1, 0), c(1, 1, 1), c(1, 1, 0)),
		// left (x = lo)
		tri(c(0, 0, 0), c(0, 0, 1), c(0, 1, 1)),
		tri(c(0, 0, 0), c(0, 1, 1), c(0, 1, 0)),
		// right (x = hi)
		tri(c(1, 0, 0), c(1, 1, 0), c(1, 1, 1)),
		tri(c(1, 0, 0), c(1, 1, 1), c(1, 0, 1)),
	)
}

// Pyramid returns a square pyramid with base [0,side]^2 on z = 0 and its apex
// above the base centre at the given height.
func Pyramid(side, height float64) *mesh.Mesh {
	a := geom.P(0, 0, 0)
	b := geom.P(side, 0, 0)
	c := geom.P(side, side, 0)
	d := geom.P(0, side, 0)
	apex := geom.P(side/2, side/2, height)
	return mesh.New("pyramid",
		mesh.NewUnitFacet(a, d, c),
		mesh.NewUnitFacet(a, c, b),
		mesh.NewUnitFacet(a, b, apex),
		mesh.NewUnitFacet(b, c, apex),
		mesh.NewUnitFacet(c, d, apex),
		mesh.NewUnitFacet(d, a, apex),
	)
}

// Frame returns a square plate [0,outer]^2 x [0,height] with a centred square
// hole of side inner cut through it.
func Frame(outer, inner, height float64) *mesh.Mesh {
	m := (outer - inner) / 2
	ring := func(lo, hi float64) [4][2]float64 {
		return [4][2]float64{{lo, lo}, {hi, lo}, {hi, hi}, {lo, hi}}
	}
	out := ring(0, outer)
	in := ring(m, outer-m)

	f := mesh.New("frame")
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		o1, o2 := out[i], out[j]
		i1, i2 := in[i], in[j]

		// Outer walls run counter-clockwise, hole walls clockwise, so both
		// face away from the material.
		f.Add(wall(o1, o2, 0, height)...)
		f.Add(wall(i2, i1, 0, height)...)

		top := func(p [2]float64) geom.Point3 { return geom.P(p[0], p[1], height) }
		bot := func(p [2]float64) geom.Point3 { return geom.P(p[0], p[1], 0) }
		f.Add(
			mesh.NewUnitFacet(top(o1), top(o2), top(i2)),
			mesh.NewUnitFacet(top(o1), top(i2), top(i1)),
			mesh.NewUnitFacet(bot(o1), bot(i2), bot(o2)),
			mesh.NewUnitFacet(bot(o1), bot(i1), bot(i2)),
		)
	}
	return f
}

// wall returns the vertical quad over a-b as two triangles whose normal is
// (b-a) x +z.
func wall(a, b [2]float64, z0, z1 float64) []mesh.Facet {
	a0, b0 := geom.P(a[0], a[1], z0), geom.P(b[0], b[1], z0)
	a1, b1 := geom.P(a[0], a[1], z1), geom.P(b[0], b[1], z1)
	return []mesh.Facet{
		mesh.NewUnitFacet(a0, b0, b1),
		mesh.NewUnitFacet(a0, b1, a1),
	}
}
