// Package sdfx meshes primitive solids with the signed distance field
// library github.com/deadsy/sdfx and its marching cubes renderer.
package sdfx

import (
	"fmt"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultMeshCells is the marching cubes resolution along the longest axis
// of a solid's bounding box.
const DefaultMeshCells = 200

var _ kernel.Kernel = (*Kernel)(nil)

// Kernel meshes sdfx solids at a fixed resolution.
type Kernel struct {
	cells int
}

// New returns a kernel that meshes with the given number of marching cubes
// cells. cells <= 0 selects DefaultMeshCells.
func New(cells int) *Kernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &Kernel{cells: cells}
}

// Cells returns the marching cubes resolution.
func (k *Kernel) Cells() int { return k.cells }

type solid struct {
	field sdf.SDF3
}

func (s solid) Bounds() geom.Box3 {
	bb := s.field.BoundingBox()
	return geom.Box3{Min: bb.Min, Max: bb.Max}
}

// shift moves field so its bounding box starts at z = 0, and at x = y = 0
// as well when corner is set. sdfx centres every primitive on the origin.
func shift(field sdf.SDF3, corner bool) solid {
	bb := field.BoundingBox()
	d := v3.Vec{Z: -bb.Min.Z}
	if corner {
		d.X, d.Y = -bb.Min.X, -bb.Min.Y
	}
	return solid{field: sdf.Transform3D(field, sdf.Translate3d(d))}
}

// Box returns a box with its minimum corner at the origin.
func (k *Kernel) Box(size geom.Point3) (kernel.Solid, error) {
	field, err := sdf.Box3D(size, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: box %gx%gx%g: %w", size.X, size.Y, size.Z, err)
	}
	return shift(field, true), nil
}

// Cylinder returns a cylinder centred on the z axis, standing on z = 0.
func (k *Kernel) Cylinder(radius, height float64) (kernel.Solid, error) {
	field, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: cylinder r=%g h=%g: %w", radius, height, err)
	}
	return shift(field, false), nil
}

// ToMesh runs marching cubes over s. Slivers the renderer emits with no
// usable normal are dropped.
func (k *Kernel) ToMesh(s kernel.Solid) (*mesh.Mesh, error) {
	sol, ok := s.(solid)
	if !ok {
		return nil, fmt.Errorf("sdfx: solid %T was not built by this kernel", s)
	}
	tris := render.ToTriangles(sol.field, render.NewMarchingCubesUniform(k.cells))

	m := mesh.New("")
	m.Facets = make([]mesh.Facet, 0, len(tris))
	for _, t := range tris {
		if f := mesh.NewUnitFacet(t[0], t[1], t[2]); !f.Degenerate() && !geom.IsZero(f.Normal, 0) {
			m.Add(f)
		}
	}
	if m.IsEmpty() {
		return nil, fmt.Errorf("sdfx: marching cubes at %d cells produced no triangles", k.cells)
	}
	return m, nil
}
