// Package kernel turns primitive part shapes into closed triangle meshes.
// The sdfx subpackage is the implementation the tessellator uses; tests
// substitute exact fakes.
package kernel

import (
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/mesh"
)

// Solid is a primitive shape ready to be meshed.
type Solid interface {
	Bounds() geom.Box3
}

// Kernel builds primitive solids and meshes them. Solids are only valid
// with the kernel that made them.
type Kernel interface {
	// Box has its minimum corner at the origin.
	Box(size geom.Point3) (Solid, error)
	// Cylinder stands on z = 0 with its axis on z.
	Cylinder(radius, height float64) (Solid, error)
	// ToMesh returns outward-facing triangles with unit normals.
	ToMesh(s Solid) (*mesh.Mesh, error)
}
