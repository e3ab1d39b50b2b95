package mesh

import (
	"github.com/chazu/strata/pkg/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Transform returns a copy of the mesh with every vertex mapped through the
// homogeneous matrix t. Normals are recomputed from the moved vertices.
func (m *Mesh) Transform(t mgl64.Mat4) *Mesh {
	out := &Mesh{Name: m.Name, Facets: make([]Facet, 0, len(m.Facets))}
	for _, f := range m.Facets {
		verts := make([]geom.Point3, len(f.Vertices))
		for i, v := range f.Vertices {
			p := mgl64.TransformCoordinate(mgl64.Vec3{v.X, v.Y, v.Z}, t)
			verts[i] = geom.P(p[0], p[1], p[2])
		}
		out.Facets = append(out.Facets, NewFacet(verts...))
	}
	return out
}

// Translate returns a copy moved by (dx, dy, dz).
func (m *Mesh) Translate(dx, dy, dz float64) *Mesh {
	return m.Transform(mgl64.Translate3D(dx, dy, dz))
}

// RotateEuler returns a copy rotated about the x, then y, then z axis.
// Angles are in degrees.
func (m *Mesh) RotateEuler(x, y, z float64) *Mesh {
	r := mgl64.HomogRotate3DZ(mgl64.DegToRad(z)).
		Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(y))).
		Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(x)))
	return m.Transform(r)
}

// DropToFloor returns a copy resting on the z = 0 plane.
func (m *Mesh) DropToFloor() *Mesh {
	b := m.Bounds()
	if b.Empty() {
		return m.Copy()
	}
	return m.Translate(0, 0, -b.Min.Z)
}

// CenterOn returns a copy whose bounding box is centred on (x, y) in the
// XY plane. Z is unchanged.
func (m *Mesh) CenterOn(x, y float64) *Mesh {
	b := m.Bounds()
	if b.Empty() {
		return m.Copy()
	}
	c := b.Center()
	return m.Translate(x-c.X, y-c.Y, 0)
}
