package mesh

import "github.com/chazu/strata/pkg/geom"

// Flatten converts the mesh to flat render buffers: vertices holds 3 floats
// per vertex (x,y,z), normals 3 floats per vertex, indices 3 per triangle.
// Polygons are fan-triangulated and every vertex carries its facet's unit
// normal.
func (m *Mesh) Flatten() (vertices, normals []float32, indices []uint32) {
	for _, f := range m.Facets {
		if len(f.Vertices) < 3 {
			continue
		}
		n := geom.Unit(f.Normal)
		for i := 1; i+1 < len(f.Vertices); i++ {
			for _, v := range []geom.Point3{f.Vertices[0], f.Vertices[i], f.Vertices[i+1]} {
				indices = append(indices, uint32(len(vertices)/3))
				vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
				normals = append(normals, float32(n.X), float32(n.Y), float32(n.Z))
			}
		}
	}
	return vertices, normals, indices
}
