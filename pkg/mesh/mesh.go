// Package mesh defines the triangle-soup model consumed by the slicing core.
//
// A Mesh keeps no shared-vertex index: a vertex used by several facets is
// stored once per facet and vertices are compared by coordinate. Operations
// that move vertices return a new Mesh; the source is never modified.
package mesh

import (
	"errors"
	"fmt"

	"github.com/chazu/strata/pkg/geom"
)

var (
	// ErrEmptyMesh is returned when an operation needs at least one facet.
	ErrEmptyMesh = errors.New("mesh: no facets")

	// ErrDegenerateFacet marks a facet with no usable vertex loop.
	ErrDegenerateFacet = errors.New("mesh: degenerate facet")
)

// Facet is one mesh polygon: a normal and an ordered vertex loop. Triangles
// are the common case; intermediate steps may carry larger polygons.
type Facet struct {
	Normal   geom.Point3   `json:"normal"`
	Vertices []geom.Point3 `json:"vertices"`
}

// NewFacet builds a facet and derives its normal from the first two edges of
// the loop by the right-hand rule. The normal is not unit length.
func NewFacet(vertices ...geom.Point3) Facet {
	f := Facet{Vertices: vertices}
	if len(vertices) >= 3 {
		f.Normal = geom.FaceNormal(vertices[0], vertices[1], vertices[2])
	}
	return f
}

// NewUnitFacet is NewFacet with the normal scaled to unit length.
func NewUnitFacet(vertices ...geom.Point3) Facet {
	f := NewFacet(vertices...)
	f.Normal = geom.Unit(f.Normal)
	return f
}

// Copy returns a facet with its own vertex slice.
func (f Facet) Copy() Facet {
	v := make([]geom.Point3, len(f.Vertices))
	copy(v, f.Vertices)
	return Facet{Normal: f.Normal, Vertices: v}
}

// ZRange returns the lowest and highest vertex z.
func (f Facet) ZRange() (lo, hi float64) {
	for i, v := range f.Vertices {
		if i == 0 || v.Z < lo {
			lo = v.Z
		}
		if i == 0 || v.Z > hi {
			hi = v.Z
		}
	}
	return lo, hi
}

// Degenerate reports whether the facet has fewer than three distinct
// vertices.
func (f Facet) Degenerate() bool {
	if len(f.Vertices) < 3 {
		return true
	}
	distinct := make([]geom.Point3, 0, 3)
	for _, v := range f.Vertices {
		seen := false
		for _, d := range distinct {
			if geom.SimilarPoints(v, d, geom.PlaneTolerance) {
				seen = true
				break
			}
		}
		if !seen {
			distinct = append(distinct, v)
			if len(distinct) == 3 {
				return false
			}
		}
	}
	return true
}

// Mesh is a named, ordered collection of facets.
type Mesh struct {
	Name   string  `json:"name"`
	Facets []Facet `json:"facets"`
}

// New returns a mesh holding facets.
func New(name string, facets ...Facet) *Mesh {
	return &Mesh{Name: name, Facets: facets}
}

// EmptyCopy returns a mesh with the same name and no facets.
func (m *Mesh) EmptyCopy() *Mesh {
	return &Mesh{Name: m.Name}
}

// Copy returns a deep copy of the mesh.
func (m *Mesh) Copy() *Mesh {
	out := &Mesh{Name: m.Name, Facets: make([]Facet, len(m.Facets))}
	for i, f := range m.Facets {
		out.Facets[i] = f.Copy()
	}
	return out
}

// Add appends facets to the mesh.
func (m *Mesh) Add(facets ...Facet) {
	m.Facets = append(m.Facets, facets...)
}

// FacetCount returns the number of facets.
func (m *Mesh) FacetCount() int {
	return len(m.Facets)
}

// VertexCount returns the number of stored vertices, counting shared
// vertices once per facet.
func (m *Mesh) VertexCount() int {
	n := 0
	for _, f := range m.Facets {
		n += len(f.Vertices)
	}
	return n
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return m == nil || len(m.Facets) == 0
}

// Vertices returns every vertex of every facet. Duplicates are kept.
func (m *Mesh) Vertices() []geom.Point3 {
	out := make([]geom.Point3, 0, m.VertexCount())
	for _, f := range m.Facets {
		out = append(out, f.Vertices...)
	}
	return out
}

// Bounds returns the axis-aligned bounding box of all vertices.
func (m *Mesh) Bounds() geom.Box3 {
	b := geom.EmptyBox()
	for _, f := range m.Facets {
		for _, v := range f.Vertices {
			b = b.Extend(v)
		}
	}
	return b
}

// Validate checks the structural invariants the core relies on. Facets with
// one or two vertices are tolerated (they are skipped downstream); facets
// with none are not.
func (m *Mesh) Validate() error {
	if m.IsEmpty() {
		return ErrEmptyMesh
	}
	for i, f := range m.Facets {
		if len(f.Vertices) == 0 {
			return fmt.Errorf("%w: facet %d has no vertices", ErrDegenerateFacet, i)
		}
	}
	return nil
}

// Merge concatenates the facets of several meshes into one named mesh.
func Merge(name string, meshes ...*Mesh) *Mesh {
	out := &Mesh{Name: name}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		out.Facets = append(out.Facets, m.Copy().Facets...)
	}
	return out
}
