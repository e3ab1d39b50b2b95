// Package stlio reads and writes meshes as STL files, ASCII or binary.
//
// Normals stored in a file are ignored on read and recomputed from each
// triangle's vertex order.
package stlio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/hschendel/stl"
)

// Read parses an ASCII or binary STL stream.
// The stream is buffered in full because the format is detected by seeking.
func Read(r io.Reader) (*mesh.Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("stlio: read: %w", err)
	}
	s, err := stl.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("stlio: read: %w", err)
	}
	return fromSolid(s), nil
}

// ReadFile parses the STL file at path.
func ReadFile(path string) (*mesh.Mesh, error) {
	s, err := stl.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stlio: read %s: %w", path, err)
	}
	return fromSolid(s), nil
}

// Write encodes m as binary STL. Polygons are fan-triangulated.
func Write(w io.Writer, m *mesh.Mesh) error {
	return write(w, m, false)
}

// WriteASCII encodes m as ASCII STL.
func WriteASCII(w io.Writer, m *mesh.Mesh) error {
	return write(w, m, true)
}

// WriteFile writes m to path as binary STL.
func WriteFile(path string, m *mesh.Mesh) error {
	if err := toSolid(m, false).WriteFile(path); err != nil {
		return fmt.Errorf("stlio: write %s: %w", path, err)
	}
	return nil
}

func write(w io.Writer, m *mesh.Mesh, ascii bool) error {
	if err := toSolid(m, ascii).WriteAll(w); err != nil {
		return fmt.Errorf("stlio: write: %w", err)
	}
	return nil
}

func fromSolid(s *stl.Solid) *mesh.Mesh {
	m := mesh.New(s.Name)
	m.Facets = make([]mesh.Facet, 0, len(s.Triangles))
	for _, t := range s.Triangles {
		m.Add(mesh.NewUnitFacet(point(t.Vertices[0]), point(t.Vertices[1]), point(t.Vertices[2])))
	}
	return m
}

func toSolid(m *mesh.Mesh, ascii bool) *stl.Solid {
	s := &stl.Solid{Name: m.Name, IsAscii: ascii}
	for _, f := range m.Facets {
		for i := 1; i+1 < len(f.Vertices); i++ {
			a, b, c := f.Vertices[0], f.Vertices[i], f.Vertices[i+1]
			s.Triangles = append(s.Triangles, stl.Triangle{
				Normal:   vec(geom.Unit(geom.FaceNormal(a, b, c))),
				Vertices: [3]stl.Vec3{vec(a), vec(b), vec(c)},
			})
		}
	}
	return s
}

func point(v stl.Vec3) geom.Point3 {
	return geom.P(float64(v[0]), float64(v[1]), float64(v[2]))
}

func vec(p geom.Point3) stl.Vec3 {
	return stl.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
}
