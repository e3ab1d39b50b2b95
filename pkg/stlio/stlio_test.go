package stlio

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/chazu/strata/pkg/meshtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const asciiTriangle = `solid tri
  facet normal 0 0 0
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
    endloop
  endfacet
endsolid tri
`

func TestReadASCIIRecomputesNormals(t *testing.T) {
	m, err := Read(strings.NewReader(asciiTriangle))
	require.NoError(t, err)
	assert.Equal(t, "tri", m.Name)
	require.Len(t, m.Facets, 1)
	assert.Equal(t, geom.P(0, 0, 1), m.Facets[0].Normal)
	assert.Equal(t, geom.P(1, 0, 0), m.Facets[0].Vertices[1])
}

func TestBinaryRoundTrip(t *testing.T) {
	src := meshtest.Cube(geom.P(0, 0, 0), geom.P(2, 4, 8))
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src))
	assert.Equal(t, 84+50*12, buf.Len())

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, src.Facets, got.Facets)
}

func TestASCIIRoundTrip(t *testing.T) {
	src := meshtest.UnitCube()
	var buf bytes.Buffer
	require.NoError(t, WriteASCII(&buf, src))
	assert.True(t, strings.HasPrefix(buf.String(), "solid cube"))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), got.Bounds())
	assert.Equal(t, src.FacetCount(), got.FacetCount())
}

func TestWriteTriangulatesPolygons(t *testing.T) {
	quad := mesh.New("quad", mesh.NewFacet(
		geom.P(0, 0, 0), geom.P(1, 0, 0), geom.P(1, 1, 0), geom.P(0, 1, 0),
	))
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, quad))
	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Len(t, got.Facets, 2)
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pyramid.stl")
	src := meshtest.Pyramid(4, 3)
	require.NoError(t, WriteFile(path, src))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, src.FacetCount(), got.FacetCount())
	assert.Equal(t, src.Bounds(), got.Bounds())

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.stl"))
	assert.Error(t, err)
}

// streamOnly hides any Seek method of the wrapped reader.
type streamOnly struct{ io.Reader }

func TestReadFromPlainStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, meshtest.UnitCube()))
	got, err := Read(streamOnly{&buf})
	require.NoError(t, err)
	assert.Equal(t, 12, got.FacetCount())

	got, err = Read(streamOnly{strings.NewReader(asciiTriangle)})
	require.NoError(t, err)
	assert.Equal(t, 1, got.FacetCount())
}

func TestReadGarbage(t *testing.T) {
	_, err := Read(strings.NewReader("solid broken\n  facet normal 0 0 1\n"))
	assert.Error(t, err)
}
