package slicer

import (
	"math"
	"testing"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/kernel/sdfx"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/chazu/strata/pkg/meshtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerHeights(t *testing.T) {
	tests := []struct {
		name     string
		lo, hi   float64
		h        float64
		wantLen  int
		wantLast float64
	}{
		{"exact fit", 0, 1, 0.5, 3, 1},
		{"quarter", 0, 1, 0.25, 5, 1},
		{"remainder", 0, 1, 0.3, 5, 1},
		{"offset base", 2, 3.1, 0.5, 4, 3.1},
		{"flat", 1, 1, 0.2, 1, 1},
		{"thinner than a layer", 0, 0.1, 0.2, 2, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zs := LayerHeights(tt.lo, tt.hi, tt.h)
			require.Len(t, zs, tt.wantLen)
			assert.InDelta(t, tt.lo, zs[0], 1e-12)
			assert.InDelta(t, tt.wantLast, zs[len(zs)-1], 1e-12)
			for i := 1; i < len(zs); i++ {
				assert.Greater(t, zs[i], zs[i-1], "datums must ascend")
			}
		})
	}
}

func TestLayerHeightsCountWithRemainder(t *testing.T) {
	for _, h := range []float64{0.3, 0.35, 0.4, 0.45, 0.7} {
		extent := 1.0
		require.NotZero(t, math.Mod(extent, h))
		want := int(math.Ceil(extent/h)) + 1
		assert.Len(t, LayerHeights(0, extent, h), want, "h=%v", h)
	}
}

func TestLayerHeightsNoNearDuplicateTop(t *testing.T) {
	// 0.3 / 0.1 is just under 3 in floating point.
	zs := LayerHeights(0, 0.3, 0.1)
	require.Len(t, zs, 4)
	assert.Equal(t, 0.3, zs[3])
	assert.Less(t, zs[2], 0.3-geom.PlaneTolerance)
}

func TestSliceUnitCube(t *testing.T) {
	slices, err := Cut(meshtest.UnitCube(), 0.5)
	require.NoError(t, err)
	require.Len(t, slices, 3)

	square := []geom.Point3{
		geom.P(0, 0, 0), geom.P(1, 0, 0), geom.P(1, 1, 0), geom.P(0, 1, 0),
	}
	for i, want := range []float64{0, 0.5, 1} {
		s := slices[i]
		assert.InDelta(t, want, s.Z, 1e-12)
		require.Len(t, s.Hulls, 1, "z=%v", s.Z)
		h := s.Hulls[0]
		assert.True(t, h.Closed)
		require.Len(t, h.Points, 4, "z=%v: %v", s.Z, h.Points)
		assert.Len(t, h.Normals, 4)

		for _, corner := range square {
			corner.Z = s.Z
			assert.True(t, hasPoint(h.Points, corner), "z=%v missing %v", s.Z, corner)
		}
		for _, p := range h.Points {
			assert.InDelta(t, s.Z, p.Z, 1e-9)
		}
	}
}

func TestSliceCubeNormalsFaceOutward(t *testing.T) {
	slices, err := Cut(meshtest.UnitCube(), 0.5)
	require.NoError(t, err)
	h := slices[1].Hulls[0]
	center := geom.P(0.5, 0.5, 0.5)
	for i := 0; i < h.Segments(); i++ {
		a, b, n := h.Segment(i)
		assert.InDelta(t, 1, n.Length(), 1e-9)
		mid := a.Add(b).MulScalar(0.5)
		assert.Greater(t, mid.Sub(center).Dot(n), 0.0, "segment %d normal %v points inward", i, n)
	}
}

func TestSliceFrameKeepsHole(t *testing.T) {
	slices, err := Cut(meshtest.Frame(4, 2, 1), 0.5)
	require.NoError(t, err)
	require.Len(t, slices, 3)

	for _, s := range slices {
		require.Len(t, s.Hulls, 2, "z=%v", s.Z)
		var areas []float64
		for _, h := range s.Hulls {
			assert.True(t, h.Closed)
			assert.Len(t, h.Points, 4)
			sz := h.Bounds().Size()
			areas = append(areas, sz.X*sz.Y)
		}
		assert.ElementsMatch(t, []float64{16, 4}, areas)
	}
}

func TestSlicePyramidApexDropped(t *testing.T) {
	m := meshtest.Pyramid(2, 1)
	slices, err := Cut(m, 0.25)
	require.NoError(t, err)

	// The apex layer cuts each side facet at a single point, so it has no
	// hull and is left out.
	assert.Len(t, slices, len(LayerHeights(0, 1, 0.25))-1)
	for _, s := range slices {
		assert.Less(t, s.Z, 1.0)
		require.Len(t, s.Hulls, 1)
		assert.True(t, s.Hulls[0].Closed)
	}

	mid := slices[2]
	assert.InDelta(t, 0.5, mid.Z, 1e-12)
	sz := mid.Bounds().Size()
	assert.InDelta(t, 1, sz.X, 1e-9)
	assert.InDelta(t, 1, sz.Y, 1e-9)
}

func TestSliceErrors(t *testing.T) {
	_, err := Cut(meshtest.UnitCube(), 0)
	assert.ErrorIs(t, err, ErrInvalidLayerHeight)

	_, err = Cut(meshtest.UnitCube(), -1)
	assert.ErrorIs(t, err, ErrInvalidLayerHeight)

	_, err = Cut(meshtest.UnitCube(), math.NaN())
	assert.ErrorIs(t, err, ErrInvalidLayerHeight)

	_, err = Cut(mesh.New("empty"), 0.2)
	assert.ErrorIs(t, err, mesh.ErrEmptyMesh)
}

func TestSliceWorkersMatchSequential(t *testing.T) {
	m := meshtest.Frame(10, 4, 3)
	seq, err := Cut(m, 0.2)
	require.NoError(t, err)
	par, err := Cut(m, 0.2, WithWorkers(4))
	require.NoError(t, err)
	assert.Equal(t, seq, par)
}

func TestSliceWithRange(t *testing.T) {
	// A cube shrunk by 0.1 sliced over the outer cube's range keeps the
	// outer layer grid.
	inner := meshtest.Cube(geom.P(0.1, 0.1, 0.1), geom.P(0.9, 0.9, 0.9))
	slices, err := Cut(inner, 0.25, WithRange(0, 1))
	require.NoError(t, err)

	var zs []float64
	for _, s := range slices {
		zs = append(zs, s.Z)
	}
	assert.InDeltaSlice(t, []float64{0.25, 0.5, 0.75}, zs, 1e-12)
}

func TestFacetEdges(t *testing.T) {
	tri := mesh.NewFacet(geom.P(0, 0, 0), geom.P(2, 0, 0), geom.P(0, 0, 2))

	t.Run("crossing", func(t *testing.T) {
		edges := FacetEdges(tri, 1)
		require.Len(t, edges, 1)
		e := edges[0]
		assert.True(t, geom.SimilarPoints(e.P1, geom.P(1, 0, 1), 1e-9) || geom.SimilarPoints(e.P2, geom.P(1, 0, 1), 1e-9))
		assert.True(t, geom.SimilarPoints(e.P1, geom.P(0, 0, 1), 1e-9) || geom.SimilarPoints(e.P2, geom.P(0, 0, 1), 1e-9))
		assert.InDelta(t, -1, e.Normal.Y, 1e-12)
	})

	t.Run("vertex only", func(t *testing.T) {
		assert.Empty(t, FacetEdges(tri, 2))
	})

	t.Run("outside", func(t *testing.T) {
		assert.Empty(t, FacetEdges(tri, 3))
	})

	t.Run("coplanar", func(t *testing.T) {
		flat := mesh.NewFacet(geom.P(0, 0, 1), geom.P(1, 0, 1), geom.P(0, 1, 1))
		assert.Empty(t, FacetEdges(flat, 1))
	})

	t.Run("edge in plane", func(t *testing.T) {
		edges := FacetEdges(tri, 0)
		require.Len(t, edges, 1)
		assert.InDelta(t, 2, geom.Distance(edges[0].P1, edges[0].P2), 1e-12)
	})

	t.Run("degenerate", func(t *testing.T) {
		sliver := mesh.Facet{Vertices: []geom.Point3{geom.P(0, 0, 0), geom.P(0, 0, 0), geom.P(0, 0, 2)}}
		assert.Empty(t, FacetEdges(sliver, 1))
	})

	t.Run("ignores stored normal", func(t *testing.T) {
		f := tri.Copy()
		f.Normal = geom.P(0, 0, 0)
		edges := FacetEdges(f, 1)
		require.Len(t, edges, 1)
		assert.InDelta(t, 1, edges[0].Normal.Length(), 1e-12)
	})
}

func TestEdgeSetDropsSharedEdges(t *testing.T) {
	var s edgeSet
	n := geom.P(0, -1, 0)
	s.add(Edge{P1: geom.P(0, 0, 0), P2: geom.P(1, 0, 0), Normal: n})
	s.add(Edge{P1: geom.P(1, 0, 0), P2: geom.P(0, 0, 0), Normal: n})
	s.add(Edge{P1: geom.P(1e-7, 0, 0), P2: geom.P(1, 2e-7, 0), Normal: n})
	s.add(Edge{P1: geom.P(1, 0, 0), P2: geom.P(1, 1, 0), Normal: n})
	// Short edges a few microns apart are distinct.
	s.add(Edge{P1: geom.P(0.001, 0, 0), P2: geom.P(1, 0.002, 0), Normal: n})
	assert.Len(t, s.edges, 3)
}

func TestFacetEdgesSharedEdgeMatchesExactly(t *testing.T) {
	a, b := geom.P(0.1, 0.2, 0), geom.P(0.7, 0.3, 1.3)
	left := mesh.NewFacet(a, b, geom.P(0, 1, 1))
	right := mesh.NewFacet(b, a, geom.P(1, 0, 0.4))
	for _, z := range []float64{0.1, 0.37, 0.9, 1.15} {
		l, r := FacetEdges(left, z), FacetEdges(right, z)
		require.Len(t, l, 1, "z=%v", z)
		require.Len(t, r, 1, "z=%v", z)
		lp := []geom.Point3{l[0].P1, l[0].P2}
		rp := []geom.Point3{r[0].P1, r[0].P2}
		shared := 0
		for _, p := range lp {
			for _, q := range rp {
				if p == q {
					shared++
				}
			}
		}
		assert.Equal(t, 1, shared, "z=%v: %v vs %v", z, lp, rp)
	}
}

func TestSliceTinyCubeStaysClosed(t *testing.T) {
	// Every edge is shorter than PointTolerance.
	m := meshtest.Cube(geom.P(0, 0, 0), geom.P(0.004, 0.003, 0.004))
	slices, err := Cut(m, 0.001)
	require.NoError(t, err)
	require.Len(t, slices, 5)
	for _, s := range slices {
		require.Len(t, s.Hulls, 1, "z=%v", s.Z)
		assert.True(t, s.Hulls[0].Closed, "z=%v", s.Z)
		assert.Len(t, s.Hulls[0].Points, 4, "z=%v", s.Z)
	}
}

func TestSliceRotatedCube(t *testing.T) {
	m := meshtest.Cube(geom.P(0, 0, 0), geom.P(10, 10, 10)).RotateEuler(25, 40, 15).DropToFloor()
	slices, err := Cut(m, 0.5)
	require.NoError(t, err)
	require.Greater(t, len(slices), 2)
	assertInteriorClosed(t, slices)
}

func TestSliceMarchingCubesCylinder(t *testing.T) {
	if testing.Short() {
		t.Skip("meshes a cylinder at full resolution")
	}
	k := sdfx.New(sdfx.DefaultMeshCells)
	s, err := k.Cylinder(5, 8)
	require.NoError(t, err)
	m, err := k.ToMesh(s)
	require.NoError(t, err)

	slices, err := Cut(m, 0.25, WithWorkers(4))
	require.NoError(t, err)
	require.Greater(t, len(slices), 30)
	assertInteriorClosed(t, slices)
}

// assertInteriorClosed checks that every layer but the bottom and top one
// is a single closed hull.
func assertInteriorClosed(t *testing.T, slices []Slice) {
	t.Helper()
	for _, s := range slices[1 : len(slices)-1] {
		if !assert.Len(t, s.Hulls, 1, "z=%v", s.Z) {
			continue
		}
		h := s.Hulls[0]
		assert.True(t, h.Closed, "z=%v: open hull of %d points", s.Z, len(h.Points))
		assert.GreaterOrEqual(t, len(h.Points), 3, "z=%v", s.Z)
	}
}

func TestStitch(t *testing.T) {
	a, b, c, d := geom.P(0, 0, 0), geom.P(2, 0, 0), geom.P(2, 2, 0), geom.P(0, 2, 0)
	down, right, up, left := geom.P(0, -1, 0), geom.P(1, 0, 0), geom.P(0, 1, 0), geom.P(-1, 0, 0)

	t.Run("shuffled and reversed", func(t *testing.T) {
		hulls := Stitch([]Edge{
			{P1: c, P2: d, Normal: up},
			{P1: b, P2: a, Normal: down},
			{P1: d, P2: a, Normal: left},
			{P1: c, P2: b, Normal: right},
		})
		require.Len(t, hulls, 1)
		h := hulls[0]
		assert.True(t, h.Closed)
		assert.Equal(t, []geom.Point3{c, d, a, b}, h.Points)
		assert.Equal(t, []geom.Point3{up, left, down, right}, h.Normals)
		assert.Equal(t, []geom.Point3{c, d, a, b, c}, h.Ring())
	})

	t.Run("collinear runs merge", func(t *testing.T) {
		mid := geom.P(1, 0, 0)
		hulls := Stitch([]Edge{
			{P1: a, P2: mid, Normal: down},
			{P1: mid, P2: b, Normal: down},
			{P1: b, P2: c, Normal: right},
			{P1: c, P2: d, Normal: up},
			{P1: d, P2: a, Normal: left},
		})
		require.Len(t, hulls, 1)
		assert.Equal(t, []geom.Point3{a, b, c, d}, hulls[0].Points)
		assert.Equal(t, []geom.Point3{down, right, up, left}, hulls[0].Normals)
	})

	t.Run("open chain", func(t *testing.T) {
		hulls := Stitch([]Edge{
			{P1: b, P2: c, Normal: right},
			{P1: a, P2: b, Normal: down},
			{P1: c, P2: d, Normal: up},
		})
		require.Len(t, hulls, 1)
		h := hulls[0]
		assert.False(t, h.Closed)
		assert.Equal(t, []geom.Point3{a, b, c, d}, h.Points)
		assert.Equal(t, []geom.Point3{down, right, up}, h.Normals)
		assert.Equal(t, 3, h.Segments())
		assert.Equal(t, h.Points, h.Ring())
	})

	t.Run("two loops", func(t *testing.T) {
		off := geom.P(10, 0, 0)
		var edges []Edge
		for _, shift := range []geom.Point3{{}, off} {
			edges = append(edges,
				Edge{P1: a.Add(shift), P2: b.Add(shift), Normal: down},
				Edge{P1: b.Add(shift), P2: c.Add(shift), Normal: right},
				Edge{P1: c.Add(shift), P2: d.Add(shift), Normal: up},
				Edge{P1: d.Add(shift), P2: a.Add(shift), Normal: left},
			)
		}
		hulls := Stitch(edges)
		require.Len(t, hulls, 2)
		assert.Equal(t, a, hulls[0].Points[0])
		assert.Equal(t, a.Add(off), hulls[1].Points[0])
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, Stitch(nil))
	})
}

func hasPoint(pts []geom.Point3, p geom.Point3) bool {
	for _, q := range pts {
		if geom.SimilarPoints(p, q, 1e-9) {
			return true
		}
	}
	return false
}
