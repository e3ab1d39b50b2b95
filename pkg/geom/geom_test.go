package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaneIntersectsSegment(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 Point3
		z      float64
		want   bool
	}{
		{"straddles upward", P(0, 0, 0), P(0, 0, 2), 1, true},
		{"straddles downward", P(0, 0, 2), P(0, 0, 0), 1, true},
		{"entirely above", P(0, 0, 2), P(1, 0, 3), 1, false},
		{"entirely below", P(0, 0, -2), P(1, 0, 0), 1, false},
		{"first endpoint on plane", P(0, 0, 1), P(0, 0, 5), 1, true},
		{"second endpoint within tolerance", P(0, 0, 5), P(0, 0, 1+1e-6), 1, true},
		{"horizontal on plane", P(0, 0, 1), P(3, 0, 1), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlaneIntersectsSegment(tt.p1, tt.p2, tt.z, PlaneTolerance))
		})
	}
}

func TestInterpolateAtZ(t *testing.T) {
	t.Run("midpoint crossing", func(t *testing.T) {
		p, ok := InterpolateAtZ(P(0, 0, 0), P(2, 4, 2), 1, PlaneTolerance)
		require.True(t, ok)
		assert.InDelta(t, 1.0, p.X, 1e-12)
		assert.InDelta(t, 2.0, p.Y, 1e-12)
		assert.Equal(t, 1.0, p.Z)
	})
	t.Run("horizontal segment in plane returns first point", func(t *testing.T) {
		p, ok := InterpolateAtZ(P(3, 1, 1), P(5, 1, 1), 1, PlaneTolerance)
		require.True(t, ok)
		assert.Equal(t, P(3, 1, 1), p)
	})
	t.Run("horizontal segment off plane has no intersection", func(t *testing.T) {
		_, ok := InterpolateAtZ(P(3, 1, 0), P(5, 1, 0), 1, PlaneTolerance)
		assert.False(t, ok)
	})
}

func TestSimilarPoints(t *testing.T) {
	assert.True(t, SimilarPoints(P(1, 1, 1), P(1, 1, 1), 0))
	assert.True(t, SimilarPoints(P(1, 1, 1), P(1.004, 1.003, 1.002), PointTolerance))
	assert.False(t, SimilarPoints(P(1, 1, 1), P(1.004, 1.004, 1.004), PointTolerance))
}

func TestFaceNormalIsNotNormalized(t *testing.T) {
	n := FaceNormal(P(0, 0, 0), P(2, 0, 0), P(0, 3, 0))
	assert.Equal(t, P(0, 0, 6), n)
	assert.InDelta(t, 1.0, Unit(n).Length(), 1e-12)
}

func TestMaxNormalize(t *testing.T) {
	assert.Equal(t, P(-1, -0.5, 0.25), MaxNormalize(P(-4, -2, 1)))
	assert.Equal(t, Point3{}, MaxNormalize(Point3{}))
}

func TestBox(t *testing.T) {
	b := Bounds(P(1, 2, 3), P(-1, 5, 0), P(0, 0, 1))
	assert.Equal(t, P(-1, 0, 0), b.Min)
	assert.Equal(t, P(1, 5, 3), b.Max)
	assert.InDelta(t, 2*5*3, b.Volume(), 1e-12)
	assert.True(t, b.Contains(P(1.0000001, 5, 3), 1e-6))
	assert.False(t, b.Contains(P(2, 5, 3), 1e-6))
	assert.True(t, EmptyBox().Empty())
	assert.Equal(t, 0.0, EmptyBox().Volume())
}

func TestPointIndex(t *testing.T) {
	ix := NewPointIndex(PointTolerance)
	ix.Add(P(0, 0, 0), 0)
	ix.Add(P(1, 0, 0), 1)
	ix.Add(P(0.999, 0.001, 0), 2)

	assert.Equal(t, []int{1, 2}, ix.Near(P(1, 0, 0)))
	assert.Empty(t, ix.Near(P(0.5, 0.5, 0)))

	// Points straddling a cell boundary still find each other.
	id, added := ix.Intern(P(-0.004, 0.003, 0), 3)
	assert.False(t, added)
	assert.Equal(t, 0, id)

	id, added = ix.Intern(P(5, 5, 5), 3)
	assert.True(t, added)
	assert.Equal(t, 3, id)
	assert.Equal(t, 4, ix.Len())
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2.115, Round(2.1147, 3))
	assert.Equal(t, 1.0, Round(0.999999999, 8))
	assert.True(t, math.Abs(Round(-0.0000000001, 8)) == 0)
}
