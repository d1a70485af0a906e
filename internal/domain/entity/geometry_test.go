package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIOU_SelfIsOne(t *testing.T) {
	b := BoundingBox{X1: 10, Y1: 20, X2: 110, Y2: 70}
	require.InDelta(t, 1.0, IOU(b, b), 1e-9)
}

func TestIOU_Symmetric(t *testing.T) {
	a := BoundingBox{X1: 0, Y1: 0, X2: 50, Y2: 40}
	b := BoundingBox{X1: 25, Y1: 10, X2: 90, Y2: 60}
	require.Equal(t, IOU(a, b), IOU(b, a))
}

func TestIOU_Disjoint(t *testing.T) {
	a := BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10}
	b := BoundingBox{X1: 20, Y1: 20, X2: 30, Y2: 30}
	require.Zero(t, IOU(a, b))
}

func TestIOU_TouchingEdges(t *testing.T) {
	a := BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10}
	b := BoundingBox{X1: 10, Y1: 0, X2: 20, Y2: 10}
	require.Zero(t, IOU(a, b))
}

func TestIOU_HalfOverlap(t *testing.T) {
	// пересечение 50, объединение 150
	a := BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10}
	b := BoundingBox{X1: 5, Y1: 0, X2: 15, Y2: 10}
	require.InDelta(t, 1.0/3.0, IOU(a, b), 1e-9)
}

func TestIOU_QuarterContained(t *testing.T) {
	a := BoundingBox{X1: 0, Y1: 0, X2: 100, Y2: 100}
	b := BoundingBox{X1: 0, Y1: 0, X2: 50, Y2: 50}
	require.InDelta(t, 0.25, IOU(a, b), 1e-9)
}

func TestIOU_Degenerate(t *testing.T) {
	a := BoundingBox{X1: 5, Y1: 5, X2: 5, Y2: 5}
	require.Zero(t, IOU(a, a))
}

func TestPolygonRoundTrip(t *testing.T) {
	b := BoundingBox{X1: 1.5, Y1: 2, X2: 30, Y2: 44.25}

	poly := ToPolygon(b)
	require.Equal(t, PointPolygon{{1.5, 2}, {30, 2}, {30, 44.25}, {1.5, 44.25}}, poly)

	got, err := ToBox(poly)
	require.NoError(t, err)
	require.Equal(t, b, got)
}

func TestToBox_UnorderedPoints(t *testing.T) {
	got, err := ToBox(PointPolygon{{30, 44}, {1, 2}, {1, 44}, {30, 2}})
	require.NoError(t, err)
	require.Equal(t, BoundingBox{X1: 1, Y1: 2, X2: 30, Y2: 44}, got)
}

func TestToBox_WrongPointCount(t *testing.T) {
	for _, poly := range []PointPolygon{nil, {{0, 0}, {1, 1}}, {{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}} {
		_, err := ToBox(poly)
		require.True(t, errors.Is(err, ErrInvalidShape))
	}
}

func TestBoundingBox_Clip(t *testing.T) {
	b := BoundingBox{X1: -5, Y1: 10, X2: 700, Y2: 500}
	require.Equal(t, BoundingBox{X1: 0, Y1: 10, X2: 640, Y2: 480}, b.Clip(640, 480))
}
