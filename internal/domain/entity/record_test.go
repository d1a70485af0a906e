package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAnnotationRecord(t *testing.T) {
	r := NewAnnotationRecord("/data/images/sub/cat.jpg", 640, 480)

	require.Equal(t, RecordVersion, r.Version)
	require.Equal(t, "cat.jpg", r.ImagePath)
	require.Equal(t, 640, r.ImageWidth)
	require.Equal(t, 480, r.ImageHeight)
	require.Nil(t, r.ImageData)
	require.NotNil(t, r.Shapes)
	require.Empty(t, r.Shapes)
}

func TestAnnotationRecord_AppendKeepsOrder(t *testing.T) {
	r := NewAnnotationRecord("a.jpg", 10, 10)
	r.Append(NewDetectionShape("cat", 0.9, BoundingBox{X2: 1, Y2: 1}))
	r.Append(NewDetectionShape("dog", 0.8, BoundingBox{X2: 2, Y2: 2}), NewDetectionShape("cat", 0.7, BoundingBox{X2: 3, Y2: 3}))

	require.Len(t, r.Shapes, 3)
	require.Equal(t, []string{"cat", "dog", "cat"}, []string{r.Shapes[0].Label, r.Shapes[1].Label, r.Shapes[2].Label})
}

func TestNewDetectionShape(t *testing.T) {
	s := NewDetectionShape("cat", 0.42, BoundingBox{X1: 1, Y1: 2, X2: 3, Y2: 4})

	require.Equal(t, ShapeTypeRectangle, s.ShapeType)
	require.NotNil(t, s.Score)
	require.Equal(t, 0.42, *s.Score)
	require.Len(t, s.Points, 4)

	box, err := s.Box()
	require.NoError(t, err)
	require.Equal(t, BoundingBox{X1: 1, Y1: 2, X2: 3, Y2: 4}, box)
}

func TestLabelFor(t *testing.T) {
	labels := []string{"cat", "dog"}
	require.Equal(t, "dog", LabelFor(labels, 1))
	require.Equal(t, UnknownLabel, LabelFor(labels, 2))
	require.Equal(t, UnknownLabel, LabelFor(labels, -1))
}
