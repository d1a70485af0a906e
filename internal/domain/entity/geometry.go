package entity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// BoundingBox прямоугольник, выровненный по осям: (X1, Y1) левый верхний угол, (X2, Y2) правый нижний.
type BoundingBox struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// Point точка [x, y] в пикселях изображения.
type Point [2]float64

// PointPolygon четыре угла прямоугольника: левый верхний, правый верхний, правый нижний, левый нижний.
type PointPolygon []Point

// Width возвращает ширину прямоугольника
func (b BoundingBox) Width() float64 {
	return b.X2 - b.X1
}

// Height возвращает высоту прямоугольника
func (b BoundingBox) Height() float64 {
	return b.Y2 - b.Y1
}

// Area возвращает площадь, для вырожденного прямоугольника 0.
func (b BoundingBox) Area() float64 {
	if b.Width() <= 0 || b.Height() <= 0 {
		return 0
	}
	return b.Width() * b.Height()
}

// Valid проверяет инвариант X1 <= X2 и Y1 <= Y2.
func (b BoundingBox) Valid() bool {
	return b.X1 <= b.X2 && b.Y1 <= b.Y2
}

// Clip обрезает прямоугольник по границам изображения width x height.
func (b BoundingBox) Clip(width, height float64) BoundingBox {
	return BoundingBox{
		X1: math.Min(math.Max(b.X1, 0), width),
		Y1: math.Min(math.Max(b.Y1, 0), height),
		X2: math.Min(math.Max(b.X2, 0), width),
		Y2: math.Min(math.Max(b.Y2, 0), height),
	}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%.1f,%.1f)-(%.1f,%.1f)", b.X1, b.Y1, b.X2, b.Y2)
}

// ToPolygon переводит прямоугольник в четыре угла по часовой стрелке от левого верхнего.
func ToPolygon(b BoundingBox) PointPolygon {
	return PointPolygon{
		{b.X1, b.Y1},
		{b.X2, b.Y1},
		{b.X2, b.Y2},
		{b.X1, b.Y2},
	}
}

// ToBox возвращает описанный прямоугольник для ровно четырёх точек.
func ToBox(p PointPolygon) (BoundingBox, error) {
	if len(p) != 4 {
		return BoundingBox{}, fmt.Errorf("%w: expected 4 points, got %d", ErrInvalidShape, len(p))
	}

	xs := make([]float64, len(p))
	ys := make([]float64, len(p))
	for i, pt := range p {
		xs[i] = pt[0]
		ys[i] = pt[1]
	}

	return BoundingBox{
		X1: floats.Min(xs),
		Y1: floats.Min(ys),
		X2: floats.Max(xs),
		Y2: floats.Max(ys),
	}, nil
}

// IOU считает intersection over union двух прямоугольников.
// Касание краями и пустое объединение дают 0.
func IOU(a, b BoundingBox) float64 {
	x1 := math.Max(a.X1, b.X1)
	y1 := math.Max(a.Y1, b.Y1)
	x2 := math.Min(a.X2, b.X2)
	y2 := math.Min(a.Y2, b.Y2)

	if x2-x1 <= 0 || y2-y1 <= 0 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0
	}

	iou := intersection / union
	if iou > 1 {
		return 1
	}
	return iou
}
