package entity

import "encoding/json"

// ShapeTypeRectangle единственный тип фигуры, который создаёт этот конвейер.
const ShapeTypeRectangle = "rectangle"

// DetectionShape одна размеченная область изображения.
// Вспомогательные поля логика слияния не читает, но сохраняет как есть.
type DetectionShape struct {
	Label       string          `json:"label"`
	Score       *float64        `json:"score,omitempty"`
	Points      PointPolygon    `json:"points"`
	GroupID     json.RawMessage `json:"group_id"`
	Description string          `json:"description"`
	Difficult   bool            `json:"difficult"`
	ShapeType   string          `json:"shape_type"`
	Flags       map[string]any  `json:"flags"`
	Attributes  map[string]any  `json:"attributes"`
	KieLinking  []any           `json:"kie_linking"`

	// Extra ключи, которые конвейер не знает; сохраняются при перезаписи.
	Extra map[string]json.RawMessage `json:"-"`
}

// NewDetectionShape создаёт прямоугольную фигуру, полученную от модели.
func NewDetectionShape(label string, score float64, box BoundingBox) DetectionShape {
	return DetectionShape{
		Label:      label,
		Score:      &score,
		Points:     ToPolygon(box),
		ShapeType:  ShapeTypeRectangle,
		Flags:      map[string]any{},
		Attributes: map[string]any{},
		KieLinking: []any{},
	}
}

// Box возвращает рабочий прямоугольник фигуры.
func (s DetectionShape) Box() (BoundingBox, error) {
	return ToBox(s.Points)
}
