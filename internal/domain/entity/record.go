package entity

import (
	"encoding/json"
	"path/filepath"
)

// RecordVersion версия схемы файла разметки.
const RecordVersion = "2.4.4"

// AnnotationRecord разметка одного изображения.
type AnnotationRecord struct {
	Version     string           `json:"version"`
	Flags       map[string]any   `json:"flags"`
	Shapes      []DetectionShape `json:"shapes"`
	ImagePath   string           `json:"imagePath"`
	ImageData   *string          `json:"imageData"`
	ImageHeight int              `json:"imageHeight"`
	ImageWidth  int              `json:"imageWidth"`

	// Extra ключи верхнего уровня, которые конвейер не знает.
	Extra map[string]json.RawMessage `json:"-"`
}

// NewAnnotationRecord создаёт пустую разметку для изображения с известными размерами.
func NewAnnotationRecord(imagePath string, width, height int) *AnnotationRecord {
	return &AnnotationRecord{
		Version:     RecordVersion,
		Flags:       map[string]any{},
		Shapes:      []DetectionShape{},
		ImagePath:   filepath.Base(imagePath),
		ImageHeight: height,
		ImageWidth:  width,
	}
}

// Append добавляет фигуры в конец без дедупликации.
func (r *AnnotationRecord) Append(shapes ...DetectionShape) {
	r.Shapes = append(r.Shapes, shapes...)
}
