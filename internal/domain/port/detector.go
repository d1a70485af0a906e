package port

import (
	"context"

	"autolabel/internal/domain/entity"
)

// ObjectDetector интерфейс внешней модели детекции
type ObjectDetector interface {
	// Detect возвращает объекты на изображении с уверенностью не ниже confThreshold
	Detect(ctx context.Context, imagePath string, confThreshold float64) ([]entity.RawDetection, error)

	// Close освобождает ресурсы модели
	Close() error
}

// Highlighter рисует найденные фигуры поверх изображения
type Highlighter interface {
	// Highlight сохраняет копию imagePath с рамками фигур в outPath
	Highlight(imagePath string, shapes []entity.DetectionShape, outPath string) error
}
