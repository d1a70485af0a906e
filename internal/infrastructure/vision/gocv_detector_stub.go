//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"autolabel/internal/domain/entity"
)

var errGoCVDisabled = errors.New("gocv build tag is not enabled")

// GoCVDetector заглушка для сборки без OpenCV.
type GoCVDetector struct {
	NMSThreshold float32
}

// NewGoCVDetector возвращает ошибку, если сборка без тега gocv.
func NewGoCVDetector(modelPath string, numClasses int) (*GoCVDetector, error) {
	_ = modelPath
	_ = numClasses
	return nil, errGoCVDisabled
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDetector) Detect(ctx context.Context, imagePath string, confThreshold float64) ([]entity.RawDetection, error) {
	_ = ctx
	_ = imagePath
	_ = confThreshold
	return nil, errGoCVDisabled
}

// Close ничего не делает.
func (d *GoCVDetector) Close() error {
	return nil
}
