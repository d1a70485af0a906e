//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"autolabel/internal/domain/entity"
	"autolabel/internal/domain/port"
)

// GoCVDetector запускает ONNX-модель через модуль DNN OpenCV.
type GoCVDetector struct {
	mu           sync.Mutex
	net          gocv.Net
	numClasses   int
	NMSThreshold float32
}

// NewGoCVDetector загружает модель; gocv.Net не потокобезопасен, вызовы Detect сериализуются.
func NewGoCVDetector(modelPath string, numClasses int) (*GoCVDetector, error) {
	if numClasses <= 0 {
		return nil, fmt.Errorf("model needs at least one class, got %d", numClasses)
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to read model %s", modelPath)
	}

	return &GoCVDetector{
		net:          net,
		numClasses:   numClasses,
		NMSThreshold: NMSThreshold,
	}, nil
}

// Detect возвращает объекты на изображении, отсортированные по убыванию уверенности.
func (d *GoCVDetector) Detect(ctx context.Context, imagePath string, confThreshold float64) ([]entity.RawDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat := gocv.IMRead(imagePath, gocv.IMReadColor)
	if mat.Empty() {
		return nil, fmt.Errorf("%w: failed to decode %s", entity.ErrUnreadableImage, imagePath)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(InputSize, InputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrModelInference, err)
	}

	layout, err := newYOLOLayout(len(data), d.numClasses)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrModelInference, err)
	}

	candidates := decodeYOLO(data, layout, confThreshold, mat.Cols(), mat.Rows())
	if len(candidates) == 0 {
		return candidates, nil
	}

	// Сдвигаем рамки на class*offset, чтобы NMSBoxes не подавлял рамки разных классов.
	offset := max(mat.Cols(), mat.Rows()) + 1
	rects := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		shift := c.ClassIndex * offset
		rects[i] = image.Rect(
			int(c.Box.X1)+shift, int(c.Box.Y1)+shift,
			int(c.Box.X2)+shift, int(c.Box.Y2)+shift,
		)
		scores[i] = float32(c.Confidence)
	}

	indices := gocv.NMSBoxes(rects, scores, float32(confThreshold), d.NMSThreshold)

	kept := make([]entity.RawDetection, 0, len(indices))
	for _, idx := range indices {
		kept = append(kept, candidates[idx])
		if len(kept) == MaxDetections {
			break
		}
	}
	sortByConfidence(kept)

	return kept, nil
}

// Close освобождает сеть OpenCV.
func (d *GoCVDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// Проверка реализации интерфейса
var _ port.ObjectDetector = (*GoCVDetector)(nil)
