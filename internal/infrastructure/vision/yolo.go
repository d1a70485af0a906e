package vision

import (
	"fmt"
	"sort"

	"autolabel/internal/domain/entity"
)

const (
	// InputSize сторона квадратного входа YOLO-модели.
	InputSize = 640
	// NMSThreshold IoU для подавления пересекающихся рамок одного класса.
	NMSThreshold = 0.7
	// MaxDetections предел числа объектов на изображение.
	MaxDetections = 300
)

// yoloLayout описывает выход вида 1 x (4+nc) x N: строки cx, cy, w, h и оценки классов.
type yoloLayout struct {
	numClasses  int
	predictions int
}

func newYOLOLayout(outputLen, numClasses int) (yoloLayout, error) {
	rows := 4 + numClasses
	if numClasses <= 0 || outputLen == 0 || outputLen%rows != 0 {
		return yoloLayout{}, fmt.Errorf("unexpected output length %d for %d classes", outputLen, numClasses)
	}
	return yoloLayout{numClasses: numClasses, predictions: outputLen / rows}, nil
}

// decodeYOLO переводит выход модели в рамки исходного изображения с уверенностью не ниже conf.
func decodeYOLO(output []float32, layout yoloLayout, conf float64, origWidth, origHeight int) []entity.RawDetection {
	n := layout.predictions
	scaleX := float64(origWidth) / InputSize
	scaleY := float64(origHeight) / InputSize

	detections := make([]entity.RawDetection, 0, 64)
	for i := 0; i < n; i++ {
		classID, score := 0, float32(0)
		for c := 0; c < layout.numClasses; c++ {
			if v := output[(4+c)*n+i]; v > score {
				score = v
				classID = c
			}
		}
		if float64(score) < conf {
			continue
		}

		cx := float64(output[i])
		cy := float64(output[n+i])
		w := float64(output[2*n+i])
		h := float64(output[3*n+i])

		box := entity.BoundingBox{
			X1: (cx - w/2) * scaleX,
			Y1: (cy - h/2) * scaleY,
			X2: (cx + w/2) * scaleX,
			Y2: (cy + h/2) * scaleY,
		}.Clip(float64(origWidth), float64(origHeight))

		detections = append(detections, entity.RawDetection{
			ClassIndex: classID,
			Confidence: float64(score),
			Box:        box,
		})
	}

	sortByConfidence(detections)
	return detections
}

// nonMaxSuppression жадно оставляет самые уверенные рамки, подавляя рамки того же класса с IoU > threshold.
// Вход должен быть отсортирован по убыванию уверенности.
func nonMaxSuppression(detections []entity.RawDetection, threshold float64, limit int) []entity.RawDetection {
	kept := make([]entity.RawDetection, 0, len(detections))
	suppressed := make([]bool, len(detections))

	for i := range detections {
		if suppressed[i] {
			continue
		}
		kept = append(kept, detections[i])
		if limit > 0 && len(kept) == limit {
			break
		}
		for j := i + 1; j < len(detections); j++ {
			if suppressed[j] || detections[j].ClassIndex != detections[i].ClassIndex {
				continue
			}
			if entity.IOU(detections[i].Box, detections[j].Box) > threshold {
				suppressed[j] = true
			}
		}
	}

	return kept
}

func sortByConfidence(detections []entity.RawDetection) {
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})
}
