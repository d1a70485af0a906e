package entity

// RawDetection сырой результат модели: индекс класса, уверенность и прямоугольник в пикселях.
type RawDetection struct {
	ClassIndex int
	Confidence float64
	Box        BoundingBox
}

// UnknownLabel подставляется, если индекс класса не попадает в словарь меток.
const UnknownLabel = "unknown"

// LabelFor возвращает имя класса по индексу или UnknownLabel.
func LabelFor(labels []string, classIndex int) string {
	if classIndex < 0 || classIndex >= len(labels) {
		return UnknownLabel
	}
	return labels[classIndex]
}
