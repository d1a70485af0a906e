package app

import "autolabel/internal/domain/entity"

// DefaultIOUThreshold порог IOU, выше которого новая фигура считается дублем существующей.
const DefaultIOUThreshold = 0.85

// VerdictKind решение по одной входящей фигуре.
type VerdictKind int

const (
	VerdictNovel     VerdictKind = iota // новая, будет добавлена
	VerdictDuplicate                    // дубль существующей фигуры с той же меткой
	VerdictInvalid                      // у фигуры не 4 точки
)

// Verdict решение по входящей фигуре и причина.
type Verdict struct {
	Shape entity.DetectionShape
	Kind  VerdictKind
	// Match индекс найденной существующей фигуры, -1 если совпадения нет.
	Match int
	IOU   float64
	Err   error
}

// FilterNovel возвращает входящие фигуры, которые не дублируют существующие, в исходном порядке.
func FilterNovel(incoming, existing []entity.DetectionShape, iouThreshold float64) []entity.DetectionShape {
	return NovelShapes(Classify(incoming, existing, iouThreshold))
}

// NovelShapes выбирает из решений только новые фигуры.
func NovelShapes(verdicts []Verdict) []entity.DetectionShape {
	novel := make([]entity.DetectionShape, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Kind == VerdictNovel {
			novel = append(novel, v.Shape)
		}
	}
	return novel
}

// Classify сравнивает каждую входящую фигуру только с существующими.
// Дубль: та же метка и IOU строго больше порога, побеждает первое совпадение в порядке existing.
// Входящие фигуры между собой не сравниваются.
func Classify(incoming, existing []entity.DetectionShape, iouThreshold float64) []Verdict {
	verdicts := make([]Verdict, 0, len(incoming))
	if len(incoming) == 0 {
		return verdicts
	}

	index := newLabelIndex(existing)

	for _, shape := range incoming {
		box, err := shape.Box()
		if err != nil {
			verdicts = append(verdicts, Verdict{Shape: shape, Kind: VerdictInvalid, Match: -1, Err: err})
			continue
		}

		verdict := Verdict{Shape: shape, Kind: VerdictNovel, Match: -1}
		for _, candidate := range index.candidates(shape.Label) {
			iou := entity.IOU(box, candidate.box)
			if iou > iouThreshold {
				verdict.Kind = VerdictDuplicate
				verdict.Match = candidate.pos
				verdict.IOU = iou
				break
			}
		}
		verdicts = append(verdicts, verdict)
	}

	return verdicts
}

type indexedBox struct {
	pos int
	box entity.BoundingBox
}

// labelIndex группирует существующие фигуры по метке, сохраняя их порядок.
// Фигуры с некорректными точками в сравнении не участвуют.
type labelIndex map[string][]indexedBox

func newLabelIndex(existing []entity.DetectionShape) labelIndex {
	index := make(labelIndex)
	for i, shape := range existing {
		box, err := shape.Box()
		if err != nil {
			continue
		}
		index[shape.Label] = append(index[shape.Label], indexedBox{pos: i, box: box})
	}
	return index
}

func (l labelIndex) candidates(label string) []indexedBox {
	return l[label]
}
