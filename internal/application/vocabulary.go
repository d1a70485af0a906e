package app

import (
	"sort"

	"autolabel/internal/domain/entity"
)

// Vocabulary накопитель меток: порядок первого появления и число фигур на метку.
// Значение передаётся через свёртку явно, глобального состояния нет.
type Vocabulary struct {
	order      []string
	counts     map[string]int
	Files      int
	EmptyFiles int
}

// NewVocabulary создаёт пустой накопитель, опционально с уже известными метками.
func NewVocabulary(known ...string) Vocabulary {
	v := Vocabulary{counts: make(map[string]int)}
	for _, label := range known {
		if _, ok := v.counts[label]; ok {
			continue
		}
		v.order = append(v.order, label)
		v.counts[label] = 0
	}
	return v
}

// Add возвращает новый накопитель с учётом меток одной разметки.
func (v Vocabulary) Add(record *entity.AnnotationRecord) Vocabulary {
	next := Vocabulary{
		order:      append([]string(nil), v.order...),
		counts:     make(map[string]int, len(v.counts)),
		Files:      v.Files + 1,
		EmptyFiles: v.EmptyFiles,
	}
	for label, n := range v.counts {
		next.counts[label] = n
	}

	if len(record.Shapes) == 0 {
		next.EmptyFiles++
	}
	for _, shape := range record.Shapes {
		if _, ok := next.counts[shape.Label]; !ok {
			next.order = append(next.order, shape.Label)
		}
		next.counts[shape.Label]++
	}
	return next
}

// FoldRecords сворачивает разметки в накопитель.
func FoldRecords(acc Vocabulary, records []*entity.AnnotationRecord) Vocabulary {
	for _, r := range records {
		acc = acc.Add(r)
	}
	return acc
}

// Count число фигур с меткой.
func (v Vocabulary) Count(label string) int {
	return v.counts[label]
}

// Labels метки в порядке первого появления.
func (v Vocabulary) Labels() []string {
	return append([]string(nil), v.order...)
}

// ByFrequency метки по убыванию числа фигур, при равенстве в порядке первого появления.
func (v Vocabulary) ByFrequency() []string {
	labels := v.Labels()
	sort.SliceStable(labels, func(i, j int) bool {
		return v.counts[labels[i]] > v.counts[labels[j]]
	})
	return labels
}
