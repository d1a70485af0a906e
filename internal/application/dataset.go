package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"autolabel/internal/domain/port"
)

// DatasetService операции над каталогом готовой разметки.
type DatasetService struct {
	records port.RecordRepository
	log     logrus.FieldLogger
}

func NewDatasetService(records port.RecordRepository, logger logrus.FieldLogger) *DatasetService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DatasetService{records: records, log: logger}
}

// CollectVocabulary сворачивает метки всех *.json в каталоге (без подкаталогов).
// При pruneEmpty файлы разметки без фигур удаляются.
func (s *DatasetService) CollectVocabulary(dir string, acc Vocabulary, pruneEmpty bool) (Vocabulary, error) {
	paths, err := recordFiles(dir)
	if err != nil {
		return acc, err
	}

	for _, path := range paths {
		record, err := s.records.Load(path)
		if err != nil {
			s.log.WithError(err).WithField("record", path).Warn("Skipping unreadable record")
			continue
		}

		acc = acc.Add(record)

		if pruneEmpty && len(record.Shapes) == 0 {
			if err := os.Remove(path); err != nil {
				s.log.WithError(err).WithField("record", path).Warn("Failed to remove empty record")
				continue
			}
			s.log.WithField("record", path).Info("Removed record without shapes")
		}
	}

	return acc, nil
}

// FixImagePaths переписывает imagePath каждой разметки на <stem>.jpg.
// Возвращает число исправленных файлов.
func (s *DatasetService) FixImagePaths(dir string) (int, error) {
	paths, err := recordFiles(dir)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, path := range paths {
		record, err := s.records.Load(path)
		if err != nil {
			s.log.WithError(err).WithField("record", path).Warn("Skipping unreadable record")
			continue
		}

		want := jpegNameFor(path)
		if record.ImagePath == want {
			continue
		}
		record.ImagePath = want

		if err := s.records.Save(path, record); err != nil {
			return fixed, fmt.Errorf("save %s: %w", path, err)
		}
		fixed++
		s.log.WithField("record", path).Debug("Fixed imagePath")
	}

	return fixed, nil
}

// MergeLabels дополняет известный список метками из разметки, сохраняя исходный порядок.
func MergeLabels(known []string, found Vocabulary) []string {
	return NewVocabulary(known...).merge(found)
}

func (v Vocabulary) merge(other Vocabulary) []string {
	labels := v.Labels()
	for _, label := range other.Labels() {
		if _, ok := v.counts[label]; !ok {
			labels = append(labels, label)
		}
	}
	return labels
}

func jpegNameFor(recordPath string) string {
	base := filepath.Base(recordPath)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return base + ".jpg"
}

func recordFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read records dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
