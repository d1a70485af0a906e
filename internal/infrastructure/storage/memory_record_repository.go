package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"autolabel/internal/domain/entity"
	"autolabel/internal/domain/port"
)

// MemoryRecordRepository in-memory хранилище разметки для тестов и пробных прогонов
type MemoryRecordRepository struct {
	mu      sync.RWMutex
	records map[string]*entity.AnnotationRecord
	sizes   map[string][2]int
	saves   map[string]int
}

// NewMemoryRecordRepository создаёт пустое in-memory хранилище
func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{
		records: make(map[string]*entity.AnnotationRecord),
		sizes:   make(map[string][2]int),
		saves:   make(map[string]int),
	}
}

// SetImageSize задаёт размеры, которые вернёт CreateForImage
func (r *MemoryRecordRepository) SetImageSize(imagePath string, width, height int) {
	r.mu.Lock()
	r.sizes[imagePath] = [2]int{width, height}
	r.mu.Unlock()
}

// Exists сообщает, сохранялась ли разметка по пути
func (r *MemoryRecordRepository) Exists(path string) (bool, error) {
	r.mu.RLock()
	_, ok := r.records[path]
	r.mu.RUnlock()
	return ok, nil
}

// Load возвращает копию сохранённой разметки
func (r *MemoryRecordRepository) Load(path string) (*entity.AnnotationRecord, error) {
	r.mu.RLock()
	record, ok := r.records[path]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("read record: %w", os.ErrNotExist)
	}
	return cloneRecord(record), nil
}

// CreateForImage создаёт разметку по заранее заданным размерам
func (r *MemoryRecordRepository) CreateForImage(imagePath string) (*entity.AnnotationRecord, error) {
	r.mu.RLock()
	size, ok := r.sizes[imagePath]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnreadableImage, filepath.Base(imagePath))
	}
	return entity.NewAnnotationRecord(imagePath, size[0], size[1]), nil
}

// Save сохраняет копию разметки
func (r *MemoryRecordRepository) Save(path string, record *entity.AnnotationRecord) error {
	r.mu.Lock()
	r.records[path] = cloneRecord(record)
	r.saves[path]++
	r.mu.Unlock()

	return nil
}

// SaveCount возвращает число вызовов Save для пути
func (r *MemoryRecordRepository) SaveCount(path string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves[path]
}

func cloneRecord(record *entity.AnnotationRecord) *entity.AnnotationRecord {
	clone := *record
	clone.Shapes = make([]entity.DetectionShape, len(record.Shapes))
	copy(clone.Shapes, record.Shapes)
	return &clone
}

// Проверка реализации интерфейса
var _ port.RecordRepository = (*MemoryRecordRepository)(nil)
