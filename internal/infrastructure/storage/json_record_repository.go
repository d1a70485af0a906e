package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"autolabel/internal/domain/entity"
	"autolabel/internal/domain/port"
)

// JSONRecordRepository хранит разметку в JSON-файлах, по файлу на изображение
type JSONRecordRepository struct {
	prober port.ImageProber
}

// NewJSONRecordRepository создаёт файловое хранилище разметки
func NewJSONRecordRepository(prober port.ImageProber) *JSONRecordRepository {
	return &JSONRecordRepository{prober: prober}
}

// Exists сообщает, лежит ли по пути обычный файл
func (r *JSONRecordRepository) Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat record: %w", err)
}

// Load читает и разбирает файл разметки
func (r *JSONRecordRepository) Load(path string) (*entity.AnnotationRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}

	var record entity.AnnotationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrCorruptRecord, path, err)
	}

	if err := validateRecord(&record); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrCorruptRecord, path, err)
	}
	if record.Flags == nil {
		record.Flags = map[string]any{}
	}

	return &record, nil
}

// validateRecord проверяет поля, без которых разметку нельзя дописать и сохранить.
func validateRecord(record *entity.AnnotationRecord) error {
	switch {
	case record.Version == "":
		return errors.New("missing version")
	case record.Shapes == nil:
		return errors.New("missing shapes")
	case record.ImagePath == "":
		return errors.New("missing imagePath")
	case record.ImageWidth <= 0 || record.ImageHeight <= 0:
		return fmt.Errorf("invalid image size %dx%d", record.ImageWidth, record.ImageHeight)
	}

	for i, shape := range record.Shapes {
		if shape.Label == "" {
			return fmt.Errorf("shape %d: missing label", i)
		}
		if shape.Points == nil {
			return fmt.Errorf("shape %d: missing points", i)
		}
	}
	return nil
}

// CreateForImage создаёт пустую разметку, размеры берутся из файла изображения
func (r *JSONRecordRepository) CreateForImage(imagePath string) (*entity.AnnotationRecord, error) {
	width, height, err := r.prober.Dimensions(imagePath)
	if err != nil {
		return nil, err
	}
	return entity.NewAnnotationRecord(imagePath, width, height), nil
}

// Save пишет разметку во временный файл рядом и переименовывает его поверх старого
func (r *JSONRecordRepository) Save(path string, record *entity.AnnotationRecord) error {
	data, err := encodeRecord(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp record: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp record: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace record: %w", err)
	}
	return nil
}

// encodeRecord сериализует с отступом в 2 пробела и без экранирования HTML-символов
func encodeRecord(record *entity.AnnotationRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Проверка реализации интерфейса
var _ port.RecordRepository = (*JSONRecordRepository)(nil)
