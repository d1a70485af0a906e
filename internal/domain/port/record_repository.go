package port

import "autolabel/internal/domain/entity"

// RecordRepository интерфейс хранилища файлов разметки
type RecordRepository interface {
	// Exists сообщает, есть ли уже разметка по пути
	Exists(path string) (bool, error)

	// Load читает разметку, ErrCorruptRecord если файл не разбирается
	Load(path string) (*entity.AnnotationRecord, error)

	// CreateForImage создаёт пустую разметку с размерами изображения
	CreateForImage(imagePath string) (*entity.AnnotationRecord, error)

	// Save целиком перезаписывает разметку
	Save(path string, record *entity.AnnotationRecord) error
}

// ImageProber читает размеры изображения без полного декодирования
type ImageProber interface {
	Dimensions(imagePath string) (width, height int, err error)
}
