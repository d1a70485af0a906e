package storage

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"autolabel/internal/domain/entity"
	"autolabel/internal/domain/port"
)

// ConfigProber читает размеры из заголовка изображения
type ConfigProber struct{}

// NewConfigProber создаёт пробер размеров
func NewConfigProber() *ConfigProber {
	return &ConfigProber{}
}

// Dimensions возвращает ширину и высоту в пикселях
func (p *ConfigProber) Dimensions(imagePath string) (int, int, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", entity.ErrUnreadableImage, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %v", entity.ErrUnreadableImage, imagePath, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Проверка реализации интерфейса
var _ port.ImageProber = (*ConfigProber)(nil)
