package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	LabelsFileName      = "labels.txt"
	FixedLabelsFileName = "fixed_labels.txt"
)

// LoadLabels читает словарь меток: одна метка на строку, пустые строки пропускаются.
// Индекс метки в списке совпадает с индексом класса модели.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		label := strings.TrimSpace(scanner.Text())
		if label == "" {
			continue
		}
		labels = append(labels, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}

	return labels, nil
}

// LoadLabelsIfExists как LoadLabels, но отсутствующий файл даёт пустой список.
func LoadLabelsIfExists(path string) ([]string, error) {
	labels, err := LoadLabels(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return labels, err
}

// WriteLabels пишет метки по одной на строку.
func WriteLabels(path string, labels []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create labels dir: %w", err)
	}

	var b strings.Builder
	for _, label := range labels {
		b.WriteString(label)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write labels: %w", err)
	}
	return nil
}
