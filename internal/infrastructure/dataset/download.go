package dataset

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DownloadStats итог загрузки.
type DownloadStats struct {
	Downloaded int
	Failed     int
}

// Downloader скачивает изображения по списку URL.
type Downloader struct {
	client *http.Client
	log    logrus.FieldLogger
}

// NewDownloader создаёт загрузчик с таймаутом на один запрос.
func NewDownloader(timeout time.Duration, logger logrus.FieldLogger) *Downloader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Downloader{client: &http.Client{Timeout: timeout}, log: logger}
}

// ReadURLs читает URL по одному на строку. Пустые строки остаются на своих местах,
// чтобы индекс в имени файла совпадал с номером строки.
func ReadURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		urls = append(urls, strings.TrimSpace(scanner.Text()))
	}
	return urls, scanner.Err()
}

// ImageName имя файла для URL с индексом idx.
func ImageName(prefix string, idx int) string {
	return fmt.Sprintf("image_%s_%d.jpg", prefix, idx)
}

// Download сохраняет каждый URL как image_<prefix>_<idx>.jpg, где idx номер строки списка.
// Пустые строки пропускаются, ошибки отдельных URL логируются.
func (d *Downloader) Download(ctx context.Context, urls []string, outputDir, prefix string) (DownloadStats, error) {
	var stats DownloadStats

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return stats, fmt.Errorf("create output dir: %w", err)
	}

	for idx, url := range urls {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if url == "" {
			continue
		}

		path := filepath.Join(outputDir, ImageName(prefix, idx))
		log := d.log.WithFields(logrus.Fields{"url": url, "file": path})

		if err := d.fetch(ctx, url, path); err != nil {
			stats.Failed++
			log.WithError(err).Warn("Failed to download image")
			continue
		}
		stats.Downloaded++
		log.Info("Downloaded image")
	}

	return stats, nil
}

func (d *Downloader) fetch(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
