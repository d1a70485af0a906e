package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"autolabel/internal/domain/entity"
	"autolabel/internal/domain/port"
)

// RemoteDetector отправляет изображение во внешний сервис инференса
type RemoteDetector struct {
	inferenceURL string
	client       *http.Client
}

// NewRemoteDetector создаёт клиента сервиса инференса
func NewRemoteDetector(inferenceURL string, timeout time.Duration) *RemoteDetector {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RemoteDetector{
		inferenceURL: inferenceURL,
		client:       &http.Client{Timeout: timeout},
	}
}

type remoteDetection struct {
	Class      int        `json:"class"`
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"box"`
}

// Detect выполняет inference через внешний сервис
func (r *RemoteDetector) Detect(ctx context.Context, imagePath string, confThreshold float64) ([]entity.RawDetection, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnreadableImage, err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(imageData)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.WriteField("conf", strconv.FormatFloat(confThreshold, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("write conf field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", entity.ErrModelInference, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: inference failed with status: %d", entity.ErrModelInference, resp.StatusCode)
	}

	var result struct {
		Detections []remoteDetection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", entity.ErrModelInference, err)
	}

	detections := make([]entity.RawDetection, 0, len(result.Detections))
	for _, det := range result.Detections {
		// Сервис может не поддерживать поле conf, поэтому порог применяется ещё раз.
		if det.Confidence < confThreshold {
			continue
		}
		detections = append(detections, entity.RawDetection{
			ClassIndex: det.Class,
			Confidence: det.Confidence,
			Box: entity.BoundingBox{
				X1: min(det.Box[0], det.Box[2]),
				Y1: min(det.Box[1], det.Box[3]),
				X2: max(det.Box[0], det.Box[2]),
				Y2: max(det.Box[1], det.Box[3]),
			},
		})
	}

	return detections, nil
}

// Close ничего не держит
func (r *RemoteDetector) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// Проверка реализации интерфейса
var _ port.ObjectDetector = (*RemoteDetector)(nil)
