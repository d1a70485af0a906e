package container

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"autolabel/config"
	app "autolabel/internal/application"
	"autolabel/internal/domain/port"
	"autolabel/internal/infrastructure/storage"
	"autolabel/internal/infrastructure/vision"
)

type Container struct {
	Processor *app.Processor
	Dataset   *app.DatasetService
}

func New(detector port.ObjectDetector, records port.RecordRepository, highlighter port.Highlighter,
	labels []string, opts app.ProcessorOptions, logger logrus.FieldLogger) *Container {
	processor := app.NewProcessor(detector, records, highlighter, labels, opts, logger)
	datasetService := app.NewDatasetService(records, logger)

	return &Container{
		Processor: processor,
		Dataset:   datasetService,
	}
}

// NewRecordRepository файловое хранилище разметки.
func NewRecordRepository() port.RecordRepository {
	return storage.NewJSONRecordRepository(storage.NewConfigProber())
}

// NewDetector создаёт детектор выбранного бэкенда.
// Для onnx окружение onnxruntime должно быть уже инициализировано.
func NewDetector(cfg *config.Config, modelPath string, numClasses int) (port.ObjectDetector, error) {
	switch cfg.Backend {
	case config.BackendONNX, "":
		detector, err := vision.NewONNXDetector(modelPath, numClasses, max(cfg.Workers, 1))
		if err != nil {
			return nil, err
		}
		return detector, nil
	case config.BackendGoCV:
		detector, err := vision.NewGoCVDetector(modelPath, numClasses)
		if err != nil {
			return nil, err
		}
		return detector, nil
	case config.BackendRemote:
		if cfg.InferenceURL == "" {
			return nil, fmt.Errorf("INFERENCE_URL is required for the remote backend")
		}
		return vision.NewRemoteDetector(cfg.InferenceURL, 0), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
