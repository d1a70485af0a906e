package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	BackendONNX   = "onnx"
	BackendGoCV   = "gocv"
	BackendRemote = "remote"
)

type Config struct {
	Backend        string
	Confidence     float64
	IOU            float64
	Workers        int
	LogLevel       string
	ONNXRuntimeLib string
	InferenceURL   string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		Backend:        getEnv("AUTOLABEL_BACKEND", BackendONNX),
		Confidence:     0.25,
		IOU:            0.85,
		Workers:        1,
		LogLevel:       getEnv("AUTOLABEL_LOG_LEVEL", "info"),
		ONNXRuntimeLib: os.Getenv("ONNXRUNTIME_LIB"),
		InferenceURL:   os.Getenv("INFERENCE_URL"),
	}

	var err error
	if cfg.Confidence, err = getFloat("AUTOLABEL_CONF", cfg.Confidence); err != nil {
		return nil, err
	}
	if cfg.IOU, err = getFloat("AUTOLABEL_IOU", cfg.IOU); err != nil {
		return nil, err
	}
	if cfg.Workers, err = getInt("AUTOLABEL_WORKERS", cfg.Workers); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewLogger создаёт logrus-логгер с полными метками времени.
func NewLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
