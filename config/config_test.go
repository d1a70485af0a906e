package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"AUTOLABEL_BACKEND", "AUTOLABEL_CONF", "AUTOLABEL_IOU", "AUTOLABEL_WORKERS", "AUTOLABEL_LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, BackendONNX, cfg.Backend)
	require.Equal(t, 0.25, cfg.Confidence)
	require.Equal(t, 0.85, cfg.IOU)
	require.Equal(t, 1, cfg.Workers)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("AUTOLABEL_BACKEND", BackendRemote)
	t.Setenv("AUTOLABEL_CONF", "0.5")
	t.Setenv("AUTOLABEL_IOU", "0.7")
	t.Setenv("AUTOLABEL_WORKERS", "4")
	t.Setenv("INFERENCE_URL", "http://localhost:8000/detect")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, BackendRemote, cfg.Backend)
	require.Equal(t, 0.5, cfg.Confidence)
	require.Equal(t, 0.7, cfg.IOU)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, "http://localhost:8000/detect", cfg.InferenceURL)
}

func TestLoad_InvalidNumber(t *testing.T) {
	t.Setenv("AUTOLABEL_WORKERS", "many")

	_, err := Load()
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())

	_, err = NewLogger("loud")
	require.Error(t, err)
}
