package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crop-health-monitor/internal/ndvi"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.GRPC.Port)
	assert.True(t, cfg.GRPC.Enabled)
	assert.Equal(t, 100, cfg.Analysis.Height)
	assert.Equal(t, 100, cfg.Analysis.Width)
	assert.Equal(t, 0.2, cfg.Analysis.CloudCoverage)
	assert.Equal(t, 10, cfg.Analysis.CloudSize)
	assert.Equal(t, ndvi.PolicyShow, cfg.Analysis.CloudHandling)
	assert.Equal(t, 4, cfg.Render.Scale)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("GRPC_ENABLED", "false")
	t.Setenv("GRPC_PORT", "9000")
	t.Setenv("CLOUD_COVERAGE", "0.45")
	t.Setenv("CLOUD_HANDLING", "Remove Clouds (Hide)")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("RASTER_HEIGHT", "not-a-number")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.False(t, cfg.GRPC.Enabled)
	assert.Equal(t, 0.45, cfg.Analysis.CloudCoverage)
	assert.Equal(t, ndvi.PolicyHide, cfg.Analysis.CloudHandling)
	assert.Equal(t, 100, cfg.Analysis.Height)
	assert.True(t, cfg.IsProduction())
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"CLOUD_COVERAGE": "1.5",
		"CLOUD_SIZE":     "0",
		"CLOUD_HANDLING": "blur",
		"LOG_LEVEL":      "loud",
		"LOG_FORMAT":     "xml",
		"RENDER_SCALE":   "100",
		"GRPC_PORT":      "8080",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(LoggingConfig{Level: "debug", Format: "text"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	logger = NewLogger(LoggingConfig{Level: "nonsense", Format: "json"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}
