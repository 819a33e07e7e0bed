package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"crop-health-monitor/internal/ndvi"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

// Config holds the application configuration
type Config struct {
	Server struct {
		Host        string
		Port        int
		Environment string
	}
	GRPC struct {
		Enabled bool
		Port    int
	}
	Analysis struct {
		Height        int
		Width         int
		CloudCoverage float64
		CloudSize     int
		CloudHandling ndvi.Policy
	}
	Render struct {
		Scale int
	}
	Logging LoggingConfig
}

// LoggingConfig configures the logrus logger
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads an optional .env file and reads the configuration from the environment
func LoadConfig() (*Config, error) {
	// A missing .env is fine, the process environment still applies
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the configuration from environment variables only
func FromEnv() (*Config, error) {
	cfg := &Config{}

	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Environment = getEnv("ENVIRONMENT", "development")

	cfg.GRPC.Enabled = getEnvBool("GRPC_ENABLED", true)
	cfg.GRPC.Port = getEnvInt("GRPC_PORT", 9090)

	cfg.Analysis.Height = getEnvInt("RASTER_HEIGHT", 100)
	cfg.Analysis.Width = getEnvInt("RASTER_WIDTH", 100)
	cfg.Analysis.CloudCoverage = getEnvFloat("CLOUD_COVERAGE", 0.2)
	cfg.Analysis.CloudSize = getEnvInt("CLOUD_SIZE", 10)
	policy, err := ndvi.ParsePolicy(getEnv("CLOUD_HANDLING", "show"))
	if err != nil {
		return nil, fmt.Errorf("CLOUD_HANDLING: %w", err)
	}
	cfg.Analysis.CloudHandling = policy

	cfg.Render.Scale = getEnvInt("RENDER_SCALE", 4)

	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnv("LOG_FORMAT", "json")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with
func (c *Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	case c.GRPC.Enabled && (c.GRPC.Port <= 0 || c.GRPC.Port > 65535):
		return fmt.Errorf("invalid GRPC_PORT %d", c.GRPC.Port)
	case c.GRPC.Enabled && c.GRPC.Port == c.Server.Port:
		return fmt.Errorf("GRPC_PORT and SERVER_PORT must differ (%d)", c.Server.Port)
	case c.Analysis.Height <= 0 || c.Analysis.Width <= 0:
		return fmt.Errorf("invalid raster size %dx%d", c.Analysis.Height, c.Analysis.Width)
	case c.Analysis.CloudCoverage < 0 || c.Analysis.CloudCoverage > 1:
		return fmt.Errorf("CLOUD_COVERAGE %v outside [0,1]", c.Analysis.CloudCoverage)
	case c.Analysis.CloudSize < 1:
		return fmt.Errorf("invalid CLOUD_SIZE %d", c.Analysis.CloudSize)
	case c.Render.Scale < 1 || c.Render.Scale > 32:
		return fmt.Errorf("RENDER_SCALE %d outside [1,32]", c.Render.Scale)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if f := strings.ToLower(c.Logging.Format); f != "json" && f != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

// HTTPAddr returns the listen address of the HTTP server
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GRPCAddr returns the listen address of the gRPC server
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.GRPC.Port)
}

// IsProduction reports whether gin should run in release mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// NewLogger builds the application logger
func NewLogger(cfg LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// getEnv returns the environment variable or the default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the int environment variable or the default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
