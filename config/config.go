// Package config handles application configuration management.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-mach/apperrors"
)

// AppName and Version identify the application in logs, health checks and
// outbound requests
const (
	AppName = "Sonido Mach"
	Version = "0.2.0"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server      ServerConfig
	Limits      LimitsConfig
	Audio       AudioConfig
	Log         LogConfig
	PresetsFile string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address string
	// AllowedOrigins is the Access-Control-Allow-Origin value
	AllowedOrigins string
	// GinMode is one of debug, release or test
	GinMode      string
	FetchTimeout time.Duration
	// Workers bounds how many requests run the pipeline at once
	Workers         int
	ShutdownTimeout time.Duration
	TempDir         string
}

// LimitsConfig holds the serving policy thresholds.
type LimitsConfig struct {
	MaxDurationS float64
	MaxUploadMB  float64
}

// AudioConfig holds decoder tool locations.
type AudioConfig struct {
	FFmpegPath  string
	FFprobePath string
}

// LogConfig selects the logging backend and verbosity.
type LogConfig struct {
	// Format is "json" for zap, anything else for the default logger
	Format string
	Level  string
}

// Load reads configuration from MACH_* environment variables.
func Load() (*Config, error) {
	var errs []string
	intEnv := func(key string, def int) int {
		v, err := getEnvInt(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	floatEnv := func(key string, def float64) float64 {
		v, err := getEnvFloat(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	durationEnv := func(key string, def time.Duration) time.Duration {
		v, err := getEnvDuration(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Address:         getEnv("MACH_ADDR", ":8000"),
			AllowedOrigins:  getEnv("MACH_ALLOWED_ORIGINS", "*"),
			GinMode:         getEnv("MACH_GIN_MODE", "release"),
			FetchTimeout:    durationEnv("MACH_FETCH_TIMEOUT", 30*time.Second),
			Workers:         intEnv("MACH_WORKERS", 2),
			ShutdownTimeout: durationEnv("MACH_SHUTDOWN_TIMEOUT", 10*time.Second),
			TempDir:         getEnv("MACH_TEMP_DIR", os.TempDir()),
		},
		Limits: LimitsConfig{
			MaxDurationS: floatEnv("MACH_MAX_DURATION_S", 600),
			MaxUploadMB:  floatEnv("MACH_MAX_UPLOAD_MB", 50),
		},
		Audio: AudioConfig{
			FFmpegPath:  getEnv("MACH_FFMPEG", "ffmpeg"),
			FFprobePath: getEnv("MACH_FFPROBE", "ffprobe"),
		},
		Log: LogConfig{
			Format: getEnv("MACH_LOG_FORMAT", "text"),
			Level:  getEnv("MACH_LOG_LEVEL", "info"),
		},
		PresetsFile: getEnv("MACH_PRESETS_FILE", ""),
	}

	if len(errs) > 0 {
		return nil, apperrors.Validation("invalid environment: %s", strings.Join(errs, "; "))
	}
	if cfg.Server.Workers < 1 {
		return nil, apperrors.Validation("MACH_WORKERS must be at least 1, got %d", cfg.Server.Workers).WithField("MACH_WORKERS")
	}
	if cfg.Limits.MaxUploadMB <= 0 {
		return nil, apperrors.Validation("MACH_MAX_UPLOAD_MB must be positive, got %g", cfg.Limits.MaxUploadMB).WithField("MACH_MAX_UPLOAD_MB")
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable key, or defaultValue if unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, apperrors.Validation("%s must be an integer, got %q", key, value)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue, apperrors.Validation("%s must be a number, got %q", key, value)
	}
	return f, nil
}

// getEnvDuration accepts Go durations ("30s") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return defaultValue, apperrors.Validation("%s must be a duration, got %q", key, value)
}
