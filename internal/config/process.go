// Package config loads process-wide settings from the environment and
// discovers/parses the per-call kreuzberg.(toml|yaml|yml|json) config file
// surface.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// ProcessConfig holds process-wide settings: where the cache lives, how many
// workers service batch extraction, and where the Tesseract data directory is.
// The OCR worker pool is sized separately, from KREUZBERG_OCR_WORKERS.
type ProcessConfig struct {
	CacheDir          string
	CacheMaxAgeDays   float64
	CacheMaxSizeMB    float64
	CacheMinFreeMB    float64
	BatchWorkers      int
	TesseractDataPath string
	TempDir           string

	RedisURL    string
	DatabaseURL string
}

// LoadProcessConfig reads process-wide settings from the environment.
// RedisURL/DatabaseURL are read here only for internal/queue and
// internal/jobstore to consume if the caller opts into the queue front-end;
// the core extraction pipeline itself never requires them.
func LoadProcessConfig() *ProcessConfig {
	return &ProcessConfig{
		CacheDir:          getEnvOrDefault("KREUZBERG_CACHE_DIR", "./.kreuzberg"),
		CacheMaxAgeDays:   getEnvAsFloatOrDefault("KREUZBERG_CACHE_MAX_AGE_DAYS", 7),
		CacheMaxSizeMB:    getEnvAsFloatOrDefault("KREUZBERG_CACHE_MAX_SIZE_MB", 1024),
		CacheMinFreeMB:    getEnvAsFloatOrDefault("KREUZBERG_CACHE_MIN_FREE_MB", 500),
		BatchWorkers:      getEnvAsIntOrDefault("KREUZBERG_BATCH_WORKERS", 0),
		TesseractDataPath: getEnvOrDefault("TESSDATA_PREFIX", ""),
		TempDir:           getEnvOrDefault("KREUZBERG_TEMP_DIR", os.TempDir()),
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", ""),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// RequireEnv is for the queue/jobstore front-ends, which do have hard
// dependencies (Redis, Postgres) the core pipeline doesn't.
func RequireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return v, nil
}
