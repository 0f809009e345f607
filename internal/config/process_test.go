package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProcessConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"KREUZBERG_CACHE_DIR", "KREUZBERG_CACHE_MAX_AGE_DAYS", "KREUZBERG_CACHE_MAX_SIZE_MB",
		"KREUZBERG_CACHE_MIN_FREE_MB", "KREUZBERG_BATCH_WORKERS", "TESSDATA_PREFIX",
		"KREUZBERG_TEMP_DIR", "REDIS_URL", "DATABASE_URL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := LoadProcessConfig()
	assert.Equal(t, "./.kreuzberg", cfg.CacheDir)
	assert.Equal(t, 7.0, cfg.CacheMaxAgeDays)
	assert.Equal(t, 1024.0, cfg.CacheMaxSizeMB)
	assert.Equal(t, 500.0, cfg.CacheMinFreeMB)
	assert.Equal(t, 0, cfg.BatchWorkers)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, "", cfg.DatabaseURL)
}

func TestLoadProcessConfig_EnvOverrides(t *testing.T) {
	t.Setenv("KREUZBERG_CACHE_DIR", "/tmp/custom-cache")
	t.Setenv("KREUZBERG_BATCH_WORKERS", "4")
	t.Setenv("KREUZBERG_CACHE_MAX_AGE_DAYS", "14.5")

	cfg := LoadProcessConfig()
	assert.Equal(t, "/tmp/custom-cache", cfg.CacheDir)
	assert.Equal(t, 4, cfg.BatchWorkers)
	assert.Equal(t, 14.5, cfg.CacheMaxAgeDays)
}

func TestLoadProcessConfig_InvalidNumericFallsBackToDefault(t *testing.T) {
	t.Setenv("KREUZBERG_BATCH_WORKERS", "not-a-number")
	cfg := LoadProcessConfig()
	assert.Equal(t, 0, cfg.BatchWorkers)
}

func TestRequireEnv_MissingReturnsError(t *testing.T) {
	os.Unsetenv("KREUZBERG_TEST_REQUIRED_VAR")
	_, err := RequireEnv("KREUZBERG_TEST_REQUIRED_VAR")
	assert.Error(t, err)
}

func TestRequireEnv_PresentReturnsValue(t *testing.T) {
	t.Setenv("KREUZBERG_TEST_REQUIRED_VAR", "value")
	v, err := RequireEnv("KREUZBERG_TEST_REQUIRED_VAR")
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}
