package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "REDIS_ADDR", "CACHE_TTL", "DB_MAX_OPEN_CONNS", "S3_BUCKET"} {
		t.Setenv(key, "")
	}

	t.Setenv("CACHE_TTL", "bogus")
	t.Setenv("DB_MAX_OPEN_CONNS", "ten")
	t.Setenv("HTTP_ADDR", ":9000")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 5, cfg.DBMaxOpenConns)
	assert.Equal(t, int64(64<<20), cfg.MaxUploadBytes)
	assert.Empty(t, cfg.S3.Bucket)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://registry@localhost/registry")
	t.Setenv("CACHE_TTL", "15m")
	t.Setenv("DB_MAX_OPEN_CONNS", "12")
	t.Setenv("S3_BUCKET", "programs")

	cfg := Load()
	assert.Equal(t, "postgres://registry@localhost/registry", cfg.DatabaseURL)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 12, cfg.DBMaxOpenConns)
	assert.Equal(t, "programs", cfg.S3.Bucket)
}
