package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "USR-001", cfg.CRM.DefaultOwnerID)
	assert.Equal(t, "Asia/Kolkata", cfg.CRM.Location.String())
	assert.Equal(t, 100, cfg.Seed.Leads)
	assert.Equal(t, 2*time.Second, cfg.Imports.ProcessingDelay)
	assert.Equal(t, int64(5*1024*1024), cfg.Imports.MaxFileSize)
	assert.Equal(t, 24*time.Hour, cfg.Imports.StatusTTL)
	assert.Equal(t, 6*time.Hour, cfg.Imports.UploadTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Audit.DatabaseEnabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("CRM_TIMEZONE", "UTC")
	v.Set("IMPORTS_PROCESSING_DELAY", "not-a-duration")
	v.Set("IMPORTS_WORKERS", 0)
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, time.UTC, cfg.CRM.Location)
	assert.Equal(t, 2*time.Second, cfg.Imports.ProcessingDelay)
	assert.Equal(t, 1, cfg.Imports.Workers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestUnknownTimezoneFails(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("CRM_TIMEZONE", "Mars/Olympus")

	_, err := fromViper(v)
	require.Error(t, err)
}
