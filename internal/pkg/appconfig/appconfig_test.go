package appconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "pipeline_crawler", cfg.Crawler.Name)
	assert.Equal(t, "orders_parquet_datalake", cfg.Output.Prefix)
	assert.Equal(t, "orders_", cfg.Output.FilePrefix)
	assert.Equal(t, "snappy", cfg.Output.Compression)
	assert.Equal(t, "", cfg.Output.Bucket)
	assert.True(t, cfg.Log.Enabled)
	assert.Equal(t, 256, cfg.Notify.ChanSize)
	assert.False(t, cfg.AWS.UsePathStyle)
}

func TestLoadEnvOverride(t *testing.T) {

	t.Setenv("ORDERLAKE_CRAWLER_NAME", "orders_crawler")
	t.Setenv("ORDERLAKE_OUTPUT_FILE_PREFIX", "flat_")
	t.Setenv("ORDERLAKE_OUTPUT_BUCKET", "curated")
	t.Setenv("ORDERLAKE_OUTPUT_COMPRESSION", "zstd")
	t.Setenv("ORDERLAKE_AWS_ENDPOINT", "http://localhost:4566")
	t.Setenv("ORDERLAKE_AWS_USE_PATH_STYLE", "true")
	t.Setenv("ORDERLAKE_LOG_LEVEL", "debug")
	t.Setenv("ORDERLAKE_NOTIFY_CHAN_SIZE", "16")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "orders_crawler", cfg.Crawler.Name)
	assert.Equal(t, "flat_", cfg.Output.FilePrefix)
	assert.Equal(t, "curated", cfg.Output.Bucket)
	assert.Equal(t, "zstd", cfg.Output.Compression)
	assert.Equal(t, "http://localhost:4566", cfg.AWS.Endpoint)
	assert.True(t, cfg.AWS.UsePathStyle)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 16, cfg.Notify.ChanSize)
}

func TestLoadConfigFile(t *testing.T) {

	dir := t.TempDir()
	content := []byte("crawler:\n  name: file_crawler\noutput:\n  prefix: lake/orders\nlog:\n  enabled: false\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orderlake.yaml"), content, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "file_crawler", cfg.Crawler.Name)
	assert.Equal(t, "lake/orders", cfg.Output.Prefix)
	assert.Equal(t, "orders_", cfg.Output.FilePrefix)
	assert.False(t, cfg.Log.Enabled)

	// Env takes precedence over file
	t.Setenv("ORDERLAKE_CRAWLER_NAME", "env_crawler")
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "env_crawler", cfg.Crawler.Name)
}

func TestLoadValidation(t *testing.T) {

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"invalid compression", "ORDERLAKE_OUTPUT_COMPRESSION", "brotli"},
		{"invalid log level", "ORDERLAKE_LOG_LEVEL", "verbose"},
		{"negative chan size", "ORDERLAKE_NOTIFY_CHAN_SIZE", "-1"},
		{"access key without secret", "ORDERLAKE_AWS_ACCESS_KEY", "AKIA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(t.TempDir())
			assert.Error(t, err)
		})
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orderlake.yaml"), []byte("crawler: [unterminated"), 0o600))
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadAWSConfig(t *testing.T) {

	t.Setenv("ORDERLAKE_AWS_REGION", "eu-north-1")
	t.Setenv("ORDERLAKE_AWS_ACCESS_KEY", "AKIDEXAMPLE")
	t.Setenv("ORDERLAKE_AWS_SECRET_KEY", "secret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	awsCfg, err := cfg.LoadAWSConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "eu-north-1", awsCfg.Region)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
}
