package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lightwaver/gallerix/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.LoadConfig("missing.yaml")
	require.NoError(t, err)

	assert.Equal(t, 360, cfg.Media.ThumbMaxSize)
	assert.Equal(t, 1200, cfg.Media.PreviewMaxSize)
	assert.Equal(t, 82, cfg.Media.Quality)
	assert.Equal(t, 50_000_000, cfg.Media.MaxSourcePixels)
	assert.Equal(t, time.Hour, cfg.S3Config.TransferTimeout)
	assert.Equal(t, 86400, cfg.JWT.ExpiresIn)
	assert.Equal(t, "gallerix", cfg.JWT.Issuer)
	assert.Equal(t, "gallerix_token", cfg.Cookie.Name)
	assert.Equal(t, "thumbs", cfg.Containers.Thumbs)
}

func TestLoadConfig_YAMLThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	yamlBody := `
serverAddr: ":9090"
s3Config:
  timeout: 5s
jwt:
  issuer: from-yaml
media:
  thumb_max_size: 200
  quality: 150
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	t.Setenv("JWT_ISSUER", "from-env")
	t.Setenv("PREVIEW_MAX_SIZE", "9000")
	t.Setenv("CONTAINER_DATA", "media")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, 5*time.Second, cfg.S3Config.Timeout)
	assert.Equal(t, "from-env", cfg.JWT.Issuer)
	assert.Equal(t, 200, cfg.Media.ThumbMaxSize)
	assert.Equal(t, config.MaxRenditionSize, cfg.Media.PreviewMaxSize)
	assert.Equal(t, 100, cfg.Media.Quality)
	assert.Equal(t, "media", cfg.Containers.Data)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 16, config.ClampRenditionSize(1))
	assert.Equal(t, 4096, config.ClampRenditionSize(10000))
	assert.Equal(t, 360, config.ClampRenditionSize(360))
	assert.Equal(t, 1, config.ClampQuality(0))
	assert.Equal(t, 100, config.ClampQuality(101))
}
