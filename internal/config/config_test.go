package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultScannerConfig_Defaults(t *testing.T) {
	cfg := NewDefaultScannerConfig()

	assert.Equal(t, 2, cfg.Crawl.MaxDepthQuick)
	assert.Equal(t, 20, cfg.Crawl.MaxPagesQuick)
	assert.Equal(t, 5, cfg.Crawl.MaxDepthFull)
	assert.Equal(t, 100, cfg.Crawl.MaxPagesFull)
	assert.Equal(t, 2.0, cfg.HTTP.RequestDelaySeconds)
	assert.Equal(t, 5, cfg.HTTP.Concurrency)

	require.NoError(t, cfg.Validate())
}

func TestHTTPConfig_DelayFloor(t *testing.T) {
	cfg := NewDefaultScannerConfig()
	cfg.HTTP.RequestDelaySeconds = 0.5

	assert.Equal(t, ThrottleFloor, cfg.HTTP.Delay())
}

func TestOverlayEnv(t *testing.T) {
	t.Setenv("SCANNER_MAX_DEPTH_QUICK", "9")
	t.Setenv("SCANNER_CONCURRENCY", "11")
	t.Setenv("SCANNER_REQUEST_DELAY", "3.5")

	cfg := NewDefaultScannerConfig()
	overlayEnv(&cfg)

	assert.Equal(t, 9, cfg.Crawl.MaxDepthQuick)
	assert.Equal(t, 11, cfg.HTTP.Concurrency)
	assert.Equal(t, 3.5, cfg.HTTP.RequestDelaySeconds)
}

func TestLocate_PrefersExplicitPath(t *testing.T) {
	assert.Equal(t, "/tmp/explicit.yaml", locate("/tmp/explicit.yaml"))
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(cwd) }()

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "scntm7x5s", cfg.Detector.CanaryPrefix)
}
