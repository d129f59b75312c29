package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scntm/scanner/internal/config"
)

func TestBuild_ConsoleOnly(t *testing.T) {
	cfg := config.LogConfig{Level: "debug", Format: "console", EnableConsole: true}

	log, err := NewBuilder(cfg).Build()
	require.NoError(t, err)
	assert.Equal(t, "debug", log.GetLevel().String())
}

func TestBuild_FileWithoutPathFails(t *testing.T) {
	cfg := config.LogConfig{EnableFile: true}

	_, err := NewBuilder(cfg).Build()
	assert.Error(t, err)
}

func TestBuild_FileWriterUsesScanSubdir(t *testing.T) {
	dir := t.TempDir()
	cfg := config.LogConfig{
		EnableFile: true,
		FilePath:   dir + "/scan.log",
		MaxSizeMB:  10,
	}

	_, err := NewBuilder(cfg).WithScanID("abc123").Build()
	require.NoError(t, err)
	assert.DirExists(t, dir+"/scans/abc123")
}
