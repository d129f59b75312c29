// Package logger builds zerolog.Logger instances from a config.LogConfig,
// mirroring the writer-strategy/builder pattern this codebase uses
// everywhere else: a fluent builder picks writers, wires them into a
// zerolog.MultiLevelWriter, and redirects the standard library logger so
// third-party code that calls log.Print ends up structured too.
package logger

import (
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/scntm/scanner/internal/config"
	scntmerrors "github.com/scntm/scanner/internal/errors"
)

// Format selects the writer strategy.
type Format int

const (
	FormatConsole Format = iota
	FormatJSON
	FormatText
)

func parseFormat(s string) Format {
	switch s {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Builder fluently assembles a zerolog.Logger from a LogConfig.
type Builder struct {
	cfg   config.LogConfig
	scanID string
}

func NewBuilder(cfg config.LogConfig) *Builder {
	return &Builder{cfg: cfg}
}

// WithScanID namespaces file output under a per-scan subdirectory so each
// scan session keeps its own log files.
func (b *Builder) WithScanID(scanID string) *Builder {
	b.scanID = scanID
	return b
}

// Build validates the configuration and returns the assembled logger.
func (b *Builder) Build() (zerolog.Logger, error) {
	if b.cfg.EnableFile && b.cfg.FilePath == "" {
		return zerolog.Logger{}, scntmerrors.NewValidationError("file_path", b.cfg.FilePath, "file path required when file logging enabled")
	}

	var writers []io.Writer
	if b.cfg.EnableConsole || !b.cfg.EnableFile {
		writers = append(writers, consoleWriter(parseFormat(b.cfg.Format)))
	}
	if b.cfg.EnableFile {
		writers = append(writers, fileWriter(b.cfg, b.scanID))
	}

	multi := zerolog.MultiLevelWriter(writers...)
	lvl := parseLevel(b.cfg.Level)
	log := zerolog.New(multi).Level(lvl).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(lvl)
	stdlog.SetOutput(log)
	stdlog.SetFlags(0)

	return log, nil
}

func consoleWriter(format Format) io.Writer {
	if format == FormatJSON {
		return os.Stderr
	}
	return zerolog.ConsoleWriter{Out: os.Stderr, NoColor: format == FormatText}
}

func fileWriter(cfg config.LogConfig, scanID string) io.Writer {
	path := cfg.FilePath
	if scanID != "" {
		dir := filepath.Join(filepath.Dir(path), "scans", scanID)
		path = filepath.Join(dir, filepath.Base(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		path = cfg.FilePath
	}

	ljLogger := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}

	if parseFormat(cfg.Format) == FormatConsole {
		return zerolog.ConsoleWriter{Out: ljLogger, NoColor: true}
	}
	return ljLogger
}

// New is a convenience wrapper for callers that do not need WithScanID.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	return NewBuilder(cfg).Build()
}
