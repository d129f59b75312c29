// Package config holds the scanner's tunables: crawl depth/page caps per
// mode, HTTP egress knobs, and which detector modules are enabled. Values
// are loaded from an optional YAML file, then overlaid with the SCANNER_*
// environment variables, then validated.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ScanMode selects the crawl depth/page budget and which detectors run.
type ScanMode string

const (
	ModeQuick ScanMode = "quick"
	ModeFull  ScanMode = "full"
)

// CrawlConfig bounds the BFS frontier per scan mode.
type CrawlConfig struct {
	MaxDepthQuick int `json:"max_depth_quick" yaml:"max_depth_quick" validate:"min=0"`
	MaxPagesQuick int `json:"max_pages_quick" yaml:"max_pages_quick" validate:"min=1"`
	MaxDepthFull  int `json:"max_depth_full" yaml:"max_depth_full" validate:"min=0"`
	MaxPagesFull  int `json:"max_pages_full" yaml:"max_pages_full" validate:"min=1"`
}

func (c CrawlConfig) MaxDepth(mode ScanMode) int {
	if mode == ModeFull {
		return c.MaxDepthFull
	}
	return c.MaxDepthQuick
}

func (c CrawlConfig) MaxPages(mode ScanMode) int {
	if mode == ModeFull {
		return c.MaxPagesFull
	}
	return c.MaxPagesQuick
}

// HTTPConfig governs the shared egress layer.
type HTTPConfig struct {
	RequestDelaySeconds float64           `json:"request_delay_seconds" yaml:"request_delay_seconds" validate:"min=0"`
	Concurrency         int               `json:"concurrency" yaml:"concurrency" validate:"min=1"`
	RequestTimeout      time.Duration     `json:"request_timeout" yaml:"request_timeout"`
	MaxRedirects        int               `json:"max_redirects" yaml:"max_redirects" validate:"min=0"`
	MaxRetries          int               `json:"max_retries" yaml:"max_retries" validate:"min=0"`
	BreakerThreshold    uint32            `json:"breaker_threshold" yaml:"breaker_threshold" validate:"min=1"`
	BreakerCooldown     time.Duration     `json:"breaker_cooldown" yaml:"breaker_cooldown"`
	UserAgent           string            `json:"user_agent" yaml:"user_agent"`
	CustomHeaders       map[string]string `json:"custom_headers" yaml:"custom_headers"`
	InsecureSkipVerify  bool              `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// ThrottleFloor is the hard minimum per-host delay the egress layer always enforces.
const ThrottleFloor = 2 * time.Second

// Delay returns the configured request delay floored at ThrottleFloor.
func (c HTTPConfig) Delay() time.Duration {
	d := time.Duration(c.RequestDelaySeconds * float64(time.Second))
	if d < ThrottleFloor {
		return ThrottleFloor
	}
	return d
}

// DetectorConfig selects which catalog modules run and the canary used for
// reflection-style oracles.
type DetectorConfig struct {
	CanaryPrefix    string   `json:"canary_prefix" yaml:"canary_prefix" validate:"required"`
	DisabledModules []string `json:"disabled_modules" yaml:"disabled_modules"`
}

// LogConfig drives internal/logger's builder.
type LogConfig struct {
	Level         string `json:"level" yaml:"level" validate:"omitempty,loglevel"`
	Format        string `json:"format" yaml:"format" validate:"omitempty,logformat"`
	EnableConsole bool   `json:"enable_console" yaml:"enable_console"`
	EnableFile    bool   `json:"enable_file" yaml:"enable_file"`
	FilePath      string `json:"file_path" yaml:"file_path"`
	MaxSizeMB     int    `json:"max_size_mb" yaml:"max_size_mb" validate:"omitempty,min=1"`
	MaxBackups    int    `json:"max_backups" yaml:"max_backups" validate:"omitempty,min=0"`
}

// ScannerConfig is the root configuration object.
type ScannerConfig struct {
	Crawl    CrawlConfig    `json:"crawl" yaml:"crawl"`
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Detector DetectorConfig `json:"detector" yaml:"detector"`
	Log      LogConfig      `json:"log" yaml:"log"`

	IncludeSubdomains bool     `json:"include_subdomains" yaml:"include_subdomains"`
	ExcludePatterns   []string `json:"exclude_patterns" yaml:"exclude_patterns"`
}

// NewDefaultScannerConfig returns the built-in configuration defaults.
func NewDefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		Crawl: CrawlConfig{
			MaxDepthQuick: 2,
			MaxPagesQuick: 20,
			MaxDepthFull:  5,
			MaxPagesFull:  100,
		},
		HTTP: HTTPConfig{
			RequestDelaySeconds: 2.0,
			Concurrency:         5,
			RequestTimeout:      15 * time.Second,
			MaxRedirects:        5,
			MaxRetries:          2,
			BreakerThreshold:    5,
			BreakerCooldown:     60 * time.Second,
			UserAgent:           "Mozilla/5.0 (compatible; ScntmScanner/1.0; +https://scntm.example/bot)",
			CustomHeaders:       map[string]string{},
		},
		Detector: DetectorConfig{
			CanaryPrefix: "scntm7x5s",
		},
		Log: LogConfig{
			Level:         "info",
			Format:        "console",
			EnableConsole: true,
			MaxSizeMB:     100,
			MaxBackups:    3,
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", "trace", "debug", "info", "warn", "error", "fatal", "panic":
			return true
		}
		return false
	})
	_ = v.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", "json", "console", "text":
			return true
		}
		return false
	})
	return v
}

// Validate checks struct tags and the throttle-floor cross-field rule.
func (c *ScannerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.HTTP.Delay() < ThrottleFloor {
		return fmt.Errorf("request delay %s below hard floor %s", c.HTTP.Delay(), ThrottleFloor)
	}
	return nil
}

// Load resolves a config file by priority (explicit path > SCNTM_CONFIG env
// var > ./config.yaml > built-in defaults), overlays SCANNER_* environment
// variables, and validates the result.
func Load(explicitPath string) (ScannerConfig, error) {
	cfg := NewDefaultScannerConfig()

	path := locate(explicitPath)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	overlayEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func locate(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	if p := os.Getenv("SCNTM_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

func overlayEnv(cfg *ScannerConfig) {
	if v, ok := envInt("SCANNER_MAX_DEPTH_QUICK"); ok {
		cfg.Crawl.MaxDepthQuick = v
	}
	if v, ok := envInt("SCANNER_MAX_PAGES_QUICK"); ok {
		cfg.Crawl.MaxPagesQuick = v
	}
	if v, ok := envInt("SCANNER_MAX_DEPTH_FULL"); ok {
		cfg.Crawl.MaxDepthFull = v
	}
	if v, ok := envInt("SCANNER_MAX_PAGES_FULL"); ok {
		cfg.Crawl.MaxPagesFull = v
	}
	if v, ok := envFloat("SCANNER_REQUEST_DELAY"); ok {
		cfg.HTTP.RequestDelaySeconds = v
	}
	if v, ok := envInt("SCANNER_CONCURRENCY"); ok {
		cfg.HTTP.Concurrency = v
	}
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
