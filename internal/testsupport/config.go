package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"lessoncut/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "exports")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Export.RetryBackoffSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMaxRetries overrides the export retry budget.
func WithMaxRetries(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.MaxRetries = n
	}
}

// WithQuality overrides the default export quality preset.
func WithQuality(q string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.Quality = q
	}
}

// WithStubbedRenderer writes a stub renderer executable that exits with code
// and points the config at it.
func WithStubbedRenderer(code int) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, "lessoncut-render")
		script := []byte(fmt.Sprintf("#!/bin/sh\ncat >/dev/null\nexit %d\n", code))
		if err := os.WriteFile(target, script, 0o755); err != nil {
			b.t.Fatalf("write stub renderer: %v", err)
		}
		b.cfg.Export.RendererBinary = target
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
