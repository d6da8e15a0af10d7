package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
}

// Timeline contains the viewport and gesture settings used by the
// interaction controller.
type Timeline struct {
	PixelsPerSecond  float64 `toml:"pixels_per_second"`
	Zoom             float64 `toml:"zoom"`
	GridSize         float64 `toml:"grid_size"`
	SnapToGrid       bool    `toml:"snap_to_grid"`
	EdgeThresholdPx  float64 `toml:"edge_threshold_px"`
	TrackHeights     []int   `toml:"track_heights"`
	NoticeTTLSeconds int     `toml:"notice_ttl_seconds"`
}

// Export contains render defaults and retry policy for the export controller.
type Export struct {
	Codec               string `toml:"codec"`
	AudioCodec          string `toml:"audio_codec"`
	AudioBitrate        string `toml:"audio_bitrate"`
	Quality             string `toml:"quality"`
	MaxRetries          int    `toml:"max_retries"`
	RetryBackoffSeconds int    `toml:"retry_backoff_seconds"`
	Concurrency         int    `toml:"concurrency"`
	RendererBinary      string `toml:"renderer_binary"`
	Width               int    `toml:"width"`
	Height              int    `toml:"height"`
	FPS                 int    `toml:"fps"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lessoncut.
//
// Configuration sections by subsystem:
//   - Paths: export output, logs, export record database, API bind address
//   - Timeline: pixel mapping, zoom, grid snapping, track heights, notices
//   - Export: codec defaults, quality preset, retry policy, renderer binary
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Timeline Timeline `toml:"timeline"`
	Export   Export   `toml:"export"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lessoncut.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory. OutputDir is created on a
// best-effort basis; the export controller retries creation per job.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	return nil
}

// ExportDBPath returns the SQLite database path holding export records.
func (c *Config) ExportDBPath() string {
	return filepath.Join(c.Paths.LogDir, "exports.db")
}

// LockPath returns the path of the advisory lock held while exporting.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "export.lock")
}

// RetryBackoff returns the fixed delay between export attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Export.RetryBackoffSeconds) * time.Second
}

// NoticeTTL returns how long placement notices stay visible.
func (c *Config) NoticeTTL() time.Duration {
	return time.Duration(c.Timeline.NoticeTTLSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
// The file is replaced atomically so a concurrent reader never sees a partial write.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := renameio.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
