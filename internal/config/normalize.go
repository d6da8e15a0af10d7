package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTimeline()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeTimeline() {
	if c.Timeline.Zoom < MinZoom {
		c.Timeline.Zoom = MinZoom
	}
	if c.Timeline.Zoom > MaxZoom {
		c.Timeline.Zoom = MaxZoom
	}
	if len(c.Timeline.TrackHeights) == 0 {
		c.Timeline.TrackHeights = append([]int(nil), defaultTrackHeights...)
	}
	if c.Timeline.NoticeTTLSeconds <= 0 {
		c.Timeline.NoticeTTLSeconds = defaultNoticeTTLSeconds
	}
}

func (c *Config) normalizeExport() {
	c.Export.Codec = strings.ToLower(strings.TrimSpace(c.Export.Codec))
	if c.Export.Codec == "" {
		c.Export.Codec = defaultCodec
	}
	c.Export.AudioCodec = strings.ToLower(strings.TrimSpace(c.Export.AudioCodec))
	if c.Export.AudioCodec == "" {
		c.Export.AudioCodec = defaultAudioCodec
	}
	c.Export.AudioBitrate = strings.TrimSpace(c.Export.AudioBitrate)
	c.Export.Quality = strings.ToLower(strings.TrimSpace(c.Export.Quality))
	if c.Export.Quality == "" {
		c.Export.Quality = defaultQuality
	}
	c.Export.RendererBinary = strings.TrimSpace(c.Export.RendererBinary)
	if value, ok := os.LookupEnv("LESSONCUT_RENDERER"); ok && strings.TrimSpace(value) != "" {
		c.Export.RendererBinary = strings.TrimSpace(value)
	}
	if c.Export.RendererBinary == "" {
		c.Export.RendererBinary = defaultRendererBinary
	}
	if c.Export.Concurrency < 0 {
		c.Export.Concurrency = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
