package config

import (
	"errors"
	"fmt"
)

var validQualities = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
	"ultra":  {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTimeline(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTimeline() error {
	if c.Timeline.PixelsPerSecond <= 0 {
		return errors.New("timeline.pixels_per_second must be positive")
	}
	if c.Timeline.Zoom < MinZoom || c.Timeline.Zoom > MaxZoom {
		return fmt.Errorf("timeline.zoom must be between %.1f and %.1f", MinZoom, MaxZoom)
	}
	if c.Timeline.GridSize <= 0 {
		return errors.New("timeline.grid_size must be positive")
	}
	if c.Timeline.EdgeThresholdPx < 0 {
		return errors.New("timeline.edge_threshold_px must be >= 0")
	}
	for i, height := range c.Timeline.TrackHeights {
		if height <= 0 {
			return fmt.Errorf("timeline.track_heights[%d] must be positive", i)
		}
	}
	return nil
}

func (c *Config) validateExport() error {
	if _, ok := validQualities[c.Export.Quality]; !ok {
		return fmt.Errorf("export.quality %q must be one of low, medium, high, ultra", c.Export.Quality)
	}
	if c.Export.MaxRetries < 0 {
		return errors.New("export.max_retries must be >= 0")
	}
	if c.Export.RetryBackoffSeconds < 0 {
		return errors.New("export.retry_backoff_seconds must be >= 0")
	}
	if err := ensurePositiveMap(map[string]int{
		"export.width":  c.Export.Width,
		"export.height": c.Export.Height,
		"export.fps":    c.Export.FPS,
	}); err != nil {
		return err
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
