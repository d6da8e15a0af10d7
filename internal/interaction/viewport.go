package interaction

import (
	"math"

	"lessoncut/internal/config"
	"lessoncut/internal/tracks"
)

// Viewport maps between timeline seconds and screen pixels.
type Viewport struct {
	PixelsPerSecond float64
	Zoom            float64
	GridSize        float64
	SnapToGrid      bool
	EdgeThresholdPx float64
	TrackHeights    []int
}

// ViewportFromConfig builds a viewport from the timeline config section.
func ViewportFromConfig(cfg config.Timeline) Viewport {
	v := Viewport{
		PixelsPerSecond: cfg.PixelsPerSecond,
		Zoom:            cfg.Zoom,
		GridSize:        cfg.GridSize,
		SnapToGrid:      cfg.SnapToGrid,
		EdgeThresholdPx: cfg.EdgeThresholdPx,
		TrackHeights:    append([]int(nil), cfg.TrackHeights...),
	}
	return v.normalized()
}

func (v Viewport) normalized() Viewport {
	defaults := config.Default().Timeline
	if v.PixelsPerSecond <= 0 {
		v.PixelsPerSecond = defaults.PixelsPerSecond
	}
	if v.Zoom == 0 {
		v.Zoom = defaults.Zoom
	}
	v.Zoom = clampZoom(v.Zoom)
	if v.EdgeThresholdPx < 0 {
		v.EdgeThresholdPx = 0
	}
	if len(v.TrackHeights) == 0 {
		v.TrackHeights = append([]int(nil), defaults.TrackHeights...)
	}
	return v
}

func clampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return math.Min(math.Max(z, config.MinZoom), config.MaxZoom)
}

// TimeToPixels converts seconds to pixels at the current zoom.
func (v Viewport) TimeToPixels(seconds float64) float64 {
	return seconds * v.PixelsPerSecond * v.Zoom
}

// PixelsToTime converts pixels to seconds at the current zoom.
func (v Viewport) PixelsToTime(px float64) float64 {
	return px / (v.PixelsPerSecond * v.Zoom)
}

// Snap rounds seconds to the grid when snapping is enabled.
func (v Viewport) Snap(seconds float64) float64 {
	if !v.SnapToGrid || v.GridSize <= 0 {
		return seconds
	}
	return math.Round(seconds/v.GridSize) * v.GridSize
}

// TrackAtY returns the track number under a vertical pixel offset using the
// cumulative track heights. Offsets above the first track map to it and
// offsets past the last map to the last.
func (v Viewport) TrackAtY(y float64) int {
	count := len(tracks.List())
	if y < 0 {
		return 1
	}
	var top float64
	for i := 0; i < count; i++ {
		top += float64(v.trackHeight(i))
		if y < top {
			return i + 1
		}
	}
	return count
}

func (v Viewport) trackHeight(i int) int {
	if i < len(v.TrackHeights) && v.TrackHeights[i] > 0 {
		return v.TrackHeights[i]
	}
	if len(v.TrackHeights) > 0 {
		return v.TrackHeights[len(v.TrackHeights)-1]
	}
	return 1
}
