package config

const (
	defaultConfigPath          = "~/.config/lessoncut/config.toml"
	defaultOutputDir           = "~/Videos/lessoncut"
	defaultLogDir              = "~/.local/share/lessoncut/logs"
	defaultAPIBind             = "127.0.0.1:7488"
	defaultPixelsPerSecond     = 100
	defaultZoom                = 1.0
	defaultGridSize            = 0.5
	defaultEdgeThresholdPx     = 8
	defaultNoticeTTLSeconds    = 5
	defaultCodec               = "h264"
	defaultAudioCodec          = "aac"
	defaultAudioBitrate        = "192k"
	defaultQuality             = "high"
	defaultMaxRetries          = 3
	defaultRetryBackoffSeconds = 2
	defaultRendererBinary      = "lessoncut-render"
	defaultWidth               = 1920
	defaultHeight              = 1080
	defaultFPS                 = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"

	// MinZoom and MaxZoom bound the timeline zoom factor.
	MinZoom = 0.1
	MaxZoom = 5.0
)

// defaultTrackHeights lists per-track pixel heights in display order
// (code, visual, narration, personal video).
var defaultTrackHeights = []int{64, 120, 48, 120}

// Default returns a Config populated with repository defaults.
func Default() Config {
	heights := make([]int, len(defaultTrackHeights))
	copy(heights, defaultTrackHeights)
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Timeline: Timeline{
			PixelsPerSecond:  defaultPixelsPerSecond,
			Zoom:             defaultZoom,
			GridSize:         defaultGridSize,
			SnapToGrid:       true,
			EdgeThresholdPx:  defaultEdgeThresholdPx,
			TrackHeights:     heights,
			NoticeTTLSeconds: defaultNoticeTTLSeconds,
		},
		Export: Export{
			Codec:               defaultCodec,
			AudioCodec:          defaultAudioCodec,
			AudioBitrate:        defaultAudioBitrate,
			Quality:             defaultQuality,
			MaxRetries:          defaultMaxRetries,
			RetryBackoffSeconds: defaultRetryBackoffSeconds,
			RendererBinary:      defaultRendererBinary,
			Width:               defaultWidth,
			Height:              defaultHeight,
			FPS:                 defaultFPS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
