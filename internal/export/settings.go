package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"lessoncut/internal/config"
	"lessoncut/internal/fileutil"
	"lessoncut/internal/project"
	"lessoncut/internal/services"
)

// Quality selects a CRF and bitrate preset.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
	QualityUltra  Quality = "ultra"
)

// Preset is a fixed CRF and video bitrate pair.
type Preset struct {
	CRF          int
	VideoBitrate string
}

var presets = map[Quality]Preset{
	QualityLow:    {CRF: 28, VideoBitrate: "2M"},
	QualityMedium: {CRF: 23, VideoBitrate: "5M"},
	QualityHigh:   {CRF: 18, VideoBitrate: "8M"},
	QualityUltra:  {CRF: 12, VideoBitrate: "15M"},
}

// PresetFor returns the preset for q.
func PresetFor(q Quality) (Preset, bool) {
	p, ok := presets[Quality(strings.ToLower(strings.TrimSpace(string(q))))]
	return p, ok
}

// Settings are the per-export overrides. Zero values fall back to the
// project and then to the export config section.
type Settings struct {
	OutputDir    string   `json:"outputDir,omitempty"`
	Filename     string   `json:"filename,omitempty"`
	Codec        string   `json:"codec,omitempty"`
	AudioCodec   string   `json:"audioCodec,omitempty"`
	AudioBitrate string   `json:"audioBitrate,omitempty"`
	Quality      Quality  `json:"quality,omitempty"`
	CRF          *int     `json:"crf,omitempty"`
	VideoBitrate string   `json:"videoBitrate,omitempty"`
	Width        int      `json:"width,omitempty"`
	Height       int      `json:"height,omitempty"`
	FPS          int      `json:"fps,omitempty"`
	StartTime    *float64 `json:"startTime,omitempty"`
	EndTime      *float64 `json:"endTime,omitempty"`
	Concurrency  int      `json:"concurrency,omitempty"`
	MaxRetries   *int     `json:"maxRetries,omitempty"`
}

// plan is the fully resolved render configuration for one attempt.
type plan struct {
	Width            int
	Height           int
	FPS              int
	StartFrame       int
	EndFrame         int
	DurationInFrames int
	Codec            string
	AudioCodec       string
	AudioBitrate     string
	CRF              int
	VideoBitrate     string
	Concurrency      int
	OutputDir        string
	OutputPath       string
	Filename         string
}

func (p plan) TotalFrames() int {
	return p.EndFrame - p.StartFrame
}

var codecExtensions = map[string]string{
	"h264":   ".mp4",
	"h265":   ".mp4",
	"vp8":    ".webm",
	"vp9":    ".webm",
	"prores": ".mov",
	"gif":    ".gif",
}

// resolvePlan merges settings over the project over defaults and computes
// the frame range. jobID keeps generated filenames unique.
func resolvePlan(proj *project.Project, s Settings, defaults config.Export, defaultDir, jobID string) (plan, error) {
	p := plan{
		Width:        firstPositive(s.Width, proj.Width, defaults.Width),
		Height:       firstPositive(s.Height, proj.Height, defaults.Height),
		FPS:          firstPositive(s.FPS, proj.FPS, defaults.FPS),
		Codec:        firstNonEmpty(s.Codec, defaults.Codec),
		AudioCodec:   firstNonEmpty(s.AudioCodec, defaults.AudioCodec),
		AudioBitrate: firstNonEmpty(s.AudioBitrate, defaults.AudioBitrate),
		Concurrency:  firstPositive(s.Concurrency, defaults.Concurrency),
		OutputDir:    firstNonEmpty(s.OutputDir, defaultDir),
	}
	if p.Width <= 0 || p.Height <= 0 || p.FPS <= 0 {
		return plan{}, services.Wrap(services.ErrValidation, "export", "resolve settings",
			fmt.Sprintf("invalid canvas %dx%d@%d", p.Width, p.Height, p.FPS), nil)
	}

	quality := s.Quality
	if strings.TrimSpace(string(quality)) == "" {
		quality = Quality(defaults.Quality)
	}
	preset, ok := PresetFor(quality)
	if !ok {
		return plan{}, services.Wrap(services.ErrValidation, "export", "resolve settings",
			fmt.Sprintf("unknown quality %q", quality), nil)
	}
	p.CRF = preset.CRF
	p.VideoBitrate = preset.VideoBitrate
	if s.CRF != nil {
		p.CRF = *s.CRF
	}
	if strings.TrimSpace(s.VideoBitrate) != "" {
		p.VideoBitrate = strings.TrimSpace(s.VideoBitrate)
	}

	start := 0.0
	if s.StartTime != nil {
		start = math.Max(0, *s.StartTime)
	}
	end := proj.EffectiveDuration()
	if s.EndTime != nil {
		end = *s.EndTime
	}
	p.StartFrame = int(math.Round(start * float64(p.FPS)))
	p.EndFrame = int(math.Round(end * float64(p.FPS)))
	if p.TotalFrames() <= 0 {
		return plan{}, services.Wrap(services.ErrValidation, "export", "resolve settings",
			fmt.Sprintf("empty frame range %d-%d", p.StartFrame, p.EndFrame), nil)
	}
	p.DurationInFrames = max(int(math.Round(proj.EffectiveDuration()*float64(p.FPS))), p.EndFrame)

	p.Filename = strings.TrimSpace(s.Filename)
	if p.Filename == "" {
		stem := proj.Name
		if strings.TrimSpace(stem) == "" {
			stem = proj.ID
		}
		suffix := jobID
		if len(suffix) > 8 {
			suffix = suffix[:8]
		}
		p.Filename = fileutil.SanitizeFilename(stem) + "-" + suffix + extensionFor(p.Codec)
	}
	p.OutputPath = filepath.Join(p.OutputDir, p.Filename)
	return p, nil
}

func extensionFor(codec string) string {
	if ext, ok := codecExtensions[strings.ToLower(codec)]; ok {
		return ext
	}
	return ".mp4"
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
