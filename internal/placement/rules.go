package placement

import (
	"strings"

	"lessoncut/internal/assets"
	"lessoncut/internal/timeline"
	"lessoncut/internal/tracks"
)

const (
	unknownConfidence   = 0.5
	userSelectedBoost   = 0.10
	userSelectedCap     = 0.98
	consistencyBoost    = 0.15
	consistencyCap      = 0.90
	consistencyWindow   = 3
	consistencyQuorum   = 2
	alternativeBase     = 0.5
	alternativeNameHint = 0.3
)

type baseMapping struct {
	track      int
	confidence float64
	reason     string
}

var baseMap = map[timeline.Kind]baseMapping{
	timeline.KindCode:        {tracks.CodeNumber, 0.95, "code content belongs on the Code track"},
	timeline.KindAudio:       {tracks.NarrationNumber, 0.90, "audio content belongs on the Narration track"},
	timeline.KindVideo:       {tracks.VisualNumber, 0.70, "video content defaults to the Visual track"},
	timeline.KindVisualAsset: {tracks.VisualNumber, 0.80, "visual assets belong on the Visual track"},
	timeline.KindTitle:       {tracks.CodeNumber, 0.60, "titles default to the Code track"},
}

// heuristic is one content-analysis rule. Rules are evaluated in order and
// the most confident match that beats the base mapping wins.
type heuristic struct {
	track      int
	confidence float64
	reason     string
	match      func(a assets.Asset, name string) bool
}

var heuristics = []heuristic{
	{
		track:      tracks.VisualNumber,
		confidence: 0.90,
		reason:     "name suggests a screen recording",
		match:      nameContains("screen", "recording", "capture", "screencast"),
	},
	{
		track:      tracks.PersonalVideoNumber,
		confidence: 0.95,
		reason:     "name suggests presenter footage",
		match:      nameContains("talking", "webcam", "presenter", "facecam", "camera"),
	},
	{
		track:      tracks.CodeNumber,
		confidence: 0.95,
		reason:     "source file extension or language detected",
		match: func(a assets.Asset, _ string) bool {
			return assets.IsCodeExtension(a.Ext()) || strings.TrimSpace(a.Language) != ""
		},
	},
	{
		track:      tracks.NarrationNumber,
		confidence: 0.95,
		reason:     "name suggests narration",
		match:      nameContains("voice", "narration", "voiceover"),
	},
}

func nameContains(patterns ...string) func(assets.Asset, string) bool {
	return func(_ assets.Asset, name string) bool {
		for _, p := range patterns {
			if strings.Contains(name, p) {
				return true
			}
		}
		return false
	}
}

func normalizedName(a assets.Asset) string {
	return strings.ToLower(strings.TrimSpace(a.Name))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
