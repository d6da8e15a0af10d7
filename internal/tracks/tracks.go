// Package tracks describes the fixed set of content lanes on the timeline.
//
// The registry is static: four tracks exist, each declaring the clip kinds
// it accepts without a warning, default per-kind properties, and suggested
// animation styles. Lookups return copies so callers cannot mutate the
// registry.
package tracks

import (
	"strings"

	"lessoncut/internal/timeline"
)

// Track numbers in display order.
const (
	CodeNumber          = 1
	VisualNumber        = 2
	NarrationNumber     = 3
	PersonalVideoNumber = 4
)

// Track is one fixed content lane.
type Track struct {
	Number            int                              `json:"number"`
	ID                string                           `json:"id"`
	Name              string                           `json:"name"`
	Description       string                           `json:"description"`
	Accepts           []timeline.Kind                  `json:"accepts"`
	DefaultProperties map[timeline.Kind]map[string]any `json:"defaultProperties,omitempty"`
	AnimationStyles   []string                         `json:"animationStyles,omitempty"`
}

var registry = []Track{
	{
		Number:      CodeNumber,
		ID:          "code",
		Name:        "Code",
		Description: "Animated source code and on-screen titles",
		Accepts:     []timeline.Kind{timeline.KindCode, timeline.KindTitle},
		DefaultProperties: map[timeline.Kind]map[string]any{
			timeline.KindCode:  {"fontSize": 18, "theme": "dark", "typingSpeed": 30},
			timeline.KindTitle: {"fontSize": 48, "position": "center"},
		},
		AnimationStyles: []string{"typewriter", "line-focus", "fade"},
	},
	{
		Number:      VisualNumber,
		ID:          "visual",
		Name:        "Visual",
		Description: "Screen recordings, slides, and images",
		Accepts:     []timeline.Kind{timeline.KindVideo, timeline.KindVisualAsset, timeline.KindTitle},
		DefaultProperties: map[timeline.Kind]map[string]any{
			timeline.KindVideo:       {"opacity": 1.0, "scale": 1.0, "volume": 0.0},
			timeline.KindVisualAsset: {"opacity": 1.0, "scale": 1.0, "fit": "contain"},
			timeline.KindTitle:       {"fontSize": 36, "position": "bottom"},
		},
		AnimationStyles: []string{"zoom", "pan", "highlight", "fade"},
	},
	{
		Number:      NarrationNumber,
		ID:          "narration",
		Name:        "Narration",
		Description: "Voice-over and audio narration",
		Accepts:     []timeline.Kind{timeline.KindAudio},
		DefaultProperties: map[timeline.Kind]map[string]any{
			timeline.KindAudio: {"volume": 1.0, "fadeIn": 0.0, "fadeOut": 0.0},
		},
		AnimationStyles: []string{"waveform"},
	},
	{
		Number:      PersonalVideoNumber,
		ID:          "personal-video",
		Name:        "Personal Video",
		Description: "Presenter webcam and talking-head footage",
		Accepts:     []timeline.Kind{timeline.KindVideo},
		DefaultProperties: map[timeline.Kind]map[string]any{
			timeline.KindVideo: {"position": "bottom-right", "scale": 0.25, "shape": "circle", "volume": 1.0},
		},
		AnimationStyles: []string{"picture-in-picture", "slide-in", "fade"},
	},
}

// List returns every track ordered by display number.
func List() []Track {
	out := make([]Track, 0, len(registry))
	for _, t := range registry {
		out = append(out, t.clone())
	}
	return out
}

// ByNumber returns the track with the given display number.
func ByNumber(n int) (Track, bool) {
	for _, t := range registry {
		if t.Number == n {
			return t.clone(), true
		}
	}
	return Track{}, false
}

// ByName looks a track up by ID or display name, case-insensitively.
func ByName(name string) (Track, bool) {
	name = strings.TrimSpace(name)
	for _, t := range registry {
		if strings.EqualFold(t.ID, name) || strings.EqualFold(t.Name, name) {
			return t.clone(), true
		}
	}
	return Track{}, false
}

// Accepts reports whether track takes clips of kind without a warning.
func Accepts(track Track, kind timeline.Kind) bool {
	for _, k := range track.Accepts {
		if k == kind {
			return true
		}
	}
	return false
}

// DefaultProperties returns a fresh copy of the defaults for kind on track.
func DefaultProperties(track Track, kind timeline.Kind) map[string]any {
	src := track.DefaultProperties[kind]
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (t Track) clone() Track {
	out := t
	out.Accepts = append([]timeline.Kind(nil), t.Accepts...)
	out.AnimationStyles = append([]string(nil), t.AnimationStyles...)
	if t.DefaultProperties != nil {
		out.DefaultProperties = make(map[timeline.Kind]map[string]any, len(t.DefaultProperties))
		for kind, props := range t.DefaultProperties {
			cp := make(map[string]any, len(props))
			for k, v := range props {
				cp[k] = v
			}
			out.DefaultProperties[kind] = cp
		}
	}
	return out
}
