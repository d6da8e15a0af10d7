package timeline

import "math"

// MinClipDuration is the shortest interval, in seconds, a clip may occupy.
const MinClipDuration = 0.1

// epsilon absorbs float rounding when comparing interval edges.
const epsilon = 1e-9

// Kind identifies the content carried by a clip.
type Kind string

const (
	KindCode        Kind = "code"
	KindVideo       Kind = "video"
	KindAudio       Kind = "audio"
	KindTitle       Kind = "title"
	KindVisualAsset Kind = "visual-asset"
)

var knownKinds = map[Kind]struct{}{
	KindCode:        {},
	KindVideo:       {},
	KindAudio:       {},
	KindTitle:       {},
	KindVisualAsset: {},
}

// Valid reports whether k is one of the clip kinds the timeline understands.
func (k Kind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

// Keyframe is a single animated property value at a clip-relative time.
type Keyframe struct {
	Time     float64 `json:"time"`
	Property string  `json:"property"`
	Value    float64 `json:"value"`
	Easing   string  `json:"easing,omitempty"`
}

// Clip is a placed occurrence of an asset on a track.
type Clip struct {
	ID         string         `json:"id"`
	AssetID    string         `json:"assetId"`
	Track      int            `json:"track"`
	StartTime  float64        `json:"startTime"`
	Duration   float64        `json:"duration"`
	Kind       Kind           `json:"kind"`
	Properties map[string]any `json:"properties,omitempty"`
	Keyframes  []Keyframe     `json:"keyframes,omitempty"`
}

// End returns the exclusive end of the clip interval.
func (c Clip) End() float64 {
	return c.StartTime + c.Duration
}

// Interval returns the clip's placement as an Interval.
func (c Clip) Interval() Interval {
	return Interval{Start: c.StartTime, Duration: c.Duration}
}

// Overlaps reports whether the clip shares any time with other.
func (c Clip) Overlaps(other Clip) bool {
	return c.Interval().Overlaps(other.Interval())
}

// Clone returns a deep copy so callers can mutate properties and keyframes
// without touching the timeline's record.
func (c Clip) Clone() Clip {
	out := c
	if c.Properties != nil {
		out.Properties = make(map[string]any, len(c.Properties))
		for k, v := range c.Properties {
			out.Properties[k] = v
		}
	}
	if c.Keyframes != nil {
		out.Keyframes = append([]Keyframe(nil), c.Keyframes...)
	}
	return out
}

// Interval is a half-open span [Start, Start+Duration) in seconds.
type Interval struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns the exclusive end of the interval.
func (i Interval) End() float64 {
	return i.Start + i.Duration
}

// Overlaps reports whether two half-open intervals intersect.
func (i Interval) Overlaps(other Interval) bool {
	return !(i.End() <= other.Start+epsilon || i.Start >= other.End()-epsilon)
}

// clampDuration enforces MinClipDuration and rejects NaN.
func clampDuration(d float64) float64 {
	if math.IsNaN(d) || d < MinClipDuration {
		return MinClipDuration
	}
	return d
}
