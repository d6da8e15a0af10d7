package placement

import (
	"fmt"
	"math"
	"sort"

	"lessoncut/internal/assets"
	"lessoncut/internal/timeline"
	"lessoncut/internal/tracks"
)

// Suggestion is a recommended track for an asset.
type Suggestion struct {
	SuggestedTrack tracks.Track   `json:"suggestedTrack"`
	Confidence     float64        `json:"confidence"`
	Reason         string         `json:"reason"`
	Alternatives   []tracks.Track `json:"alternatives"`
}

// Context carries optional timeline state that nudges a suggestion.
// UserSelectedTrackNumber is zero when no track is selected.
type Context struct {
	ExistingClips           []timeline.Clip `json:"existingClips,omitempty"`
	CurrentTime             float64         `json:"currentTime"`
	UserSelectedTrackNumber int             `json:"userSelectedTrackNumber,omitempty"`
}

// Validation is the advisory result of dropping an asset on a specific track.
type Validation struct {
	IsValid    bool        `json:"isValid"`
	Warnings   []string    `json:"warnings"`
	Conflicts  []string    `json:"conflicts"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
}

// UnknownReason is reported for asset kinds without a base mapping.
const UnknownReason = "unknown content type — defaulting to Visual"

// SuggestTrack recommends a track for asset. ctx may be nil.
func SuggestTrack(asset assets.Asset, ctx *Context) Suggestion {
	kind := asset.PlacementKind()
	base, ok := baseMap[kind]
	if !ok {
		visual := mustTrack(tracks.VisualNumber)
		return Suggestion{
			SuggestedTrack: visual,
			Confidence:     unknownConfidence,
			Reason:         UnknownReason,
			Alternatives:   BuildAlternatives(asset, visual),
		}
	}

	trackNumber, confidence, reason := base.track, base.confidence, base.reason
	name := normalizedName(asset)
	for _, h := range heuristics {
		if h.confidence <= confidence || !h.match(asset, name) {
			continue
		}
		candidate := mustTrack(h.track)
		if !tracks.Accepts(candidate, kind) {
			continue
		}
		trackNumber, confidence, reason = h.track, h.confidence, h.reason
	}

	if ctx != nil {
		trackNumber, confidence, reason = adjustForContext(kind, ctx, trackNumber, confidence, reason)
	}

	primary := mustTrack(trackNumber)
	return Suggestion{
		SuggestedTrack: primary,
		Confidence:     clamp01(confidence),
		Reason:         reason,
		Alternatives:   BuildAlternatives(asset, primary),
	}
}

// SuggestBatch applies SuggestTrack to each asset in order.
func SuggestBatch(list []assets.Asset, ctx *Context) []Suggestion {
	out := make([]Suggestion, 0, len(list))
	for _, a := range list {
		out = append(out, SuggestTrack(a, ctx))
	}
	return out
}

// BuildAlternatives ranks the tracks other than primary by compatibility
// with asset, best first. Tracks with no compatibility are omitted.
func BuildAlternatives(asset assets.Asset, primary tracks.Track) []tracks.Track {
	kind := asset.PlacementKind()
	name := normalizedName(asset)

	type scored struct {
		track tracks.Track
		score float64
	}
	var ranked []scored
	for _, track := range tracks.List() {
		if track.Number == primary.Number {
			continue
		}
		score := 0.0
		if tracks.Accepts(track, kind) {
			score += alternativeBase
		}
		for _, h := range heuristics {
			if h.track == track.Number && h.match(asset, name) {
				score += alternativeNameHint
				break
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{track: track, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	out := make([]tracks.Track, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.track)
	}
	return out
}

// ValidatePlacement reports whether target accepts asset. An invalid
// placement always carries at least one conflict and the optimal suggestion.
func ValidatePlacement(asset assets.Asset, target tracks.Track) Validation {
	return ValidateAgainst(asset, target, SuggestTrack(asset, nil))
}

// ValidateAgainst is ValidatePlacement with a precomputed suggestion, so a
// caller holding a context-aware suggestion reports the same track in both.
func ValidateAgainst(asset assets.Asset, target tracks.Track, suggestion Suggestion) Validation {
	kind := asset.PlacementKind()
	result := Validation{
		IsValid:   tracks.Accepts(target, kind),
		Warnings:  []string{},
		Conflicts: []string{},
	}

	if !result.IsValid {
		label := string(kind)
		if label == "" {
			label = "unknown"
		}
		result.Conflicts = append(result.Conflicts,
			fmt.Sprintf("%s track does not accept %s content", target.Name, label))
		result.Suggestion = &suggestion
	} else if suggestion.SuggestedTrack.Number != target.Number {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s track may be a better fit: %s", suggestion.SuggestedTrack.Name, suggestion.Reason))
		result.Suggestion = &suggestion
	}

	switch {
	case kind == timeline.KindVideo && target.Number == tracks.CodeNumber:
		result.Warnings = append(result.Warnings, "video content on the Code track will cover the code view")
	case kind == timeline.KindAudio && target.Number != tracks.NarrationNumber:
		result.Warnings = append(result.Warnings, "audio content is usually placed on the Narration track")
	}
	return result
}

func adjustForContext(kind timeline.Kind, ctx *Context, trackNumber int, confidence float64, reason string) (int, float64, string) {
	if ctx.UserSelectedTrackNumber != 0 {
		if selected, ok := tracks.ByNumber(ctx.UserSelectedTrackNumber); ok && tracks.Accepts(selected, kind) {
			return selected.Number,
				math.Min(confidence+userSelectedBoost, userSelectedCap),
				reason + "; matches the selected " + selected.Name + " track"
		}
	}

	dominant, ok := dominantRecentTrack(ctx.ExistingClips, ctx.CurrentTime)
	if !ok || dominant == trackNumber {
		return trackNumber, confidence, reason
	}
	track := mustTrack(dominant)
	if !tracks.Accepts(track, kind) {
		return trackNumber, confidence, reason
	}
	return dominant,
		math.Min(confidence+consistencyBoost, consistencyCap),
		fmt.Sprintf("maintaining consistency with recent %s usage", track.Name)
}

// dominantRecentTrack looks at the clips nearest at and returns the track
// used by at least consistencyQuorum of them.
func dominantRecentTrack(clips []timeline.Clip, at float64) (int, bool) {
	if len(clips) < consistencyQuorum {
		return 0, false
	}
	nearest := append([]timeline.Clip(nil), clips...)
	sort.SliceStable(nearest, func(i, j int) bool {
		di, dj := distance(nearest[i], at), distance(nearest[j], at)
		if di != dj {
			return di < dj
		}
		return nearest[i].StartTime < nearest[j].StartTime
	})
	if len(nearest) > consistencyWindow {
		nearest = nearest[:consistencyWindow]
	}
	counts := make(map[int]int, len(nearest))
	for _, c := range nearest {
		counts[c.Track]++
		if counts[c.Track] >= consistencyQuorum {
			return c.Track, true
		}
	}
	return 0, false
}

func distance(c timeline.Clip, at float64) float64 {
	switch {
	case at < c.StartTime:
		return c.StartTime - at
	case at > c.End():
		return at - c.End()
	default:
		return 0
	}
}

func mustTrack(n int) tracks.Track {
	t, ok := tracks.ByNumber(n)
	if !ok {
		panic(fmt.Sprintf("placement: track %d missing from registry", n))
	}
	return t
}
