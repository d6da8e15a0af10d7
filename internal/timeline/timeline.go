package timeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	// ErrClipNotFound is returned when an operation names an unknown clip ID.
	ErrClipNotFound = errors.New("clip not found")
	// ErrDuplicateClip is returned when inserting a clip whose ID is taken.
	ErrDuplicateClip = errors.New("duplicate clip id")
	// ErrInvalidTrack is returned for track numbers below 1.
	ErrInvalidTrack = errors.New("invalid track number")
)

// Timeline owns the clip records of one project. It is not safe for
// concurrent use; the interaction controller drives it from a single event
// loop.
type Timeline struct {
	clips []Clip
}

// New builds a timeline from existing clip records without re-resolving them.
func New(clips ...Clip) *Timeline {
	t := &Timeline{clips: make([]Clip, 0, len(clips))}
	for _, clip := range clips {
		t.clips = append(t.clips, clip.Clone())
	}
	return t
}

// Len returns the number of clips.
func (t *Timeline) Len() int {
	return len(t.clips)
}

// Clips returns copies of every clip ordered by track then start time.
func (t *Timeline) Clips() []Clip {
	out := make([]Clip, 0, len(t.clips))
	for _, clip := range t.clips {
		out = append(out, clip.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Track != out[j].Track {
			return out[i].Track < out[j].Track
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// Get returns a copy of the clip with the given ID.
func (t *Timeline) Get(id string) (Clip, bool) {
	if idx := t.indexOf(id); idx >= 0 {
		return t.clips[idx].Clone(), true
	}
	return Clip{}, false
}

// TrackClips returns the clips on track, skipping excludeID when non-empty.
func (t *Timeline) TrackClips(track int, excludeID string) []Clip {
	out := make([]Clip, 0)
	for _, clip := range t.clips {
		if clip.Track != track {
			continue
		}
		if excludeID != "" && clip.ID == excludeID {
			continue
		}
		out = append(out, clip)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

// Duration returns the end of the last clip on any track.
func (t *Timeline) Duration() float64 {
	var end float64
	for _, clip := range t.clips {
		end = math.Max(end, clip.End())
	}
	return end
}

// Insert resolves the clip against its track and stores it.
func (t *Timeline) Insert(clip Clip) (Clip, error) {
	clip.ID = strings.TrimSpace(clip.ID)
	if clip.ID == "" {
		return Clip{}, errors.New("clip id required")
	}
	if t.indexOf(clip.ID) >= 0 {
		return Clip{}, fmt.Errorf("%w: %s", ErrDuplicateClip, clip.ID)
	}
	if clip.Track < 1 {
		return Clip{}, fmt.Errorf("%w: %d", ErrInvalidTrack, clip.Track)
	}
	resolved := Resolve(t.TrackClips(clip.Track, ""), clip.StartTime, clip.Duration)
	clip.StartTime = resolved.Start
	clip.Duration = resolved.Duration
	stored := clip.Clone()
	t.clips = append(t.clips, stored)
	return stored.Clone(), nil
}

// Move places an existing clip on track at start, keeping its duration and
// resolving overlaps with the clip itself excluded from the occupancy set.
func (t *Timeline) Move(id string, track int, start float64) (Clip, error) {
	idx := t.indexOf(id)
	if idx < 0 {
		return Clip{}, fmt.Errorf("%w: %s", ErrClipNotFound, id)
	}
	return t.Place(id, track, start, t.clips[idx].Duration)
}

// Place is Move with an explicit proposed duration. Drag gestures use it to
// re-resolve from the clip's pre-gesture length on every pointer move.
func (t *Timeline) Place(id string, track int, start, duration float64) (Clip, error) {
	idx := t.indexOf(id)
	if idx < 0 {
		return Clip{}, fmt.Errorf("%w: %s", ErrClipNotFound, id)
	}
	if track < 1 {
		return Clip{}, fmt.Errorf("%w: %d", ErrInvalidTrack, track)
	}
	clip := t.clips[idx]
	resolved := Resolve(t.TrackClips(track, id), start, duration)
	clip.Track = track
	clip.StartTime = resolved.Start
	clip.Duration = resolved.Duration
	t.clips[idx] = clip
	return clip.Clone(), nil
}

// ResizeLeft moves the clip's start edge while keeping its end fixed. The new
// start never precedes the end of the previous clip on the track and always
// leaves at least MinClipDuration.
func (t *Timeline) ResizeLeft(id string, start float64) (Clip, error) {
	idx := t.indexOf(id)
	if idx < 0 {
		return Clip{}, fmt.Errorf("%w: %s", ErrClipNotFound, id)
	}
	clip := t.clips[idx]
	end := clip.End()

	floor := 0.0
	if prev, ok := PreviousNeighbor(t.TrackClips(clip.Track, id), clip.StartTime); ok {
		floor = math.Max(floor, prev.End())
	}
	if math.IsNaN(start) {
		start = clip.StartTime
	}
	start = math.Max(start, floor)
	if start > end-MinClipDuration {
		start = end - MinClipDuration
	}

	clip.StartTime = start
	clip.Duration = math.Max(end-start, MinClipDuration)
	t.clips[idx] = clip
	return clip.Clone(), nil
}

// ResizeRight changes the clip's duration while keeping its start fixed. The
// end never passes the start of the next clip on the track.
func (t *Timeline) ResizeRight(id string, duration float64) (Clip, error) {
	idx := t.indexOf(id)
	if idx < 0 {
		return Clip{}, fmt.Errorf("%w: %s", ErrClipNotFound, id)
	}
	clip := t.clips[idx]
	duration = clampDuration(duration)
	if next, ok := NextNeighbor(t.TrackClips(clip.Track, id), clip.StartTime); ok {
		duration = math.Min(duration, next.StartTime-clip.StartTime)
	}
	clip.Duration = math.Max(duration, MinClipDuration)
	t.clips[idx] = clip
	return clip.Clone(), nil
}

// Duplicate copies a clip under newID and places the copy directly after the
// original, resolving overlaps on the same track.
func (t *Timeline) Duplicate(id, newID string) (Clip, error) {
	source, ok := t.Get(id)
	if !ok {
		return Clip{}, fmt.Errorf("%w: %s", ErrClipNotFound, id)
	}
	source.ID = newID
	source.StartTime = source.End()
	return t.Insert(source)
}

// Remove deletes a clip and returns the removed record.
func (t *Timeline) Remove(id string) (Clip, bool) {
	idx := t.indexOf(id)
	if idx < 0 {
		return Clip{}, false
	}
	removed := t.clips[idx]
	t.clips = append(t.clips[:idx], t.clips[idx+1:]...)
	return removed, true
}

// Restore writes a clip record verbatim, replacing any clip with the same ID.
// History replay uses it to reinstate snapshots that were valid when taken.
func (t *Timeline) Restore(clip Clip) {
	stored := clip.Clone()
	if idx := t.indexOf(clip.ID); idx >= 0 {
		t.clips[idx] = stored
		return
	}
	t.clips = append(t.clips, stored)
}

// Validate checks the non-overlap and minimum-duration invariants.
func (t *Timeline) Validate() error {
	byTrack := make(map[int][]Clip)
	for _, clip := range t.clips {
		if clip.Duration < MinClipDuration-epsilon {
			return fmt.Errorf("clip %s: duration %.3f below minimum %.1f", clip.ID, clip.Duration, MinClipDuration)
		}
		byTrack[clip.Track] = append(byTrack[clip.Track], clip)
	}
	for track, clips := range byTrack {
		sort.Slice(clips, func(i, j int) bool { return clips[i].StartTime < clips[j].StartTime })
		for i := 1; i < len(clips); i++ {
			if clips[i-1].Overlaps(clips[i]) {
				return fmt.Errorf("track %d: clips %s and %s overlap", track, clips[i-1].ID, clips[i].ID)
			}
		}
	}
	return nil
}

func (t *Timeline) indexOf(id string) int {
	for i, clip := range t.clips {
		if clip.ID == id {
			return i
		}
	}
	return -1
}
