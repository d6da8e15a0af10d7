package timeline

import (
	"math"
	"sort"
)

// Resolve adjusts a proposed placement so it does not overlap any clip in
// trackClips. trackClips must already exclude the clip being placed.
//
// The first pass slides the interval rightward past every blocker in
// start-time order without shrinking it. The second pass clamps the end to
// the first clip starting after the (possibly pushed) start. Neighbours are
// never relocated, so the result may be squeezed to MinClipDuration even when
// a wider gap exists further along the track.
func Resolve(trackClips []Clip, start, duration float64) Interval {
	if math.IsNaN(start) || start < 0 {
		start = 0
	}
	duration = clampDuration(duration)

	sorted := make([]Interval, 0, len(trackClips))
	for _, clip := range trackClips {
		sorted = append(sorted, clip.Interval())
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End() < sorted[j].End()
		}
		return sorted[i].Start < sorted[j].Start
	})

	// A blocker skipped earlier in start order can never overlap after a
	// rightward push, so one sorted sweep settles every overlap.
	proposed := Interval{Start: start, Duration: duration}
	for _, existing := range sorted {
		if proposed.Overlaps(existing) {
			proposed.Start = existing.End()
		}
	}

	for _, existing := range sorted {
		if existing.Start <= proposed.Start {
			continue
		}
		if proposed.End() > existing.Start {
			proposed.Duration = math.Max(MinClipDuration, existing.Start-proposed.Start)
		}
		break
	}

	return proposed
}

// PreviousNeighbor returns the clip on the list that ends closest before (or
// at) at, ignoring clips that start at or after at.
func PreviousNeighbor(trackClips []Clip, at float64) (Clip, bool) {
	var (
		best  Clip
		found bool
	)
	for _, clip := range trackClips {
		if clip.StartTime >= at {
			continue
		}
		if !found || clip.End() > best.End() {
			best = clip
			found = true
		}
	}
	return best, found
}

// NextNeighbor returns the clip with the smallest start strictly after at.
func NextNeighbor(trackClips []Clip, at float64) (Clip, bool) {
	var (
		best  Clip
		found bool
	)
	for _, clip := range trackClips {
		if clip.StartTime <= at {
			continue
		}
		if !found || clip.StartTime < best.StartTime {
			best = clip
			found = true
		}
	}
	return best, found
}
