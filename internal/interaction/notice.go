package interaction

import (
	"time"

	"lessoncut/internal/placement"
)

// Notice is a dismissible, auto-expiring placement hint shown next to a
// freshly dropped clip.
type Notice struct {
	ID         string
	ClipID     string
	Message    string
	Validation placement.Validation
	Suggestion placement.Suggestion
	ExpiresAt  time.Time
}

// Expired reports whether the notice should no longer be shown at now.
func (n Notice) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

func noticeMessage(v placement.Validation, s placement.Suggestion) string {
	switch {
	case len(v.Conflicts) > 0 && v.Suggestion != nil:
		return v.Conflicts[0] + "; try the " + v.Suggestion.SuggestedTrack.Name + " track"
	case len(v.Conflicts) > 0:
		return v.Conflicts[0]
	case len(v.Warnings) > 0:
		return v.Warnings[0]
	default:
		return s.Reason
	}
}
