package export

import (
	"errors"
	"fmt"
	"time"

	"lessoncut/internal/services"
)

// Status is an export job state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusPreparing  Status = "preparing"
	StatusRendering  Status = "rendering"
	StatusFinalizing Status = "finalizing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions follow s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Progress band edges, in percent. Preparation fills [0, PrepareBandEnd),
// rendering maps onto [PrepareBandEnd, RenderBandEnd] and finalization owns
// the rest.
const (
	PrepareBandEnd   = 40.0
	RenderBandEnd    = 90.0
	FinalizeProgress = 95.0
	CompleteProgress = 100.0
)

// Job is the record of one export.
type Job struct {
	ID           string     `json:"id"`
	ProjectID    string     `json:"projectId"`
	Settings     Settings   `json:"settings"`
	Status       Status     `json:"status"`
	Progress     float64    `json:"progress"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
	OutputPath   string     `json:"outputPath,omitempty"`
	OutputSize   int64      `json:"outputSize,omitempty"`
	RetryCount   int        `json:"retryCount"`
	MaxRetries   int        `json:"maxRetries"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// Event is one update delivered to the progress callback.
type Event struct {
	JobID              string        `json:"jobId"`
	Status             Status        `json:"status"`
	Progress           float64       `json:"progress"`
	RenderedFrames     int           `json:"renderedFrames"`
	EncodedFrames      int           `json:"encodedFrames"`
	TotalFrames        int           `json:"totalFrames"`
	Attempt            int           `json:"attempt"`
	Elapsed            time.Duration `json:"elapsed"`
	AverageFrameTime   time.Duration `json:"averageFrameTime"`
	EstimatedRemaining time.Duration `json:"estimatedRemaining"`
	ETA                string        `json:"eta,omitempty"`
	ErrorMessage       string        `json:"errorMessage,omitempty"`
}

// ProgressFunc receives job events. Calls are serialized but may come from
// the renderer's goroutine rather than the one running StartExport.
type ProgressFunc func(Event)

// ErrExportInProgress is returned when an export starts while another is
// active on the same controller.
var ErrExportInProgress = fmt.Errorf("%w: an export is already in progress", services.ErrPrecondition)

// ExhaustedError is returned once every render attempt has failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("export failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// errSuperseded marks an attempt whose generation was invalidated by
// CancelExport.
var errSuperseded = errors.New("export superseded")

// formatETA renders a remaining duration for display.
func formatETA(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	if d < time.Second {
		return "<1s"
	}
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
