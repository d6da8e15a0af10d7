package interaction

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"lessoncut/internal/assets"
	"lessoncut/internal/history"
	"lessoncut/internal/logging"
	"lessoncut/internal/placement"
	"lessoncut/internal/timeline"
	"lessoncut/internal/tracks"
)

// Mode is the gesture currently owning the controller.
type Mode string

const (
	ModeIdle          Mode = "idle"
	ModeMoving        Mode = "moving"
	ModeResizingLeft  Mode = "resizing-left"
	ModeResizingRight Mode = "resizing-right"
)

// DefaultDropDuration is used for dropped assets without a known length.
const DefaultDropDuration = 5.0

var (
	// ErrGestureActive is returned when a gesture starts while another owns
	// the controller.
	ErrGestureActive = errors.New("gesture already in progress")
	// ErrAssetNotFound is returned by DropByID for unknown asset IDs.
	ErrAssetNotFound = errors.New("asset not found")
)

// Point is a pointer position in timeline-relative pixels.
type Point struct {
	X float64
	Y float64
}

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	Viewport  Viewport
	NoticeTTL time.Duration
	Assets    assets.Store
	History   history.Recorder
	Logger    *slog.Logger
	NewID     func() string
}

// DropResult describes a clip created from an asset drop.
type DropResult struct {
	Clip       timeline.Clip
	Validation placement.Validation
	Suggestion placement.Suggestion
	Notice     *Notice
}

type gesture struct {
	clipID     string
	original   timeline.Clip
	grabOffset float64
}

// Controller converts pointer gestures into timeline mutations.
type Controller struct {
	tl        *timeline.Timeline
	view      Viewport
	noticeTTL time.Duration
	assets    assets.Store
	history   history.Recorder
	logger    *slog.Logger
	newID     func() string

	mode    Mode
	active  gesture
	pending *Point
	notice  *Notice
}

// NewController returns an idle controller over tl.
func NewController(tl *timeline.Timeline, opts Options) *Controller {
	if tl == nil {
		tl = timeline.New()
	}
	c := &Controller{
		tl:        tl,
		view:      opts.Viewport.normalized(),
		noticeTTL: opts.NoticeTTL,
		assets:    opts.Assets,
		history:   opts.History,
		logger:    logging.NewComponentLogger(opts.Logger, "interaction"),
		newID:     opts.NewID,
		mode:      ModeIdle,
	}
	if c.noticeTTL <= 0 {
		c.noticeTTL = 5 * time.Second
	}
	if c.history == nil {
		c.history = history.Nop{}
	}
	if c.newID == nil {
		c.newID = func() string { return uuid.NewString() }
	}
	return c
}

// Timeline returns the timeline the controller mutates.
func (c *Controller) Timeline() *timeline.Timeline { return c.tl }

// Mode returns the active gesture.
func (c *Controller) Mode() Mode { return c.mode }

// Viewport returns the current viewport settings.
func (c *Controller) Viewport() Viewport { return c.view }

// SetZoom sets the zoom factor clamped to the allowed range and returns the
// applied value.
func (c *Controller) SetZoom(z float64) float64 {
	c.view.Zoom = clampZoom(z)
	return c.view.Zoom
}

func (c *Controller) TimeToPixels(seconds float64) float64 { return c.view.TimeToPixels(seconds) }

func (c *Controller) PixelsToTime(px float64) float64 { return c.view.PixelsToTime(px) }

func (c *Controller) Snap(seconds float64) float64 { return c.view.Snap(seconds) }

func (c *Controller) TrackAtY(y float64) int { return c.view.TrackAtY(y) }

// PointerDown starts a gesture on clipID. The pointer is classified as a
// resize when it lies within the edge threshold of either clip edge.
func (c *Controller) PointerDown(clipID string, p Point) (Mode, error) {
	if c.mode != ModeIdle {
		return c.mode, ErrGestureActive
	}
	clip, ok := c.tl.Get(clipID)
	if !ok {
		return ModeIdle, fmt.Errorf("%w: %s", timeline.ErrClipNotFound, clipID)
	}
	c.mode = c.classify(clip, p.X)
	c.active = gesture{
		clipID:     clipID,
		original:   clip,
		grabOffset: c.view.PixelsToTime(p.X) - clip.StartTime,
	}
	c.pending = nil
	c.logger.Debug("gesture started",
		logging.String("clip_id", clipID),
		logging.String("mode", string(c.mode)),
	)
	return c.mode, nil
}

func (c *Controller) classify(clip timeline.Clip, x float64) Mode {
	left := c.view.TimeToPixels(clip.StartTime)
	right := c.view.TimeToPixels(clip.End())
	threshold := c.view.EdgeThresholdPx
	dl, dr := math.Abs(x-left), math.Abs(x-right)
	switch {
	case dl <= threshold && dl <= dr:
		return ModeResizingLeft
	case dr <= threshold:
		return ModeResizingRight
	default:
		return ModeMoving
	}
}

// PointerMove applies p to the active gesture immediately. It reports false
// when no gesture is active.
func (c *Controller) PointerMove(p Point) (timeline.Clip, bool) {
	if c.mode == ModeIdle {
		return timeline.Clip{}, false
	}
	clip, err := c.apply(p)
	if err != nil {
		logging.WarnWithContext(c.logger, "gesture update failed", "gesture_update_failed",
			logging.String("clip_id", c.active.clipID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "pointer move ignored"),
		)
		return timeline.Clip{}, false
	}
	return clip, true
}

// QueueMove stores p for the next Flush, replacing any earlier queued point.
func (c *Controller) QueueMove(p Point) {
	if c.mode == ModeIdle {
		return
	}
	c.pending = &p
}

// Flush applies the latest queued pointer move, if any. Call it once per
// frame.
func (c *Controller) Flush() (timeline.Clip, bool) {
	if c.pending == nil {
		return timeline.Clip{}, false
	}
	p := *c.pending
	c.pending = nil
	return c.PointerMove(p)
}

// PointerUp applies p, commits the gesture to history and returns to idle.
func (c *Controller) PointerUp(p Point) (timeline.Clip, bool) {
	if c.mode == ModeIdle {
		return timeline.Clip{}, false
	}
	c.pending = nil
	if _, err := c.apply(p); err != nil {
		logging.WarnWithContext(c.logger, "final gesture update failed", "gesture_update_failed",
			logging.String("clip_id", c.active.clipID),
			logging.Error(err),
		)
	}
	return c.commit()
}

// Blur ends the active gesture at its last applied state, as when the
// window loses focus.
func (c *Controller) Blur() (timeline.Clip, bool) {
	if c.mode == ModeIdle {
		return timeline.Clip{}, false
	}
	c.Flush()
	return c.commit()
}

func (c *Controller) apply(p Point) (timeline.Clip, error) {
	g := c.active
	switch c.mode {
	case ModeMoving:
		start := c.view.Snap(c.view.PixelsToTime(p.X) - g.grabOffset)
		return c.tl.Place(g.clipID, c.view.TrackAtY(p.Y), start, g.original.Duration)
	case ModeResizingLeft:
		return c.tl.ResizeLeft(g.clipID, c.view.Snap(c.view.PixelsToTime(p.X)))
	case ModeResizingRight:
		end := c.view.Snap(c.view.PixelsToTime(p.X))
		return c.tl.ResizeRight(g.clipID, end-g.original.StartTime)
	default:
		return timeline.Clip{}, fmt.Errorf("no active gesture")
	}
}

func (c *Controller) commit() (timeline.Clip, bool) {
	g, mode := c.active, c.mode
	c.mode = ModeIdle
	c.active = gesture{}

	final, ok := c.tl.Get(g.clipID)
	if !ok {
		return timeline.Clip{}, false
	}
	if final.Track != g.original.Track || final.StartTime != g.original.StartTime || final.Duration != g.original.Duration {
		op := history.OpMove
		if mode != ModeMoving {
			op = history.OpResize
		}
		c.history.Record(history.Command{
			Op:     op,
			ClipID: g.clipID,
			Before: history.Snapshot(g.original),
			After:  history.Snapshot(final),
		})
	}
	c.logger.Debug("gesture committed",
		logging.String("clip_id", g.clipID),
		logging.String("mode", string(mode)),
		logging.Int("track", final.Track),
		logging.Float64("start", final.StartTime),
		logging.Float64("duration", final.Duration),
	)
	return final, true
}

// Drop creates a clip for asset at the pointer position. Placement problems
// never block the drop; they produce a notice that expires after the
// configured TTL.
func (c *Controller) Drop(asset assets.Asset, p Point, now time.Time) (DropResult, error) {
	if c.mode != ModeIdle {
		return DropResult{}, ErrGestureActive
	}
	start := math.Max(0, c.view.Snap(c.view.PixelsToTime(p.X)))
	track, _ := tracks.ByNumber(c.view.TrackAtY(p.Y))

	kind := clipKindFor(asset, track)
	duration := asset.Duration
	if duration <= 0 {
		duration = DefaultDropDuration
	}

	suggestion := placement.SuggestTrack(asset, &placement.Context{
		ExistingClips: c.tl.Clips(),
		CurrentTime:   start,
	})
	validation := placement.ValidateAgainst(asset, track, suggestion)

	clip, err := c.tl.Insert(timeline.Clip{
		ID:         c.newID(),
		AssetID:    asset.ID,
		Track:      track.Number,
		StartTime:  start,
		Duration:   duration,
		Kind:       kind,
		Properties: tracks.DefaultProperties(track, kind),
	})
	if err != nil {
		return DropResult{}, fmt.Errorf("insert dropped clip: %w", err)
	}
	c.history.Record(history.Command{Op: history.OpAdd, ClipID: clip.ID, After: history.Snapshot(clip)})

	result := DropResult{Clip: clip, Validation: validation, Suggestion: suggestion}
	if !validation.IsValid || len(validation.Warnings) > 0 || suggestion.SuggestedTrack.Number != track.Number {
		notice := &Notice{
			ID:         c.newID(),
			ClipID:     clip.ID,
			Message:    noticeMessage(validation, suggestion),
			Validation: validation,
			Suggestion: suggestion,
			ExpiresAt:  now.Add(c.noticeTTL),
		}
		c.notice = notice
		result.Notice = notice
		c.logger.Info("placement notice raised",
			logging.String("clip_id", clip.ID),
			logging.String("track", track.Name),
			logging.String("suggested_track", suggestion.SuggestedTrack.Name),
			logging.Bool("valid", validation.IsValid),
		)
	}
	return result, nil
}

// clipKindFor picks the kind stamped on a dropped clip. Images validate as
// video, so an image on a track that takes video but not visual assets is
// stored as video.
func clipKindFor(asset assets.Asset, track tracks.Track) timeline.Kind {
	kind := asset.ClipKind()
	if placed := asset.PlacementKind(); !tracks.Accepts(track, kind) && tracks.Accepts(track, placed) {
		kind = placed
	}
	if !kind.Valid() {
		kind = timeline.KindVisualAsset
	}
	return kind
}

// DropByID looks the asset up in the configured store and drops it.
func (c *Controller) DropByID(assetID string, p Point, now time.Time) (DropResult, error) {
	if c.assets == nil {
		return DropResult{}, fmt.Errorf("%w: %s", ErrAssetNotFound, assetID)
	}
	asset, ok := c.assets.GetAssetByID(assetID)
	if !ok {
		return DropResult{}, fmt.Errorf("%w: %s", ErrAssetNotFound, assetID)
	}
	return c.Drop(asset, p, now)
}

// ActiveNotice returns the current notice unless it has expired by now.
func (c *Controller) ActiveNotice(now time.Time) (Notice, bool) {
	if c.notice == nil {
		return Notice{}, false
	}
	if c.notice.Expired(now) {
		c.notice = nil
		return Notice{}, false
	}
	return *c.notice, true
}

// DismissNotice clears the notice with the given ID.
func (c *Controller) DismissNotice(id string) bool {
	if c.notice == nil || c.notice.ID != id {
		return false
	}
	c.notice = nil
	return true
}

// Remove deletes a clip and records the removal.
func (c *Controller) Remove(clipID string) bool {
	if c.mode != ModeIdle && c.active.clipID == clipID {
		return false
	}
	removed, ok := c.tl.Remove(clipID)
	if !ok {
		return false
	}
	c.history.Record(history.Command{Op: history.OpRemove, ClipID: clipID, Before: history.Snapshot(removed)})
	return true
}

// Duplicate copies a clip directly after itself and records the addition.
func (c *Controller) Duplicate(clipID string) (timeline.Clip, error) {
	clip, err := c.tl.Duplicate(clipID, c.newID())
	if err != nil {
		return timeline.Clip{}, err
	}
	c.history.Record(history.Command{Op: history.OpDuplicate, ClipID: clip.ID, After: history.Snapshot(clip)})
	return clip, nil
}
