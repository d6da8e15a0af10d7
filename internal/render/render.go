package render

import (
	"context"

	"lessoncut/internal/assets"
	"lessoncut/internal/timeline"
)

// CompositionClip is a clip expressed in frames with its asset resolved.
type CompositionClip struct {
	ID               string              `json:"id"`
	Track            int                 `json:"track"`
	Kind             timeline.Kind       `json:"kind"`
	StartFrame       int                 `json:"startFrame"`
	DurationInFrames int                 `json:"durationInFrames"`
	Properties       map[string]any      `json:"properties,omitempty"`
	Keyframes        []timeline.Keyframe `json:"keyframes,omitempty"`
	Asset            *assets.Asset       `json:"asset,omitempty"`
}

// Composition describes everything the renderer paints.
type Composition struct {
	DurationInFrames int               `json:"durationInFrames"`
	FPS              int               `json:"fps"`
	Width            int               `json:"width"`
	Height           int               `json:"height"`
	Clips            []CompositionClip `json:"clips"`
}

// Request is one render invocation. FrameRange is inclusive of the start
// frame and exclusive of the end frame.
type Request struct {
	Composition    Composition `json:"composition"`
	Codec          string      `json:"codec"`
	OutputLocation string      `json:"outputLocation"`
	FrameRange     [2]int      `json:"frameRange"`
	CRF            *int        `json:"crf,omitempty"`
	VideoBitrate   string      `json:"videoBitrate,omitempty"`
	AudioCodec     string      `json:"audioCodec"`
	AudioBitrate   string      `json:"audioBitrate,omitempty"`
	Concurrency    int         `json:"concurrency,omitempty"`

	// OnProgress receives non-decreasing rendered and encoded frame counts.
	OnProgress func(renderedFrames, encodedFrames int) `json:"-"`
	// OnStart fires once the renderer begins producing frames.
	OnStart func() `json:"-"`
}

// TotalFrames returns the number of frames in the requested range.
func (r Request) TotalFrames() int {
	return r.FrameRange[1] - r.FrameRange[0]
}

// Renderer produces a video file at Request.OutputLocation or returns an
// error. Implementations should stop when ctx is cancelled but callers must
// not rely on it.
type Renderer interface {
	Render(ctx context.Context, req Request) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, req Request) error

func (f RendererFunc) Render(ctx context.Context, req Request) error {
	return f(ctx, req)
}
