// Package export drives a single render job at a time from a project
// snapshot to a video file.
//
// A Controller walks each job through preparing, rendering and finalizing
// before it reaches completed, failed or cancelled. Renderer failures are
// retried in an explicit loop with a fixed backoff, restarting the whole
// pipeline each time. Cancellation frees the controller immediately; a
// generation counter keeps a late-returning renderer from touching state
// that now belongs to someone else.
package export
