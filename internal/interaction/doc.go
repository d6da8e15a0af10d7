// Package interaction owns the timeline's active pointer gesture.
//
// A Controller turns pointer events into clip moves and resizes, routing
// every candidate through the overlap resolver before it is committed. Asset
// drops run the placement advisor and surface a time-limited notice when
// the chosen track is a poor fit; the clip is created regardless.
//
// The controller is driven from a single event loop. Pointer moves may be
// queued with QueueMove and applied once per frame with Flush.
package interaction
