// Package timeline holds the clip data model and the overlap resolver that
// keeps clips on a track from overlapping.
//
// A Timeline is an unordered set of clips partitioned by track number. Every
// mutation that places or moves a clip routes its proposed interval through
// Resolve so no two clips on the same track share any part of
// [StartTime, StartTime+Duration). Resolve is pure and safe to call from any
// goroutine.
package timeline
