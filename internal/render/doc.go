// Package render defines the contract between the export controller and the
// external composition renderer, plus a CLI implementation that drives a
// renderer binary and streams its JSON progress events.
package render
