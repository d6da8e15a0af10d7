// Package services defines shared utilities consumed by the placement,
// interaction, and export packages.
//
// Key responsibilities:
//   - context annotation helpers carrying job, project, and request identifiers
//     so logging can tag lines without threading IDs through every call
//   - sentinel error markers that classify failures (precondition, render,
//     cancellation, validation) for callers that branch with errors.Is
package services
