// Package api serves the editing UI over HTTP: track metadata, placement
// suggestions and validation, export status and cancellation, the persisted
// export history and Prometheus metrics.
//
// # Routes
//
//	GET    /api/tracks
//	POST   /api/placement/suggest
//	POST   /api/placement/validate
//	POST   /api/timeline/drop
//	POST   /api/export
//	GET    /api/export/status
//	POST   /api/export/cancel
//	GET    /api/exports?project=<id>
//	GET    /api/exports/{id}
//	DELETE /api/exports/{id}
//	GET    /metrics
//
// # Design Notes
//
// Payloads use camelCase JSON tags for the TypeScript front end. Errors are
// returned as {"error": "..."} with a status derived from the services error
// markers. Every request carries an X-Request-ID that is also attached to
// the request context so log lines correlate.
//
// POST /api/export starts the job in the background and answers 202 with the
// job id; progress is polled through /api/export/status.
package api
