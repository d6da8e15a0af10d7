// Package exportstore persists finished export records in SQLite.
//
// Records are written once per completed export and looked up by project
// for listing or by job ID for show and delete. Deleting a record also
// removes the rendered file and its JSON sidecar on a best-effort basis.
package exportstore
