package api

import (
	"time"

	"lessoncut/internal/assets"
	"lessoncut/internal/export"
	"lessoncut/internal/exportstore"
	"lessoncut/internal/placement"
	"lessoncut/internal/project"
	"lessoncut/internal/timeline"
	"lessoncut/internal/tracks"
)

// TracksResponse lists the fixed tracks in display order.
type TracksResponse struct {
	Tracks []tracks.Track `json:"tracks"`
}

// SuggestRequest asks for track suggestions for one or more assets.
type SuggestRequest struct {
	Asset   *assets.Asset      `json:"asset,omitempty"`
	Assets  []assets.Asset     `json:"assets,omitempty"`
	Context *placement.Context `json:"context,omitempty"`
}

// SuggestResponse carries one suggestion per requested asset, in order.
type SuggestResponse struct {
	Suggestions []placement.Suggestion `json:"suggestions"`
}

// ValidateRequest checks an asset against a target track.
type ValidateRequest struct {
	Asset assets.Asset `json:"asset"`
	Track int          `json:"track"`
}

// StartExportRequest starts a background export of Project.
type StartExportRequest struct {
	Project  *project.Project `json:"project"`
	Settings export.Settings  `json:"settings"`
}

// ExportStatusResponse reports the controller state and the latest event.
type ExportStatusResponse struct {
	Exporting bool          `json:"exporting"`
	Job       *export.Job   `json:"job,omitempty"`
	Event     *export.Event `json:"event,omitempty"`
}

// CancelResponse reports whether a running export was stopped.
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// ExportListResponse lists persisted export records, newest first.
type ExportListResponse struct {
	Exports []exportstore.Record `json:"exports"`
}

// ExportDeleteResponse describes a removed export record.
type ExportDeleteResponse struct {
	Record    exportstore.Record `json:"record"`
	FileError string             `json:"fileError,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DropRequest drops an asset onto a project's timeline at a pointer
// position. AssetID refers to one of the project's assets; Asset may be
// sent instead for media not yet in the project.
type DropRequest struct {
	Project *project.Project `json:"project"`
	AssetID string           `json:"assetId,omitempty"`
	Asset   *assets.Asset    `json:"asset,omitempty"`
	X       float64          `json:"x"`
	Y       float64          `json:"y"`
	Zoom    float64          `json:"zoom,omitempty"`
}

// NoticePayload is a placement hint for the dropped clip.
type NoticePayload struct {
	ID        string    `json:"id"`
	ClipID    string    `json:"clipId"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DropResponse carries the new clip and the timeline after overlap
// resolution.
type DropResponse struct {
	Clip       timeline.Clip        `json:"clip"`
	Validation placement.Validation `json:"validation"`
	Suggestion placement.Suggestion `json:"suggestion"`
	Notice     *NoticePayload       `json:"notice,omitempty"`
	Clips      []timeline.Clip      `json:"clips"`
}
