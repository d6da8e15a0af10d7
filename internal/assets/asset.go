// Package assets models the media and source files a project can place on
// the timeline, and the lookup contract the placement and export code use to
// resolve clip asset references.
package assets

import (
	"path/filepath"
	"strings"

	"lessoncut/internal/timeline"
)

// Kind classifies an asset's content.
type Kind string

const (
	KindCode        Kind = "code"
	KindVideo       Kind = "video"
	KindAudio       Kind = "audio"
	KindImage       Kind = "image"
	KindTitle       Kind = "title"
	KindVisualAsset Kind = "visual-asset"
)

// Asset is an imported file or generated element that clips reference.
type Asset struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Kind      Kind    `json:"kind"`
	MimeType  string  `json:"mimeType,omitempty"`
	Language  string  `json:"language,omitempty"`
	Extension string  `json:"extension,omitempty"`
	Path      string  `json:"path,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
}

// Ext returns the lowercased file extension with a leading dot, falling back
// to the name or path when Extension is unset.
func (a Asset) Ext() string {
	ext := strings.TrimSpace(a.Extension)
	if ext == "" {
		ext = filepath.Ext(a.Name)
	}
	if ext == "" {
		ext = filepath.Ext(a.Path)
	}
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// PlacementKind is the kind used when choosing a track. Images place like
// video.
func (a Asset) PlacementKind() timeline.Kind {
	switch a.Kind {
	case KindImage:
		return timeline.KindVideo
	default:
		return timeline.Kind(a.Kind)
	}
}

// ClipKind is the kind stamped on clips created from this asset. Images
// become visual-asset clips.
func (a Asset) ClipKind() timeline.Kind {
	switch a.Kind {
	case KindImage:
		return timeline.KindVisualAsset
	default:
		return timeline.Kind(a.Kind)
	}
}

// InferKind guesses a kind from a mime type or extension. It returns an empty
// kind when nothing matches.
func InferKind(mimeType, ext string) Kind {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return KindVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return KindAudio
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	case strings.HasPrefix(mimeType, "text/x-"), mimeType == "application/json", mimeType == "application/javascript":
		return KindCode
	}
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "mp4", "mov", "mkv", "webm", "avi":
		return KindVideo
	case "mp3", "wav", "m4a", "aac", "ogg", "flac":
		return KindAudio
	case "png", "jpg", "jpeg", "gif", "svg", "webp":
		return KindImage
	}
	if IsCodeExtension(ext) {
		return KindCode
	}
	return ""
}

var codeExtensions = map[string]struct{}{
	".go": {}, ".js": {}, ".ts": {}, ".tsx": {}, ".jsx": {}, ".py": {},
	".java": {}, ".rb": {}, ".rs": {}, ".c": {}, ".cpp": {}, ".h": {},
	".cs": {}, ".php": {}, ".swift": {}, ".kt": {}, ".sql": {}, ".html": {},
	".css": {}, ".json": {}, ".yaml": {}, ".sh": {},
}

// IsCodeExtension reports whether ext names a source file type.
func IsCodeExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return false
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	_, ok := codeExtensions[ext]
	return ok
}
