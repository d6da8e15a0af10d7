package testsupport

import (
	"lessoncut/internal/assets"
	"lessoncut/internal/project"
	"lessoncut/internal/timeline"
)

// NewProject returns a small three-track lesson lasting ten seconds at
// 30 fps: a code clip, a screen recording and a narration clip.
func NewProject() *project.Project {
	return &project.Project{
		ID:     "proj-1",
		Name:   "Intro to Go",
		Width:  1280,
		Height: 720,
		FPS:    30,
		Clips: []timeline.Clip{
			{ID: "c-code", AssetID: "a-code", Track: 1, StartTime: 0, Duration: 10, Kind: timeline.KindCode},
			{ID: "c-screen", AssetID: "a-screen", Track: 2, StartTime: 2, Duration: 6, Kind: timeline.KindVideo},
			{ID: "c-voice", AssetID: "a-voice", Track: 3, StartTime: 0, Duration: 9.5, Kind: timeline.KindAudio},
		},
		Assets: []assets.Asset{
			{ID: "a-code", Name: "main.go", Kind: assets.KindCode, Language: "go"},
			{ID: "a-screen", Name: "screen-recording.mp4", Kind: assets.KindVideo, Duration: 6},
			{ID: "a-voice", Name: "voiceover.wav", Kind: assets.KindAudio, Duration: 9.5},
		},
	}
}
