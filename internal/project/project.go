// Package project holds the editable document an export renders: canvas
// defaults, the timeline clips and the assets they reference.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"lessoncut/internal/assets"
	"lessoncut/internal/services"
	"lessoncut/internal/timeline"
)

// Project is a saved editing session.
type Project struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	FPS      int             `json:"fps"`
	Duration float64         `json:"duration,omitempty"`
	Clips    []timeline.Clip `json:"clips"`
	Assets   []assets.Asset  `json:"assets"`
}

// Load reads a project document from path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project %s: %w", path, err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, services.Wrap(services.ErrValidation, "project", "decode", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the fields an export depends on.
func (p *Project) Validate() error {
	if p == nil {
		return services.Wrap(services.ErrValidation, "project", "validate", "project is nil", nil)
	}
	var problems []string
	if strings.TrimSpace(p.ID) == "" {
		problems = append(problems, "id is required")
	}
	if p.Width < 0 || p.Height < 0 || p.FPS < 0 {
		problems = append(problems, "width, height and fps must not be negative")
	}
	if p.Duration < 0 {
		problems = append(problems, "duration must not be negative")
	}
	if err := p.Timeline().Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return services.Wrap(services.ErrValidation, "project", "validate", strings.Join(problems, "; "), nil)
	}
	return nil
}

// Timeline returns a timeline holding copies of the project's clips.
func (p *Project) Timeline() *timeline.Timeline {
	return timeline.New(p.Clips...)
}

// AssetStore returns an in-memory store over the project's assets.
func (p *Project) AssetStore() *assets.MemoryStore {
	return assets.NewMemoryStore(p.Assets...)
}

// EffectiveDuration is the explicit duration or, when unset, the end of the
// last clip.
func (p *Project) EffectiveDuration() float64 {
	if p.Duration > 0 {
		return p.Duration
	}
	return p.Timeline().Duration()
}

// ErrNoProject is returned when a caller omits the project path.
var ErrNoProject = errors.New("project path required")
