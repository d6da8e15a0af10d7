package api

import (
	"errors"
	"net/http"
	"time"

	"lessoncut/internal/interaction"
)

// handleDrop replays a drop against a copy of the posted project so the UI
// can preview where the clip lands and which notice to show.
func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req DropRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Project == nil {
		s.writeError(w, http.StatusBadRequest, "project is required")
		return
	}
	if err := req.Project.Validate(); err != nil {
		s.writeServiceError(w, err)
		return
	}
	if req.Asset == nil && req.AssetID == "" {
		s.writeError(w, http.StatusBadRequest, "assetId or asset is required")
		return
	}

	ctrl := interaction.NewController(req.Project.Timeline(), interaction.Options{
		Viewport:  interaction.ViewportFromConfig(s.timeline),
		NoticeTTL: s.ttl,
		Assets:    req.Project.AssetStore(),
		Logger:    s.logger,
	})
	if req.Zoom != 0 {
		ctrl.SetZoom(req.Zoom)
	}

	point := interaction.Point{X: req.X, Y: req.Y}
	now := time.Now()
	var (
		result interaction.DropResult
		err    error
	)
	if req.Asset != nil {
		result, err = ctrl.Drop(*req.Asset, point, now)
	} else {
		result, err = ctrl.DropByID(req.AssetID, point, now)
	}
	if errors.Is(err, interaction.ErrAssetNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	resp := DropResponse{
		Clip:       result.Clip,
		Validation: result.Validation,
		Suggestion: result.Suggestion,
		Clips:      ctrl.Timeline().Clips(),
	}
	if n := result.Notice; n != nil {
		resp.Notice = &NoticePayload{ID: n.ID, ClipID: n.ClipID, Message: n.Message, ExpiresAt: n.ExpiresAt}
	}
	s.writeJSON(w, http.StatusOK, resp)
}
