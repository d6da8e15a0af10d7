package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"lessoncut/internal/assets"
	"lessoncut/internal/export"
	"lessoncut/internal/exportstore"
	"lessoncut/internal/logging"
	"lessoncut/internal/placement"
	"lessoncut/internal/services"
	"lessoncut/internal/tracks"
)

// maxBodyBytes bounds request bodies; a project document with its asset
// list is the largest payload.
const maxBodyBytes = 8 << 20

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, TracksResponse{Tracks: tracks.List()})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if !s.decode(w, r, &req) {
		return
	}
	list := make([]assets.Asset, 0, len(req.Assets)+1)
	if req.Asset != nil {
		list = append(list, *req.Asset)
	}
	list = append(list, req.Assets...)
	if len(list) == 0 {
		s.writeError(w, http.StatusBadRequest, "asset or assets is required")
		return
	}
	s.writeJSON(w, http.StatusOK, SuggestResponse{Suggestions: placement.SuggestBatch(list, req.Context)})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !s.decode(w, r, &req) {
		return
	}
	target, ok := tracks.ByNumber(req.Track)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown track %d", req.Track))
		return
	}
	s.writeJSON(w, http.StatusOK, placement.ValidatePlacement(req.Asset, target))
}

func (s *Server) handleStartExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		s.writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}
	var req StartExportRequest
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

	ctx := s.bgCtx
	if id, ok := services.RequestIDFromContext(r.Context()); ok {
		ctx = services.WithRequestID(ctx, id)
	}
	logger := logging.WithContext(ctx, s.logger)

	started := make(chan export.Event, 1)
	failed := make(chan error, 1)
	var once sync.Once
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		job, err := s.exporter.StartExport(ctx, req.Project, req.Settings, func(ev export.Event) {
			s.recordEvent(ev)
			once.Do(func() { started <- ev })
		})
		if err != nil && !errors.Is(err, export.ErrExportInProgress) {
			logging.WarnWithContext(logger, "background export failed", "export_failed",
				logging.String(logging.FieldJobID, job.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "no output produced"),
			)
		}
		once.Do(func() { failed <- err })
	}()

	select {
	case ev := <-started:
		job, _ := s.exporter.CurrentJob()
		if job.ID != ev.JobID {
			job = export.Job{ID: ev.JobID, Status: ev.Status}
		}
		s.writeJSON(w, http.StatusAccepted, job)
	case err := <-failed:
		if err == nil {
			job, _ := s.exporter.CurrentJob()
			s.writeJSON(w, http.StatusAccepted, job)
			return
		}
		s.writeServiceError(w, err)
	case <-r.Context().Done():
	}
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		s.writeJSON(w, http.StatusOK, ExportStatusResponse{})
		return
	}
	resp := ExportStatusResponse{Exporting: s.exporter.IsCurrentlyExporting()}
	if job, ok := s.exporter.CurrentJob(); ok {
		resp.Job = &job
		resp.Event = s.latestEvent(job.ID)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		s.writeJSON(w, http.StatusOK, CancelResponse{})
		return
	}
	s.writeJSON(w, http.StatusOK, CancelResponse{Cancelled: s.exporter.CancelExport()})
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	if !s.requireRecords(w) {
		return
	}
	var (
		records []exportstore.Record
		err     error
	)
	if projectID := strings.TrimSpace(r.URL.Query().Get("project")); projectID != "" {
		records, err = s.records.ListByProject(r.Context(), projectID)
	} else {
		records, err = s.records.List(r.Context())
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []exportstore.Record{}
	}
	s.writeJSON(w, http.StatusOK, ExportListResponse{Exports: records})
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	if !s.requireRecords(w) {
		return
	}
	rec, err := s.records.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteExport(w http.ResponseWriter, r *http.Request) {
	if !s.requireRecords(w) {
		return
	}
	deletion, err := s.records.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	resp := ExportDeleteResponse{Record: deletion.Record}
	if deletion.FileErr != nil {
		resp.FileError = deletion.FileErr.Error()
		logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "export file removal failed", "export_file_remove_failed",
			logging.String("path", deletion.Record.Path),
			logging.Error(deletion.FileErr),
			logging.String(logging.FieldImpact, "file left on disk"),
		)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requireRecords(w http.ResponseWriter) bool {
	if s.records == nil {
		s.writeError(w, http.StatusServiceUnavailable, "export history is not configured")
		return false
	}
	return true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(s.logger, w, status, payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	writeError(s.logger, w, status, message)
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	s.writeError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrPrecondition):
		return http.StatusConflict
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logging.Error(err))
	}
}

func writeError(logger *slog.Logger, w http.ResponseWriter, status int, message string) {
	writeJSON(logger, w, status, ErrorResponse{Error: message})
}
