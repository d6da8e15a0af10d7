package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"lessoncut/internal/export"
	"lessoncut/internal/exportstore"
	"lessoncut/internal/placement"
	"lessoncut/internal/render"
	"lessoncut/internal/services"
	"lessoncut/internal/testsupport"
)

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestTracksRoute(t *testing.T) {
	srv := NewServer("", Options{})
	rr := doRequest(t, srv.Handler(), http.MethodGet, "/api/tracks", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get(requestIDHeader) == "" {
		t.Fatal("missing request id header")
	}
	resp := decodeBody[TracksResponse](t, rr)
	var names []string
	for _, tr := range resp.Tracks {
		names = append(names, tr.Name)
	}
	if diff := cmp.Diff([]string{"Code", "Visual", "Narration", "Personal Video"}, names); diff != "" {
		t.Fatalf("track names mismatch (-want +got):\n%s", diff)
	}
}

func TestSuggestRoute(t *testing.T) {
	srv := NewServer("", Options{})
	body := map[string]any{
		"asset":  map[string]any{"id": "a1", "name": "main.go", "kind": "code"},
		"assets": []map[string]any{{"id": "a2", "name": "webcam-intro.mp4", "kind": "video"}},
	}
	rr := doRequest(t, srv.Handler(), http.MethodPost, "/api/placement/suggest", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[SuggestResponse](t, rr)
	if len(resp.Suggestions) != 2 {
		t.Fatalf("suggestions = %d, want 2", len(resp.Suggestions))
	}
	if got := resp.Suggestions[0].SuggestedTrack.Name; got != "Code" {
		t.Fatalf("first suggestion = %s, want Code", got)
	}
	if got := resp.Suggestions[1].SuggestedTrack.Name; got != "Personal Video" {
		t.Fatalf("second suggestion = %s, want Personal Video", got)
	}

	rr = doRequest(t, srv.Handler(), http.MethodPost, "/api/placement/suggest", map[string]any{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty request status = %d, want 400", rr.Code)
	}
}

func TestValidateRoute(t *testing.T) {
	srv := NewServer("", Options{})
	body := map[string]any{
		"asset": map[string]any{"id": "a1", "name": "clip.mp4", "kind": "video"},
		"track": 3,
	}
	rr := doRequest(t, srv.Handler(), http.MethodPost, "/api/placement/validate", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	v := decodeBody[placement.Validation](t, rr)
	if v.IsValid || len(v.Conflicts) == 0 || v.Suggestion == nil {
		t.Fatalf("unexpected validation %+v", v)
	}

	body["track"] = 9
	rr = doRequest(t, srv.Handler(), http.MethodPost, "/api/placement/validate", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown track status = %d, want 400", rr.Code)
	}
}

func TestInvalidJSONRejected(t *testing.T) {
	srv := NewServer("", Options{})
	req := httptest.NewRequest(http.MethodPost, "/api/placement/validate", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if resp := decodeBody[ErrorResponse](t, rr); resp.Error == "" {
		t.Fatal("expected error message")
	}
}

func TestExportRecordRoutes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dir := t.TempDir()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := filepath.Join(dir, "older.mp4")
	newer := filepath.Join(dir, "newer.mp4")
	testsupport.WriteFile(t, older, 10)
	testsupport.WriteFile(t, newer, 10)
	testsupport.SaveRecord(t, store, "exp-1", "proj-1", older, base)
	testsupport.SaveRecord(t, store, "exp-2", "proj-1", newer, base.Add(time.Minute))
	testsupport.SaveRecord(t, store, "exp-3", "proj-2", filepath.Join(dir, "other.mp4"), base)

	srv := NewServer("", Options{Records: store})
	h := srv.Handler()

	rr := doRequest(t, h, http.MethodGet, "/api/exports?project=proj-1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	list := decodeBody[ExportListResponse](t, rr)
	var ids []string
	for _, rec := range list.Exports {
		ids = append(ids, rec.ID)
	}
	if diff := cmp.Diff([]string{"exp-2", "exp-1"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	rr = doRequest(t, h, http.MethodGet, "/api/exports?project=none", nil)
	if got := decodeBody[ExportListResponse](t, rr); got.Exports == nil || len(got.Exports) != 0 {
		t.Fatalf("expected empty non-nil list, got %+v", got)
	}

	rr = doRequest(t, h, http.MethodGet, "/api/exports/exp-1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("find status = %d", rr.Code)
	}
	if rec := decodeBody[exportstore.Record](t, rr); rec.Path != older {
		t.Fatalf("path = %q, want %q", rec.Path, older)
	}

	rr = doRequest(t, h, http.MethodGet, "/api/exports/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", rr.Code)
	}

	rr = doRequest(t, h, http.MethodDelete, "/api/exports/exp-1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d body=%s", rr.Code, rr.Body.String())
	}
	if resp := decodeBody[ExportDeleteResponse](t, rr); resp.Record.ID != "exp-1" || resp.FileError != "" {
		t.Fatalf("unexpected delete response %+v", resp)
	}
	if _, err := os.Stat(older); !os.IsNotExist(err) {
		t.Fatalf("expected output removed, stat err = %v", err)
	}
}

func TestExportRoutesWithoutStore(t *testing.T) {
	srv := NewServer("", Options{})
	rr := doRequest(t, srv.Handler(), http.MethodGet, "/api/exports", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestExportLifecycleRoutes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	started := make(chan struct{})
	ctrl := export.NewController(export.Options{
		Renderer: render.RendererFunc(func(ctx context.Context, req render.Request) error {
			req.OnProgress(req.TotalFrames()/2, 0)
			close(started)
			<-ctx.Done()
			return services.Wrap(services.ErrCancelled, "render", "wait", "stopped", ctx.Err())
		}),
		Defaults:  cfg.Export,
		OutputDir: cfg.Paths.OutputDir,
		Backoff:   -1,
	})
	srv := NewServer("", Options{Exporter: ctrl})
	defer srv.Stop()
	h := srv.Handler()

	rr := doRequest(t, h, http.MethodPost, "/api/export", StartExportRequest{Project: testsupport.NewProject()})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("start status = %d body=%s", rr.Code, rr.Body.String())
	}
	job := decodeBody[export.Job](t, rr)
	if job.ID == "" {
		t.Fatal("expected job id")
	}
	<-started

	rr = doRequest(t, h, http.MethodPost, "/api/export", StartExportRequest{Project: testsupport.NewProject()})
	if rr.Code != http.StatusConflict {
		t.Fatalf("second start status = %d, want 409", rr.Code)
	}

	rr = doRequest(t, h, http.MethodGet, "/api/export/status", nil)
	status := decodeBody[ExportStatusResponse](t, rr)
	if !status.Exporting || status.Job == nil || status.Job.ID != job.ID {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.Event == nil || status.Event.Status != export.StatusRendering {
		t.Fatalf("expected rendering event, got %+v", status.Event)
	}

	rr = doRequest(t, h, http.MethodPost, "/api/export/cancel", nil)
	if resp := decodeBody[CancelResponse](t, rr); !resp.Cancelled {
		t.Fatal("expected cancel to succeed")
	}
	rr = doRequest(t, h, http.MethodPost, "/api/export/cancel", nil)
	if resp := decodeBody[CancelResponse](t, rr); resp.Cancelled {
		t.Fatal("second cancel should be a no-op")
	}

	rr = doRequest(t, h, http.MethodGet, "/api/export/status", nil)
	status = decodeBody[ExportStatusResponse](t, rr)
	if status.Exporting || status.Job.Status != export.StatusCancelled {
		t.Fatalf("unexpected status after cancel %+v", status)
	}
}

func TestStartExportRejectsInvalidProject(t *testing.T) {
	ctrl := export.NewController(export.Options{Renderer: render.RendererFunc(func(context.Context, render.Request) error { return nil })})
	srv := NewServer("", Options{Exporter: ctrl})
	defer srv.Stop()

	proj := testsupport.NewProject()
	proj.ID = ""
	rr := doRequest(t, srv.Handler(), http.MethodPost, "/api/export", StartExportRequest{Project: proj})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 body=%s", rr.Code, rr.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	srv := NewServer("", Options{})
	rr := doRequest(t, srv.Handler(), http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "lessoncut_export_in_flight") {
		t.Fatal("metrics output missing export gauge")
	}
}

func TestServerStartAndStop(t *testing.T) {
	srv := NewServer("127.0.0.1:0", Options{})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp, err := http.Get("http://" + srv.Addr() + "/api/tracks")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	srv.Stop()
}

func TestDropRoute(t *testing.T) {
	srv := NewServer("", Options{Timeline: testsupport.NewConfig(t).Timeline, NoticeTTL: 5 * time.Second})
	h := srv.Handler()

	rr := doRequest(t, h, http.MethodPost, "/api/timeline/drop", DropRequest{
		Project: testsupport.NewProject(),
		AssetID: "a-screen",
		X:       1000,
		Y:       150,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[DropResponse](t, rr)
	if resp.Clip.Track != 2 || resp.Clip.StartTime != 10 || resp.Clip.Duration != 6 {
		t.Fatalf("unexpected clip %+v", resp.Clip)
	}
	if resp.Notice != nil {
		t.Fatalf("unexpected notice %+v", resp.Notice)
	}
	if len(resp.Clips) != 4 {
		t.Fatalf("clips = %d, want 4", len(resp.Clips))
	}

	rr = doRequest(t, h, http.MethodPost, "/api/timeline/drop", DropRequest{
		Project: testsupport.NewProject(),
		AssetID: "a-voice",
		X:       0,
		Y:       10,
	})
	resp = decodeBody[DropResponse](t, rr)
	if resp.Validation.IsValid || resp.Notice == nil {
		t.Fatalf("expected invalid drop with notice, got %+v", resp)
	}
	if resp.Suggestion.SuggestedTrack.Name != "Narration" {
		t.Fatalf("suggested = %s, want Narration", resp.Suggestion.SuggestedTrack.Name)
	}

	rr = doRequest(t, h, http.MethodPost, "/api/timeline/drop", DropRequest{Project: testsupport.NewProject(), AssetID: "nope"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing asset status = %d, want 404", rr.Code)
	}
}
