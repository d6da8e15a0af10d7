package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"lessoncut/internal/exportstore"
	"lessoncut/internal/render"
	"lessoncut/internal/services"
	"lessoncut/internal/testsupport"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) count(status Status) int {
	n := 0
	for _, ev := range r.snapshot() {
		if ev.Status == status {
			n++
		}
	}
	return n
}

type memorySink struct {
	mu      sync.Mutex
	records []exportstore.Record
	err     error
}

func (s *memorySink) SaveRecord(_ context.Context, rec exportstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func newTestController(t *testing.T, renderer render.Renderer, sink RecordSink) *Controller {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	ids := 0
	return NewController(Options{
		Renderer:  renderer,
		Defaults:  cfg.Export,
		OutputDir: cfg.Paths.OutputDir,
		Backoff:   -1,
		Records:   sink,
		NewID: func() string {
			ids++
			return fmt.Sprintf("job%04d-0000", ids)
		},
	})
}

// writingRenderer reports progress in three steps and writes a small file.
func writingRenderer(t *testing.T, seen *[]render.Request) render.RendererFunc {
	return func(_ context.Context, req render.Request) error {
		if seen != nil {
			*seen = append(*seen, req)
		}
		if req.OnStart != nil {
			req.OnStart()
		}
		total := req.TotalFrames()
		for _, n := range []int{0, total / 2, total} {
			req.OnProgress(n, n)
		}
		testsupport.WriteFile(t, req.OutputLocation, 1024)
		return nil
	}
}

func assertMonotonic(t *testing.T, events []Event) {
	t.Helper()
	last := -1.0
	for i, ev := range events {
		if ev.Progress < last {
			t.Fatalf("event %d (%s) progress %.2f went backwards from %.2f", i, ev.Status, ev.Progress, last)
		}
		last = ev.Progress
	}
}

func TestStartExportCompletes(t *testing.T) {
	var seen []render.Request
	sink := &memorySink{}
	ctrl := newTestController(t, writingRenderer(t, &seen), sink)
	rec := &recorder{}

	job, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{}, rec.record)
	if err != nil {
		t.Fatalf("StartExport: %v", err)
	}
	if job.Status != StatusCompleted || job.Progress != CompleteProgress {
		t.Fatalf("job = %s %.1f, want completed 100", job.Status, job.Progress)
	}
	if job.OutputSize != 1024 {
		t.Fatalf("output size = %d, want 1024", job.OutputSize)
	}
	if job.StartedAt == nil || job.CompletedAt == nil {
		t.Fatalf("expected start and completion timestamps, got %+v", job)
	}
	if ctrl.IsCurrentlyExporting() {
		t.Fatal("controller still exporting after completion")
	}

	events := rec.snapshot()
	assertMonotonic(t, events)
	var statuses []Status
	for _, ev := range events {
		if len(statuses) == 0 || statuses[len(statuses)-1] != ev.Status {
			statuses = append(statuses, ev.Status)
		}
	}
	want := []Status{StatusPreparing, StatusRendering, StatusFinalizing, StatusCompleted}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Fatalf("status sequence mismatch (-want +got):\n%s", diff)
	}
	if last := events[len(events)-1]; last.Progress != CompleteProgress {
		t.Fatalf("last progress = %.1f, want 100", last.Progress)
	}
	for _, ev := range events {
		if ev.Status == StatusRendering && (ev.Progress < PrepareBandEnd || ev.Progress > RenderBandEnd) {
			t.Fatalf("rendering progress %.2f outside render band", ev.Progress)
		}
	}

	if len(seen) != 1 {
		t.Fatalf("renderer calls = %d, want 1", len(seen))
	}
	req := seen[0]
	if req.FrameRange != [2]int{0, 300} {
		t.Fatalf("frame range = %v, want [0 300]", req.FrameRange)
	}
	if req.CRF == nil || *req.CRF != 18 || req.VideoBitrate != "8M" {
		t.Fatalf("expected high preset, got crf=%v bitrate=%q", req.CRF, req.VideoBitrate)
	}
	if len(req.Composition.Clips) != 3 {
		t.Fatalf("composition clips = %d, want 3", len(req.Composition.Clips))
	}
	screen := req.Composition.Clips[1]
	if screen.StartFrame != 60 || screen.DurationInFrames != 180 || screen.Asset == nil {
		t.Fatalf("unexpected screen clip %+v", screen)
	}

	if len(sink.records) != 1 {
		t.Fatalf("records = %d, want 1", len(sink.records))
	}
	if got := sink.records[0]; got.ID != job.ID || got.ProjectID != "proj-1" || got.Size != 1024 || got.Path != job.OutputPath {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestStartExportExhaustsRetries(t *testing.T) {
	renderErr := errors.New("encoder crashed")
	calls := 0
	ctrl := newTestController(t, render.RendererFunc(func(context.Context, render.Request) error {
		calls++
		return renderErr
	}), nil)
	rec := &recorder{}
	retries := 2

	job, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{MaxRetries: &retries}, rec.record)
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 || !errors.Is(err, renderErr) {
		t.Fatalf("unexpected exhausted error %+v", exhausted)
	}
	if calls != 3 {
		t.Fatalf("renderer calls = %d, want 3", calls)
	}
	if got := rec.count(StatusFailed); got != 3 {
		t.Fatalf("failed events = %d, want 3", got)
	}
	if job.Status != StatusFailed || job.RetryCount != 2 || job.ErrorMessage != "encoder crashed" {
		t.Fatalf("unexpected job %+v", job)
	}
	if ctrl.IsCurrentlyExporting() {
		t.Fatal("controller still exporting after failure")
	}
}

func TestStartExportRecoversOnRetry(t *testing.T) {
	calls := 0
	ok := writingRenderer(t, nil)
	ctrl := newTestController(t, render.RendererFunc(func(ctx context.Context, req render.Request) error {
		calls++
		if calls == 1 {
			req.OnProgress(150, 150)
			return errors.New("transient")
		}
		return ok(ctx, req)
	}), nil)
	rec := &recorder{}

	job, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{}, rec.record)
	if err != nil {
		t.Fatalf("StartExport: %v", err)
	}
	if job.Status != StatusCompleted || job.RetryCount != 1 || job.ErrorMessage != "" {
		t.Fatalf("unexpected job %+v", job)
	}
	assertMonotonic(t, rec.snapshot())
}

func TestStartExportDoesNotRetryValidationErrors(t *testing.T) {
	calls := 0
	ctrl := newTestController(t, render.RendererFunc(func(context.Context, render.Request) error {
		calls++
		return nil
	}), nil)

	job, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{Quality: "cinematic"}, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("renderer called %d times", calls)
	}
	if job.Status != StatusFailed || job.RetryCount != 0 {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestStartExportRequiresRenderer(t *testing.T) {
	ctrl := newTestController(t, nil, nil)
	if _, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if ctrl.IsCurrentlyExporting() {
		t.Fatal("controller marked busy without a renderer")
	}
}

func TestStartExportQualityAndRange(t *testing.T) {
	crf := 20
	start, end := 2.0, 5.0
	tests := []struct {
		name     string
		settings Settings
		crf      int
		bitrate  string
		frames   [2]int
	}{
		{name: "ultra", settings: Settings{Quality: QualityUltra}, crf: 12, bitrate: "15M", frames: [2]int{0, 300}},
		{name: "low", settings: Settings{Quality: QualityLow}, crf: 28, bitrate: "2M", frames: [2]int{0, 300}},
		{name: "explicit crf", settings: Settings{Quality: QualityLow, CRF: &crf, VideoBitrate: "3M"}, crf: 20, bitrate: "3M", frames: [2]int{0, 300}},
		{name: "range", settings: Settings{StartTime: &start, EndTime: &end}, crf: 18, bitrate: "8M", frames: [2]int{60, 150}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen []render.Request
			ctrl := newTestController(t, writingRenderer(t, &seen), nil)
			if _, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), tt.settings, nil); err != nil {
				t.Fatalf("StartExport: %v", err)
			}
			req := seen[0]
			if *req.CRF != tt.crf || req.VideoBitrate != tt.bitrate {
				t.Fatalf("crf=%d bitrate=%q, want %d %q", *req.CRF, req.VideoBitrate, tt.crf, tt.bitrate)
			}
			if req.FrameRange != tt.frames {
				t.Fatalf("frames = %v, want %v", req.FrameRange, tt.frames)
			}
		})
	}
}

func TestStartExportMissingOutputIsNotFatal(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	ctrl := newTestController(t, render.RendererFunc(func(_ context.Context, req render.Request) error {
		req.OnProgress(req.TotalFrames(), req.TotalFrames())
		return nil
	}), sink)

	job, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{}, nil)
	if err != nil {
		t.Fatalf("StartExport: %v", err)
	}
	if job.Status != StatusCompleted || job.OutputSize != 0 {
		t.Fatalf("unexpected job %+v", job)
	}
}

// blockingRenderer reports half the frames then waits for cancellation.
func blockingRenderer(started chan<- struct{}) render.RendererFunc {
	return func(ctx context.Context, req render.Request) error {
		req.OnProgress(req.TotalFrames()/2, 0)
		close(started)
		<-ctx.Done()
		return services.Wrap(services.ErrCancelled, "render", "wait", "renderer stopped", ctx.Err())
	}
}

type result struct {
	job Job
	err error
}

func TestCancelExportDuringRender(t *testing.T) {
	started := make(chan struct{})
	ctrl := newTestController(t, blockingRenderer(started), nil)
	rec := &recorder{}

	done := make(chan result, 1)
	go func() {
		job, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{}, rec.record)
		done <- result{job, err}
	}()
	<-started

	if !ctrl.IsCurrentlyExporting() {
		t.Fatal("expected export in progress")
	}
	if !ctrl.CancelExport() {
		t.Fatal("CancelExport returned false")
	}
	if ctrl.IsCurrentlyExporting() {
		t.Fatal("controller still exporting right after cancel")
	}
	if ctrl.CancelExport() {
		t.Fatal("second CancelExport should report nothing to cancel")
	}

	res := <-done
	if res.err != nil {
		t.Fatalf("StartExport: %v", res.err)
	}
	if res.job.Status != StatusCancelled || res.job.CancelledAt == nil {
		t.Fatalf("unexpected job %+v", res.job)
	}
	events := rec.snapshot()
	assertMonotonic(t, events)
	if last := events[len(events)-1]; last.Status != StatusCancelled {
		t.Fatalf("last event = %s, want cancelled", last.Status)
	}
	if rec.count(StatusFailed) != 0 {
		t.Fatal("cancelled export must not report failures")
	}
	if job, ok := ctrl.CurrentJob(); !ok || job.Status != StatusCancelled {
		t.Fatalf("CurrentJob = %+v %v", job, ok)
	}
}

func TestLateProgressAfterCompletionIgnored(t *testing.T) {
	var late func(rendered, encoded int)
	ok := writingRenderer(t, nil)
	ctrl := newTestController(t, render.RendererFunc(func(ctx context.Context, req render.Request) error {
		late = req.OnProgress
		return ok(ctx, req)
	}), nil)
	rec := &recorder{}

	job, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{}, rec.record)
	if err != nil {
		t.Fatalf("StartExport: %v", err)
	}
	before := len(rec.snapshot())
	late(10, 10)

	events := rec.snapshot()
	if len(events) != before {
		t.Fatalf("late callback emitted %d extra events", len(events)-before)
	}
	if last := events[len(events)-1]; last.Status != StatusCompleted || last.Progress != CompleteProgress {
		t.Fatalf("last event = %s %.1f, want completed 100", last.Status, last.Progress)
	}
	if got, _ := ctrl.CurrentJob(); got.Status != StatusCompleted || got.Progress != CompleteProgress {
		t.Fatalf("job changed after completion: %+v (returned %+v)", got, job)
	}
}

func TestProgressFromRendererGoroutines(t *testing.T) {
	ctrl := newTestController(t, render.RendererFunc(func(_ context.Context, req render.Request) error {
		total := req.TotalFrames()
		var wg sync.WaitGroup
		for i := range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				req.OnProgress(total*(i+1)/4, 0)
			}()
		}
		wg.Wait()
		testsupport.WriteFile(t, req.OutputLocation, 64)
		return nil
	}), nil)
	rec := &recorder{}

	job, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{}, rec.record)
	if err != nil {
		t.Fatalf("StartExport: %v", err)
	}
	if job.Status != StatusCompleted {
		t.Fatalf("status = %s", job.Status)
	}
	assertMonotonic(t, rec.snapshot())
}

func TestStaleAttemptProgressIgnored(t *testing.T) {
	var stale func(rendered, encoded int)
	calls := 0
	ok := writingRenderer(t, nil)
	ctrl := newTestController(t, render.RendererFunc(func(ctx context.Context, req render.Request) error {
		calls++
		if calls == 1 {
			stale = req.OnProgress
			return errors.New("transient")
		}
		stale(req.TotalFrames(), 0)
		return ok(ctx, req)
	}), nil)
	rec := &recorder{}

	if _, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{}, rec.record); err != nil {
		t.Fatalf("StartExport: %v", err)
	}
	events := rec.snapshot()
	for _, ev := range events {
		if ev.Status == StatusRendering && ev.Attempt == 1 && ev.RenderedFrames > 0 {
			t.Fatalf("stale attempt progress delivered: %+v", ev)
		}
	}
	assertMonotonic(t, events)
}

func TestCancelExportFromProgressCallback(t *testing.T) {
	var ctrl *Controller
	ctrl = newTestController(t, render.RendererFunc(func(ctx context.Context, req render.Request) error {
		req.OnProgress(10, 10)
		req.OnProgress(20, 20)
		return ctx.Err()
	}), nil)

	cancelled := false
	job, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{}, func(ev Event) {
		if ev.Status == StatusRendering && ev.RenderedFrames > 0 && !cancelled {
			cancelled = ctrl.CancelExport()
		}
	})
	if err != nil {
		t.Fatalf("StartExport: %v", err)
	}
	if !cancelled || job.Status != StatusCancelled {
		t.Fatalf("cancelled=%v job=%+v", cancelled, job)
	}
}

func TestStartExportRejectsConcurrentJobs(t *testing.T) {
	started := make(chan struct{})
	ctrl := newTestController(t, blockingRenderer(started), nil)

	done := make(chan result, 1)
	go func() {
		job, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{}, nil)
		done <- result{job, err}
	}()
	<-started

	_, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{}, nil)
	if !errors.Is(err, ErrExportInProgress) || !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected in-progress error, got %v", err)
	}

	ctrl.CancelExport()
	if res := <-done; res.err != nil {
		t.Fatalf("first export: %v", res.err)
	}
}

func TestStartExportAfterCancelUsesFreshJob(t *testing.T) {
	started := make(chan struct{})
	renders := 0
	ctrl := newTestController(t, render.RendererFunc(func(ctx context.Context, req render.Request) error {
		renders++
		if renders == 1 {
			return blockingRenderer(started)(ctx, req)
		}
		return writingRenderer(t, nil)(ctx, req)
	}), nil)

	done := make(chan result, 1)
	go func() {
		job, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{}, nil)
		done <- result{job, err}
	}()
	<-started
	ctrl.CancelExport()
	first := <-done

	second, err := ctrl.StartExport(context.Background(), testsupport.NewProject(), Settings{}, nil)
	if err != nil {
		t.Fatalf("second export: %v", err)
	}
	if second.ID == first.job.ID || second.Status != StatusCompleted {
		t.Fatalf("unexpected second job %+v", second)
	}
	if first.job.Status != StatusCancelled {
		t.Fatalf("first job status = %s", first.job.Status)
	}
}

func TestStartExportParentContextCancelled(t *testing.T) {
	started := make(chan struct{})
	ctrl := newTestController(t, blockingRenderer(started), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan result, 1)
	go func() {
		job, err := ctrl.StartExport(ctx, testsupport.NewProject(), Settings{}, nil)
		done <- result{job, err}
	}()
	<-started
	cancel()

	res := <-done
	if !errors.Is(res.err, services.ErrCancelled) {
		t.Fatalf("expected cancellation error, got %v", res.err)
	}
	if res.job.Status != StatusCancelled || res.job.RetryCount != 0 {
		t.Fatalf("unexpected job %+v", res.job)
	}
	if ctrl.IsCurrentlyExporting() {
		t.Fatal("controller still exporting")
	}
}

func TestStartExportStopsRetryingWhenContextCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	ctrl := NewController(Options{
		Renderer: render.RendererFunc(func(context.Context, render.Request) error {
			cancel()
			return errors.New("boom")
		}),
		Defaults:  cfg.Export,
		OutputDir: cfg.Paths.OutputDir,
		Backoff:   time.Hour,
	})

	job, err := ctrl.StartExport(ctx, testsupport.NewProject(), Settings{}, nil)
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if job.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", job.Status)
	}
}
