package export

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"lessoncut/internal/config"
	"lessoncut/internal/exportstore"
	"lessoncut/internal/fileutil"
	"lessoncut/internal/logging"
	"lessoncut/internal/metrics"
	"lessoncut/internal/project"
	"lessoncut/internal/render"
	"lessoncut/internal/services"
)

// DefaultRetryBackoff is the pause between failed attempts when Options
// leaves Backoff unset.
const DefaultRetryBackoff = 2 * time.Second

// RecordSink persists finished exports.
type RecordSink interface {
	SaveRecord(ctx context.Context, rec exportstore.Record) error
}

// Options configures a Controller.
type Options struct {
	Renderer render.Renderer
	// Defaults supplies codec, quality, retry and canvas fallbacks. The zero
	// value means config.Default().Export.
	Defaults  config.Export
	OutputDir string
	// Backoff is the delay between attempts. Zero selects
	// DefaultRetryBackoff; a negative value disables the wait.
	Backoff time.Duration
	Records RecordSink
	Logger  *slog.Logger
	Now     func() time.Time
	NewID   func() string
}

// Controller runs at most one export at a time.
type Controller struct {
	renderer  render.Renderer
	defaults  config.Export
	outputDir string
	backoff   time.Duration
	records   RecordSink
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	mu         sync.Mutex
	exporting  bool
	generation uint64
	job        *Job
	cancel     context.CancelFunc
}

// NewController constructs an idle controller.
func NewController(opts Options) *Controller {
	c := &Controller{
		renderer:  opts.Renderer,
		defaults:  opts.Defaults,
		outputDir: opts.OutputDir,
		backoff:   opts.Backoff,
		records:   opts.Records,
		logger:    logging.NewComponentLogger(opts.Logger, "export"),
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if c.defaults == (config.Export{}) {
		c.defaults = config.Default().Export
	}
	switch {
	case c.backoff == 0:
		c.backoff = DefaultRetryBackoff
	case c.backoff < 0:
		c.backoff = 0
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	return c
}

// NewControllerFromConfig wires a controller from the export and path
// config sections.
func NewControllerFromConfig(cfg *config.Config, renderer render.Renderer, records RecordSink, logger *slog.Logger) *Controller {
	backoff := cfg.RetryBackoff()
	if backoff == 0 {
		backoff = -1
	}
	return NewController(Options{
		Renderer:  renderer,
		Defaults:  cfg.Export,
		OutputDir: cfg.Paths.OutputDir,
		Backoff:   backoff,
		Records:   records,
		Logger:    logger,
	})
}

// IsCurrentlyExporting reports whether a job holds the controller.
func (c *Controller) IsCurrentlyExporting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exporting
}

// CurrentJob returns a copy of the most recent job, if any.
func (c *Controller) CurrentJob() (Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job == nil {
		return Job{}, false
	}
	return *c.job, true
}

// StartExport renders proj with settings and blocks until the job reaches a
// terminal state. A job cancelled through CancelExport returns its record
// with a nil error. When every attempt fails the error is an
// *ExhaustedError wrapping the last render failure.
func (c *Controller) StartExport(ctx context.Context, proj *project.Project, settings Settings, onProgress ProgressFunc) (Job, error) {
	if proj == nil {
		return Job{}, services.Wrap(services.ErrValidation, "export", "start", "project is required", nil)
	}
	if c.renderer == nil {
		return Job{}, services.Wrap(services.ErrConfiguration, "export", "start", "no renderer configured", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	jobID := c.newID()
	c.mu.Lock()
	if c.exporting {
		c.mu.Unlock()
		metrics.RecordExportRejected()
		return Job{}, ErrExportInProgress
	}
	c.generation++
	gen := c.generation
	job := &Job{
		ID:         jobID,
		ProjectID:  proj.ID,
		Settings:   settings,
		Status:     StatusIdle,
		CreatedAt:  c.now(),
		MaxRetries: c.maxRetries(settings),
	}
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithProjectID(ctx, proj.ID)
	runCtx, cancel := context.WithCancel(ctx)
	c.exporting = true
	c.job = job
	c.cancel = cancel
	c.mu.Unlock()

	metrics.SetExportInFlight(true)
	defer c.release(gen, cancel)

	r := &run{
		c:          c,
		gen:        gen,
		job:        job,
		onProgress: onProgress,
		logger:     logging.WithContext(ctx, c.logger),
		sampler:    logging.NewProgressSampler(5),
	}
	r.logger.Info("export started",
		logging.String(logging.FieldEventType, "export_started"),
		logging.Int("max_retries", job.MaxRetries),
	)
	return r.execute(runCtx, proj, settings)
}

// CancelExport stops the active job. The controller is free for a new
// export as soon as this returns, whether or not the renderer has unwound.
// It reports false when nothing was running.
func (c *Controller) CancelExport() bool {
	c.mu.Lock()
	if !c.exporting || c.job == nil {
		c.mu.Unlock()
		return false
	}
	c.generation++
	now := c.now()
	c.job.Status = StatusCancelled
	c.job.CancelledAt = &now
	c.exporting = false
	cancel := c.cancel
	c.cancel = nil
	jobID, created := c.job.ID, c.job.CreatedAt
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	metrics.SetExportInFlight(false)
	metrics.RecordExportOutcome(string(StatusCancelled), now.Sub(created))
	c.logger.Info("export cancelled",
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldEventType, "export_cancelled"),
	)
	return true
}

func (c *Controller) maxRetries(s Settings) int {
	if s.MaxRetries != nil && *s.MaxRetries >= 0 {
		return *s.MaxRetries
	}
	return max(0, c.defaults.MaxRetries)
}

func (c *Controller) release(gen uint64, cancel context.CancelFunc) {
	cancel()
	c.mu.Lock()
	current := c.generation == gen && c.exporting
	if current {
		c.exporting = false
		c.cancel = nil
	}
	c.mu.Unlock()
	if current {
		metrics.SetExportInFlight(false)
	}
}

// run holds the state of one StartExport call.
type run struct {
	c            *Controller
	gen          uint64
	job          *Job
	onProgress   ProgressFunc
	logger       *slog.Logger
	sampler      *logging.ProgressSampler

	// deliverMu serializes event delivery. Renderers may report progress
	// from their own goroutines, so renderAttempt gates which attempt's
	// callbacks still count; it is zero outside Render.
	deliverMu     sync.Mutex
	renderAttempt int
	lastProgress  float64
}

func (r *run) execute(ctx context.Context, proj *project.Project, settings Settings) (Job, error) {
	maxAttempts := r.job.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := r.attempt(ctx, proj, settings, attempt)
		switch {
		case err == nil:
			metrics.RecordExportAttempt("success")
			r.recordOutcome(StatusCompleted)
			return r.snapshot(), nil
		case errors.Is(err, errSuperseded) || !r.current():
			metrics.RecordExportAttempt("cancelled")
			return r.finishCancelled(), nil
		case ctx.Err() != nil:
			metrics.RecordExportAttempt("cancelled")
			return r.interrupted(ctx)
		}

		lastErr = err
		metrics.RecordExportAttempt("failure")
		r.markFailed(err, attempt)
		if !services.IsRetryable(err) {
			r.recordOutcome(StatusFailed)
			return r.snapshot(), err
		}
		if attempt == maxAttempts {
			break
		}
		r.update(func(j *Job) { j.RetryCount++ })
		logging.WarnWithContext(r.logger, "export attempt failed; retrying", "export_attempt_failed",
			logging.Int(logging.FieldAttempt, attempt),
			logging.Int("max_attempts", maxAttempts),
			logging.Duration("backoff", r.c.backoff),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the renderer output above"),
			logging.String(logging.FieldImpact, "export restarts from preparation"),
		)
		if !r.wait(ctx) {
			if !r.current() {
				return r.finishCancelled(), nil
			}
			return r.interrupted(ctx)
		}
	}

	r.recordOutcome(StatusFailed)
	logging.ErrorWithContext(r.logger, "export failed", "export_failed",
		logging.Int("attempts", maxAttempts),
		logging.Error(lastErr),
		logging.String(logging.FieldErrorHint, "inspect the renderer error and project assets"),
	)
	return r.snapshot(), &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

func (r *run) attempt(ctx context.Context, proj *project.Project, settings Settings, attempt int) error {
	started := r.c.now()
	if !r.update(func(j *Job) {
		j.Status = StatusPreparing
		j.ErrorMessage = ""
		if j.StartedAt == nil {
			j.StartedAt = &started
		}
	}) {
		return errSuperseded
	}
	r.emit(Event{Status: StatusPreparing, Progress: 0, Attempt: attempt})

	p, err := resolvePlan(proj, settings, r.c.defaults, r.c.outputDir, r.job.ID)
	if err != nil {
		return err
	}
	if err := fileutil.EnsureDir(p.OutputDir); err != nil {
		logging.WarnWithContext(r.logger, "could not create output directory", "output_dir_unavailable",
			logging.String("output_dir", p.OutputDir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "renderer may fail to write the output file"),
		)
	}
	composition := buildComposition(proj, proj.AssetStore(), p, r.logger)
	total := p.TotalFrames()

	if !r.update(func(j *Job) {
		j.Status = StatusRendering
		j.Progress = math.Max(j.Progress, PrepareBandEnd)
	}) {
		return errSuperseded
	}
	r.emit(Event{Status: StatusRendering, Progress: PrepareBandEnd, TotalFrames: total, Attempt: attempt})
	r.sampler.Reset()
	r.logger.Info("render attempt started",
		logging.Int(logging.FieldAttempt, attempt),
		logging.String("output", p.OutputPath),
		logging.Int("start_frame", p.StartFrame),
		logging.Int("end_frame", p.EndFrame),
		logging.Int("crf", p.CRF),
		logging.String("video_bitrate", p.VideoBitrate),
	)

	renderStart := r.c.now()
	crf := p.CRF
	req := render.Request{
		Composition:    composition,
		Codec:          p.Codec,
		OutputLocation: p.OutputPath,
		FrameRange:     [2]int{p.StartFrame, p.EndFrame},
		CRF:            &crf,
		VideoBitrate:   p.VideoBitrate,
		AudioCodec:     p.AudioCodec,
		AudioBitrate:   p.AudioBitrate,
		Concurrency:    p.Concurrency,
		OnProgress: func(rendered, encoded int) {
			r.onFrames(rendered, encoded, total, renderStart, attempt)
		},
		OnStart: func() {
			r.logger.Debug("renderer started", logging.Int(logging.FieldAttempt, attempt))
		},
	}
	r.setRenderAttempt(attempt)
	renderErr := r.c.renderer.Render(ctx, req)
	r.setRenderAttempt(0)
	if !r.current() {
		return errSuperseded
	}
	if renderErr != nil {
		return renderErr
	}
	return r.finalize(ctx, p, total, attempt)
}

func (r *run) finalize(ctx context.Context, p plan, total, attempt int) error {
	if !r.update(func(j *Job) {
		j.Status = StatusFinalizing
		j.Progress = FinalizeProgress
	}) {
		return errSuperseded
	}
	r.emit(Event{Status: StatusFinalizing, Progress: FinalizeProgress, RenderedFrames: total, TotalFrames: total, Attempt: attempt})

	size, statErr := fileutil.FileSize(p.OutputPath)
	if statErr != nil {
		logging.WarnWithContext(r.logger, "could not stat export output", "output_stat_failed",
			logging.String("output", p.OutputPath),
			logging.Error(statErr),
			logging.String(logging.FieldImpact, "output size recorded as 0"),
		)
	}
	completed := r.c.now()
	if !r.update(func(j *Job) {
		j.OutputPath = p.OutputPath
		j.OutputSize = size
		j.CompletedAt = &completed
		j.Status = StatusCompleted
		j.Progress = CompleteProgress
	}) {
		return errSuperseded
	}
	r.emit(Event{Status: StatusCompleted, Progress: CompleteProgress, RenderedFrames: total, TotalFrames: total, Attempt: attempt})
	r.logger.Info("export completed",
		logging.String(logging.FieldEventType, "export_completed"),
		logging.String("output", p.OutputPath),
		logging.Int64("size_bytes", size),
		logging.Int(logging.FieldAttempt, attempt),
	)

	if r.c.records != nil {
		rec := exportstore.Record{
			ID:        r.job.ID,
			ProjectID: r.job.ProjectID,
			Filename:  p.Filename,
			Path:      p.OutputPath,
			Size:      size,
			CreatedAt: completed,
		}
		if err := r.c.records.SaveRecord(context.WithoutCancel(ctx), rec); err != nil {
			logging.WarnWithContext(r.logger, "could not persist export record", "export_record_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "export will not appear in the export list"),
			)
		}
	}
	return nil
}

// onFrames maps renderer frame counts onto the render progress band and
// refreshes the timing estimate.
func (r *run) onFrames(rendered, encoded, total int, renderStart time.Time, attempt int) {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()
	if total <= 0 || r.renderAttempt != attempt || !r.current() {
		return
	}
	rendered = min(max(rendered, 0), total)
	elapsed := r.c.now().Sub(renderStart)
	progress := math.Min(PrepareBandEnd+float64(rendered)/float64(total)*(RenderBandEnd-PrepareBandEnd), RenderBandEnd)

	var avg, remaining time.Duration
	if rendered > 0 {
		avg = elapsed / time.Duration(rendered)
		remaining = time.Duration(total-rendered) * avg
	}
	if !r.update(func(j *Job) { j.Progress = math.Max(j.Progress, progress) }) {
		return
	}
	r.deliverLocked(Event{
		Status:             StatusRendering,
		Progress:           progress,
		RenderedFrames:     rendered,
		EncodedFrames:      encoded,
		TotalFrames:        total,
		Attempt:            attempt,
		Elapsed:            elapsed,
		AverageFrameTime:   avg,
		EstimatedRemaining: remaining,
		ETA:                formatETA(remaining),
	})
	if r.sampler.ShouldLog(float64(rendered)/float64(total)*100, string(StatusRendering)) {
		r.logger.Info("render progress",
			logging.Int("rendered_frames", rendered),
			logging.Int("total_frames", total),
			logging.Float64("progress_percent", progress),
			logging.Duration("progress_eta", remaining),
		)
	}
}

func (r *run) markFailed(err error, attempt int) {
	msg := err.Error()
	r.update(func(j *Job) {
		j.Status = StatusFailed
		j.ErrorMessage = msg
	})
	r.emit(Event{Status: StatusFailed, Attempt: attempt, ErrorMessage: msg})
}

func (r *run) finishCancelled() Job {
	r.emitTerminal(Event{Status: StatusCancelled})
	return r.snapshot()
}

// interrupted handles cancellation of the caller's context, which unlike
// CancelExport is reported as an error.
func (r *run) interrupted(ctx context.Context) (Job, error) {
	now := r.c.now()
	r.update(func(j *Job) {
		j.Status = StatusCancelled
		j.CancelledAt = &now
	})
	r.recordOutcome(StatusCancelled)
	r.emitTerminal(Event{Status: StatusCancelled})
	return r.snapshot(), services.Wrap(services.ErrCancelled, "export", "run", "export interrupted", ctx.Err())
}

func (r *run) recordOutcome(status Status) {
	job := r.snapshot()
	metrics.RecordExportOutcome(string(status), r.c.now().Sub(job.CreatedAt))
}

func (r *run) wait(ctx context.Context) bool {
	if r.c.backoff <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(r.c.backoff)
	defer timer.Stop()
	select {
	case <-timer.C:
		return r.current()
	case <-ctx.Done():
		return false
	}
}

func (r *run) current() bool {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	return r.c.generation == r.gen
}

// update applies fn to the job while this run still owns the controller.
func (r *run) update(fn func(*Job)) bool {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if r.c.generation != r.gen {
		return false
	}
	fn(r.job)
	return true
}

func (r *run) snapshot() Job {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	return *r.job
}

func (r *run) emit(ev Event) {
	if !r.current() {
		return
	}
	r.deliver(ev)
}

func (r *run) emitTerminal(ev Event) {
	r.deliver(ev)
}

func (r *run) setRenderAttempt(attempt int) {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()
	r.renderAttempt = attempt
}

func (r *run) deliver(ev Event) {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()
	r.deliverLocked(ev)
}

func (r *run) deliverLocked(ev Event) {
	if r.onProgress == nil {
		return
	}
	ev.JobID = r.job.ID
	ev.Progress = math.Max(ev.Progress, r.lastProgress)
	r.lastProgress = ev.Progress
	r.onProgress(ev)
}
