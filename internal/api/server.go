package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"lessoncut/internal/config"
	"lessoncut/internal/export"
	"lessoncut/internal/exportstore"
	"lessoncut/internal/logging"
	"lessoncut/internal/project"
)

// Exporter is the export controller surface the API drives.
type Exporter interface {
	StartExport(ctx context.Context, proj *project.Project, settings export.Settings, onProgress export.ProgressFunc) (export.Job, error)
	CancelExport() bool
	IsCurrentlyExporting() bool
	CurrentJob() (export.Job, bool)
}

// RecordStore reads and deletes persisted export records.
type RecordStore interface {
	List(ctx context.Context) ([]exportstore.Record, error)
	ListByProject(ctx context.Context, projectID string) ([]exportstore.Record, error)
	Find(ctx context.Context, id string) (exportstore.Record, error)
	Delete(ctx context.Context, id string) (exportstore.Deletion, error)
}

// Options wires the server's collaborators. Exporter and Records may be
// nil; the routes that need a missing collaborator answer 503.
type Options struct {
	Exporter  Exporter
	Records   RecordStore
	Timeline  config.Timeline
	NoticeTTL time.Duration
	Logger    *slog.Logger
}

// Server hosts the HTTP API.
type Server struct {
	bind     string
	logger   *slog.Logger
	exporter Exporter
	records  RecordStore
	timeline config.Timeline
	ttl      time.Duration
	handler  http.Handler

	listener net.Listener
	server   *http.Server

	// exports started over HTTP outlive their request
	bgCtx    context.Context
	bgCancel context.CancelFunc
	wg       sync.WaitGroup

	eventMu   sync.Mutex
	lastEvent *export.Event
}

// NewServer builds a server bound to bind once started.
func NewServer(bind string, opts Options) *Server {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	s := &Server{
		bind:     strings.TrimSpace(bind),
		logger:   logging.NewComponentLogger(opts.Logger, "api"),
		exporter: opts.Exporter,
		records:  opts.Records,
		timeline: opts.Timeline,
		ttl:      opts.NoticeTTL,
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}
	s.handler = s.routes()
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the bind address and serves until ctx is done or Stop
// is called.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
		case <-s.bgCtx.Done():
		}
		s.shutdown()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the listener down, interrupts any export started over HTTP
// and waits for background work to finish.
func (s *Server) Stop() {
	s.bgCancel()
	s.shutdown()
	s.wg.Wait()
}

func (s *Server) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) recordEvent(ev export.Event) {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()
	s.lastEvent = &ev
}

func (s *Server) latestEvent(jobID string) *export.Event {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()
	if s.lastEvent == nil || s.lastEvent.JobID != jobID {
		return nil
	}
	ev := *s.lastEvent
	return &ev
}
