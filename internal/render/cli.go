package render

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"lessoncut/internal/services"
)

var commandContext = exec.CommandContext

// maxEventLine bounds a single JSON line read from the renderer.
const maxEventLine = 1 << 20

// Event types emitted by the renderer binary, one JSON object per line.
const (
	EventStart    = "start"
	EventProgress = "progress"
	EventError    = "error"
	EventDone     = "done"
)

type event struct {
	Type           string `json:"type"`
	RenderedFrames int    `json:"renderedFrames"`
	EncodedFrames  int    `json:"encodedFrames"`
	Message        string `json:"message"`
}

// Option configures the CLI renderer.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if strings.TrimSpace(binary) != "" {
			c.binary = strings.TrimSpace(binary)
		}
	}
}

// CLI drives an external renderer binary. The request is written to the
// process's stdin as JSON and progress is read from stdout.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI renderer using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "lessoncut-render"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Binary returns the renderer executable name.
func (c *CLI) Binary() string { return c.binary }

// Args returns the command-line arguments used for req.
func (c *CLI) Args(req Request) []string {
	args := []string{
		"render",
		"--input", "-",
		"--output", req.OutputLocation,
		"--frames", strconv.Itoa(req.FrameRange[0]) + "-" + strconv.Itoa(req.FrameRange[1]),
		"--progress-json",
	}
	if req.Concurrency > 0 {
		args = append(args, "--concurrency", strconv.Itoa(req.Concurrency))
	}
	return args
}

// Render implements Renderer.
func (c *CLI) Render(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.OutputLocation) == "" {
		return services.Wrap(services.ErrValidation, "render", "prepare request", "output location required", nil)
	}
	if req.TotalFrames() <= 0 {
		return services.Wrap(services.ErrValidation, "render", "prepare request",
			fmt.Sprintf("empty frame range %d-%d", req.FrameRange[0], req.FrameRange[1]), nil)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode render request: %w", err)
	}

	cmd := commandContext(ctx, c.binary, c.Args(req)...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(payload)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return services.Wrap(services.ErrCancelled, "render", "start renderer", "render interrupted", ctxErr)
		}
		return services.Wrap(services.ErrRender, "render", "start renderer", c.binary, err)
	}

	var lastError string
	started := false
	lastRendered, lastEncoded := 0, 0
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)
	for scanner.Scan() {
		var ev event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		switch ev.Type {
		case EventStart:
			if !started && req.OnStart != nil {
				req.OnStart()
			}
			started = true
		case EventProgress:
			if ev.RenderedFrames < lastRendered {
				ev.RenderedFrames = lastRendered
			}
			if ev.EncodedFrames < lastEncoded {
				ev.EncodedFrames = lastEncoded
			}
			lastRendered, lastEncoded = ev.RenderedFrames, ev.EncodedFrames
			if req.OnProgress != nil {
				req.OnProgress(ev.RenderedFrames, ev.EncodedFrames)
			}
		case EventError:
			lastError = strings.TrimSpace(ev.Message)
		}
	}
	scanErr := scanner.Err()
	// keep the pipe drained so the renderer cannot block on a full stdout
	_, _ = io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return services.Wrap(services.ErrCancelled, "render", "run renderer", "render interrupted", ctxErr)
	}
	if waitErr != nil {
		detail := lastError
		if detail == "" {
			detail = strings.TrimSpace(stderr.String())
		}
		if detail == "" {
			detail = "renderer exited with error"
		}
		return services.Wrap(services.ErrRender, "render", "run renderer", detail, waitErr)
	}
	if scanErr != nil {
		return fmt.Errorf("read renderer output: %w", scanErr)
	}
	if lastError != "" {
		return services.Wrap(services.ErrRender, "render", "run renderer", lastError, errors.New("renderer reported an error"))
	}
	return nil
}

var _ Renderer = (*CLI)(nil)
