package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"lessoncut/internal/export"
	"lessoncut/internal/exportstore"
	"lessoncut/internal/project"
	"lessoncut/internal/render"
)

type exportFlags struct {
	quality     string
	codec       string
	outputDir   string
	filename    string
	crf         int
	bitrate     string
	start       float64
	end         float64
	maxRetries  int
	concurrency int
}

func (f *exportFlags) settings(cmd *cobra.Command) export.Settings {
	s := export.Settings{
		Quality:      export.Quality(strings.TrimSpace(f.quality)),
		Codec:        strings.TrimSpace(f.codec),
		OutputDir:    strings.TrimSpace(f.outputDir),
		Filename:     strings.TrimSpace(f.filename),
		VideoBitrate: strings.TrimSpace(f.bitrate),
		Concurrency:  f.concurrency,
	}
	if cmd.Flags().Changed("crf") {
		crf := f.crf
		s.CRF = &crf
	}
	if cmd.Flags().Changed("start") {
		start := f.start
		s.StartTime = &start
	}
	if cmd.Flags().Changed("end") {
		end := f.end
		s.EndTime = &end
	}
	if cmd.Flags().Changed("max-retries") {
		retries := f.maxRetries
		s.MaxRetries = &retries
	}
	return s
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export <project.json>",
		Short: "Render a project to a video file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
				return project.ErrNoProject
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			proj, err := project.Load(args[0])
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire export lock: %w", err)
			}
			if !ok {
				return errors.New("another lessoncut export is already running")
			}
			defer lock.Unlock() //nolint:errcheck

			logger := ctx.logger()
			renderer := render.NewCLI(render.WithBinary(cfg.Export.RendererBinary))
			return ctx.withStore(func(store *exportstore.Store) error {
				ctrl := export.NewControllerFromConfig(cfg, renderer, store, logger)
				out := cmd.OutOrStdout()
				printer := newProgressPrinter(out)
				job, err := ctrl.StartExport(cmd.Context(), proj, flags.settings(cmd), printer.handle)
				printer.finish()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Export %s: %s (%s)\n", label(string(job.Status)), job.OutputPath, humanBytes(job.OutputSize))
				if job.RetryCount > 0 {
					fmt.Fprintf(out, "Succeeded after %d retries\n", job.RetryCount)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&flags.quality, "quality", "q", "", "Quality preset: low, medium, high, ultra")
	cmd.Flags().StringVar(&flags.codec, "codec", "", "Video codec override")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "Directory for the rendered file")
	cmd.Flags().StringVar(&flags.filename, "filename", "", "Output file name")
	cmd.Flags().IntVar(&flags.crf, "crf", 0, "Explicit CRF, overriding the quality preset")
	cmd.Flags().StringVar(&flags.bitrate, "video-bitrate", "", "Explicit video bitrate, overriding the quality preset")
	cmd.Flags().Float64Var(&flags.start, "start", 0, "Start time in seconds")
	cmd.Flags().Float64Var(&flags.end, "end", 0, "End time in seconds (defaults to the project duration)")
	cmd.Flags().IntVar(&flags.maxRetries, "max-retries", 0, "Retry budget after the first attempt")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "Renderer concurrency")
	return cmd
}

// progressPrinter redraws a single status line on terminals and prints one
// line per status change otherwise.
type progressPrinter struct {
	out        io.Writer
	live       bool
	lastStatus export.Status
	open       bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, live: isTerminal(out)}
}

func (p *progressPrinter) handle(ev export.Event) {
	line := fmt.Sprintf("%-10s %5.1f%%", label(string(ev.Status)), ev.Progress)
	if ev.TotalFrames > 0 && ev.Status == export.StatusRendering {
		line += fmt.Sprintf("  frame %d/%d", ev.RenderedFrames, ev.TotalFrames)
		if ev.ETA != "" {
			line += "  eta " + ev.ETA
		}
	}
	if ev.Attempt > 1 {
		line += fmt.Sprintf("  attempt %d", ev.Attempt)
	}
	if ev.ErrorMessage != "" {
		line += "  " + ev.ErrorMessage
	}

	if p.live {
		fmt.Fprint(p.out, clearLine+colorize(line, statusColor(ev.Status), true))
		p.open = true
		if ev.Status.Terminal() {
			fmt.Fprintln(p.out)
			p.open = false
		}
		return
	}
	if ev.Status == p.lastStatus && ev.Status != export.StatusFailed {
		return
	}
	p.lastStatus = ev.Status
	fmt.Fprintln(p.out, line)
}

func (p *progressPrinter) finish() {
	if p.live && p.open {
		fmt.Fprintln(p.out)
		p.open = false
	}
}
