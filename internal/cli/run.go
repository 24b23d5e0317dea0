package cli

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prfstim/prfstim/pkg/eventlog"
	"github.com/prfstim/prfstim/pkg/input"
	"github.com/prfstim/prfstim/pkg/pipeline"
	"github.com/prfstim/prfstim/pkg/render/sink"
	"github.com/prfstim/prfstim/pkg/session"
)

// runFlags configures the run command.
type runFlags struct {
	simulate   bool
	hitRate    float64
	logTarget  string
	triggerDev string
	framesDir  string
	refresh    float64
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var (
		stim   stimFlags
		caches cacheFlags
		flags  runFlags
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the experiment",
		Long: `Run the experiment.

Trials advance on scanner trigger pulses (mri.trigger_key). Other keys are
responses to the fixation dot's color switches. The abort key
(mri.abort_key) or Ctrl-C ends the run early; what was logged so far is
kept.

The event log target picks the backend:

  events.tsv          tab-separated file
  events.db           SQLite database
  mongodb://host/     MongoDB

With --simulate the run uses a simulated clock, scanner and subject and
finishes as fast as frames can be laid out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd.Context(), stim, caches, flags)
		},
	}

	stim.register(cmd)
	caches.register(cmd)
	cmd.Flags().BoolVar(&flags.simulate, "simulate", false, "simulate clock, scanner and subject")
	cmd.Flags().Float64Var(&flags.hitRate, "hit-rate", 0.9, "share of fixation switches the simulated subject answers")
	cmd.Flags().StringVar(&flags.logTarget, "log", "", "event log: file.tsv, file.db or mongodb:// URI (in memory if empty)")
	cmd.Flags().StringVar(&flags.triggerDev, "trigger-device", "", "read trigger pulses line by line from this device or pipe")
	cmd.Flags().StringVar(&flags.framesDir, "frames", "", "save every presented frame as PNG into this directory")
	cmd.Flags().Float64Var(&flags.refresh, "refresh-rate", session.DefaultRefresh, "display refresh rate in Hz")

	return cmd
}

func (c *CLI) runRun(ctx context.Context, stim stimFlags, caches cacheFlags, flags runFlags) error {
	logger := loggerFromContext(ctx)
	opts, err := stim.options(logger)
	if err != nil {
		return err
	}
	opts.Refresh = caches.refresh

	runner := c.newRunner(ctx, caches)
	defer runner.Close()

	tl, err := runner.BuildTimeline(ctx, opts)
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	builder, err := pipeline.NewFrameBuilder(opts, tl)
	if err != nil {
		return err
	}

	events, err := eventlog.Open(ctx, flags.logTarget)
	if err != nil {
		return err
	}
	defer events.Close()

	out, err := newRunSink(opts, flags.framesDir)
	if err != nil {
		return err
	}
	defer out.Close()

	cfg := session.Config{
		Builder:      builder,
		Sink:         out,
		Log:          events,
		Logger:       logger,
		Subject:      caches.subject,
		Seed:         opts.Seed,
		Refresh:      flags.refresh,
		SettingsHash: opts.SettingsHash(),
	}

	var sess *session.Session
	if flags.simulate {
		sess, _, err = session.NewSimulated(cfg, flags.hitRate)
	} else {
		var src input.Source
		src, err = c.liveInput(ctx, flags.triggerDev)
		if err != nil {
			return err
		}
		if k, ok := src.(interface{ Close() error }); ok {
			defer k.Close()
		}
		cfg.Source = src
		sess, err = session.New(cfg)
	}
	if err != nil {
		return err
	}

	printInfo("Run %s: %d trials, about %s", sess.ID, tl.Trials(), sess.Duration())
	sum, err := sess.Run(ctx)
	if sum != nil {
		printNewline()
		printSummary(sum)
	}
	if errors.Is(err, session.ErrAborted) {
		printWarning("Run aborted")
	}
	if flags.logTarget != "" && err == nil {
		printFile(flags.logTarget)
	}
	return err
}

// liveInput reads the keyboard and, if given, a trigger device.
func (c *CLI) liveInput(ctx context.Context, device string) (input.Source, error) {
	kb := input.NewKeyboard(ctx)
	if device == "" {
		return kb, nil
	}
	f, err := os.Open(device)
	if err != nil {
		_ = kb.Close()
		return nil, fmt.Errorf("open trigger device: %w", err)
	}
	return &liveSources{Multi: input.Multi{kb, input.NewScanner(f, nil)}, closers: []func() error{kb.Close, f.Close}}, nil
}

type liveSources struct {
	input.Multi
	closers []func() error
}

func (l *liveSources) Close() error {
	var errs []error
	for _, c := range l.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// runSink is the presentation target of a run.
type runSink interface {
	sink.Sink
	Close() error
}

type recorderSink struct{ *sink.Recorder }

func (recorderSink) Close() error { return nil }

// newRunSink returns a raster that saves each flip when dir is set, and a
// recorder otherwise.
func newRunSink(opts pipeline.Options, dir string) (runSink, error) {
	if dir == "" {
		return recorderSink{sink.NewRecorder()}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := opts.Settings
	n := 0
	save := func(img image.Image) error {
		path := filepath.Join(dir, fmt.Sprintf("frame_%06d.png", n))
		n++
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return sink.NewRaster(s.Screen.Size(), sink.WithElementSize(s.Stimuli.ElementSize), sink.WithFlipHandler(save)), nil
}
