// Package session runs an experiment: it steps through the timeline one
// trial per scanner volume, draws each frame with the fixation dot on top,
// polls input every flip and logs pulses and responses.
//
// A trial ends when a trigger pulse arrives. If none comes within
// [TriggerTimeout] volumes the trial ends anyway, so a run without a
// scanner still advances. The abort key stops the run with [ErrAborted].
//
// Simulated runs use [NewSimulated]: a [MockClock] that advances one frame
// per flip and a scripted input source that pulses every TR and answers
// fixation switches.
package session

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/eventlog"
	"github.com/prfstim/prfstim/pkg/input"
	"github.com/prfstim/prfstim/pkg/pipeline"
	"github.com/prfstim/prfstim/pkg/render/sink"
	"github.com/prfstim/prfstim/pkg/stim"
)

const (
	// DefaultRefresh is the display refresh rate in Hz.
	DefaultRefresh = 60.0

	// TriggerTimeout is how many TRs a trial waits for a pulse.
	TriggerTimeout = 1.5

	// fixationSalt separates the fixation stream from the frame streams.
	fixationSalt = 0x9e3779b97f4a7c15
)

// Config wires a session. Builder, Sink and Source are required.
type Config struct {
	Builder *pipeline.FrameBuilder
	Sink    sink.Sink
	Source  input.Source

	// Log defaults to an in-memory log.
	Log eventlog.Log

	Clock   Clock
	Logger  *log.Logger
	Subject string
	Seed    uint64
	Refresh float64

	SettingsHash string
}

// Session is one run.
type Session struct {
	ID uuid.UUID

	cfg      Config
	keys     Keys
	tr       time.Duration
	window   time.Duration
	frame    time.Duration
	fixation *Fixation
	trials   int
}

// New validates cfg and precomputes the fixation schedule.
func New(cfg Config) (*Session, error) {
	if cfg.Builder == nil || cfg.Sink == nil || cfg.Source == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "session needs a frame builder, a sink and an input source")
	}
	if cfg.Log == nil {
		cfg.Log = eventlog.NewMemory()
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = DefaultRefresh
	}

	s := cfg.Builder.Settings()
	if s.MRI.TR <= 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "mri.tr must be positive, got %v", s.MRI.TR)
	}
	if cfg.Seed == 0 {
		cfg.Seed = s.Task.Seed
	}

	tr := seconds(s.MRI.TR)
	window := seconds(s.Task.ResponseWindow)
	trials := cfg.Builder.Timeline().Trials()
	total := time.Duration(float64(trials) * TriggerTimeout * float64(tr))

	rng := pipeline.NewRand(cfg.Seed ^ fixationSalt)
	return &Session{
		ID:       uuid.New(),
		cfg:      cfg,
		keys:     Keys{Trigger: s.MRI.TriggerKey, Abort: s.MRI.AbortKey},
		tr:       tr,
		window:   window,
		frame:    time.Duration(float64(time.Second) / cfg.Refresh),
		fixation: NewFixation(rng, seconds(s.Task.FixationSwitchMean), window, total),
		trials:   trials,
	}, nil
}

// NewSimulated returns a session driven by a mock clock and scripted
// input. The subject answers each fixation switch with probability
// hitRate after 200 to 600 ms.
func NewSimulated(cfg Config, hitRate float64) (*Session, *MockClock, error) {
	clock := NewMockClock(time.Unix(0, 0).UTC())
	cfg.Clock = clock
	cfg.Source = noInput{}
	sess, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}

	rng := pipeline.NewRand(sess.cfg.Seed ^ fixationSalt ^ 1)
	cues := input.Triggers(sess.keys.Trigger, sess.tr, sess.trials)
	cues = append(cues, input.Responses(rng, "b", sess.fixation.Switches(), hitRate, 200*time.Millisecond, 600*time.Millisecond)...)
	sess.cfg.Source = input.NewScripted(clock, cues)
	return sess, clock, nil
}

type noInput struct{}

func (noInput) Poll() []input.Event { return nil }

// Fixation returns the fixation schedule.
func (s *Session) Fixation() *Fixation { return s.fixation }

// Duration returns the nominal run length: one TR per trial.
func (s *Session) Duration() time.Duration { return time.Duration(s.trials) * s.tr }

// Run presents every trial in order. It returns a summary even when the
// run ends early; the error is then ErrAborted or the context's error.
func (s *Session) Run(ctx context.Context) (*Summary, error) {
	clock, logger := s.cfg.Clock, s.cfg.Logger
	start := clock.Now()

	if rec, ok := s.cfg.Log.(eventlog.RunRecorder); ok {
		info := eventlog.RunInfo{ID: s.ID, Subject: s.cfg.Subject, Started: start, SettingsHash: s.cfg.SettingsHash}
		if err := rec.StartRun(ctx, info); err != nil {
			return nil, err
		}
	}
	logger.Info("run started", "run", s.ID, "trials", s.trials, "tr", s.tr)

	var (
		logged  []eventlog.Event
		pending []input.Event
		done    int
		runErr  error
	)
	tl := s.cfg.Builder.Timeline()
loop:
	for b, block := range tl.Blocks {
		params := map[string]string{
			"attend":     block.Attended,
			"conditions": strings.Join(block.Conditions(), ","),
		}
		for n := range block.Trials() {
			t := &Trial{
				Run: s.ID, Block: b, Number: n, Params: params,
				Keys: s.keys, Window: s.window, Fixation: s.fixation, Start: start,
			}
			events, rest, err := s.runTrial(ctx, t, pending)
			logged = append(logged, events...)
			pending = rest
			done++
			if err != nil {
				runErr = err
				break loop
			}
		}
	}

	elapsed := clock.Since(start)
	sum := Summarize(s.ID, logged, s.fixation.Count(elapsed))
	sum.Trials = done
	sum.Duration = elapsed
	if runErr != nil {
		sum.Aborted = errors.IsCanceled(runErr)
		logger.Warn("run ended early", "run", s.ID, "trials", done, "error", runErr)
		return &sum, runErr
	}
	logger.Info("run finished", "run", s.ID, "trials", done, "correct", sum.Correct, "duration", elapsed)
	return &sum, nil
}

// runTrial draws one trial until a pulse or the timeout.
func (s *Session) runTrial(ctx context.Context, t *Trial, pending []input.Event) ([]eventlog.Event, []input.Event, error) {
	clock, logger := s.cfg.Clock, s.cfg.Logger

	f, err := s.cfg.Builder.Frame(ctx, t.Block, t.Number)
	if err != nil {
		if !errors.Is(err, errors.ErrCodeGeometryInvariant) {
			return nil, nil, err
		}
		logger.Warn("frame rejected, showing fixation only", "block", t.Block, "trial", t.Number, "error", err)
		f = nil
	}

	var logged []eventlog.Event
	trialStart := clock.Now()
	timeout := time.Duration(TriggerTimeout * float64(s.tr))
	for {
		if err := ctx.Err(); err != nil {
			return logged, nil, err
		}
		if err := s.flip(f, clock.Since(t.Start)); err != nil {
			return logged, nil, err
		}

		events := append(pending, s.cfg.Source.Poll()...)
		pending = nil
		out, err := t.HandleEvents(events)
		for _, e := range out.Events {
			if lerr := s.cfg.Log.Append(ctx, e); lerr != nil {
				return logged, nil, lerr
			}
		}
		logged = append(logged, out.Events...)
		if err != nil {
			return logged, nil, err
		}
		if out.Exit {
			return logged, out.Rest, nil
		}
		if clock.Since(trialStart) >= timeout {
			logger.Warn("no trigger, advancing", "block", t.Block, "trial", t.Number)
			return logged, nil, nil
		}
		clock.Sleep(s.frame)
	}
}

func (s *Session) flip(f *stim.Frame, at time.Duration) error {
	if f != nil {
		if err := sink.QueueFrame(s.cfg.Sink, f); err != nil {
			return err
		}
	}
	if fx, ok := s.cfg.Sink.(sink.Fixation); ok {
		if err := fx.DrawFixation(s.fixation.Color(at), s.fixation.Radius); err != nil {
			return err
		}
	}
	return s.cfg.Sink.Flip()
}

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }
