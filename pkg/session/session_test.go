package session

import (
	"context"
	"io"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/eventlog"
	"github.com/prfstim/prfstim/pkg/input"
	"github.com/prfstim/prfstim/pkg/pipeline"
	"github.com/prfstim/prfstim/pkg/render/sink"
	"github.com/prfstim/prfstim/pkg/settings"
)

func newBuilder(t *testing.T) *pipeline.FrameBuilder {
	t.Helper()
	s := settings.Default()
	s.Screen = settings.Screen{Width: 600, Height: 360}
	s.Task.MiniBlocks = 1

	opts := pipeline.Options{Settings: s, Logger: log.NewWithOptions(io.Discard, log.Options{})}
	opts.SetTimelineDefaults()
	tl, err := pipeline.NewRunner(nil, nil, opts.Logger).BuildTimeline(context.Background(), opts)
	require.NoError(t, err)
	b, err := pipeline.NewFrameBuilder(opts, tl)
	require.NoError(t, err)
	return b
}

func TestSimulatedRun(t *testing.T) {
	b := newBuilder(t)
	rec := sink.NewRecorder()
	mem := eventlog.NewMemory()

	sess, clock, err := NewSimulated(Config{Builder: b, Sink: rec, Log: mem, Subject: "s01"}, 1)
	require.NoError(t, err)

	sum, err := sess.Run(context.Background())
	require.NoError(t, err)

	trials := b.Timeline().Trials()
	assert.Equal(t, trials, sum.Trials)
	assert.Equal(t, trials, sum.Pulses)
	assert.Positive(t, sum.Correct)
	assert.Equal(t, sum.Responses, sum.Correct, "every simulated answer lands inside the window")
	assert.False(t, sum.Aborted)
	assert.InDelta(t, sess.Duration().Seconds(), sum.Duration.Seconds(), 0.05)

	events, err := mem.Events(context.Background(), sess.ID)
	require.NoError(t, err)
	first := slices.IndexFunc(events, func(e eventlog.Event) bool { return e.Type == eventlog.Pulse })
	require.GreaterOrEqual(t, first, 0, "run logged no pulse")
	pulse := events[first]
	assert.InDelta(t, 1.6, pulse.Onset, 1e-9)
	assert.Equal(t, "t", pulse.Key)
	assert.Equal(t, 0, pulse.Trial)
	assert.NotEmpty(t, pulse.Params["attend"])
	for _, e := range events[:first] {
		assert.Equal(t, eventlog.Response, e.Type, "only responses can precede the first pulse")
		assert.Less(t, e.Onset, pulse.Onset)
	}

	runs := mem.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, sess.ID, runs[0].ID)
	assert.Equal(t, "s01", runs[0].Subject)

	assert.Equal(t, clock.Sleeps()+trials, len(rec.Frames), "one flip per sleep plus the last flip of each trial")
	assert.NotEmpty(t, rec.Fixations)
}

func TestRunAbort(t *testing.T) {
	b := newBuilder(t)
	clock := NewMockClock(time.Unix(0, 0))
	src := input.NewScripted(clock, []input.Cue{
		{At: 1600 * time.Millisecond, Key: "t"},
		{At: 2 * time.Second, Key: "q"},
	})
	sess, err := New(Config{Builder: b, Sink: sink.NewRecorder(), Source: src, Clock: clock})
	require.NoError(t, err)

	sum, err := sess.Run(context.Background())
	assert.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, sum)
	assert.True(t, sum.Aborted)
	assert.Equal(t, 2, sum.Trials)
	assert.Equal(t, 1, sum.Pulses)
}

func TestRunCanceled(t *testing.T) {
	b := newBuilder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess, _, err := NewSimulated(Config{Builder: b, Sink: sink.NewRecorder()}, 1)
	require.NoError(t, err)
	sum, err := sess.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sum.Trials)
}

func TestRunAdvancesWithoutTrigger(t *testing.T) {
	b := newBuilder(t)
	clock := NewMockClock(time.Unix(0, 0))
	sess, err := New(Config{Builder: b, Sink: sink.NewRecorder(), Source: input.NewScripted(clock, nil), Clock: clock})
	require.NoError(t, err)

	sum, err := sess.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, b.Timeline().Trials(), sum.Trials)
	assert.Zero(t, sum.Pulses)
	min := time.Duration(float64(sess.Duration()) * TriggerTimeout)
	assert.GreaterOrEqual(t, sum.Duration, min)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))

	b := newBuilder(t)
	b.Settings().MRI.TR = 0
	_, err = New(Config{Builder: b, Sink: sink.NewRecorder(), Source: input.Multi{}})
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
}

func TestFixationSchedule(t *testing.T) {
	f := NewFixation(pipeline.NewRand(7), 3*time.Second, 800*time.Millisecond, 5*time.Minute)
	sw := f.Switches()
	require.NotEmpty(t, sw)

	var sum time.Duration
	prev := time.Duration(0)
	for _, s := range sw {
		require.GreaterOrEqual(t, s-prev, 800*time.Millisecond)
		sum += s - prev
		prev = s
	}
	mean := sum.Seconds() / float64(len(sw))
	assert.InDelta(t, 3, mean, 0.75)
	assert.Less(t, sw[len(sw)-1], 5*time.Minute)

	assert.Equal(t, f.Colors[0], f.Color(0))
	assert.Equal(t, f.Colors[1], f.Color(sw[0]))
	if len(sw) > 1 {
		assert.Equal(t, f.Colors[0], f.Color(sw[1]))
	}

	assert.Empty(t, NewFixation(pipeline.NewRand(7), 0, 0, time.Minute).Switches())
}

func TestFixationCredit(t *testing.T) {
	f := &Fixation{switches: []time.Duration{time.Second, 5 * time.Second}, credited: -1}
	w := 800 * time.Millisecond

	_, ok := f.Credit(500*time.Millisecond, w)
	assert.False(t, ok, "before any switch")

	rt, ok := f.Credit(1400*time.Millisecond, w)
	assert.True(t, ok)
	assert.Equal(t, 400*time.Millisecond, rt)

	_, ok = f.Credit(1500*time.Millisecond, w)
	assert.False(t, ok, "a switch is credited once")

	_, ok = f.Credit(5900*time.Millisecond, w)
	assert.False(t, ok, "outside the window")
}

func TestHandleEvents(t *testing.T) {
	start := time.Unix(1000, 0)
	at := func(d time.Duration) time.Time { return start.Add(d) }
	run := uuid.New()

	newTrial := func() *Trial {
		return &Trial{
			Run: run, Block: 1, Number: 3,
			Params:   map[string]string{"attend": "sf_high"},
			Keys:     Keys{Trigger: "t", Abort: "q"},
			Window:   800 * time.Millisecond,
			Fixation: &Fixation{switches: []time.Duration{time.Second}, credited: -1},
			Start:    start,
		}
	}

	t.Run("responses", func(t *testing.T) {
		tr := newTrial()
		out, err := tr.HandleEvents([]input.Event{
			{Key: "b", Time: at(1300 * time.Millisecond)},
			{Key: "b", Time: at(1400 * time.Millisecond)},
		})
		require.NoError(t, err)
		require.Len(t, out.Events, 2)
		assert.False(t, out.Exit)

		e := out.Events[0]
		assert.Equal(t, eventlog.Response, e.Type)
		assert.True(t, e.Correct)
		assert.InDelta(t, 0.3, e.RT, 1e-9)
		assert.InDelta(t, 1.3, e.Onset, 1e-9)
		assert.Equal(t, 3, e.Trial)
		assert.Equal(t, "sf_high", e.Params["attend"])
		assert.False(t, out.Events[1].Correct)
		assert.Equal(t, 2, tr.Responses)
		assert.Equal(t, 1, tr.Correct)
	})

	t.Run("trigger", func(t *testing.T) {
		tr := newTrial()
		out, err := tr.HandleEvents([]input.Event{
			{Key: "t", Time: at(1600 * time.Millisecond)},
			{Key: "b", Time: at(1700 * time.Millisecond)},
		})
		require.NoError(t, err)
		assert.True(t, out.Exit)
		require.Len(t, out.Events, 1)
		assert.Equal(t, eventlog.Pulse, out.Events[0].Type)
		require.Len(t, out.Rest, 1)
		assert.Equal(t, "b", out.Rest[0].Key)
	})

	t.Run("abort", func(t *testing.T) {
		tr := newTrial()
		out, err := tr.HandleEvents([]input.Event{
			{Key: "b", Time: at(100 * time.Millisecond)},
			{Key: "q", Time: at(200 * time.Millisecond)},
		})
		assert.ErrorIs(t, err, ErrAborted)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, out.Events, 1)
	})
}

func TestSummarize(t *testing.T) {
	run := uuid.New()
	events := []eventlog.Event{
		{Block: 0, Trial: 0, Type: eventlog.Pulse},
		{Block: 0, Trial: 0, Type: eventlog.Response, Correct: true, RT: 0.3},
		{Block: 0, Trial: 1, Type: eventlog.Response, Correct: true, RT: 0.5},
		{Block: 0, Trial: 1, Type: eventlog.Response},
		{Block: 0, Trial: 1, Type: eventlog.Pulse},
	}
	s := Summarize(run, events, 4)
	assert.Equal(t, 2, s.Trials)
	assert.Equal(t, 2, s.Pulses)
	assert.Equal(t, 3, s.Responses)
	assert.Equal(t, 2, s.Correct)
	assert.InDelta(t, 0.5, s.Accuracy, 1e-12)
	assert.InDelta(t, 0.4, s.RTMean, 1e-12)
	assert.InDelta(t, math.Sqrt(0.02), s.RTStd, 1e-12)

	one := Summarize(run, events[:2], 0)
	assert.InDelta(t, 0.3, one.RTMean, 1e-12)
	assert.Zero(t, one.RTStd)
	assert.Zero(t, one.Accuracy)
}
