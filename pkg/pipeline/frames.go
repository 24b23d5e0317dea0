package pipeline

import (
	"context"
	"time"

	"github.com/prfstim/prfstim/pkg/attributes"
	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
	"github.com/prfstim/prfstim/pkg/observability"
	"github.com/prfstim/prfstim/pkg/schedule"
	"github.com/prfstim/prfstim/pkg/settings"
	"github.com/prfstim/prfstim/pkg/stim"
)

// FrameBuilder assembles frames of one timeline. Each frame draws from a
// generator derived from the seed, block and trial, so frames can be built
// in any order and still come out the same.
type FrameBuilder struct {
	opts     Options
	timeline *schedule.Timeline
	grid     *geom.Grid
	screen   geom.Size
}

// NewFrameBuilder validates opts and lays out the element grid.
func NewFrameBuilder(opts Options, tl *schedule.Timeline) (*FrameBuilder, error) {
	if err := opts.ValidateForTimeline(); err != nil {
		return nil, err
	}
	if tl == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil timeline")
	}
	s := opts.Settings
	g, err := geom.RectGrid(s.Screen.Size(), s.Stimuli.GridSpacing)
	if err != nil {
		return nil, err
	}
	return &FrameBuilder{opts: opts, timeline: tl, grid: g, screen: s.Screen.Size()}, nil
}

// Grid returns the element grid.
func (b *FrameBuilder) Grid() *geom.Grid { return b.grid }

// Settings returns the experiment settings.
func (b *FrameBuilder) Settings() *settings.Settings { return b.opts.Settings }

// Timeline returns the timeline frames are built from.
func (b *FrameBuilder) Timeline() *schedule.Timeline { return b.timeline }

// Frame builds the frame of one trial. A layout that fails validation is
// reported as GEOMETRY_INVARIANT and the frame is not returned.
func (b *FrameBuilder) Frame(ctx context.Context, block, trial int) (*stim.Frame, error) {
	hooks := observability.Frame()
	hooks.OnFrameStart(ctx, block, trial)
	start := time.Now()

	f, err := b.build(block, trial)
	if err != nil {
		err = withTrial(err, trial)
		if errors.Is(err, errors.ErrCodeGeometryInvariant) {
			hooks.OnFrameRejected(ctx, block, trial, err)
		}
		hooks.OnFrameComplete(ctx, block, trial, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnFrameComplete(ctx, block, trial, len(f.Regions), time.Since(start), nil)
	return f, nil
}

// Background builds a frame showing only the background.
func (b *FrameBuilder) Background() (*stim.Frame, error) {
	r, err := attributes.NewResolver(b.opts.Settings, b.grid, frameRand(b.opts.Seed, -1, -1))
	if err != nil {
		return nil, err
	}
	return stim.NewPRF(r, b.screen).Frame(settings.Background, geom.Bar{Midpoint: geom.Undefined()})
}

func (b *FrameBuilder) build(block, trial int) (*stim.Frame, error) {
	conds, bars, err := b.timeline.Trial(block, trial)
	if err != nil {
		return nil, err
	}
	r, err := attributes.NewResolver(b.opts.Settings, b.grid, frameRand(b.opts.Seed, block, trial))
	if err != nil {
		return nil, err
	}

	var f *stim.Frame
	switch b.opts.Variant {
	case VariantPRF:
		f, err = stim.NewPRF(r, b.screen).Frame(conds[0], bars[0])
	default:
		f, err = stim.NewFeature(r, b.screen).Frame(conds, bars)
	}
	if err != nil {
		return nil, err
	}
	f.Block, f.Trial = block, trial
	return f, nil
}

func withTrial(err error, trial int) error {
	if e, ok := err.(*errors.Error); ok && e.Trial < 0 {
		return e.WithTrial(trial)
	}
	return err
}
