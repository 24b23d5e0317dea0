// Package pipeline builds timelines and renders frames with caching. The
// CLI, the preview server and the session runner all go through it, so a
// given settings file and seed produce the same schedule everywhere.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.Options{Settings: s, Formats: []string{"png"}}
//	tl, err := runner.BuildTimeline(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	res, err := runner.RenderFrame(ctx, opts, tl, 0, 3)
//	png := res.Artifacts["png"]
package pipeline

import (
	"encoding/json"
	"io"
	"math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/prfstim/prfstim/pkg/cache"
	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/schedule"
	"github.com/prfstim/prfstim/pkg/settings"
)

// Variants. Both share one timeline; the single-bar variant shows only
// the attended condition's bar of each trial.
const (
	VariantFeature = "feature"
	VariantPRF     = "prf"
)

// Output formats.
const (
	FormatPNG  = "png"
	FormatJSON = "json"
	FormatPlot = "plot"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatJSON: true,
	FormatPlot: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

var ValidVariants = map[string]bool{
	VariantFeature: true,
	VariantPRF:     true,
}

// Options configures the pipeline. Settings is required; everything else
// has a default.
type Options struct {
	Settings *settings.Settings `json:"-"`

	// Seed overrides the settings seed when non-zero.
	Seed    uint64 `json:"seed,omitempty"`
	Budget  int    `json:"budget,omitempty"`
	Variant string `json:"variant,omitempty"`
	Refresh bool   `json:"refresh,omitempty"`

	Formats []string `json:"formats,omitempty"`

	Logger *log.Logger `json:"-"`
}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeUnsupported, "invalid format %q (must be one of: png, json, plot, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVariant checks that variant is supported.
func ValidateVariant(variant string) error {
	if !ValidVariants[variant] {
		return errors.New(errors.ErrCodeUnsupported, "invalid variant %q (must be one of: feature, prf)", variant)
	}
	return nil
}

// SetTimelineDefaults fills in the seed, budget and logger.
func (o *Options) SetTimelineDefaults() {
	if o.Seed == 0 && o.Settings != nil {
		o.Seed = o.Settings.Task.Seed
	}
	if o.Budget == 0 {
		o.Budget = schedule.DefaultBudget
	}
	if o.Variant == "" {
		o.Variant = VariantFeature
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForTimeline applies defaults and checks the settings and the
// task design they describe.
func (o *Options) ValidateForTimeline() error {
	if o.Settings == nil {
		return errors.New(errors.ErrCodeConfiguration, "settings are required")
	}
	o.SetTimelineDefaults()
	if err := ValidateVariant(o.Variant); err != nil {
		return err
	}
	if err := o.Settings.Validate(); err != nil {
		return err
	}
	cfg, err := o.ScheduleConfig()
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// SetRenderDefaults fills in the formats.
func (o *Options) SetRenderDefaults() {
	o.SetTimelineDefaults()
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
}

// ValidateForRender applies defaults and checks the options for rendering.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForTimeline(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// ScheduleConfig derives the scheduler configuration from the settings.
func (o *Options) ScheduleConfig() (schedule.Config, error) {
	s := o.Settings
	width, hor, ver, err := schedule.Candidates(s.Screen.Size(), s.Stimuli.GridSpacing, s.Stimuli.BarWidthRatio)
	if err != nil {
		return schedule.Config{}, err
	}
	cfg := schedule.Config{
		Attend:       s.Task.Attend,
		Horizontal:   hor,
		Vertical:     ver,
		MiniBlocks:   s.Task.MiniBlocks,
		BarsPerTrial: s.Task.BarsPerTrial,
		VerBars:      s.Task.VerBars,
		HorBars:      s.Task.HorBars,
		Width:        width,
		Budget:       o.Budget,
	}
	return cfg, nil
}

// TimelineKeyOpts returns the cache key inputs for the timeline.
func (o *Options) TimelineKeyOpts() cache.TimelineKeyOpts {
	s := o.Settings
	return cache.TimelineKeyOpts{
		Attend:       slices.Clone(s.Task.Attend),
		MiniBlocks:   s.Task.MiniBlocks,
		BarsPerTrial: s.Task.BarsPerTrial,
		VerBars:      s.Task.VerBars,
		HorBars:      s.Task.HorBars,
		Screen:       [2]int{int(s.Screen.Width), int(s.Screen.Height)},
		GridSpacing:  s.Stimuli.GridSpacing,
		BarWidth:     s.Stimuli.BarWidthRatio,
		Budget:       o.Budget,
		Seed:         o.Seed,
	}
}

// SettingsHash hashes the full settings, for keys of outputs that depend
// on the condition table.
func (o *Options) SettingsHash() string {
	data, err := json.Marshal(o.Settings)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// NewRand returns the run's generator, seeded the same way everywhere.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// frameRand returns the generator for one frame. Frames draw from their
// own stream so any trial can be rendered alone and still match the run.
func frameRand(seed uint64, block, trial int) *rand.Rand {
	s := seed ^ (uint64(block+1) << 32) ^ uint64(trial+1)
	return NewRand(s)
}
