// Package settings holds the experiment configuration: screen geometry,
// stimulus parameters, the condition table, scanner keys and the task
// design. Settings are read from TOML, validated once and never mutated.
package settings

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
)

// Background is the condition drawn outside every bar.
const Background = "background"

// Kind tells the resolver how to texture a condition.
type Kind int

const (
	// Plain conditions use the grayscale sinusoid tinted by element_color.
	Plain Kind = iota
	// ColoredGrating conditions synthesize a texture whose HSV channel is
	// modulated by the grating.
	ColoredGrating
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case ColoredGrating:
		return "colored_grating"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "plain":
		*k = Plain
	case "colored_grating", "colored-grating":
		*k = ColoredGrating
	default:
		return fmt.Errorf("unknown condition kind %q", text)
	}
	return nil
}

// Condition is one row of the condition table.
type Condition struct {
	Name string `toml:"-" json:"name"`

	Kind Kind `toml:"kind" json:"kind"`

	// Channel is the HSV channel a colored grating modulates.
	Channel int `toml:"channel" json:"channel"`

	SF           float64    `toml:"element_sf" json:"element_sf"`
	Ori          [2]float64 `toml:"element_ori" json:"element_ori"`
	OriJitterMin float64    `toml:"ori_jitter_min" json:"ori_jitter_min"`
	OriJitterMax float64    `toml:"ori_jitter_max" json:"ori_jitter_max"`
	Contrast     float64    `toml:"element_contrast" json:"element_contrast"`

	// Color is HSV (hue in degrees) for colored gratings and in the
	// stimuli color space otherwise.
	Color [3]float64 `toml:"element_color" json:"element_color"`
}

// Screen is the display size in pixels.
type Screen struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// Size returns the screen as a geom.Size.
func (s Screen) Size() geom.Size { return geom.Size{W: s.Width, H: s.Height} }

// Stimuli configures the element array.
type Stimuli struct {
	ElementSize   float64    `toml:"element_size"`
	BarWidthRatio float64    `toml:"bar_width_ratio"`
	GridSpacing   float64    `toml:"grid_spacing"`
	PosJitter     [2]float64 `toml:"pos_jitter"`
	ColorSpace    string     `toml:"color_space"`

	Conditions map[string]Condition `toml:"conditions"`
}

// MRI holds scanner settings.
type MRI struct {
	TR         float64 `toml:"tr"`
	TriggerKey string  `toml:"trigger_key"`
	AbortKey   string  `toml:"abort_key"`
}

// Task is the block design and behavioral task.
type Task struct {
	Attend       []string `toml:"attend"`
	MiniBlocks   int      `toml:"mini_blocks"`
	BarsPerTrial int      `toml:"bars_per_trial"`
	VerBars      int      `toml:"ver_bars"`
	HorBars      int      `toml:"hor_bars"`

	// FixationSwitchMean is the mean interval in seconds between fixation
	// color switches.
	FixationSwitchMean float64 `toml:"fixation_switch_mean"`

	// ResponseWindow is how long after a switch a key press counts as
	// correct, in seconds.
	ResponseWindow float64 `toml:"response_window"`

	Seed uint64 `toml:"seed"`
}

// Settings is the whole configuration.
type Settings struct {
	Screen  Screen  `toml:"screen"`
	Stimuli Stimuli `toml:"stimuli"`
	MRI     MRI     `toml:"mri"`
	Task    Task    `toml:"task"`
}

// Condition looks a condition up by name.
func (s *Settings) Condition(name string) (Condition, error) {
	c, ok := s.Stimuli.Conditions[name]
	if !ok {
		return Condition{}, errors.New(errors.ErrCodeUnknownCondition, "condition not in settings").WithCondition(name)
	}
	c.Name = name
	return c, nil
}

// ConditionNames returns the condition names in sorted order.
func (s *Settings) ConditionNames() []string {
	names := make([]string, 0, len(s.Stimuli.Conditions))
	for name := range s.Stimuli.Conditions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RGB returns the condition's element color as RGB in [0, 1], converting
// from HSV when the stimuli color space is "hsv". Colored gratings carry
// their color in the texture and return white.
func (s *Settings) RGB(c Condition) [3]float64 {
	if c.Kind == ColoredGrating {
		return [3]float64{1, 1, 1}
	}
	if strings.EqualFold(s.Stimuli.ColorSpace, "hsv") {
		col := colorful.Hsv(c.Color[0], c.Color[1], c.Color[2]).Clamped()
		return [3]float64{col.R, col.G, col.B}
	}
	return c.Color
}

// Default returns a complete configuration for a 1680×1050 display with a
// background and four feature conditions.
func Default() *Settings {
	return &Settings{
		Screen: Screen{Width: 1680, Height: 1050},
		Stimuli: Stimuli{
			ElementSize:   24,
			BarWidthRatio: 0.125,
			GridSpacing:   30,
			ColorSpace:    "rgb",
			Conditions: map[string]Condition{
				Background: {
					Kind: Plain, SF: 4, Ori: [2]float64{0, 90},
					OriJitterMin: 5, OriJitterMax: 15,
					Contrast: 1, Color: [3]float64{1, 1, 1},
				},
				"color_red": {
					Kind: ColoredGrating, Channel: 2, SF: 4, Ori: [2]float64{0, 90},
					OriJitterMin: 5, OriJitterMax: 15,
					Contrast: 1, Color: [3]float64{0, 1, 1},
				},
				"color_green": {
					Kind: ColoredGrating, Channel: 2, SF: 4, Ori: [2]float64{0, 90},
					OriJitterMin: 5, OriJitterMax: 15,
					Contrast: 1, Color: [3]float64{120, 1, 1},
				},
				"ori_vertical": {
					Kind: Plain, SF: 4, Ori: [2]float64{0, 180},
					OriJitterMin: 0, OriJitterMax: 5,
					Contrast: 1, Color: [3]float64{1, 1, 1},
				},
				"sf_high": {
					Kind: Plain, SF: 8, Ori: [2]float64{0, 90},
					OriJitterMin: 5, OriJitterMax: 15,
					Contrast: 1, Color: [3]float64{1, 1, 1},
				},
			},
		},
		MRI: MRI{TR: 1.6, TriggerKey: "t", AbortKey: "q"},
		Task: Task{
			Attend:             []string{"color_red", "color_green", "ori_vertical", "sf_high"},
			MiniBlocks:         4,
			BarsPerTrial:       4,
			VerBars:            2,
			HorBars:            2,
			FixationSwitchMean: 3,
			ResponseWindow:     0.8,
			Seed:               42,
		},
	}
}
