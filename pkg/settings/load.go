package settings

import (
	"math"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/prfstim/prfstim/pkg/errors"
)

// Load reads a TOML settings file on top of [Default] and validates it.
// Tables missing from the file keep their defaults; a condition table
// replaces the default condition of the same name entirely.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "settings file %s", path)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes TOML settings on top of [Default] and validates them.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func Parse(data []byte) (*Settings, error) {
	s := Default()
	md, err := toml.Decode(string(data), s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse settings")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown settings keys: %s", strings.Join(keys, ", "))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the configuration for values no session could run with.
func (s *Settings) Validate() error {
	switch {
	case s.Screen.Width <= 0 || s.Screen.Height <= 0:
		return errors.New(errors.ErrCodeConfiguration, "screen size must be positive, got %vx%v", s.Screen.Width, s.Screen.Height)
	case s.Stimuli.ElementSize <= 0:
		return errors.New(errors.ErrCodeConfiguration, "element_size must be positive")
	case s.Stimuli.GridSpacing <= 0:
		return errors.New(errors.ErrCodeConfiguration, "grid_spacing must be positive")
	case s.Stimuli.BarWidthRatio <= 0 || s.Stimuli.BarWidthRatio > 1:
		return errors.New(errors.ErrCodeConfiguration, "bar_width_ratio must be in (0, 1], got %v", s.Stimuli.BarWidthRatio)
	case s.Stimuli.PosJitter[0] < 0 || s.Stimuli.PosJitter[0] > s.Stimuli.PosJitter[1]:
		return errors.New(errors.ErrCodeInvalidRange, "pos_jitter [%v, %v] must satisfy 0 <= min <= max",
			s.Stimuli.PosJitter[0], s.Stimuli.PosJitter[1])
	}
	switch strings.ToLower(s.Stimuli.ColorSpace) {
	case "", "rgb", "hsv":
	default:
		return errors.New(errors.ErrCodeConfiguration, "unsupported color_space %q", s.Stimuli.ColorSpace)
	}

	if _, ok := s.Stimuli.Conditions[Background]; !ok {
		return errors.New(errors.ErrCodeUnknownCondition, "settings must define a background condition").WithCondition(Background)
	}
	for _, name := range s.ConditionNames() {
		if err := errors.ValidateConditionName(name); err != nil {
			return err
		}
		if err := validateCondition(name, s.Stimuli.Conditions[name]); err != nil {
			return err
		}
	}

	if s.MRI.TR <= 0 {
		return errors.New(errors.ErrCodeConfiguration, "mri tr must be positive")
	}
	if err := errors.ValidateKeyName(s.MRI.TriggerKey); err != nil {
		return err
	}
	if err := errors.ValidateKeyName(s.MRI.AbortKey); err != nil {
		return err
	}
	if s.MRI.TriggerKey == s.MRI.AbortKey {
		return errors.New(errors.ErrCodeConfiguration, "trigger and abort keys must differ, both are %q", s.MRI.TriggerKey)
	}

	for _, name := range s.Task.Attend {
		if _, err := s.Condition(name); err != nil {
			return err
		}
	}
	if s.Task.ResponseWindow < 0 || s.Task.FixationSwitchMean <= 0 {
		return errors.New(errors.ErrCodeConfiguration, "response_window must be >= 0 and fixation_switch_mean > 0")
	}
	return nil
}

func validateCondition(name string, c Condition) error {
	switch {
	case c.OriJitterMin < 0 || c.OriJitterMin > c.OriJitterMax:
		return errors.New(errors.ErrCodeInvalidRange, "ori jitter [%v, %v] must satisfy 0 <= min <= max",
			c.OriJitterMin, c.OriJitterMax).WithCondition(name)
	case c.SF < 0 || math.IsNaN(c.SF):
		return errors.New(errors.ErrCodeConfiguration, "element_sf must be non-negative").WithCondition(name)
	case c.Contrast < 0 || c.Contrast > 1:
		return errors.New(errors.ErrCodeInvalidRange, "element_contrast %v outside [0, 1]", c.Contrast).WithCondition(name)
	case c.Kind == ColoredGrating && (c.Channel < 0 || c.Channel > 2):
		return errors.New(errors.ErrCodeConfiguration, "channel must be 0, 1 or 2, got %d", c.Channel).WithCondition(name)
	}
	return nil
}
