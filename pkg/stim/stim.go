// Package stim assembles complete frames: it partitions the grid for the
// current bars, extracts crossings, validates the layout and resolves the
// attributes of every region in draw order.
//
// Two stimulus variants exist. [PRF] shows one bar over the background and
// lets the bar layer draw last. [Feature] shows several bars plus their
// crossings, each drawn with its own condition, and rejects any frame whose
// regions do not cover the grid exactly once.
package stim

import (
	"github.com/prfstim/prfstim/pkg/attributes"
	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
	"github.com/prfstim/prfstim/pkg/layout"
	"github.com/prfstim/prfstim/pkg/settings"
)

// Frame is everything a sink needs to draw one time step.
type Frame struct {
	Block      int             `json:"block"`
	Trial      int             `json:"trial"`
	Conditions []string        `json:"conditions"`
	Bars       []geom.Bar      `json:"bars"`
	Regions    []layout.Region `json:"regions"`

	// Layers are in draw order: background, bars, crossings.
	Layers []*attributes.Elements `json:"layers"`
}

// Layer returns the layer for a region key.
func (f *Frame) Layer(region string) (*attributes.Elements, bool) {
	for _, l := range f.Layers {
		if l.Region == region {
			return l, true
		}
	}
	return nil, false
}

// PRF is the single-bar stimulus.
type PRF struct {
	resolver *attributes.Resolver
	screen   geom.Size
}

// NewPRF returns a single-bar stimulus drawing on screen.
func NewPRF(r *attributes.Resolver, screen geom.Size) *PRF {
	return &PRF{resolver: r, screen: screen}
}

// Frame builds the frame for one bar shown with the phase condition. The
// background phase, or an inactive bar, shows only the background.
func (p *PRF) Frame(phase string, bar geom.Bar) (*Frame, error) {
	if phase == settings.Background {
		bar.Midpoint = geom.Undefined()
	}
	bars := []geom.Bar{bar}

	a, err := layout.Partition(p.resolver.Grid(), bars, p.screen, 1)
	if err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	f := &Frame{Trial: -1, Conditions: []string{phase}, Bars: bars, Regions: a.Regions()}
	for _, r := range a.Regions() {
		name := phase
		if r.Key == layout.KeyBackground {
			name = settings.Background
		}
		e, err := p.resolver.Resolve(r.Key, name, r.Positions)
		if err != nil {
			return nil, err
		}
		f.Layers = append(f.Layers, e)
	}
	return f, nil
}

// Feature is the multi-bar stimulus with crossings.
type Feature struct {
	resolver *attributes.Resolver
	screen   geom.Size
}

// NewFeature returns a multi-bar stimulus drawing on screen.
func NewFeature(r *attributes.Resolver, screen geom.Size) *Feature {
	return &Feature{resolver: r, screen: screen}
}

// Frame builds the frame for bars[i] shown with conditions[i]. A frame whose
// regions overlap or leave gaps is rejected with GEOMETRY_INVARIANT.
func (s *Feature) Frame(conditions []string, bars []geom.Bar) (*Frame, error) {
	if len(conditions) != len(bars) {
		return nil, errors.New(errors.ErrCodeCountMismatch, "got %d conditions for %d bars", len(conditions), len(bars))
	}

	a, err := layout.Partition(s.resolver.Grid(), bars, s.screen, len(conditions))
	if err != nil {
		return nil, err
	}
	if a.NumBars() > 0 {
		a, err = layout.ExtractCrossings(a, conditions, geom.Directions(bars))
		if err != nil {
			return nil, err
		}
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	f := &Frame{Trial: -1, Conditions: conditions, Bars: bars, Regions: a.Regions()}
	bar := 0
	for _, r := range a.Regions() {
		var (
			e   *attributes.Elements
			err error
		)
		switch {
		case r.Key == layout.KeyBackground:
			e, err = s.resolver.Resolve(r.Key, settings.Background, r.Positions)
		case len(r.Conditions) == 2:
			e, err = s.resolver.ResolveCrossing(r.Key, [2]string{r.Conditions[0], r.Conditions[1]}, r.Positions)
		default:
			e, err = s.resolver.Resolve(r.Key, conditions[bar], r.Positions)
			bar++
		}
		if err != nil {
			return nil, err
		}
		f.Layers = append(f.Layers, e)
	}
	return f, nil
}
