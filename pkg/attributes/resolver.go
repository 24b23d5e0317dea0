// Package attributes maps a condition name and a region of the grid to the
// per-element drawing attributes of one frame.
package attributes

import (
	"math/rand/v2"

	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
	"github.com/prfstim/prfstim/pkg/jitter"
	"github.com/prfstim/prfstim/pkg/settings"
	"github.com/prfstim/prfstim/pkg/texture"
)

// Resolver computes [Elements] from the condition table. Textures are
// synthesized once at construction; after that the resolver only reads its
// inputs and draws from its random generator.
type Resolver struct {
	settings *settings.Settings
	grid     *geom.Grid
	rng      *rand.Rand

	sine     texture.Texture
	textures map[string]texture.Texture
}

// NewResolver prepares textures for every colored-grating condition at the
// power of two at or below the element size.
func NewResolver(s *settings.Settings, g *geom.Grid, rng *rand.Rand) (*Resolver, error) {
	res := texture.NearPowerOf2(s.Stimuli.ElementSize, texture.Previous)
	r := &Resolver{
		settings: s,
		grid:     g,
		rng:      rng,
		sine:     texture.Sine(res),
		textures: make(map[string]texture.Texture),
	}
	for _, name := range s.ConditionNames() {
		c, _ := s.Condition(name)
		if c.Kind != settings.ColoredGrating {
			continue
		}
		tex, err := texture.Colored(name, res, c.Color, c.Channel)
		if err != nil {
			return nil, err
		}
		r.textures[name] = tex
	}
	return r, nil
}

// Grid returns the grid the resolver aligns attributes to.
func (r *Resolver) Grid() *geom.Grid { return r.grid }

// Texture returns the texture a condition is drawn with.
func (r *Resolver) Texture(c settings.Condition) texture.Texture {
	if tex, ok := r.textures[c.Name]; ok {
		return tex
	}
	return r.sine
}

// Resolve computes the attributes of a single-condition region whose
// visible elements sit at subset.
//
// Orientations cover the whole grid: half the first orientation, half the
// second, jittered and shuffled. Spatial frequency and color are uniform.
// Contrast and opacity are non-zero only at the subset's grid indices.
func (r *Resolver) Resolve(region, name string, subset []geom.Point) (*Elements, error) {
	c, err := r.settings.Condition(name)
	if err != nil {
		return nil, withRegion(err, region)
	}
	idx, err := r.grid.Indices(subset)
	if err != nil {
		return nil, withContext(err, name, region)
	}

	n := r.grid.Len()
	ori, err := r.orientations(c, n)
	if err != nil {
		return nil, withContext(err, name, region)
	}
	pos, err := r.positions()
	if err != nil {
		return nil, withContext(err, name, region)
	}

	e := &Elements{
		Region:     region,
		Conditions: []string{name},
		Texture:    r.Texture(c),
		SF:         fill(n, c.SF),
		Ori:        ori,
		Contrast:   make([]float64, n),
		Color:      make([][3]float64, n),
		Opacity:    make([]float64, n),
		Positions:  pos,
	}
	rgb := r.settings.RGB(c)
	for i := range e.Color {
		e.Color[i] = rgb
	}
	for _, i := range idx {
		e.Contrast[i] = c.Contrast
		e.Opacity[i] = 1
	}
	return e, nil
}

// ResolveCrossing computes a crossing region shared by two conditions,
// horizontal condition first.
//
// Color, spatial frequency, orientation and contrast are each split half
// and half between the two conditions over the subset, with an
// independently shuffled split per attribute, so one element may take its
// color from one condition and its spatial frequency from the other. If
// exactly one condition is a colored grating, the whole crossing uses that
// texture; if both are, the first one's.
func (r *Resolver) ResolveCrossing(region string, names [2]string, subset []geom.Point) (*Elements, error) {
	var conds [2]settings.Condition
	for k, name := range names {
		c, err := r.settings.Condition(name)
		if err != nil {
			return nil, withRegion(err, region)
		}
		conds[k] = c
	}
	idx, err := r.grid.Indices(subset)
	if err != nil {
		return nil, withContext(err, names[0], region)
	}

	n := r.grid.Len()
	var oris [2][]float64
	for k, c := range conds {
		o, err := r.orientations(c, n)
		if err != nil {
			return nil, withContext(err, c.Name, region)
		}
		oris[k] = o
	}
	pos, err := r.positions()
	if err != nil {
		return nil, withContext(err, names[0], region)
	}

	a, b := conds[0], conds[1]
	tex := r.sine
	colored := a.Kind == settings.ColoredGrating || b.Kind == settings.ColoredGrating
	switch {
	case a.Kind == settings.ColoredGrating:
		tex = r.Texture(a)
	case b.Kind == settings.ColoredGrating:
		tex = r.Texture(b)
	}

	e := &Elements{
		Region:     region,
		Conditions: []string{a.Name, b.Name},
		Texture:    tex,
		SF:         fill(n, a.SF),
		Ori:        oris[0],
		Contrast:   make([]float64, n),
		Color:      make([][3]float64, n),
		Opacity:    make([]float64, n),
		Positions:  pos,
	}
	rgb := [2][3]float64{r.settings.RGB(a), r.settings.RGB(b)}
	if colored {
		rgb = [2][3]float64{{1, 1, 1}, {1, 1, 1}}
	}
	for i := range e.Color {
		e.Color[i] = rgb[0]
	}

	m := len(idx)
	colorSplit := r.split(m)
	sfSplit := r.split(m)
	oriSplit := r.split(m)
	contrastSplit := r.split(m)
	for j, i := range idx {
		e.Color[i] = rgb[colorSplit[j]]
		e.SF[i] = conds[sfSplit[j]].SF
		e.Ori[i] = oris[oriSplit[j]][i]
		e.Contrast[i] = conds[contrastSplit[j]].Contrast
		e.Opacity[i] = 1
	}
	return e, nil
}

// orientations returns n orientations, half c.Ori[0] and half c.Ori[1],
// jittered within the condition's range and shuffled.
func (r *Resolver) orientations(c settings.Condition, n int) ([]float64, error) {
	base := make([]float64, n)
	for i := range base {
		if i < n/2 {
			base[i] = c.Ori[0]
		} else {
			base[i] = c.Ori[1]
		}
	}
	out, _, err := jitter.Values(r.rng, base, c.OriJitterMin, c.OriJitterMax)
	if err != nil {
		return nil, err
	}
	r.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

// positions returns the grid, jittered when pos_jitter is set.
func (r *Resolver) positions() ([]geom.Point, error) {
	pts := r.grid.Points()
	lo, hi := r.settings.Stimuli.PosJitter[0], r.settings.Stimuli.PosJitter[1]
	if hi == 0 {
		return pts, nil
	}
	out, _, err := jitter.Points(r.rng, pts, lo, hi)
	return out, err
}

// split returns m condition selectors, ⌊m/2⌋ zeros and ⌈m/2⌉ ones, shuffled.
func (r *Resolver) split(m int) []int {
	out := make([]int, m)
	for j := m / 2; j < m; j++ {
		out[j] = 1
	}
	r.rng.Shuffle(m, func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func withRegion(err error, region string) error {
	if e, ok := err.(*errors.Error); ok {
		return e.WithRegion(region)
	}
	return err
}

func withContext(err error, condition, region string) error {
	if e, ok := err.(*errors.Error); ok {
		return e.WithCondition(condition).WithRegion(region)
	}
	return err
}
