// Package jitter adds bounded, sign-balanced random perturbations to
// orientation and position arrays.
//
// Every call draws n offset magnitudes uniformly from [min, max]. The first
// ⌊n/2⌋ are negated and the remaining ⌈n/2⌉ stay positive. The offsets are
// then shuffled, so which input element moves up or down is random but the
// split is always exact.
package jitter

import (
	"math"
	"math/rand/v2"

	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
)

// Offsets returns n signed offsets with magnitudes in [min, max].
func Offsets(rng *rand.Rand, n int, min, max float64) ([]float64, error) {
	if err := checkRange(min, max); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "jitter count must be non-negative, got %d", n)
	}

	offsets := make([]float64, n)
	neg := n / 2
	for i := range offsets {
		mag := min + rng.Float64()*(max-min)
		if i < neg {
			mag = -mag
		}
		offsets[i] = mag
	}
	rng.Shuffle(n, func(i, j int) { offsets[i], offsets[j] = offsets[j], offsets[i] })
	return offsets, nil
}

// Values returns xs with one offset added per element, plus the offsets.
// xs is not modified.
func Values(rng *rand.Rand, xs []float64, min, max float64) ([]float64, []float64, error) {
	offsets, err := Offsets(rng, len(xs), min, max)
	if err != nil {
		return nil, nil, err
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x + offsets[i]
	}
	return out, offsets, nil
}

// Points jitters positions, adding the same scalar offset to both
// coordinates of each point.
func Points(rng *rand.Rand, ps []geom.Point, min, max float64) ([]geom.Point, []float64, error) {
	offsets, err := Offsets(rng, len(ps), min, max)
	if err != nil {
		return nil, nil, err
	}
	out := make([]geom.Point, len(ps))
	for i, p := range ps {
		out[i] = geom.Point{X: p.X + offsets[i], Y: p.Y + offsets[i]}
	}
	return out, offsets, nil
}

func checkRange(min, max float64) error {
	switch {
	case math.IsNaN(min) || math.IsNaN(max):
		return errors.New(errors.ErrCodeInvalidRange, "jitter bounds must be numbers, got [%v, %v]", min, max)
	case min < 0:
		return errors.New(errors.ErrCodeInvalidRange, "jitter min %v must be non-negative", min)
	case min > max:
		return errors.New(errors.ErrCodeInvalidRange, "jitter min %v exceeds max %v", min, max)
	}
	return nil
}
