package jitter

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

func TestValuesMagnitudeAndSplit(t *testing.T) {
	const lo, hi = 2.0, 5.0

	for _, n := range []int{0, 1, 2, 7, 10, 101} {
		for seed := range uint64(20) {
			xs := make([]float64, n)
			for i := range xs {
				xs[i] = float64(i) * 3
			}

			out, offsets, err := Values(newRand(seed), xs, lo, hi)
			if err != nil {
				t.Fatalf("Values() error: %v", err)
			}
			if len(out) != n || len(offsets) != n {
				t.Fatalf("len = %d/%d, want %d", len(out), len(offsets), n)
			}

			var down, up int
			for i := range xs {
				d := out[i] - xs[i]
				if m := math.Abs(d); m < lo-1e-12 || m > hi+1e-12 {
					t.Errorf("n=%d seed=%d: |offset[%d]| = %v outside [%v, %v]", n, seed, i, m, lo, hi)
				}
				if d < 0 {
					down++
				} else {
					up++
				}
			}
			if down != n/2 || up != n-n/2 {
				t.Errorf("n=%d seed=%d: down=%d up=%d, want %d/%d", n, seed, down, up, n/2, n-n/2)
			}
		}
	}
}

func TestValuesDoesNotMutateInput(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	if _, _, err := Values(newRand(1), xs, 1, 1); err != nil {
		t.Fatal(err)
	}
	for i, x := range []float64{1, 2, 3, 4} {
		if xs[i] != x {
			t.Errorf("xs[%d] = %v, want %v", i, xs[i], x)
		}
	}
}

func TestOffsetsShuffled(t *testing.T) {
	// Over many seeds the negative offsets must not always sit in the first half.
	moved := false
	for seed := range uint64(10) {
		off, err := Offsets(newRand(seed), 8, 1, 2)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 4; i++ {
			if off[i] > 0 {
				moved = true
			}
		}
	}
	if !moved {
		t.Error("offsets never shuffled across 10 seeds")
	}
}

func TestOffsetsDeterministic(t *testing.T) {
	a, _ := Offsets(newRand(42), 16, 0, 10)
	b, _ := Offsets(newRand(42), 16, 0, 10)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different offsets at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestPointsBroadcast(t *testing.T) {
	ps := []geom.Point{geom.Pt(0, 0), geom.Pt(10, -5), geom.Pt(3, 3)}
	out, offsets, err := Points(newRand(3), ps, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := range ps {
		dx := out[i].X - ps[i].X
		dy := out[i].Y - ps[i].Y
		if math.Abs(dx-dy) > 1e-12 || math.Abs(dx-offsets[i]) > 1e-12 {
			t.Errorf("point %d: dx=%v dy=%v offset=%v, want equal", i, dx, dy, offsets[i])
		}
	}
}

func TestInvalidRange(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
	}{
		{"min above max", 5, 2},
		{"negative min", -1, 2},
		{"nan", math.NaN(), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Values(newRand(1), []float64{1, 2}, tt.min, tt.max)
			if !errors.Is(err, errors.ErrCodeInvalidRange) {
				t.Errorf("Values() error = %v, want INVALID_RANGE", err)
			}
		})
	}

	if _, err := Offsets(newRand(1), -1, 0, 1); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Offsets(-1) error = %v, want INVALID_INPUT", err)
	}
}
