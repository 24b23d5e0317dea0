package layout

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
)

var screen = geom.Size{W: 4, H: 4}

func grid3x3() *geom.Grid {
	var ps []geom.Point
	for _, y := range []float64{-1, 0, 1} {
		for _, x := range []float64{-1, 0, 1} {
			ps = append(ps, geom.Pt(x, y))
		}
	}
	return geom.MustGrid(ps...)
}

func mustRegion(t *testing.T, a *Assignment, key string) Region {
	t.Helper()
	r, ok := a.Region(key)
	if !ok {
		t.Fatalf("region %q missing; have %v", key, a.Keys())
	}
	return r
}

func TestPartitionFourPoints(t *testing.T) {
	g := geom.MustGrid(geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(0, 1), geom.Pt(1, 1))
	bar := geom.Bar{Midpoint: geom.Pt(0, 0), Direction: geom.Horizontal, Width: geom.Pt(1, 1)}

	a, err := Partition(g, []geom.Bar{bar}, screen, 1)
	if err != nil {
		t.Fatalf("Partition() error: %v", err)
	}

	if diff := cmp.Diff([]geom.Point{geom.Pt(0, 0), geom.Pt(0, 1)}, mustRegion(t, a, "bar0").Positions); diff != "" {
		t.Errorf("bar0 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]geom.Point{geom.Pt(1, 0), geom.Pt(1, 1)}, mustRegion(t, a, "background").Positions); diff != "" {
		t.Errorf("background mismatch (-want +got):\n%s", diff)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestPartitionUndefinedMidpoint(t *testing.T) {
	g := grid3x3()
	bars := []geom.Bar{
		{Midpoint: geom.Pt(0, 0), Direction: geom.Horizontal, Width: geom.Pt(1, 1)},
		{Midpoint: geom.Undefined(), Direction: geom.Vertical, Width: geom.Pt(1, 1)},
	}

	// The count check does not apply when no bar is shown.
	a, err := Partition(g, bars, screen, 4)
	if err != nil {
		t.Fatalf("Partition() error: %v", err)
	}
	if got := a.Keys(); len(got) != 1 || got[0] != KeyBackground {
		t.Fatalf("Keys() = %v, want [background]", got)
	}
	if mustRegion(t, a, KeyBackground).Count() != g.Len() {
		t.Errorf("background count = %d, want %d", mustRegion(t, a, KeyBackground).Count(), g.Len())
	}
}

func TestPartitionCountMismatch(t *testing.T) {
	g := grid3x3()
	bar := geom.Bar{Midpoint: geom.Pt(0, 0), Direction: geom.Horizontal, Width: geom.Pt(1, 1)}

	_, err := Partition(g, []geom.Bar{bar}, screen, 2)
	if !errors.Is(err, errors.ErrCodeCountMismatch) {
		t.Errorf("Partition() error = %v, want COUNT_MISMATCH", err)
	}
	if !errors.IsConfiguration(err) {
		t.Error("COUNT_MISMATCH should be a configuration error")
	}

	_, err = Bars([]geom.Point{geom.Pt(0, 0)}, []geom.Direction{geom.Vertical, geom.Vertical}, geom.Pt(1, 1), 2)
	if !errors.Is(err, errors.ErrCodeCountMismatch) {
		t.Errorf("Bars() error = %v, want COUNT_MISMATCH", err)
	}

	bars, err := Bars([]geom.Point{geom.Pt(0, 0)}, []geom.Direction{geom.Vertical}, geom.Pt(2, 3), 1)
	if err != nil {
		t.Fatalf("Bars() error: %v", err)
	}
	want := geom.Bar{Midpoint: geom.Pt(0, 0), Direction: geom.Vertical, Width: geom.Pt(2, 3)}
	if bars[0] != want {
		t.Errorf("Bars()[0] = %+v, want %+v", bars[0], want)
	}
}

func TestExtractCrossingsThreeByThree(t *testing.T) {
	g := grid3x3()
	bars := []geom.Bar{
		{Midpoint: geom.Pt(0, 0), Direction: geom.Horizontal, Width: geom.Pt(1, 1)},
		{Midpoint: geom.Pt(0, 0), Direction: geom.Vertical, Width: geom.Pt(1, 1)},
	}
	a, err := Partition(g, bars, screen, 2)
	if err != nil {
		t.Fatalf("Partition() error: %v", err)
	}
	if err := a.Validate(); !errors.Is(err, errors.ErrCodeGeometryInvariant) {
		t.Errorf("Validate() before extraction = %v, want GEOMETRY_INVARIANT", err)
	}

	out, err := ExtractCrossings(a, []string{"h_cond", "v_cond"}, []geom.Direction{geom.Horizontal, geom.Vertical})
	if err != nil {
		t.Fatalf("ExtractCrossings() error: %v", err)
	}

	if out.NumCrossings() != 1 {
		t.Fatalf("NumCrossings() = %d, want 1 (%s)", out.NumCrossings(), out)
	}
	c := mustRegion(t, out, "crossing0")
	if diff := cmp.Diff([]geom.Point{geom.Pt(0, 0)}, c.Positions); diff != "" {
		t.Errorf("crossing0 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"h_cond", "v_cond"}, c.Conditions); diff != "" {
		t.Errorf("crossing0 conditions (-want +got):\n%s", diff)
	}
	if n := mustRegion(t, out, "bar0").Count(); n != 2 {
		t.Errorf("bar0 count = %d, want 2", n)
	}
	if n := mustRegion(t, out, "bar1").Count(); n != 2 {
		t.Errorf("bar1 count = %d, want 2", n)
	}
	if n := mustRegion(t, out, KeyBackground).Count(); n != 4 {
		t.Errorf("background count = %d, want 4", n)
	}
	if err := out.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
	if got, want := out.String(), "background=4 bar0=2 bar1=2 crossing0=1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	// The input is left untouched.
	if mustRegion(t, a, "bar0").Count() != 3 || a.NumCrossings() != 0 {
		t.Errorf("input assignment mutated: %s", a)
	}
}

func TestExtractCrossingsIdempotent(t *testing.T) {
	g := grid3x3()
	bars := []geom.Bar{
		{Midpoint: geom.Pt(-1, 0), Direction: geom.Horizontal, Width: geom.Pt(1, 1)},
		{Midpoint: geom.Pt(0, 1), Direction: geom.Vertical, Width: geom.Pt(1, 1)},
	}
	dirs := []geom.Direction{geom.Horizontal, geom.Vertical}
	conds := []string{"a", "b"}

	a, err := Partition(g, bars, screen, 2)
	if err != nil {
		t.Fatal(err)
	}
	once, err := ExtractCrossings(a, conds, dirs)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := ExtractCrossings(once, conds, dirs)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(once.Regions(), twice.Regions()); diff != "" {
		t.Errorf("second extraction changed the assignment (-once +twice):\n%s", diff)
	}

	// A single-bar assignment has no pairs and passes through unchanged.
	single, err := Partition(g, bars[:1], screen, 1)
	if err != nil {
		t.Fatal(err)
	}
	same, err := ExtractCrossings(single, conds[:1], dirs[:1])
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(single.Regions(), same.Regions()); diff != "" {
		t.Errorf("crossing-free assignment changed (-want +got):\n%s", diff)
	}
}

func TestExtractCrossingsFirstPairWins(t *testing.T) {
	g := grid3x3()
	// Two vertical bars on the same row overlap each other; the shared cell
	// with the horizontal bar goes to the first vertical visited.
	bars := []geom.Bar{
		{Midpoint: geom.Pt(0, 0), Direction: geom.Vertical, Width: geom.Pt(1, 1)},
		{Midpoint: geom.Pt(0, 0), Direction: geom.Vertical, Width: geom.Pt(1, 1)},
		{Midpoint: geom.Pt(0, 0), Direction: geom.Horizontal, Width: geom.Pt(1, 1)},
	}
	dirs := []geom.Direction{geom.Vertical, geom.Vertical, geom.Horizontal}

	a, err := Partition(g, bars, screen, 3)
	if err != nil {
		t.Fatal(err)
	}
	out, err := ExtractCrossings(a, []string{"v0", "v1", "h"}, dirs)
	if err != nil {
		t.Fatal(err)
	}
	if out.NumCrossings() != 1 {
		t.Fatalf("NumCrossings() = %d, want 1", out.NumCrossings())
	}
	if diff := cmp.Diff([]string{"h", "v0"}, mustRegion(t, out, "crossing0").Conditions); diff != "" {
		t.Errorf("crossing0 conditions (-want +got):\n%s", diff)
	}
	// bar1 still overlaps bar0, which is surfaced rather than corrected.
	if err := out.Validate(); !errors.Is(err, errors.ErrCodeGeometryInvariant) {
		t.Errorf("Validate() = %v, want GEOMETRY_INVARIANT", err)
	}
}

func TestExtractCrossingsCountMismatch(t *testing.T) {
	g := grid3x3()
	bars := []geom.Bar{
		{Midpoint: geom.Pt(0, 0), Direction: geom.Horizontal, Width: geom.Pt(1, 1)},
		{Midpoint: geom.Pt(0, 0), Direction: geom.Vertical, Width: geom.Pt(1, 1)},
	}
	a, err := Partition(g, bars, screen, 2)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ExtractCrossings(a, []string{"only_one"}, []geom.Direction{geom.Horizontal, geom.Vertical})
	if !errors.Is(err, errors.ErrCodeCountMismatch) {
		t.Errorf("ExtractCrossings() error = %v, want COUNT_MISMATCH", err)
	}
}

// TestPartitionCoversGrid checks on random layouts that, once crossings are
// extracted, the regions cover the grid exactly once.
func TestPartitionCoversGrid(t *testing.T) {
	const spacing = 10.0
	scr := geom.Size{W: 200, H: 120}
	g, err := geom.RectGrid(scr, spacing)
	if err != nil {
		t.Fatal(err)
	}
	cols := []float64{-95, -85, -75, -65, -55, -45, -35, -25, -15, -5, 5, 15, 25, 35, 45, 55, 65, 75, 85, 95}
	rows := []float64{-55, -45, -35, -25, -15, -5, 5, 15, 25, 35, 45, 55}
	width := geom.Pt(spacing*0.9, spacing*0.9)

	rng := rand.New(rand.NewPCG(7, 7^0xdeadbeef))
	for iter := range 200 {
		nh := rng.IntN(3)
		nv := rng.IntN(3)
		xs := rng.Perm(len(cols))[:nh]
		ys := rng.Perm(len(rows))[:nv]

		var bars []geom.Bar
		var dirs []geom.Direction
		var conds []string
		for _, i := range xs {
			bars = append(bars, geom.Bar{Midpoint: geom.Pt(cols[i], 0), Direction: geom.Horizontal, Width: width})
			dirs = append(dirs, geom.Horizontal)
			conds = append(conds, "h")
		}
		for _, i := range ys {
			bars = append(bars, geom.Bar{Midpoint: geom.Pt(0, rows[i]), Direction: geom.Vertical, Width: width})
			dirs = append(dirs, geom.Vertical)
			conds = append(conds, "v")
		}

		a, err := Partition(g, bars, scr, len(bars))
		if err != nil {
			t.Fatalf("iter %d: Partition() error: %v", iter, err)
		}
		out, err := ExtractCrossings(a, conds, dirs)
		if err != nil {
			t.Fatalf("iter %d: ExtractCrossings() error: %v", iter, err)
		}
		if err := out.Validate(); err != nil {
			t.Fatalf("iter %d: Validate() error: %v (%s)", iter, err, out)
		}
		if out.NumCrossings() != nh*nv {
			t.Errorf("iter %d: NumCrossings() = %d, want %d", iter, out.NumCrossings(), nh*nv)
		}

		total := 0
		for _, r := range out.Regions() {
			total += r.Count()
		}
		if total != g.Len() {
			t.Errorf("iter %d: regions hold %d positions, grid has %d", iter, total, g.Len())
		}
	}
}

func TestValidateMissingPosition(t *testing.T) {
	g := grid3x3()
	a := &Assignment{grid: g, regions: []Region{newRegion(g, KeyBackground, []int{0, 1, 2}, nil)}}
	if err := a.Validate(); !errors.Is(err, errors.ErrCodeGeometryInvariant) {
		t.Errorf("Validate() = %v, want GEOMETRY_INVARIANT", err)
	}
}
