package layout

import (
	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
)

// Bars zips per-bar midpoints and directions into descriptors sharing one
// width. All three counts must agree or COUNT_MISMATCH is returned.
func Bars(midpoints []geom.Point, directions []geom.Direction, width geom.Point, expected int) ([]geom.Bar, error) {
	if len(midpoints) != expected || len(directions) != expected {
		return nil, errors.New(errors.ErrCodeCountMismatch,
			"got %d midpoints and %d directions, want %d bars", len(midpoints), len(directions), expected)
	}
	bars := make([]geom.Bar, expected)
	for i := range bars {
		bars[i] = geom.Bar{Midpoint: midpoints[i], Direction: directions[i], Width: width}
	}
	return bars, nil
}

// Partition splits grid into one region per bar plus the background.
//
// If any bar midpoint is undefined the whole grid is background and no bar
// regions are produced. Otherwise a grid point belongs to bar i when it lies
// inside the bar's inclusive bounds on screen. A point may fall inside several
// bars; [ExtractCrossings] resolves that for horizontal/vertical pairs.
// The background is everything not covered by any bar.
func Partition(grid *geom.Grid, bars []geom.Bar, screen geom.Size, expected int) (*Assignment, error) {
	for _, b := range bars {
		if !b.Active() {
			all := make([]int, grid.Len())
			for i := range all {
				all[i] = i
			}
			return &Assignment{grid: grid, regions: []Region{newRegion(grid, KeyBackground, all, nil)}}, nil
		}
	}
	if len(bars) != expected {
		return nil, errors.New(errors.ErrCodeCountMismatch, "got %d bars, want %d", len(bars), expected)
	}

	covered := make([]bool, grid.Len())
	barRegions := make([]Region, len(bars))
	for bi, b := range bars {
		bounds := b.Bounds(screen)
		var members []int
		for i := range grid.Len() {
			if bounds.Contains(grid.At(i)) {
				members = append(members, i)
				covered[i] = true
			}
		}
		barRegions[bi] = newRegion(grid, BarKey(bi), members, nil)
	}

	var rest []int
	for i, c := range covered {
		if !c {
			rest = append(rest, i)
		}
	}

	regions := make([]Region, 0, len(bars)+1)
	regions = append(regions, newRegion(grid, KeyBackground, rest, nil))
	regions = append(regions, barRegions...)
	return &Assignment{grid: grid, regions: regions}, nil
}
