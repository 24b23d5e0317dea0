package schedule

import (
	"math"

	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
)

// Candidates returns the bar width and the candidate midpoints for
// horizontal and vertical bars on a grid built by [geom.RectGrid] with the
// same screen and spacing.
//
// The bar width is ratio of the screen, rounded to a whole number of grid
// cells. Candidate bars tile the screen edge to edge and their borders fall
// halfway between grid lines, so adjacent bars never share a grid point.
func Candidates(screen geom.Size, spacing, ratio float64) (width geom.Point, horizontal, vertical []geom.Point, err error) {
	if spacing <= 0 || ratio <= 0 || ratio > 1 {
		return geom.Point{}, nil, nil, errors.New(errors.ErrCodeConfiguration,
			"bar width ratio %v and grid spacing %v must be positive (ratio at most 1)", ratio, spacing)
	}

	wx, xs := tile(screen.W, spacing, ratio)
	wy, ys := tile(screen.H, spacing, ratio)
	if len(xs) == 0 || len(ys) == 0 {
		return geom.Point{}, nil, nil, errors.New(errors.ErrCodeConfiguration,
			"screen %vx%v fits no bar of ratio %v at spacing %v", screen.W, screen.H, ratio, spacing)
	}

	horizontal = make([]geom.Point, len(xs))
	for i, x := range xs {
		horizontal[i] = geom.Pt(x, 0)
	}
	vertical = make([]geom.Point, len(ys))
	for i, y := range ys {
		vertical[i] = geom.Pt(0, y)
	}
	return geom.Pt(wx, wy), horizontal, vertical, nil
}

func tile(extent, spacing, ratio float64) (width float64, mids []float64) {
	n, first := geom.Axis(extent, spacing)
	cells := max(1, int(math.Round(ratio*extent/spacing)))
	bars := n / cells
	if bars < 1 {
		return 0, nil
	}
	width = float64(cells) * spacing
	start := first - spacing/2 + float64((n-bars*cells)/2)*spacing
	mids = make([]float64, bars)
	for k := range mids {
		mids[k] = start + (float64(k)+0.5)*width
	}
	return width, mids
}
