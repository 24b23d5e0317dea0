package layout

import (
	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
)

// ExtractCrossings carves the overlap of every (vertical, horizontal) bar
// pair out into its own crossing region and returns the new assignment.
// a is not modified.
//
// conditions and directions are indexed by bar number. Pairs are visited
// vertical-outer, horizontal-inner, in ascending bar order, and each pair
// intersects the bars' current sets: positions taken by an earlier crossing
// are already gone from both parents, so a grid point shared by several
// pairs belongs to the first crossing visited. A crossing is tagged with
// [horizontal condition, vertical condition] and only created when the
// intersection is non-empty, which makes the operation idempotent.
func ExtractCrossings(a *Assignment, conditions []string, directions []geom.Direction) (*Assignment, error) {
	out := a.Clone()

	nb := out.NumBars()
	if nb == 0 {
		return out, nil
	}
	if len(conditions) != nb || len(directions) != nb {
		return nil, errors.New(errors.ErrCodeCountMismatch,
			"got %d conditions and %d directions for %d bars", len(conditions), len(directions), nb)
	}

	slot := make([]int, nb) // bar number -> position in out.regions
	for i := range slot {
		slot[i] = -1
	}
	for ri, r := range out.regions {
		if n, ok := barNumber(r.Key); ok {
			if n >= nb || slot[n] >= 0 {
				return nil, errors.New(errors.ErrCodeCountMismatch, "unexpected bar region numbering").WithRegion(r.Key)
			}
			slot[n] = ri
		}
	}

	k := out.NumCrossings()
	mark := make([]bool, out.grid.Len())
	for vi := range nb {
		if directions[vi] != geom.Vertical {
			continue
		}
		for hi := range nb {
			if directions[hi] != geom.Horizontal {
				continue
			}
			v := &out.regions[slot[vi]]
			h := &out.regions[slot[hi]]

			for _, idx := range h.Indices {
				mark[idx] = true
			}
			var shared []int
			for _, idx := range v.Indices {
				if mark[idx] {
					shared = append(shared, idx)
				}
			}
			for _, idx := range h.Indices {
				mark[idx] = false
			}
			if len(shared) == 0 {
				continue
			}

			for _, idx := range shared {
				mark[idx] = true
			}
			v.Indices = without(v.Indices, mark)
			h.Indices = without(h.Indices, mark)
			for _, idx := range shared {
				mark[idx] = false
			}
			v.Positions = out.grid.Select(v.Indices)
			h.Positions = out.grid.Select(h.Indices)

			out.regions = append(out.regions, newRegion(out.grid, CrossingKey(k), shared,
				[]string{conditions[hi], conditions[vi]}))
			k++
		}
	}
	return out, nil
}

func without(indices []int, drop []bool) []int {
	kept := make([]int, 0, len(indices))
	for _, idx := range indices {
		if !drop[idx] {
			kept = append(kept, idx)
		}
	}
	return kept
}
