package layout

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/geom"
)

// Region key prefixes.
const (
	KeyBackground = "background"
	prefixBar     = "bar"
	prefixCross   = "crossing"
)

// BarKey returns the region key of the i-th bar ("bar<i>").
func BarKey(i int) string { return prefixBar + strconv.Itoa(i) }

// CrossingKey returns the region key of the k-th crossing ("crossing<k>").
func CrossingKey(k int) string { return prefixCross + strconv.Itoa(k) }

// Region is one named subset of the grid.
type Region struct {
	Key string `json:"key"`

	// Indices are grid indices in ascending grid order.
	Indices []int `json:"indices"`

	// Positions mirror Indices.
	Positions []geom.Point `json:"positions"`

	// Conditions holds the contributing condition names of a crossing,
	// horizontal condition first. Empty for bars and background.
	Conditions []string `json:"conditions,omitempty"`
}

// Count returns the number of grid positions in the region.
func (r Region) Count() int { return len(r.Indices) }

func newRegion(g *geom.Grid, key string, indices []int, conditions []string) Region {
	return Region{
		Key:        key,
		Indices:    indices,
		Positions:  g.Select(indices),
		Conditions: conditions,
	}
}

func (r Region) clone() Region {
	return Region{
		Key:        r.Key,
		Indices:    slices.Clone(r.Indices),
		Positions:  slices.Clone(r.Positions),
		Conditions: slices.Clone(r.Conditions),
	}
}

// barNumber parses "bar<i>" and reports whether key is a bar key.
func barNumber(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, prefixBar)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	return n, err == nil && n >= 0
}

// Assignment maps region keys to grid subsets for one time step.
// Regions keep a stable order: background, bars by index, crossings by index.
type Assignment struct {
	grid    *geom.Grid
	regions []Region
}

// Grid returns the grid the assignment was computed on.
func (a *Assignment) Grid() *geom.Grid { return a.grid }

// Regions returns the regions in their stable order. The slice is shared;
// callers must not modify it.
func (a *Assignment) Regions() []Region { return a.regions }

// Keys returns the region keys in order.
func (a *Assignment) Keys() []string {
	keys := make([]string, len(a.regions))
	for i, r := range a.regions {
		keys[i] = r.Key
	}
	return keys
}

// Region looks a region up by key.
func (a *Assignment) Region(key string) (Region, bool) {
	for _, r := range a.regions {
		if r.Key == key {
			return r, true
		}
	}
	return Region{}, false
}

// NumBars returns the number of bar regions.
func (a *Assignment) NumBars() int {
	n := 0
	for _, r := range a.regions {
		if _, ok := barNumber(r.Key); ok {
			n++
		}
	}
	return n
}

// NumCrossings returns the number of crossing regions.
func (a *Assignment) NumCrossings() int {
	n := 0
	for _, r := range a.regions {
		if strings.HasPrefix(r.Key, prefixCross) {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (a *Assignment) Clone() *Assignment {
	out := &Assignment{grid: a.grid, regions: make([]Region, len(a.regions))}
	for i, r := range a.regions {
		out.regions[i] = r.clone()
	}
	return out
}

// Validate checks that the regions cover every grid position exactly once.
// A violation is reported as GEOMETRY_INVARIANT naming the first offending
// region.
func (a *Assignment) Validate() error {
	owner := make([]int, a.grid.Len())
	for i := range owner {
		owner[i] = -1
	}
	for ri, r := range a.regions {
		for _, idx := range r.Indices {
			if idx < 0 || idx >= len(owner) {
				return errors.New(errors.ErrCodeGeometryInvariant, "grid index %d out of range", idx).WithRegion(r.Key)
			}
			if prev := owner[idx]; prev >= 0 {
				p := a.grid.At(idx)
				return errors.New(errors.ErrCodeGeometryInvariant,
					"position (%g, %g) assigned to both %s and %s", p.X, p.Y, a.regions[prev].Key, r.Key).
					WithRegion(r.Key)
			}
			owner[idx] = ri
		}
	}
	for idx, o := range owner {
		if o < 0 {
			p := a.grid.At(idx)
			return errors.New(errors.ErrCodeGeometryInvariant, "position (%g, %g) is not assigned to any region", p.X, p.Y)
		}
	}
	return nil
}

// String summarizes region sizes, e.g. "background=4 bar0=2 bar1=2 crossing0=1".
func (a *Assignment) String() string {
	parts := make([]string, len(a.regions))
	for i, r := range a.regions {
		parts[i] = fmt.Sprintf("%s=%d", r.Key, r.Count())
	}
	return strings.Join(parts, " ")
}
