package geom

import (
	"math"

	"github.com/prfstim/prfstim/pkg/errors"
)

// Grid is the ordered, duplicate-free set of candidate element centers.
// The order is significant: every per-element attribute array is indexed by it.
type Grid struct {
	points []Point
	index  map[Key]int
}

// NewGrid builds a grid from points, keeping their order. It rejects
// undefined coordinates and duplicates (after quantization).
func NewGrid(points []Point) (*Grid, error) {
	g := &Grid{
		points: make([]Point, len(points)),
		index:  make(map[Key]int, len(points)),
	}
	for i, p := range points {
		if p.IsUndefined() || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "grid point %d is not finite: %v", i, p)
		}
		k := KeyOf(p)
		if j, dup := g.index[k]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "grid points %d and %d share coordinates (%g, %g)", j, i, p.X, p.Y)
		}
		g.index[k] = i
		g.points[i] = p
	}
	return g, nil
}

// MustGrid is like NewGrid but panics on error. Intended for tests and
// package-level fixtures.
func MustGrid(points ...Point) *Grid {
	g, err := NewGrid(points)
	if err != nil {
		panic(err)
	}
	return g
}

// RectGrid lays out a centered rectangular grid covering screen, spacing
// pixels apart. Points are ordered row by row, bottom to top.
func RectGrid(screen Size, spacing float64) (*Grid, error) {
	if spacing <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "grid spacing must be positive, got %v", spacing)
	}
	nx, x0 := Axis(screen.W, spacing)
	ny, y0 := Axis(screen.H, spacing)
	if nx < 1 || ny < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "screen %vx%v too small for spacing %v", screen.W, screen.H, spacing)
	}

	points := make([]Point, 0, nx*ny)
	for j := range ny {
		for i := range nx {
			points = append(points, Point{X: x0 + float64(i)*spacing, Y: y0 + float64(j)*spacing})
		}
	}
	return NewGrid(points)
}

// Axis returns how many grid lines fit along a centered axis of the given
// extent and the coordinate of the first one.
func Axis(extent, spacing float64) (n int, start float64) {
	if spacing <= 0 {
		return 0, 0
	}
	n = int(math.Floor(extent / spacing))
	return n, -float64(n-1) * spacing / 2
}

// Len returns the number of grid positions.
func (g *Grid) Len() int { return len(g.points) }

// At returns the i-th grid position.
func (g *Grid) At(i int) Point { return g.points[i] }

// Points returns a copy of the grid positions in grid order.
func (g *Grid) Points() []Point {
	out := make([]Point, len(g.points))
	copy(out, g.points)
	return out
}

// Index returns the grid index of p by exact (quantized) coordinate match.
func (g *Grid) Index(p Point) (int, bool) {
	i, ok := g.index[KeyOf(p)]
	return i, ok
}

// Indices maps each point to its grid index. Points not on the grid are
// reported as an INVALID_INPUT error naming the first offender.
func (g *Grid) Indices(points []Point) ([]int, error) {
	out := make([]int, len(points))
	for n, p := range points {
		i, ok := g.Index(p)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "position (%g, %g) is not on the grid", p.X, p.Y)
		}
		out[n] = i
	}
	return out, nil
}

// Select returns the grid positions at the given indices, in that order.
func (g *Grid) Select(indices []int) []Point {
	out := make([]Point, len(indices))
	for n, i := range indices {
		out[n] = g.points[i]
	}
	return out
}
