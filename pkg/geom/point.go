package geom

import (
	"encoding/json"
	"math"
)

// Quantum is the coordinate resolution used for exact-match lookups.
const Quantum = 1e-6

// Point is a 2-D position in screen pixels, origin at the screen center.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Undefined returns the point used for "no bar this time step".
func Undefined() Point { return Point{X: math.NaN(), Y: math.NaN()} }

// IsUndefined reports whether either coordinate is NaN.
func (p Point) IsUndefined() bool { return math.IsNaN(p.X) || math.IsNaN(p.Y) }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Scale returns p scaled component-wise by s.
func (p Point) Scale(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Key is a quantized coordinate pair, comparable and hashable.
type Key struct {
	X, Y int64
}

// KeyOf quantizes p to [Quantum].
func KeyOf(p Point) Key {
	return Key{
		X: int64(math.Round(p.X / Quantum)),
		Y: int64(math.Round(p.Y / Quantum)),
	}
}

// MarshalJSON encodes the point as [x, y], or null when undefined.
func (p Point) MarshalJSON() ([]byte, error) {
	if p.IsUndefined() {
		return []byte("null"), nil
	}
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes [x, y] or null.
func (p *Point) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Undefined()
		return nil
	}
	var xy [2]float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	*p = Point{X: xy[0], Y: xy[1]}
	return nil
}

// Size is a width/height pair in pixels.
type Size struct {
	W, H float64
}
