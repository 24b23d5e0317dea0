package geom

import (
	"fmt"
	"math"
	"strings"
)

// Direction is the sweep direction of a bar.
//
// A horizontal bar sweeps along x: it is narrow in x and spans the full
// screen height. A vertical bar sweeps along y and spans the full width.
type Direction int

const (
	Horizontal Direction = iota
	Vertical
)

func (d Direction) String() string {
	switch d {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Horizontal {
		return Vertical
	}
	return Horizontal
}

// ParseDirection accepts "horizontal"/"vertical" and the sweep shorthands
// L-R, R-L (horizontal) and U-D, D-U (vertical).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HORIZONTAL", "L-R", "R-L":
		return Horizontal, nil
	case "VERTICAL", "U-D", "D-U":
		return Vertical, nil
	}
	return 0, fmt.Errorf("unknown bar direction %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	if d != Horizontal && d != Vertical {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	v, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Bar describes one bar aperture at one time step.
type Bar struct {
	Midpoint  Point     `json:"midpoint"`
	Direction Direction `json:"direction"`
	Width     Point     `json:"width"`
}

// Active reports whether the bar is shown (its midpoint is defined).
func (b Bar) Active() bool { return !b.Midpoint.IsUndefined() }

// Directions returns the direction of each bar.
func Directions(bars []Bar) []Direction {
	out := make([]Direction, len(bars))
	for i, b := range bars {
		out[i] = b.Direction
	}
	return out
}

// Bounds is an inclusive axis-aligned box.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Contains reports whether p lies inside b, borders included.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Bounds returns the bar's box on a screen of the given size.
func (b Bar) Bounds(screen Size) Bounds {
	switch b.Direction {
	case Vertical:
		lo, hi := ordered(b.Midpoint.Y-b.Width.Y/2, b.Midpoint.Y+b.Width.Y/2)
		return Bounds{MinX: -screen.W / 2, MaxX: screen.W / 2, MinY: lo, MaxY: hi}
	default:
		lo, hi := ordered(b.Midpoint.X-b.Width.X/2, b.Midpoint.X+b.Width.X/2)
		return Bounds{MinX: lo, MaxX: hi, MinY: -screen.H / 2, MaxY: screen.H / 2}
	}
}

func ordered(a, b float64) (float64, float64) {
	return math.Min(a, b), math.Max(a, b)
}
