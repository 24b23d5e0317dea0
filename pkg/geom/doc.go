// Package geom holds the fixed geometry of a stimulus session: the grid of
// candidate element centers and the bar apertures swept across it.
//
// A [Grid] is immutable once built. It keeps a hash from quantized coordinates
// to grid index so that region membership and attribute alignment are O(1)
// lookups instead of linear scans. Coordinates are quantized to [Quantum]
// before hashing; two points closer than that are the same grid position.
//
// Bars are described by a midpoint, a [Direction] and a width. A bar whose
// midpoint is undefined (NaN) means no bar is shown at that time step.
package geom
