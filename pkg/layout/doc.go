// Package layout partitions the element grid into regions for one time step.
//
// # Regions
//
// An [Assignment] holds an ordered set of [Region] values keyed
// "background", "bar<i>" and "crossing<k>". [Partition] produces the bar and
// background regions from bar apertures; [ExtractCrossings] then moves the
// positions shared by a vertical and a horizontal bar into crossing regions.
// Once both have run, [Assignment.Validate] confirms every grid position is
// owned by exactly one region. A frame that fails validation must not be
// drawn.
//
// # Example
//
//	a, err := layout.Partition(grid, bars, screen, len(bars))
//	if err != nil {
//	    return err
//	}
//	a, err = layout.ExtractCrossings(a, conditions, directions)
//	if err != nil {
//	    return err
//	}
//	if err := a.Validate(); err != nil {
//	    return err
//	}
//
// All functions are pure: inputs are never modified and a failure leaves
// nothing half-built.
package layout
