// Package schedule builds the bar timeline of a feature run ahead of time.
//
// [Allocate] draws non-overlapping index permutations, [IndexSet] streams
// them with transparent refill, and [Schedule] turns a [Config] into a
// [Timeline]: for every mini-block, every condition's bar midpoint and
// direction on every trial. The timeline is a pure function of the config
// and the random generator, so a seeded generator reproduces it exactly.
package schedule
