package schedule

import (
	"math/rand/v2"

	"github.com/prfstim/prfstim/pkg/errors"
)

// DefaultBudget is the number of shuffles a slot may try before the
// allocator gives up.
const DefaultBudget = 1000

// Allocate returns one random permutation of [0, candidates) per slot such
// that no two slots hold the same index at the same position. In particular
// adjacent slots never share their first index, so bars drawn in lockstep
// from different slots never land on the same midpoint.
//
// A slot that collides with an earlier one is reshuffled, at most budget
// times (DefaultBudget when budget <= 0). Requests that cannot be met, such
// as several slots over a single candidate, fail with CONFIGURATION instead
// of retrying.
func Allocate(rng *rand.Rand, slots, candidates, budget int) ([][]int, error) {
	if slots < 0 || candidates < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "slots and candidates must be non-negative, got %d and %d", slots, candidates)
	}
	if slots == 0 {
		return [][]int{}, nil
	}
	switch {
	case candidates == 0:
		return nil, errors.New(errors.ErrCodeConfiguration, "no candidate positions for %d bar slots", slots)
	case slots > 1 && candidates <= 1:
		return nil, errors.New(errors.ErrCodeConfiguration, "%d bar slots cannot avoid each other with %d candidate position", slots, candidates)
	case slots > candidates:
		return nil, errors.New(errors.ErrCodeConfiguration, "%d bar slots exceed %d candidate positions", slots, candidates)
	}
	if budget <= 0 {
		budget = DefaultBudget
	}

	perms := make([][]int, slots)
	for s := range perms {
		p := rng.Perm(candidates)
		for attempt := 1; collides(perms[:s], p); attempt++ {
			if attempt >= budget {
				return nil, errors.New(errors.ErrCodeConfiguration,
					"slot %d: no non-overlapping order over %d candidates after %d shuffles", s, candidates, budget)
			}
			rng.Shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })
		}
		perms[s] = p
	}
	return perms, nil
}

func collides(prev [][]int, p []int) bool {
	for _, q := range prev {
		for i := range p {
			if q[i] == p[i] {
				return true
			}
		}
	}
	return false
}

// IndexSet hands out one candidate index per slot at a time, consuming the
// allocated permutations front to back. When they run out a fresh set is
// allocated; callers only see an uninterrupted stream.
type IndexSet struct {
	rng        *rand.Rand
	slots      int
	candidates int
	budget     int

	perms   [][]int
	next    int
	refills int
}

// NewIndexSet allocates the first set of permutations.
func NewIndexSet(rng *rand.Rand, slots, candidates, budget int) (*IndexSet, error) {
	perms, err := Allocate(rng, slots, candidates, budget)
	if err != nil {
		return nil, err
	}
	return &IndexSet{
		rng:        rng,
		slots:      slots,
		candidates: candidates,
		budget:     budget,
		perms:      perms,
	}, nil
}

// Next returns the next index for every slot.
func (s *IndexSet) Next() ([]int, error) {
	if s.next >= s.candidates {
		perms, err := Allocate(s.rng, s.slots, s.candidates, s.budget)
		if err != nil {
			return nil, err
		}
		s.perms = perms
		s.next = 0
		s.refills++
	}
	out := make([]int, s.slots)
	for i, p := range s.perms {
		out[i] = p[s.next]
	}
	s.next++
	return out, nil
}

// Refills reports how many times the set was regenerated.
func (s *IndexSet) Refills() int { return s.refills }
