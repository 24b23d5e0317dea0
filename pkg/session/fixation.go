package session

import (
	"math/rand/v2"
	"sort"
	"time"
)

// DefaultFixationColors are the two colors the fixation dot alternates
// between.
var DefaultFixationColors = [2][3]float64{{1, 0, 0}, {0, 1, 0}}

// Fixation is the fixation dot. Its color flips at precomputed switch
// times; the subject's task is to press a button after each flip.
type Fixation struct {
	Colors   [2][3]float64
	Radius   float64
	switches []time.Duration
	credited int
}

// NewFixation draws switch times over [0, total). Gaps are minGap plus an
// exponential with mean (mean-minGap), so the average gap is mean and no
// two switches are closer than minGap.
func NewFixation(rng *rand.Rand, mean, minGap, total time.Duration) *Fixation {
	f := &Fixation{Colors: DefaultFixationColors, Radius: 5, credited: -1}
	if mean <= 0 {
		return f
	}
	if minGap >= mean {
		minGap = mean / 2
	}
	var t time.Duration
	for {
		t += minGap + time.Duration(rng.ExpFloat64()*float64(mean-minGap))
		if t >= total {
			break
		}
		f.switches = append(f.switches, t)
	}
	return f
}

// Switches returns the switch times.
func (f *Fixation) Switches() []time.Duration { return f.switches }

// Count returns the number of switches at or before at.
func (f *Fixation) Count(at time.Duration) int {
	return sort.Search(len(f.switches), func(i int) bool { return f.switches[i] > at })
}

// Color returns the dot's color at time at.
func (f *Fixation) Color(at time.Duration) [3]float64 {
	return f.Colors[f.Count(at)%2]
}

// Credit reports whether a response at time at answers the most recent
// switch: it must come within window of it, and each switch is credited
// once. It returns the response time on success.
func (f *Fixation) Credit(at, window time.Duration) (time.Duration, bool) {
	i := f.Count(at) - 1
	if i < 0 || i == f.credited {
		return 0, false
	}
	rt := at - f.switches[i]
	if rt > window {
		return 0, false
	}
	f.credited = i
	return rt, true
}
