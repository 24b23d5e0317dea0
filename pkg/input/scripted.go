package input

import (
	"math/rand/v2"
	"sort"
	"time"
)

// Cue is a scripted key press at an offset from the start.
type Cue struct {
	At  time.Duration
	Key string
}

// Scripted replays cues against a clock. A cue is delivered by the first
// Poll at or after its time.
type Scripted struct {
	clock Clock
	start time.Time
	cues  []Cue
	next  int
}

// NewScripted returns a source that starts counting now.
func NewScripted(c Clock, cues []Cue) *Scripted {
	cs := append([]Cue(nil), cues...)
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].At < cs[j].At })
	return &Scripted{clock: c, start: c.Now(), cues: cs}
}

func (s *Scripted) Poll() []Event {
	elapsed := s.clock.Now().Sub(s.start)
	var out []Event
	for s.next < len(s.cues) && s.cues[s.next].At <= elapsed {
		c := s.cues[s.next]
		out = append(out, Event{Key: c.Key, Time: s.start.Add(c.At)})
		s.next++
	}
	return out
}

// Remaining returns the number of cues not yet delivered.
func (s *Scripted) Remaining() int { return len(s.cues) - s.next }

// Triggers returns n scanner pulses, one at the end of each tr.
func Triggers(key string, tr time.Duration, n int) []Cue {
	out := make([]Cue, n)
	for i := range out {
		out[i] = Cue{At: time.Duration(i+1) * tr, Key: key}
	}
	return out
}

// Responses returns simulated button presses: after each switch, with
// probability p, a press after a delay drawn uniformly from [lo, hi].
func Responses(rng *rand.Rand, key string, switches []time.Duration, p float64, lo, hi time.Duration) []Cue {
	var out []Cue
	for _, sw := range switches {
		if rng.Float64() >= p {
			continue
		}
		delay := lo + time.Duration(rng.Float64()*float64(hi-lo))
		out = append(out, Cue{At: sw + delay, Key: key})
	}
	return out
}

var _ Source = (*Scripted)(nil)
