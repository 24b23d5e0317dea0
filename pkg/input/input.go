// Package input delivers timestamped key events to the trial loop.
//
// Sources are polled once per frame and never block: Poll drains whatever
// arrived since the previous call. [Keyboard] reads the terminal through
// bubbletea, [Scanner] reads newline-separated keys from any reader (a
// trigger box on a serial port, a pipe), and [Scripted] replays a fixed
// schedule for simulated runs.
package input

import (
	"sync"
	"time"
)

// Event is one key press.
type Event struct {
	Key  string    `json:"key"`
	Time time.Time `json:"time"`
}

// Source is a non-blocking event source.
type Source interface {
	// Poll returns the events since the last call, oldest first.
	Poll() []Event
}

// Clock is the time source used to stamp events.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// queue is a bounded event buffer shared by the goroutine-backed sources.
// When full, the oldest events are dropped.
type queue struct {
	mu      sync.Mutex
	events  []Event
	limit   int
	dropped int
}

func newQueue(limit int) *queue { return &queue{limit: limit} }

func (q *queue) push(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == q.limit {
		q.events = q.events[1:]
		q.dropped++
	}
	q.events = append(q.events, e)
}

func (q *queue) drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

// Poll returns the buffered events, oldest first.
func (q *queue) Poll() []Event { return q.drain() }

// Dropped reports events lost to a full buffer.
func (q *queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Multi merges several sources. Events keep their per-source order and
// are merged by timestamp.
type Multi []Source

func (m Multi) Poll() []Event {
	var out []Event
	for _, s := range m {
		out = append(out, s.Poll()...)
	}
	sortByTime(out)
	return out
}

func sortByTime(events []Event) {
	// insertion sort keeps equal timestamps in source order
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && events[j].Time.Before(events[j-1].Time); j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}
}
