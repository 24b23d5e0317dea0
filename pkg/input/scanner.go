package input

import (
	"bufio"
	"io"
	"strings"
)

// Scanner turns lines read from r into key events. Blank lines are
// skipped; the line's text, trimmed, is the key.
type Scanner struct {
	*queue
	clock Clock
	done  chan error
}

// NewScanner starts reading r in a goroutine. c may be nil for the system
// clock.
func NewScanner(r io.Reader, c Clock) *Scanner {
	if c == nil {
		c = systemClock{}
	}
	s := &Scanner{queue: newQueue(256), clock: c, done: make(chan error, 1)}
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			key := strings.TrimSpace(sc.Text())
			if key == "" {
				continue
			}
			s.push(Event{Key: key, Time: s.clock.Now()})
		}
		s.done <- sc.Err()
		close(s.done)
	}()
	return s
}

// Wait blocks until the reader hits EOF and returns its error.
func (s *Scanner) Wait() error { return <-s.done }

var _ Source = (*Scanner)(nil)
