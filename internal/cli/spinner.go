package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// spinnerFrames cycles a quarter-filled disc.
var spinnerFrames = []string{"◐", "◓", "◑", "◒"}

const spinnerTick = 100 * time.Millisecond

// Spinner animates a status line on stderr while a step runs. Steps longer
// than a second show their elapsed time. It stops with its parent context.
type Spinner struct {
	out    io.Writer
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
	start  time.Time

	mu      sync.Mutex
	message string
	width   int

	wg   sync.WaitGroup
	once sync.Once
}

func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	inner, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     os.Stderr,
		parent:  ctx,
		ctx:     inner,
		cancel:  cancel,
		message: message,
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.start = time.Now()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(spinnerTick)
		defer ticker.Stop()
		for i := 0; ; i++ {
			s.draw(i)
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// line renders one animation frame.
func (s *Spinner) line(frame int, elapsed time.Duration) string {
	icon := styleIconSpinner.Render(spinnerFrames[frame%len(spinnerFrames)])
	text := s.message
	if elapsed >= time.Second {
		text += fmt.Sprintf(" %.0fs", elapsed.Seconds())
	}
	return icon + " " + StyleDim.Render(text)
}

func (s *Spinner) draw(frame int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.line(frame, time.Since(s.start))
	fmt.Fprint(s.out, "\r"+l)
	s.width = max(s.width, len(l))
}

func (s *Spinner) clearLocked() {
	if s.width > 0 {
		fmt.Fprint(s.out, "\r"+strings.Repeat(" ", s.width)+"\r")
		s.width = 0
	}
}

// Update switches to the next step's message.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.message = message
}

// Stop ends the animation and clears the line. It may be called more than
// once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
		s.mu.Lock()
		s.clearLocked()
		s.mu.Unlock()
	})
}

// StopWithSuccess stops the spinner and prints a success line.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and prints a failure line.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the parent context ended, as opposed to a
// regular Stop.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}
