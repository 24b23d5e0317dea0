package input

import (
	"context"
	"errors"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// Keyboard reads key presses from a terminal. It runs a renderer-less
// bubbletea program in its own goroutine; Poll drains what it collected.
type Keyboard struct {
	*queue
	clock   Clock
	program *tea.Program
	done    chan error
}

// KeyboardOption configures a [Keyboard].
type KeyboardOption func(*keyboardConfig)

type keyboardConfig struct {
	in    io.Reader
	clock Clock
}

// WithInput reads from r instead of stdin.
func WithInput(r io.Reader) KeyboardOption {
	return func(c *keyboardConfig) { c.in = r }
}

// WithClock stamps events with c.
func WithClock(c Clock) KeyboardOption {
	return func(k *keyboardConfig) { k.clock = c }
}

// NewKeyboard starts reading keys until ctx is done or Close is called.
func NewKeyboard(ctx context.Context, opts ...KeyboardOption) *Keyboard {
	cfg := keyboardConfig{in: os.Stdin, clock: systemClock{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	k := &Keyboard{queue: newQueue(256), clock: cfg.clock, done: make(chan error, 1)}
	k.program = tea.NewProgram(keyModel{k: k},
		tea.WithContext(ctx),
		tea.WithInput(cfg.in),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	go func() {
		_, err := k.program.Run()
		k.done <- err
	}()
	return k
}

// Close stops the reader and waits for it to exit.
func (k *Keyboard) Close() error {
	k.program.Quit()
	err := <-k.done
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type keyModel struct{ k *Keyboard }

func (m keyModel) Init() tea.Cmd { return nil }

func (m keyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		m.k.push(Event{Key: key.String(), Time: m.k.clock.Now()})
	}
	return m, nil
}

func (m keyModel) View() string { return "" }

var _ Source = (*Keyboard)(nil)
