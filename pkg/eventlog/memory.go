package eventlog

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
)

// Memory keeps events in memory. It is the default for simulated runs and
// tests.
type Memory struct {
	mu     sync.Mutex
	runs   []RunInfo
	events []Event
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) StartRun(_ context.Context, info RunInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, info)
	return nil
}

func (m *Memory) Append(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Params = maps.Clone(e.Params)
	m.events = append(m.events, e)
	return nil
}

// Events returns a run's events. The zero uuid selects every event.
func (m *Memory) Events(_ context.Context, run uuid.UUID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if run == uuid.Nil || e.Run == run {
			out = append(out, e)
		}
	}
	return out, nil
}

// Runs returns the recorded runs.
func (m *Memory) Runs() []RunInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RunInfo(nil), m.runs...)
}

func (m *Memory) Close() error { return nil }

var (
	_ Log         = (*Memory)(nil)
	_ Reader      = (*Memory)(nil)
	_ RunRecorder = (*Memory)(nil)
)
