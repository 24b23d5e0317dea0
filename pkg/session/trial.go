package session

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/prfstim/prfstim/pkg/eventlog"
	"github.com/prfstim/prfstim/pkg/input"
)

// ErrAborted is returned when the abort key ends a run. It wraps
// context.Canceled so callers treat it like an interrupt.
var ErrAborted = fmt.Errorf("session aborted: %w", context.Canceled)

// Keys are the special keys of a run.
type Keys struct {
	Trigger string
	Abort   string
}

// Trial is the event state of one trial.
type Trial struct {
	Run    uuid.UUID
	Block  int
	Number int
	Phase  int
	Params map[string]string

	Keys     Keys
	Window   time.Duration
	Fixation *Fixation

	// Start is the run's start; onsets are relative to it.
	Start time.Time

	Responses int
	Correct   int
}

// Outcome is the result of one HandleEvents call.
type Outcome struct {
	Events []eventlog.Event

	// Exit is set when a trigger ended the phase. Rest holds the events
	// that arrived after it, for the next trial.
	Exit bool
	Rest []input.Event
}

// HandleEvents turns key events into log events. The abort key returns
// ErrAborted with the events logged so far. A trigger logs a pulse and
// ends the phase. Any other key is a response, correct when it lands
// within the window after the latest fixation switch.
func (t *Trial) HandleEvents(events []input.Event) (Outcome, error) {
	var out Outcome
	for i, ev := range events {
		onset := ev.Time.Sub(t.Start)
		switch ev.Key {
		case t.Keys.Abort:
			return out, ErrAborted
		case t.Keys.Trigger:
			out.Events = append(out.Events, t.event(eventlog.Pulse, ev.Key, onset))
			out.Exit = true
			out.Rest = events[i+1:]
			return out, nil
		default:
			e := t.event(eventlog.Response, ev.Key, onset)
			t.Responses++
			if t.Fixation != nil {
				if rt, ok := t.Fixation.Credit(onset, t.Window); ok {
					e.Correct = true
					e.RT = rt.Seconds()
					t.Correct++
				}
			}
			out.Events = append(out.Events, e)
		}
	}
	return out, nil
}

func (t *Trial) event(typ eventlog.Type, key string, onset time.Duration) eventlog.Event {
	return eventlog.Event{
		Run:    t.Run,
		Block:  t.Block,
		Trial:  t.Number,
		Phase:  t.Phase,
		Onset:  onset.Seconds(),
		Type:   typ,
		Key:    key,
		Params: maps.Clone(t.Params),
	}
}
