// Package eventlog records the scanner pulses and button presses of a run.
//
// The log is append-only. Each backend writes the same flat record, one per
// event: run id, block, trial, phase, onset, event type, key, correctness
// and the trial's parameters. [Open] picks a backend from a target string:
//
//	events.tsv            tab-separated file
//	events.db             SQLite database (schema managed by migrations)
//	mongodb://host/db     MongoDB collection "events"
//	""                    in memory
package eventlog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prfstim/prfstim/pkg/errors"
)

// Type is the event type.
type Type string

const (
	Pulse    Type = "pulse"
	Response Type = "response"
)

// Event is one log record. Onset is seconds since the run started.
type Event struct {
	Run     uuid.UUID         `json:"run"`
	Block   int               `json:"block"`
	Trial   int               `json:"trial_nr"`
	Phase   int               `json:"phase"`
	Onset   float64           `json:"onset"`
	Type    Type              `json:"event_type"`
	Key     string            `json:"response,omitempty"`
	Correct bool              `json:"correct,omitempty"`
	RT      float64           `json:"rt,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
}

// RunInfo describes a run. Backends that keep a run table record it once
// at the start.
type RunInfo struct {
	ID           uuid.UUID `json:"id"`
	Subject      string    `json:"subject,omitempty"`
	Started      time.Time `json:"started"`
	SettingsHash string    `json:"settings_hash,omitempty"`
}

// Log is an append-only event sink.
type Log interface {
	Append(ctx context.Context, e Event) error
	Close() error
}

// RunRecorder is implemented by logs that store run metadata.
type RunRecorder interface {
	StartRun(ctx context.Context, info RunInfo) error
}

// Reader is implemented by logs that can be read back.
type Reader interface {
	Events(ctx context.Context, run uuid.UUID) ([]Event, error)
}

// Open returns the log for target. See the package doc for the forms
// accepted.
func Open(ctx context.Context, target string) (Log, error) {
	lower := strings.ToLower(target)
	switch {
	case target == "":
		return NewMemory(), nil
	case strings.HasPrefix(lower, "mongodb://"), strings.HasPrefix(lower, "mongodb+srv://"):
		return NewMongo(ctx, target, "", "")
	case strings.HasSuffix(lower, ".tsv"):
		return CreateTSV(target)
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return OpenSQLite(ctx, target)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown event log target %q (want .tsv, .db or mongodb://)", target)
}

// paramString renders params as sorted key=value pairs joined by ';'.
func paramString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return strings.Join(parts, ";")
}

func parseParams(s string) map[string]string {
	if s == "" {
		return nil
	}
	out := make(map[string]string)
	for _, kv := range strings.Split(s, ";") {
		k, v, _ := strings.Cut(kv, "=")
		out[k] = v
	}
	return out
}
