package session

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/prfstim/prfstim/pkg/eventlog"
)

// Summary describes a finished run.
type Summary struct {
	Run       uuid.UUID     `json:"run"`
	Trials    int           `json:"trials"`
	Pulses    int           `json:"pulses"`
	Switches  int           `json:"switches"`
	Responses int           `json:"responses"`
	Correct   int           `json:"correct"`
	Accuracy  float64       `json:"accuracy"`
	RTMean    float64       `json:"rt_mean"`
	RTStd     float64       `json:"rt_std"`
	Duration  time.Duration `json:"duration"`
	Aborted   bool          `json:"aborted,omitempty"`
}

// Summarize computes a summary from a run's events. Accuracy is the share
// of fixation switches answered in time; response times are over correct
// responses.
func Summarize(run uuid.UUID, events []eventlog.Event, switches int) Summary {
	s := Summary{Run: run, Switches: switches}
	var rts []float64
	trials := make(map[[2]int]bool)
	for _, e := range events {
		trials[[2]int{e.Block, e.Trial}] = true
		switch e.Type {
		case eventlog.Pulse:
			s.Pulses++
		case eventlog.Response:
			s.Responses++
			if e.Correct {
				s.Correct++
				rts = append(rts, e.RT)
			}
		}
	}
	s.Trials = len(trials)
	if switches > 0 {
		s.Accuracy = float64(s.Correct) / float64(switches)
	}
	switch len(rts) {
	case 0:
	case 1:
		s.RTMean = rts[0]
	default:
		s.RTMean, s.RTStd = stat.MeanStdDev(rts, nil)
	}
	return s
}
