package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/prfstim/prfstim/pkg/schedule"
	"github.com/prfstim/prfstim/pkg/session"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func TestPrintTimelineStats(t *testing.T) {
	tests := []struct {
		name    string
		refills int
		cached  bool
		want    []string
		absent  []string
	}{
		{"fresh", 0, false, []string{"4 blocks", "36 trials", "fresh"}, []string{"refills", "cached"}},
		{"cached with refills", 2, true, []string{"2 refills", "cached"}, []string{"fresh"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureStdout(t)
			printTimelineStats(4, 36, tt.refills, tt.cached)
			out := buf.String()
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, a := range tt.absent {
				assert.NotContains(t, out, a)
			}
			assert.Equal(t, 1, strings.Count(out, "\n"))
		})
	}
}

func TestPrintSummary(t *testing.T) {
	buf := captureStdout(t)
	printSummary(&session.Summary{
		Run:       uuid.Nil,
		Trials:    18,
		Pulses:    18,
		Switches:  5,
		Responses: 4,
		Correct:   3,
		Accuracy:  0.6,
		RTMean:    0.4321,
		RTStd:     0.05,
		Duration:  27*time.Second + 12345*time.Microsecond,
	})
	out := buf.String()
	for _, w := range []string{"4 (3 correct)", "60.0%", "432 ± 50 ms", "27.012s", uuid.Nil.String()} {
		assert.Contains(t, out, w)
	}
}

func TestPrintSummaryWithoutCorrect(t *testing.T) {
	buf := captureStdout(t)
	printSummary(&session.Summary{Responses: 2})
	assert.NotContains(t, buf.String(), "RT")
}

func TestPrintFileAndSteps(t *testing.T) {
	buf := captureStdout(t)
	printFile("timeline.json")
	printNextStep("Browse it", "prfstim schedule --browse")
	printWarning("cache disabled")
	out := buf.String()
	assert.Contains(t, out, "→")
	assert.Contains(t, out, "timeline.json")
	assert.Contains(t, out, "Browse it:")
	assert.Contains(t, out, "prfstim schedule --browse")
	assert.Contains(t, out, "! ")
}

func TestTimelineTableEmptyBlock(t *testing.T) {
	out := timelineTable(&schedule.Timeline{Blocks: []schedule.Block{{Attended: "sf_low"}}})
	assert.Contains(t, out, "sf_low")
	assert.Contains(t, out, "0")
}
