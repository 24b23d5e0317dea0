// Package cli implements the prfstim command-line interface.
//
// The commands cover the life of an experiment: schedule builds and
// caches the bar timeline, frame lays out and renders single trials, run
// presents the whole timeline against a scanner trigger and logs events,
// and serve exposes previews over HTTP. cache manages the on-disk cache.
//
// # Logging
//
// --verbose (-v) lowers the level to debug and routes the pipeline's
// schedule, frame and cache hooks into the same logger. Commands find the
// logger in their context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the CLI logger. Timestamps carry hundredths of a
// second, which is the resolution trial timing is reasoned about in.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one command and reports it as a structured line.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// elapsed is rounded to the millisecond.
func (p *progress) elapsed() time.Duration {
	return time.Since(p.start).Round(time.Millisecond)
}

// done logs msg with the elapsed time and any extra key/value pairs.
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append([]any{"elapsed", p.elapsed()}, keyvals...)...)
}

type ctxKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext returns the command logger, or a discarding logger
// when the command was run without the root's pre-run hook (tests).
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.NewWithOptions(io.Discard, log.Options{})
}
