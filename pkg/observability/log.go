package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug lines. The CLI
// registers it under --verbose.
type LogHooks struct {
	Logger *log.Logger
}

func (h LogHooks) OnScheduleStart(_ context.Context, blocks, barsPerTrial int) {
	h.Logger.Debug("scheduling", "blocks", blocks, "bars_per_trial", barsPerTrial)
}

func (h LogHooks) OnScheduleComplete(_ context.Context, trials, refills int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("schedule failed", "err", err, "duration", d)
		return
	}
	h.Logger.Debug("scheduled", "trials", trials, "refills", refills, "duration", d)
}

func (h LogHooks) OnFrameStart(_ context.Context, block, trial int) {
	h.Logger.Debug("frame", "block", block, "trial", trial)
}

func (h LogHooks) OnFrameComplete(_ context.Context, block, trial, regions int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("frame failed", "block", block, "trial", trial, "err", err)
		return
	}
	h.Logger.Debug("frame built", "block", block, "trial", trial, "regions", regions, "duration", d)
}

func (h LogHooks) OnFrameRejected(_ context.Context, block, trial int, err error) {
	h.Logger.Warn("frame rejected", "block", block, "trial", trial, "err", err)
}

func (h LogHooks) OnCacheHit(_ context.Context, kind string) {
	h.Logger.Debug("cache hit", "kind", kind)
}

func (h LogHooks) OnCacheMiss(_ context.Context, kind string) {
	h.Logger.Debug("cache miss", "kind", kind)
}

func (h LogHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.Logger.Debug("cache set", "kind", kind, "bytes", size)
}

// Register installs h for every hook category.
func (h LogHooks) Register() {
	SetScheduleHooks(h)
	SetFrameHooks(h)
	SetCacheHooks(h)
}
