// Package observability lets the application observe scheduling, frame
// assembly and cache traffic without the libraries depending on a metrics
// backend.
//
// Libraries call the registered hooks; main registers implementations at
// startup:
//
//	observability.SetFrameHooks(myFrameMetrics{})
//
// Unregistered hooks are no-ops.
package observability

import (
	"context"
	"sync"
	"time"
)

// ScheduleHooks receives timeline construction events.
type ScheduleHooks interface {
	OnScheduleStart(ctx context.Context, blocks, barsPerTrial int)
	OnScheduleComplete(ctx context.Context, trials int, refills int, duration time.Duration, err error)
}

// FrameHooks receives frame assembly and drawing events.
type FrameHooks interface {
	OnFrameStart(ctx context.Context, block, trial int)
	OnFrameComplete(ctx context.Context, block, trial, regions int, duration time.Duration, err error)

	// OnFrameRejected fires when a layout fails validation and the frame
	// is not drawn.
	OnFrameRejected(ctx context.Context, block, trial int, err error)
}

// CacheHooks receives cache events. kind is "timeline" or "frame".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
}

type NoopScheduleHooks struct{}

func (NoopScheduleHooks) OnScheduleStart(context.Context, int, int) {}
func (NoopScheduleHooks) OnScheduleComplete(context.Context, int, int, time.Duration, error) {
}

type NoopFrameHooks struct{}

func (NoopFrameHooks) OnFrameStart(context.Context, int, int) {}
func (NoopFrameHooks) OnFrameComplete(context.Context, int, int, int, time.Duration, error) {
}
func (NoopFrameHooks) OnFrameRejected(context.Context, int, int, error) {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	hooksMu       sync.RWMutex
	scheduleHooks ScheduleHooks = NoopScheduleHooks{}
	frameHooks    FrameHooks    = NoopFrameHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
)

// SetScheduleHooks registers schedule hooks. nil is ignored.
func SetScheduleHooks(h ScheduleHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scheduleHooks = h
	}
}

// SetFrameHooks registers frame hooks. nil is ignored.
func SetFrameHooks(h FrameHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		frameHooks = h
	}
}

// SetCacheHooks registers cache hooks. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

func Schedule() ScheduleHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scheduleHooks
}

func Frame() FrameHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return frameHooks
}

func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	scheduleHooks = NoopScheduleHooks{}
	frameHooks = NoopFrameHooks{}
	cacheHooks = NoopCacheHooks{}
}
