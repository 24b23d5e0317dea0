package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/prfstim/prfstim/pkg/cache"
	"github.com/prfstim/prfstim/pkg/observability"
	"github.com/prfstim/prfstim/pkg/schedule"
	"github.com/prfstim/prfstim/pkg/stim"
)

// Runner executes pipeline stages with caching. It holds no results, so
// one Runner may serve concurrent requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner returns a runner. A nil cache disables caching and a nil keyer
// means the default one.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// FrameResult is the output of [Runner.RenderFrame].
type FrameResult struct {
	// Frame is nil when every artifact came from the cache.
	Frame     *stim.Frame
	Artifacts map[string][]byte
	CacheHit  bool
	Duration  time.Duration
}

// BuildTimeline returns the timeline for opts, from the cache when
// possible.
func (r *Runner) BuildTimeline(ctx context.Context, opts Options) (*schedule.Timeline, error) {
	tl, _, err := r.BuildTimelineWithCacheInfo(ctx, opts)
	return tl, err
}

// BuildTimelineWithCacheInfo is BuildTimeline that also reports whether
// the cache was hit.
func (r *Runner) BuildTimelineWithCacheInfo(ctx context.Context, opts Options) (*schedule.Timeline, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForTimeline(); err != nil {
		return nil, false, err
	}

	key := r.Keyer.TimelineKey(opts.TimelineKeyOpts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var tl schedule.Timeline
			if err := json.Unmarshal(data, &tl); err == nil {
				observability.Cache().OnCacheHit(ctx, "timeline")
				opts.Logger.Debug("timeline from cache", "key", key)
				return &tl, true, nil
			}
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "timeline")
	}

	cfg, err := opts.ScheduleConfig()
	if err != nil {
		return nil, false, err
	}

	hooks := observability.Schedule()
	hooks.OnScheduleStart(ctx, cfg.MiniBlocks, cfg.BarsPerTrial)
	start := time.Now()
	tl, err := schedule.Schedule(NewRand(opts.Seed), cfg)
	elapsed := time.Since(start)
	if err != nil {
		hooks.OnScheduleComplete(ctx, 0, 0, elapsed, err)
		return nil, false, err
	}
	hooks.OnScheduleComplete(ctx, tl.Trials(), tl.Refills, elapsed, nil)

	opts.Logger.Info("built timeline",
		"blocks", len(tl.Blocks),
		"trials", tl.Trials(),
		"seed", opts.Seed,
		"duration", elapsed)

	if data, err := json.Marshal(tl); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TimelineTTL); err != nil {
			opts.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "timeline", len(data))
		}
	}
	return tl, false, nil
}

// RenderFrame builds one trial's frame and encodes it in opts.Formats.
func (r *Runner) RenderFrame(ctx context.Context, opts Options, tl *schedule.Timeline, block, trial int) (*FrameResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	start := time.Now()

	tlKey := r.Keyer.TimelineKey(opts.TimelineKeyOpts())
	settingsHash := opts.SettingsHash()
	keys := make(map[string]string, len(opts.Formats))
	for _, format := range opts.Formats {
		keys[format] = r.Keyer.FrameKey(tlKey, cache.FrameKeyOpts{
			Block:        block,
			Trial:        trial,
			Format:       opts.Variant + "/" + format,
			SettingsHash: settingsHash,
		})
	}

	if !opts.Refresh {
		if artifacts, ok := r.cachedArtifacts(ctx, keys); ok {
			observability.Cache().OnCacheHit(ctx, "frame")
			return &FrameResult{Artifacts: artifacts, CacheHit: true, Duration: time.Since(start)}, nil
		}
		observability.Cache().OnCacheMiss(ctx, "frame")
	}

	b, err := NewFrameBuilder(opts, tl)
	if err != nil {
		return nil, err
	}
	f, err := b.Frame(ctx, block, trial)
	if err != nil {
		return nil, err
	}
	artifacts, err := Render(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("block %d trial %d: %w", block, trial, err)
	}

	for format, data := range artifacts {
		if err := r.Cache.Set(ctx, keys[format], data, cache.FrameTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "frame", len(data))
		}
	}

	res := &FrameResult{Frame: f, Artifacts: artifacts, Duration: time.Since(start)}
	opts.Logger.Debug("rendered frame",
		"block", block,
		"trial", trial,
		"regions", len(f.Regions),
		"formats", opts.Formats,
		"duration", res.Duration)
	return res, nil
}

func (r *Runner) cachedArtifacts(ctx context.Context, keys map[string]string) (map[string][]byte, bool) {
	out := make(map[string][]byte, len(keys))
	for format, key := range keys {
		data, err := cache.GetOrMiss(ctx, r.Cache, key)
		if err != nil {
			return nil, false
		}
		out[format] = data
	}
	return out, len(out) > 0
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
