// Package cache stores built timelines and rendered frames between runs.
//
// A schedule is a pure function of the settings and the seed, so building
// it twice is wasted work. Callers hash their inputs with a [Keyer] and
// store the encoded result in a [Cache]: [FileCache] for the CLI,
// [RedisCache] when several preview servers share one store, and
// [NullCache] when caching is disabled.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	// Expired and corrupt entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}

// TimelineKeyOpts holds every input that changes a built timeline.
type TimelineKeyOpts struct {
	Attend       []string `json:"attend"`
	MiniBlocks   int      `json:"mini_blocks"`
	BarsPerTrial int      `json:"bars_per_trial"`
	VerBars      int      `json:"ver_bars"`
	HorBars      int      `json:"hor_bars"`
	Screen       [2]int   `json:"screen"`
	GridSpacing  float64  `json:"grid_spacing"`
	BarWidth     float64  `json:"bar_width_ratio"`
	Budget       int      `json:"budget"`
	Seed         uint64   `json:"seed"`
}

// FrameKeyOpts identifies one rendered frame of a timeline.
type FrameKeyOpts struct {
	Block  int    `json:"block"`
	Trial  int    `json:"trial"`
	Format string `json:"format"`

	// SettingsHash covers the condition table, which changes the frame but
	// not the timeline.
	SettingsHash string `json:"settings_hash"`
}

// Keyer derives cache keys.
type Keyer interface {
	TimelineKey(opts TimelineKeyOpts) string
	FrameKey(timelineKey string, opts FrameKeyOpts) string
}

// DefaultKeyer hashes key options into "timeline:<sha256>" and
// "frame:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// TimelineKey returns the key for a timeline.
func (DefaultKeyer) TimelineKey(opts TimelineKeyOpts) string {
	return hashKey("timeline", opts)
}

// FrameKey returns the key for one frame of the timeline stored under
// timelineKey.
func (DefaultKeyer) FrameKey(timelineKey string, opts FrameKeyOpts) string {
	return hashKey("frame", timelineKey, opts)
}

// TTLs used by the pipeline.
const (
	TimelineTTL = 30 * 24 * time.Hour
	FrameTTL    = 24 * time.Hour
)
