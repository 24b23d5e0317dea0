// Package pkg provides the libraries behind prfstim, a stimulus layout
// engine for population receptive field (pRF) mapping with attended bar
// features.
//
// # Overview
//
// A run is a sequence of mini-blocks. Each block attends one condition and
// shows several bars per trial sweeping the screen; every trial is one MRI
// repetition time. Each bar is drawn as an array of textured grating
// elements whose attributes depend on the condition it shows, and where a
// horizontal and a vertical bar overlap the crossing mixes both.
//
// The pkg directory is organized into four areas:
//
//  1. Geometry and layout: [geom], [jitter], [layout], [schedule]
//  2. Appearance: [settings], [texture], [attributes], [stim]
//  3. Output and orchestration: [render], [pipeline], [cache], [api]
//  4. Presentation: [session], [input], [eventlog]
//
// # Data flow
//
//	settings (TOML)
//	     ↓
//	[schedule] bar timeline, cached by [pipeline]
//	     ↓
//	[layout] grid partition into background, bars and crossings
//	     ↓
//	[attributes] per-element SF, orientation, contrast and color
//	     ↓
//	[render] sinks: PNG, JSON, plot, region graph
//
// During a scan [session] drives the same frames to a sink, one trial per
// scanner pulse, and writes pulses and responses to an [eventlog].
//
// [geom]: github.com/prfstim/prfstim/pkg/geom
// [jitter]: github.com/prfstim/prfstim/pkg/jitter
// [layout]: github.com/prfstim/prfstim/pkg/layout
// [schedule]: github.com/prfstim/prfstim/pkg/schedule
// [settings]: github.com/prfstim/prfstim/pkg/settings
// [texture]: github.com/prfstim/prfstim/pkg/texture
// [attributes]: github.com/prfstim/prfstim/pkg/attributes
// [stim]: github.com/prfstim/prfstim/pkg/stim
// [render]: github.com/prfstim/prfstim/pkg/render
// [pipeline]: github.com/prfstim/prfstim/pkg/pipeline
// [cache]: github.com/prfstim/prfstim/pkg/cache
// [api]: github.com/prfstim/prfstim/pkg/api
// [session]: github.com/prfstim/prfstim/pkg/session
// [input]: github.com/prfstim/prfstim/pkg/input
// [eventlog]: github.com/prfstim/prfstim/pkg/eventlog
package pkg
