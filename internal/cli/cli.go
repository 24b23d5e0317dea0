package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/prfstim/prfstim/pkg/buildinfo"
	"github.com/prfstim/prfstim/pkg/cache"
	"github.com/prfstim/prfstim/pkg/observability"
	"github.com/prfstim/prfstim/pkg/pipeline"
	"github.com/prfstim/prfstim/pkg/settings"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "prfstim"

	// redisPrefix namespaces prfstim keys in a shared Redis.
	redisPrefix = "prfstim:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level the pipeline
// hooks are logged too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		observability.LogHooks{Logger: c.Logger}.Register()
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "prfstim lays out and runs pRF bar stimuli",
		Long: `prfstim schedules bar sweeps for population receptive field mapping,
lays out the textured element grid of every frame and runs the experiment
against a scanner trigger, logging pulses and button presses.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.scheduleCommand())
	root.AddCommand(c.frameCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Flags
// =============================================================================

// stimFlags selects the settings file and overrides shared by every
// command that builds a timeline.
type stimFlags struct {
	settingsPath string
	seed         uint64
	variant      string
	budget       int
}

func (f *stimFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.settingsPath, "settings", "s", "", "settings TOML file (built-in defaults if empty)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "random seed (overrides task.seed)")
	cmd.Flags().StringVar(&f.variant, "variant", pipeline.VariantFeature, "stimulus variant: feature, prf")
	cmd.Flags().IntVar(&f.budget, "budget", 0, "scheduling retry budget (0 for the default)")
}

// options loads the settings and builds pipeline options.
func (f *stimFlags) options(logger *log.Logger) (pipeline.Options, error) {
	s := settings.Default()
	if f.settingsPath != "" {
		var err error
		if s, err = settings.Load(f.settingsPath); err != nil {
			return pipeline.Options{}, err
		}
	}
	if err := pipeline.ValidateVariant(f.variant); err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		Settings: s,
		Seed:     f.seed,
		Budget:   f.budget,
		Variant:  f.variant,
		Logger:   logger,
	}
	opts.SetTimelineDefaults()
	return opts, opts.ValidateForTimeline()
}

// cacheFlags selects the cache backend.
type cacheFlags struct {
	noCache bool
	refresh bool
	redis   string
	subject string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute and overwrite cached results")
	cmd.Flags().StringVar(&f.redis, "redis", "", "cache in Redis at this address or redis:// URL instead of on disk")
	cmd.Flags().StringVar(&f.subject, "subject", "", "subject id; scopes cache keys and labels the event log")
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, f cacheFlags) *pipeline.Runner {
	var keyer cache.Keyer
	if f.subject != "" {
		keyer = cache.NewScopedKeyer(nil, "subject:"+f.subject+":")
	}
	return pipeline.NewRunner(c.newCache(ctx, f), keyer, c.Logger)
}

func (c *CLI) newCache(ctx context.Context, f cacheFlags) cache.Cache {
	if f.noCache {
		return cache.NewNullCache()
	}
	if f.redis != "" {
		rc, err := cache.NewRedisCache(ctx, f.redis, redisPrefix)
		if err != nil {
			c.Logger.Warn("redis unavailable, caching disabled", "addr", f.redis, "err", err)
			return cache.NewNullCache()
		}
		return rc
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache directory unusable, caching disabled", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/prfstim/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatPNG}
	}
	return strings.Split(s, ",")
}
