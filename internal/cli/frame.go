package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/pipeline"
)

// frameRequest selects one trial and its output files.
type frameRequest struct {
	block   int
	trial   int
	formats []string
	output  string
}

// prefix returns the output path without extension.
func (r frameRequest) prefix() string {
	if r.output != "" {
		return r.output
	}
	return fmt.Sprintf("frame_b%d_t%d", r.block, r.trial)
}

// frameCommand creates the frame command.
func (c *CLI) frameCommand() *cobra.Command {
	var (
		stim       stimFlags
		caches     cacheFlags
		req        frameRequest
		formatsStr string
	)

	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Render the frame of one trial",
		Long: `Render the frame of one trial.

The frame is laid out from the cached timeline: the grid is split into
background, bar and crossing regions and every element gets its texture,
orientation, spatial frequency, contrast and color. Outputs:

  png   raster of the textured elements
  json  per-region element attributes, one JSON line
  plot  scatter of element positions colored by region
  dot   region graph (bars and the crossings they share)
  svg   region graph rendered by graphviz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(req.formats); err != nil {
				return err
			}
			if err := errors.ValidateOutputPath(req.prefix()); err != nil {
				return err
			}
			return c.runFrame(cmd.Context(), stim, caches, req)
		},
	}

	stim.register(cmd)
	caches.register(cmd)
	cmd.Flags().IntVarP(&req.block, "block", "b", 0, "mini-block index")
	cmd.Flags().IntVarP(&req.trial, "trial", "t", 0, "trial index within the block")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): png (default), json, plot, dot, svg (comma-separated)")
	cmd.Flags().StringVarP(&req.output, "output", "o", "", "output path prefix (default frame_b<block>_t<trial>)")

	return cmd
}

func (c *CLI) runFrame(ctx context.Context, stim stimFlags, caches cacheFlags, req frameRequest) error {
	logger := loggerFromContext(ctx)
	opts, err := stim.options(logger)
	if err != nil {
		return err
	}
	opts.Formats = req.formats
	opts.Refresh = caches.refresh

	runner := c.newRunner(ctx, caches)
	defer runner.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Loading timeline...")
	spinner.Start()
	tl, err := runner.BuildTimeline(ctx, opts)
	if err != nil {
		spinner.StopWithError("Scheduling failed")
		return fmt.Errorf("schedule: %w", err)
	}

	spinner.Update(fmt.Sprintf("Rendering block %d trial %d...", req.block, req.trial))
	res, err := runner.RenderFrame(ctx, opts, tl, req.block, req.trial)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return fmt.Errorf("frame: %w", err)
	}
	spinner.Stop()

	if res.Frame != nil {
		printSuccess("Rendered %d regions", len(res.Frame.Regions))
	} else {
		printSuccess("Rendered block %d trial %d", req.block, req.trial)
	}

	formats := make([]string, 0, len(res.Artifacts))
	for format := range res.Artifacts {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	for _, format := range formats {
		path := req.prefix() + "." + pipeline.Extension(format)
		if err := os.WriteFile(path, res.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	if res.CacheHit {
		printDetail("from cache")
	}
	prog.done("Frame ready")
	return nil
}
