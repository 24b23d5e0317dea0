package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/prfstim/prfstim/pkg/errors"
)

// scheduleCommand creates the schedule command.
func (c *CLI) scheduleCommand() *cobra.Command {
	var (
		stim   stimFlags
		caches cacheFlags
		output string
		browse bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Build the bar timeline of a run",
		Long: `Build the bar timeline of a run.

Every mini-block attends one condition; each trial shows one bar per
condition, placed so that no two bars of the same direction share a
midpoint. The timeline depends only on the settings and the seed and is
cached, so later frame and run commands reuse it.

With --browse the timeline opens in an interactive table; pressing enter
on a trial renders its frame.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" {
				if err := errors.ValidateOutputPath(output); err != nil {
					return err
				}
			}
			return c.runSchedule(cmd.Context(), stim, caches, output, browse)
		},
	}

	stim.register(cmd)
	caches.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the timeline JSON to this file")
	cmd.Flags().BoolVar(&browse, "browse", false, "browse the timeline interactively")

	return cmd
}

func (c *CLI) runSchedule(ctx context.Context, stim stimFlags, caches cacheFlags, output string, browse bool) error {
	logger := loggerFromContext(ctx)
	opts, err := stim.options(logger)
	if err != nil {
		return err
	}
	opts.Refresh = caches.refresh

	runner := c.newRunner(ctx, caches)
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Scheduling bars...")
	spinner.Start()
	tl, cached, err := runner.BuildTimelineWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Scheduling failed")
		return fmt.Errorf("schedule: %w", err)
	}
	spinner.Stop()

	printSuccess("Scheduled %d blocks", len(tl.Blocks))
	printTimelineStats(len(tl.Blocks), tl.Trials(), tl.Refills, cached)
	fmt.Fprintln(stdout, timelineTable(tl))

	if output != "" {
		data, err := json.MarshalIndent(tl, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		printFile(output)
	}

	if !browse {
		printNewline()
		printNextStep("Render a frame", "prfstim frame -b 0 -t 0")
		return nil
	}

	final, err := tea.NewProgram(NewTimelineModel(tl), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	m := final.(TimelineModel)
	if m.Selected == nil {
		return nil
	}
	return c.runFrame(ctx, stim, caches, frameRequest{
		block:   m.Selected.Block,
		trial:   m.Selected.Trial,
		formats: parseFormats(""),
	})
}
