package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/prfstim/prfstim/pkg/schedule"
	"github.com/prfstim/prfstim/pkg/session"
)

// stdout receives all command output; tests swap it.
var stdout io.Writer = os.Stdout

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// Shared styles. The attended condition is always highlighted.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleHeader      = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleLabel       = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

// status is the leading icon of a one-line message.
type status struct {
	icon  string
	style lipgloss.Style
}

var (
	statusOK   = status{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	statusFail = status{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	statusWarn = status{"!", lipgloss.NewStyle().Foreground(colorYellow)}
	statusInfo = status{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

func (s status) print(msg string) {
	fmt.Fprintln(stdout, s.style.Render(s.icon)+" "+msg)
}

func printSuccess(format string, args ...any) { statusOK.print(fmt.Sprintf(format, args...)) }
func printError(format string, args ...any)   { statusFail.print(fmt.Sprintf(format, args...)) }
func printInfo(format string, args ...any)    { statusInfo.print(fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	statusWarn.print(StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile reports a written artifact.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render("→")+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() { fmt.Fprintln(stdout) }

// printTimelineStats prints "N blocks · M trials · cached" style counts.
func printTimelineStats(blocks, trials, refills int, cached bool) {
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d blocks", blocks)),
		StyleDim.Render(fmt.Sprintf("%d trials", trials)),
	}
	if refills > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d refills", refills)))
	}
	if cached {
		parts = append(parts, statusOK.style.Render("cached"))
	} else {
		parts = append(parts, StyleDim.Render("fresh"))
	}
	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// timelineTable renders one row per block: the attended condition, the
// other conditions and the trial count.
func timelineTable(tl *schedule.Timeline) string {
	rows := make([][]string, len(tl.Blocks))
	for i, b := range tl.Blocks {
		var others string
		if conds := b.Conditions(); len(conds) > 1 {
			others = strings.Join(conds[1:], ", ")
		}
		rows[i] = []string{
			strconv.Itoa(i),
			b.Attended,
			others,
			strconv.Itoa(b.Trials()),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Block", "Attend", "Other conditions", "Trials").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case col == 1:
				return StyleHighlight
			case col == 0 || col == 3:
				return StyleNumber
			}
			return StyleDim
		})
	return t.Render()
}

// printSummary prints the outcome of a run.
func printSummary(sum *session.Summary) {
	printKeyValue("Run", sum.Run.String())
	printKeyValue("Trials", strconv.Itoa(sum.Trials))
	printKeyValue("Pulses", strconv.Itoa(sum.Pulses))
	printKeyValue("Switches", strconv.Itoa(sum.Switches))
	printKeyValue("Responses", fmt.Sprintf("%d (%d correct)", sum.Responses, sum.Correct))
	printKeyValue("Accuracy", fmt.Sprintf("%.1f%%", 100*sum.Accuracy))
	if sum.Correct > 0 {
		printKeyValue("RT", fmt.Sprintf("%.0f ± %.0f ms", 1000*sum.RTMean, 1000*sum.RTStd))
	}
	printKeyValue("Duration", sum.Duration.Round(time.Millisecond).String())
}
