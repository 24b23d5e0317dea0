package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/prfstim/prfstim/pkg/geom"
	"github.com/prfstim/prfstim/pkg/schedule"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// TimelineModel - Interactive timeline browser
// =============================================================================

// TrialSelection holds the trial picked in the browser.
type TrialSelection struct {
	Block int
	Trial int
}

// TimelineModel is the bubbletea model for browsing a timeline one block
// at a time.
type TimelineModel struct {
	Timeline *schedule.Timeline
	Block    int
	Cursor   int
	Selected *TrialSelection
	Height   int
	Offset   int
}

// NewTimelineModel creates a browser positioned on the first trial.
func NewTimelineModel(tl *schedule.Timeline) TimelineModel {
	return TimelineModel{Timeline: tl, Height: 15}
}

func (m TimelineModel) Init() tea.Cmd {
	return nil
}

func (m TimelineModel) trials() int {
	if len(m.Timeline.Blocks) == 0 {
		return 0
	}
	return m.Timeline.Blocks[m.Block].Trials()
}

func (m TimelineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
			if m.Cursor < m.Offset {
				m.Offset = m.Cursor
			}
		}
	case "down", "j":
		if m.Cursor < m.trials()-1 {
			m.Cursor++
			if m.Cursor >= m.Offset+m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		}
	case "left", "h":
		if m.Block > 0 {
			m.Block--
			m.Cursor, m.Offset = 0, 0
		}
	case "right", "l":
		if m.Block < len(m.Timeline.Blocks)-1 {
			m.Block++
			m.Cursor, m.Offset = 0, 0
		}
	case "enter":
		if m.trials() == 0 {
			return m, nil
		}
		m.Selected = &TrialSelection{Block: m.Block, Trial: m.Cursor}
		return m, tea.Quit
	}
	return m, nil
}

func (m TimelineModel) View() string {
	if len(m.Timeline.Blocks) == 0 {
		return listDimStyle.Render("  empty timeline") + "\n"
	}
	block := m.Timeline.Blocks[m.Block]

	var b strings.Builder
	b.WriteString(StyleTitle.Render(fmt.Sprintf("Block %d/%d", m.Block+1, len(m.Timeline.Blocks))))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render("attend " + block.Attended))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, block.Trials())
	rows := make([][]string, 0, end-m.Offset)
	for t := m.Offset; t < end; t++ {
		cursor := "  "
		if t == m.Cursor {
			cursor = "> "
		}
		bars, _ := block.Trial(t)
		row := []string{cursor, strconv.Itoa(t)}
		for _, bar := range bars {
			row = append(row, formatBar(bar))
		}
		rows = append(rows, row)
	}

	headers := append([]string{"", "Trial"}, block.Conditions()...)
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col == 2 {
				// attended condition
				return StyleValue
			}
			return listDimStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  ↑/↓ trial  ←/→ block  enter render  q quit", m.Cursor+1, block.Trials())))
	return b.String()
}

// formatBar renders a bar as its direction and midpoint offset.
func formatBar(bar geom.Bar) string {
	if !bar.Active() {
		return "-"
	}
	if bar.Direction == geom.Horizontal {
		return fmt.Sprintf("H %+.0f", bar.Midpoint.Y)
	}
	return fmt.Sprintf("V %+.0f", bar.Midpoint.X)
}
