// internal/tui/view.go
// Package tui renders a saved report in an interactive terminal view.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mwiater/cyclebench/internal/report"
)

var (
	frameStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	detailStyle = lipgloss.NewStyle().Padding(0, 1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// tableWidth fits every column plus cell padding.
const tableWidth = 96

type model struct {
	report *report.Report
	table  table.Model
	detail bool
	width  int
	height int
}

func newModel(r *report.Report) *model {
	columns := []table.Column{
		{Title: "Operation", Width: 14},
		{Title: "Count", Width: 8},
		{Title: "Min", Width: 12},
		{Title: "Mean", Width: 14},
		{Title: "Max", Width: 12},
		{Title: "StdDev", Width: 12},
		{Title: "Failures", Width: 9},
	}
	rows := make([]table.Row, 0, len(r.Operations))
	for _, op := range r.Operations {
		rows = append(rows, operationRow(op))
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)+1),
		table.WithWidth(tableWidth),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).BorderBottom(true).Bold(false)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Bold(false)
	t.SetStyles(s)

	return &model{report: r, table: t}
}

func operationRow(op report.Operation) table.Row {
	if op.Empty {
		return table.Row{op.Name, "0", "-", "-", "-", "-", fmt.Sprint(op.Failures)}
	}
	return table.Row{
		op.Name,
		humanize.Comma(int64(op.Count)),
		humanize.Comma(int64(op.Min)),
		humanize.CommafWithDigits(op.Mean, 1),
		humanize.Comma(int64(op.Max)),
		humanize.CommafWithDigits(op.StdDev, 1),
		fmt.Sprint(op.Failures),
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			m.detail = !m.detail
			return m, nil
		case "esc":
			m.detail = false
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetWidth(min(msg.Width-2, tableWidth))
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	r := m.report
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s  %s (%s)", r.Tool, r.Version, r.Variant, r.Primitive)))
	b.WriteString("\n")
	b.WriteString(renderBadge(r.Counter.Name, counterColor(r.Counter.Native)))
	b.WriteString(renderBadge(matchLabel(r.SecretsMatch), statusColor(r.SecretsMatch)))
	if r.Degraded {
		b.WriteString(renderBadge("degraded", "196"))
	}
	b.WriteString("\n\n")
	b.WriteString(frameStyle.Render(m.table.View()))
	b.WriteString("\n")

	if m.detail {
		b.WriteString(detailStyle.Render(m.detailView()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ select • enter details • q quit"))
	return b.String()
}

func (m *model) detailView() string {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.report.Operations) {
		return ""
	}
	op := m.report.Operations[idx]
	lines := []string{
		fmt.Sprintf("%s (%s)", op.Name, op.Label),
		fmt.Sprintf("attempts %d, failures %d", op.Attempts, op.Failures),
		fmt.Sprintf("p50 %s  p90 %s  p99 %s",
			humanize.CommafWithDigits(op.P50, 0), humanize.CommafWithDigits(op.P90, 0), humanize.CommafWithDigits(op.P99, 0)),
		fmt.Sprintf("overhead %d ticks over %d calibration trials", m.report.Overhead, m.report.CalibrationTrials),
	}
	for _, e := range op.Errors {
		lines = append(lines, "error: "+e)
	}
	if m.report.Counter.Warning != "" {
		lines = append(lines, "warning: "+m.report.Counter.Warning)
	}
	return strings.Join(lines, "\n")
}

func renderBadge(label, bg string) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(bg)).Foreground(lipgloss.Color("0")).Padding(0, 1).MarginRight(1).Render(label)
}

func counterColor(native bool) string {
	if native {
		return "255"
	}
	return "229"
}

func statusColor(ok bool) string {
	if ok {
		return "46"
	}
	return "196"
}

func matchLabel(ok bool) string {
	if ok {
		return "secrets match"
	}
	return "SECRETS DIFFER"
}

// Run opens the interactive view of r and blocks until the user quits.
func Run(r *report.Report) error {
	p := tea.NewProgram(newModel(r), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
