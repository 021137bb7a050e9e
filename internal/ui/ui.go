package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/sarcompare/internal/compare"
	"github.com/Dicklesworthstone/sarcompare/internal/model"
	"github.com/Dicklesworthstone/sarcompare/internal/stats"
)

// Model browses a comparison report.
type Model struct {
	report compare.Report
	cursor int
	focus  int
	width  int
	height int
}

func New(report compare.Report) *Model {
	return &Model{
		report: report,
		width:  120,
		height: 40,
	}
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.report.Metrics)-1 {
				m.cursor++
			}
		case "tab", "right", "l":
			if n := len(m.report.Labels); n > 0 {
				m.focus = (m.focus + 1) % n
			}
		case "shift+tab", "left", "h":
			if n := len(m.report.Labels); n > 0 {
				m.focus = (m.focus + n - 1) % n
			}
		}
	}
	return m, nil
}

// Styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	leaderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	gaugeFill     = "█"
	gaugeEmpty    = "░"
	cardStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	r := m.report
	if len(r.Metrics) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			header(r),
			subtleStyle.Render("no metric is available for every label"),
			subtleStyle.Render("q quit"))
	}

	var rows []string
	for i, row := range r.Metrics {
		line := fmt.Sprintf("%-10s %-26s", row.Section, truncate(row.Title, 26))
		for _, v := range row.Values {
			line += fmt.Sprintf(" %12s", value(v.Summary.Mean))
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		rows = append(rows, line)
	}

	head := fmt.Sprintf("%-10s %-26s", "section", "metric")
	for _, l := range r.Labels {
		head += fmt.Sprintf(" %12s", truncate(l, 12))
	}
	list := card("Metrics (mean)", subtleStyle.Render(head)+"\n"+strings.Join(rows, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left,
		header(r),
		lipgloss.JoinHorizontal(lipgloss.Top, list, m.detail()),
		subtleStyle.Render("↑/↓ metric  tab/←/→ label  q quit"))
}

func (m *Model) detail() string {
	row := m.report.Metrics[m.cursor]
	if m.focus >= len(row.Values) {
		return card(row.Title, subtleStyle.Render("no data"))
	}
	v := row.Values[m.focus]
	s := v.Summary

	var b strings.Builder
	fmt.Fprintf(&b, "%s  column %s\n", labelStyle.Render(v.Label), v.Column)
	fmt.Fprintf(&b, "samples %d\n", s.N)
	fmt.Fprintf(&b, "mean    %s\n", withUnit(s.Mean, row.Unit))
	fmt.Fprintf(&b, "median  %s\n", withUnit(s.Median, row.Unit))
	fmt.Fprintf(&b, "std     %s\n", value(s.Std))
	fmt.Fprintf(&b, "min     %s\n", withUnit(s.Min, row.Unit))
	fmt.Fprintf(&b, "max     %s\n", withUnit(s.Max, row.Unit))
	fmt.Fprintf(&b, "cv      %s\n", cv(s.CV))
	b.WriteString(v.Recommendation.Describe())
	if row.Percent {
		b.WriteString("\n" + gaugeBar(s.Mean, 24))
	}
	if row.Leader != "" {
		b.WriteString("\n" + leaderStyle.Render(fmt.Sprintf("%s leads (%s)", row.Leader, row.Better)))
	}
	return card(row.Title, b.String())
}

// Render draws the report once, one card per section.
func Render(r compare.Report) string {
	if len(r.Metrics) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			header(r),
			subtleStyle.Render("no metric is available for every label"))
	}

	var cards []string
	for _, sec := range model.Sections() {
		var lines []string
		for _, row := range r.Metrics {
			if row.Section != sec {
				continue
			}
			lines = append(lines, metricLines(row)...)
		}
		if len(lines) > 0 {
			cards = append(cards, card(sec.String(), strings.Join(lines, "\n")))
		}
	}

	var grid []string
	for i := 0; i < len(cards); i += 2 {
		grid = append(grid, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:min(i+2, len(cards))]...))
	}

	out := []string{header(r)}
	out = append(out, grid...)
	if len(r.Skipped) > 0 {
		out = append(out, subtleStyle.Render("not available: "+strings.Join(r.Skipped, ", ")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

func metricLines(row compare.Metric) []string {
	lines := []string{labelStyle.Render(row.Title)}
	for _, v := range row.Values {
		s := v.Summary
		if row.Percent {
			lines = append(lines, fmt.Sprintf("  %-6s %s", truncate(v.Label, 6), gaugeBar(s.Mean, 20)))
		}
		lines = append(lines, fmt.Sprintf("  %-6s mean %s  max %s  min %s",
			truncate(v.Label, 6), value(s.Mean), value(s.Max), value(s.Min)))
	}
	if len(row.Values) >= 2 {
		diff := fmt.Sprintf("  mean diff %s", value(row.MeanDiff))
		if row.Leader != "" {
			diff += "  " + leaderStyle.Render(row.Leader+" leads, "+row.Better.String())
		}
		lines = append(lines, diff)
	}
	return lines
}

// RenderVariation lists mean, median, std and CV of every metric with the
// recommended central value, one card per single-label report.
func RenderVariation(reports []compare.Report) string {
	var out []string
	for _, r := range reports {
		var b strings.Builder
		for _, row := range r.Metrics {
			for _, v := range row.Values {
				s := v.Summary
				fmt.Fprintf(&b, "%-12s: mean=%s | median=%s | std=%s | CV=%s\n",
					row.Name, value(s.Mean), value(s.Median), value(s.Std), cv(s.CV))
				fmt.Fprintf(&b, "   %s\n", v.Recommendation.Describe())
			}
		}
		for _, name := range r.Skipped {
			fmt.Fprintf(&b, "%-12s: (column not found)\n", name)
		}
		out = append(out, card("=== "+strings.Join(r.Labels, ", ")+" ===", strings.TrimRight(b.String(), "\n")))
	}

	legend := subtleStyle.Render(fmt.Sprintf(
		"CV <= %.2f  mean represents the series (low variation)\nCV >  %.2f  median is more reliable (spikes)",
		stats.LowVariation, stats.HighVariation))
	out = append(out, legend)
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

// RenderDatasets lists the datasets of a store with their row counts and
// columns.
func RenderDatasets(store *model.Store) string {
	keys := store.Keys()
	if len(keys) == 0 {
		return subtleStyle.Render("no datasets")
	}
	var b strings.Builder
	for _, k := range keys {
		ds, ok := store.Get(k)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%-16s %5d rows  %s\n", k, ds.Len(), strings.Join(ds.Columns, " "))
	}
	return card("Datasets", strings.TrimRight(b.String(), "\n"))
}

func header(r compare.Report) string {
	return titleStyle.Render("sar comparison") + "  " +
		subtleStyle.Render(strings.Join(r.Labels, " vs ")+"  datasets: "+strings.Join(r.Datasets, " "))
}

// Helpers
func gaugeBar(pct float64, width int) string {
	if math.IsNaN(pct) || pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func card(title, body string) string {
	titleStr := labelStyle.Render(title)
	content := titleStr + "\n" + body
	return cardStyle.Render(content)
}

func value(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

func withUnit(v float64, unit string) string {
	if unit == "" || math.IsNaN(v) {
		return value(v)
	}
	return value(v) + " " + unit
}

func cv(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RunTUI starts the Bubble Tea program.
func RunTUI(r compare.Report) error {
	prog := tea.NewProgram(New(r), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
