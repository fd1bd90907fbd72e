package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/OriginalDaemon/datalens/client"
	"github.com/OriginalDaemon/datalens/dashboard"
)

var (
	accentPrimary   = lipgloss.Color("#38BDF8")
	accentSecondary = lipgloss.Color("#F6AE2D")
	mutedText       = lipgloss.Color("#94A3B8")
	warningText     = lipgloss.Color("#F87171")
	panelBorder     = lipgloss.Color("#334155")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentPrimary).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedText)

	errorStyle = lipgloss.NewStyle().
			Foreground(warningText).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(accentSecondary).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(panelBorder).
			Padding(0, 1)

	cardTitleStyle = lipgloss.NewStyle().Foreground(mutedText)
	cardValueStyle = lipgloss.NewStyle().Bold(true)

	helpStyle = lipgloss.NewStyle().Foreground(mutedText)
)

const (
	barChar    = "█"
	sparkChars = "▁▂▃▄▅▆▇█"
	maxBarLen  = 40
)

// renderMetrics lays the metric cards out side by side
func renderMetrics(metrics []dashboard.Metric) string {
	cards := make([]string, len(metrics))
	for i, m := range metrics {
		cards[i] = panelStyle.Render(cardTitleStyle.Render(m.Title) + "\n" + cardValueStyle.Render(m.Value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func labelWidth(values []client.CategoryValue) int {
	w := 0
	for _, v := range values {
		w = max(w, lipgloss.Width(v.Category))
	}
	return min(w, 20)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// renderBars draws a horizontal bar per category, scaled to the largest
func renderBars(values []client.CategoryValue) string {
	if len(values) == 0 {
		return mutedStyle.Render("No data to chart")
	}
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v.Value)
	}

	lw := labelWidth(values)
	var b strings.Builder
	for _, v := range values {
		n := 0
		if peak > 0 && v.Value > 0 {
			n = int(math.Round(v.Value / peak * maxBarLen))
		}
		fmt.Fprintf(&b, "%-*s %s %s\n", lw, truncate(v.Category, lw), strings.Repeat(barChar, n), dashboard.FormatNumber(v.Value))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderShares lists each category's share of the positive total
func renderShares(values []client.CategoryValue) string {
	total := 0.0
	for _, v := range values {
		if v.Value > 0 {
			total += v.Value
		}
	}
	if total == 0 {
		return mutedStyle.Render("No data to chart")
	}

	lw := labelWidth(values)
	var b strings.Builder
	for _, v := range values {
		if v.Value <= 0 {
			continue
		}
		fmt.Fprintf(&b, "%-*s %5.1f%%\n", lw, truncate(v.Category, lw), v.Value/total*100)
	}
	return strings.TrimRight(b.String(), "\n")
}

// sparkline draws the time series as one character per point
func sparkline(points []client.DateValue) string {
	if len(points) < 2 {
		return mutedStyle.Render("Not enough data for a trend")
	}
	lo, hi := points[0].Value, points[0].Value
	for _, p := range points {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}

	levels := []rune(sparkChars)
	var b strings.Builder
	for _, p := range points {
		i := 0
		if hi > lo {
			i = int((p.Value - lo) / (hi - lo) * float64(len(levels)-1))
		}
		b.WriteRune(levels[i])
	}
	return fmt.Sprintf("%s  %s → %s", b.String(), points[0].Date, points[len(points)-1].Date)
}

func renderRegistry(v dashboard.View, cursor int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Datasets") + "\n")

	switch {
	case !v.Loaded:
		b.WriteString(mutedStyle.Render("Loading datasets..."))
	case len(v.Datasets) == 0:
		b.WriteString(mutedStyle.Render("No datasets yet. Press u to upload a CSV file."))
	default:
		for i, d := range v.Datasets {
			line := fmt.Sprintf("  %s %s", d.Name, mutedStyle.Render(d.Filename))
			if d.ID == v.SelectedID {
				line = selectedStyle.Render("● "+d.Name) + " " + mutedStyle.Render(d.Filename)
			}
			if i == cursor {
				line = "> " + strings.TrimLeft(line, " ")
			}
			b.WriteString(line + "\n")
		}
	}
	if v.RegistryErr != nil {
		b.WriteString("\n" + errorStyle.Render("Could not update datasets: "+v.RegistryErr.Error()))
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderAnalytics(v dashboard.View, chart, spin string) string {
	var b strings.Builder

	title := "Dashboard"
	if v.Selected != nil {
		title = v.Selected.Name
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(renderMetrics(dashboard.Metrics(v.Analytics.Summary, len(v.Datasets))) + "\n")

	if v.Phase == dashboard.Idle {
		b.WriteString(mutedStyle.Render("Select a dataset to see its analytics."))
		return b.String()
	}

	s := v.Analytics
	switch {
	case s.SummaryPending:
		b.WriteString(spin + " Loading summary...\n")
	case s.SummaryErr != nil:
		b.WriteString(errorStyle.Render("Failed to load summary.") + "\n")
	default:
		var parts []string
		for _, m := range dashboard.MatrixStats(s.Summary) {
			parts = append(parts, mutedStyle.Render(m.Title)+" "+m.Value)
		}
		parts = append(parts, mutedStyle.Render("Density")+" "+dashboard.Density(s.Summary))
		b.WriteString(strings.Join(parts, "   ") + "\n")
	}

	switch {
	case s.ChartPending:
		b.WriteString(spin + " Loading chart...")
	case s.ChartErr != nil:
		b.WriteString(errorStyle.Render("Failed to load chart data."))
	case s.ChartData != nil:
		if chart == "pie" {
			b.WriteString(panelStyle.Render("Share\n" + renderShares(s.ChartData.PieChart)))
		} else {
			b.WriteString(panelStyle.Render("Distribution\n" + renderBars(s.ChartData.BarChart)))
		}
		b.WriteString("\n" + panelStyle.Render("Trend\n"+sparkline(s.ChartData.LineChart)))
	}
	return b.String()
}

func renderUpload(u dashboard.UploadState, input string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Upload Dataset") + "\n")
	b.WriteString(input + "\n")
	switch u.Phase {
	case dashboard.UploadUploading:
		b.WriteString(mutedStyle.Render("Uploading " + u.File.Filename + "..."))
	case dashboard.UploadFailed:
		b.WriteString(errorStyle.Render(u.Err) + "\n" + helpStyle.Render("enter: retry • esc: cancel"))
	default:
		if u.Err != "" {
			b.WriteString(errorStyle.Render(u.Err) + "\n")
		}
		b.WriteString(helpStyle.Render("enter: upload • esc: cancel"))
	}
	return panelStyle.Render(b.String())
}

func renderConfirm(d client.Dataset) string {
	return panelStyle.Render(fmt.Sprintf("Delete %s? This cannot be undone.\n%s",
		selectedStyle.Render(d.Filename), helpStyle.Render("y: delete • n: cancel")))
}

func renderReport(r *dashboard.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Name) + "\n")
	if r.Dataset != nil && r.Dataset.Description != "" {
		b.WriteString(mutedStyle.Render(r.Dataset.Description) + "\n")
	}

	s := &r.Summary
	b.WriteString(renderMetrics(dashboard.Metrics(s, 0)[:3]) + "\n")

	rows := []dashboard.Metric{
		{Title: "Average Value", Value: dashboard.FormatNumber(s.AvgValue)},
		{Title: "Min Value", Value: dashboard.FormatNumber(s.MinValue)},
		{Title: "Max Value", Value: dashboard.FormatNumber(s.MaxValue)},
	}
	if s.DateRange != nil {
		rows = append(rows, dashboard.Metric{Title: "Date Range", Value: s.DateRange.Min + " – " + s.DateRange.Max})
	}
	rows = append(rows, dashboard.MatrixStats(s)...)
	rows = append(rows, dashboard.Metric{Title: "Density", Value: dashboard.Density(s)})
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", mutedStyle.Width(16).Render(row.Title), row.Value)
	}

	b.WriteString(panelStyle.Render("Distribution\n"+renderBars(r.ChartData.BarChart)) + "\n")
	b.WriteString(panelStyle.Render("Share\n"+renderShares(r.ChartData.PieChart)) + "\n")
	b.WriteString(panelStyle.Render("Trend\n" + sparkline(r.ChartData.LineChart)))
	return b.String()
}
