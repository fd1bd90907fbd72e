package main

import (
	"context"
	"fmt"
	"log"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/OriginalDaemon/datalens/dashboard"
)

type reportLoadedMsg struct {
	id      int
	attempt int
	report  *dashboard.Report
	err     error
}

// reportModel is the detailed report of one dataset. It loads everything
// itself, so it works the same inside the dashboard and as `report <id>`.
type reportModel struct {
	ctx     context.Context
	cancel  context.CancelFunc
	api     dashboard.ReportAPI
	id      int
	attempt int

	spinner spinner.Model
	loading bool
	report  *dashboard.Report
	err     error
}

func newReportModel(ctx context.Context, api dashboard.ReportAPI, id int) reportModel {
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = lipgloss.NewStyle().Foreground(accentSecondary)

	ctx, cancel := context.WithCancel(ctx)
	return reportModel{
		ctx:     ctx,
		cancel:  cancel,
		api:     api,
		id:      id,
		spinner: spin,
	}
}

func (r *reportModel) Init() tea.Cmd {
	return tea.Batch(r.spinner.Tick, r.load())
}

func (r *reportModel) load() tea.Cmd {
	r.attempt++
	r.loading = true
	r.err = nil

	ctx, api, id, attempt := r.ctx, r.api, r.id, r.attempt
	return func() tea.Msg {
		report, err := dashboard.LoadReport(ctx, api, id, nil)
		return reportLoadedMsg{id: id, attempt: attempt, report: report, err: err}
	}
}

// close abandons an in-flight load
func (r *reportModel) close() {
	if r.cancel != nil {
		r.cancel()
	}
}

// update handles one message. back reports that the user asked to leave.
func (r *reportModel) update(msg tea.Msg) (cmd tea.Cmd, back bool) {
	switch msg := msg.(type) {
	case reportLoadedMsg:
		if msg.id != r.id || msg.attempt != r.attempt {
			return nil, false
		}
		r.loading = false
		r.report = msg.report
		r.err = msg.err
		if msg.err != nil {
			log.Printf("ERROR: report %d: %v", r.id, msg.err)
		}

	case spinner.TickMsg:
		if !r.loading {
			return nil, false
		}
		r.spinner, cmd = r.spinner.Update(msg)
		return cmd, false

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "b":
			r.close()
			return nil, true
		case "r":
			if !r.loading && r.err != nil {
				return tea.Batch(r.spinner.Tick, r.load()), false
			}
		}
	}
	return nil, false
}

func (r *reportModel) View() string {
	switch {
	case r.loading:
		return fmt.Sprintf("%s Loading report for dataset %d...", r.spinner.View(), r.id)
	case r.err != nil:
		return errorStyle.Render(dashboard.ReportUnavailableMessage) + "\n" +
			helpStyle.Render("r: retry • esc: back")
	case r.report == nil:
		return ""
	default:
		return renderReport(r.report) + "\n" + helpStyle.Render("esc: back • q: quit")
	}
}

// reportApp runs a report as its own program
type reportApp struct {
	report *reportModel
}

func newReportApp(ctx context.Context, api dashboard.ReportAPI, id int) reportApp {
	r := newReportModel(ctx, api, id)
	return reportApp{report: &r}
}

func (a reportApp) Init() tea.Cmd {
	return a.report.Init()
}

func (a reportApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && (key.String() == "q" || key.String() == "ctrl+c") {
		a.report.close()
		return a, tea.Quit
	}
	cmd, back := a.report.update(msg)
	if back {
		return a, tea.Quit
	}
	return a, cmd
}

func (a reportApp) View() string {
	return a.report.View()
}
