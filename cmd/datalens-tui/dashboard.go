package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/OriginalDaemon/datalens/client"
	"github.com/OriginalDaemon/datalens/dashboard"
)

// dashMsg carries the result of a dashboard command back into the program
type dashMsg struct {
	msg dashboard.Msg
}

type mode int

const (
	browsing mode = iota
	confirmingDelete
	uploading
	reporting
)

// appModel is the terminal dashboard. All dataset and analytics state lives
// in the dashboard model; appModel only adds the cursor and dialogs.
type appModel struct {
	ctx  context.Context
	api  dashboard.API
	dash *dashboard.Model

	mode    mode
	cursor  int
	chart   string
	fileErr string

	input   textinput.Model
	spinner spinner.Model
	report  *reportModel

	width  int
	height int
}

func newAppModel(ctx context.Context, api dashboard.API) appModel {
	input := textinput.New()
	input.Placeholder = "path/to/data.csv"
	input.Prompt = "File: "
	input.CharLimit = 4096

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = lipgloss.NewStyle().Foreground(accentSecondary)

	return appModel{
		ctx:     ctx,
		api:     api,
		dash:    dashboard.NewModel(api, nil),
		chart:   "bar",
		input:   input,
		spinner: spin,
	}
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.lift(m.dash.Init()))
}

// lift turns dashboard commands into program commands bound to the
// program's context
func (m appModel) lift(cmds []dashboard.Cmd) tea.Cmd {
	if len(cmds) == 0 {
		return nil
	}
	ctx := m.ctx
	batch := make([]tea.Cmd, len(cmds))
	for i, c := range cmds {
		c := c
		batch[i] = func() tea.Msg {
			return dashMsg{msg: c(ctx)}
		}
	}
	return tea.Batch(batch...)
}

func (m appModel) dispatch(msg dashboard.Msg) tea.Cmd {
	return m.lift(m.dash.Update(msg))
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.report != nil {
			cmd, _ = m.report.update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case dashMsg:
		cmd := m.dispatch(msg.msg)
		m.syncCursor()
		if m.mode == uploading && !m.dash.View().Upload.Open {
			// the dialog closes itself once an upload succeeds
			m.leaveUpload()
		}
		return m, cmd

	case reportLoadedMsg:
		if m.report != nil {
			cmd, _ := m.report.update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.mode {
		case confirmingDelete:
			return m.updateConfirm(msg)
		case uploading:
			return m.updateUpload(msg)
		case reporting:
			return m.updateReport(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	if m.mode == uploading {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) quit() (tea.Model, tea.Cmd) {
	if m.report != nil {
		m.report.close()
	}
	m.dash.Close()
	return m, tea.Quit
}

func (m appModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.dash.View()

	switch msg.String() {
	case "q":
		return m.quit()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			return m, m.selectAtCursor(v)
		}
	case "down", "j":
		if m.cursor < len(v.Datasets)-1 {
			m.cursor++
			return m, m.selectAtCursor(v)
		}
	case "enter", "o":
		if v.SelectedID == 0 {
			return m, m.selectAtCursor(v)
		}
		r := newReportModel(m.ctx, m.api, v.SelectedID)
		m.report = &r
		m.mode = reporting
		return m, m.report.Init()
	case "r":
		return m, m.dispatch(dashboard.ReloadAnalytics{})
	case "R":
		return m, m.dispatch(dashboard.RefreshDatasets{})
	case "d":
		if v.Selected != nil {
			m.mode = confirmingDelete
		}
	case "u":
		m.mode = uploading
		m.fileErr = ""
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, tea.Batch(cmd, m.dispatch(dashboard.OpenUpload{}))
	case "c":
		if m.chart == "bar" {
			m.chart = "pie"
		} else {
			m.chart = "bar"
		}
	}
	return m, nil
}

func (m appModel) selectAtCursor(v dashboard.View) tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(v.Datasets) {
		return nil
	}
	return m.dispatch(dashboard.SelectDataset{ID: v.Datasets[m.cursor].ID})
}

// syncCursor follows the selection and keeps the cursor inside the list
func (m *appModel) syncCursor() {
	v := m.dash.View()
	for i, d := range v.Datasets {
		if d.ID == v.SelectedID {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(v.Datasets) {
		m.cursor = len(v.Datasets) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = browsing
		if v := m.dash.View(); v.SelectedID != 0 {
			return m, m.dispatch(dashboard.RemoveDataset{ID: v.SelectedID})
		}
	case "n", "N", "esc":
		m.mode = browsing
	}
	return m, nil
}

func (m appModel) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		cmd := m.dispatch(dashboard.CloseUpload{})
		m.leaveUpload()
		return m, cmd
	case "enter":
		return m, m.submitUpload()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitUpload chooses the typed file and uploads it. Pressing enter again
// after a failure retries with the same file.
func (m *appModel) submitUpload() tea.Cmd {
	if m.dash.View().Upload.Phase == dashboard.UploadUploading {
		return nil
	}
	m.fileErr = ""

	path := strings.TrimSpace(m.input.Value())
	if path == "" {
		m.fileErr = "Enter the path of a CSV file."
		return nil
	}
	file, err := client.FileFromPath(path)
	if err != nil {
		m.fileErr = err.Error()
		return nil
	}

	cmds := m.dash.Update(dashboard.ChooseFile{File: file})
	if u := m.dash.View().Upload; u.Err == "" && u.CanSubmit() {
		cmds = append(cmds, m.dash.Update(dashboard.SubmitUpload{})...)
	}
	return m.lift(cmds)
}

func (m *appModel) leaveUpload() {
	m.mode = browsing
	m.fileErr = ""
	m.input.Blur()
	m.input.SetValue("")
}

func (m appModel) updateReport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "q" {
		return m.quit()
	}
	cmd, back := m.report.update(msg)
	if back {
		m.report = nil
		m.mode = browsing
	}
	return m, cmd
}

func (m appModel) View() string {
	if m.mode == reporting && m.report != nil {
		return m.report.View()
	}

	v := m.dash.View()
	spin := m.spinner.View()

	header := titleStyle.Render("datalens") + mutedStyle.Render(" analytics dashboard")
	if !v.Settled() {
		header += " " + spin
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		renderRegistry(v, m.cursor),
		" ",
		renderAnalytics(v, m.chart, spin),
	)

	sections := []string{header, body}
	switch m.mode {
	case confirmingDelete:
		if v.Selected != nil {
			sections = append(sections, renderConfirm(*v.Selected))
		}
	case uploading:
		u := v.Upload
		if m.fileErr != "" {
			u.Err = m.fileErr
		}
		sections = append(sections, renderUpload(u, m.input.View()))
	}
	sections = append(sections, helpStyle.Render(
		"↑/↓: select • enter: report • r: reload • R: refresh • c: bar/pie • u: upload • d: delete • q: quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
