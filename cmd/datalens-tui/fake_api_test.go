package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/OriginalDaemon/datalens/client"
)

// fakeAPI serves datasets 1..n, each with a summary and chart data
type fakeAPI struct {
	mu sync.Mutex

	datasets   []client.Dataset
	nextID     int
	summaryErr error
	uploadErr  error
	calls      []string
}

func newFakeAPI(ids ...int) *fakeAPI {
	api := &fakeAPI{nextID: 100}
	for _, id := range ids {
		api.datasets = append(api.datasets, client.Dataset{
			ID:       id,
			Name:     fmt.Sprintf("set%d", id),
			Filename: fmt.Sprintf("set%d.csv", id),
		})
	}
	return api
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeAPI) ListDatasets(ctx context.Context) ([]client.Dataset, error) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.Dataset(nil), f.datasets...), nil
}

func (f *fakeAPI) DeleteDataset(ctx context.Context, id int) error {
	f.record(fmt.Sprintf("delete:%d", id))
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, d := range f.datasets {
		if d.ID == id {
			f.datasets = append(f.datasets[:i], f.datasets[i+1:]...)
			return nil
		}
	}
	return &client.NotFoundError{Op: "delete dataset"}
}

func (f *fakeAPI) UploadDatasetWithDescription(ctx context.Context, file client.UploadFile, name, description string) (*client.Dataset, error) {
	f.record("upload:" + name)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	d := client.Dataset{ID: f.nextID, Name: name, Filename: file.Filename, Description: description}
	f.nextID++
	f.datasets = append(f.datasets, d)
	return &d, nil
}

func (f *fakeAPI) GetSummary(ctx context.Context, id int) (*client.Summary, error) {
	f.record(fmt.Sprintf("summary:%d", id))
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return &client.Summary{
		TotalRecords:  id * 10,
		TotalValue:    float64(id) * 1000,
		CategoryCount: id,
		AvgValue:      100,
		MinValue:      1,
		MaxValue:      250,
	}, nil
}

func (f *fakeAPI) GetChartData(ctx context.Context, id int) (*client.ChartData, error) {
	f.record(fmt.Sprintf("chart:%d", id))
	return &client.ChartData{
		BarChart:  []client.CategoryValue{{Category: "north", Value: 30}, {Category: "south", Value: 10}},
		PieChart:  []client.CategoryValue{{Category: "north", Value: 75}, {Category: "south", Value: 25}},
		LineChart: []client.DateValue{{Date: "2024-01-01", Value: 1}, {Date: "2024-01-02", Value: 5}},
	}, nil
}

var errBackend = errors.New("backend unavailable")

func newTestApp(api *fakeAPI) appModel {
	m := newAppModel(context.Background(), api)
	m.input.Cursor.SetMode(cursor.CursorStatic)
	return m
}

// drain runs cmd and every command it leads to, feeding the dashboard and
// report results back into the app. Spinner ticks, cursor blinks and quit
// are dropped.
func drain(m appModel, cmd tea.Cmd) appModel {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case dashMsg, reportLoadedMsg:
			next, cmd := m.Update(msg)
			m = next.(appModel)
			queue = append(queue, cmd)
		}
	}
	return m
}

func press(m appModel, keys ...string) appModel {
	for _, k := range keys {
		next, cmd := m.Update(keyMsg(k))
		m = drain(next.(appModel), cmd)
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func mounted(api *fakeAPI) appModel {
	m := newTestApp(api)
	return drain(m, m.Init())
}
