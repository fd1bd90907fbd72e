package dashboard

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/OriginalDaemon/datalens/client"
)

// fakeAPI is an in-memory analytics API. Calls named in gates block until
// the gate is closed or the request context ends.
type fakeAPI struct {
	mu sync.Mutex

	datasets  []client.Dataset
	listErr   error
	deleteErr error
	uploadErr error
	uploaded  *client.Dataset

	summaries  map[int]*client.Summary
	summaryErr map[int]error
	charts     map[int]*client.ChartData
	chartErr   map[int]error

	gates map[string]chan struct{}
	calls []string
}

func newFakeAPI(ids ...int) *fakeAPI {
	api := &fakeAPI{
		summaries:  make(map[int]*client.Summary),
		summaryErr: make(map[int]error),
		charts:     make(map[int]*client.ChartData),
		chartErr:   make(map[int]error),
		gates:      make(map[string]chan struct{}),
	}
	for _, id := range ids {
		api.datasets = append(api.datasets, client.Dataset{
			ID:       id,
			Name:     fmt.Sprintf("set%d", id),
			Filename: fmt.Sprintf("set%d.csv", id),
		})
		api.summaries[id] = &client.Summary{TotalRecords: id * 10, TotalValue: float64(id) * 100, CategoryCount: id}
		api.charts[id] = &client.ChartData{BarChart: []client.CategoryValue{{Category: fmt.Sprintf("c%d", id), Value: float64(id)}}}
	}
	return api
}

func (f *fakeAPI) gate(name string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[name] = ch
	return ch
}

func (f *fakeAPI) enter(ctx context.Context, name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	gate := f.gates[name]
	f.mu.Unlock()

	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return &client.NetworkError{Op: name, Err: ctx.Err()}
	}
}

func (f *fakeAPI) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeAPI) setDatasets(ids ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.datasets = nil
	for _, id := range ids {
		f.datasets = append(f.datasets, client.Dataset{ID: id, Name: fmt.Sprintf("set%d", id), Filename: fmt.Sprintf("set%d.csv", id)})
	}
}

func (f *fakeAPI) ListDatasets(ctx context.Context) ([]client.Dataset, error) {
	if err := f.enter(ctx, "list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]client.Dataset, len(f.datasets))
	copy(out, f.datasets)
	return out, nil
}

func (f *fakeAPI) DeleteDataset(ctx context.Context, id int) error {
	if err := f.enter(ctx, fmt.Sprintf("delete:%d", id)); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, d := range f.datasets {
		if d.ID == id {
			f.datasets = append(f.datasets[:i], f.datasets[i+1:]...)
			return nil
		}
	}
	return &client.NotFoundError{Op: "delete dataset"}
}

func (f *fakeAPI) UploadDatasetWithDescription(ctx context.Context, file client.UploadFile, name, description string) (*client.Dataset, error) {
	if err := f.enter(ctx, "upload:"+name); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	d := *f.uploaded
	f.datasets = append(f.datasets, d)
	return &d, nil
}

func (f *fakeAPI) GetSummary(ctx context.Context, id int) (*client.Summary, error) {
	if err := f.enter(ctx, fmt.Sprintf("summary:%d", id)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.summaryErr[id]; err != nil {
		return nil, err
	}
	return f.summaries[id], nil
}

func (f *fakeAPI) GetChartData(ctx context.Context, id int) (*client.ChartData, error) {
	if err := f.enter(ctx, fmt.Sprintf("chart:%d", id)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.chartErr[id]; err != nil {
		return nil, err
	}
	return f.charts[id], nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// run executes commands synchronously and returns their results in order
func run(cmds []Cmd) []Msg {
	var msgs []Msg
	for _, cmd := range cmds {
		msgs = append(msgs, cmd(context.Background()))
	}
	return msgs
}

// deliver applies messages and returns every command they started
func deliver(m *Model, msgs ...Msg) []Cmd {
	var cmds []Cmd
	for _, msg := range msgs {
		cmds = append(cmds, m.Update(msg)...)
	}
	return cmds
}

// settle runs commands and applies their results until nothing is left
func settle(m *Model, cmds []Cmd) {
	for len(cmds) > 0 {
		cmds = deliver(m, run(cmds)...)
	}
}
