package dashboard

import (
	"context"

	"github.com/OriginalDaemon/datalens/client"
)

// Phase is the state of the analytics fetch for the current selection
type Phase int

const (
	// Idle means no dataset is selected
	Idle Phase = iota
	// Loading means at least one of summary and chart data is pending
	Loading
	// Ready means both have settled, successfully or not
	Ready
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Snapshot is the analytics of one dataset selection. A new selection
// replaces it entirely.
type Snapshot struct {
	DatasetID      int
	Summary        *client.Summary
	ChartData      *client.ChartData
	SummaryErr     error
	ChartErr       error
	SummaryPending bool
	ChartPending   bool
}

// Phase derives the coordinator state from the snapshot
func (s Snapshot) Phase() Phase {
	switch {
	case s.DatasetID == 0:
		return Idle
	case s.SummaryPending || s.ChartPending:
		return Loading
	default:
		return Ready
	}
}

// beginEpoch invalidates every outstanding analytics request and, if a
// dataset is selected, issues its summary and chart-data fetches.
func (m *Model) beginEpoch() []Cmd {
	m.epoch++
	if m.epochDone != nil {
		close(m.epochDone)
		m.epochDone = nil
	}

	id, ok := m.registry.Selected()
	if !ok {
		m.analytics = Snapshot{}
		return nil
	}

	done := make(chan struct{})
	m.epochDone = done
	m.analytics = Snapshot{DatasetID: id, SummaryPending: true, ChartPending: true}

	return []Cmd{
		fetchSummary(m.api, m.epoch, id, done),
		fetchChartData(m.api, m.epoch, id, done),
	}
}

func (m *Model) applySummary(msg summaryLoaded) {
	if msg.epoch != m.epoch {
		m.logf("dashboard: discarding stale summary for dataset %d (epoch %d, current %d)", msg.datasetID, msg.epoch, m.epoch)
		return
	}
	m.analytics.SummaryPending = false
	m.analytics.Summary = msg.summary
	m.analytics.SummaryErr = msg.err
	if msg.err != nil {
		m.logf("ERROR: summary for dataset %d failed: %v", msg.datasetID, msg.err)
	}
}

func (m *Model) applyChartData(msg chartDataLoaded) {
	if msg.epoch != m.epoch {
		m.logf("dashboard: discarding stale chart data for dataset %d (epoch %d, current %d)", msg.datasetID, msg.epoch, m.epoch)
		return
	}
	m.analytics.ChartPending = false
	m.analytics.ChartData = msg.data
	m.analytics.ChartErr = msg.err
	if msg.err != nil {
		m.logf("ERROR: chart data for dataset %d failed: %v", msg.datasetID, msg.err)
	}
}

func fetchSummary(api API, epoch uint64, id int, done <-chan struct{}) Cmd {
	return func(ctx context.Context) Msg {
		ctx, cancel := epochContext(ctx, done)
		defer cancel()

		summary, err := api.GetSummary(ctx, id)
		return summaryLoaded{epoch: epoch, datasetID: id, summary: summary, err: err}
	}
}

func fetchChartData(api API, epoch uint64, id int, done <-chan struct{}) Cmd {
	return func(ctx context.Context) Msg {
		ctx, cancel := epochContext(ctx, done)
		defer cancel()

		data, err := api.GetChartData(ctx, id)
		return chartDataLoaded{epoch: epoch, datasetID: id, data: data, err: err}
	}
}

// epochContext is cancelled when the epoch ends. This only saves network
// work; stale results are discarded by their epoch stamp either way.
func epochContext(parent context.Context, done <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if done == nil {
		return ctx, cancel
	}
	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
