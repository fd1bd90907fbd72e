package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/OriginalDaemon/datalens/client"
)

func mounted(t *testing.T, api *fakeAPI) *Model {
	t.Helper()
	m := NewModel(api, quietLogger())
	settle(m, m.Init())
	return m
}

func TestMountSelectsFirstDataset(t *testing.T) {
	api := newFakeAPI(9, 4, 6)
	m := mounted(t, api)

	v := m.View()
	if !v.Loaded {
		t.Error("Expected registry to be loaded")
	}
	if v.SelectedID != 9 {
		t.Errorf("Expected first dataset in server order (9) selected, got %d", v.SelectedID)
	}
	if v.Phase != Ready {
		t.Errorf("Expected ready, got %s", v.Phase)
	}
	if v.Analytics.Summary == nil || v.Analytics.Summary.TotalRecords != 90 {
		t.Errorf("Expected summary of dataset 9, got %+v", v.Analytics.Summary)
	}
}

func TestMountEmptyListIsIdle(t *testing.T) {
	m := mounted(t, newFakeAPI())

	v := m.View()
	if v.SelectedID != 0 || v.Selected != nil {
		t.Errorf("Expected no selection, got %d", v.SelectedID)
	}
	if v.Phase != Idle {
		t.Errorf("Expected idle, got %s", v.Phase)
	}
}

func TestEpochIssuesBothFetches(t *testing.T) {
	api := newFakeAPI(1)
	m := NewModel(api, quietLogger())

	cmds := deliver(m, run(m.Init())...)
	if len(cmds) != 2 {
		t.Fatalf("Expected summary and chart fetches, got %d commands", len(cmds))
	}
	if m.View().Phase != Loading {
		t.Errorf("Expected loading, got %s", m.View().Phase)
	}

	msgs := run(cmds)
	m.Update(msgs[0])
	v := m.View()
	if v.Phase != Loading {
		t.Errorf("Expected loading with one slot pending, got %s", v.Phase)
	}
	if v.Analytics.Summary == nil || !v.Analytics.ChartPending {
		t.Errorf("Expected summary settled and chart pending, got %+v", v.Analytics)
	}

	m.Update(msgs[1])
	if m.View().Phase != Ready {
		t.Errorf("Expected ready, got %s", m.View().Phase)
	}
}

// Responses for A arriving after B was selected must never show.
func TestNoStaleOverwrite(t *testing.T) {
	orders := map[string]func(a, b []Msg) []Msg{
		"a before b": func(a, b []Msg) []Msg { return append(append([]Msg{}, a...), b...) },
		"b before a": func(a, b []Msg) []Msg { return append(append([]Msg{}, b...), a...) },
		"interleaved": func(a, b []Msg) []Msg {
			return []Msg{b[0], a[0], a[1], b[1]}
		},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			api := newFakeAPI(1, 3, 5)
			m := mounted(t, api)

			cmdsA := m.Update(SelectDataset{ID: 3})
			cmdsB := m.Update(SelectDataset{ID: 5})

			msgsA := run(cmdsA)
			msgsB := run(cmdsB)
			deliver(m, order(msgsA, msgsB)...)

			v := m.View()
			if v.Analytics.DatasetID != 5 {
				t.Fatalf("Expected snapshot for dataset 5, got %d", v.Analytics.DatasetID)
			}
			if v.Analytics.Summary == nil || v.Analytics.Summary.TotalRecords != 50 {
				t.Errorf("Expected summary of dataset 5, got %+v", v.Analytics.Summary)
			}
			if v.Analytics.ChartData == nil || v.Analytics.ChartData.BarChart[0].Category != "c5" {
				t.Errorf("Expected chart data of dataset 5, got %+v", v.Analytics.ChartData)
			}
			if v.Phase != Ready {
				t.Errorf("Expected ready, got %s", v.Phase)
			}
		})
	}
}

func TestSelectThreeThenFiveSummaryRace(t *testing.T) {
	api := newFakeAPI(1, 3, 5)
	m := mounted(t, api)

	cmds3 := m.Update(SelectDataset{ID: 3})
	cmds5 := m.Update(SelectDataset{ID: 5})

	summary3 := cmds3[0]
	summary5 := cmds5[0]

	// summary(5) lands first, summary(3) later
	m.Update(summary5(context.Background()))
	m.Update(summary3(context.Background()))

	v := m.View()
	if v.Analytics.Summary == nil || v.Analytics.Summary.TotalRecords != 50 {
		t.Errorf("Expected summary(5) displayed, got %+v", v.Analytics.Summary)
	}
	if !v.Analytics.ChartPending {
		t.Error("Expected chart slot for 5 still pending")
	}
}

func TestIdempotentSelection(t *testing.T) {
	api := newFakeAPI(1, 2)
	m := mounted(t, api)

	first := m.Update(SelectDataset{ID: 2})
	second := m.Update(SelectDataset{ID: 2})

	if len(first) != 2 {
		t.Errorf("Expected one epoch (2 fetches) for the first select, got %d commands", len(first))
	}
	if len(second) != 0 {
		t.Errorf("Expected no fetches for a repeated select, got %d commands", len(second))
	}
}

func TestSelectUnknownIsIgnored(t *testing.T) {
	m := mounted(t, newFakeAPI(1, 2))

	if cmds := m.Update(SelectDataset{ID: 99}); len(cmds) != 0 {
		t.Errorf("Expected no commands, got %d", len(cmds))
	}
	if v := m.View(); v.SelectedID != 1 {
		t.Errorf("Expected selection unchanged (1), got %d", v.SelectedID)
	}
}

func TestReloadDiscardsPreviousEpochForSameID(t *testing.T) {
	api := newFakeAPI(1)
	m := mounted(t, api)

	old := m.Update(ReloadAnalytics{})
	fresh := m.Update(ReloadAnalytics{})

	api.summaries[1] = &client.Summary{TotalRecords: 777}
	freshMsgs := run(fresh)
	api.summaries[1] = &client.Summary{TotalRecords: 1}
	oldMsgs := run(old)

	deliver(m, freshMsgs...)
	deliver(m, oldMsgs...)

	if got := m.View().Analytics.Summary.TotalRecords; got != 777 {
		t.Errorf("Expected the latest epoch's summary (777), got %d", got)
	}
}

func TestIndependentSlotFailure(t *testing.T) {
	api := newFakeAPI(1)
	api.summaryErr[1] = &client.ServerError{Op: "get summary", StatusCode: 500}
	m := mounted(t, api)

	s := m.View().Analytics
	if s.Summary != nil {
		t.Errorf("Expected no summary, got %+v", s.Summary)
	}
	if s.SummaryErr == nil {
		t.Error("Expected summary error")
	}
	if s.ChartData == nil || s.ChartErr != nil {
		t.Errorf("Expected chart data to load normally, got %+v / %v", s.ChartData, s.ChartErr)
	}
	if s.Phase() != Ready {
		t.Errorf("Expected ready despite the failed slot, got %s", s.Phase())
	}
}

func TestChartFailureKeepsSummary(t *testing.T) {
	api := newFakeAPI(1)
	api.chartErr[1] = &client.NotFoundError{Op: "get chart data"}
	m := mounted(t, api)

	s := m.View().Analytics
	if s.Summary == nil || s.ChartErr == nil || s.ChartData != nil {
		t.Errorf("Unexpected snapshot %+v", s)
	}
}

func TestRemoveForcesDeselection(t *testing.T) {
	api := newFakeAPI(1, 2, 3)
	m := mounted(t, api)

	reply := make(chan error, 1)
	settle(m, m.Update(RemoveDataset{ID: 1, Reply: reply}))

	if err := <-reply; err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	v := m.View()
	if v.SelectedID != 0 {
		t.Errorf("Expected no selection after delete, got %d", v.SelectedID)
	}
	if len(v.Datasets) != 2 {
		t.Errorf("Expected refreshed list of 2, got %d", len(v.Datasets))
	}
	if v.Phase != Idle {
		t.Errorf("Expected idle, got %s", v.Phase)
	}

	// later refreshes keep waiting for the user's choice
	settle(m, m.Update(RefreshDatasets{}))
	if v := m.View(); v.SelectedID != 0 {
		t.Errorf("Expected no auto-selection after delete, got %d", v.SelectedID)
	}

	settle(m, m.Update(SelectDataset{ID: 3}))
	if v := m.View(); v.SelectedID != 3 || v.Phase != Ready {
		t.Errorf("Expected dataset 3 ready, got %d (%s)", v.SelectedID, v.Phase)
	}
}

func TestRemoveDiscardsInFlightAnalytics(t *testing.T) {
	api := newFakeAPI(1, 2)
	m := mounted(t, api)

	inflight := m.Update(ReloadAnalytics{})
	settle(m, m.Update(RemoveDataset{ID: 1}))
	deliver(m, run(inflight)...)

	if s := m.View().Analytics; s.DatasetID != 0 || s.Summary != nil {
		t.Errorf("Expected empty snapshot after delete, got %+v", s)
	}
}

func TestRemoveFailureKeepsState(t *testing.T) {
	api := newFakeAPI(1, 2)
	api.deleteErr = &client.ServerError{Op: "delete dataset", StatusCode: 500}
	m := mounted(t, api)
	before := m.View()

	reply := make(chan error, 1)
	settle(m, m.Update(RemoveDataset{ID: 1, Reply: reply}))

	err := <-reply
	var se *client.ServerError
	if !errors.As(err, &se) {
		t.Fatalf("Expected the server error to be surfaced, got %v", err)
	}
	after := m.View()
	if after.SelectedID != before.SelectedID || len(after.Datasets) != len(before.Datasets) {
		t.Errorf("Expected unchanged registry, got selection %d with %d items", after.SelectedID, len(after.Datasets))
	}
	if after.RegistryErr == nil {
		t.Error("Expected registry error to be recorded")
	}
	if after.Analytics.Summary == nil {
		t.Error("Expected analytics to survive a failed delete")
	}
}

func TestRefreshReconcilesMissingSelection(t *testing.T) {
	api := newFakeAPI(1, 2, 3)
	m := mounted(t, api)
	settle(m, m.Update(SelectDataset{ID: 3}))

	api.setDatasets(8, 1, 2)
	settle(m, m.Update(RefreshDatasets{}))

	if v := m.View(); v.SelectedID != 8 {
		t.Errorf("Expected first item (8) selected, got %d", v.SelectedID)
	}
}

func TestRefreshKeepsPresentSelection(t *testing.T) {
	api := newFakeAPI(1, 2, 3)
	m := mounted(t, api)
	settle(m, m.Update(SelectDataset{ID: 2}))

	api.setDatasets(3, 2)
	cmds := deliver(m, run(m.Update(RefreshDatasets{}))...)

	if len(cmds) != 0 {
		t.Errorf("Expected no refetch for an unchanged selection, got %d commands", len(cmds))
	}
	if v := m.View(); v.SelectedID != 2 {
		t.Errorf("Expected selection 2 kept, got %d", v.SelectedID)
	}
}

func TestRefreshToEmptyClearsSelection(t *testing.T) {
	api := newFakeAPI(1)
	m := mounted(t, api)

	api.setDatasets()
	settle(m, m.Update(RefreshDatasets{}))

	v := m.View()
	if v.SelectedID != 0 || v.Phase != Idle {
		t.Errorf("Expected idle with no selection, got %d (%s)", v.SelectedID, v.Phase)
	}
}

func TestRefreshFailureKeepsPriorState(t *testing.T) {
	api := newFakeAPI(1, 2)
	m := mounted(t, api)

	api.listErr = &client.NetworkError{Op: "list datasets", Err: errors.New("connection refused")}
	settle(m, m.Update(RefreshDatasets{}))

	v := m.View()
	if len(v.Datasets) != 2 || v.SelectedID != 1 {
		t.Errorf("Expected prior list and selection kept, got %d items, selection %d", len(v.Datasets), v.SelectedID)
	}
	if v.RegistryErr == nil {
		t.Error("Expected registry error")
	}
}

func TestStaleRefreshIsDropped(t *testing.T) {
	api := newFakeAPI(1, 2)
	m := mounted(t, api)

	older := m.Update(RefreshDatasets{})
	api.setDatasets(2)
	olderMsgs := run(older)
	api.setDatasets(5, 6)
	newer := m.Update(RefreshDatasets{})
	newerMsgs := run(newer)

	settle(m, deliver(m, newerMsgs...))
	deliver(m, olderMsgs...)

	v := m.View()
	if len(v.Datasets) != 2 || v.Datasets[0].ID != 5 {
		t.Errorf("Expected the newest list [5 6], got %+v", v.Datasets)
	}
}

func TestSettled(t *testing.T) {
	m := NewModel(newFakeAPI(1), quietLogger())

	cmds := m.Init()
	if v := m.View(); v.Settled() || !v.Refreshing {
		t.Errorf("Expected an unsettled, refreshing view before the list arrives, got %+v", v)
	}
	cmds = deliver(m, run(cmds)...)
	if m.View().Settled() {
		t.Error("Expected analytics to be pending")
	}
	settle(m, cmds)
	if !m.View().Settled() {
		t.Error("Expected a settled view")
	}
}
