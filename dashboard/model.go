// Package dashboard coordinates dataset selection, analytics fetching and
// uploads for the datalens front ends.
//
// All state lives in a Model that changes only through Update, one message
// at a time. API calls are returned as commands whose results come back as
// messages; results that belong to a superseded selection are discarded.
package dashboard

import (
	"context"
	"log"

	"github.com/OriginalDaemon/datalens/client"
)

// API is the part of the analytics API the dashboard uses. *client.Client
// implements it.
type API interface {
	ListDatasets(ctx context.Context) ([]client.Dataset, error)
	DeleteDataset(ctx context.Context, id int) error
	UploadDatasetWithDescription(ctx context.Context, file client.UploadFile, name, description string) (*client.Dataset, error)
	GetSummary(ctx context.Context, id int) (*client.Summary, error)
	GetChartData(ctx context.Context, id int) (*client.ChartData, error)
}

// Model is the dashboard state: registry, analytics snapshot and upload
// dialog. It is not safe for concurrent use; Store owns one on a single
// goroutine, and the terminal UI drives one from its event loop.
type Model struct {
	api    API
	logger *log.Logger

	registry    Registry
	registryErr error
	loaded      bool
	listing     bool
	listSeq     uint64

	// awaitingChoice is set by a delete: refreshes stop auto-selecting
	// until the user (or an upload) picks a dataset
	awaitingChoice bool
	pendingSelect  int

	analytics Snapshot
	epoch     uint64
	epochDone chan struct{}

	upload UploadState
}

// NewModel creates an empty model. A nil logger means log.Default().
func NewModel(api API, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.Default()
	}
	return &Model{api: api, logger: logger}
}

// Init returns the commands to run when the dashboard is mounted
func (m *Model) Init() []Cmd {
	return m.Update(RefreshDatasets{})
}

// Update applies one message and returns the commands it started
func (m *Model) Update(msg Msg) []Cmd {
	switch msg := msg.(type) {
	case RefreshDatasets:
		return []Cmd{m.refresh()}

	case datasetsLoaded:
		return m.applyDatasets(msg)

	case SelectDataset:
		if !m.registry.selectID(msg.ID) {
			return nil
		}
		m.awaitingChoice = false
		m.pendingSelect = 0
		return m.beginEpoch()

	case ReloadAnalytics:
		return m.beginEpoch()

	case RemoveDataset:
		return []Cmd{removeDataset(m.api, msg.ID, msg.Reply)}

	case datasetRemoved:
		return m.applyRemoved(msg)

	case summaryLoaded:
		m.applySummary(msg)

	case chartDataLoaded:
		m.applyChartData(msg)

	case OpenUpload:
		if !m.upload.Open {
			m.upload = UploadState{Open: true, attempt: m.upload.attempt + 1}
		}

	case CloseUpload:
		m.closeUpload()

	case ChooseFile:
		m.chooseFile(msg.File)

	case ClearFile:
		if m.upload.Phase != UploadUploading {
			m.upload.File = nil
			m.upload.Err = ""
			m.upload.Phase = UploadIdle
		}

	case SubmitUpload:
		return m.submitUpload(msg)

	case uploadFinished:
		return m.finishUpload(msg)
	}

	return nil
}

// Close ends the current epoch so in-flight requests are cancelled
func (m *Model) Close() {
	if m.epochDone != nil {
		close(m.epochDone)
		m.epochDone = nil
	}
}

func (m *Model) refresh() Cmd {
	m.listSeq++
	m.listing = true
	seq := m.listSeq
	api := m.api
	return func(ctx context.Context) Msg {
		datasets, err := api.ListDatasets(ctx)
		return datasetsLoaded{seq: seq, datasets: datasets, err: err}
	}
}

func (m *Model) applyDatasets(msg datasetsLoaded) []Cmd {
	if msg.seq != m.listSeq {
		// an older refresh finished after a newer one was issued
		return nil
	}
	m.loaded = true
	m.listing = false

	if msg.err != nil {
		// keep the previous list and selection
		m.registryErr = msg.err
		m.logf("ERROR: failed to fetch datasets: %v", msg.err)
		return nil
	}
	m.registryErr = nil

	changed := m.registry.replace(msg.datasets, !m.awaitingChoice)

	if m.pendingSelect != 0 {
		id := m.pendingSelect
		m.pendingSelect = 0
		if m.registry.selectID(id) {
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return m.beginEpoch()
}

func removeDataset(api API, id int, reply chan<- error) Cmd {
	return func(ctx context.Context) Msg {
		err := api.DeleteDataset(ctx, id)
		return datasetRemoved{id: id, err: err, reply: reply}
	}
}

func (m *Model) applyRemoved(msg datasetRemoved) []Cmd {
	if msg.reply != nil {
		msg.reply <- msg.err
	}

	if msg.err != nil {
		m.registryErr = msg.err
		m.logf("ERROR: failed to delete dataset %d: %v", msg.id, msg.err)
		return nil
	}
	m.registryErr = nil

	// Deleting always deselects, even when another dataset could be
	// auto-selected, so the user never sees analytics they did not pick.
	m.awaitingChoice = true
	m.pendingSelect = 0
	cmds := []Cmd{m.refresh()}
	if m.registry.clearSelection() {
		cmds = append(cmds, m.beginEpoch()...)
	}
	return cmds
}

func (m *Model) logf(format string, args ...interface{}) {
	m.logger.Printf(format, args...)
}

// View is a read-only copy of the model for rendering
type View struct {
	Datasets    []client.Dataset
	SelectedID  int
	Selected    *client.Dataset
	Loaded      bool
	Refreshing  bool
	RegistryErr error
	Analytics   Snapshot
	Phase       Phase
	Upload      UploadState
}

// View copies the current state. Summary and chart data are shared, not
// copied; they are never modified after decoding.
func (m *Model) View() View {
	v := View{
		Datasets:    m.registry.Items(),
		Loaded:      m.loaded,
		Refreshing:  m.listing,
		RegistryErr: m.registryErr,
		Analytics:   m.analytics,
		Phase:       m.analytics.Phase(),
		Upload:      m.upload,
	}
	if id, ok := m.registry.Selected(); ok {
		v.SelectedID = id
		if d, ok := m.registry.Lookup(id); ok {
			v.Selected = &d
		}
	}
	if m.upload.File != nil {
		file := *m.upload.File
		v.Upload.File = &file
	}
	return v
}

// Settled reports whether no list or analytics request is outstanding
func (v View) Settled() bool {
	return v.Loaded && !v.Refreshing && v.Phase != Loading
}
