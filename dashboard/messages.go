package dashboard

import (
	"context"

	"github.com/OriginalDaemon/datalens/client"
)

// Msg is anything the model reacts to: a user action or the result of a
// command
type Msg interface{}

// Cmd is a unit of asynchronous work, normally a single API call. Its result
// is fed back into the model as a Msg.
type Cmd func(ctx context.Context) Msg

// User actions

// RefreshDatasets reloads the dataset list. The dashboard sends it on mount.
type RefreshDatasets struct{}

// SelectDataset selects a dataset by ID
type SelectDataset struct {
	ID int
}

// ReloadAnalytics starts a fresh fetch epoch for the current selection
type ReloadAnalytics struct{}

// RemoveDataset deletes a dataset. If Reply is set it receives the outcome;
// it must be buffered, the model never blocks on it.
type RemoveDataset struct {
	ID    int
	Reply chan<- error
}

// OpenUpload shows the upload dialog
type OpenUpload struct{}

// CloseUpload hides the upload dialog and resets its state
type CloseUpload struct{}

// ChooseFile selects the file to upload
type ChooseFile struct {
	File client.UploadFile
}

// ClearFile drops the selected file
type ClearFile struct{}

// SubmitUpload uploads the selected file. If Reply is set it receives the
// outcome once the upload settles, or immediately if nothing was submitted.
// Reply must be buffered.
type SubmitUpload struct {
	Description string
	Reply       chan<- UploadResult
}

// UploadResult is the outcome of a SubmitUpload
type UploadResult struct {
	Phase   UploadPhase
	Dataset *client.Dataset
	Err     error
}

// Command results

type datasetsLoaded struct {
	seq      uint64
	datasets []client.Dataset
	err      error
}

type datasetRemoved struct {
	id    int
	err   error
	reply chan<- error
}

type summaryLoaded struct {
	epoch     uint64
	datasetID int
	summary   *client.Summary
	err       error
}

type chartDataLoaded struct {
	epoch     uint64
	datasetID int
	data      *client.ChartData
	err       error
}

type uploadFinished struct {
	attempt uint64
	dataset *client.Dataset
	err     error
	reply   chan<- UploadResult
}
