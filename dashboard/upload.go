package dashboard

import (
	"context"
	"errors"

	"github.com/OriginalDaemon/datalens/client"
)

const (
	// InvalidFileMessage is shown when the chosen file is not a CSV
	InvalidFileMessage = "Please upload a valid CSV file."
	// UploadFailedMessage is shown when the server gives no reason
	UploadFailedMessage = "Failed to upload dataset."
)

// ErrNothingToUpload is replied to a SubmitUpload without a file, or while
// another upload is still running
var ErrNothingToUpload = errors.New("no file ready to upload")

// UploadPhase is where the upload dialog is in its lifecycle
type UploadPhase int

const (
	UploadIdle UploadPhase = iota
	UploadUploading
	UploadSucceeded
	UploadFailed
)

func (p UploadPhase) String() string {
	switch p {
	case UploadIdle:
		return "idle"
	case UploadUploading:
		return "uploading"
	case UploadSucceeded:
		return "succeeded"
	case UploadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// UploadState is the upload dialog. It lives only while the dialog is open.
type UploadState struct {
	Open  bool
	File  *client.UploadFile
	Phase UploadPhase
	Err   string

	// attempt advances on every open, close and submit; an upload result is
	// applied to the dialog only if it still matches
	attempt uint64
}

// CanSubmit reports whether the submit action is enabled
func (u UploadState) CanSubmit() bool {
	return u.File != nil && u.Phase != UploadUploading
}

func (m *Model) chooseFile(file client.UploadFile) {
	if m.upload.Phase == UploadUploading {
		return
	}
	if err := client.ValidateUpload(file); err != nil {
		if client.HasCSVExtension(file.Filename) {
			var ve *client.ValidationError
			if errors.As(err, &ve) {
				m.upload.Err = ve.Message
			} else {
				m.upload.Err = err.Error()
			}
		} else {
			m.upload.Err = InvalidFileMessage
		}
		return
	}
	m.upload.File = &file
	m.upload.Err = ""
	m.upload.Phase = UploadIdle
}

func (m *Model) submitUpload(msg SubmitUpload) []Cmd {
	if !m.upload.CanSubmit() {
		if msg.Reply != nil {
			msg.Reply <- UploadResult{Phase: m.upload.Phase, Err: ErrNothingToUpload}
		}
		return nil
	}

	m.upload.Phase = UploadUploading
	m.upload.Err = ""
	m.upload.attempt++

	api := m.api
	attempt := m.upload.attempt
	file := *m.upload.File
	description := msg.Description
	reply := msg.Reply

	return []Cmd{func(ctx context.Context) Msg {
		d, err := api.UploadDatasetWithDescription(ctx, file, client.DatasetName(file.Filename), description)
		return uploadFinished{attempt: attempt, dataset: d, err: err, reply: reply}
	}}
}

func (m *Model) finishUpload(msg uploadFinished) []Cmd {
	if msg.reply != nil {
		result := UploadResult{Phase: UploadSucceeded, Dataset: msg.dataset, Err: msg.err}
		if msg.err != nil {
			result.Phase = UploadFailed
		}
		msg.reply <- result
	}

	current := m.upload.Open && msg.attempt == m.upload.attempt

	if msg.err != nil {
		m.logf("ERROR: upload failed: %v", msg.err)
		if current {
			m.upload.Phase = UploadFailed
			if text, ok := client.ServerMessage(msg.err); ok {
				m.upload.Err = text
			} else {
				m.upload.Err = UploadFailedMessage
			}
		}
		return nil
	}

	return m.uploadCompleted(*msg.dataset, current)
}

// uploadCompleted is the completion of a successful upload: it refreshes the
// registry and selects the new dataset once the list contains it, even if
// the dialog was closed mid-upload, since the dataset exists on the server
// either way. The dialog is closed only if it is still the one that
// submitted the upload.
func (m *Model) uploadCompleted(d client.Dataset, current bool) []Cmd {
	m.logf("dashboard: uploaded dataset %d (%s)", d.ID, d.Filename)
	m.pendingSelect = d.ID
	m.awaitingChoice = false
	if current {
		m.closeUpload()
	}
	return []Cmd{m.refresh()}
}

// closeUpload resets the dialog. attempt moves on so the result of an
// upload started by the closed dialog never matches a later one.
func (m *Model) closeUpload() {
	m.upload = UploadState{attempt: m.upload.attempt + 1}
}
