package domain

import "time"

// TransferOutcome is produced once per Fetch call.
type TransferOutcome struct {
	BytesWritten int64
	Skipped      bool
	Attempts     int
	Err          error
}

func (o TransferOutcome) Failed() bool {
	return o.Err != nil
}

type TransferStatus string

const (
	StatusDownloaded TransferStatus = "downloaded"
	StatusSkipped    TransferStatus = "skipped"
	StatusFailed     TransferStatus = "failed"
	StatusRejected   TransferStatus = "rejected" // invalid request, never dispatched
)

// StatusOf maps an outcome to the status stored in the history.
func StatusOf(o TransferOutcome) TransferStatus {
	switch {
	case o.Err != nil:
		return StatusFailed
	case o.Skipped:
		return StatusSkipped
	default:
		return StatusDownloaded
	}
}

// TransferRecord is one row of the transfer history.
type TransferRecord struct {
	ID         int64          `json:"id"`
	RunID      string         `json:"run_id"`
	Request    string         `json:"request"`
	URL        string         `json:"url"`
	LocalPath  string         `json:"local_path"`
	Status     TransferStatus `json:"status"`
	Bytes      int64          `json:"bytes"`
	Attempts   int            `json:"attempts"`
	Error      string         `json:"error,omitempty"`
	FinishedAt time.Time      `json:"finished_at"`
}
