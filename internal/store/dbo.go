package store

import (
	"database/sql"
	"time"

	"github.com/datallboy/comexdown/internal/domain"
)

// transferDBO maps to the transfers table
type transferDBO struct {
	ID         int64          `db:"id"`
	RunID      string         `db:"run_id"`
	Request    string         `db:"request"`
	URL        string         `db:"url"`
	LocalPath  string         `db:"local_path"`
	Status     string         `db:"status"`
	Bytes      int64          `db:"bytes"`
	Attempts   int            `db:"attempts"`
	Error      sql.NullString `db:"error"`
	FinishedAt time.Time      `db:"finished_at"`
}

// Mapper: DBO to Domain TransferRecord
func (t *transferDBO) ToDomain() domain.TransferRecord {
	return domain.TransferRecord{
		ID:         t.ID,
		RunID:      t.RunID,
		Request:    t.Request,
		URL:        t.URL,
		LocalPath:  t.LocalPath,
		Status:     domain.TransferStatus(t.Status),
		Bytes:      t.Bytes,
		Attempts:   t.Attempts,
		Error:      t.Error.String,
		FinishedAt: t.FinishedAt,
	}
}

// Mapper: Domain TransferRecord to DBO
func (t *transferDBO) FromDomain(rec *domain.TransferRecord) {
	t.ID = rec.ID
	t.RunID = rec.RunID
	t.Request = rec.Request
	t.URL = rec.URL
	t.LocalPath = rec.LocalPath
	t.Status = string(rec.Status)
	t.Bytes = rec.Bytes
	t.Attempts = rec.Attempts
	t.Error = sql.NullString{String: rec.Error, Valid: rec.Error != ""}

	if rec.FinishedAt.IsZero() {
		t.FinishedAt = time.Now()
	} else {
		t.FinishedAt = rec.FinishedAt
	}
}
