package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/datallboy/comexdown/internal/domain"
)

func (s *SQLiteStore) SaveTransfer(ctx context.Context, rec *domain.TransferRecord) error {
	var dbo transferDBO
	dbo.FromDomain(rec)

	query := `INSERT INTO transfers (run_id, request, url, local_path, status, bytes, attempts, error, finished_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query,
		dbo.RunID,
		dbo.Request,
		dbo.URL,
		dbo.LocalPath,
		dbo.Status,
		dbo.Bytes,
		dbo.Attempts,
		dbo.Error,
		dbo.FinishedAt.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("failed to save transfer: %w", err)
	}

	id, err := res.LastInsertId()
	if err == nil {
		rec.ID = id
	}
	rec.FinishedAt = dbo.FinishedAt
	return nil
}

// ListTransfers returns the newest records first.
func (s *SQLiteStore) ListTransfers(ctx context.Context, f Filter) ([]domain.TransferRecord, error) {
	query, args := buildListQuery(f, "?")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.TransferRecord{}
	for rows.Next() {
		var dbo transferDBO
		var finished int64

		if err := rows.Scan(&dbo.ID, &dbo.RunID, &dbo.Request, &dbo.URL, &dbo.LocalPath,
			&dbo.Status, &dbo.Bytes, &dbo.Attempts, &dbo.Error, &finished); err != nil {
			return nil, err
		}
		dbo.FinishedAt = time.UnixMicro(finished)

		records = append(records, dbo.ToDomain())
	}

	return records, rows.Err()
}

// buildListQuery is shared by both backends; placeholder is "?" or "$".
func buildListQuery(f Filter, placeholder string) (string, []any) {
	var sb strings.Builder
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		if placeholder == "$" {
			return fmt.Sprintf("$%d", len(args))
		}
		return "?"
	}

	sb.WriteString(`SELECT id, run_id, request, url, local_path, status, bytes, attempts, error, finished_at FROM transfers`)

	if f.RunID != "" {
		sb.WriteString(" WHERE run_id = " + arg(f.RunID))
	}

	sb.WriteString(" ORDER BY id DESC")

	if f.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(f.Limit))
	}

	return sb.String(), args
}
