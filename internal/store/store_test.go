package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datallboy/comexdown/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteSaveAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	finished := time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)

	ok := &domain.TransferRecord{
		RunID:      "run-a",
		Request:    "trade:exp:2020:national",
		URL:        "https://example.test/EXP_2020.csv",
		LocalPath:  "exp/EXP_2020.csv",
		Status:     domain.StatusDownloaded,
		Bytes:      1024,
		Attempts:   1,
		FinishedAt: finished,
	}
	require.NoError(t, s.SaveTransfer(ctx, ok))
	require.NotZero(t, ok.ID)

	failed := &domain.TransferRecord{
		RunID:    "run-b",
		Request:  "table:ncm",
		Status:   domain.StatusFailed,
		Attempts: 3,
		Error:    "transfer failed",
	}
	require.NoError(t, s.SaveTransfer(ctx, failed))
	require.False(t, failed.FinishedAt.IsZero())

	all, err := s.ListTransfers(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "table:ncm", all[0].Request, "newest first")
	require.Equal(t, "transfer failed", all[0].Error)

	got := all[1]
	require.Equal(t, ok.ID, got.ID)
	require.Equal(t, domain.StatusDownloaded, got.Status)
	require.Equal(t, int64(1024), got.Bytes)
	require.Empty(t, got.Error)
	require.True(t, finished.Equal(got.FinishedAt))

	byRun, err := s.ListTransfers(ctx, Filter{RunID: "run-a"})
	require.NoError(t, err)
	require.Len(t, byRun, 1)

	limited, err := s.ListTransfers(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestSQLiteReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveTransfer(ctx, &domain.TransferRecord{RunID: "r", Request: "table:uf", Status: domain.StatusSkipped}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.ListTransfers(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, domain.StatusSkipped, records[0].Status)
}

func TestBuildListQuery(t *testing.T) {
	q, args := buildListQuery(Filter{RunID: "x", Limit: 5}, "$")
	require.Contains(t, q, "WHERE run_id = $1")
	require.Contains(t, q, "LIMIT $2")
	require.Equal(t, []any{"x", 5}, args)

	q, args = buildListQuery(Filter{}, "?")
	require.NotContains(t, q, "WHERE")
	require.NotContains(t, q, "LIMIT")
	require.Empty(t, args)
}

func TestNop(t *testing.T) {
	var s HistoryStore = Nop{}
	require.NoError(t, s.SaveTransfer(context.Background(), &domain.TransferRecord{}))
	records, err := s.ListTransfers(context.Background(), Filter{})
	require.NoError(t, err)
	require.Empty(t, records)
}
