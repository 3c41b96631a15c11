package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/datallboy/comexdown/internal/domain"
	"github.com/datallboy/comexdown/internal/infra/config"
)

// Filter narrows ListTransfers. Zero values mean "everything".
type Filter struct {
	RunID string
	Limit int
}

// HistoryStore persists one record per finished transfer.
type HistoryStore interface {
	SaveTransfer(ctx context.Context, rec *domain.TransferRecord) error
	ListTransfers(ctx context.Context, f Filter) ([]domain.TransferRecord, error)
	Close() error
}

// Open picks the backend named by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config) (HistoryStore, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		s, err := NewSQLiteStore(cfg.HistoryPath())
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgresStore(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return Nop{}, nil
	}
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbDir := filepath.Dir(dbPath)

	// Ensure the database directory exists
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open the history db
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Ping makes sure the file is actually accessible and the DSN is valid
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Nop discards history. Used when store.driver is "none".
type Nop struct{}

func (Nop) SaveTransfer(context.Context, *domain.TransferRecord) error { return nil }

func (Nop) ListTransfers(context.Context, Filter) ([]domain.TransferRecord, error) {
	return []domain.TransferRecord{}, nil
}

func (Nop) Close() error { return nil }
