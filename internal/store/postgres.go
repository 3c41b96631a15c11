package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datallboy/comexdown/internal/domain"
)

// PostgresStore keeps the history in a shared database, for several hosts
// feeding one data root.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) SaveTransfer(ctx context.Context, rec *domain.TransferRecord) error {
	var dbo transferDBO
	dbo.FromDomain(rec)

	query := `INSERT INTO transfers (run_id, request, url, local_path, status, bytes, attempts, error, finished_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		dbo.RunID,
		dbo.Request,
		dbo.URL,
		dbo.LocalPath,
		dbo.Status,
		dbo.Bytes,
		dbo.Attempts,
		dbo.Error,
		dbo.FinishedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to save transfer: %w", err)
	}

	rec.FinishedAt = dbo.FinishedAt
	return nil
}

func (s *PostgresStore) ListTransfers(ctx context.Context, f Filter) ([]domain.TransferRecord, error) {
	query, args := buildListQuery(f, "$")

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.TransferRecord{}
	for rows.Next() {
		var dbo transferDBO
		if err := rows.Scan(&dbo.ID, &dbo.RunID, &dbo.Request, &dbo.URL, &dbo.LocalPath,
			&dbo.Status, &dbo.Bytes, &dbo.Attempts, &dbo.Error, &dbo.FinishedAt); err != nil {
			return nil, err
		}
		records = append(records, dbo.ToDomain())
	}

	return records, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
