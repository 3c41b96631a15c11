package store

import (
	_ "embed"
)

// Schemas are idempotent; they run on every open.

//go:embed migrations/sqlite.sql
var sqliteSchema string

//go:embed migrations/postgres.sql
var postgresSchema string

func (s *SQLiteStore) RunMigrations() error {
	_, err := s.db.Exec(sqliteSchema)
	return err
}
