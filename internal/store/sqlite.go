package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// SQLiteSlot keeps the serialized journal in one row of a sqlite database
type SQLiteSlot struct {
	db   *sql.DB
	name string
}

// NewSQLiteSlot opens (creating if needed) the database at dbPath and
// addresses the row called name
func NewSQLiteSlot(dbPath, name string) (*SQLiteSlot, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteSlot{db: db, name: name}, nil
}

// Name returns the slot name
func (s *SQLiteSlot) Name() string {
	return s.name
}

// Load returns the stored value, or nil if the slot was never written
func (s *SQLiteSlot) Load(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM slots WHERE name = ?",
		s.name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}
	return []byte(value), nil
}

// Save replaces the stored value
func (s *SQLiteSlot) Save(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.name, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save slot: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}
