// Package sqlstore implements storage.Store over a single records table
// in SQLite (modernc.org/sqlite) or PostgreSQL (pgx stdlib driver).
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/iudanet/checkkeeper/internal/server/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Supported SQL dialects
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Storage represents SQL storage implementation of the record store
type Storage struct {
	db      *sql.DB
	dialect string
}

var _ storage.Store = (*Storage)(nil)

// NewSQLite opens a SQLite database file and runs migrations.
// Use ":memory:" for in-memory database (useful for testing)
func NewSQLite(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite с WAL mode поддерживает несколько читателей, но только одного писателя
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// synchronous = FULL: запись должна быть на диске до возврата из Create/Update
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = FULL;",
		"PRAGMA busy_timeout = 5000;",
	}

	return open(ctx, db, DialectSQLite, pragmas)
}

// NewPostgres connects to PostgreSQL using dsn and runs migrations
func NewPostgres(ctx context.Context, dsn string) (*Storage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return open(ctx, db, DialectPostgres, nil)
}

func open(ctx context.Context, db *sql.DB, dialect string, pragmas []string) (*Storage, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Storage{db: db, dialect: dialect}

	if err := s.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// runMigrations выполняет миграции из embedded FS
func (s *Storage) runMigrations(ctx context.Context) error {
	gooseDialect := "sqlite3"
	if s.dialect == DialectPostgres {
		gooseDialect = "postgres"
	}

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	goose.SetBaseFS(embedMigrations)

	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// DB returns the underlying database connection for testing purposes
func (s *Storage) DB() *sql.DB {
	return s.db
}

// Create stores value under key, failing if the key is already present
func (s *Storage) Create(ctx context.Context, collection, key string, value any) error {
	data, err := encode(collection, value)
	if err != nil {
		return err
	}

	query := s.rebind(`
		INSERT INTO records (collection, record_key, value)
		VALUES (?, ?, ?)
		ON CONFLICT (collection, record_key) DO NOTHING
	`)

	result, err := s.db.ExecContext(ctx, query, collection, key, data)
	if err != nil {
		return fmt.Errorf("failed to insert %s record: %w", collection, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrAlreadyExists
	}

	return nil
}

// Read decodes the record stored under key into dst
func (s *Storage) Read(ctx context.Context, collection, key string, dst any) error {
	if !storage.KnownCollection(collection) {
		return fmt.Errorf("%w: %s", storage.ErrUnknownCollection, collection)
	}

	query := s.rebind(`SELECT value FROM records WHERE collection = ? AND record_key = ?`)

	var data string
	err := s.db.QueryRowContext(ctx, query, collection, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to get %s record: %w", collection, err)
	}

	return decode(collection, data, dst)
}

// Update replaces the record stored under key
func (s *Storage) Update(ctx context.Context, collection, key string, value any) error {
	data, err := encode(collection, value)
	if err != nil {
		return err
	}

	query := s.rebind(`UPDATE records SET value = ? WHERE collection = ? AND record_key = ?`)

	result, err := s.db.ExecContext(ctx, query, data, collection, key)
	if err != nil {
		return fmt.Errorf("failed to update %s record: %w", collection, err)
	}

	return expectOneRow(result)
}

// Delete removes the record stored under key
func (s *Storage) Delete(ctx context.Context, collection, key string) error {
	if !storage.KnownCollection(collection) {
		return fmt.Errorf("%w: %s", storage.ErrUnknownCollection, collection)
	}

	query := s.rebind(`DELETE FROM records WHERE collection = ? AND record_key = ?`)

	result, err := s.db.ExecContext(ctx, query, collection, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s record: %w", collection, err)
	}

	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// rebind переписывает плейсхолдеры ? в $1, $2... для PostgreSQL
func (s *Storage) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
