package webstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"biblioteca-backend/internal/platform/db"
)

type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// SQL stores items in a two-column table (storage_key, storage_value).
type SQL struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

func NewSQL(conn *sql.DB, dialect Dialect, table string) (*SQL, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("webstorage: invalid table name %q", table)
	}
	switch dialect {
	case DialectMySQL, DialectPostgres, DialectSQLite:
	default:
		return nil, fmt.Errorf("webstorage: unknown dialect %q", dialect)
	}
	return &SQL{db: conn, dialect: dialect, table: table}, nil
}

// Migrate creates the table if needed.
func (s *SQL) Migrate(ctx context.Context) error {
	var ddl string
	switch s.dialect {
	case DialectMySQL:
		ddl = `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
	storage_key   VARCHAR(191) NOT NULL PRIMARY KEY,
	storage_value LONGTEXT     NOT NULL,
	updated_at    DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3)
) DEFAULT CHARSET=utf8mb4`
	case DialectPostgres:
		ddl = `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
	storage_key   TEXT PRIMARY KEY,
	storage_value TEXT NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	default:
		ddl = `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
	storage_key   TEXT PRIMARY KEY,
	storage_value TEXT NOT NULL,
	updated_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
)`
	}
	if err := db.ExecAll(ctx, s.db, ddl); err != nil {
		return fmt.Errorf("webstorage: migrate %s: %w", s.table, err)
	}
	return nil
}

func (s *SQL) GetItem(ctx context.Context, key string) (string, bool, error) {
	q := `SELECT storage_value FROM ` + s.table + ` WHERE storage_key = ` + s.placeholder(1)
	var v string
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (s *SQL) SetItem(ctx context.Context, key, value string) error {
	var q string
	switch s.dialect {
	case DialectMySQL:
		// INSERT ... ON DUPLICATE KEY UPDATE
		q = `INSERT INTO ` + s.table + ` (storage_key, storage_value) VALUES (?, ?)
	ON DUPLICATE KEY UPDATE storage_value = VALUES(storage_value)`
	case DialectPostgres:
		q = `INSERT INTO ` + s.table + ` (storage_key, storage_value) VALUES ($1, $2)
	ON CONFLICT (storage_key) DO UPDATE SET storage_value = EXCLUDED.storage_value, updated_at = now()`
	default:
		q = `INSERT INTO ` + s.table + ` (storage_key, storage_value) VALUES (?, ?)
	ON CONFLICT (storage_key) DO UPDATE SET storage_value = excluded.storage_value,
	updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')`
	}
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, q, key, value)
		return err
	})
}

func (s *SQL) placeholder(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
