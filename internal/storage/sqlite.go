package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"budgetbook/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRecordStore holds the same encrypted record payloads as
// FileRecordStore, one per row, ordered by ledger position.
type SQLiteRecordStore struct {
	db   *sql.DB
	path string
	opts Options
}

func NewSQLiteRecordStore(dbPath string, opts Options) (*SQLiteRecordStore, error) {
	if opts.Cipher == nil {
		return nil, errors.New("sqlite record store: nil cipher")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers; sqlite allows only one anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRecordStore{db: db, path: dbPath, opts: opts}, nil
}

func (s *SQLiteRecordStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load mirrors FileRecordStore.Load: bad rows are skipped, not fatal.
func (s *SQLiteRecordStore) Load(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM ledger_records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	d := recordDecoder{opts: s.opts}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			d.malformedRecords++
			s.opts.skip(SkipMalformed)
			continue
		}
		d.add(payload)
	}
	d.log(ctx, s.path)
	if err := rows.Err(); err != nil {
		return d.records, fmt.Errorf("load records: %w", err)
	}
	return d.records, nil
}

// Save replaces all rows in one transaction.
func (s *SQLiteRecordStore) Save(ctx context.Context, txs []core.Transaction) (err error) {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save records: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = dbtx.Rollback()
		}
	}()

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM ledger_records`); err != nil {
		return fmt.Errorf("save records: clear: %w", err)
	}

	stmt, err := dbtx.PrepareContext(ctx, `INSERT INTO ledger_records (position, payload) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("save records: prepare: %w", err)
	}
	defer stmt.Close()

	for i, tx := range txs {
		if _, err := stmt.ExecContext(ctx, i, s.opts.Cipher.Encrypt(encodeRecord(tx))); err != nil {
			return fmt.Errorf("save records: insert %d: %w", i, err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("save records: commit: %w", err)
	}
	s.opts.logger().DebugContext(ctx, "Ledger records saved", "db", s.path, "count", len(txs))
	return nil
}
