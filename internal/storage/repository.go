package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"rupeetrack/internal/core"
	applog "rupeetrack/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository mirrors the transaction list into a SQLite table, one row per
// transaction, ordered by position.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; the store already serializes saves.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load returns every stored transaction in insertion order. Rows whose body no longer
// decodes are skipped with a warning.
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT position, body FROM transactions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: query transactions: %v", core.ErrStorageIO, err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		var (
			position int64
			body     string
		)
		if err := rows.Scan(&position, &body); err != nil {
			return nil, fmt.Errorf("%w: scan transaction: %v", core.ErrStorageIO, err)
		}
		var tx core.Transaction
		if err := json.Unmarshal([]byte(body), &tx); err != nil {
			applog.FromContext(ctx).WithComponent(applog.ComponentStorage).WarnContext(ctx, "Skipping undecodable transaction row", "position", position, "error", err)
			continue
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate transactions: %v", core.ErrStorageIO, err)
	}
	return txs, nil
}

// Save replaces the table content with txs inside a single SQL transaction.
func (r *SQLiteRepository) Save(ctx context.Context, txs []core.Transaction) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", core.ErrStorageIO, err)
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("%w: clear transactions: %v", core.ErrStorageIO, err)
	}

	stmt, err := dbtx.PrepareContext(ctx, `INSERT INTO transactions (position, tx_id, body) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", core.ErrStorageIO, err)
	}
	defer stmt.Close()

	for i, tx := range txs {
		body, err := json.Marshal(tx)
		if err != nil {
			return fmt.Errorf("encode transaction %d: %w", i, err)
		}
		var txID sql.NullString
		if tx.ID != nil {
			txID = sql.NullString{String: *tx.ID, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i+1, txID, string(body)); err != nil {
			return fmt.Errorf("%w: insert transaction %d: %v", core.ErrStorageIO, i, err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrStorageIO, err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentStorage).DebugContext(ctx, "Transactions saved to SQLite", "count", len(txs))
	return nil
}
