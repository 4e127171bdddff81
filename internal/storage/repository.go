package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"balancete/internal/core"
	"balancete/internal/ledgers"

	_ "modernc.org/sqlite"
)

const (
	selectLedgerRows = `SELECT group_type, position, category,
		m01, m02, m03, m04, m05, m06, m07, m08, m09, m10, m11, m12
		FROM ledger_rows WHERE entity_id = ? ORDER BY group_type, position`

	insertLedgerRow = `INSERT INTO ledger_rows (entity_id, group_type, position, category,
		m01, m02, m03, m04, m05, m06, m07, m08, m09, m10, m11, m12)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	upsertEntity = `INSERT INTO entities (id, name, company, period, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, company = excluded.company, period = excluded.period`
)

// SQLiteRepository stores entities and ledgers in a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ledgers.Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// A single writer avoids SQLITE_BUSY on concurrent ingests.
	db.SetMaxOpenConns(1)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListEntities implements ledgers.EntityLister
func (r *SQLiteRepository) ListEntities(ctx context.Context) ([]core.Entity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, company, period, created_at FROM entities ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []core.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(s rowScanner) (core.Entity, error) {
	var e core.Entity
	var created string
	if err := s.Scan(&e.ID, &e.Name, &e.Company, &e.Period, &created); err != nil {
		return e, fmt.Errorf("scan entity: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return e, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	e.CreatedAt = t
	return e, nil
}

// FetchEntity implements ledgers.EntityReader
func (r *SQLiteRepository) FetchEntity(ctx context.Context, entityID string) (core.Entity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, company, period, created_at FROM entities WHERE id = ?`, entityID)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entity{}, fmt.Errorf("entity %q: %w", entityID, ledgers.ErrNotFound)
	}
	return e, err
}

// FetchLedger implements ledgers.LedgerReader
func (r *SQLiteRepository) FetchLedger(ctx context.Context, entityID string) (core.Ledger, error) {
	e, err := r.FetchEntity(ctx, entityID)
	if err != nil {
		return core.Ledger{}, err
	}

	rows, err := r.db.QueryContext(ctx, selectLedgerRows, entityID)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("query ledger rows: %w", err)
	}
	defer rows.Close()

	var lr []LedgerRow
	for rows.Next() {
		var (
			row  LedgerRow
			cols [12]string
		)
		dest := []any{&row.Group, &row.Position, &row.Category}
		for i := range cols {
			dest = append(dest, &cols[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return core.Ledger{}, fmt.Errorf("scan ledger row: %w", err)
		}
		if row.Values, err = ParseMonthColumns(cols); err != nil {
			return core.Ledger{}, fmt.Errorf("ledger %q %s/%q: %w", entityID, row.Group, row.Category, err)
		}
		lr = append(lr, row)
	}
	if err := rows.Err(); err != nil {
		return core.Ledger{}, fmt.Errorf("iterate ledger rows: %w", err)
	}

	return AssembleLedger(e.ID, e.Name, lr)
}

// SaveLedger implements ledgers.LedgerWriter. The ledger is replaced in one transaction.
func (r *SQLiteRepository) SaveLedger(ctx context.Context, e core.Entity, l core.Ledger) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("save entity: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, upsertEntity,
		e.ID, e.Name, e.Company, e.Period, e.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("upsert entity: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_rows WHERE entity_id = ?`, e.ID); err != nil {
		return fmt.Errorf("clear ledger rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertLedgerRow)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	rows := FlattenLedger(l)
	for _, row := range rows {
		cols := MonthColumns(row.Values)
		args := []any{e.ID, string(row.Group), row.Position, row.Category}
		for _, c := range cols {
			args = append(args, c)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %s/%q: %w", row.Group, row.Category, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}

	slog.InfoContext(ctx, "Ledger saved to SQLite",
		"entity_id", e.ID,
		"name", e.Name,
		"rows", len(rows))
	return nil
}

// DeleteEntity implements ledgers.LedgerWriter
func (r *SQLiteRepository) DeleteEntity(ctx context.Context, entityID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_rows WHERE entity_id = ?`, entityID); err != nil {
		return fmt.Errorf("delete ledger rows: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, entityID)
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("entity %q: %w", entityID, ledgers.ErrNotFound)
	}
	return tx.Commit()
}
