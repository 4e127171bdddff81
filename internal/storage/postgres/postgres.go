// Package postgres stores entities and ledgers in a hosted PostgreSQL database.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"balancete/internal/core"
	"balancete/internal/ledgers"
	"balancete/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	selectLedgerRows = `SELECT group_type, position, category,
		m01::text, m02::text, m03::text, m04::text, m05::text, m06::text,
		m07::text, m08::text, m09::text, m10::text, m11::text, m12::text
		FROM ledger_rows WHERE entity_id = $1 ORDER BY group_type, position`

	insertLedgerRow = `INSERT INTO ledger_rows (entity_id, group_type, position, category,
		m01, m02, m03, m04, m05, m06, m07, m08, m09, m10, m11, m12)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9::numeric, $10::numeric,
		$11::numeric, $12::numeric, $13::numeric, $14::numeric, $15::numeric, $16::numeric)`

	upsertEntity = `INSERT INTO entities (id, name, company, period, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, company = EXCLUDED.company, period = EXCLUDED.period`

	selectEntity = `SELECT id, name, company, period, created_at FROM entities`
)

// Repository implements ledgers.Repository over the pgx database/sql driver.
type Repository struct {
	db *sql.DB
}

var _ ledgers.Repository = (*Repository)(nil)

// New connects to databaseURL, verifies the connection and migrates the schema.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx migrate driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// m.Close would close db through the driver, so it is left open here.
	return storage.ApplyMigrations(m, "postgres")
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) ListEntities(ctx context.Context) ([]core.Entity, error) {
	rows, err := r.db.QueryContext(ctx, selectEntity+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []core.Entity
	for rows.Next() {
		var e core.Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.Company, &e.Period, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) FetchEntity(ctx context.Context, entityID string) (core.Entity, error) {
	var e core.Entity
	err := r.db.QueryRowContext(ctx, selectEntity+` WHERE id = $1`, entityID).
		Scan(&e.ID, &e.Name, &e.Company, &e.Period, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entity{}, fmt.Errorf("entity %q: %w", entityID, ledgers.ErrNotFound)
	}
	if err != nil {
		return core.Entity{}, fmt.Errorf("fetch entity: %w", err)
	}
	return e, nil
}

func (r *Repository) FetchLedger(ctx context.Context, entityID string) (core.Ledger, error) {
	e, err := r.FetchEntity(ctx, entityID)
	if err != nil {
		return core.Ledger{}, err
	}

	rows, err := r.db.QueryContext(ctx, selectLedgerRows, entityID)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("query ledger rows: %w", err)
	}
	defer rows.Close()

	var lr []storage.LedgerRow
	for rows.Next() {
		var (
			row  storage.LedgerRow
			cols [12]string
		)
		dest := []any{&row.Group, &row.Position, &row.Category}
		for i := range cols {
			dest = append(dest, &cols[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return core.Ledger{}, fmt.Errorf("scan ledger row: %w", err)
		}
		if row.Values, err = storage.ParseMonthColumns(cols); err != nil {
			return core.Ledger{}, fmt.Errorf("ledger %q %s/%q: %w", entityID, row.Group, row.Category, err)
		}
		lr = append(lr, row)
	}
	if err := rows.Err(); err != nil {
		return core.Ledger{}, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return storage.AssembleLedger(e.ID, e.Name, lr)
}

func (r *Repository) SaveLedger(ctx context.Context, e core.Entity, l core.Ledger) error {
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

	if _, err := tx.ExecContext(ctx, upsertEntity, e.ID, e.Name, e.Company, e.Period, e.CreatedAt); err != nil {
		return fmt.Errorf("upsert entity: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_rows WHERE entity_id = $1`, e.ID); err != nil {
		return fmt.Errorf("clear ledger rows: %w", err)
	}

	rows := storage.FlattenLedger(l)
	for _, row := range rows {
		args := []any{e.ID, string(row.Group), row.Position, row.Category}
		for _, c := range storage.MonthColumns(row.Values) {
			args = append(args, c)
		}
		if _, err := tx.ExecContext(ctx, insertLedgerRow, args...); err != nil {
			return fmt.Errorf("insert %s/%q: %w", row.Group, row.Category, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}
	slog.InfoContext(ctx, "Ledger saved to Postgres", "entity_id", e.ID, "rows", len(rows))
	return nil
}

// DeleteEntity removes the entity; its rows go with it through ON DELETE CASCADE.
func (r *Repository) DeleteEntity(ctx context.Context, entityID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE id = $1`, entityID)
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("entity %q: %w", entityID, ledgers.ErrNotFound)
	}
	return nil
}
