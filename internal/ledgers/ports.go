// Package ledgers defines the persistence ports consumed by the ingestion
// service and the HTTP API. Implementations live in ledgers/memory, storage and
// storage/postgres.
package ledgers

import (
	"context"
	"errors"

	"balancete/internal/core"
)

// ErrNotFound is returned when an entity or its ledger does not exist.
var ErrNotFound = errors.New("not found")

// EntityLister lists registered entities in creation order.
type EntityLister interface {
	ListEntities(ctx context.Context) ([]core.Entity, error)
}

// LedgerReader returns a snapshot of one entity's ledger.
type LedgerReader interface {
	FetchLedger(ctx context.Context, entityID string) (core.Ledger, error)
}

// EntityReader returns one registry row.
type EntityReader interface {
	FetchEntity(ctx context.Context, entityID string) (core.Entity, error)
}

// LedgerWriter replaces an entity's ledger wholesale.
// SaveLedger keeps the creation time of an entity that already exists.
type LedgerWriter interface {
	SaveLedger(ctx context.Context, e core.Entity, l core.Ledger) error
	DeleteEntity(ctx context.Context, entityID string) error
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Repository composes every port. Returned ledgers never alias stored state.
type Repository interface {
	EntityLister
	EntityReader
	LedgerReader
	LedgerWriter
	HealthChecker
	Close() error
}
