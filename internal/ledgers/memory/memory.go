// Package memory provides an in-process ledger repository for tests, local
// development and the demo dataset.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"balancete/internal/core"
	"balancete/internal/ledgers"
)

type record struct {
	seq    int64
	entity core.Entity
	ledger core.Ledger
}

// Store keeps entities and ledgers in a map guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	records map[string]record
	nextSeq int64
}

var _ ledgers.Repository = (*Store)(nil)

func New() *Store {
	return &Store{records: make(map[string]record)}
}

// NewWithDemo returns a store seeded with the demonstration condominium.
func NewWithDemo() *Store {
	s := New()
	e := core.DemoEntity(time.Now().UTC())
	s.put(e, core.DemoLedger(e.ID, e.Name))
	return s
}

func (s *Store) put(e core.Entity, l core.Ledger) {
	rec, ok := s.records[e.ID]
	if ok {
		e.CreatedAt = rec.entity.CreatedAt
	} else {
		s.nextSeq++
		rec.seq = s.nextSeq
	}
	rec.entity = e
	rec.ledger = l.Clone()
	s.records[e.ID] = rec
}

func (s *Store) ListEntities(_ context.Context) ([]core.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]record, 0, len(s.records))
	for _, r := range s.records {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]core.Entity, len(recs))
	for i, r := range recs {
		out[i] = r.entity
	}
	return out, nil
}

func (s *Store) FetchEntity(_ context.Context, entityID string) (core.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[entityID]
	if !ok {
		return core.Entity{}, fmt.Errorf("entity %q: %w", entityID, ledgers.ErrNotFound)
	}
	return r.entity, nil
}

func (s *Store) FetchLedger(_ context.Context, entityID string) (core.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[entityID]
	if !ok {
		return core.Ledger{}, fmt.Errorf("ledger %q: %w", entityID, ledgers.ErrNotFound)
	}
	return r.ledger.Clone(), nil
}

func (s *Store) SaveLedger(_ context.Context, e core.Entity, l core.Ledger) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("save entity: %w", err)
	}
	if l.EntityID != e.ID {
		return fmt.Errorf("save ledger: entity id mismatch %q != %q", l.EntityID, e.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(e, l)
	return nil
}

func (s *Store) DeleteEntity(_ context.Context, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[entityID]; !ok {
		return fmt.Errorf("entity %q: %w", entityID, ledgers.ErrNotFound)
	}
	delete(s.records, entityID)
	return nil
}

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }
