// Package events defines the change notifications emitted when a ledger is
// ingested or an entity is deleted, and the transports that carry them.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType names what happened to an entity.
type EventType string

const (
	LedgerIngested EventType = "ledger.ingested"
	EntityDeleted  EventType = "entity.deleted"
)

var ErrInvalidEvent = errors.New("invalid ledger event")

// LedgerEvent is the JSON payload published on every change.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	EntityID  string    `json:"entity_id"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(t EventType, entityID string, now time.Time) LedgerEvent {
	return LedgerEvent{Type: t, EntityID: entityID, Timestamp: now.UTC()}
}

func (e LedgerEvent) Validate() error {
	switch e.Type {
	case LedgerIngested, EntityDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.EntityID == "" {
		return fmt.Errorf("%w: empty entity id", ErrInvalidEvent)
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and validates an event.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return e, e.Validate()
}

// Publisher sends ledger events to a transport.
type Publisher interface {
	Publish(ctx context.Context, e LedgerEvent) error
	Close() error
}

// Handler processes one consumed event. Returning an error requeues it.
type Handler func(ctx context.Context, e LedgerEvent) error

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, LedgerEvent) error { return nil }
func (NopPublisher) Close() error                               { return nil }

var _ Publisher = NopPublisher{}
