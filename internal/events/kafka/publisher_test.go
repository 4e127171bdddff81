package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"balancete/internal/events"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, source: "node-1", breaker: events.NewBreaker()}

	e := events.NewLedgerEvent(events.LedgerIngested, "e1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "e1" {
		t.Fatalf("unexpected messages %+v", w.msgs)
	}

	got, err := events.LedgerEventFromJSON(w.msgs[0].Value)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Source != "node-1" || got.Type != events.LedgerIngested {
		t.Fatalf("unexpected payload %+v", got)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("Close: %v, closed=%v", err, w.closed)
	}
}

func TestPublisher_BreakerOpensAfterFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := &Publisher{writer: w, breaker: events.NewBreaker()}
	e := events.NewLedgerEvent(events.EntityDeleted, "e1", time.Now())

	for i := 0; i < 5; i++ {
		if err := p.Publish(context.Background(), e); err == nil {
			t.Fatal("expected write error")
		}
	}
	if err := p.Publish(context.Background(), e); !errors.Is(err, events.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestNewPublisher(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "balancete.ledgers", "node-1")
	w, ok := p.writer.(*kafka.Writer)
	if !ok {
		t.Fatalf("writer is %T", p.writer)
	}
	if w.Topic != "balancete.ledgers" {
		t.Fatalf("topic = %q", w.Topic)
	}
}
