// Package kafka publishes ledger events to a Kafka topic, keyed by entity id.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"balancete/internal/events"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer  messageWriter
	source  string
	breaker *events.Breaker
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(brokers []string, topic, source string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: 5 * time.Second,
			RequiredAcks: kafka.RequireOne,
		},
		source:  source,
		breaker: events.NewBreaker(),
	}
}

// Publish implements events.Publisher
func (p *Publisher) Publish(ctx context.Context, e events.LedgerEvent) error {
	if !p.breaker.Allow() {
		return fmt.Errorf("publish %s: %w", e.Type, events.ErrCircuitOpen)
	}
	if e.Source == "" {
		e.Source = p.source
	}

	data, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.EntityID),
		Value: data,
		Time:  e.Timestamp,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		p.breaker.RecordFailure()
		return fmt.Errorf("write kafka message: %w", err)
	}
	p.breaker.RecordSuccess()
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
