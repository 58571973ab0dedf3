// Package kafka publishes ledger events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/SscSPs/janseva_bank/internal/core/ports/publishers"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "ledger_events"

const (
	// batchTimeout bounds how long a single event waits for a batch to fill.
	batchTimeout = 10 * time.Millisecond
	// publishTimeout bounds one PublishLedgerEvent call, retries included.
	publishTimeout = 5 * time.Second
)

// Publisher writes one message per committed ledger operation, keyed by the
// acting account so that an account's events stay in order on one partition.
type Publisher struct {
	writer *kafka.Writer
}

var _ publishers.LedgerEventPublisher = (*Publisher)(nil)

func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: batchTimeout,
			WriteTimeout: 5 * time.Second,
		},
	}
}

func (p *Publisher) PublishLedgerEvent(ctx context.Context, event domain.LedgerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode ledger event %s: %w", event.EventID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AccountID),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "operation", Value: []byte(event.Operation)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish ledger event %s: %w", event.EventID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
