package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_ConfiguresWriter(t *testing.T) {
	p := NewPublisher([]string{"127.0.0.1:9092"}, "")
	defer p.Close()

	assert.Equal(t, DefaultTopic, p.writer.Topic)
	assert.Equal(t, batchTimeout, p.writer.BatchTimeout)
	assert.LessOrEqual(t, p.writer.BatchTimeout, 50*time.Millisecond)
}

func TestPublishLedgerEvent_ReturnsWithinTimeout(t *testing.T) {
	// Nothing listens on port 1, so the write can only fail.
	p := NewPublisher([]string{"127.0.0.1:1"}, "ledger_events_test")
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := p.PublishLedgerEvent(ctx, domain.LedgerEvent{EventID: "evt-1", AccountID: "acc-1", Operation: domain.OperationDeposit})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Contains(t, err.Error(), "evt-1")
}
