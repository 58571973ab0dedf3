// Package events holds LedgerEventPublisher implementations.
package events

import (
	"context"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/SscSPs/janseva_bank/internal/core/ports/publishers"
)

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

var _ publishers.LedgerEventPublisher = NopPublisher{}

func (NopPublisher) PublishLedgerEvent(context.Context, domain.LedgerEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
