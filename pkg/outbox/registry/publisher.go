package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/matthieuvidal/fermelink-backend/pkg/config"
	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	"github.com/matthieuvidal/fermelink-backend/pkg/outbox"
	"github.com/matthieuvidal/fermelink-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.EventsTopic == "" {
		return nil, fmt.Errorf("events topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	topic := cfg.EventsTopic

	reg.register(EventDescriptor{
		EventType:      enums.OutboxEventOrderPlaced,
		AggregateType:  enums.OutboxAggregateOrder,
		Topic:          topic,
		PayloadFactory: func() interface{} { return &payloads.OrderPlacedEvent{} },
	})
	for _, eventType := range []enums.OutboxEventType{
		enums.OutboxEventOrderConfirmed,
		enums.OutboxEventOrderShipped,
		enums.OutboxEventOrderDelivered,
		enums.OutboxEventOrderCancelled,
	} {
		reg.register(EventDescriptor{
			EventType:      eventType,
			AggregateType:  enums.OutboxAggregateOrder,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.OrderStatusEvent{} },
		})
	}
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.OutboxEventInvoiceIssued,
			AggregateType:  enums.OutboxAggregateInvoice,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.InvoiceIssuedEvent{} },
		},
		{
			EventType:      enums.OutboxEventInvoicePaid,
			AggregateType:  enums.OutboxAggregateInvoice,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.InvoicePaidEvent{} },
		},
		{
			EventType:      enums.OutboxEventInvoiceOverdue,
			AggregateType:  enums.OutboxAggregateInvoice,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.InvoiceOverdueEvent{} },
		},
		{
			EventType:      enums.OutboxEventWithdrawalDecided,
			AggregateType:  enums.OutboxAggregateWithdrawal,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.WithdrawalDecidedEvent{} },
		},
		{
			EventType:      enums.OutboxEventStockBelowThreshold,
			AggregateType:  enums.OutboxAggregateProduct,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.StockAlertEvent{} },
		},
	} {
		reg.register(desc)
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
