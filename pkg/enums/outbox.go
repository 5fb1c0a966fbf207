package enums

import "fmt"

// OutboxEventType names the domain events emitted through the outbox.
type OutboxEventType string

const (
	OutboxEventOrderPlaced         OutboxEventType = "order.placed"
	OutboxEventOrderConfirmed      OutboxEventType = "order.confirmed"
	OutboxEventOrderShipped        OutboxEventType = "order.shipped"
	OutboxEventOrderDelivered      OutboxEventType = "order.delivered"
	OutboxEventOrderCancelled      OutboxEventType = "order.cancelled"
	OutboxEventInvoiceIssued       OutboxEventType = "invoice.issued"
	OutboxEventInvoicePaid         OutboxEventType = "invoice.paid"
	OutboxEventInvoiceOverdue      OutboxEventType = "invoice.overdue"
	OutboxEventWithdrawalDecided   OutboxEventType = "withdrawal.decided"
	OutboxEventStockBelowThreshold OutboxEventType = "stock.below_threshold"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventOrderPlaced,
	OutboxEventOrderConfirmed,
	OutboxEventOrderShipped,
	OutboxEventOrderDelivered,
	OutboxEventOrderCancelled,
	OutboxEventInvoiceIssued,
	OutboxEventInvoicePaid,
	OutboxEventInvoiceOverdue,
	OutboxEventWithdrawalDecided,
	OutboxEventStockBelowThreshold,
}

func (o OutboxEventType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxDLQErrorReason classifies why an event was dead-lettered.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts    OutboxDLQErrorReason = "max_attempts_exceeded"
	OutboxDLQReasonNonRetryable   OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonPayloadInvalid OutboxDLQErrorReason = "payload_invalid"
	OutboxDLQReasonPublishFailed  OutboxDLQErrorReason = "publish_failed"
)

func (o OutboxDLQErrorReason) String() string {
	return string(o)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateOrder      OutboxAggregateType = "order"
	OutboxAggregateInvoice    OutboxAggregateType = "invoice"
	OutboxAggregateWithdrawal OutboxAggregateType = "withdrawal"
	OutboxAggregateProduct    OutboxAggregateType = "product"
)

func (o OutboxAggregateType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutboxAggregateType.
func (o OutboxAggregateType) IsValid() bool {
	switch o {
	case OutboxAggregateOrder, OutboxAggregateInvoice, OutboxAggregateWithdrawal, OutboxAggregateProduct:
		return true
	default:
		return false
	}
}
