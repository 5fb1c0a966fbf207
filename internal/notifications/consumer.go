package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	"github.com/matthieuvidal/fermelink-backend/pkg/logger"
	"github.com/matthieuvidal/fermelink-backend/pkg/outbox"
	"github.com/matthieuvidal/fermelink-backend/pkg/outbox/idempotency"
	"github.com/matthieuvidal/fermelink-backend/pkg/outbox/payloads"
)

const consumerName = "notifications-worker"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer turns domain events into per-user notification rows. The actor who
// caused the event is excluded from the fan-out.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the notifications consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	rows, err := c.buildNotifications(eventType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, consumerName, eventID)
		return processResult{nack: true}
	}

	// Best-effort fan-out: each recipient row is independent, failures are
	// aggregated so a single bad insert does not drop the rest.
	var failures error
	for i := range rows {
		if err := c.repo.Create(ctx, &rows[i]); err != nil {
			failures = multierr.Append(failures, err)
		}
	}
	if failures != nil {
		c.logg.Error(logCtx, "notification fan-out incomplete", failures)
		_ = c.idempotency.Delete(ctx, consumerName, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{"recipients": len(rows)}), "notifications created")
	return processResult{ack: true}
}

// buildNotifications maps one domain event to its recipient rows.
func (c *Consumer) buildNotifications(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) ([]models.Notification, error) {
	exclude := uuid.Nil
	if envelope.Actor != nil {
		exclude = envelope.Actor.UserID
	}

	switch eventType {
	case enums.OutboxEventOrderPlaced:
		var p payloads.OrderPlacedEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		link := orderLink(p.OrderID)
		message := fmt.Sprintf("Nouvelle commande de %s EUR à préparer.", p.Total.StringFixed(2))
		rows := fanOut(p.ProducerIDs, exclude, enums.NotificationTypeOrderPlaced, "Nouvelle commande", message, link)
		if p.UserID != exclude {
			rows = append(rows, row(p.UserID, enums.NotificationTypeOrderPlaced, "Commande envoyée",
				"Votre commande a bien été transmise aux producteurs.", link))
		}
		return rows, nil

	case enums.OutboxEventOrderConfirmed, enums.OutboxEventOrderShipped,
		enums.OutboxEventOrderDelivered, enums.OutboxEventOrderCancelled:
		var p payloads.OrderStatusEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		notifType, title, message := statusCopy(p.Status)
		link := orderLink(p.OrderID)
		var rows []models.Notification
		if p.UserID != exclude {
			rows = append(rows, row(p.UserID, notifType, title, message, link))
		}
		producerMsg := fmt.Sprintf("La commande %s est passée au statut %s.", shortID(p.OrderID), p.Status)
		rows = append(rows, fanOut(p.ProducerIDs, exclude, notifType, title, producerMsg, link)...)
		return rows, nil

	case enums.OutboxEventInvoiceIssued:
		var p payloads.InvoiceIssuedEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Facture de %s EUR à régler avant le %s.",
			p.Amount.StringFixed(2), p.DueDate.Format("02/01/2006"))
		return []models.Notification{
			row(p.UserID, enums.NotificationTypeInvoiceIssued, "Facture émise", message, invoiceLink(p.InvoiceID)),
		}, nil

	case enums.OutboxEventInvoicePaid:
		var p payloads.InvoicePaidEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		link := invoiceLink(p.InvoiceID)
		var rows []models.Notification
		if p.UserID != exclude {
			rows = append(rows, row(p.UserID, enums.NotificationTypeInvoicePaid, "Facture réglée",
				fmt.Sprintf("Le paiement de %s EUR a été enregistré.", p.Amount.StringFixed(2)), link))
		}
		rows = append(rows, fanOut(p.ProducerIDs, exclude, enums.NotificationTypeInvoicePaid, "Facture réglée",
			fmt.Sprintf("La facture de la commande %s a été payée.", shortID(p.OrderID)), link)...)
		return rows, nil

	case enums.OutboxEventInvoiceOverdue:
		var p payloads.InvoiceOverdueEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("La facture était due le %s. Merci de régulariser.",
			p.DueDate.Format("02/01/2006"))
		return []models.Notification{
			row(p.UserID, enums.NotificationTypeInvoiceOverdue, "Facture en retard", message, invoiceLink(p.InvoiceID)),
		}, nil

	case enums.OutboxEventWithdrawalDecided:
		var p payloads.WithdrawalDecidedEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		title := "Retrait effectué"
		message := fmt.Sprintf("Votre retrait de %s EUR a été viré.", p.Amount.StringFixed(2))
		if p.Status == enums.WithdrawalStatusRejected {
			title = "Retrait refusé"
			message = fmt.Sprintf("Votre retrait de %s EUR a été refusé et recrédité.", p.Amount.StringFixed(2))
			if p.Reason != "" {
				message = fmt.Sprintf("%s Motif : %s", message, p.Reason)
			}
		}
		return []models.Notification{
			row(p.ProducerID, enums.NotificationTypeWithdrawalDecision, title, message, "/producer/wallet"),
		}, nil

	case enums.OutboxEventStockBelowThreshold:
		var p payloads.StockAlertEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Le stock de %s est descendu à %d (seuil : %d).",
			p.ProductName, p.Stock, p.Threshold)
		return []models.Notification{
			row(p.ProducerID, enums.NotificationTypeStockAlert, "Stock bas", message,
				fmt.Sprintf("/producer/products/%s", p.ProductID)),
		}, nil
	}

	return nil, nil
}

func statusCopy(status enums.OrderStatus) (enums.NotificationType, string, string) {
	switch status {
	case enums.OrderStatusConfirmed:
		return enums.NotificationTypeOrderConfirmed, "Commande confirmée", "Votre commande a été confirmée par le producteur."
	case enums.OrderStatusShipped:
		return enums.NotificationTypeOrderShipped, "Commande expédiée", "Votre commande est en route."
	case enums.OrderStatusDelivered:
		return enums.NotificationTypeOrderDelivered, "Commande livrée", "Votre commande a été livrée. Bon appétit !"
	default:
		return enums.NotificationTypeOrderCancelled, "Commande annulée", "Votre commande a été annulée."
	}
}

func fanOut(recipients []uuid.UUID, exclude uuid.UUID, notifType enums.NotificationType, title, message, link string) []models.Notification {
	rows := make([]models.Notification, 0, len(recipients))
	seen := map[uuid.UUID]bool{exclude: true, uuid.Nil: true}
	for _, id := range recipients {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, row(id, notifType, title, message, link))
	}
	return rows
}

func row(userID uuid.UUID, notifType enums.NotificationType, title, message, link string) models.Notification {
	return models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Link:    &link,
	}
}

func orderLink(orderID uuid.UUID) string {
	return fmt.Sprintf("/orders/%s", orderID)
}

func invoiceLink(invoiceID uuid.UUID) string {
	return fmt.Sprintf("/invoices/%s", invoiceID)
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
