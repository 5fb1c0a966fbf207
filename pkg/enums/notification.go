package enums

import "fmt"

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotificationTypeOrderPlaced        NotificationType = "order_placed"
	NotificationTypeOrderConfirmed     NotificationType = "order_confirmed"
	NotificationTypeOrderShipped       NotificationType = "order_shipped"
	NotificationTypeOrderDelivered     NotificationType = "order_delivered"
	NotificationTypeOrderCancelled     NotificationType = "order_cancelled"
	NotificationTypeInvoiceIssued      NotificationType = "invoice_issued"
	NotificationTypeInvoicePaid        NotificationType = "invoice_paid"
	NotificationTypeInvoiceOverdue     NotificationType = "invoice_overdue"
	NotificationTypeWithdrawalDecision NotificationType = "withdrawal_decision"
	NotificationTypeStockAlert         NotificationType = "stock_alert"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderPlaced,
	NotificationTypeOrderConfirmed,
	NotificationTypeOrderShipped,
	NotificationTypeOrderDelivered,
	NotificationTypeOrderCancelled,
	NotificationTypeInvoiceIssued,
	NotificationTypeInvoicePaid,
	NotificationTypeInvoiceOverdue,
	NotificationTypeWithdrawalDecision,
	NotificationTypeStockAlert,
}

func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
