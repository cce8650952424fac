package notification_handler

import (
	"context"

	"github.com/fatflowers/shopcredits/internal/app/service/reconcile"
)

// NotificationParser extracts the reconciliation input from one webhook
// delivery.
type NotificationParser interface {
	GetTopic(ctx context.Context) string
	GetShop(ctx context.Context) string
	GetSubscriptionID(ctx context.Context) string
	// GetEvent returns nil for deliveries that carry no subscription change.
	GetEvent(ctx context.Context) (*reconcile.SubscriptionEvent, error)
	GetData(ctx context.Context) any
}

// Delivery is a verified webhook request.
type Delivery struct {
	Topic     string
	Shop      string
	WebhookID string
	TraceID   string
	Body      []byte
}
