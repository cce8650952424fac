package notification_handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatflowers/shopcredits/internal/app/service/reconcile"
	"github.com/fatflowers/shopcredits/internal/platform/shopify"
	"github.com/fatflowers/shopcredits/pkg/apperr"
)

// AppSubscriptionParser handles app_subscriptions/update deliveries.
type AppSubscriptionParser struct {
	delivery Delivery
	payload  *shopify.AppSubscriptionWebhook
}

// GetShopifyNotificationParser decodes the body for the delivery's topic.
func GetShopifyNotificationParser(d Delivery) (NotificationParser, error) {
	switch d.Topic {
	case shopify.TopicAppSubscriptionsUpdate:
		var payload shopify.AppSubscriptionWebhook
		if err := json.Unmarshal(d.Body, &payload); err != nil {
			return nil, apperr.Validation("notification.parse", fmt.Sprintf("invalid app_subscription payload: %v", err))
		}
		return &AppSubscriptionParser{delivery: d, payload: &payload}, nil
	default:
		return &ignoredParser{delivery: d}, nil
	}
}

func (p *AppSubscriptionParser) GetTopic(ctx context.Context) string { return p.delivery.Topic }
func (p *AppSubscriptionParser) GetShop(ctx context.Context) string  { return p.delivery.Shop }

func (p *AppSubscriptionParser) GetSubscriptionID(ctx context.Context) string {
	sub := p.payload.AppSubscription
	if sub.AdminGraphqlAPIID != "" {
		return sub.AdminGraphqlAPIID
	}
	return sub.LegacyID()
}

func (p *AppSubscriptionParser) GetEvent(ctx context.Context) (*reconcile.SubscriptionEvent, error) {
	sub := p.payload.AppSubscription
	ev := &reconcile.SubscriptionEvent{
		SubscriptionID:    sub.LegacyID(),
		AdminGraphqlAPIID: sub.AdminGraphqlAPIID,
		PlanName:          sub.Name,
		Status:            sub.Status,
		PeriodEnd:         sub.CurrentPeriodEnd,
		IsTest:            sub.Test,
		UpdatedAt:         sub.UpdatedAt,
	}
	if ev.ID() == "" {
		return nil, apperr.Validation("notification.GetEvent", "app_subscription has no id")
	}
	return ev, nil
}

func (p *AppSubscriptionParser) GetData(ctx context.Context) any { return p.payload }

// ignoredParser acknowledges topics that do not affect billing.
type ignoredParser struct {
	delivery Delivery
}

func (p *ignoredParser) GetTopic(ctx context.Context) string          { return p.delivery.Topic }
func (p *ignoredParser) GetShop(ctx context.Context) string           { return p.delivery.Shop }
func (p *ignoredParser) GetSubscriptionID(ctx context.Context) string { return "" }
func (p *ignoredParser) GetEvent(ctx context.Context) (*reconcile.SubscriptionEvent, error) {
	return nil, nil
}
func (p *ignoredParser) GetData(ctx context.Context) any { return json.RawMessage(p.delivery.Body) }
