package notification_handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	notificationlog "github.com/fatflowers/shopcredits/internal/app/service/notification_log"
	"github.com/fatflowers/shopcredits/internal/app/service/reconcile"
	"github.com/fatflowers/shopcredits/internal/models"
	"github.com/fatflowers/shopcredits/internal/platform/db/dbtest"
	"github.com/fatflowers/shopcredits/internal/platform/shopify"
	"github.com/fatflowers/shopcredits/pkg/apperr"
)

// stubReconciler records webhook events.
type stubReconciler struct {
	calls []reconcile.SubscriptionEvent
	shops []string
	err   error
}

func (s *stubReconciler) ReconcileFromWebhook(_ context.Context, shop string, ev reconcile.SubscriptionEvent) error {
	s.calls = append(s.calls, ev)
	s.shops = append(s.shops, shop)
	return s.err
}

func newTestHandler(t *testing.T) (*NotificationHandler, *stubReconciler, *gorm.DB) {
	t.Helper()
	gdb := dbtest.Open(t)
	log := zap.NewNop().Sugar()
	stub := &stubReconciler{}
	return newNotificationHandler(notificationlog.New(gdb, log), stub, nil, log), stub, gdb
}

const updateBody = `{"app_subscription":{
	"admin_graphql_api_id":"gid://shopify/AppSubscription/1029266950",
	"id":1029266950,
	"name":"B1 Bulk Product SEO Optimizer - Pro",
	"status":"ACTIVE",
	"admin_graphql_api_shop_id":"gid://shopify/Shop/548380009",
	"created_at":"2026-06-01T10:00:00-04:00",
	"updated_at":"2026-06-01T10:00:05-04:00",
	"currency":"USD",
	"capped_amount":"20.0"
}}`

func statuses(t *testing.T, gdb *gorm.DB, webhookID string) []models.NotificationLogStatus {
	t.Helper()
	var rows []models.NotificationLog
	require.NoError(t, gdb.Where("webhook_id = ?", webhookID).Order("created_at").Find(&rows).Error)
	out := make([]models.NotificationLogStatus, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Status)
	}
	return out
}

func TestHandleNotification_AppSubscriptionUpdate(t *testing.T) {
	h, stub, gdb := newTestHandler(t)

	err := h.HandleNotification(context.Background(), Delivery{
		Topic: shopify.TopicAppSubscriptionsUpdate, Shop: "demo.myshopify.com", WebhookID: "wh-1", Body: []byte(updateBody),
	})
	require.NoError(t, err)
	require.Len(t, stub.calls, 1)
	ev := stub.calls[0]
	require.Equal(t, "gid://shopify/AppSubscription/1029266950", ev.ID())
	require.Equal(t, "1029266950", ev.SubscriptionID)
	require.Equal(t, "ACTIVE", ev.Status)
	require.Equal(t, "B1 Bulk Product SEO Optimizer - Pro", ev.PlanName)
	require.True(t, ev.UpdatedAt.Equal(time.Date(2026, 6, 1, 14, 0, 5, 0, time.UTC)))
	require.Nil(t, ev.PeriodEnd)
	require.Equal(t, []string{"demo.myshopify.com"}, stub.shops)

	require.Equal(t, []models.NotificationLogStatus{models.NotificationLogStatusReceived, models.NotificationLogStatusHandled}, statuses(t, gdb, "wh-1"))

	// a redelivery of a handled webhook is acknowledged without reapplying
	require.NoError(t, h.HandleNotification(context.Background(), Delivery{
		Topic: shopify.TopicAppSubscriptionsUpdate, Shop: "demo.myshopify.com", WebhookID: "wh-1", Body: []byte(updateBody),
	}))
	require.Len(t, stub.calls, 1)
}

func TestHandleNotification_LegacyIDOnly(t *testing.T) {
	h, stub, _ := newTestHandler(t)
	err := h.HandleNotification(context.Background(), Delivery{
		Topic: shopify.TopicAppSubscriptionsUpdate, Shop: "demo.myshopify.com", WebhookID: "wh-2",
		Body: []byte(`{"app_subscription":{"id":"77","name":"Starter","status":"CANCELLED"}}`),
	})
	require.NoError(t, err)
	require.Equal(t, "gid://shopify/AppSubscription/77", stub.calls[0].ID())
}

func TestHandleNotification_Failures(t *testing.T) {
	h, stub, gdb := newTestHandler(t)
	ctx := context.Background()

	stub.err = apperr.Persistence("reconcile.apply", errors.New("db down"))
	err := h.HandleNotification(ctx, Delivery{
		Topic: shopify.TopicAppSubscriptionsUpdate, Shop: "demo.myshopify.com", WebhookID: "wh-3", Body: []byte(updateBody),
	})
	require.True(t, apperr.IsKind(err, apperr.KindPersistence))
	require.Equal(t, []models.NotificationLogStatus{models.NotificationLogStatusReceived, models.NotificationLogStatusHandleFailed}, statuses(t, gdb, "wh-3"))

	err = h.HandleNotification(ctx, Delivery{
		Topic: shopify.TopicAppSubscriptionsUpdate, Shop: "demo.myshopify.com", WebhookID: "wh-4", Body: []byte(`not json`),
	})
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	err = h.HandleNotification(ctx, Delivery{
		Topic: shopify.TopicAppSubscriptionsUpdate, Shop: "demo.myshopify.com", WebhookID: "wh-5", Body: []byte(`{"app_subscription":{"name":"Pro"}}`),
	})
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestHandleNotification_OtherTopicIgnored(t *testing.T) {
	h, stub, gdb := newTestHandler(t)
	err := h.HandleNotification(context.Background(), Delivery{
		Topic: shopify.TopicAppUninstalled, Shop: "demo.myshopify.com", WebhookID: "wh-6", Body: []byte(`{"id":1}`),
	})
	require.NoError(t, err)
	require.Empty(t, stub.calls)
	require.Equal(t, []models.NotificationLogStatus{models.NotificationLogStatusReceived, models.NotificationLogStatusIgnored}, statuses(t, gdb, "wh-6"))
}
