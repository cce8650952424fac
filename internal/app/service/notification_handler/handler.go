package notification_handler

import (
	"context"
	"encoding/json"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	notificationlog "github.com/fatflowers/shopcredits/internal/app/service/notification_log"
	"github.com/fatflowers/shopcredits/internal/app/service/reconcile"
	"github.com/fatflowers/shopcredits/internal/models"
	"github.com/fatflowers/shopcredits/pkg/logctx"
	"github.com/fatflowers/shopcredits/pkg/metrics"
)

// Reconciler is the part of the reconciliation engine webhooks drive.
type Reconciler interface {
	ReconcileFromWebhook(ctx context.Context, shop string, ev reconcile.SubscriptionEvent) error
}

type NotificationHandler struct {
	notifSvc *notificationlog.Service
	engine   Reconciler
	metrics  *metrics.Business
	Logger   *zap.SugaredLogger
}

func NewNotificationHandler(notif *notificationlog.Service, engine *reconcile.Engine, m *metrics.Business, log *zap.SugaredLogger) *NotificationHandler {
	return newNotificationHandler(notif, engine, m, log)
}

func newNotificationHandler(notif *notificationlog.Service, engine Reconciler, m *metrics.Business, log *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{notifSvc: notif, engine: engine, metrics: m, Logger: log}
}

// HandleNotification logs the delivery, applies it and logs the result.
// The returned error decides whether Shopify should redeliver.
func (h *NotificationHandler) HandleNotification(ctx context.Context, d Delivery) (resErr error) {
	log := logctx.FromCtx(ctx, h.Logger).With("topic", d.Topic, "webhook_id", d.WebhookID)

	parser, err := GetShopifyNotificationParser(d)
	if err != nil {
		raw, _ := json.Marshal(string(d.Body))
		h.save(ctx, d, raw, models.NotificationLogStatusHandleFailed, map[string]any{"error": err.Error()})
		h.metrics.Webhook(d.Topic, string(models.NotificationLogStatusHandleFailed))
		log.Warnw("webhook_parse_failed", "error", err)
		return err
	}
	dataBytes, _ := json.Marshal(parser.GetData(ctx))

	if done, err := h.notifSvc.Handled(ctx, d.WebhookID); err == nil && done {
		h.metrics.Webhook(d.Topic, string(models.NotificationLogStatusIgnored))
		log.Infow("webhook_duplicate")
		return nil
	}

	h.save(ctx, d, dataBytes, models.NotificationLogStatusReceived, nil)

	ev, err := parser.GetEvent(ctx)
	status := models.NotificationLogStatusHandled
	defer func() {
		resMap := map[string]any{"subscription_id": parser.GetSubscriptionID(ctx)}
		if resErr != nil {
			status = models.NotificationLogStatusHandleFailed
			resMap["error"] = resErr.Error()
		}
		h.save(ctx, d, dataBytes, status, resMap)
		h.metrics.Webhook(d.Topic, string(status))
	}()

	if err != nil {
		log.Errorw("webhook_event_invalid", "error", err)
		return err
	}
	if ev == nil {
		status = models.NotificationLogStatusIgnored
		log.Infow("webhook_ignored")
		return nil
	}

	log.Infow("webhook_received", "shop", d.Shop, "subscription_id", ev.ID(), "status", ev.Status, "plan_name", ev.PlanName)
	return h.engine.ReconcileFromWebhook(ctx, parser.GetShop(ctx), *ev)
}

func (h *NotificationHandler) save(ctx context.Context, d Delivery, data []byte, status models.NotificationLogStatus, result map[string]any) {
	entry := &models.NotificationLog{
		Topic:     d.Topic,
		Shop:      d.Shop,
		WebhookID: d.WebhookID,
		TraceID:   d.TraceID,
		Data:      datatypes.JSON(data),
		Status:    status,
	}
	if result != nil {
		resBytes, _ := json.Marshal(result)
		j := datatypes.JSON(resBytes)
		entry.Result = &j
	}
	h.notifSvc.Save(ctx, entry)
}

var Module = fx.Options(
	fx.Provide(NewNotificationHandler),
)
