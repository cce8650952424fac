package notification_log

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/shopcredits/internal/models"
	"github.com/fatflowers/shopcredits/pkg/apperr"
	"github.com/fatflowers/shopcredits/pkg/logctx"
	"github.com/fatflowers/shopcredits/pkg/tool"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save persists a webhook delivery log row. Failures are logged and
// swallowed: losing an audit row must not fail the delivery.
func (s *Service) Save(ctx context.Context, entry *models.NotificationLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = tool.NewID()
	}
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(entry).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("notification_log_save_failed", "webhook_id", entry.WebhookID, "error", err)
	}
}

// Handled reports whether a delivery with webhookID was already processed
// successfully. Shopify reuses the webhook id on redelivery.
func (s *Service) Handled(ctx context.Context, webhookID string) (bool, error) {
	if webhookID == "" {
		return false, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.NotificationLog{}).
		Where("webhook_id = ? AND status = ?", webhookID, models.NotificationLogStatusHandled).
		Count(&n).Error
	if err != nil {
		return false, apperr.Persistence("notification_log.Handled", err)
	}
	return n > 0, nil
}

// ListByShop returns the latest deliveries for a shop.
func (s *Service) ListByShop(ctx context.Context, shop string, limit int) ([]*models.NotificationLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []*models.NotificationLog
	if err := s.db.WithContext(ctx).Where("shop = ?", shop).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, apperr.Persistence("notification_log.ListByShop", fmt.Errorf("failed to list notification logs: %w", err))
	}
	return rows, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
