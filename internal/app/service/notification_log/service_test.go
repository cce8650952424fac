package notification_log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/shopcredits/internal/models"
	"github.com/fatflowers/shopcredits/internal/platform/db/dbtest"
)

func TestSaveAndHandled(t *testing.T) {
	s := New(dbtest.Open(t), zap.NewNop().Sugar())
	ctx := context.Background()

	s.Save(ctx, nil)
	s.Save(ctx, &models.NotificationLog{
		Topic: "app_subscriptions/update", Shop: "a.myshopify.com", WebhookID: "w-1",
		Data: datatypes.JSON(`{}`), Status: models.NotificationLogStatusReceived,
	})

	handled, err := s.Handled(ctx, "w-1")
	require.NoError(t, err)
	require.False(t, handled)

	s.Save(ctx, &models.NotificationLog{
		Topic: "app_subscriptions/update", Shop: "a.myshopify.com", WebhookID: "w-1",
		Data: datatypes.JSON(`{}`), Status: models.NotificationLogStatusHandled,
	})
	handled, err = s.Handled(ctx, "w-1")
	require.NoError(t, err)
	require.True(t, handled)

	handled, err = s.Handled(ctx, "")
	require.NoError(t, err)
	require.False(t, handled)

	rows, err := s.ListByShop(ctx, "a.myshopify.com", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotEmpty(t, rows[0].ID)
}
