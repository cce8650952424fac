package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	mw "github.com/fatflowers/shopcredits/internal/app/api/middleware"
	"github.com/fatflowers/shopcredits/internal/app/service/account"
	"github.com/fatflowers/shopcredits/internal/app/service/reconcile"
	platformredis "github.com/fatflowers/shopcredits/internal/platform/redis"
	"github.com/fatflowers/shopcredits/internal/platform/shopify"
	"github.com/fatflowers/shopcredits/pkg/logctx"
	"github.com/fatflowers/shopcredits/pkg/response"
	"github.com/fatflowers/shopcredits/pkg/types"
)

// ShopifyBilling is the part of the Admin API client the status poll needs.
type ShopifyBilling interface {
	ExchangeSessionToken(ctx context.Context, shop, sessionToken string) (string, error)
	ActiveSubscriptions(ctx context.Context, shop, accessToken string) ([]shopify.AppSubscription, error)
}

type SyncBillingRequest struct {
	Subscriptions []reconcile.SnapshotSubscription `json:"subscriptions"`
}

type BillingStatusResponse struct {
	Shop    string        `json:"shop"`
	Plan    types.PlanKey `json:"plan"`
	Credits int           `json:"credits"`
	// Synced is false when the poll was throttled and the stored state is returned as is.
	Synced  bool `json:"synced"`
	Updated bool `json:"updated"`
}

func toSnapshot(subs []shopify.AppSubscription) []reconcile.SnapshotSubscription {
	return lo.Map(subs, func(s shopify.AppSubscription, _ int) reconcile.SnapshotSubscription {
		return reconcile.SnapshotSubscription{
			ID:               s.ID,
			Name:             s.Name,
			Status:           s.Status,
			CurrentPeriodEnd: s.CurrentPeriodEnd,
			Test:             s.Test,
		}
	})
}

// @Summary      Sync Billing
// @Description  Reconciles the caller-supplied activeSubscriptions snapshot for the authenticated shop. Only the first subscription is considered; an empty list changes nothing.
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body SyncBillingRequest true "activeSubscriptions snapshot"
// @Success      200  {object}  handlers.RespSnapshotResult
// @Router       /api/v1/billing/sync [post]
func ApiSyncBilling(engine *reconcile.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SyncBillingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := engine.ReconcileFromSnapshot(c.Request.Context(), mw.ShopFromGin(c), req.Subscriptions)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Billing Status
// @Description  Fetches activeSubscriptions from Shopify with the shop's online token and reconciles them. Polls are throttled per shop; a throttled call returns the stored state. Shopify failures return 502 and change nothing.
// @Tags         Billing
// @Produce      json
// @Security     SessionToken
// @Success      200  {object}  handlers.RespBillingStatus
// @Failure      502  {object}  handlers.RespOK
// @Router       /api/v1/billing/status [get]
func ApiBillingStatus(api ShopifyBilling, throttle platformredis.Throttle, engine *reconcile.Engine, accounts *account.Store, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		shop := mw.ShopFromGin(c)
		l := logctx.FromGin(c, log)

		allowed, err := throttle.Allow(ctx, shop)
		claimed := err == nil && allowed
		if err != nil {
			// the poll itself still fails closed
			l.Warnw("billing_status_throttle_error", "error", err)
			allowed = true
		}
		// a failed poll gives the window back so the next call retries
		release := func() {
			if !claimed {
				return
			}
			if err := throttle.Release(context.WithoutCancel(ctx), shop); err != nil {
				l.Warnw("billing_status_throttle_release_failed", "error", err)
			}
		}

		out := &BillingStatusResponse{Shop: shop}
		if allowed {
			accessToken, err := api.ExchangeSessionToken(ctx, shop, mw.SessionTokenFromGin(c))
			if err != nil {
				l.Errorw("billing_status_exchange_failed", "error", err)
				release()
				fail(c, err)
				return
			}
			subs, err := api.ActiveSubscriptions(ctx, shop, accessToken)
			if err != nil {
				l.Errorw("billing_status_query_failed", "error", err)
				release()
				fail(c, err)
				return
			}
			res, err := engine.ReconcileFromSnapshot(ctx, shop, toSnapshot(subs))
			if err != nil {
				release()
				fail(c, err)
				return
			}
			out.Synced = true
			out.Updated = res.Updated
		} else {
			l.Debugw("billing_status_throttled")
		}

		user, err := accounts.GetOrCreate(ctx, shop)
		if err != nil {
			fail(c, err)
			return
		}
		out.Plan = user.Plan
		out.Credits = user.Credits
		c.JSON(http.StatusOK, response.OKT(out))
	}
}

func RegisterBillingRoutes(r gin.IRouter, api ShopifyBilling, throttle platformredis.Throttle, engine *reconcile.Engine, accounts *account.Store, log *zap.SugaredLogger) {
	r.POST("/sync", ApiSyncBilling(engine))
	r.GET("/status", ApiBillingStatus(api, throttle, engine, accounts, log))
}
