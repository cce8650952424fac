package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/shopcredits/internal/app/api/middleware"
	nh "github.com/fatflowers/shopcredits/internal/app/service/notification_handler"
	"github.com/fatflowers/shopcredits/internal/platform/shopify"
	"github.com/fatflowers/shopcredits/pkg/apperr"
	"github.com/fatflowers/shopcredits/pkg/logctx"
	"github.com/fatflowers/shopcredits/pkg/response"
)

// @Summary      Shopify Webhook
// @Description  Receives Shopify webhooks. The body is verified with X-Shopify-Hmac-Sha256. app_subscriptions/update is reconciled; other topics are acknowledged.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        X-Shopify-Hmac-Sha256  header  string  true  "base64 HMAC-SHA256 of the body"
// @Param        X-Shopify-Topic        header  string  true  "webhook topic"
// @Param        X-Shopify-Shop-Domain  header  string  true  "shop domain"
// @Param        payload body shopify.AppSubscriptionWebhook true "webhook payload"
// @Success      200  {object}  handlers.RespOK
// @Failure      401  {object}  handlers.RespOK
// @Failure      500  {object}  handlers.RespOK
// @Router       /webhooks/shopify [post]
func ApiShopifyWebhook(h *nh.NotificationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Get(mw.GinRawBodyKey)
		body, _ := raw.([]byte)
		d := nh.Delivery{
			Topic:     c.GetHeader(shopify.HeaderTopic),
			Shop:      c.GetHeader(shopify.HeaderShopDomain),
			WebhookID: c.GetHeader(shopify.HeaderWebhookID),
			TraceID:   logctx.TraceID(c.Request.Context()),
			Body:      body,
		}

		if err := h.HandleNotification(c.Request.Context(), d); err != nil {
			logctx.FromGin(c, h.Logger).Errorw("webhook_handle_error", "topic", d.Topic, "error", err.Error())
			switch apperr.KindOf(err) {
			case apperr.KindValidation, apperr.KindConflict, apperr.KindNotFound:
				// redelivery cannot fix a malformed or rejected payload
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			default:
				c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterWebhookRoutes(r gin.IRouter, h *nh.NotificationHandler) {
	r.POST("/shopify", ApiShopifyWebhook(h))
}
