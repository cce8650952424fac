package middleware

import (
	"bytes"
	"crypto/subtle"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/shopcredits/internal/platform/shopify"
	"github.com/fatflowers/shopcredits/pkg/config"
	"github.com/fatflowers/shopcredits/pkg/logctx"
	"github.com/fatflowers/shopcredits/pkg/response"
)

const (
	HeaderAdminToken = "X-Admin-Token"

	// GinSessionTokenKey holds the raw App Bridge token for token exchange.
	GinSessionTokenKey = "sessionToken"
	// GinRawBodyKey holds the verified webhook body.
	GinRawBodyKey = "rawBody"

	maxWebhookBody = 1 << 20
)

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, msg))
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// SessionAuthMiddleware verifies the App Bridge session token and binds the
// shop it was issued for. Handlers read the shop from logctx.GinShopKey and
// never from the request body.
func SessionAuthMiddleware(cfg *config.Config, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		claims, err := shopify.VerifySessionToken(token, cfg.Shopify.APIKey, cfg.Shopify.APISecret)
		if err != nil {
			logctx.FromGin(c, log).Warnw("session_token_rejected", "error", err)
			unauthorized(c, "invalid session token")
			return
		}
		c.Set(GinSessionTokenKey, token)
		withShop(c, log, claims.Shop())
		c.Next()
	}
}

// AdminAuthMiddleware compares X-Admin-Token in constant time. An empty
// configured token rejects every request.
func AdminAuthMiddleware(cfg *config.Config, log *zap.SugaredLogger) gin.HandlerFunc {
	want := []byte(cfg.Admin.Token)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(HeaderAdminToken))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			logctx.FromGin(c, log).Warnw("admin_token_rejected", "path", c.Request.URL.Path)
			unauthorized(c, "invalid admin token")
			return
		}
		c.Next()
	}
}

// WebhookAuthMiddleware verifies X-Shopify-Hmac-Sha256 over the raw body and
// stores the body under GinRawBodyKey. The body is also restored on the
// request for handlers that bind it again.
func WebhookAuthMiddleware(cfg *config.Config, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "unreadable body"))
			return
		}
		if !shopify.VerifyWebhook(cfg.Shopify.APISecret, body, c.GetHeader(shopify.HeaderHmac)) {
			logctx.FromGin(c, log).Warnw("webhook_hmac_rejected",
				"topic", c.GetHeader(shopify.HeaderTopic),
				"shop", c.GetHeader(shopify.HeaderShopDomain),
			)
			unauthorized(c, "invalid webhook signature")
			return
		}
		c.Set(GinRawBodyKey, body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

// ShopFromGin returns the shop bound by SessionAuthMiddleware.
func ShopFromGin(c *gin.Context) string { return c.GetString(logctx.GinShopKey) }

// SessionTokenFromGin returns the raw session token bound by SessionAuthMiddleware.
func SessionTokenFromGin(c *gin.Context) string { return c.GetString(GinSessionTokenKey) }
