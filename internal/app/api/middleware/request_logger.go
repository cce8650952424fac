package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/shopcredits/pkg/logctx"
)

// RequestLoggerMiddleware attaches a request-scoped logger enriched with
// trace_id to gin.Context and request context.
func RequestLoggerMiddleware(base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetString(logctx.GinTraceIDKey)

		reqLogger := base.With("trace_id", traceID)
		c.Set(logctx.GinLoggerKey, reqLogger)
		c.Request = c.Request.WithContext(logctx.WithLogger(c.Request.Context(), reqLogger))

		if traceID != "" {
			c.Writer.Header().Set(HeaderRequestID, traceID)
		}

		c.Next()
	}
}

// withShop pins the authenticated shop onto the request logger.
func withShop(c *gin.Context, base *zap.SugaredLogger, shop string) {
	c.Set(logctx.GinShopKey, shop)
	l := logctx.FromGin(c, base).With("shop", shop)
	c.Set(logctx.GinLoggerKey, l)
	ctx := logctx.WithShop(c.Request.Context(), shop)
	c.Request = c.Request.WithContext(logctx.WithLogger(ctx, l))
}
