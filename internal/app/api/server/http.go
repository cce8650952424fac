package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/shopcredits/docs"
	"github.com/fatflowers/shopcredits/internal/app/api/handlers"
	mw "github.com/fatflowers/shopcredits/internal/app/api/middleware"
	"github.com/fatflowers/shopcredits/internal/app/service/account"
	"github.com/fatflowers/shopcredits/internal/app/service/discount"
	nh "github.com/fatflowers/shopcredits/internal/app/service/notification_handler"
	notificationlog "github.com/fatflowers/shopcredits/internal/app/service/notification_log"
	"github.com/fatflowers/shopcredits/internal/app/service/plan"
	"github.com/fatflowers/shopcredits/internal/app/service/reconcile"
	"github.com/fatflowers/shopcredits/internal/app/service/statistics"
	"github.com/fatflowers/shopcredits/internal/app/service/subscription"
	platformredis "github.com/fatflowers/shopcredits/internal/platform/redis"
	"github.com/fatflowers/shopcredits/internal/platform/shopify"
	cfgpkg "github.com/fatflowers/shopcredits/pkg/config"
	"github.com/fatflowers/shopcredits/pkg/metrics"
)

type routeDeps struct {
	fx.In

	Log           *zap.SugaredLogger
	Cfg           *cfgpkg.Config
	DB            *gorm.DB
	NotifHandler  *nh.NotificationHandler
	Engine        *reconcile.Engine
	Accounts      *account.Store
	Subscriptions *subscription.Store
	Discounts     *discount.Service
	Notifications *notificationlog.Service
	Statistics    *statistics.Service
	Catalog       *plan.Catalog
	Shopify       *shopify.Client
	Throttle      platformredis.Throttle
}

func newEngine(cfg *cfgpkg.Config) *gin.Engine {
	if cfg.Env == cfgpkg.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	log := d.Log
	if d.Cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{Logger: log})
		p.SetListenAddress(d.Cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", d.Cfg.MetricsAddr)
	}
	logging := []gin.HandlerFunc{mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log)}

	pub := r.Group("/")
	pub.Use(logging...)
	handlers.RegisterHealthRoutes(pub, d.DB)
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	webhooks := r.Group("/webhooks")
	webhooks.Use(logging...)
	webhooks.Use(mw.WebhookAuthMiddleware(d.Cfg, log))
	handlers.RegisterWebhookRoutes(webhooks, d.NotifHandler)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(logging...)

	session := apiV1.Group("")
	session.Use(mw.SessionAuthMiddleware(d.Cfg, log))
	handlers.RegisterAccountRoutes(session, d.Accounts, d.Catalog, d.Discounts)
	handlers.RegisterBillingRoutes(session.Group("/billing"), d.Shopify, d.Throttle, d.Engine, d.Accounts, log)

	admin := apiV1.Group("/admin")
	admin.Use(mw.AdminAuthMiddleware(d.Cfg, log))
	handlers.RegisterAdminRoutes(admin, handlers.AdminDeps{
		Engine:        d.Engine,
		Accounts:      d.Accounts,
		Subscriptions: d.Subscriptions,
		Discounts:     d.Discounts,
		Notifications: d.Notifications,
		Statistics:    d.Statistics,
	})
	if d.Cfg.Admin.Token == "" {
		log.Warnw("admin.token is empty, admin API disabled")
	}
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
