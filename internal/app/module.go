package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/shopcredits/internal/app/api/server"
	"github.com/fatflowers/shopcredits/internal/app/service/account"
	"github.com/fatflowers/shopcredits/internal/app/service/discount"
	notificationhandler "github.com/fatflowers/shopcredits/internal/app/service/notification_handler"
	notificationlog "github.com/fatflowers/shopcredits/internal/app/service/notification_log"
	"github.com/fatflowers/shopcredits/internal/app/service/plan"
	"github.com/fatflowers/shopcredits/internal/app/service/reconcile"
	"github.com/fatflowers/shopcredits/internal/app/service/statistics"
	"github.com/fatflowers/shopcredits/internal/app/service/subscription"
	"github.com/fatflowers/shopcredits/internal/platform/db"
	"github.com/fatflowers/shopcredits/internal/platform/redis"
	"github.com/fatflowers/shopcredits/internal/platform/shopify"
	"github.com/fatflowers/shopcredits/pkg/config"
	"github.com/fatflowers/shopcredits/pkg/logger"
	"github.com/fatflowers/shopcredits/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	redis.Module,
	shopify.Module,
	server.Module,
	plan.Module,
	account.Module,
	subscription.Module,
	reconcile.Module,
	discount.Module,
	statistics.Module,
	notificationlog.Module,
	notificationhandler.Module,
)
