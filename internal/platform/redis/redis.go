package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/shopcredits/pkg/config"
)

var (
	ErrFailedToParseURL = errors.New("redis: failed to parse connection url")
	ErrNotReady         = errors.New("redis: not ready")
)

const (
	connectTimeout = 5 * time.Second
	retryAttempts  = 3
	retryInterval  = 500 * time.Millisecond
)

// Connect dials url and pings it, retrying a few times before giving up.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}

	for range retryAttempts {
		client := goredis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotReady, ctx.Err())
		case <-time.After(retryInterval):
		}
	}
	return nil, ErrNotReady
}

// NewClient connects when redis.url is set. It returns a nil client when
// redis is not configured; consumers fall back to in-process behaviour.
func NewClient(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) (*goredis.Client, error) {
	if cfg.Redis.URL == "" {
		log.Infow("redis disabled")
		return nil, nil
	}
	client, err := Connect(context.Background(), cfg.Redis.URL)
	if err != nil {
		log.Errorw("redis connect failed", "error", err)
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Infow("closing redis client")
			return client.Close()
		},
	})
	log.Infow("connected to redis")
	return client, nil
}

var Module = fx.Options(
	fx.Provide(NewClient),
	fx.Provide(NewThrottle),
)
