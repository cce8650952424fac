package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fatflowers/shopcredits/pkg/config"
	"github.com/fatflowers/shopcredits/pkg/tool"
)

// Throttle admits at most one call per key per window. Release gives the
// window back after a call that did not complete.
type Throttle interface {
	Allow(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type setNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// KeyThrottle implements Throttle with SET NX and a TTL, so the window is
// shared by every replica.
type KeyThrottle struct {
	client setNXer
	prefix string
	window time.Duration
}

func (t *KeyThrottle) Allow(ctx context.Context, key string) (bool, error) {
	return t.client.SetNX(ctx, tool.JoinKey(t.prefix, key), time.Now().Unix(), t.window).Result()
}

func (t *KeyThrottle) Release(ctx context.Context, key string) error {
	return t.client.Del(ctx, tool.JoinKey(t.prefix, key)).Err()
}

// allowAll is used when redis is not configured.
type allowAll struct{}

func (allowAll) Allow(context.Context, string) (bool, error) { return true, nil }

func (allowAll) Release(context.Context, string) error { return nil }

// NewThrottle builds the billing status poll throttle. Without a redis
// client, or with a zero window, every call is allowed.
func NewThrottle(client *goredis.Client, cfg *config.Config) Throttle {
	if client == nil || cfg.Redis.StatusPollInterval <= 0 {
		return allowAll{}
	}
	return &KeyThrottle{client: client, prefix: "shopcredits:status_poll", window: cfg.Redis.StatusPollInterval}
}
