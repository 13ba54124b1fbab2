package ratelimit

import (
	"context"
	"time"
)

// Config is a single sliding window: at most Limit hits per Window.
type Config struct {
	Limit  int
	Window time.Duration
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	GetCount(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}
