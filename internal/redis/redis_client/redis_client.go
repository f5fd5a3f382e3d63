package redis_client

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient returns a pinged client. Notifications only need a handful
// of connections: one subscriber plus publishers from the admin endpoint.
func NewRedisClient(host string, port int) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		PoolSize: 8,
	})

	ctx, cancelFunc := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFunc()
	if err := rc.Ping(ctx).Err(); err != nil {
		err = fmt.Errorf("redis connection failed: %w", err)
		zap.L().Error("redis_connect", zap.Error(err))
		_ = rc.Close()
		return nil, err
	}
	return rc, nil
}
