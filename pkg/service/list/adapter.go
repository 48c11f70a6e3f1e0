package list

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/rwool/kvgateway/pkg/tracing"
)

var tracer = otel.Tracer("github.com/rwool/kvgateway/pkg/service/list")

// Ensure RedisAdapter implements List.
var _ List = (*RedisAdapter)(nil)

// NewRedisAdapter creates a new RedisAdapter.
func NewRedisAdapter(c redis.Cmdable) *RedisAdapter {
	if c == nil {
		panic("nil list client")
	}
	return &RedisAdapter{c: c}
}

// RedisAdapter for a Redis client to implement the List interface.
type RedisAdapter struct {
	c redis.Cmdable
}

func stringsToInterfaces(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// Push appends values to the tail of the list at key and returns the length
// of the list after the push.
func (r *RedisAdapter) Push(ctx context.Context, key string, values ...string) (int64, error) {
	if len(key) == 0 {
		return 0, errors.New("invalid key")
	}
	if len(values) == 0 {
		return 0, errors.New("no values to push")
	}
	var n int64
	err := tracing.Command(ctx, tracer, "RPUSH", key, func(ctx context.Context) error {
		var err error
		n, err = r.c.RPush(ctx, key, stringsToInterfaces(values)...).Result()
		return err
	})
	if err != nil {
		return 0, errors.Wrapf(err, "error pushing to Redis list %q", key)
	}
	return n, nil
}

// Range returns every element of the list at key in insertion order.
func (r *RedisAdapter) Range(ctx context.Context, key string) ([]string, error) {
	var values []string
	err := tracing.Command(ctx, tracer, "LRANGE", key, func(ctx context.Context) error {
		var err error
		values, err = r.c.LRange(ctx, key, 0, -1).Result()
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error reading from Redis list %q", key)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}
