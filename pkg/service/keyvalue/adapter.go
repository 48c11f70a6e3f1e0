package keyvalue

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/rwool/kvgateway/pkg/tracing"
)

var tracer = otel.Tracer("github.com/rwool/kvgateway/pkg/service/keyvalue")

// NewRedisAdapter creates a Redis client that supports storing and retrieving
// key value pairs.
func NewRedisAdapter(c redis.Cmdable) *RedisAdapter {
	if c == nil {
		panic("nil key value client")
	}
	return &RedisAdapter{c: c}
}

// Ensure RedisAdapter implements the KeyValue interface.
var _ KeyValue = (*RedisAdapter)(nil)

// RedisAdapter adapts a Redis client to support the KeyValue interface.
type RedisAdapter struct {
	c redis.Cmdable
}

// Set stores a string value for key in Redis. The key never expires.
func (r *RedisAdapter) Set(ctx context.Context, key, value string) error {
	if len(key) == 0 {
		return errors.New("invalid key")
	}
	err := tracing.Command(ctx, tracer, "SET", key, func(ctx context.Context) error {
		return r.c.Set(ctx, key, value, 0).Err()
	})
	return errors.Wrapf(err, "error storing value for key %q in Redis", key)
}

// Get retrieves the string value for key from Redis.
//
// ErrNotFound is returned if the key does not exist.
func (r *RedisAdapter) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := tracing.Command(ctx, tracer, "GET", key, func(ctx context.Context) error {
		var err error
		v, err = r.c.Get(ctx, key).Result()
		return err
	})
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", errors.Wrapf(err, "unable to retrieve value for key %q from Redis", key)
	}
	return v, nil
}

// Delete removes key from Redis.
//
// ErrNotFound is returned if nothing was removed.
func (r *RedisAdapter) Delete(ctx context.Context, key string) error {
	var n int64
	err := tracing.Command(ctx, tracer, "DEL", key, func(ctx context.Context) error {
		var err error
		n, err = r.c.Del(ctx, key).Result()
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "unable to delete key %q from Redis", key)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// All lists every key in the selected database along with its value.
//
// Values are read with a single MGET, so keys that hold lists or other
// non-string types map to nil instead of failing the whole listing.
func (r *RedisAdapter) All(ctx context.Context) (map[string]*string, error) {
	var keys []string
	err := tracing.Command(ctx, tracer, "KEYS", "", func(ctx context.Context) error {
		var err error
		keys, err = r.c.Keys(ctx, "*").Result()
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to list keys in Redis")
	}

	out := make(map[string]*string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	var values []interface{}
	err = tracing.Command(ctx, tracer, "MGET", "", func(ctx context.Context) error {
		var err error
		values, err = r.c.MGet(ctx, keys...).Result()
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to retrieve values from Redis")
	}

	for i, k := range keys {
		out[k] = nil
		if i >= len(values) {
			continue
		}
		if s, ok := values[i].(string); ok {
			out[k] = &s
		}
	}
	return out, nil
}

// Increment increments the counter with the given key and returns the new
// value.
//
// If the key does not exist, it will be initialized to 0 and incremented.
func (r *RedisAdapter) Increment(ctx context.Context, key string) (int64, error) {
	if len(key) == 0 {
		return 0, errors.New("invalid key")
	}
	var v int64
	err := tracing.Command(ctx, tracer, "INCR", key, func(ctx context.Context) error {
		var err error
		v, err = r.c.Incr(ctx, key).Result()
		return err
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to increment value for key %q", key)
	}
	return v, nil
}

// Ping checks that Redis is reachable.
func (r *RedisAdapter) Ping(ctx context.Context) error {
	err := tracing.Command(ctx, tracer, "PING", "", func(ctx context.Context) error {
		return r.c.Ping(ctx).Err()
	})
	return errors.Wrap(err, "unable to reach Redis")
}
