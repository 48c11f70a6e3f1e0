// Package keyvalue implements support for storing and retrieving string
// values and counters identified by a key.
package keyvalue

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when an operation that requires an existing key is
// applied to a key that does not exist.
var ErrNotFound = errors.New("key not found")

// KeyValue wraps the set of methods for storing and retrieving data identified
// by a given key.
type KeyValue interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	// All returns every key in the store with its string value. Keys holding
	// a non-string type map to nil.
	All(ctx context.Context) (map[string]*string, error)

	Increment(ctx context.Context, key string) (int64, error)

	Ping(ctx context.Context) error
}
