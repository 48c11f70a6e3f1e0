package keyvaluemock

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/rwool/kvgateway/pkg/service/keyvalue"
)

// Ensure KeyValueMock implements the KeyValue interface.
var _ keyvalue.KeyValue = (*KeyValueMock)(nil)

// ErrNotInteger mirrors the error Redis returns when incrementing a value
// that is not an integer.
var ErrNotInteger = errors.New("ERR value is not an integer or out of range")

// ErrWrongType mirrors the error Redis returns when a string command targets
// a key holding another type.
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// KeyValueMock is a mock implementation of the keyvalue.KeyValue type.
//
// Intended for testing only.
type KeyValueMock struct {
	mu     sync.Mutex
	values map[string]string
	// others holds keys of a non-string type.
	others map[string]struct{}

	// Err, if set, is returned by every call instead of touching the data.
	Err error
}

// New returns a new KeyValueMock.
func New() *KeyValueMock {
	return &KeyValueMock{
		values: make(map[string]string),
		others: make(map[string]struct{}),
	}
}

// Len returns the number of stored keys.
func (k *KeyValueMock) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.values) + len(k.others)
}

// SetOther stores key as a non-string value, such as a list.
func (k *KeyValueMock) SetOther(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.values, key)
	k.others[key] = struct{}{}
}

// Set stores value for key.
func (k *KeyValueMock) Set(ctx context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.Err != nil {
		return k.Err
	}
	delete(k.others, key)
	k.values[key] = value
	return nil
}

// Get returns the value for key.
func (k *KeyValueMock) Get(ctx context.Context, key string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.Err != nil {
		return "", k.Err
	}
	if _, ok := k.others[key]; ok {
		return "", ErrWrongType
	}
	v, ok := k.values[key]
	if !ok {
		return "", keyvalue.ErrNotFound
	}
	return v, nil
}

// Delete removes key.
func (k *KeyValueMock) Delete(ctx context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.Err != nil {
		return k.Err
	}
	_, isString := k.values[key]
	_, isOther := k.others[key]
	if !isString && !isOther {
		return keyvalue.ErrNotFound
	}
	delete(k.values, key)
	delete(k.others, key)
	return nil
}

// All returns a copy of every stored pair. Non-string keys map to nil.
func (k *KeyValueMock) All(ctx context.Context) (map[string]*string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.Err != nil {
		return nil, k.Err
	}
	out := make(map[string]*string, len(k.values)+len(k.others))
	for key, v := range k.values {
		v := v
		out[key] = &v
	}
	for key := range k.others {
		out[key] = nil
	}
	return out, nil
}

// Increment increments the counter for key.
func (k *KeyValueMock) Increment(ctx context.Context, key string) (int64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.Err != nil {
		return 0, k.Err
	}
	if _, ok := k.others[key]; ok {
		return 0, ErrWrongType
	}
	var current int64
	if v, ok := k.values[key]; ok {
		var err error
		current, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
	}
	current++
	k.values[key] = strconv.FormatInt(current, 10)
	return current, nil
}

// Ping returns Err.
func (k *KeyValueMock) Ping(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.Err
}
