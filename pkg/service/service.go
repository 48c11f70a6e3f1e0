// Package service implements the business logic for the key value gateway.
//
// Every operation validates its request and then issues exactly one command
// against the store. Store outcomes are returned as typed responses or as
// classified errors (see Kind).
package service

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/rwool/kvgateway/pkg/service/keyvalue"
	"github.com/rwool/kvgateway/pkg/service/list"
)

// DefaultCounterKey is the counter incremented when the key is missing or
// empty.
const DefaultCounterKey = "counter"

// KVService is the user accessible service.
type KVService interface {
	Health(ctx context.Context) (HealthResponse, error)
	Set(ctx context.Context, request SetRequest) (SetResponse, error)
	Get(ctx context.Context, key string) (GetResponse, error)
	Delete(ctx context.Context, key string) (DeleteResponse, error)
	All(ctx context.Context) (AllResponse, error)
	Increment(ctx context.Context, request IncrementRequest) (IncrementResponse, error)
	Push(ctx context.Context, request PushRequest) (PushResponse, error)
	Range(ctx context.Context, key string) (RangeResponse, error)
}

// HealthResponse reports whether the store is reachable.
type HealthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis"`
}

// SetRequest is a request to store a value.
//
// Value must be a string or a number. Numbers are stored as their decimal
// text.
type SetRequest struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// SetResponse echoes a stored key value pair.
type SetResponse struct {
	Message string      `json:"message"`
	Key     string      `json:"key"`
	Value   interface{} `json:"value"`
}

// GetResponse holds the value stored for a key.
type GetResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DeleteResponse confirms the removal of a key.
type DeleteResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
}

// AllResponse lists every key in the store.
//
// Keys that do not hold a string value are listed with a nil value.
type AllResponse struct {
	Count int                `json:"count"`
	Data  map[string]*string `json:"data"`
}

// IncrementRequest is a request to increment a counter.
//
// An empty Key, whether omitted or sent as "", selects DefaultCounterKey.
type IncrementRequest struct {
	Key string `json:"key"`
}

// IncrementResponse holds the value of a counter after an increment.
type IncrementResponse struct {
	Key   string `json:"key"`
	Value int64  `json:"value"`
}

// PushRequest is a request to append a value to a list.
type PushRequest struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// PushResponse holds the length of a list after a push.
type PushResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
	Length  int64  `json:"length"`
}

// RangeResponse holds every element of a list.
type RangeResponse struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
	Length int      `json:"length"`
}

type kvService struct {
	kv keyvalue.KeyValue
	l  list.List
}

// NewKVService returns a KVService backed by the given stores.
func NewKVService(kv keyvalue.KeyValue, l list.List) KVService {
	return newKVService(kv, l)
}

func newKVService(kv keyvalue.KeyValue, l list.List) *kvService {
	return &kvService{kv: kv, l: l}
}

// valueString converts a request value into the text that is stored.
func valueString(v interface{}) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	}
	return "", errors.Wrapf(ErrUnsupportedValue, "got %T", v)
}

func requireKeyValue(key string, value interface{}) error {
	if key == "" || value == nil {
		return newError(KindInvalidArgument, key, ErrMissingKeyOrValue)
	}
	return nil
}

func internal(key string, err error) error {
	return newError(KindInternal, key, err)
}

// Health pings the store.
func (s *kvService) Health(ctx context.Context) (HealthResponse, error) {
	if err := s.kv.Ping(ctx); err != nil {
		return HealthResponse{Status: "unhealthy", Redis: "disconnected"}, internal("", err)
	}
	return HealthResponse{Status: "healthy", Redis: "connected"}, nil
}

// Set stores a value for a key, replacing any previous value.
func (s *kvService) Set(ctx context.Context, request SetRequest) (SetResponse, error) {
	if err := requireKeyValue(request.Key, request.Value); err != nil {
		return SetResponse{}, err
	}
	v, err := valueString(request.Value)
	if err != nil {
		return SetResponse{}, internal(request.Key, err)
	}
	if err := s.kv.Set(ctx, request.Key, v); err != nil {
		return SetResponse{}, internal(request.Key, err)
	}
	return SetResponse{
		Message: "Value set successfully",
		Key:     request.Key,
		Value:   request.Value,
	}, nil
}

// Get retrieves the value for a key.
func (s *kvService) Get(ctx context.Context, key string) (GetResponse, error) {
	v, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Cause(err) == keyvalue.ErrNotFound {
			return GetResponse{}, newError(KindNotFound, key, ErrNotFound)
		}
		return GetResponse{}, internal(key, err)
	}
	return GetResponse{Key: key, Value: v}, nil
}

// Delete removes a key.
func (s *kvService) Delete(ctx context.Context, key string) (DeleteResponse, error) {
	if err := s.kv.Delete(ctx, key); err != nil {
		if errors.Cause(err) == keyvalue.ErrNotFound {
			return DeleteResponse{}, newError(KindNotFound, key, ErrNotFound)
		}
		return DeleteResponse{}, internal(key, err)
	}
	return DeleteResponse{Message: "Key deleted successfully", Key: key}, nil
}

// All lists every key along with its value.
func (s *kvService) All(ctx context.Context) (AllResponse, error) {
	data, err := s.kv.All(ctx)
	if err != nil {
		return AllResponse{}, internal("", err)
	}
	return AllResponse{Count: len(data), Data: data}, nil
}

// Increment atomically increments a counter, creating it if needed.
// A missing or empty key uses DefaultCounterKey.
func (s *kvService) Increment(ctx context.Context, request IncrementRequest) (IncrementResponse, error) {
	key := request.Key
	if key == "" {
		key = DefaultCounterKey
	}
	v, err := s.kv.Increment(ctx, key)
	if err != nil {
		return IncrementResponse{}, internal(key, err)
	}
	return IncrementResponse{Key: key, Value: v}, nil
}

// Push appends a value to the tail of a list.
func (s *kvService) Push(ctx context.Context, request PushRequest) (PushResponse, error) {
	if err := requireKeyValue(request.Key, request.Value); err != nil {
		return PushResponse{}, err
	}
	v, err := valueString(request.Value)
	if err != nil {
		return PushResponse{}, internal(request.Key, err)
	}
	n, err := s.l.Push(ctx, request.Key, v)
	if err != nil {
		return PushResponse{}, internal(request.Key, err)
	}
	return PushResponse{
		Message: "Value pushed to list",
		Key:     request.Key,
		Length:  n,
	}, nil
}

// Range returns every element of a list in insertion order.
//
// A missing list is not an error and yields no values.
func (s *kvService) Range(ctx context.Context, key string) (RangeResponse, error) {
	values, err := s.l.Range(ctx, key)
	if err != nil {
		return RangeResponse{}, internal(key, err)
	}
	if values == nil {
		values = []string{}
	}
	return RangeResponse{Key: key, Values: values, Length: len(values)}, nil
}

// Middleware decorates a KVService.
type Middleware func(KVService) KVService

// Chain wraps s with the given middlewares. The first middleware is the
// outermost.
func Chain(s KVService, mw ...Middleware) KVService {
	for i := len(mw) - 1; i >= 0; i-- {
		s = mw[i](s)
	}
	return s
}
