package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
)

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID stored in ctx, or an empty string.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggingMiddleware logs every call with its key, duration and outcome.
//
// Client errors are logged at the INFO level and store faults at ERROR.
func LoggingMiddleware(l log.Logger) Middleware {
	return func(next KVService) KVService {
		return &loggingMiddleware{next: next, l: l}
	}
}

type loggingMiddleware struct {
	next KVService
	l    log.Logger
}

func (mw *loggingMiddleware) log(ctx context.Context, method, key string, begin time.Time, err error) {
	level, message := "DEBUG", fmt.Sprintf("%s succeeded", method)
	if err != nil {
		level, message = "INFO", fmt.Sprintf("%s failed: %s", method, err)
		if KindOf(err) == KindInternal {
			level = "ERROR"
		}
	}
	_ = mw.l.Log(
		"LEVEL", level,
		"MESSAGE", message,
		"method", method,
		"key", key,
		"request_id", RequestID(ctx),
		"took", time.Since(begin),
	)
}

func (mw *loggingMiddleware) Health(ctx context.Context) (resp HealthResponse, err error) {
	defer func(begin time.Time) { mw.log(ctx, "health", "", begin, err) }(time.Now())
	return mw.next.Health(ctx)
}

func (mw *loggingMiddleware) Set(ctx context.Context, request SetRequest) (resp SetResponse, err error) {
	defer func(begin time.Time) { mw.log(ctx, "set", request.Key, begin, err) }(time.Now())
	return mw.next.Set(ctx, request)
}

func (mw *loggingMiddleware) Get(ctx context.Context, key string) (resp GetResponse, err error) {
	defer func(begin time.Time) { mw.log(ctx, "get", key, begin, err) }(time.Now())
	return mw.next.Get(ctx, key)
}

func (mw *loggingMiddleware) Delete(ctx context.Context, key string) (resp DeleteResponse, err error) {
	defer func(begin time.Time) { mw.log(ctx, "delete", key, begin, err) }(time.Now())
	return mw.next.Delete(ctx, key)
}

func (mw *loggingMiddleware) All(ctx context.Context) (resp AllResponse, err error) {
	defer func(begin time.Time) { mw.log(ctx, "all", "", begin, err) }(time.Now())
	return mw.next.All(ctx)
}

func (mw *loggingMiddleware) Increment(ctx context.Context, request IncrementRequest) (resp IncrementResponse, err error) {
	defer func(begin time.Time) { mw.log(ctx, "increment", request.Key, begin, err) }(time.Now())
	return mw.next.Increment(ctx, request)
}

func (mw *loggingMiddleware) Push(ctx context.Context, request PushRequest) (resp PushResponse, err error) {
	defer func(begin time.Time) { mw.log(ctx, "push", request.Key, begin, err) }(time.Now())
	return mw.next.Push(ctx, request)
}

func (mw *loggingMiddleware) Range(ctx context.Context, key string) (resp RangeResponse, err error) {
	defer func(begin time.Time) { mw.log(ctx, "range", key, begin, err) }(time.Now())
	return mw.next.Range(ctx, key)
}

// InstrumentingMiddleware records the number of calls and their latency,
// labelled by method and error kind ("none" on success).
func InstrumentingMiddleware(requests metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next KVService) KVService {
		return &instrumentingMiddleware{next: next, requests: requests, latency: latency}
	}
}

type instrumentingMiddleware struct {
	next     KVService
	requests metrics.Counter
	latency  metrics.Histogram
}

func (mw *instrumentingMiddleware) observe(method string, begin time.Time, err error) {
	kind := "none"
	if err != nil {
		kind = KindOf(err).String()
	}
	lvs := []string{"method", method, "kind", kind}
	mw.requests.With(lvs...).Add(1)
	mw.latency.With(lvs...).Observe(time.Since(begin).Seconds())
}

func (mw *instrumentingMiddleware) Health(ctx context.Context) (resp HealthResponse, err error) {
	defer func(begin time.Time) { mw.observe("health", begin, err) }(time.Now())
	return mw.next.Health(ctx)
}

func (mw *instrumentingMiddleware) Set(ctx context.Context, request SetRequest) (resp SetResponse, err error) {
	defer func(begin time.Time) { mw.observe("set", begin, err) }(time.Now())
	return mw.next.Set(ctx, request)
}

func (mw *instrumentingMiddleware) Get(ctx context.Context, key string) (resp GetResponse, err error) {
	defer func(begin time.Time) { mw.observe("get", begin, err) }(time.Now())
	return mw.next.Get(ctx, key)
}

func (mw *instrumentingMiddleware) Delete(ctx context.Context, key string) (resp DeleteResponse, err error) {
	defer func(begin time.Time) { mw.observe("delete", begin, err) }(time.Now())
	return mw.next.Delete(ctx, key)
}

func (mw *instrumentingMiddleware) All(ctx context.Context) (resp AllResponse, err error) {
	defer func(begin time.Time) { mw.observe("all", begin, err) }(time.Now())
	return mw.next.All(ctx)
}

func (mw *instrumentingMiddleware) Increment(ctx context.Context, request IncrementRequest) (resp IncrementResponse, err error) {
	defer func(begin time.Time) { mw.observe("increment", begin, err) }(time.Now())
	return mw.next.Increment(ctx, request)
}

func (mw *instrumentingMiddleware) Push(ctx context.Context, request PushRequest) (resp PushResponse, err error) {
	defer func(begin time.Time) { mw.observe("push", begin, err) }(time.Now())
	return mw.next.Push(ctx, request)
}

func (mw *instrumentingMiddleware) Range(ctx context.Context, key string) (resp RangeResponse, err error) {
	defer func(begin time.Time) { mw.observe("range", begin, err) }(time.Now())
	return mw.next.Range(ctx, key)
}
