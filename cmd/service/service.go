package service

import (
	"context"
	"fmt"
	"net"
	gohttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rwool/kvgateway/pkg/config"
	"github.com/rwool/kvgateway/pkg/endpoint"
	"github.com/rwool/kvgateway/pkg/http"
	"github.com/rwool/kvgateway/pkg/service"
	"github.com/rwool/kvgateway/pkg/service/keyvalue"
	"github.com/rwool/kvgateway/pkg/service/list"
	"github.com/rwool/kvgateway/pkg/tracing"
)

const serviceName = "kvgateway"

// NewCommand returns the root command that runs the gateway.
func NewCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "HTTP gateway for Redis strings, counters and lists",
		Long: `kvgateway exposes basic Redis operations over HTTP.

Every endpoint issues exactly one Redis command:
- POST /set, GET /get/{key}, DELETE /delete/{key}, GET /all
- POST /counter/increment
- POST /list/push, GET /list/get/{key}

Settings are read from flags, then from environment variables.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.Load(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(ctx, conf, newLogger())
		},
	}
	if err := config.BindFlags(cmd.Flags(), v); err != nil {
		panic(err)
	}
	return cmd
}

func newLogger() log.Logger {
	l := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	return log.With(l, "ts", log.DefaultTimestampUTC)
}

func getRedisClient(conf config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddress(),
		Username: conf.RedisUser,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
		// Failed commands are reported to the caller, never retried.
		MaxRetries:   -1,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// pingRedis checks that Redis is reachable at startup.
//
// An unreachable Redis is logged but not fatal: the client connects lazily,
// and /health reports the store as disconnected until it comes up.
func pingRedis(ctx context.Context, rc *redis.Client, conf config.Config, l log.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = l.Log("LEVEL", "ERROR", "MESSAGE", fmt.Sprintf("Error connecting to Redis at %s: %s", conf.RedisAddress(), err))
		return
	}
	_ = l.Log("LEVEL", "INFO", "MESSAGE", fmt.Sprintf("Connected to Redis at %s", conf.RedisAddress()))
}

// newMetrics registers the service metrics on reg.
func newMetrics(reg stdprometheus.Registerer) (*kitprometheus.Counter, *kitprometheus.Histogram) {
	labels := []string{"method", "kind"}
	requests := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: serviceName,
		Subsystem: "service",
		Name:      "requests_total",
		Help:      "Number of requests handled, by method and error kind.",
	}, labels)
	latency := stdprometheus.NewHistogramVec(stdprometheus.HistogramOpts{
		Namespace: serviceName,
		Subsystem: "service",
		Name:      "request_duration_seconds",
		Help:      "Time spent handling requests, including the Redis round trip.",
		Buckets:   stdprometheus.DefBuckets,
	}, labels)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requests,
		latency,
	)
	return kitprometheus.NewCounter(requests), kitprometheus.NewHistogram(latency)
}

// Run runs the gateway until ctx is cancelled.
func Run(ctx context.Context, conf config.Config, l log.Logger) error {
	shutdownTracing, err := tracing.Setup(serviceName, conf.JaegerEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			_ = l.Log("LEVEL", "WARN", "MESSAGE", err)
		}
	}()

	// One client for the lifetime of the process, shared by every request.
	rc := getRedisClient(conf)
	defer func() {
		if err := rc.Close(); err != nil {
			_ = l.Log("LEVEL", "WARN", "MESSAGE", err)
		}
	}()
	pingRedis(ctx, rc, conf, l)

	// Business logic.
	reg := stdprometheus.NewRegistry()
	requests, latency := newMetrics(reg)
	svc := service.Chain(
		service.NewKVService(keyvalue.NewRedisAdapter(rc), list.NewRedisAdapter(rc)),
		service.LoggingMiddleware(l),
		service.InstrumentingMiddleware(requests, latency),
	)

	// Endpoints.
	endpoints := endpoint.New(svc)

	// Transports.
	handler := http.NewHTTPHandler(http.Config{
		Endpoints:   endpoints,
		Log:         l,
		CORSOrigins: conf.CORSOrigins,
		Gatherer:    reg,
	})

	server, err := serveHTTP(conf.ListenAddress, handler)
	if err != nil {
		return err
	}
	return server(ctx, l)
}

func serveHTTP(address string, h gohttp.Handler) (func(context.Context, log.Logger) error, error) {
	// Separate listening and serving to capture listen errors.
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create TCP listener")
	}

	srv := &gohttp.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return func(ctx context.Context, logger log.Logger) error {
		done := make(chan struct{})
		go func() {
			defer close(done)
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = logger.Log("LEVEL", "WARN", "MESSAGE", err)
			}
		}()

		_ = logger.Log("LEVEL", "INFO", "MESSAGE", fmt.Sprintf("Listening on %s", lis.Addr()))
		err := srv.Serve(lis)
		if err != gohttp.ErrServerClosed {
			return errors.WithStack(err)
		}
		<-done
		_ = logger.Log("LEVEL", "INFO", "MESSAGE", "Server stopped")
		return nil
	}, nil
}
