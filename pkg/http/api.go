// Package http makes the key value service endpoints available via HTTP.
package http

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	gohttp "net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport/http"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	kvendpoint "github.com/rwool/kvgateway/pkg/endpoint"
	"github.com/rwool/kvgateway/pkg/service"
)

// RequestIDHeader carries the ID of a request in both directions.
const RequestIDHeader = "X-Request-ID"

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// Config contains the configuration for the HTTP handler.
type Config struct {
	Endpoints kvendpoint.Set
	Log       log.Logger

	// CORSOrigins lists the origins allowed to call the API from a browser.
	// No CORS headers are sent if it is empty.
	CORSOrigins []string

	// Gatherer is served on /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer

	// Options are appended to the options of every endpoint server.
	Options []http.ServerOption
}

// NewHTTPHandler returns a handler that makes the service endpoints available
// via HTTP.
func NewHTTPHandler(conf Config) gohttp.Handler {
	logger := conf.Log
	if logger == nil {
		logger = log.NewNopLogger()
	}
	options := append([]http.ServerOption{
		http.ServerBefore(requestIDToContext),
		http.ServerAfter(requestIDToHeader),
		http.ServerErrorEncoder(encodeError),
		http.ServerErrorLogger(log.With(logger, "LEVEL", "ERROR", "component", "http")),
	}, conf.Options...)

	e := conf.Endpoints
	r := mux.NewRouter()
	r.NotFoundHandler = gohttp.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = gohttp.HandlerFunc(methodNotAllowed)

	gatherer := conf.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// Path before Methods: mux drops a method mismatch once a later route's
	// method matches, so a route must fail on its path first.
	r.Path("/").Methods(gohttp.MethodGet).HandlerFunc(index)
	r.Path("/metrics").Methods(gohttp.MethodGet).Handler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	handle := func(method, path string, ep endpoint.Endpoint, dec http.DecodeRequestFunc) {
		r.Path(path).Methods(method).Handler(http.NewServer(ep, dec, encodeResponse, options...))
	}
	handle(gohttp.MethodGet, "/health", e.Health, decodeEmptyRequest)
	handle(gohttp.MethodPost, "/set", e.Set, decodeSetRequest)
	handle(gohttp.MethodGet, "/get/{key}", e.Get, decodeKeyRequest)
	handle(gohttp.MethodDelete, "/delete/{key}", e.Delete, decodeKeyRequest)
	handle(gohttp.MethodGet, "/all", e.All, decodeEmptyRequest)
	handle(gohttp.MethodPost, "/counter/increment", e.Increment, decodeIncrementRequest)
	handle(gohttp.MethodPost, "/list/push", e.Push, decodePushRequest)
	handle(gohttp.MethodGet, "/list/get/{key}", e.Range, decodeKeyRequest)

	if len(conf.CORSOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins: conf.CORSOrigins,
		AllowedMethods: []string{gohttp.MethodGet, gohttp.MethodPost, gohttp.MethodDelete},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}).Handler(r)
}

func index(w gohttp.ResponseWriter, _ *gohttp.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, struct {
		Title      string
		CounterKey string
	}{
		Title:      "Redis key value gateway",
		CounterKey: service.DefaultCounterKey,
	})
	if err != nil {
		gohttp.Error(w, err.Error(), gohttp.StatusInternalServerError)
	}
}

func requestIDToContext(ctx context.Context, r *gohttp.Request) context.Context {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.New().String()
	}
	return service.WithRequestID(ctx, id)
}

func requestIDToHeader(ctx context.Context, w gohttp.ResponseWriter) context.Context {
	if id := service.RequestID(ctx); id != "" {
		w.Header().Set(RequestIDHeader, id)
	}
	return ctx
}

type errorResponse struct {
	Error string `json:"error"`
}

type notFoundResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
}

func writeJSON(w gohttp.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps an error to its status code and response body.
func errorStatus(err error) (int, interface{}) {
	var se *service.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case service.KindInvalidArgument:
			return gohttp.StatusBadRequest, errorResponse{Error: se.Message()}
		case service.KindNotFound:
			return gohttp.StatusNotFound, notFoundResponse{Message: se.Message(), Key: se.Key}
		}
		return gohttp.StatusInternalServerError, errorResponse{Error: se.Message()}
	}
	return gohttp.StatusInternalServerError, errorResponse{Error: errors.Cause(err).Error()}
}

func encodeError(ctx context.Context, err error, w gohttp.ResponseWriter) {
	requestIDToHeader(ctx, w)
	code, body := errorStatus(err)
	writeJSON(w, code, body)
}

func encodeResponse(ctx context.Context, w gohttp.ResponseWriter, r interface{}) error {
	if v, ok := r.(endpoint.Failer); ok && v.Failed() != nil {
		encodeError(ctx, v.Failed(), w)
		return nil
	}
	err := http.EncodeJSONResponse(ctx, w, r)
	return errors.WithStack(err)
}

func notFound(w gohttp.ResponseWriter, r *gohttp.Request) {
	writeJSON(w, gohttp.StatusNotFound, errorResponse{Error: fmt.Sprintf("No route for %s", r.URL.Path)})
}

func methodNotAllowed(w gohttp.ResponseWriter, r *gohttp.Request) {
	writeJSON(w, gohttp.StatusMethodNotAllowed, errorResponse{Error: fmt.Sprintf("Invalid request method %s", r.Method)})
}

// jsonDecode reads a JSON object from body into v.
//
// An empty body leaves v untouched. Numbers are decoded as json.Number so
// that they are stored exactly as sent.
func jsonDecode(body io.ReadCloser, into interface{}) (e error) {
	defer func() {
		err := body.Close()
		if e != nil && err != nil {
			e = errors.Wrapf(e, "multiple errors: %s", err)
			return
		}
		if err != nil {
			e = err
		}
	}()
	decoder := json.NewDecoder(body)
	decoder.UseNumber()
	err := decoder.Decode(into)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return service.InvalidArgument("invalid request body: %s", err)
	}
	return nil
}

func decodeEmptyRequest(_ context.Context, _ *gohttp.Request) (interface{}, error) {
	return nil, nil
}

func decodeKeyRequest(_ context.Context, req *gohttp.Request) (interface{}, error) {
	return kvendpoint.KeyRequest{Key: mux.Vars(req)["key"]}, nil
}

func decodeSetRequest(_ context.Context, req *gohttp.Request) (interface{}, error) {
	var sr service.SetRequest
	err := jsonDecode(req.Body, &sr)
	return sr, err
}

func decodeIncrementRequest(_ context.Context, req *gohttp.Request) (interface{}, error) {
	var ir service.IncrementRequest
	err := jsonDecode(req.Body, &ir)
	return ir, err
}

func decodePushRequest(_ context.Context, req *gohttp.Request) (interface{}, error) {
	var pr service.PushRequest
	err := jsonDecode(req.Body, &pr)
	return pr, err
}
