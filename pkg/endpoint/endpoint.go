// Package endpoint adapts the KVService methods to Go kit endpoints.
//
// Every endpoint returns a nil error and reports business logic failures
// through the endpoint.Failer interface of its response.
package endpoint

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/endpoint"

	"github.com/rwool/kvgateway/pkg/service"
)

// Set collects all of the endpoints that compose a KVService.
type Set struct {
	Health    endpoint.Endpoint
	Set       endpoint.Endpoint
	Get       endpoint.Endpoint
	Delete    endpoint.Endpoint
	All       endpoint.Endpoint
	Increment endpoint.Endpoint
	Push      endpoint.Endpoint
	Range     endpoint.Endpoint
}

// New returns a Set that wraps the provided service.
func New(s service.KVService) Set {
	return Set{
		Health:    MakeHealthEndpoint(s),
		Set:       MakeSetEndpoint(s),
		Get:       MakeGetEndpoint(s),
		Delete:    MakeDeleteEndpoint(s),
		All:       MakeAllEndpoint(s),
		Increment: MakeIncrementEndpoint(s),
		Push:      MakePushEndpoint(s),
		Range:     MakeRangeEndpoint(s),
	}
}

// KeyRequest carries the key taken from a request path.
type KeyRequest struct {
	Key string
}

// HealthResponse contains the store status.
//
// A failed health check is not a Failer: its body is the status itself, sent
// with a 500 status code.
type HealthResponse struct {
	service.HealthResponse
	e error
}

// StatusCode implements the Go kit http.StatusCoder interface.
func (r HealthResponse) StatusCode() int {
	if r.e != nil {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

// SetResponse contains the response for a call to the Set endpoint.
type SetResponse struct {
	service.SetResponse
	e error
}

// Failed indicates if there was a business logic failure.
func (r SetResponse) Failed() error { return r.e }

// GetResponse contains the response for a call to the Get endpoint.
type GetResponse struct {
	service.GetResponse
	e error
}

// Failed indicates if there was a business logic failure.
func (r GetResponse) Failed() error { return r.e }

// DeleteResponse contains the response for a call to the Delete endpoint.
type DeleteResponse struct {
	service.DeleteResponse
	e error
}

// Failed indicates if there was a business logic failure.
func (r DeleteResponse) Failed() error { return r.e }

// AllResponse contains the response for a call to the All endpoint.
type AllResponse struct {
	service.AllResponse
	e error
}

// Failed indicates if there was a business logic failure.
func (r AllResponse) Failed() error { return r.e }

// IncrementResponse contains the response for a call to the Increment
// endpoint.
type IncrementResponse struct {
	service.IncrementResponse
	e error
}

// Failed indicates if there was a business logic failure.
func (r IncrementResponse) Failed() error { return r.e }

// PushResponse contains the response for a call to the Push endpoint.
type PushResponse struct {
	service.PushResponse
	e error
}

// Failed indicates if there was a business logic failure.
func (r PushResponse) Failed() error { return r.e }

// RangeResponse contains the response for a call to the Range endpoint.
type RangeResponse struct {
	service.RangeResponse
	e error
}

// Failed indicates if there was a business logic failure.
func (r RangeResponse) Failed() error { return r.e }

var (
	_ endpoint.Failer = SetResponse{}
	_ endpoint.Failer = GetResponse{}
	_ endpoint.Failer = DeleteResponse{}
	_ endpoint.Failer = AllResponse{}
	_ endpoint.Failer = IncrementResponse{}
	_ endpoint.Failer = PushResponse{}
	_ endpoint.Failer = RangeResponse{}
)

// MakeHealthEndpoint creates an endpoint for checking the store.
func MakeHealthEndpoint(s service.KVService) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		resp, err := s.Health(ctx)
		return HealthResponse{HealthResponse: resp, e: err}, nil
	}
}

// MakeSetEndpoint creates an endpoint for storing values.
func MakeSetEndpoint(s service.KVService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(service.SetRequest)
		resp, err := s.Set(ctx, req)
		return SetResponse{SetResponse: resp, e: err}, nil
	}
}

// MakeGetEndpoint creates an endpoint for retrieving values.
func MakeGetEndpoint(s service.KVService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(KeyRequest)
		resp, err := s.Get(ctx, req.Key)
		return GetResponse{GetResponse: resp, e: err}, nil
	}
}

// MakeDeleteEndpoint creates an endpoint for deleting keys.
func MakeDeleteEndpoint(s service.KVService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(KeyRequest)
		resp, err := s.Delete(ctx, req.Key)
		return DeleteResponse{DeleteResponse: resp, e: err}, nil
	}
}

// MakeAllEndpoint creates an endpoint for listing every key.
func MakeAllEndpoint(s service.KVService) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		resp, err := s.All(ctx)
		return AllResponse{AllResponse: resp, e: err}, nil
	}
}

// MakeIncrementEndpoint creates an endpoint for incrementing counters.
func MakeIncrementEndpoint(s service.KVService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(service.IncrementRequest)
		resp, err := s.Increment(ctx, req)
		return IncrementResponse{IncrementResponse: resp, e: err}, nil
	}
}

// MakePushEndpoint creates an endpoint for appending to lists.
func MakePushEndpoint(s service.KVService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(service.PushRequest)
		resp, err := s.Push(ctx, req)
		return PushResponse{PushResponse: resp, e: err}, nil
	}
}

// MakeRangeEndpoint creates an endpoint for reading lists.
func MakeRangeEndpoint(s service.KVService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(KeyRequest)
		resp, err := s.Range(ctx, req.Key)
		return RangeResponse{RangeResponse: resp, e: err}, nil
	}
}
