package http_test

import (
	gohttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwool/kvgateway/pkg/endpoint"
	"github.com/rwool/kvgateway/pkg/http"
	"github.com/rwool/kvgateway/pkg/internal/keyvaluemock"
	"github.com/rwool/kvgateway/pkg/internal/listmock"
	"github.com/rwool/kvgateway/pkg/service"
)

type testServer struct {
	handler gohttp.Handler
	kv      *keyvaluemock.KeyValueMock
	l       *listmock.ListMock
}

func newTestServer(origins ...string) *testServer {
	kv := keyvaluemock.New()
	l := listmock.New()
	svc := service.NewKVService(kv, l)
	return &testServer{
		handler: http.NewHTTPHandler(http.Config{
			Endpoints:   endpoint.New(svc),
			CORSOrigins: origins,
		}),
		kv: kv,
		l:  l,
	}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *gohttp.Request
	if body == "" {
		req = httptest.NewRequest(method, "http://something.com"+path, nil)
	} else {
		req = httptest.NewRequest(method, "http://something.com"+path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestSetThenGet(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	rec := s.do("POST", "/set", `{"key":"a","value":"1"}`)
	assert.Equal(t, 200, rec.Code, "Should have 200 status code.")
	assert.JSONEq(t, `{"message":"Value set successfully","key":"a","value":"1"}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	rec = s.do("GET", "/get/a", "")
	assert.Equal(t, 200, rec.Code, "Should have 200 status code.")
	assert.JSONEq(t, `{"key":"a","value":"1"}`, rec.Body.String())
}

func TestSetNumberIsEchoed(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	rec := s.do("POST", "/set", `{"key":"n","value":12.50}`)
	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"message":"Value set successfully","key":"n","value":12.50}`, rec.Body.String())

	rec = s.do("GET", "/get/n", "")
	assert.JSONEq(t, `{"key":"n","value":"12.50"}`, rec.Body.String(), "Number should be stored as sent.")
}

func TestSetValidation(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"missing key":   `{"value":"1"}`,
		"empty key":     `{"key":"","value":"1"}`,
		"missing value": `{"key":"a"}`,
		"null value":    `{"key":"a","value":null}`,
		"empty body":    ``,
	} {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := newTestServer()
			rec := s.do("POST", "/set", body)
			assert.Equal(t, 400, rec.Code, "Should have 400 status code.")
			assert.JSONEq(t, `{"error":"Key and value are required"}`, rec.Body.String())
			assert.Zero(t, s.kv.Len(), "Nothing should be stored.")
		})
	}
}

func TestMalformedBody(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	for _, path := range []string{"/set", "/list/push", "/counter/increment"} {
		rec := s.do("POST", path, `{"key":`)
		assert.Equal(t, 400, rec.Code, "%s should reject malformed JSON.", path)
		assert.Contains(t, rec.Body.String(), "invalid request body")

		rec = s.do("POST", path, `{"key":5,"value":"x"}`)
		assert.Equal(t, 400, rec.Code, "%s should reject a non-string key.", path)
	}
	assert.Zero(t, s.kv.Len(), "Nothing should be stored.")
}

func TestUnsupportedValue(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	rec := s.do("POST", "/set", `{"key":"a","value":{"nested":true}}`)
	assert.Equal(t, 500, rec.Code)
	assert.JSONEq(t, `{"error":"invalid value type: expected a string or a number"}`, rec.Body.String())
}

func TestGetMissing(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	rec := s.do("GET", "/get/nope", "")
	assert.Equal(t, 404, rec.Code, "Should have 404 status code.")
	assert.JSONEq(t, `{"message":"Key not found","key":"nope"}`, rec.Body.String())
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	require.Equal(t, 200, s.do("POST", "/set", `{"key":"d","value":"x"}`).Code)

	rec := s.do("DELETE", "/delete/d", "")
	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"message":"Key deleted successfully","key":"d"}`, rec.Body.String())

	assert.Equal(t, 404, s.do("GET", "/get/d", "").Code, "Deleted key should be gone.")

	rec = s.do("DELETE", "/delete/d", "")
	assert.Equal(t, 404, rec.Code, "Deleting a missing key should be not found.")
	assert.JSONEq(t, `{"message":"Key not found","key":"d"}`, rec.Body.String())
}

func TestAll(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	rec := s.do("GET", "/all", "")
	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"count":0,"data":{}}`, rec.Body.String())

	s.do("POST", "/set", `{"key":"a","value":"1"}`)
	s.do("POST", "/set", `{"key":"b","value":"2"}`)

	rec = s.do("GET", "/all", "")
	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"count":2,"data":{"a":"1","b":"2"}}`, rec.Body.String())
}

func TestIncrement(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	rec := s.do("POST", "/counter/increment", `{}`)
	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"key":"counter","value":1}`, rec.Body.String(), "Counter should start at 1.")

	rec = s.do("POST", "/counter/increment", ``)
	assert.JSONEq(t, `{"key":"counter","value":2}`, rec.Body.String(), "Empty body should use the default key.")

	rec = s.do("POST", "/counter/increment", `{"key":"visits"}`)
	assert.JSONEq(t, `{"key":"visits","value":1}`, rec.Body.String())
}

func TestIncrementConcurrent(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			s.do("POST", "/counter/increment", `{"key":"c"}`)
		}()
	}
	wg.Wait()

	rec := s.do("GET", "/get/c", "")
	assert.JSONEq(t, `{"key":"c","value":"20"}`, rec.Body.String(), "Concurrent increments should sum exactly.")
}

func TestIncrementNonInteger(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	s.do("POST", "/set", `{"key":"w","value":"abc"}`)
	rec := s.do("POST", "/counter/increment", `{"key":"w"}`)
	assert.Equal(t, 500, rec.Code)
	assert.JSONEq(t, `{"error":"ERR value is not an integer or out of range"}`, rec.Body.String())
}

func TestListPushAndGet(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	rec := s.do("POST", "/list/push", `{"key":"l","value":"first"}`)
	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"message":"Value pushed to list","key":"l","length":1}`, rec.Body.String())

	rec = s.do("POST", "/list/push", `{"key":"l","value":2}`)
	assert.JSONEq(t, `{"message":"Value pushed to list","key":"l","length":2}`, rec.Body.String())

	rec = s.do("GET", "/list/get/l", "")
	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"key":"l","values":["first","2"],"length":2}`, rec.Body.String())
}

func TestListPushValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	rec := s.do("POST", "/list/push", `{"key":"l"}`)
	assert.Equal(t, 400, rec.Code)
	assert.JSONEq(t, `{"error":"Key and value are required"}`, rec.Body.String())

	rec = s.do("GET", "/list/get/l", "")
	assert.JSONEq(t, `{"key":"l","values":[],"length":0}`, rec.Body.String(), "Nothing should be pushed.")
}

func TestListGetMissingIsEmpty(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	rec := s.do("GET", "/list/get/missing", "")
	assert.Equal(t, 200, rec.Code, "Missing list should not be a 404.")
	assert.JSONEq(t, `{"key":"missing","values":[],"length":0}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	rec := s.do("GET", "/health", "")
	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","redis":"connected"}`, rec.Body.String())

	s.kv.Err = assert.AnError
	rec = s.do("GET", "/health", "")
	assert.Equal(t, 500, rec.Code)
	assert.JSONEq(t, `{"status":"unhealthy","redis":"disconnected"}`, rec.Body.String())
}

func TestStoreError(t *testing.T) {
	t.Parallel()
	s := newTestServer()
	s.kv.Err = assert.AnError
	s.l.Err = assert.AnError
	want := `{"error":"` + assert.AnError.Error() + `"}`

	for _, c := range []struct{ method, path, body string }{
		{"POST", "/set", `{"key":"a","value":"1"}`},
		{"GET", "/get/a", ""},
		{"DELETE", "/delete/a", ""},
		{"GET", "/all", ""},
		{"POST", "/counter/increment", `{}`},
		{"POST", "/list/push", `{"key":"a","value":"1"}`},
		{"GET", "/list/get/a", ""},
	} {
		rec := s.do(c.method, c.path, c.body)
		assert.Equal(t, 500, rec.Code, "%s %s should have 500 status code.", c.method, c.path)
		assert.JSONEq(t, want, rec.Body.String(), "Error value should be in response.")
	}
}

func TestRouting(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	rec := s.do("GET", "/set", "")
	assert.Equal(t, 405, rec.Code, "Wrong method should be rejected.")
	assert.JSONEq(t, `{"error":"Invalid request method GET"}`, rec.Body.String())

	rec = s.do("GET", "/nothing/here", "")
	assert.Equal(t, 404, rec.Code)

	rec = s.do("GET", "/", "")
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/counter/increment")

	rec = s.do("GET", "/metrics", "")
	assert.Equal(t, 200, rec.Code)
}

func TestWrongMethod(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	for _, c := range []struct {
		method string
		path   string
	}{
		{"GET", "/set"},
		{"DELETE", "/get/a"},
		{"POST", "/health"},
		{"GET", "/delete/a"},
		{"POST", "/all"},
		{"GET", "/counter/increment"},
		{"GET", "/list/push"},
		{"POST", "/list/get/a"},
		{"POST", "/"},
		{"POST", "/metrics"},
	} {
		rec := s.do(c.method, c.path, "")
		assert.Equal(t, 405, rec.Code, "%s %s should have 405 status code.", c.method, c.path)
		assert.JSONEq(t, `{"error":"Invalid request method `+c.method+`"}`, rec.Body.String())
	}
	assert.Zero(t, s.kv.Len(), "Nothing should be stored.")
}

func TestAllNonStringKeys(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	require.Equal(t, 200, s.do("POST", "/set", `{"key":"s","value":"v"}`).Code)
	s.kv.SetOther("l")

	rec := s.do("GET", "/all", "")
	assert.Equal(t, 200, rec.Code, "Non-string keys should not fail the listing.")
	assert.JSONEq(t, `{"count":2,"data":{"s":"v","l":null}}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	rec := s.do("GET", "/health", "")
	assert.NotEmpty(t, rec.Header().Get(http.RequestIDHeader), "A request ID should be generated.")

	req := httptest.NewRequest("GET", "http://something.com/get/x", nil)
	req.Header.Set(http.RequestIDHeader, "given-id")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "given-id", rec.Header().Get(http.RequestIDHeader), "Incoming request ID should be echoed.")
}

func TestCORS(t *testing.T) {
	t.Parallel()
	s := newTestServer("http://localhost:3000")

	req := httptest.NewRequest("GET", "http://something.com/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "http://something.com/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
