// Package httptransport is the Executor's concrete HTTP transport, built on
// fasthttp.
package httptransport

import (
	"time"

	"github.com/valyala/fasthttp"
)

// Request is the transport-agnostic shape the Executor builds before
// dispatch.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

// Response is the transport-agnostic shape the Executor consumes after
// dispatch.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Doer is the minimal interface the Executor depends on, so tests can
// substitute an httptest.Server-backed or in-memory implementation.
type Doer interface {
	Do(req Request) (*Response, error)
}

// FastHTTPClient adapts *fasthttp.Client to Doer.
type FastHTTPClient struct {
	client *fasthttp.Client
}

// NewFastHTTPClient builds a client with the given User-Agent, used on every
// outgoing request unless the caller overrides it explicitly.
func NewFastHTTPClient(userAgent string) *FastHTTPClient {
	return &FastHTTPClient{
		client: &fasthttp.Client{
			Name:                userAgent,
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: 30 * time.Second,
		},
	}
}

func (c *FastHTTPClient) Do(req Request) (*Response, error) {
	freq := fasthttp.AcquireRequest()
	fresp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(freq)
	defer fasthttp.ReleaseResponse(fresp)

	freq.SetRequestURI(req.URL)
	freq.Header.SetMethod(req.Method)
	for k, v := range req.Headers {
		freq.Header.Set(k, v)
	}
	if len(req.Body) > 0 {
		freq.SetBody(req.Body)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if err := c.client.DoTimeout(freq, fresp, timeout); err != nil {
		return nil, err
	}

	headers := map[string]string{}
	fresp.Header.VisitAll(func(key, value []byte) {
		headers[string(key)] = string(value)
	})

	body := make([]byte, len(fresp.Body()))
	copy(body, fresp.Body())

	return &Response{
		StatusCode: fresp.StatusCode(),
		Headers:    headers,
		Body:       body,
	}, nil
}
