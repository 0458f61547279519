package executor

import (
	"testing"

	"github.com/blackcoderx/aperture/internal/apperr"
	"github.com/blackcoderx/aperture/internal/auth"
	"github.com/blackcoderx/aperture/internal/httptransport"
)

type fakeDoer struct {
	lastReq httptransport.Request
	resp    *httptransport.Response
	err     error
}

func (f *fakeDoer) Do(req httptransport.Request) (*httptransport.Response, error) {
	f.lastReq = req
	return f.resp, f.err
}

func TestExecuteBuildsURLAndAppliesAuthQueryBinding(t *testing.T) {
	doer := &fakeDoer{resp: &httptransport.Response{StatusCode: 200, Body: []byte(`{"ok":true}`)}}
	e := &Executor{Transport: doer}

	call := OperationCall{
		Method:  "GET",
		BaseURL: "https://api.example.com",
		Path:    "/widgets",
		Query:   []KV{{Key: "limit", Value: "10"}},
		Auth:    []auth.Binding{{Location: "query", Name: "api_key", Value: "secret"}},
	}

	result, err := e.Execute(call, Context{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StatusCode != 200 || result.Body != `{"ok":true}` {
		t.Fatalf("unexpected result: %+v", result)
	}
	wantURL := "https://api.example.com/widgets?limit=10&api_key=secret"
	if doer.lastReq.URL != wantURL {
		t.Fatalf("got URL %q, want %q", doer.lastReq.URL, wantURL)
	}
}

func TestExecuteHeaderAuthBinding(t *testing.T) {
	doer := &fakeDoer{resp: &httptransport.Response{StatusCode: 200, Body: []byte(`{}`)}}
	e := &Executor{Transport: doer}

	call := OperationCall{
		Method:  "GET",
		BaseURL: "https://api.example.com",
		Path:    "/widgets",
		Auth:    []auth.Binding{{Location: "header", Name: "Authorization", Value: "Bearer tok"}},
	}
	if _, err := e.Execute(call, Context{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doer.lastReq.Headers["Authorization"] != "Bearer tok" {
		t.Fatalf("got headers %+v", doer.lastReq.Headers)
	}
}

func TestExecuteNonSuccessStatusBecomesHttpError(t *testing.T) {
	doer := &fakeDoer{resp: &httptransport.Response{StatusCode: 404, Body: []byte(`{"error":"not found"}`)}}
	e := &Executor{Transport: doer}

	_, err := e.Execute(OperationCall{Method: "GET", BaseURL: "https://api.example.com", Path: "/missing"}, Context{})
	if err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.Http {
		t.Fatalf("got kind %v, want Http", kind)
	}
}

func TestExecuteDryRunSkipsTransport(t *testing.T) {
	doer := &fakeDoer{resp: &httptransport.Response{StatusCode: 500}}
	e := &Executor{Transport: doer}

	result, err := e.Execute(OperationCall{Method: "GET", BaseURL: "https://api.example.com", Path: "/x"}, Context{DryRun: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StatusCode != 0 {
		t.Fatalf("dry run should not report a real status code: %+v", result)
	}
	if doer.lastReq.URL != "" {
		t.Fatal("dry run must not invoke the transport")
	}
}

func TestExecuteRetriesRetryableStatus(t *testing.T) {
	calls := 0
	doer := &countingDoer{
		do: func(req httptransport.Request) (*httptransport.Response, error) {
			calls++
			if calls < 3 {
				return &httptransport.Response{StatusCode: 503}, nil
			}
			return &httptransport.Response{StatusCode: 200, Body: []byte(`{}`)}, nil
		},
	}
	e := &Executor{Transport: doer}

	result, err := e.Execute(OperationCall{Method: "GET", BaseURL: "https://api.example.com", Path: "/x"}, Context{
		Retry: &RetryOptions{MaxAttempts: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StatusCode != 200 {
		t.Fatalf("got status %d", result.StatusCode)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

type countingDoer struct {
	do func(req httptransport.Request) (*httptransport.Response, error)
}

func (c *countingDoer) Do(req httptransport.Request) (*httptransport.Response, error) {
	return c.do(req)
}
