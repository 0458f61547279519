// Package executor builds and dispatches the HTTP request for one
// OperationCall, applying caching and retry (spec.md §4.6).
package executor

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/blackcoderx/aperture/internal/apperr"
	"github.com/blackcoderx/aperture/internal/auth"
	"github.com/blackcoderx/aperture/internal/httptransport"
	"github.com/blackcoderx/aperture/internal/respcache"
)

// OperationCall is the target of execution (spec.md §3 "OperationCall").
type OperationCall struct {
	OperationID string
	BaseURL     string
	Method      string
	Path        string // after path-parameter substitution, still containing the leading slash
	Query       []KV
	Headers     []KV
	Cookies     []KV
	Body        []byte
	Auth        []auth.Binding
}

// KV preserves insertion order (spec.md §3 "stable order by insertion").
type KV struct {
	Key   string
	Value string
}

// CallResult is the outcome of one execution (spec.md §3 "CallResult").
type CallResult struct {
	StatusCode int
	Headers    map[string]string
	Body       string
	FromCache  bool
	Elapsed    time.Duration
}

// CacheOptions controls per-call response caching.
type CacheOptions struct {
	Enabled    bool
	TTL        time.Duration
	APIName    string
	AllowAuth  bool
}

// RetryOptions controls per-call retry behavior (spec.md §4.6 "Retry policy").
type RetryOptions struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	ForceRetry     bool
}

var retryableStatus = map[int]bool{408: true, 429: true, 500: true, 502: true, 503: true, 504: true}
var retryableMethods = map[string]bool{"GET": true, "HEAD": true, "PUT": true, "DELETE": true, "OPTIONS": true}

// Context bundles the per-call execution knobs (spec.md §4.6 "Execution Context").
type Context struct {
	DryRun         bool
	IdempotencyKey string
	Cache          *CacheOptions
	Retry          *RetryOptions
	UserAgent      string
	Timeout        time.Duration
}

// Executor dispatches OperationCalls through a Doer, with optional caching.
type Executor struct {
	Transport httptransport.Doer
	Cache     *respcache.Cache
}

// Execute runs one call end-to-end.
func (e *Executor) Execute(call OperationCall, ctx Context) (*CallResult, error) {
	for _, b := range call.Auth {
		if b.Location == "query" {
			call.Query = append(call.Query, KV{Key: b.Name, Value: b.Value})
		}
	}

	reqURL, err := buildURL(call)
	if err != nil {
		return nil, err
	}

	headers := buildHeaders(call, ctx)
	var body []byte
	if len(call.Body) > 0 {
		body = call.Body
	}

	cacheable := false
	var key respcache.Key
	if e.Cache != nil && ctx.Cache != nil {
		cfg := respcache.Config{Enabled: ctx.Cache.Enabled, AllowAuthenticated: ctx.Cache.AllowAuth}
		if respcache.IsCacheable(cfg, call.Method, headers) {
			cacheable = true
			key = respcache.NewKey(ctx.Cache.APIName, call.OperationID, call.Method, reqURL, headers, body)
			if entry, ok := e.Cache.Get(key); ok {
				return &CallResult{StatusCode: entry.StatusCode, Headers: entry.Headers, Body: entry.Body, FromCache: true}, nil
			}
		}
	}

	if ctx.DryRun {
		return &CallResult{
			StatusCode: 0,
			Headers:    headers,
			Body:       fmt.Sprintf("DRY RUN: %s %s\nHeaders: %v\nBody: %s", call.Method, reqURL, headers, string(body)),
		}, nil
	}

	start := time.Now()
	resp, err := e.dispatchWithRetry(call.Method, reqURL, headers, body, ctx)
	elapsed := time.Since(start)
	if err != nil {
		return nil, apperr.Wrap(apperr.Transport, fmt.Sprintf("request to %s failed", reqURL), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.New(apperr.Http, fmt.Sprintf("%s %s returned status %d", call.Method, reqURL, resp.StatusCode)).
			WithDetail("status", fmt.Sprint(resp.StatusCode)).
			WithDetail("operation_id", call.OperationID).
			WithDetail("body", string(resp.Body))
	}

	result := &CallResult{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       string(resp.Body),
		Elapsed:    elapsed,
	}

	if cacheable {
		entry := respcache.Entry{
			Body:       result.Body,
			StatusCode: result.StatusCode,
			Headers:    result.Headers,
			RequestInfo: respcache.RequestInfo{Method: call.Method, URL: reqURL, Headers: headers},
		}
		ttl := time.Duration(0)
		if ctx.Cache != nil {
			ttl = ctx.Cache.TTL
		}
		_ = e.Cache.Store(key, entry, ttl)
	}

	return result, nil
}

func (e *Executor) dispatchWithRetry(method, reqURL string, headers map[string]string, body []byte, ctx Context) (*httptransport.Response, error) {
	attempts := 1
	var initial, maxDelay time.Duration
	forceRetry := false
	if ctx.Retry != nil {
		attempts = ctx.Retry.MaxAttempts
		initial = ctx.Retry.InitialDelay
		maxDelay = ctx.Retry.MaxDelay
		forceRetry = ctx.Retry.ForceRetry
	}
	if attempts < 1 {
		attempts = 1
	}

	canRetryMethod := retryableMethods[method] || headers["Idempotency-Key"] != "" || forceRetry

	var lastErr error
	var lastResp *httptransport.Response
	for k := 0; k < attempts; k++ {
		resp, err := e.Transport.Do(httptransport.Request{Method: method, URL: reqURL, Headers: headers, Body: body, Timeout: ctx.Timeout})
		if err == nil && !retryableStatus[resp.StatusCode] {
			return resp, nil
		}
		lastErr, lastResp = err, resp

		shouldRetry := k < attempts-1 && canRetryMethod && (err != nil || retryableStatus[resp.StatusCode])
		if !shouldRetry {
			break
		}
		delay := initial << uint(k)
		if maxDelay > 0 && delay > maxDelay {
			delay = maxDelay
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return lastResp, nil
}

func buildURL(call OperationCall) (string, error) {
	base := strings.TrimRight(call.BaseURL, "/")
	path := call.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	full := base + path

	if len(call.Query) > 0 {
		var qs []string
		for _, kv := range call.Query {
			qs = append(qs, url.QueryEscape(kv.Key)+"="+url.QueryEscape(kv.Value))
		}
		full += "?" + strings.Join(qs, "&")
	}
	return full, nil
}

func buildHeaders(call OperationCall, ctx Context) map[string]string {
	headers := map[string]string{}
	for _, b := range call.Auth {
		switch b.Location {
		case "header":
			headers[b.Name] = b.Value
		}
	}
	for _, kv := range call.Headers {
		headers[kv.Key] = kv.Value
	}
	if len(call.Cookies) > 0 {
		sort.Slice(call.Cookies, func(i, j int) bool { return call.Cookies[i].Key < call.Cookies[j].Key })
		var parts []string
		for _, c := range call.Cookies {
			parts = append(parts, c.Key+"="+c.Value)
		}
		headers["Cookie"] = strings.Join(parts, "; ")
	}
	for _, b := range call.Auth {
		if b.Location == "cookie" {
			existing := headers["Cookie"]
			piece := b.Name + "=" + b.Value
			if existing == "" {
				headers["Cookie"] = piece
			} else {
				headers["Cookie"] = existing + "; " + piece
			}
		}
	}
	if ctx.IdempotencyKey != "" {
		headers["Idempotency-Key"] = ctx.IdempotencyKey
	}
	if ctx.UserAgent != "" {
		headers["User-Agent"] = ctx.UserAgent
	} else {
		headers["User-Agent"] = "aperture/1.0"
	}
	if len(call.Body) > 0 {
		headers["Content-Type"] = "application/json"
	}
	return headers
}
