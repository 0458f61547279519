// Package openapi loads an OpenAPI 3.x document from a local path or an
// HTTP(S) URL and hands back the parsed libopenapi v3 model.
package openapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pb33f/libopenapi"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// DefaultFetchTimeout and DefaultMaxBodyBytes bound a remote spec fetch per
// spec.md §4.1.
const (
	DefaultFetchTimeout = 30 * time.Second
	DefaultMaxBodyBytes = 10 * 1024 * 1024
)

// Document wraps the parsed document and its raw bytes, so the raw spec can
// be persisted verbatim under specs/<api>.yaml.
type Document struct {
	Model *v3.Document
	Raw   []byte
}

// Load reads source (a file path or an http(s) URL) and parses it as an
// OpenAPI 3.x document.
func Load(ctx context.Context, source string, timeout time.Duration, maxBytes int64) (*Document, error) {
	raw, err := read(ctx, source, timeout, maxBytes)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse builds a libopenapi v3 model from raw spec bytes (YAML or JSON).
func Parse(raw []byte) (*Document, error) {
	doc, err := libopenapi.NewDocument(raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.Load, "failed to parse OpenAPI document", err)
	}
	model, errs := doc.BuildV3Model()
	if len(errs) > 0 {
		return nil, apperr.Wrap(apperr.Load, "failed to build OpenAPI v3 model", errs[0])
	}
	return &Document{Model: &model.Model, Raw: raw}, nil
}

func read(ctx context.Context, source string, timeout time.Duration, maxBytes int64) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return fetchRemote(ctx, source, timeout, maxBytes)
	}

	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, apperr.Wrap(apperr.Load, fmt.Sprintf("failed to read spec file %q", source), err)
	}
	return raw, nil
}

func fetchRemote(ctx context.Context, url string, timeout time.Duration, maxBytes int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.RemoteFetch, "failed to build spec request", err)
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.RemoteFetch, fmt.Sprintf("failed to fetch spec from %q", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.New(apperr.RemoteFetch, fmt.Sprintf("remote spec fetch returned status %d", resp.StatusCode))
	}

	limited := io.LimitReader(resp.Body, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, apperr.Wrap(apperr.RemoteFetch, "failed to read spec response body", err)
	}
	if int64(len(raw)) > maxBytes {
		return nil, apperr.New(apperr.RemoteFetch, fmt.Sprintf("remote spec body too large (exceeds %d bytes)", maxBytes))
	}
	return raw, nil
}
