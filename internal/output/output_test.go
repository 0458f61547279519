package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/blackcoderx/aperture/internal/apperr"
)

func TestRenderJSONDefault(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, `{"name":"widget","count":2}`, Options{Format: FormatJSON})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output was not valid JSON: %v", err)
	}
	if doc["name"] != "widget" {
		t.Fatalf("got %+v", doc)
	}
}

func TestRenderNonJSONBodyPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, "plain text body", Options{Format: FormatJSON}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "plain text body" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, `{"name":"widget"}`, Options{Format: FormatYAML}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "name: widget") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestRenderWithJqFilter(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, `{"items":[{"id":1},{"id":2}]}`, Options{Format: FormatJSON, Jq: ".items[].id"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []int
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output was not a JSON array: %v, raw=%s", err, buf.String())
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestRenderInvalidJqFilter(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, `{"a":1}`, Options{Format: FormatJSON, Jq: "!!!not a filter"})
	if err == nil {
		t.Fatal("expected an error for an invalid jq filter")
	}
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.InvalidArgument {
		t.Fatalf("got kind %v, want InvalidArgument", kind)
	}
}

func TestRenderErrorPlainText(t *testing.T) {
	var buf bytes.Buffer
	RenderError(&buf, apperr.New(apperr.Http, "not found"), false)
	if !strings.Contains(buf.String(), "error: not found") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestRenderErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	e := apperr.New(apperr.Http, "not found").WithDetail("status", "404")
	RenderError(&buf, e, true)
	var payload ErrorPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("output was not valid JSON: %v", err)
	}
	if payload.ErrorType != "http" || payload.Message != "not found" || payload.Details["status"] != "404" {
		t.Fatalf("got %+v", payload)
	}
}

func TestRenderErrorJSONUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	RenderError(&buf, errors404(), true)
	var payload ErrorPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("output was not valid JSON: %v", err)
	}
	if payload.ErrorType != "unknown" {
		t.Fatalf("got %q, want unknown for a non-*apperr.Error", payload.ErrorType)
	}
}

type plainError struct{ msg string }

func (p plainError) Error() string { return p.msg }

func errors404() error { return plainError{msg: "boom"} }
