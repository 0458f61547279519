// Package output renders a CallResult (or an error) to stdout/stderr per
// the global --format/--jq/--json-errors flags (spec.md §6).
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// Format is one of the three supported output encodings.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// Options controls one render call.
type Options struct {
	Format Format
	Jq     string // compiled lazily per call; empty disables filtering
}

// Render writes body (expected to be JSON text, but rendered verbatim if
// not) to w per opts.
func Render(w io.Writer, body string, opts Options) error {
	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		// Not JSON: nothing to reformat or filter, print as-is.
		fmt.Fprintln(w, body)
		return nil
	}

	if opts.Jq != "" {
		filtered, err := applyJq(doc, opts.Jq)
		if err != nil {
			return err
		}
		doc = filtered
	}

	switch opts.Format {
	case FormatYAML:
		raw, err := yaml.Marshal(doc)
		if err != nil {
			return apperr.Wrap(apperr.Validation, "failed to encode output as YAML", err)
		}
		_, err = w.Write(raw)
		return err
	case FormatTable:
		return renderTable(w, doc)
	default:
		raw, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return apperr.Wrap(apperr.Validation, "failed to encode output as JSON", err)
		}
		fmt.Fprintln(w, string(raw))
		return nil
	}
}

func applyJq(doc any, filter string) (any, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidArgument, fmt.Sprintf("invalid --jq filter %q", filter), err)
	}
	iter := query.Run(doc)
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, apperr.Wrap(apperr.InvalidArgument, "jq filter evaluation failed", err)
		}
		results = append(results, v)
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

// ErrorPayload is the `--json-errors` structured error document (spec.md §6).
type ErrorPayload struct {
	ErrorType string            `json:"error_type"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

// RenderError writes err to w, either as plain text or as structured JSON
// when jsonErrors is set.
func RenderError(w io.Writer, err error, jsonErrors bool) {
	if !jsonErrors {
		fmt.Fprintln(w, "error:", err.Error())
		return
	}

	payload := ErrorPayload{ErrorType: "unknown", Message: err.Error()}
	if ae, ok := err.(*apperr.Error); ok {
		payload.ErrorType = string(ae.Kind)
		payload.Message = ae.Message
		payload.Details = ae.Details
	}
	raw, encErr := json.MarshalIndent(payload, "", "  ")
	if encErr != nil {
		fmt.Fprintln(w, "error:", err.Error())
		return
	}
	fmt.Fprintln(w, string(raw))
}
