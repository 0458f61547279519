// Package batchfile parses JSON/YAML batch files into batch.Operation values
// (spec.md §4.7 "Batch file format").
package batchfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blackcoderx/aperture/internal/apperr"
	"github.com/blackcoderx/aperture/internal/batch"
)

// File is the top-level batch document shape.
type File struct {
	Metadata  map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Operations []rawOperation `json:"operations" yaml:"operations"`
}

// rawOperation mirrors the on-disk shape of one batch entry before it is
// converted to batch.Operation.
type rawOperation struct {
	ID            string            `json:"id,omitempty" yaml:"id,omitempty"`
	Args          []string          `json:"args" yaml:"args"`
	Description   string            `json:"description,omitempty" yaml:"description,omitempty"`
	Headers       map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	UseCache      *bool             `json:"use_cache,omitempty" yaml:"use_cache,omitempty"`
	Retry         int               `json:"retry,omitempty" yaml:"retry,omitempty"`
	RetryDelay    string            `json:"retry_delay,omitempty" yaml:"retry_delay,omitempty"`
	RetryMaxDelay string            `json:"retry_max_delay,omitempty" yaml:"retry_max_delay,omitempty"`
	ForceRetry    bool              `json:"force_retry,omitempty" yaml:"force_retry,omitempty"`
	Capture       map[string]string `json:"capture,omitempty" yaml:"capture,omitempty"`
	CaptureAppend map[string]string `json:"capture_append,omitempty" yaml:"capture_append,omitempty"`
	DependsOn     []string          `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// Load reads and parses a batch file, dispatching on extension (.yaml/.yml
// parse as YAML, everything else as JSON).
func Load(path string) ([]batch.Operation, map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.Load, fmt.Sprintf("failed to read batch file %q", path), err)
	}

	var f File
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, nil, apperr.Wrap(apperr.Load, fmt.Sprintf("failed to parse batch file %q as YAML", path), err)
		}
	} else {
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, nil, apperr.Wrap(apperr.Load, fmt.Sprintf("failed to parse batch file %q as JSON", path), err)
		}
	}

	if len(f.Operations) == 0 {
		return nil, nil, apperr.New(apperr.Validation, fmt.Sprintf("batch file %q declares no operations", path))
	}

	ops := make([]batch.Operation, len(f.Operations))
	for i, r := range f.Operations {
		ops[i] = batch.Operation{
			ID:            r.ID,
			Args:          r.Args,
			Description:   r.Description,
			Headers:       r.Headers,
			UseCache:      r.UseCache,
			Retry:         r.Retry,
			RetryDelay:    r.RetryDelay,
			RetryMaxDelay: r.RetryMaxDelay,
			ForceRetry:    r.ForceRetry,
			Capture:       r.Capture,
			CaptureAppend: r.CaptureAppend,
			DependsOn:     r.DependsOn,
		}
	}
	return ops, f.Metadata, nil
}
