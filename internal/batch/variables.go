package batch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// Store holds two disjoint maps — scalars and lists — sharing one flat
// namespace for interpolation lookup (spec.md §3 "Variable Store").
type Store struct {
	scalars map[string]string
	lists   map[string][]string
}

// NewStore returns an empty variable store.
func NewStore() *Store {
	return &Store{scalars: map[string]string{}, lists: map[string][]string{}}
}

// Set assigns (overwrites) a scalar variable, as a `capture` slot does.
func (s *Store) Set(name, value string) {
	s.scalars[name] = value
}

// Append adds value to name's list, creating it if absent, as a
// `capture_append` slot does.
func (s *Store) Append(name, value string) {
	s.lists[name] = append(s.lists[name], value)
}

// lookup returns a variable's interpolated textual form. If a name exists
// as both a scalar and a list, the list wins (spec.md §4.9).
func (s *Store) lookup(name string) (string, bool) {
	if list, ok := s.lists[name]; ok {
		encoded, err := json.Marshal(list)
		if err != nil {
			return "", false
		}
		return string(encoded), true
	}
	if scalar, ok := s.scalars[name]; ok {
		return scalar, true
	}
	return "", false
}

// Get exposes a variable's interpolated textual form (used by callers
// displaying or re-using a captured value directly, outside interpolation).
func (s *Store) Get(name string) (string, bool) {
	return s.lookup(name)
}

// Interpolate replaces every {{name}} occurrence in input using the store.
// Names may not contain leading/trailing spaces in the recognized grammar
// (spec.md §4.9) — a padded name simply never resolves and fails as
// UnresolvedVariable like any other unknown name. An unterminated `{{` with
// no matching `}}` is InvalidInterpolation, with no partial replacement.
func (s *Store) Interpolate(input string) (string, error) {
	var b strings.Builder
	remaining := input
	for {
		start := strings.Index(remaining, "{{")
		if start < 0 {
			b.WriteString(remaining)
			break
		}
		b.WriteString(remaining[:start])
		after := remaining[start+2:]
		end := strings.Index(after, "}}")
		if end < 0 {
			return "", apperr.New(apperr.InvalidInterpolation, fmt.Sprintf("unterminated {{ in %q", input))
		}
		name := after[:end]
		value, ok := s.lookup(name)
		if !ok {
			return "", apperr.New(apperr.UnresolvedVariable, fmt.Sprintf("variable %q is not defined", name)).WithDetail("variable", name)
		}
		b.WriteString(value)
		remaining = after[end+2:]
	}
	return b.String(), nil
}

// InterpolateAll applies Interpolate to every element of args.
func (s *Store) InterpolateAll(args []string) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		v, err := s.Interpolate(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// toDisplayString converts a captured JSON value to its stored string form
// (spec.md §4.10): a JSON string is unquoted, a number/bool/null uses its
// JSON textual form, and an object/array re-encodes as compact JSON.
func toDisplayString(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(encoded)
	}
}
