package batch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// Extract evaluates a bounded JSON-query expression against a response body
// (spec.md §4.10): `.` selects the whole document, `.field` and `.[n]`
// select and chain without limit (`.items.[0].id`).
func Extract(body []byte, expr string) (string, error) {
	if strings.TrimSpace(expr) == "" {
		return "", apperr.New(apperr.CaptureFailed, "empty capture expression")
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", apperr.Wrap(apperr.CaptureFailed, "response body is not valid JSON", err)
	}

	cur := doc
	for _, seg := range splitPath(expr) {
		next, err := step(cur, seg)
		if err != nil {
			return "", apperr.Wrap(apperr.CaptureFailed, fmt.Sprintf("capture expression %q failed", expr), err)
		}
		cur = next
	}
	return toDisplayString(cur), nil
}

// splitPath turns ".items.[0].id" into ["items", "[0]", "id"], and "." alone
// into an empty segment list (selects the whole document).
func splitPath(expr string) []string {
	trimmed := strings.TrimPrefix(expr, ".")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, ".")
}

func step(cur any, seg string) (any, error) {
	if strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]") {
		idxStr := seg[1 : len(seg)-1]
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", seg)
		}
		arr, ok := cur.([]any)
		if !ok {
			return nil, fmt.Errorf("cannot index non-array with %q", seg)
		}
		if idx < 0 || idx >= len(arr) {
			return nil, fmt.Errorf("index %d out of range (length %d)", idx, len(arr))
		}
		return arr[idx], nil
	}

	obj, ok := cur.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot access field %q on non-object", seg)
	}
	// spec.md §4.10: missing object key -> null, not a capture failure.
	return obj[seg], nil
}
