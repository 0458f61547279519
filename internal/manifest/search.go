package manifest

import (
	"strings"

	"github.com/blackcoderx/aperture/internal/cachedspec"
)

// SearchResult is one matching operation's CLI coordinates (recovered from
// original_source/src/docs.rs; spec.md §12 supplemented feature).
type SearchResult struct {
	API         string `json:"api"`
	Group       string `json:"group"`
	Name        string `json:"name"`
	OperationID string `json:"operation_id,omitempty"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Summary     string `json:"summary,omitempty"`
}

// Search performs a case-insensitive substring search over operation id,
// summary, description, and path within one API's Cached Spec.
func Search(api string, spec *cachedspec.Spec, query string) []SearchResult {
	needle := strings.ToLower(query)
	var results []SearchResult
	for _, c := range spec.Commands {
		haystacks := []string{c.OperationID, c.Summary, c.Description, c.Path}
		matched := false
		for _, h := range haystacks {
			if strings.Contains(strings.ToLower(h), needle) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		results = append(results, SearchResult{
			API: api, Group: c.EffectiveGroup(), Name: c.EffectiveName(),
			OperationID: c.OperationID, Method: c.Method, Path: c.Path, Summary: c.Summary,
		})
	}
	return results
}
