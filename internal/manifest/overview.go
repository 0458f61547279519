package manifest

import (
	"fmt"
	"strings"

	"github.com/blackcoderx/aperture/internal/cachedspec"
)

// Overview is a one-paragraph-per-API summary (recovered from
// original_source/src/docs.rs; spec.md §12 supplemented feature).
type Overview struct {
	Name            string `json:"name"`
	Version         string `json:"version,omitempty"`
	OperationCount  int    `json:"operation_count"`
	Tags            []string `json:"tags"`
	SkippedCount    int    `json:"skipped_count,omitempty"`
}

// BuildOverview summarizes one Cached Spec.
func BuildOverview(spec *cachedspec.Spec) Overview {
	o := Overview{
		Name:           spec.Name,
		Version:        spec.Version,
		OperationCount: len(spec.Commands),
		SkippedCount:   len(spec.Skipped),
	}

	seen := map[string]bool{}
	for _, c := range spec.Commands {
		g := c.EffectiveGroup()
		if !seen[g] {
			seen[g] = true
			o.Tags = append(o.Tags, g)
		}
	}
	return o
}

// Describe renders a one-paragraph human-readable summary.
func (o Overview) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", o.Name)
	if o.Version != "" {
		fmt.Fprintf(&b, " (v%s)", o.Version)
	}
	fmt.Fprintf(&b, ": %d operations across %d tags (%s)", o.OperationCount, len(o.Tags), strings.Join(o.Tags, ", "))
	if o.SkippedCount > 0 {
		fmt.Fprintf(&b, "; %d endpoints skipped", o.SkippedCount)
	}
	return b.String()
}
