// Package docsrender renders the `docs` command's operation summaries as
// Markdown through glamour, exactly as cmd/falcon/main.go's runCLI renders
// responses through glamour.NewTermRenderer (spec.md §12 supplemented
// feature, recovered from original_source/src/docs.rs).
package docsrender

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/blackcoderx/aperture/internal/apperr"
	"github.com/blackcoderx/aperture/internal/cachedspec"
)

// Renderer renders Cached Spec documentation through glamour's terminal
// Markdown renderer.
type Renderer struct {
	term *glamour.TermRenderer
}

// New builds a Renderer using glamour's auto-detected style.
func New() (*Renderer, error) {
	term, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return nil, apperr.Wrap(apperr.Load, "failed to initialize docs renderer", err)
	}
	return &Renderer{term: term}, nil
}

// Tags renders the list of tags (groups) in spec, one per bullet.
func (r *Renderer) Tags(spec *cachedspec.Spec) (string, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", spec.Name)
	if spec.Version != "" {
		fmt.Fprintf(&md, "Version: `%s`\n\n", spec.Version)
	}
	md.WriteString("## Tags\n\n")
	for _, g := range groupsOf(spec) {
		fmt.Fprintf(&md, "- `%s`\n", g)
	}
	return r.term.Render(md.String())
}

// Operations renders every operation within one group.
func (r *Renderer) Operations(spec *cachedspec.Spec, group string, enhanced bool) (string, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s / %s\n\n", spec.Name, group)
	for _, c := range spec.Commands {
		if c.EffectiveGroup() != group {
			continue
		}
		fmt.Fprintf(&md, "## `%s`\n\n", c.EffectiveName())
		if c.Summary != "" {
			fmt.Fprintf(&md, "%s\n\n", c.Summary)
		}
		fmt.Fprintf(&md, "`%s %s`\n\n", c.Method, c.Path)
		if enhanced {
			writeEnhancedDetail(&md, spec, c)
		}
	}
	return r.term.Render(md.String())
}

// Operation renders full detail for one operation.
func (r *Renderer) Operation(spec *cachedspec.Spec, group, name string, enhanced bool) (string, error) {
	var md strings.Builder
	for _, c := range spec.Commands {
		if c.EffectiveGroup() != group || c.EffectiveName() != name {
			continue
		}
		fmt.Fprintf(&md, "# %s\n\n", c.EffectiveName())
		if c.Description != "" {
			fmt.Fprintf(&md, "%s\n\n", c.Description)
		} else if c.Summary != "" {
			fmt.Fprintf(&md, "%s\n\n", c.Summary)
		}
		fmt.Fprintf(&md, "`%s %s`\n\n", c.Method, c.Path)

		if len(c.Parameters) > 0 {
			md.WriteString("## Parameters\n\n")
			md.WriteString("| Name | In | Type | Required | Description |\n|---|---|---|---|---|\n")
			for _, p := range c.Parameters {
				fmt.Fprintf(&md, "| `%s` | %s | %s | %v | %s |\n", p.Name, p.In, p.Type, p.Required, p.Description)
			}
			md.WriteString("\n")
		}

		if c.RequestBody != nil {
			fmt.Fprintf(&md, "## Request Body\n\nContent-Type: `%s`, required: %v\n\n", c.RequestBody.ContentType, c.RequestBody.Required)
			if c.RequestBody.Example != "" {
				fmt.Fprintf(&md, "Example:\n```json\n%s\n```\n\n", c.RequestBody.Example)
			}
		}

		if enhanced {
			writeEnhancedDetail(&md, spec, c)
		}
		return r.term.Render(md.String())
	}
	return "", apperr.New(apperr.Configuration, fmt.Sprintf("no operation %q in group %q", name, group))
}

func writeEnhancedDetail(md *strings.Builder, spec *cachedspec.Spec, c cachedspec.Command) {
	if len(c.Security) == 0 {
		return
	}
	md.WriteString("Security: ")
	var hints []string
	for _, name := range c.Security {
		if scheme, ok := spec.SecuritySchemes[name]; ok && scheme.Secret != nil {
			hints = append(hints, fmt.Sprintf("`%s` (env `%s`)", name, scheme.Secret.Name))
		} else {
			hints = append(hints, fmt.Sprintf("`%s`", name))
		}
	}
	fmt.Fprintf(md, "%s\n\n", strings.Join(hints, ", "))
}

func groupsOf(spec *cachedspec.Spec) []string {
	seen := map[string]bool{}
	var groups []string
	for _, c := range spec.Commands {
		g := c.EffectiveGroup()
		if !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
	}
	return groups
}
