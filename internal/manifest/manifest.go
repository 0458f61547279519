// Package manifest builds the --describe-json capability manifest by
// walking a Cached Spec the same way the Command Generator does, so the
// two never drift (spec.md §6, §12).
package manifest

import "github.com/blackcoderx/aperture/internal/cachedspec"

// Manifest is the stable JSON document describing one API's capabilities.
type Manifest struct {
	Name            string               `json:"name"`
	Version         string               `json:"version,omitempty"`
	BaseURL         string               `json:"base_url,omitempty"`
	Groups          []Group              `json:"groups"`
	SecuritySchemes []SecuritySchemeInfo `json:"security_schemes,omitempty"`
	Skipped         []SkippedInfo        `json:"skipped_endpoints,omitempty"`
}

// Group is one tag's worth of operations.
type Group struct {
	Name     string      `json:"name"`
	Commands []CommandInfo `json:"commands"`
}

// CommandInfo describes one operation's CLI-facing shape.
type CommandInfo struct {
	Name        string          `json:"name"`
	OperationID string          `json:"operation_id,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Method      string          `json:"method"`
	Path        string          `json:"path"`
	Aliases     []string        `json:"aliases,omitempty"`
	Parameters  []ParameterInfo `json:"parameters,omitempty"`
	RequestBody *RequestBodyInfo `json:"request_body,omitempty"`
	Security    []string        `json:"security,omitempty"`
}

// ParameterInfo describes one parameter's manifest-facing shape.
type ParameterInfo struct {
	Name        string   `json:"name"`
	In          string   `json:"in"`
	Type        string   `json:"type"`
	Required    bool     `json:"required,omitempty"`
	Format      string   `json:"format,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Example     string   `json:"example,omitempty"`
	Description string   `json:"description,omitempty"`
}

// RequestBodyInfo describes the request body's manifest-facing shape.
type RequestBodyInfo struct {
	ContentType string `json:"content_type"`
	Required    bool   `json:"required,omitempty"`
	Example     string `json:"example,omitempty"`
}

// SecuritySchemeInfo describes a scheme and, when present, its declared
// x-aperture-secret binding.
type SecuritySchemeInfo struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	EnvVar  string `json:"env_var,omitempty"`
}

// SkippedInfo mirrors cachedspec.SkippedEndpoint.
type SkippedInfo struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	ContentType string `json:"content_type,omitempty"`
	Reason      string `json:"reason"`
}

// Build walks spec and produces its Manifest. Empty lists and false
// booleans are omitted via the `omitempty` tags above (spec.md §6).
func Build(spec *cachedspec.Spec) Manifest {
	m := Manifest{Name: spec.Name, Version: spec.Version, BaseURL: spec.BaseURL}

	groupOrder := []string{}
	groupIdx := map[string]int{}
	for _, c := range spec.Commands {
		g := c.EffectiveGroup()
		idx, ok := groupIdx[g]
		if !ok {
			idx = len(m.Groups)
			groupIdx[g] = idx
			m.Groups = append(m.Groups, Group{Name: g})
			groupOrder = append(groupOrder, g)
		}
		m.Groups[idx].Commands = append(m.Groups[idx].Commands, commandInfo(c))
	}

	for name, scheme := range spec.SecuritySchemes {
		info := SecuritySchemeInfo{Name: name, Kind: string(scheme.Kind)}
		if scheme.Secret != nil {
			info.EnvVar = scheme.Secret.Name
		}
		m.SecuritySchemes = append(m.SecuritySchemes, info)
	}

	for _, s := range spec.Skipped {
		m.Skipped = append(m.Skipped, SkippedInfo{Path: s.Path, Method: s.Method, ContentType: s.ContentType, Reason: s.Reason})
	}

	return m
}

func commandInfo(c cachedspec.Command) CommandInfo {
	info := CommandInfo{
		Name:        c.EffectiveName(),
		OperationID: c.OperationID,
		Summary:     c.Summary,
		Method:      c.Method,
		Path:        c.Path,
		Aliases:     c.Aliases,
		Security:    c.Security,
	}
	for _, p := range c.Parameters {
		info.Parameters = append(info.Parameters, ParameterInfo{
			Name: p.Name, In: string(p.In), Type: string(p.Type), Required: p.Required,
			Format: p.Format, Enum: p.Enum, Example: p.Example, Description: p.Description,
		})
	}
	if c.RequestBody != nil {
		info.RequestBody = &RequestBodyInfo{ContentType: c.RequestBody.ContentType, Required: c.RequestBody.Required, Example: c.RequestBody.Example}
	}
	return info
}
