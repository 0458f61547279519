package cachedspec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	base "github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	orderedmap "github.com/pb33f/ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// TransformOptions carries the inputs the transform needs beyond the parsed
// document itself.
type TransformOptions struct {
	Name     string
	Warnings []string
}

const maxRefDepth = 10

// Transform converts a validated OpenAPI v3 document into a Spec.
func Transform(doc *v3.Document, opts TransformOptions) (*Spec, []string, error) {
	spec := &Spec{
		SchemaVersion:   SchemaVersion,
		Name:            opts.Name,
		ServerVariables: map[string]ServerVariable{},
		SecuritySchemes: map[string]SecurityScheme{},
	}

	if doc.Info != nil {
		spec.Version = doc.Info.Version
	}

	for _, s := range doc.Servers {
		spec.Servers = append(spec.Servers, s.URL)
		for pair := orderedServerVars(s.Variables); pair != nil; pair = pair.Next() {
			v := pair.Value()
			spec.ServerVariables[pair.Key()] = ServerVariable{
				Default:     v.Default,
				Enum:        v.Enum,
				Description: v.Description,
			}
		}
	}

	var docSecurity []string
	if doc.Security != nil {
		docSecurity = flattenSecurity(doc.Security)
	}

	unsupportedSchemes := map[string]bool{}
	if doc.Components != nil {
		for pair := doc.Components.SecuritySchemes.First(); pair != nil; pair = pair.Next() {
			scheme, err := transformSecurityScheme(pair.Value())
			if err != nil {
				return nil, nil, err
			}
			spec.SecuritySchemes[pair.Key()] = *scheme
			if scheme.Kind == SchemeUnsupported {
				unsupportedSchemes[pair.Key()] = true
			}
		}
	}

	warnings := append([]string{}, opts.Warnings...)
	skipped := []SkippedEndpoint{}

	for pathPair := doc.Paths.PathItems.First(); pathPair != nil; pathPair = pathPair.Next() {
		path := pathPair.Key()
		item := pathPair.Value()

		for method, op := range operationsOf(item) {
			if op == nil {
				continue
			}

			reqs := doc.Security
			if op.Security != nil {
				reqs = op.Security
			}
			if reason, skip := unsupportedSecurityReason(reqs, unsupportedSchemes); skip {
				skipped = append(skipped, SkippedEndpoint{Path: path, Method: strings.ToUpper(method), Reason: reason})
				continue
			}

			cmd, skip, err := transformOperation(path, method, op, docSecurity)
			if err != nil {
				return nil, nil, err
			}
			if skip != nil {
				skipped = append(skipped, *skip)
				continue
			}
			spec.Commands = append(spec.Commands, *cmd)
		}
	}

	spec.Skipped = skipped
	sort.SliceStable(spec.Commands, func(i, j int) bool {
		if spec.Commands[i].Tag != spec.Commands[j].Tag {
			return spec.Commands[i].Tag < spec.Commands[j].Tag
		}
		return spec.Commands[i].OperationID < spec.Commands[j].OperationID
	})

	return spec, warnings, nil
}

func orderedServerVars(vars *orderedmap.Map[string, *v3.ServerVariable]) *orderedmap.Pair[string, *v3.ServerVariable] {
	if vars == nil {
		return nil
	}
	return vars.First()
}

func transformSecurityScheme(s *v3.SecurityScheme) (*SecurityScheme, error) {
	out := &SecurityScheme{}

	switch strings.ToLower(s.Type) {
	case "apikey":
		out.Kind = SchemeAPIKey
		out.APIKeyLocation = ParamLocation(strings.ToLower(s.In))
		out.APIKeyParam = s.Name
	case "http":
		switch strings.ToLower(s.Scheme) {
		case "basic":
			out.Kind = SchemeHTTPBasic
		case "bearer":
			out.Kind = SchemeHTTPBearer
			out.BearerFormat = s.BearerFormat
		default:
			out.Kind = SchemeHTTPToken
			out.TokenScheme = s.Scheme
		}
	case "oauth2", "openidconnect":
		// Recognized but not implemented by the Auth Binder (spec.md §4.1
		// rule 1): operations that can only use this scheme are skipped,
		// rather than failing the whole transform.
		out.Kind = SchemeUnsupported
	default:
		return nil, apperr.New(apperr.Validation, fmt.Sprintf("unsupported security scheme type %q", s.Type))
	}

	if ext, ok := extensionObject(s.Extensions, "x-aperture-secret"); ok {
		name, _ := ext["name"].(string)
		out.Secret = &SecretBinding{Source: "env", Name: name}
	}

	return out, nil
}

// unsupportedSecurityReason reports whether every security alternative for
// an operation references at least one unsupported scheme, in which case
// the operation cannot be satisfied at all and must be skipped (spec.md
// §4.1 rule 1). An operation with no security requirements is never
// skipped on this basis.
func unsupportedSecurityReason(reqs []*base.SecurityRequirement, unsupported map[string]bool) (string, bool) {
	if len(reqs) == 0 || len(unsupported) == 0 {
		return "", false
	}

	for _, req := range reqs {
		viable := true
		for pair := req.Requirements.First(); pair != nil; pair = pair.Next() {
			if unsupported[pair.Key()] {
				viable = false
				break
			}
		}
		if viable {
			return "", false
		}
	}
	return "every security alternative references an unsupported scheme type (oauth2/openIdConnect)", true
}

// flattenSecurity unions every scheme name across every alternative
// (spec.md §4.2 "Global vs operation security" / §9 open question #2).
func flattenSecurity(reqs []*base.SecurityRequirement) []string {
	seen := map[string]bool{}
	var names []string
	for _, req := range reqs {
		for pair := req.Requirements.First(); pair != nil; pair = pair.Next() {
			if !seen[pair.Key()] {
				seen[pair.Key()] = true
				names = append(names, pair.Key())
			}
		}
	}
	return names
}

func transformOperation(path, method string, op *v3.Operation, docSecurity []string) (*Command, *SkippedEndpoint, error) {
	tag := "default"
	if len(op.Tags) > 0 {
		tag = op.Tags[0]
	}

	cmd := &Command{
		Tag:         tag,
		Summary:     op.Summary,
		Description: op.Description,
		OperationID: op.OperationId,
		Method:      strings.ToUpper(method),
		Path:        path,
		Responses:   map[string]string{},
	}

	if op.Deprecated != nil && *op.Deprecated {
		cmd.Description = strings.TrimSpace(cmd.Description + "\n(deprecated)")
	}

	for _, p := range op.Parameters {
		param, err := transformParameter(p)
		if err != nil {
			return nil, nil, err
		}
		cmd.Parameters = append(cmd.Parameters, *param)
	}

	if op.RequestBody != nil {
		body, skip, err := transformRequestBody(path, method, op.RequestBody)
		if err != nil {
			return nil, nil, err
		}
		if skip != "" {
			return nil, &SkippedEndpoint{Path: path, Method: strings.ToUpper(method), Reason: skip}, nil
		}
		cmd.RequestBody = body
	}

	if op.Responses != nil {
		for pair := op.Responses.Codes.First(); pair != nil; pair = pair.Next() {
			cmd.Responses[pair.Key()] = pair.Value().Description
		}
	}

	if op.Security != nil {
		cmd.Security = flattenSecurity(op.Security)
	} else {
		cmd.Security = docSecurity
	}

	return cmd, nil, nil
}

func transformParameter(p *v3.Parameter) (*Parameter, error) {
	if p.Schema == nil {
		return nil, apperr.New(apperr.Validation, fmt.Sprintf("parameter %q has no schema", p.Name))
	}

	param := &Parameter{
		Name:        p.Name,
		In:          ParamLocation(strings.ToLower(p.In)),
		Required:    p.Required != nil && *p.Required,
		Description: p.Description,
	}

	if s := p.Schema.Schema(); s != nil {
		param.Type = semanticType(s)
		param.Format = s.Format
		if s.Default != nil {
			param.Default = nodeToString(s.Default)
		}
		for _, e := range s.Enum {
			param.Enum = append(param.Enum, nodeToString(e))
		}
		if s.Example != nil {
			param.Example = nodeToString(s.Example)
		}
		if fp, err := json.Marshal(s); err == nil {
			param.SchemaFP = string(fp)
		}
	}

	return param, nil
}

func transformRequestBody(path, method string, rb *v3.RequestBody) (*RequestBody, string, error) {
	if rb.Content == nil {
		return nil, "", nil
	}

	var jsonType, otherType string
	var item *v3.MediaType
	for pair := rb.Content.First(); pair != nil; pair = pair.Next() {
		ct := pair.Key()
		if isJSONContentType(ct) {
			if jsonType == "" {
				jsonType = ct
				item = pair.Value()
			}
		} else if otherType == "" {
			otherType = ct
		}
	}

	if jsonType == "" {
		return nil, skipReasonFor(otherType), nil
	}

	body := &RequestBody{
		ContentType: jsonType,
		Required:    rb.Required != nil && *rb.Required,
		Description: rb.Description,
	}
	if item != nil && item.Schema != nil {
		if s := item.Schema.Schema(); s != nil {
			if fp, err := json.Marshal(s); err == nil {
				body.SchemaFP = string(fp)
			}
		}
		if item.Example != nil {
			body.Example = nodeToString(item.Example)
		}
	}
	return body, "", nil
}

func semanticType(s *base.Schema) SemanticType {
	if len(s.Type) == 0 {
		return TypeObject
	}
	switch s.Type[0] {
	case "integer":
		return TypeInteger
	case "number":
		return TypeNumber
	case "boolean":
		return TypeBoolean
	case "array":
		return TypeArray
	case "string":
		return TypeString
	default:
		return TypeObject
	}
}

func nodeToString(n *yaml.Node) string {
	if n == nil {
		return ""
	}
	return n.Value
}
