// Package cachedspec defines the denormalized in-memory and on-disk model
// of one registered API, and the transform from a parsed OpenAPI document
// into that model.
package cachedspec

// SchemaVersion is bumped whenever the on-disk binary layout changes.
// A mismatch on load forces re-derivation from the original spec.
const SchemaVersion = 1

// Spec is the canonical in-memory model of one API (spec.md §3 "Cached Spec").
type Spec struct {
	SchemaVersion   int
	Name            string
	Version         string
	Commands        []Command
	BaseURL         string
	Servers         []string
	ServerVariables map[string]ServerVariable
	SecuritySchemes map[string]SecurityScheme
	Skipped         []SkippedEndpoint
}

// ServerVariable describes one `{var}` token in a server URL template.
type ServerVariable struct {
	Default     string
	Enum        []string
	Description string
}

// SkippedEndpoint records an operation the loader chose not to carry
// forward, along with a human-readable reason.
type SkippedEndpoint struct {
	Path        string
	Method      string
	ContentType string
	Reason      string
}

// Command is one operation (spec.md §3 "Cached Command").
type Command struct {
	Tag          string
	Summary      string
	Description  string
	OperationID  string
	Method       string
	Path         string
	Parameters   []Parameter
	RequestBody  *RequestBody
	Responses    map[string]string
	Security     []string
	DisplayGroup string
	DisplayName  string
	Aliases      []string
	Hidden       bool
}

// EffectiveGroup returns the command's CLI group after mapping.
func (c Command) EffectiveGroup() string {
	if c.DisplayGroup != "" {
		return c.DisplayGroup
	}
	if c.Tag != "" {
		return kebabCase(c.Tag)
	}
	return "default"
}

// EffectiveName returns the command's CLI leaf name after mapping.
func (c Command) EffectiveName() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.OperationID != "" {
		return kebabCase(c.OperationID)
	}
	return lower(c.Method)
}

// ParamLocation is one of the four places a parameter may live.
type ParamLocation string

const (
	InPath   ParamLocation = "path"
	InQuery  ParamLocation = "query"
	InHeader ParamLocation = "header"
	InCookie ParamLocation = "cookie"
)

// SemanticType is the coarse JSON-schema type tag carried for flag generation.
type SemanticType string

const (
	TypeString  SemanticType = "string"
	TypeInteger SemanticType = "integer"
	TypeNumber  SemanticType = "number"
	TypeBoolean SemanticType = "boolean"
	TypeArray   SemanticType = "array"
	TypeObject  SemanticType = "object"
)

// Parameter is one operation parameter (spec.md §3 "Cached Parameter").
type Parameter struct {
	Name        string
	In          ParamLocation
	Required    bool
	Description string
	SchemaFP    string
	Type        SemanticType
	Format      string
	Default     string
	Enum        []string
	Example     string
}

// RequestBody is the JSON request body accepted by an operation.
type RequestBody struct {
	ContentType string
	SchemaFP    string
	Required    bool
	Description string
	Example     string
}

// SecurityScheme is a tagged variant over the four kinds aperture supports.
type SecurityScheme struct {
	Kind SecuritySchemeKind

	// ApiKey
	APIKeyLocation ParamLocation
	APIKeyParam    string

	// HttpBearer
	BearerFormat string

	// HttpToken
	TokenScheme string

	Secret *SecretBinding
}

// SecuritySchemeKind enumerates the security scheme shapes aperture
// recognizes. SchemeUnsupported covers types (oauth2, openIdConnect) that
// are recognized but have no Auth Binder support; operations that can only
// authenticate through such a scheme are recorded as skipped endpoints
// rather than failing the whole transform (spec.md §4.1 rule 1).
type SecuritySchemeKind string

const (
	SchemeAPIKey      SecuritySchemeKind = "api_key"
	SchemeHTTPBearer  SecuritySchemeKind = "http_bearer"
	SchemeHTTPBasic   SecuritySchemeKind = "http_basic"
	SchemeHTTPToken   SecuritySchemeKind = "http_token"
	SchemeUnsupported SecuritySchemeKind = "unsupported"
)

// SecretBinding is the optional `x-aperture-secret` extension on a scheme.
type SecretBinding struct {
	Source string // always "env"
	Name   string
}
