package cachedspec

import (
	"fmt"
	"regexp"
	"strings"

	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	orderedmap "github.com/pb33f/ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// ValidationResult carries the errors and warnings produced while checking
// an OpenAPI document for runtime-supportable features (spec.md §4.1).
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// OK reports whether no errors were recorded.
func (r *ValidationResult) OK() bool { return len(r.Errors) == 0 }

var unsupportedHTTPSchemeNames = map[string]bool{
	"negotiate":      true,
	"oauth":          true,
	"oauth2":         true,
	"openidconnect":  true,
}

var secretNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// skipReasons maps a content-type family to the human-readable reason
// recorded for a skipped endpoint (spec.md §4.1 "fixed table of substrings").
var skipReasons = []struct {
	match  func(ct string) bool
	reason string
}{
	{func(ct string) bool { return strings.HasPrefix(ct, "multipart/form-data") }, "file uploads are not supported"},
	{func(ct string) bool { return strings.HasPrefix(ct, "image/") }, "image uploads are not supported"},
	{func(ct string) bool { return ct == "text/xml" || ct == "application/xml" }, "XML content is not supported"},
}

func skipReasonFor(ct string) string {
	for _, r := range skipReasons {
		if r.match(ct) {
			return r.reason
		}
	}
	return fmt.Sprintf("content type %q is not supported", ct)
}

// isJSONContentType reports whether ct's base type matches application/json
// case-insensitively, or ends with +json (spec.md §4.1 rule 3).
func isJSONContentType(ct string) bool {
	base := ct
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(strings.ToLower(base))
	return base == "application/json" || strings.HasSuffix(base, "+json")
}

// Validate checks doc against the runtime-supportable feature set. strict
// escalates every otherwise-skippable condition to an error.
func Validate(doc *v3.Document, strict bool) *ValidationResult {
	res := &ValidationResult{}

	if doc.Components != nil {
		for pair := doc.Components.SecuritySchemes.First(); pair != nil; pair = pair.Next() {
			validateSecurityScheme(pair.Key(), pair.Value(), strict, res)
		}
	}

	for pathPair := doc.Paths.PathItems.First(); pathPair != nil; pathPair = pathPair.Next() {
		path := pathPair.Key()
		item := pathPair.Value()
		for method, op := range operationsOf(item) {
			if op == nil {
				continue
			}
			validateOperationParams(path, method, op, res)
			validateOperationBody(path, method, op, strict, res)
		}
	}

	return res
}

func operationsOf(item *v3.PathItem) map[string]*v3.Operation {
	return map[string]*v3.Operation{
		"GET":     item.Get,
		"POST":    item.Post,
		"PUT":     item.Put,
		"DELETE":  item.Delete,
		"PATCH":   item.Patch,
		"HEAD":    item.Head,
		"OPTIONS": item.Options,
	}
}

func validateSecurityScheme(name string, scheme *v3.SecurityScheme, strict bool, res *ValidationResult) {
	kind := strings.ToLower(scheme.Type)
	switch kind {
	case "oauth2", "openidconnect":
		if strict {
			res.addError("security scheme %q uses unsupported type %q", name, scheme.Type)
		}
	case "http":
		schemeName := strings.ToLower(scheme.Scheme)
		if unsupportedHTTPSchemeNames[schemeName] {
			if strict {
				res.addError("security scheme %q uses unsupported http scheme %q", name, scheme.Scheme)
			}
		}
	}

	if ext, ok := extensionObject(scheme.Extensions, "x-aperture-secret"); ok {
		source, _ := ext["source"].(string)
		secretName, _ := ext["name"].(string)
		if source != "env" || !secretNamePattern.MatchString(secretName) {
			res.addError("security scheme %q has invalid x-aperture-secret extension", name)
		}
	}
}

func validateOperationParams(path, method string, op *v3.Operation, res *ValidationResult) {
	for _, p := range op.Parameters {
		if p.Content != nil && p.Content.Len() > 0 && p.Schema == nil {
			res.addError("%s %s: parameter %q uses content-based serialization, which is unsupported", method, path, p.Name)
		}
	}
}

func validateOperationBody(path, method string, op *v3.Operation, strict bool, res *ValidationResult) {
	if op.RequestBody == nil || op.RequestBody.Content == nil {
		return
	}
	var jsonTypes, otherTypes []string
	for pair := op.RequestBody.Content.First(); pair != nil; pair = pair.Next() {
		ct := pair.Key()
		if isJSONContentType(ct) {
			jsonTypes = append(jsonTypes, ct)
		} else {
			otherTypes = append(otherTypes, ct)
		}
	}
	if len(jsonTypes) == 0 && len(otherTypes) > 0 {
		reason := skipReasonFor(otherTypes[0])
		if strict {
			res.addError("%s %s: request body has no JSON content type (%s)", method, path, reason)
		} else {
			res.addWarning("%s %s: skipped — %s", method, path, reason)
		}
		return
	}
	if len(jsonTypes) > 0 && len(otherTypes) > 0 {
		res.addWarning("%s %s: non-JSON content types %v ignored alongside JSON", method, path, otherTypes)
	}
}

// extensionObject extracts a map-shaped vendor extension value by name.
func extensionObject(ext *orderedmap.Map[string, *yaml.Node], key string) (map[string]any, bool) {
	if ext == nil {
		return nil, false
	}
	for pair := ext.First(); pair != nil; pair = pair.Next() {
		if pair.Key() != key {
			continue
		}
		var raw map[string]any
		if err := pair.Value().Decode(&raw); err != nil {
			return nil, false
		}
		return raw, true
	}
	return nil, false
}

// ToAppError converts a non-OK ValidationResult into a single apperr.Error.
func (r *ValidationResult) ToAppError() error {
	if r.OK() {
		return nil
	}
	return apperr.New(apperr.Validation, strings.Join(r.Errors, "; "))
}
