package cachedspec

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// ValidateBody performs optional pre-flight validation of a `--body` JSON
// string against an operation's request-body schema fingerprint before
// dispatch. This is a defensive enrichment beyond spec.md's letter: a
// failure is reported as a warning, never a hard error, since nothing in
// spec.md mandates body validation.
func ValidateBody(rb *RequestBody, body string) (warnings []string, err error) {
	if rb == nil || rb.SchemaFP == "" || body == "" {
		return nil, nil
	}

	schemaLoader := gojsonschema.NewStringLoader(rb.SchemaFP)
	docLoader := gojsonschema.NewStringLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		// An unparsable schema or body is not this call's concern to fail on;
		// report it as a single warning and let dispatch proceed.
		return []string{fmt.Sprintf("body schema validation skipped: %v", err)}, nil
	}
	if result.Valid() {
		return nil, nil
	}

	for _, e := range result.Errors() {
		warnings = append(warnings, e.String())
	}
	return warnings, nil
}

// ValidateBodyStrict is the same check, returned as an InvalidArgument error
// instead of warnings, for callers that opt into hard enforcement.
func ValidateBodyStrict(rb *RequestBody, body string) error {
	warnings, err := ValidateBody(rb, body)
	if err != nil {
		return err
	}
	if len(warnings) > 0 {
		return apperr.New(apperr.InvalidArgument, fmt.Sprintf("request body does not match schema: %v", warnings))
	}
	return nil
}
