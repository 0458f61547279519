package cachedspec

import (
	"testing"

	"github.com/blackcoderx/aperture/internal/openapi"
)

const oauthSpec = `
openapi: 3.0.3
info:
  title: mixed-auth
  version: 1.0.0
paths:
  /public:
    get:
      operationId: getPublic
      responses:
        "200":
          description: ok
  /oauth-only:
    get:
      operationId: getOAuthOnly
      security:
        - oauthScheme: []
      responses:
        "200":
          description: ok
  /either:
    get:
      operationId: getEither
      security:
        - oauthScheme: []
        - apiKeyScheme: []
      responses:
        "200":
          description: ok
components:
  securitySchemes:
    oauthScheme:
      type: oauth2
      flows:
        clientCredentials:
          tokenUrl: https://auth.example.com/token
          scopes: {}
    apiKeyScheme:
      type: apiKey
      in: header
      name: X-Api-Key
`

func parseOAuthSpec(t *testing.T) *Spec {
	t.Helper()
	doc, err := openapi.Parse([]byte(oauthSpec))
	if err != nil {
		t.Fatalf("failed to parse fixture spec: %v", err)
	}
	spec, _, err := Transform(doc.Model, TransformOptions{Name: "mixed-auth"})
	if err != nil {
		t.Fatalf("Transform returned an error instead of recording skipped endpoints: %v", err)
	}
	return spec
}

func TestTransformRecognizesOAuth2AsUnsupportedKind(t *testing.T) {
	spec := parseOAuthSpec(t)
	scheme, ok := spec.SecuritySchemes["oauthScheme"]
	if !ok {
		t.Fatal("oauthScheme should still be recorded in SecuritySchemes")
	}
	if scheme.Kind != SchemeUnsupported {
		t.Fatalf("got kind %q, want %q", scheme.Kind, SchemeUnsupported)
	}
}

func TestTransformSkipsOperationWhoseOnlyAlternativeIsUnsupported(t *testing.T) {
	spec := parseOAuthSpec(t)
	for _, c := range spec.Commands {
		if c.OperationID == "getOAuthOnly" {
			t.Fatal("an operation whose only security alternative is oauth2 must not be registered as a command")
		}
	}
	found := false
	for _, s := range spec.Skipped {
		if s.Path == "/oauth-only" {
			found = true
		}
	}
	if !found {
		t.Fatal("getOAuthOnly should be recorded in Spec.Skipped")
	}
}

func TestTransformKeepsOperationWithAViableSecurityAlternative(t *testing.T) {
	spec := parseOAuthSpec(t)
	found := false
	for _, c := range spec.Commands {
		if c.OperationID == "getEither" {
			found = true
		}
	}
	if !found {
		t.Fatal("getEither has a viable (apiKeyScheme) alternative and should still be registered")
	}
}

func TestTransformKeepsOperationWithNoSecurityRequirement(t *testing.T) {
	spec := parseOAuthSpec(t)
	found := false
	for _, c := range spec.Commands {
		if c.OperationID == "getPublic" {
			found = true
		}
	}
	if !found {
		t.Fatal("an operation with no security requirement must never be skipped on security grounds")
	}
}
