// Package auth resolves secrets for an operation's security schemes and
// binds them onto a pending request (spec.md §4.5).
package auth

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/blackcoderx/aperture/internal/apperr"
	"github.com/blackcoderx/aperture/internal/cachedspec"
)

// Binding is one resolved credential attached to the outgoing request.
type Binding struct {
	Scheme   string
	Location cachedspec.ParamLocation // header|query|cookie
	Name     string
	Value    string
}

// ApiSecretOverride is the per-API, per-scheme secret binding from config.toml
// (`api_configs[name].secrets[scheme]`), consulted at the top of the
// precedence order.
type ApiSecretOverride struct {
	Source string // "env"
	Name   string
}

// Binder resolves and attaches auth for the schemes an operation requires.
type Binder struct {
	ApiSecrets map[string]ApiSecretOverride // scheme name -> override
}

// Resolve returns one Binding per scheme in schemeNames that has a
// resolvable secret. A scheme with no binding proceeds unauthenticated
// (spec.md §4.5 step 3) and is simply omitted from the result.
func (b *Binder) Resolve(schemeNames []string, schemes map[string]cachedspec.SecurityScheme) ([]Binding, error) {
	var bindings []Binding
	for _, name := range schemeNames {
		scheme, ok := schemes[name]
		if !ok || scheme.Kind == cachedspec.SchemeUnsupported {
			continue
		}

		value, envVar, found, err := b.resolveSecret(name, scheme)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		if value == "" {
			return nil, apperr.New(apperr.SecretNotSet, fmt.Sprintf("environment variable %q for security scheme %q is not set", envVar, name)).
				WithDetail("scheme", name).WithDetail("var", envVar)
		}

		binding, err := bind(name, scheme, value)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding)
	}
	return bindings, nil
}

// resolveSecret returns (value, envVarName, found, err). found is false when
// no binding source names this scheme at all (step 3: unauthenticated).
func (b *Binder) resolveSecret(name string, scheme cachedspec.SecurityScheme) (string, string, bool, error) {
	if b.ApiSecrets != nil {
		if override, ok := b.ApiSecrets[name]; ok {
			return os.Getenv(override.Name), override.Name, true, nil
		}
	}
	if scheme.Secret != nil {
		return os.Getenv(scheme.Secret.Name), scheme.Secret.Name, true, nil
	}
	return "", "", false, nil
}

func bind(name string, scheme cachedspec.SecurityScheme, value string) (Binding, error) {
	switch scheme.Kind {
	case cachedspec.SchemeAPIKey:
		return Binding{Scheme: name, Location: scheme.APIKeyLocation, Name: scheme.APIKeyParam, Value: value}, nil
	case cachedspec.SchemeHTTPBearer:
		return Binding{Scheme: name, Location: cachedspec.InHeader, Name: "Authorization", Value: "Bearer " + value}, nil
	case cachedspec.SchemeHTTPBasic:
		return Binding{Scheme: name, Location: cachedspec.InHeader, Name: "Authorization", Value: "Basic " + base64.StdEncoding.EncodeToString([]byte(value))}, nil
	case cachedspec.SchemeHTTPToken:
		return Binding{Scheme: name, Location: cachedspec.InHeader, Name: "Authorization", Value: scheme.TokenScheme + " " + value}, nil
	default:
		return Binding{}, apperr.New(apperr.Configuration, fmt.Sprintf("security scheme %q has unknown kind", name))
	}
}

// EnvVarHints returns, for a 401/403 user-visible failure, the env var names
// declared by schemeNames — spec.md §7 "enumerates the environment-variable
// names ... as a hint".
func EnvVarHints(schemeNames []string, schemes map[string]cachedspec.SecurityScheme) []string {
	var hints []string
	for _, name := range schemeNames {
		if s, ok := schemes[name]; ok && s.Secret != nil {
			hints = append(hints, s.Secret.Name)
		}
	}
	return hints
}
