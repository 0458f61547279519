// Package urlresolve chooses the base URL for an API call and substitutes
// server-variable templates, following the priority rules of spec.md §4.4.
// Ported conceptually from the Rust BaseUrlResolver / ServerVariableResolver.
package urlresolve

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/blackcoderx/aperture/internal/apperr"
	"github.com/blackcoderx/aperture/internal/cachedspec"
)

// ApiOverride is the per-API config override consulted at priority 2/3.
type ApiOverride struct {
	BaseURLOverride string
	EnvironmentURLs map[string]string
}

// Resolver resolves the base URL for one Spec.
type Resolver struct {
	Spec        *cachedspec.Spec
	Override    *ApiOverride
	Environment string // explicit APERTURE_ENV override; empty reads os.Getenv
}

var varNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Resolve picks a base URL and applies server-variable substitution.
// explicitURL, when non-empty, always wins (priority 1, test/override).
func (r *Resolver) Resolve(explicitURL string, serverVarArgs []string) (string, error) {
	base := r.resolveBasic(explicitURL)

	if len(r.Spec.ServerVariables) == 0 || !strings.Contains(base, "{") {
		return base, nil
	}

	vars, err := r.resolveVariables(serverVarArgs)
	if err != nil {
		// Fall back to the un-substituted URL (spec.md §4.4 "backward compatibility").
		return base, nil //nolint:nilerr
	}

	substituted, err := r.substitute(base, vars)
	if err != nil {
		return base, nil //nolint:nilerr
	}
	return substituted, nil
}

func (r *Resolver) resolveBasic(explicitURL string) string {
	if explicitURL != "" {
		return explicitURL
	}

	if r.Override != nil {
		env := r.Environment
		if env == "" {
			env = os.Getenv("APERTURE_ENV")
		}
		if env != "" {
			if url, ok := r.Override.EnvironmentURLs[env]; ok {
				return url
			}
		}
		if r.Override.BaseURLOverride != "" {
			return r.Override.BaseURLOverride
		}
	}

	if url := os.Getenv("APERTURE_BASE_URL"); url != "" {
		return url
	}

	if len(r.Spec.Servers) > 0 {
		return r.Spec.Servers[0]
	}

	return "https://api.example.com"
}

func (r *Resolver) resolveVariables(args []string) (map[string]string, error) {
	provided := map[string]string{}
	for _, arg := range args {
		k, v, err := parseKeyValue(arg)
		if err != nil {
			return nil, err
		}
		provided[k] = v
	}

	final := map[string]string{}
	for name, def := range r.Spec.ServerVariables {
		if val, ok := provided[name]; ok {
			if len(def.Enum) > 0 && !contains(def.Enum, val) {
				return nil, apperr.New(apperr.InvalidArgument,
					fmt.Sprintf("invalid value %q for server variable %q (allowed: %v)", val, name, def.Enum)).
					WithDetail("name", name)
			}
			final[name] = val
			continue
		}
		if def.Default != "" {
			final[name] = def.Default
			continue
		}
		return nil, apperr.New(apperr.InvalidArgument, fmt.Sprintf("missing server variable %q", name)).WithDetail("name", name)
	}

	for name := range provided {
		if _, ok := r.Spec.ServerVariables[name]; !ok {
			return nil, apperr.New(apperr.InvalidArgument, fmt.Sprintf("unknown server variable %q", name)).WithDetail("name", name)
		}
	}

	return final, nil
}

func (r *Resolver) substitute(template string, vars map[string]string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(template) {
		open := strings.IndexByte(template[i:], '{')
		if open < 0 {
			b.WriteString(template[i:])
			break
		}
		open += i
		close := strings.IndexByte(template[open:], '}')
		if close < 0 {
			b.WriteString(template[i:])
			break
		}
		close += open

		b.WriteString(template[i:open])
		name := template[open+1 : close]
		if !varNamePattern.MatchString(name) || len(name) > 64 {
			return "", apperr.New(apperr.InvalidArgument, fmt.Sprintf("invalid server variable name %q", name))
		}
		val, ok := vars[name]
		if !ok {
			return "", apperr.New(apperr.InvalidArgument, fmt.Sprintf("unresolved template variable %q in %q", name, template))
		}
		b.WriteString(val)
		i = close + 1
	}
	return b.String(), nil
}

func parseKeyValue(arg string) (string, string, error) {
	eq := strings.IndexByte(arg, '=')
	if eq < 0 {
		return "", "", apperr.New(apperr.InvalidArgument, fmt.Sprintf("invalid server variable argument %q (expected key=value)", arg))
	}
	key := strings.TrimSpace(arg[:eq])
	val := strings.TrimSpace(arg[eq+1:])
	if key == "" {
		return "", "", apperr.New(apperr.InvalidArgument, fmt.Sprintf("empty variable name in %q", arg))
	}
	return key, val, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
