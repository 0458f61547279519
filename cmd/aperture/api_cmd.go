package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/aperture/internal/apperr"
	"github.com/blackcoderx/aperture/internal/auth"
	"github.com/blackcoderx/aperture/internal/cachedspec"
	"github.com/blackcoderx/aperture/internal/cmdgen"
	"github.com/blackcoderx/aperture/internal/executor"
	"github.com/blackcoderx/aperture/internal/output"
)

// buildAPICommand constructs the `api <api> [args...]` tree by discovering
// every registered API's Cached Spec and generating its subtree (spec.md
// §4.3). The tree is regenerated per process start, mirroring how the
// teacher's own command tree is built once through the same cobra APIs.
func buildAPICommand() (*cobra.Command, error) {
	root := &cobra.Command{Use: "api", Short: "Invoke a registered API's generated commands"}

	app, err := newApp()
	if err != nil {
		// No config yet, or it failed to load: return an empty `api` group
		// rather than failing command construction for the whole binary.
		return root, nil
	}

	names, err := registeredAPINames(app)
	if err != nil {
		return root, nil
	}

	for _, name := range names {
		spec, err := app.loadSpec(name)
		if err != nil {
			continue
		}
		sub, err := cmdgen.Build(spec, cmdgen.Options{PositionalArgs: positionalArgs}, apiInvoker(app, spec), apiRenderer())
		if err != nil {
			continue
		}
		sub.Use = name
		root.AddCommand(sub)
	}

	return root, nil
}

func registeredAPINames(app *App) ([]string, error) {
	entries, err := os.ReadDir(app.SpecStore.CacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".bin") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".bin"))
	}
	return names, nil
}

// apiInvoker builds the cmdgen.Invoker for one API: Argument Translator ->
// URL Resolver -> Auth Binder -> Executor (spec.md §2 data flow).
func apiInvoker(app *App, spec *cachedspec.Spec) cmdgen.Invoker {
	return func(c cachedspec.Command, values cmdgen.Values) (*executor.CallResult, error) {
		call := cmdgen.Translate(c, values)

		baseURL, err := app.resolver(spec).Resolve("", nil)
		if err != nil {
			return nil, err
		}
		call.BaseURL = baseURL

		bindings, err := app.binder(spec.Name).Resolve(c.Security, spec.SecuritySchemes)
		if err != nil {
			if ae, ok := err.(*apperr.Error); ok && len(c.Security) > 0 {
				hints := auth.EnvVarHints(c.Security, spec.SecuritySchemes)
				if len(hints) > 0 {
					ae.WithDetail("security_schemes", strings.Join(hints, ", "))
				}
			}
			return nil, err
		}
		call.Auth = bindings

		result, err := app.executor().Execute(call, execContext(spec.Name))
		if err != nil {
			if ae, ok := err.(*apperr.Error); ok && ae.Kind == apperr.Http {
				if status := ae.Details["status"]; status == "401" || status == "403" {
					hints := auth.EnvVarHints(c.Security, spec.SecuritySchemes)
					if len(hints) > 0 {
						ae.WithDetail("security_schemes", strings.Join(hints, ", "))
					}
				}
			}
			return nil, err
		}
		return result, nil
	}
}

func apiRenderer() cmdgen.Renderer {
	return func(cmd *cobra.Command, result *executor.CallResult) error {
		return output.Render(cmd.OutOrStdout(), result.Body, outputOptions())
	}
}
