package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/aperture/internal/apperr"
	"github.com/blackcoderx/aperture/internal/cachedspec"
	"github.com/blackcoderx/aperture/internal/config"
	"github.com/blackcoderx/aperture/internal/openapi"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Manage registered APIs and settings"}
	cmd.AddCommand(
		newConfigAddCmd(),
		newConfigListCmd(),
		newConfigRemoveCmd(),
		newConfigEditCmd(),
		newConfigSetURLCmd(),
		newConfigGetURLCmd(),
		newConfigListURLsCmd(),
		newConfigSetSecretCmd(),
		newConfigListSecretsCmd(),
		newConfigRemoveSecretCmd(),
		newConfigClearSecretsCmd(),
		newConfigReinitCmd(),
		newConfigClearCacheCmd(),
		newConfigCacheStatsCmd(),
		newConfigSetCmd(),
		newConfigGetCmd(),
		newConfigSettingsCmd(),
	)
	return cmd
}

func newConfigAddCmd() *cobra.Command {
	var source string
	var strict bool
	var force bool

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a new API from an OpenAPI spec file or URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			app, err := newApp()
			if err != nil {
				return err
			}
			if source == "" {
				return apperr.New(apperr.InvalidArgument, "--source is required (a file path or http(s) URL)")
			}

			existing, loadErr := app.SpecStore.Load(name)
			if loadErr == nil && !force {
				return apperr.New(apperr.Configuration, fmt.Sprintf("API %q is already registered; use --force to replace it", name))
			}

			doc, err := openapi.Load(context.Background(), source, openapi.DefaultFetchTimeout, openapi.DefaultMaxBodyBytes)
			if err != nil {
				return err
			}

			result := cachedspec.Validate(doc.Model, strict)
			for _, w := range result.Warnings {
				app.Logger.Warnf("%s", w)
			}
			if !result.OK() {
				return result.ToAppError()
			}

			spec, warnings, err := cachedspec.Transform(doc.Model, cachedspec.TransformOptions{Name: name})
			if err != nil {
				return err
			}
			for _, w := range warnings {
				app.Logger.Warnf("%s", w)
			}

			if err := os.MkdirAll(app.Config.SpecsDir(), 0o755); err != nil {
				return apperr.Wrap(apperr.Configuration, "failed to create specs directory", err)
			}
			if err := os.WriteFile(filepath.Join(app.Config.SpecsDir(), name+".yaml"), doc.Raw, 0o644); err != nil {
				return apperr.Wrap(apperr.Configuration, "failed to persist original spec", err)
			}

			if existing != nil {
				vc := config.CompareVersions(existing.Version, spec.Version)
				app.Logger.Warnf("%s", vc.Describe(name))
			}

			if err := app.SpecStore.Save(spec); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "registered %q: %d commands, %d skipped endpoints\n", name, len(spec.Commands), len(spec.Skipped))
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "file path or http(s) URL of the OpenAPI spec")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject the spec on any unsupported feature instead of skipping it")
	cmd.Flags().BoolVar(&force, "force", false, "replace an already-registered API of the same name")
	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered APIs",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			names, err := registeredAPINames(app)
			if err != nil {
				return apperr.Wrap(apperr.Configuration, "failed to list registered APIs", err)
			}
			sort.Strings(names)
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newConfigRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a registered API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			name := args[0]
			if err := app.SpecStore.Remove(name); err != nil {
				return err
			}
			_ = os.Remove(filepath.Join(app.Config.SpecsDir(), name+".yaml"))
			delete(app.Global.APIConfigs, name)
			return app.Config.Save(app.Global)
		},
	}
}

func newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open config.toml in $EDITOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = "vi"
			}
			c := exec.Command(editor, app.Config.Path)
			c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
			if err := c.Run(); err != nil {
				return apperr.Wrap(apperr.Configuration, fmt.Sprintf("failed to run editor %q", editor), err)
			}
			return nil
		},
	}
}

func apiConfigOf(g *config.Global, name string) config.APIConfig {
	ac, ok := g.APIConfigs[name]
	if !ok {
		ac = config.APIConfig{EnvironmentURLs: map[string]string{}, Secrets: map[string]config.SecretOverride{}}
	}
	if ac.EnvironmentURLs == nil {
		ac.EnvironmentURLs = map[string]string{}
	}
	if ac.Secrets == nil {
		ac.Secrets = map[string]config.SecretOverride{}
	}
	return ac
}

func newConfigSetURLCmd() *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "set-url <api> <url>",
		Short: "Set a base URL override for an API",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			ac := apiConfigOf(&app.Global, args[0])
			if env != "" {
				ac.EnvironmentURLs[env] = args[1]
			} else {
				ac.BaseURLOverride = args[1]
			}
			if app.Global.APIConfigs == nil {
				app.Global.APIConfigs = map[string]config.APIConfig{}
			}
			app.Global.APIConfigs[args[0]] = ac
			return app.Config.Save(app.Global)
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "set the override for a specific APERTURE_ENV value instead of the general override")
	return cmd
}

func newConfigGetURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-url <api>",
		Short: "Print an API's resolved base URL override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			ac := apiConfigOf(&app.Global, args[0])
			if ac.BaseURLOverride == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "(none)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), ac.BaseURLOverride)
			return nil
		},
	}
}

func newConfigListURLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-urls <api>",
		Short: "List an API's base URL overrides, including per-environment ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			ac := apiConfigOf(&app.Global, args[0])
			if ac.BaseURLOverride != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "default: %s\n", ac.BaseURLOverride)
			}
			var envs []string
			for e := range ac.EnvironmentURLs {
				envs = append(envs, e)
			}
			sort.Strings(envs)
			for _, e := range envs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", e, ac.EnvironmentURLs[e])
			}
			return nil
		},
	}
}

func newConfigSetSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-secret <api> <scheme> <env-var>",
		Short: "Bind a security scheme to an environment variable for an API",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			ac := apiConfigOf(&app.Global, args[0])
			ac.Secrets[args[1]] = config.SecretOverride{Source: "env", Name: args[2]}
			if app.Global.APIConfigs == nil {
				app.Global.APIConfigs = map[string]config.APIConfig{}
			}
			app.Global.APIConfigs[args[0]] = ac
			return app.Config.Save(app.Global)
		},
	}
}

func newConfigListSecretsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-secrets <api>",
		Short: "List an API's security-scheme secret bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			ac := apiConfigOf(&app.Global, args[0])
			var schemes []string
			for s := range ac.Secrets {
				schemes = append(schemes, s)
			}
			sort.Strings(schemes)
			for _, s := range schemes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", s, ac.Secrets[s].Name)
			}
			return nil
		},
	}
}

func newConfigRemoveSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-secret <api> <scheme>",
		Short: "Remove one security-scheme secret binding",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			ac := apiConfigOf(&app.Global, args[0])
			delete(ac.Secrets, args[1])
			app.Global.APIConfigs[args[0]] = ac
			return app.Config.Save(app.Global)
		},
	}
}

func newConfigClearSecretsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-secrets <api>",
		Short: "Remove every secret binding for an API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			ac := apiConfigOf(&app.Global, args[0])
			ac.Secrets = map[string]config.SecretOverride{}
			app.Global.APIConfigs[args[0]] = ac
			return app.Config.Save(app.Global)
		},
	}
}

func newConfigReinitCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "reinit <name>",
		Short: "Re-fetch and re-derive an API's Cached Spec from its original source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			app, err := newApp()
			if err != nil {
				return err
			}

			src := source
			if src == "" {
				src = filepath.Join(app.Config.SpecsDir(), name+".yaml")
			}
			existing, _ := app.SpecStore.Load(name)

			doc, err := openapi.Load(context.Background(), src, openapi.DefaultFetchTimeout, openapi.DefaultMaxBodyBytes)
			if err != nil {
				return err
			}
			result := cachedspec.Validate(doc.Model, false)
			if !result.OK() {
				return result.ToAppError()
			}
			spec, _, err := cachedspec.Transform(doc.Model, cachedspec.TransformOptions{Name: name})
			if err != nil {
				return err
			}
			if existing != nil {
				app.Logger.Warnf("%s", config.CompareVersions(existing.Version, spec.Version).Describe(name))
			}
			return app.SpecStore.Save(spec)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "re-fetch from this source instead of the persisted copy")
	return cmd
}

func newConfigClearCacheCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear-cache [api]",
		Short: "Clear cached responses for one API, or all with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if all {
				n, err := app.Cache.ClearAll()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %d entries\n", n)
				return nil
			}
			if len(args) != 1 {
				return apperr.New(apperr.InvalidArgument, "clear-cache requires an api name or --all")
			}
			n, err := app.Cache.ClearAPI(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d entries for %q\n", n, args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "clear every cached response across every API")
	return cmd
}

func newConfigCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache-stats <api>",
		Short: "Show response cache statistics for an API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			stats, err := app.Cache.StatsFor(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total=%d valid=%d expired=%d bytes=%d\n", stats.Total, stats.Valid, stats.Expired, stats.Bytes)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a global setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if err := config.SetSetting(&app.Global, args[0], args[1]); err != nil {
				return err
			}
			return app.Config.Save(app.Global)
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a global setting's value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			v, err := config.GetSetting(app.Global, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newConfigSettingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "List every valid global setting key",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := config.SettingKeys()
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
