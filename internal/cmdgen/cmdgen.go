// Package cmdgen builds a cobra command tree from a Cached Spec (spec.md
// §4.3), one group per tag and one leaf per operation.
package cmdgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/aperture/internal/apperr"
	"github.com/blackcoderx/aperture/internal/cachedspec"
	"github.com/blackcoderx/aperture/internal/executor"
)

// ReservedGroups are CLI group names the Command Generator refuses to
// shadow (spec.md §4.2 "Command mapping application").
var ReservedGroups = map[string]bool{
	"config": true, "search": true, "exec": true, "docs": true, "overview": true,
}

// Invoker runs one resolved operation and is supplied by cmd/aperture, which
// owns wiring the Executor, Auth Binder, and URL Resolver together.
type Invoker func(cmd cachedspec.Command, values Values) (*executor.CallResult, error)

// Renderer prints a CallResult per the caller's selected --format/--jq
// settings; supplied by cmd/aperture (internal/output owns the formatting).
type Renderer func(cmd *cobra.Command, result *executor.CallResult) error

// Values holds the parsed flag/positional values for one invocation, keyed
// by parameter name.
type Values struct {
	Params map[string]string // path/query/header/cookie parameter name -> raw string value
	Body   string
	Set    map[string]bool // which Params keys were actually provided (vs. default/absent)
}

// Options controls generation-time behavior.
type Options struct {
	PositionalArgs bool // legacy mode: non-boolean path params become positionals
}

// Build constructs the full command tree for one API under a root command
// whose Use is spec.Name.
func Build(spec *cachedspec.Spec, opts Options, invoke Invoker, render Renderer) (*cobra.Command, error) {
	if err := ValidateUniqueness(spec); err != nil {
		return nil, err
	}

	root := &cobra.Command{Use: spec.Name, Short: fmt.Sprintf("Generated commands for %s", spec.Name)}

	groups := map[string]*cobra.Command{}
	groupOrder := []string{}
	for _, c := range spec.Commands {
		g := c.EffectiveGroup()
		if _, ok := groups[g]; !ok {
			groups[g] = &cobra.Command{Use: g, Short: fmt.Sprintf("%s operations", g), Hidden: allHidden(spec, g)}
			groupOrder = append(groupOrder, g)
		}
	}
	sort.Strings(groupOrder)
	for _, g := range groupOrder {
		root.AddCommand(groups[g])
	}

	for _, c := range spec.Commands {
		leaf, err := buildLeaf(c, opts, invoke, render)
		if err != nil {
			return nil, err
		}
		groups[c.EffectiveGroup()].AddCommand(leaf)
	}

	return root, nil
}

func allHidden(spec *cachedspec.Spec, group string) bool {
	for _, c := range spec.Commands {
		if c.EffectiveGroup() == group && !c.Hidden {
			return false
		}
	}
	return true
}

// ValidateUniqueness enforces spec.md §3's "(effective_group, effective_name)
// pairs are unique across all commands and all aliases" invariant.
func ValidateUniqueness(spec *cachedspec.Spec) error {
	seen := map[string]string{}
	for _, c := range spec.Commands {
		group := c.EffectiveGroup()
		if ReservedGroups[group] {
			return apperr.New(apperr.Configuration, fmt.Sprintf("command group %q collides with a reserved top-level command", group))
		}
		names := append([]string{c.EffectiveName()}, c.Aliases...)
		for _, n := range names {
			key := group + "/" + n
			if owner, ok := seen[key]; ok && owner != c.OperationID {
				return apperr.New(apperr.Configuration, fmt.Sprintf("duplicate command coordinates %q (operations %q and %q)", key, owner, c.OperationID))
			}
			seen[key] = c.OperationID
		}
	}
	return nil
}

func buildLeaf(c cachedspec.Command, opts Options, invoke Invoker, render Renderer) (*cobra.Command, error) {
	leaf := &cobra.Command{
		Use:     c.EffectiveName(),
		Short:   c.Summary,
		Long:    c.Description,
		Aliases: c.Aliases,
		Hidden:  c.Hidden,
	}

	flagNames := map[string]bool{}
	var bodyFlag string
	positionals := []cachedspec.Parameter{}

	for _, p := range c.Parameters {
		flagName := kebab(p.Name)
		if flagNames[flagName] {
			return nil, apperr.New(apperr.Configuration, fmt.Sprintf("operation %q has duplicate parameter flag %q after kebab-casing", c.OperationID, flagName))
		}
		flagNames[flagName] = true

		usePositional := opts.PositionalArgs && p.In == cachedspec.InPath && p.Type != cachedspec.TypeBoolean
		if usePositional {
			positionals = append(positionals, p)
			continue
		}

		describeFlag(leaf, p, flagName)
	}

	if c.RequestBody != nil {
		bodyFlag = "body"
		leaf.Flags().String(bodyFlag, "", requestBodyHelp(c.RequestBody))
	}

	for i, p := range positionals {
		_ = i
		leaf.Use += " <" + kebab(p.Name) + ">"
	}

	leaf.RunE = func(cmd *cobra.Command, args []string) error {
		values := Values{Params: map[string]string{}, Set: map[string]bool{}}

		for i, p := range positionals {
			if i >= len(args) {
				return apperr.New(apperr.InvalidArgument, fmt.Sprintf("missing required positional argument %q", kebab(p.Name)))
			}
			values.Params[p.Name] = args[i]
			values.Set[p.Name] = true
		}

		for _, p := range c.Parameters {
			if containsParam(positionals, p) {
				continue
			}
			flagName := kebab(p.Name)
			if p.Type == cachedspec.TypeBoolean {
				v, _ := cmd.Flags().GetBool(flagName)
				values.Params[p.Name] = boolString(v)
				values.Set[p.Name] = cmd.Flags().Changed(flagName)
				continue
			}
			v, _ := cmd.Flags().GetString(flagName)
			if cmd.Flags().Changed(flagName) {
				values.Set[p.Name] = true
			} else if p.Default != "" {
				v = p.Default
			} else if p.Required {
				return apperr.New(apperr.InvalidArgument, fmt.Sprintf("missing required parameter %q", flagName))
			}
			values.Params[p.Name] = v
		}

		if bodyFlag != "" {
			values.Body, _ = cmd.Flags().GetString(bodyFlag)
		}

		result, err := invoke(c, values)
		if err != nil {
			return err
		}
		return render(cmd, result)
	}

	return leaf, nil
}

func containsParam(list []cachedspec.Parameter, p cachedspec.Parameter) bool {
	for _, x := range list {
		if x.Name == p.Name && x.In == p.In {
			return true
		}
	}
	return false
}

func describeFlag(cmd *cobra.Command, p cachedspec.Parameter, flagName string) {
	help := p.Description
	if p.Example != "" {
		help = strings.TrimSpace(help + fmt.Sprintf(" (example: %s)", p.Example))
	}
	if p.Type == cachedspec.TypeBoolean {
		cmd.Flags().Bool(flagName, false, help)
		return
	}
	cmd.Flags().String(flagName, "", help)
	if p.Required {
		_ = cmd.MarkFlagRequired(flagName)
	}
}

func requestBodyHelp(rb *cachedspec.RequestBody) string {
	help := "JSON request body"
	if rb.Description != "" {
		help = rb.Description
	}
	return help
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func kebab(s string) string {
	var b strings.Builder
	prevLowerOrDigit := false
	for _, r := range s {
		if r == '_' || r == ' ' || r == '.' {
			b.WriteByte('-')
			prevLowerOrDigit = false
			continue
		}
		if r >= 'A' && r <= 'Z' {
			if prevLowerOrDigit {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
			prevLowerOrDigit = false
			continue
		}
		b.WriteRune(r)
		prevLowerOrDigit = (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
	}
	out := strings.Trim(strings.ToLower(b.String()), "-")
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return out
}
