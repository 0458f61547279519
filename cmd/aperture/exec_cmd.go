package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/aperture/internal/apperr"
	"github.com/blackcoderx/aperture/internal/batch"
	"github.com/blackcoderx/aperture/internal/batchfile"
	"github.com/blackcoderx/aperture/internal/cachedspec"
	"github.com/blackcoderx/aperture/internal/cmdgen"
	"github.com/blackcoderx/aperture/internal/executor"
	"github.com/blackcoderx/aperture/internal/output"
)

// newExecCmd builds the `exec <api> <group> <operation> [--flag value ...]`
// single-call path, or — when --batch-file is set — dispatches a whole batch
// file through the Batch Executor (spec.md §4.7/§4.8).
func newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "exec [api] [group] [operation] -- [flags...]",
		Short:              "Execute one operation directly, or a --batch-file of operations",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, rawArgs []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			if batchFilePath != "" {
				return runBatchFile(cmd, app)
			}

			if len(rawArgs) < 3 {
				return apperr.New(apperr.InvalidArgument, "exec requires <api> <group> <operation> [--flag value ...]")
			}
			spec, err := app.loadSpec(rawArgs[0])
			if err != nil {
				return err
			}
			c, err := findCommand(spec, rawArgs[1], rawArgs[2])
			if err != nil {
				return err
			}
			values, err := parseValues(c, rawArgs[3:])
			if err != nil {
				return err
			}

			result, err := apiInvoker(app, spec)(c, values)
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), result.Body, outputOptions())
		},
	}
	return cmd
}

// findCommand looks up a Cached Spec command by its effective group and
// effective name (or any alias), matching how the generated cobra tree
// dispatches a leaf command.
func findCommand(spec *cachedspec.Spec, group, name string) (cachedspec.Command, error) {
	for _, c := range spec.Commands {
		if c.EffectiveGroup() != group {
			continue
		}
		if c.EffectiveName() == name {
			return c, nil
		}
		for _, alias := range c.Aliases {
			if alias == name {
				return c, nil
			}
		}
	}
	return cachedspec.Command{}, apperr.New(apperr.InvalidArgument, fmt.Sprintf("no command %q/%q in API %q", group, name, spec.Name))
}

// parseValues turns `--flag value` / `--flag=value` pairs (plus bare
// `--flag` for booleans) into cmdgen.Values, resolving defaults and
// required-parameter checks the same way the generated leaf command does.
func parseValues(c cachedspec.Command, args []string) (cmdgen.Values, error) {
	values := cmdgen.Values{Params: map[string]string{}, Set: map[string]bool{}}
	raw := map[string]string{}
	set := map[string]bool{}
	var body string

	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			i++
			continue
		}
		name := strings.TrimPrefix(arg, "--")
		var val string
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			val = name[eq+1:]
			name = name[:eq]
			i++
		} else if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			val = args[i+1]
			i += 2
		} else {
			val = "true"
			i++
		}
		set[name] = true
		if name == "body" {
			body = val
			continue
		}
		raw[name] = val
	}

	for _, p := range c.Parameters {
		flagName := kebabName(p.Name)
		if p.Type == cachedspec.TypeBoolean {
			v := raw[flagName]
			if v == "" {
				v = "false"
			}
			values.Params[p.Name] = v
			values.Set[p.Name] = set[flagName]
			continue
		}
		v, ok := raw[flagName]
		if !ok {
			if p.Default != "" {
				v = p.Default
			} else if p.Required {
				return values, apperr.New(apperr.InvalidArgument, fmt.Sprintf("missing required parameter %q", flagName))
			}
		} else {
			values.Set[p.Name] = true
		}
		values.Params[p.Name] = v
	}

	if c.RequestBody != nil {
		values.Body = body
	}
	return values, nil
}

func kebabName(s string) string {
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

// runBatchFile loads and dispatches one batch file, choosing dependent or
// independent mode per spec.md §4.7's rule: any depends_on/capture/
// capture_append entry forces dependent (sequential) execution.
func runBatchFile(cmd *cobra.Command, app *App) error {
	ops, _, err := batchfile.Load(batchFilePath)
	if err != nil {
		return err
	}

	store := batch.NewStore()
	runner := batchRunner(app)
	ctx := context.Background()

	var outcomes []batch.Outcome
	if batch.HasDependencies(ops) {
		outcomes, err = batch.RunDependent(ctx, ops, store, runner)
	} else {
		concurrency := batchConcurrency
		if concurrency < 1 {
			concurrency = app.Global.BatchConcurrency
		}
		var limiter *batch.RateLimiter
		if batchRateLimit > 0 {
			limiter = batch.NewRateLimiter(batchRateLimit)
		}
		outcomes, err = batch.RunIndependent(ctx, ops, store, runner, batch.IndependentOptions{
			Concurrency:     concurrency,
			RateLimiter:     limiter,
			ContinueOnError: continueOnError,
		})
	}

	for _, o := range outcomes {
		status := "ok"
		switch {
		case o.Skipped:
			status = "skipped"
		case o.Error != nil:
			status = "failed"
		}
		label := o.ID
		if label == "" {
			label = fmt.Sprintf("#%d", o.Index)
		}
		if o.Error != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s (%v)\n", label, status, o.Error)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (status %d)\n", label, status, o.StatusCode)
		}
	}

	return err
}

// batchRunner adapts one batch.Operation (args = [api, group, operation,
// flags...]) into a call through the same invocation path the generated
// cobra tree uses, applying per-operation cache/retry overrides.
func batchRunner(app *App) batch.Runner {
	return func(ctx context.Context, op batch.Operation, vars *batch.Store) (*batch.RunResult, error) {
		if len(op.Args) < 3 {
			return nil, apperr.New(apperr.InvalidArgument, fmt.Sprintf("batch operation %q requires at least [api, group, operation]", op.ID))
		}
		spec, err := app.loadSpec(op.Args[0])
		if err != nil {
			return nil, err
		}
		c, err := findCommand(spec, op.Args[1], op.Args[2])
		if err != nil {
			return nil, err
		}
		values, err := parseValues(c, op.Args[3:])
		if err != nil {
			return nil, err
		}

		call := cmdgen.Translate(c, values)
		for name, v := range op.Headers {
			call.Headers = append(call.Headers, executor.KV{Key: name, Value: v})
		}

		baseURL, err := app.resolver(spec).Resolve("", nil)
		if err != nil {
			return nil, err
		}
		call.BaseURL = baseURL

		bindings, err := app.binder(spec.Name).Resolve(c.Security, spec.SecuritySchemes)
		if err != nil {
			return nil, err
		}
		call.Auth = bindings

		execCtx := execContext(spec.Name)
		if op.UseCache != nil {
			execCtx.Cache = &executor.CacheOptions{Enabled: *op.UseCache, TTL: cacheTTL, APIName: spec.Name}
		}
		if op.Retry > 0 {
			delay, maxDelay := retryDelay, retryMaxDelay
			if op.RetryDelay != "" {
				if d, err := time.ParseDuration(op.RetryDelay); err == nil {
					delay = d
				}
			}
			if op.RetryMaxDelay != "" {
				if d, err := time.ParseDuration(op.RetryMaxDelay); err == nil {
					maxDelay = d
				}
			}
			execCtx.Retry = &executor.RetryOptions{MaxAttempts: op.Retry, InitialDelay: delay, MaxDelay: maxDelay, ForceRetry: op.ForceRetry}
		}

		result, err := app.executor().Execute(call, execCtx)
		if err != nil {
			return nil, err
		}
		return &batch.RunResult{Body: []byte(result.Body), StatusCode: result.StatusCode}, nil
	}
}
