// Command aperture is a dynamic CLI generator for OpenAPI 3.x APIs: it
// registers specifications, derives a command tree from them, and executes
// requests with authentication, retry, caching, and batch orchestration.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/blackcoderx/aperture/internal/output"
)

var (
	describeJSON    bool
	jsonErrors      bool
	quietFlag       bool
	verbosity       int
	dryRun          bool
	idempotencyKey  string
	formatFlag      string
	jqFilter        string
	batchFilePath   string
	batchConcurrency int
	batchRateLimit  float64
	continueOnError bool
	cacheFlag       bool
	noCacheFlag     bool
	cacheTTLSecs    int
	cacheTTL        time.Duration
	positionalArgs  bool
	retryAttempts   int
	retryDelayMs    int
	retryMaxDelayMs int
	retryDelay      time.Duration
	retryMaxDelay   time.Duration
	forceRetry      bool
)

var rootCmd = &cobra.Command{
	Use:           "aperture",
	Short:         "Generate and drive CLI commands from OpenAPI specifications",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cacheTTL = time.Duration(cacheTTLSecs) * time.Second
		retryDelay = time.Duration(retryDelayMs) * time.Millisecond
		retryMaxDelay = time.Duration(retryMaxDelayMs) * time.Millisecond
		return nil
	},
}

func init() {
	cobra.OnInitialize(func() {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
		}
	})

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&describeJSON, "describe-json", false, "print the capability manifest and exit")
	flags.BoolVar(&jsonErrors, "json-errors", false, "emit structured JSON error output on failure")
	flags.BoolVarP(&quietFlag, "quiet", "q", false, "suppress warnings")
	flags.CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v, -vv)")
	flags.BoolVar(&dryRun, "dry-run", false, "describe the request without performing it")
	flags.StringVar(&idempotencyKey, "idempotency-key", "", "attach an Idempotency-Key header")
	flags.StringVar(&formatFlag, "format", "json", "output format: json|yaml|table")
	flags.StringVar(&jqFilter, "jq", "", "filter rendered output through a jq expression")
	flags.StringVar(&batchFilePath, "batch-file", "", "execute a batch file instead of a single operation")
	flags.IntVar(&batchConcurrency, "batch-concurrency", 5, "independent-mode concurrency limit")
	flags.Float64Var(&batchRateLimit, "batch-rate-limit", 0, "independent-mode requests-per-second limit (0 disables)")
	flags.BoolVar(&continueOnError, "continue-on-error", false, "independent-mode: don't fail the batch when some operations error")
	flags.BoolVar(&cacheFlag, "cache", false, "enable response caching for this call")
	flags.BoolVar(&noCacheFlag, "no-cache", false, "disable response caching for this call")
	flags.IntVar(&cacheTTLSecs, "cache-ttl", 300, "response cache TTL in seconds")
	flags.BoolVar(&positionalArgs, "positional-args", false, "legacy mode: path parameters become positional arguments")
	flags.IntVar(&retryAttempts, "retry", 0, "maximum retry attempts (0 disables retry)")
	flags.IntVar(&retryDelayMs, "retry-delay", 200, "initial retry delay in milliseconds")
	flags.IntVar(&retryMaxDelayMs, "retry-max-delay", 5000, "maximum retry delay in milliseconds")
	flags.BoolVar(&forceRetry, "force-retry", false, "retry non-idempotent methods too")
	rootCmd.MarkFlagsMutuallyExclusive("cache", "no-cache")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newListCommandsCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newExecCmd())
	rootCmd.AddCommand(newDocsCmd())
	rootCmd.AddCommand(newOverviewCmd())

	if apiCmd, err := buildAPICommand(); err == nil {
		rootCmd.AddCommand(apiCmd)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		output.RenderError(os.Stderr, err, jsonErrors)
		os.Exit(exitCodeFor(err))
	}
}
