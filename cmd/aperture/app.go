package main

import (
	"os"
	"time"

	"github.com/blackcoderx/aperture/internal/auth"
	"github.com/blackcoderx/aperture/internal/cachedspec"
	"github.com/blackcoderx/aperture/internal/config"
	"github.com/blackcoderx/aperture/internal/executor"
	"github.com/blackcoderx/aperture/internal/httptransport"
	"github.com/blackcoderx/aperture/internal/logging"
	"github.com/blackcoderx/aperture/internal/output"
	"github.com/blackcoderx/aperture/internal/respcache"
	"github.com/blackcoderx/aperture/internal/urlresolve"
)

// App bundles the process-wide collaborators that each command builds
// through newApp() and threads explicitly through its work (spec.md §9 "Process-wide
// state... treat every read as an input, never a default").
type App struct {
	Config    *config.Store
	Global    config.Global
	Logger    *logging.Logger
	SpecStore *cachedspec.Store
	Cache     *respcache.Cache
	Transport httptransport.Doer
}

func newApp() (*App, error) {
	store, err := config.Load()
	if err != nil {
		return nil, err
	}
	global, err := store.Resolve()
	if err != nil {
		return nil, err
	}

	cache, err := respcache.New(respcache.Config{
		Dir:        store.ResponseCacheDir(),
		DefaultTTL: time.Duration(global.CacheDefaultTTL) * time.Second,
		MaxEntries: global.CacheMaxEntries,
		Enabled:    global.CacheEnabled,
	})
	if err != nil {
		return nil, err
	}

	level := logging.LevelNormal
	if quietFlag {
		level = logging.LevelQuiet
	} else if verbosity >= 2 {
		level = logging.LevelTrace
	} else if verbosity == 1 {
		level = logging.LevelDebug
	}

	return &App{
		Config:    store,
		Global:    global,
		Logger:    logging.New(level),
		SpecStore: cachedspec.NewStore(store.CacheDir()),
		Cache:     cache,
		Transport: httptransport.NewFastHTTPClient("aperture/1.0"),
	}, nil
}

// loadSpec loads the Cached Spec for an already-registered API.
func (a *App) loadSpec(apiName string) (*cachedspec.Spec, error) {
	return a.SpecStore.Load(apiName)
}

// resolver builds a urlresolve.Resolver for one API, wiring the config's
// per-API override into priority 2/3.
func (a *App) resolver(spec *cachedspec.Spec) *urlresolve.Resolver {
	var override *urlresolve.ApiOverride
	if ac, ok := a.Global.APIConfigs[spec.Name]; ok {
		override = &urlresolve.ApiOverride{BaseURLOverride: ac.BaseURLOverride, EnvironmentURLs: ac.EnvironmentURLs}
	}
	return &urlresolve.Resolver{Spec: spec, Override: override}
}

// binder builds an auth.Binder for one API, wiring its config-declared
// secret overrides (priority step 1 of spec.md §4.5).
func (a *App) binder(apiName string) *auth.Binder {
	b := &auth.Binder{ApiSecrets: map[string]auth.ApiSecretOverride{}}
	if ac, ok := a.Global.APIConfigs[apiName]; ok {
		for scheme, override := range ac.Secrets {
			b.ApiSecrets[scheme] = auth.ApiSecretOverride{Source: override.Source, Name: override.Name}
		}
	}
	return b
}

func (a *App) executor() *executor.Executor {
	return &executor.Executor{Transport: a.Transport, Cache: a.Cache}
}

// execContext builds the per-call Execution Context from the resolved
// global flags (spec.md §4.6 "Execution Context").
func execContext(apiName string) executor.Context {
	var cacheOpts *executor.CacheOptions
	if cacheFlag {
		cacheOpts = &executor.CacheOptions{Enabled: true, TTL: cacheTTL, APIName: apiName, AllowAuth: false}
	} else if noCacheFlag {
		cacheOpts = &executor.CacheOptions{Enabled: false}
	}

	var retryOpts *executor.RetryOptions
	if retryAttempts > 0 {
		retryOpts = &executor.RetryOptions{
			MaxAttempts:  retryAttempts,
			InitialDelay: retryDelay,
			MaxDelay:     retryMaxDelay,
			ForceRetry:   forceRetry,
		}
	}

	return executor.Context{
		DryRun:         dryRun,
		IdempotencyKey: idempotencyKey,
		Cache:          cacheOpts,
		Retry:          retryOpts,
		UserAgent:      "aperture/1.0",
		Timeout:        30 * time.Second,
	}
}

func outputOptions() output.Options {
	return output.Options{Format: output.Format(formatFlag), Jq: jqFilter}
}

func stderrIsTTY() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
