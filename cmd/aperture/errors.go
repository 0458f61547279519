package main

import "github.com/blackcoderx/aperture/internal/apperr"

// exitCodeFor maps a top-level error to the process exit code (spec.md §6
// "0 on success; non-zero on any error").
func exitCodeFor(err error) int {
	kind, ok := apperr.KindOf(err)
	if !ok {
		return 1
	}
	return apperr.ExitCode(kind)
}
