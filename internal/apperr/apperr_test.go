package apperr

import (
	"errors"
	"testing"
)

func TestErrorMessageWithAndWithoutCause(t *testing.T) {
	plain := New(Load, "failed to load spec")
	if plain.Error() != "failed to load spec" {
		t.Fatalf("got %q", plain.Error())
	}

	wrapped := Wrap(Transport, "request failed", errors.New("connection refused"))
	if wrapped.Error() != "request failed: connection refused" {
		t.Fatalf("got %q", wrapped.Error())
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(Http, "call failed", cause)
	if !errors.Is(wrapped, cause) {
		t.Fatal("errors.Is should see through Unwrap to the cause")
	}
}

func TestWithDetailChains(t *testing.T) {
	e := New(Http, "bad status").WithDetail("status", "404").WithDetail("operation_id", "getWidget")
	if e.Details["status"] != "404" || e.Details["operation_id"] != "getWidget" {
		t.Fatalf("got %+v", e.Details)
	}
}

func TestIsAndKindOf(t *testing.T) {
	e := New(CycleDetected, "cycle")
	if !Is(e, CycleDetected) {
		t.Fatal("Is should match the same Kind")
	}
	if Is(e, Http) {
		t.Fatal("Is should not match a different Kind")
	}
	kind, ok := KindOf(e)
	if !ok || kind != CycleDetected {
		t.Fatalf("got (%v, %v)", kind, ok)
	}

	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatal("KindOf should report false for a non-*Error")
	}
}

func TestExitCodeBuckets(t *testing.T) {
	cases := map[Kind]int{
		Validation:           2,
		InvalidArgument:      2,
		SecretNotSet:         2,
		InvalidInterpolation: 2,
		UnresolvedVariable:   2,
		MissingDependency:    2,
		Http:                 3,
		Transport:            3,
		RemoteFetch:          3,
		CycleDetected:        4,
		Configuration:        5,
		CacheUnavailable:     5,
		Load:                 5,
		CaptureFailed:        1,
	}
	for kind, want := range cases {
		if got := ExitCode(kind); got != want {
			t.Errorf("ExitCode(%s) = %d, want %d", kind, got, want)
		}
	}
}
