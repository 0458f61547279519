package batch

import (
	"testing"

	"github.com/blackcoderx/aperture/internal/apperr"
)

func TestResolveExecutionOrderRespectsDependsOn(t *testing.T) {
	ops := []Operation{
		{ID: "a"},
		{ID: "b", DependsOn: []string{"a"}},
		{ID: "c", DependsOn: []string{"b"}},
	}
	order, err := ResolveExecutionOrder(ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{0, 1, 2}
	for i, idx := range want {
		if order[i] != idx {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestResolveExecutionOrderImplicitCaptureEdge(t *testing.T) {
	ops := []Operation{
		{ID: "create", Capture: map[string]string{"id": ".id"}},
		{Args: []string{"get", "{{id}}"}},
	}
	order, err := ResolveExecutionOrder(ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order[0] != 0 || order[1] != 1 {
		t.Fatalf("order = %v, want [0 1]", order)
	}
}

func TestResolveExecutionOrderStableTieBreak(t *testing.T) {
	// a has no dependents ordering constraint between b and c; both must be
	// dischargeable from a, and the stable tie-break sorts successors
	// ascending by index before discharge.
	ops := []Operation{
		{ID: "a"},
		{ID: "b", DependsOn: []string{"a"}},
		{ID: "c", DependsOn: []string{"a"}},
	}
	order, err := ResolveExecutionOrder(ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("order = %v, want [0 1 2]", order)
	}
}

func TestResolveExecutionOrderDetectsCycle(t *testing.T) {
	ops := []Operation{
		{ID: "a", DependsOn: []string{"c"}},
		{ID: "b", DependsOn: []string{"a"}},
		{ID: "c", DependsOn: []string{"b"}},
	}
	_, err := ResolveExecutionOrder(ops)
	if err == nil {
		t.Fatal("expected a cycle-detected error")
	}
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.CycleDetected {
		t.Fatalf("got error kind %v, want cycle_detected", kind)
	}
}

func TestResolveExecutionOrderMissingDependency(t *testing.T) {
	ops := []Operation{
		{ID: "a", DependsOn: []string{"ghost"}},
	}
	_, err := ResolveExecutionOrder(ops)
	if err == nil {
		t.Fatal("expected a missing-dependency error")
	}
}

func TestResolveExecutionOrderCaptureWithoutIDRejected(t *testing.T) {
	ops := []Operation{
		{Capture: map[string]string{"id": ".id"}},
	}
	_, err := ResolveExecutionOrder(ops)
	if err == nil {
		t.Fatal("expected an error: capture without id")
	}
}

func TestHasDependencies(t *testing.T) {
	if HasDependencies([]Operation{{ID: "a"}}) {
		t.Fatal("a bare operation has no dependencies")
	}
	if !HasDependencies([]Operation{{ID: "a", DependsOn: []string{"x"}}}) {
		t.Fatal("depends_on should count as a dependency")
	}
	if !HasDependencies([]Operation{{ID: "a", Capture: map[string]string{"x": ".x"}}}) {
		t.Fatal("capture should count as a dependency")
	}
}
