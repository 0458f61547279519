package batch

import (
	"context"
	"fmt"
	"testing"
)

func TestRunDependentStopsOnFirstFailureAndSkipsRest(t *testing.T) {
	ops := []Operation{
		{ID: "a"},
		{ID: "b", DependsOn: []string{"a"}},
		{ID: "c", DependsOn: []string{"b"}},
	}
	store := NewStore()
	run := func(ctx context.Context, op Operation, vars *Store) (*RunResult, error) {
		if op.ID == "b" {
			return nil, fmt.Errorf("boom")
		}
		return &RunResult{Body: []byte(`{}`), StatusCode: 200}, nil
	}

	outcomes, err := RunDependent(context.Background(), ops, store, run)
	if err != nil {
		t.Fatalf("RunDependent itself should not error on a per-op failure: %v", err)
	}
	if !outcomes[0].Success {
		t.Fatal("op a should have succeeded")
	}
	if outcomes[1].Success || outcomes[1].Error == nil {
		t.Fatal("op b should have failed")
	}
	if !outcomes[2].Skipped {
		t.Fatal("op c should have been skipped after b's failure")
	}
	if outcomes[2].Error == nil || outcomes[2].Error.Error() != "Skipped due to prior failure" {
		t.Fatalf("op c's skip message = %v, want the fixed skip message", outcomes[2].Error)
	}
}

func TestRunDependentAppliesCaptures(t *testing.T) {
	ops := []Operation{
		{ID: "create", Capture: map[string]string{"id": ".id"}},
		{Args: []string{"get", "{{id}}"}},
	}
	store := NewStore()
	var secondArgs []string
	run := func(ctx context.Context, op Operation, vars *Store) (*RunResult, error) {
		if op.ID == "create" {
			return &RunResult{Body: []byte(`{"id":"beat-7"}`), StatusCode: 201}, nil
		}
		secondArgs = op.Args
		return &RunResult{Body: []byte(`{}`), StatusCode: 200}, nil
	}

	outcomes, err := RunDependent(context.Background(), ops, store, run)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, o := range outcomes {
		if !o.Success {
			t.Fatalf("expected every op to succeed, got %+v", o)
		}
	}
	if secondArgs[1] != "beat-7" {
		t.Fatalf("captured id was not interpolated into the dependent op's args: %v", secondArgs)
	}
}

func TestRunIndependentAggregatesFailures(t *testing.T) {
	ops := []Operation{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	store := NewStore()
	run := func(ctx context.Context, op Operation, vars *Store) (*RunResult, error) {
		if op.ID == "b" {
			return nil, fmt.Errorf("boom")
		}
		return &RunResult{Body: []byte(`{}`), StatusCode: 200}, nil
	}

	_, err := RunIndependent(context.Background(), ops, store, run, IndependentOptions{Concurrency: 3})
	if err == nil {
		t.Fatal("expected an aggregate error when a failure occurs and continue_on_error is false")
	}

	_, err = RunIndependent(context.Background(), ops, store, run, IndependentOptions{Concurrency: 3, ContinueOnError: true})
	if err != nil {
		t.Fatalf("continue_on_error should suppress the aggregate error, got %v", err)
	}
}

func TestRunIndependentRunsEveryOperationRegardlessOfOrder(t *testing.T) {
	ops := []Operation{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}
	store := NewStore()
	run := func(ctx context.Context, op Operation, vars *Store) (*RunResult, error) {
		return &RunResult{Body: []byte(`{}`), StatusCode: 200}, nil
	}

	outcomes, err := RunIndependent(context.Background(), ops, store, run, IndependentOptions{Concurrency: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != len(ops) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(ops))
	}
	for i, o := range outcomes {
		if !o.Success || o.ID != ops[i].ID {
			t.Fatalf("outcome %d mismatched: %+v", i, o)
		}
	}
}
