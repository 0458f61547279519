// Package batch implements the dependency graph, variable store, capture
// extractor, and the two batch execution modes (spec.md §4.7–§4.11).
package batch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// Operation is one batch entry (spec.md §3 "Batch Operation").
type Operation struct {
	ID             string
	Args           []string
	Description    string
	Headers        map[string]string
	UseCache       *bool
	Retry          int
	RetryDelay     string
	RetryMaxDelay  string
	ForceRetry     bool
	Capture        map[string]string
	CaptureAppend  map[string]string
	DependsOn      []string
}

// HasDependencies reports whether any operation declares capture,
// capture_append, or depends_on (empty maps/slices count as absent).
func HasDependencies(ops []Operation) bool {
	for _, op := range ops {
		if len(op.DependsOn) > 0 || len(op.Capture) > 0 || len(op.CaptureAppend) > 0 {
			return true
		}
	}
	return false
}

// ResolveExecutionOrder validates ids and dependencies and returns a
// topological order over ops (Kahn's algorithm, ported from graph.rs).
func ResolveExecutionOrder(ops []Operation) ([]int, error) {
	if err := validateIDs(ops); err != nil {
		return nil, err
	}

	idToIndex, err := buildIDIndex(ops)
	if err != nil {
		return nil, err
	}
	captureVarToOp := buildCaptureIndex(ops, idToIndex)

	adj, err := buildAdjacency(ops, idToIndex, captureVarToOp)
	if err != nil {
		return nil, err
	}
	return topologicalSort(ops, adj)
}

func validateIDs(ops []Operation) error {
	for i, op := range ops {
		ctx := idRequirementContext(op)
		if ctx == "" {
			continue
		}
		if op.ID == "" {
			return apperr.New(apperr.MissingDependency, fmt.Sprintf("operation at index %d uses %s but has no id", i, ctx))
		}
	}
	return nil
}

func idRequirementContext(op Operation) string {
	if len(op.Capture) > 0 || len(op.CaptureAppend) > 0 {
		return "capture"
	}
	if len(op.DependsOn) > 0 {
		return "depends_on"
	}
	return ""
}

func buildIDIndex(ops []Operation) (map[string]int, error) {
	m := map[string]int{}
	for i, op := range ops {
		if op.ID == "" {
			continue
		}
		if existing, ok := m[op.ID]; ok {
			return nil, apperr.New(apperr.Configuration, fmt.Sprintf("duplicate operation id %q: found at index %d and %d", op.ID, existing, i))
		}
		m[op.ID] = i
	}
	return m, nil
}

func buildCaptureIndex(ops []Operation, idToIndex map[string]int) map[string][]int {
	m := map[string][]int{}
	for _, op := range ops {
		if op.ID == "" {
			continue
		}
		idx, ok := idToIndex[op.ID]
		if !ok {
			continue
		}
		for name := range op.Capture {
			m[name] = append(m[name], idx)
		}
		for name := range op.CaptureAppend {
			m[name] = append(m[name], idx)
		}
	}
	return m
}

// extractVariableReferences finds every {{name}} in s (unclosed `{{` is
// simply not matched here — interpolation-time errors are a separate
// concern handled in variables.go).
func extractVariableReferences(s string) []string {
	var vars []string
	remaining := s
	for {
		start := strings.Index(remaining, "{{")
		if start < 0 {
			break
		}
		after := remaining[start+2:]
		end := strings.Index(after, "}}")
		if end < 0 {
			break
		}
		name := after[:end]
		if name != "" {
			vars = append(vars, name)
		}
		remaining = after[end+2:]
	}
	return vars
}

func buildAdjacency(ops []Operation, idToIndex map[string]int, captureVarToOp map[string][]int) ([][]int, error) {
	n := len(ops)
	adj := make([][]int, n)

	for i, op := range ops {
		deps := map[int]bool{}

		for _, depID := range op.DependsOn {
			idx, ok := idToIndex[depID]
			if !ok {
				name := op.ID
				if name == "" {
					name = "<unnamed>"
				}
				return nil, apperr.New(apperr.MissingDependency, fmt.Sprintf("operation %q depends on unknown id %q", name, depID))
			}
			deps[idx] = true
		}

		for _, arg := range op.Args {
			for _, v := range extractVariableReferences(arg) {
				for _, idx := range captureVarToOp[v] {
					if idx != i {
						deps[idx] = true
					}
				}
			}
		}

		for idx := range deps {
			adj[idx] = append(adj[idx], i)
		}
	}

	return adj, nil
}

func topologicalSort(ops []Operation, adj [][]int) ([]int, error) {
	n := len(ops)
	inDegree := make([]int, n)
	for _, succs := range adj {
		for _, s := range succs {
			inDegree[s]++
		}
	}

	var queue []int
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, n)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		succs := append([]int(nil), adj[node]...)
		sort.Ints(succs)
		for _, s := range succs {
			inDegree[s]--
			if inDegree[s] == 0 {
				queue = append(queue, s)
			}
		}
	}

	if len(order) != n {
		unresolved := make([]bool, n)
		for i, d := range inDegree {
			unresolved[i] = d > 0
		}

		cycleIndices := findCyclePath(adj, unresolved)
		if cycleIndices == nil {
			for i, u := range unresolved {
				if u {
					cycleIndices = append(cycleIndices, i)
				}
			}
		}

		var cycleIDs []string
		for _, i := range cycleIndices {
			if ops[i].ID != "" {
				cycleIDs = append(cycleIDs, ops[i].ID)
			} else {
				cycleIDs = append(cycleIDs, fmt.Sprintf("index %d", i))
			}
		}
		return nil, apperr.New(apperr.CycleDetected, fmt.Sprintf("cycle detected among operations: %s", strings.Join(cycleIDs, " -> ")))
	}

	return order, nil
}

func findCyclePath(adj [][]int, unresolved []bool) []int {
	n := len(adj)
	color := make([]byte, n) // 0 unvisited, 1 visiting, 2 done
	var stack []int
	stackPos := map[int]int{}

	var dfs func(node int) []int
	dfs = func(node int) []int {
		color[node] = 1
		stackPos[node] = len(stack)
		stack = append(stack, node)

		succs := append([]int(nil), adj[node]...)
		sort.Ints(succs)

		for _, succ := range succs {
			if !unresolved[succ] {
				continue
			}
			switch color[succ] {
			case 0:
				if cycle := dfs(succ); cycle != nil {
					return cycle
				}
			case 1:
				start := stackPos[succ]
				cycle := append([]int(nil), stack[start:]...)
				cycle = append(cycle, succ)
				return cycle
			}
		}

		stack = stack[:len(stack)-1]
		delete(stackPos, node)
		color[node] = 2
		return nil
	}

	for start := 0; start < n; start++ {
		if !unresolved[start] || color[start] != 0 {
			continue
		}
		if cycle := dfs(start); cycle != nil {
			return cycle
		}
	}
	return nil
}
