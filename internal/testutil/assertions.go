package testutil

import (
	"testing"

	"github.com/optinet/optinet/internal/compiler"
	"github.com/optinet/optinet/pkg/core"
	"github.com/optinet/optinet/pkg/syntax"
)

// AssertBackEdgeIntegrity fails the test if any Var/Dp0/Dp1 reachable
// from root lacks a mutual back-edge with its binder slot.
func AssertBackEdgeIntegrity(t *testing.T, h *core.Heap, root uint32) {
	t.Helper()
	if err := core.Validate(h, root); err != nil {
		t.Errorf("back-edge invariant violated: %v", err)
	}
}

// ReduceProgram parses, compiles, and fixpoint-normalizes program on a
// fresh heap, returning the printed normal form and the heap for
// further inspection. gasLimit of 0 means unlimited.
func ReduceProgram(t *testing.T, program string, gasLimit uint64) (string, *core.Heap) {
	t.Helper()

	term, err := syntax.Parse(program)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	h := core.NewHeap(256, gasLimit)
	root, err := compiler.ToGraph(h, term)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	result, _, err := core.ReduceToNormalForm(h, root)
	if err != nil {
		t.Fatalf("reduction failed: %v", err)
	}

	back, err := compiler.FromGraph(h, result)
	if err != nil {
		t.Fatalf("readback failed: %v", err)
	}
	return syntax.Print(back), h
}

// AssertScenario runs one Scenario end to end and checks its printed
// normal form and rewrite-count lower bound.
func AssertScenario(t *testing.T, sc Scenario) {
	t.Helper()

	printed, h := ReduceProgram(t, sc.Program, 0)
	if printed != sc.Expected {
		t.Errorf("%s: normal form = %q, want %q", sc.Name, printed, sc.Expected)
	}
	if h.Gas() < sc.MinRewrites {
		t.Errorf("%s: gas = %d, want at least %d", sc.Name, h.Gas(), sc.MinRewrites)
	}
}
