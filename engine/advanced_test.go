package engine

import (
	"context"
	"fmt"
	"testing"
)

func TestSwitchCaseNumericCoercion(t *testing.T) {
	e, _, _ := testExecutor(t)
	store := NewStore()
	store.Set("v", 1)
	a := MustNew(KindSwitchCase, &SwitchCaseParams{
		Common:     defaultCommon(),
		Expression: "${v}",
		Cases: []Case{
			{Value: "1", Actions: []Action{setVar("hit", "one", ValueString)}},
			{Value: "2", Actions: []Action{setVar("hit", "two", ValueString)}},
		},
		DefaultActions: []Action{setVar("hit", "default", ValueString)},
	})
	if !e.Dispatch(context.Background(), a, store, ModeExecute) {
		t.Fatal("switch failed")
	}
	if v, _ := store.Get("hit"); v != "one" {
		t.Fatalf("hit = %v, want one (case \"1\" must match stored 1)", v)
	}
}

func TestSwitchCaseDefault(t *testing.T) {
	e, _, _ := testExecutor(t)
	store := NewStore()
	store.Set("v", "other")
	a := MustNew(KindSwitchCase, &SwitchCaseParams{
		Common:     defaultCommon(),
		Expression: "${v}",
		Cases: []Case{
			{Value: "1", Actions: []Action{setVar("hit", "one", ValueString)}},
		},
		DefaultActions: []Action{setVar("hit", "default", ValueString)},
	})
	if !e.Dispatch(context.Background(), a, store, ModeExecute) {
		t.Fatal("switch failed")
	}
	if v, _ := store.Get("hit"); v != "default" {
		t.Fatalf("hit = %v, want default", v)
	}
}

func TestSwitchCaseFirstMatchWins(t *testing.T) {
	e, _, _ := testExecutor(t)
	store := NewStore()
	store.Set("v", 1)
	a := MustNew(KindSwitchCase, &SwitchCaseParams{
		Common:     defaultCommon(),
		Expression: "${v}",
		Cases: []Case{
			{Value: "1", Actions: []Action{setVar("hit", "first", ValueString)}},
			{Value: "1", Actions: []Action{setVar("hit", "second", ValueString)}},
		},
	})
	if !e.Dispatch(context.Background(), a, store, ModeExecute) {
		t.Fatal("switch failed")
	}
	if v, _ := store.Get("hit"); v != "first" {
		t.Fatalf("hit = %v, want first", v)
	}
}

func failingAction() Action {
	return MustNew(KindMathOp, &MathOpParams{
		Common: defaultCommon(), Operation: "divide",
		Operands: []any{1, 0}, OutputVariable: "boom",
	})
}

func TestTryCatchFinally(t *testing.T) {
	e, _, _ := testExecutor(t)
	store := NewStore()
	a := MustNew(KindTryCatch, &TryCatchParams{
		Common:         defaultCommon(),
		TryActions:     []Action{failingAction()},
		CatchActions:   []Action{setVar("done", "recovered", ValueString)},
		FinallyActions: []Action{setVar("finalized", "yes", ValueString)},
		ErrorVariable:  "err",
	})
	if !e.Dispatch(context.Background(), a, store, ModeExecute) {
		t.Fatal("try/catch with a catch block must report overall success")
	}
	if v, _ := store.Get("done"); v != "recovered" {
		t.Fatalf("done = %v, want recovered", v)
	}
	if v, _ := store.Get("finalized"); v != "yes" {
		t.Fatalf("finalized = %v, want yes", v)
	}
	if v, ok := store.Get("err"); !ok || v == "" {
		t.Fatalf("err = %v, want the failure text", v)
	}
}

func TestTryCatchWithoutCatchFails(t *testing.T) {
	e, _, _ := testExecutor(t)
	store := NewStore()
	a := MustNew(KindTryCatch, &TryCatchParams{
		Common:         defaultCommon(),
		TryActions:     []Action{failingAction()},
		FinallyActions: []Action{setVar("finalized", "yes", ValueString)},
	})
	if e.Dispatch(context.Background(), a, store, ModeExecute) {
		t.Fatal("failed try with no catch block must report failure")
	}
	// finally still ran and merged back
	if v, _ := store.Get("finalized"); v != "yes" {
		t.Fatalf("finalized = %v, want yes", v)
	}
}

func TestTryCatchFinallyFailureIsFatal(t *testing.T) {
	e, _, _ := testExecutor(t)
	a := MustNew(KindTryCatch, &TryCatchParams{
		Common:         defaultCommon(),
		TryActions:     []Action{setVar("ok", "yes", ValueString)},
		FinallyActions: []Action{failingAction()},
	})
	if e.Dispatch(context.Background(), a, NewStore(), ModeExecute) {
		t.Fatal("failing finally block must fail the whole action")
	}
}

func TestTryCatchScopeMergesBack(t *testing.T) {
	e, _, _ := testExecutor(t)
	store := NewStore()
	store.Set("x", 1)
	a := MustNew(KindTryCatch, &TryCatchParams{
		Common:     defaultCommon(),
		TryActions: []Action{setVar("x", "2", ValueNumber)},
	})
	if !e.Dispatch(context.Background(), a, store, ModeExecute) {
		t.Fatal("try/catch failed")
	}
	if v, _ := store.Get("x"); v != 2 {
		t.Fatalf("x = %v, want 2 (try scope must merge back)", v)
	}
}

func TestParallelLastWriterWins(t *testing.T) {
	e, _, _ := testExecutor(t)
	store := NewStore()
	a := MustNew(KindParallel, &ParallelParams{
		Common: defaultCommon(), MaxWorkers: 2, WaitForAll: true,
		Groups: [][]Action{
			{setVar("x", "1", ValueNumber)},
			{setVar("x", "2", ValueNumber)},
		},
	})
	if !e.Dispatch(context.Background(), a, store, ModeExecute) {
		t.Fatal("parallel execution failed")
	}
	// Merge order is completion order; the winner is one of the two.
	v, _ := store.Get("x")
	if v != 1 && v != 2 {
		t.Fatalf("x = %v, want 1 or 2", v)
	}
}

func TestParallelGroupFailureFailsWhole(t *testing.T) {
	e, _, _ := testExecutor(t)
	store := NewStore()
	a := MustNew(KindParallel, &ParallelParams{
		Common: defaultCommon(), MaxWorkers: 2, WaitForAll: true,
		Groups: [][]Action{
			{setVar("ok", "yes", ValueString)},
			{failingAction()},
		},
	})
	if e.Dispatch(context.Background(), a, store, ModeExecute) {
		t.Fatal("parallel with a failing group reported success")
	}
	// The succeeding group's variables still merged back.
	if v, _ := store.Get("ok"); v != "yes" {
		t.Fatalf("ok = %v, want yes", v)
	}
}

func TestParallelGroupsGetIsolatedCopies(t *testing.T) {
	e, _, _ := testExecutor(t)
	store := NewStore()
	store.Set("base", 10)
	a := MustNew(KindParallel, &ParallelParams{
		Common: defaultCommon(), MaxWorkers: 4, WaitForAll: true,
		Groups: [][]Action{
			{increment("base", 1), setVar("a", "${base}", ValueNumber)},
			{increment("base", 1), setVar("b", "${base}", ValueNumber)},
		},
	})
	if !e.Dispatch(context.Background(), a, store, ModeExecute) {
		t.Fatal("parallel execution failed")
	}
	// Each group incremented its own copy of base, so both saw 11.
	if v, _ := store.Get("a"); v != 11 {
		t.Fatalf("a = %v, want 11", v)
	}
	if v, _ := store.Get("b"); v != 11 {
		t.Fatalf("b = %v, want 11", v)
	}
}

func TestParallelFailedGroupStillMergesWrites(t *testing.T) {
	e, _, _ := testExecutor(t)
	store := NewStore()
	a := MustNew(KindParallel, &ParallelParams{
		Common: defaultCommon(), MaxWorkers: 2, WaitForAll: true,
		Groups: [][]Action{
			{setVar("ok", "yes", ValueString)},
			{setVar("y", "2", ValueNumber), failingAction()},
		},
	})
	if e.Dispatch(context.Background(), a, store, ModeExecute) {
		t.Fatal("parallel with a failing group reported success")
	}
	// Writes the failing group made before it failed merge back too.
	if v, _ := store.Get("y"); v != 2 {
		t.Fatalf("y = %v, want 2", v)
	}
	if v, _ := store.Get("ok"); v != "yes" {
		t.Fatalf("ok = %v, want yes", v)
	}
}

func TestParallelGroupsMutateInheritedDictSafely(t *testing.T) {
	e, _, _ := testExecutor(t)
	store := NewStore()
	store.Set("shared", map[string]any{"seed": 1})

	const writes = 50
	group := func(prefix string) []Action {
		actions := make([]Action, writes)
		for i := range actions {
			actions[i] = MustNew(KindDictOp, &DictOpParams{
				Common: defaultCommon(), Operation: "set",
				DictVariable: "shared",
				Key:          fmt.Sprintf("%s_%d", prefix, i),
				Value:        i,
			})
		}
		return actions
	}
	a := MustNew(KindParallel, &ParallelParams{
		Common: defaultCommon(), MaxWorkers: 2, WaitForAll: true,
		Groups: [][]Action{group("g1"), group("g2")},
	})
	if !e.Dispatch(context.Background(), a, store, ModeExecute) {
		t.Fatal("parallel execution failed")
	}
	// Each group wrote into its own copy of the inherited dict, so the
	// merged result is exactly one group's dict: the seed plus its keys.
	raw, _ := store.Get("shared")
	dict := raw.(map[string]any)
	if dict["seed"] != 1 {
		t.Fatalf("seed = %v, want 1", dict["seed"])
	}
	if len(dict) != writes+1 {
		t.Fatalf("merged dict has %d entries, want %d", len(dict), writes+1)
	}
}

func TestParallelSimulateRunsFirstGroupOnly(t *testing.T) {
	e, _, _ := testExecutor(t)
	store := NewStore()
	a := MustNew(KindParallel, &ParallelParams{
		Common: defaultCommon(), MaxWorkers: 2, WaitForAll: true,
		Groups: [][]Action{
			{setVar("first", "yes", ValueString)},
			{setVar("second", "yes", ValueString)},
		},
	})
	if !e.Dispatch(context.Background(), a, store, ModeSimulate) {
		t.Fatal("simulated parallel failed")
	}
	if v, _ := store.Get("first"); v != "yes" {
		t.Fatalf("first = %v, want yes", v)
	}
	if _, ok := store.Get("second"); ok {
		t.Fatal("simulate ran more than the first group")
	}
}

func TestBreakpoint(t *testing.T) {
	e, drv, _ := testExecutor(t)
	store := NewStore()
	store.Set("n", 7)

	hit := MustNew(KindBreakpoint, &BreakpointParams{
		Common: defaultCommon(), Condition: "${n} > 5", Message: "n is ${n}",
	})
	if !e.Dispatch(context.Background(), hit, store, ModeExecute) {
		t.Fatal("breakpoint must never fail the sequence")
	}
	if len(drv.breakMsgs) != 1 || drv.breakMsgs[0] != "n is 7" {
		t.Fatalf("breakpoint messages = %v, want [n is 7]", drv.breakMsgs)
	}
	if drv.paused != 1 {
		t.Fatalf("paused %d times, want 1", drv.paused)
	}

	skip := MustNew(KindBreakpoint, &BreakpointParams{
		Common: defaultCommon(), Condition: "${n} > 50", Message: "never",
	})
	if !e.Dispatch(context.Background(), skip, store, ModeExecute) {
		t.Fatal("breakpoint failed")
	}
	if len(drv.breakMsgs) != 1 {
		t.Fatal("breakpoint fired despite a false condition")
	}

	sim := MustNew(KindBreakpoint, &BreakpointParams{
		Common: defaultCommon(), Message: "dry",
	})
	if !e.Dispatch(context.Background(), sim, store, ModeSimulate) {
		t.Fatal("breakpoint failed in simulate")
	}
	if drv.paused != 1 {
		t.Fatal("simulate mode paused execution")
	}
}
