package engine

import (
	"context"
	"image"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// fakeDriver records input calls and serves canned capture results.
type fakeDriver struct {
	NopContext

	mu         sync.Mutex
	clicks     [][2]int
	typed      []string
	stop       bool
	img        image.Image
	matches    []Match
	screenText string
	breakMsgs  []string
	paused     int
	panicNext  bool
}

func (d *fakeDriver) Click(x, y int) error {
	if d.panicNext {
		panic("input controller wedged")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clicks = append(d.clicks, [2]int{x, y})
	return nil
}

func (d *fakeDriver) TypeText(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.typed = append(d.typed, text)
	return nil
}

func (d *fakeDriver) Capture() (image.Image, error) {
	return d.img, nil
}

func (d *fakeDriver) FindTemplate(_ image.Image, _ string, _ float64, _ int, _ *Region) ([]Match, error) {
	return d.matches, nil
}

func (d *fakeDriver) ExtractText(_ image.Image, _ *Region) (string, error) {
	return d.screenText, nil
}

func (d *fakeDriver) ShouldStop() bool { return d.stop }

func (d *fakeDriver) PauseExecution() { d.paused++ }

func (d *fakeDriver) OnBreakpointHit(msg string, _ map[string]any) {
	d.breakMsgs = append(d.breakMsgs, msg)
}

func testExecutor(t *testing.T) (*Executor, *fakeDriver, *Recorder) {
	t.Helper()
	rec := NewRecorder(slog.LevelDebug)
	drv := &fakeDriver{}
	return NewExecutor(rec.Logger(), drv), drv, rec
}

func TestDispatchDisabledActionFails(t *testing.T) {
	e, drv, _ := testExecutor(t)
	p := &ClickParams{Common: defaultCommon(), X: 10, Y: 20}
	p.Enabled = false
	a := MustNew(KindClick, p)

	if e.Dispatch(context.Background(), a, NewStore(), ModeExecute) {
		t.Fatal("disabled action reported success")
	}
	if len(drv.clicks) != 0 {
		t.Fatalf("disabled action had side effects: %v", drv.clicks)
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	e, drv, rec := testExecutor(t)
	drv.panicNext = true
	a := MustNew(KindClick, &ClickParams{Common: defaultCommon(), X: 1, Y: 2})

	if e.Dispatch(context.Background(), a, NewStore(), ModeExecute) {
		t.Fatal("panicking handler reported success")
	}
	found := false
	for _, ev := range rec.Events() {
		if strings.Contains(ev.Message, "action failed") {
			found = true
		}
	}
	if !found {
		t.Fatal("no failure event recorded")
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	e, drv, _ := testExecutor(t)
	store := NewStore()
	actions := []Action{
		MustNew(KindClick, &ClickParams{Common: defaultCommon(), X: 1, Y: 1}),
		MustNew(KindMathOp, &MathOpParams{
			Common: defaultCommon(), Operation: "divide",
			Operands: []any{1, 0}, OutputVariable: "x",
		}),
		MustNew(KindClick, &ClickParams{Common: defaultCommon(), X: 2, Y: 2}),
	}

	if e.Run(context.Background(), actions, store, ModeExecute) {
		t.Fatal("run with failing action reported success")
	}
	if len(drv.clicks) != 1 {
		t.Fatalf("got %d clicks, want 1 (execution must stop at the failure)", len(drv.clicks))
	}
}

func TestRunHonorsStopFlag(t *testing.T) {
	e, drv, _ := testExecutor(t)
	drv.stop = true
	actions := []Action{
		MustNew(KindClick, &ClickParams{Common: defaultCommon(), X: 1, Y: 1}),
	}
	if e.Run(context.Background(), actions, NewStore(), ModeExecute) {
		t.Fatal("stopped run reported success")
	}
	if len(drv.clicks) != 0 {
		t.Fatal("action ran after stop was requested")
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	e, drv, _ := testExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	actions := []Action{
		MustNew(KindClick, &ClickParams{Common: defaultCommon(), X: 1, Y: 1}),
	}
	if e.Run(ctx, actions, NewStore(), ModeExecute) {
		t.Fatal("cancelled run reported success")
	}
	if len(drv.clicks) != 0 {
		t.Fatal("action ran after cancellation")
	}
}

func TestSimulateSkipsInputInjection(t *testing.T) {
	e, drv, rec := testExecutor(t)
	store := NewStore()
	store.Set("name", "world")
	actions := []Action{
		MustNew(KindClick, &ClickParams{Common: defaultCommon(), X: 5, Y: 6}),
		MustNew(KindTypeText, &TypeTextParams{Common: defaultCommon(), Text: "hello ${name}"}),
		MustNew(KindVariableSet, &VariableSetParams{
			Common: defaultCommon(), VariableName: "ran", Value: "yes", ValueType: ValueString,
		}),
	}

	if !e.Run(context.Background(), actions, store, ModeSimulate) {
		t.Fatal("simulate run failed")
	}
	if len(drv.clicks) != 0 || len(drv.typed) != 0 {
		t.Fatal("simulate mode injected input")
	}
	// Variable mutation still happens in a dry run.
	if v, _ := store.Get("ran"); v != "yes" {
		t.Fatalf("variable_set skipped in simulate: got %v", v)
	}
	if len(rec.Events()) == 0 {
		t.Fatal("simulate run recorded no events")
	}
}

func TestDoubleClickClicksTwice(t *testing.T) {
	e, drv, _ := testExecutor(t)
	a := MustNew(KindDoubleClick, &ClickParams{Common: defaultCommon(), X: 3, Y: 4})
	if !e.Dispatch(context.Background(), a, NewStore(), ModeExecute) {
		t.Fatal("double click failed")
	}
	if len(drv.clicks) != 2 {
		t.Fatalf("got %d clicks, want 2", len(drv.clicks))
	}
}

func TestTypeTextExpandsVariables(t *testing.T) {
	e, drv, _ := testExecutor(t)
	store := NewStore()
	store.Set("user", "alice")
	a := MustNew(KindTypeText, &TypeTextParams{Common: defaultCommon(), Text: "hi ${user}"})
	if !e.Dispatch(context.Background(), a, store, ModeExecute) {
		t.Fatal("type_text failed")
	}
	if len(drv.typed) != 1 || drv.typed[0] != "hi alice" {
		t.Fatalf("typed %v, want [hi alice]", drv.typed)
	}
}

func TestFailureMessageIsLogged(t *testing.T) {
	e, _, rec := testExecutor(t)
	p := &MathOpParams{
		Common: defaultCommon(), Operation: "divide",
		Operands: []any{1, 0}, OutputVariable: "x",
	}
	p.FailureMessage = "math went wrong for ${who}"
	store := NewStore()
	store.Set("who", "bob")

	if e.Dispatch(context.Background(), MustNew(KindMathOp, p), store, ModeExecute) {
		t.Fatal("divide by zero reported success")
	}
	found := false
	for _, ev := range rec.Events() {
		if ev.Message == "math went wrong for bob" {
			found = true
		}
	}
	if !found {
		t.Fatal("failure message was not logged with variables expanded")
	}
}
