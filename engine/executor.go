package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
)

// Mode selects between real execution and a dry run.
type Mode string

const (
	// ModeExecute performs every action for real.
	ModeExecute Mode = "execute"
	// ModeSimulate logs, validates and mutates variables, but skips input
	// injection, captures, file I/O and network calls. Visual searches
	// short-circuit to "found".
	ModeSimulate Mode = "simulate"
)

// ErrStopped reports a cooperative stop requested through the Context.
var ErrStopped = errors.New("execution stopped")

// Executor walks an action tree and dispatches each action to its handler.
// It is single-threaded except for parallel_execution, which fans out over
// a bounded worker pool.
type Executor struct {
	l    *slog.Logger
	drv  Context
	eval *ConditionEvaluator
	http *resty.Client
}

func NewExecutor(l *slog.Logger, drv Context) *Executor {
	if l == nil {
		l = slog.Default()
	}
	if drv == nil {
		drv = NopContext{}
	}
	return &Executor{
		l:    l,
		drv:  drv,
		eval: NewConditionEvaluator(l),
		http: resty.New(),
	}
}

// Run executes a sequential action list against the store and reports
// aggregate success. Every failure is logged; none is silent.
func (e *Executor) Run(ctx context.Context, actions []Action, store *Store, mode Mode) bool {
	err := e.guard(func() error {
		return e.runList(ctx, actions, store, mode)
	})
	if err != nil {
		e.l.Error("run failed", "error", err)
		return false
	}
	return true
}

// Dispatch executes a single action. This is the public failure boundary:
// internal faults are recovered here and reported as a plain false.
func (e *Executor) Dispatch(ctx context.Context, a Action, store *Store, mode Mode) bool {
	err := e.guard(func() error {
		return e.dispatch(ctx, a, store, mode)
	})
	if err != nil {
		e.l.Error("action failed", "action", a.Name(), "error", err)
		return false
	}
	return true
}

// guard converts panics inside handlers into handler failures so faults
// never unwind past the dispatcher.
func (e *Executor) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal fault: %v", r)
		}
	}()
	return fn()
}

// runList executes actions strictly in order, stopping at the first
// failure. The stop flag and the context are polled between actions.
func (e *Executor) runList(ctx context.Context, actions []Action, store *Store, mode Mode) error {
	for _, a := range actions {
		if e.drv.ShouldStop() {
			return ErrStopped
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.dispatch(ctx, a, store, mode); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) dispatch(ctx context.Context, a Action, store *Store, mode Mode) error {
	if a.Params == nil {
		return fmt.Errorf("action %q has nil params", a.Kind)
	}
	if !a.Enabled() {
		return fmt.Errorf("action %q is disabled", a.Name())
	}
	e.l.Debug("dispatch", "action", a.Name(), "kind", string(a.Kind), "mode", string(mode))

	var err error
	switch p := a.Params.(type) {
	case *ClickParams:
		err = e.doClick(a.Kind, p, mode)
	case *DragParams:
		err = e.doDrag(p, mode)
	case *TypeTextParams:
		err = e.doTypeText(p, store, mode)
	case *WaitParams:
		err = e.doWait(ctx, p, mode)
	case *TemplateSearchParams:
		err = e.doTemplateSearch(p, store, mode)
	case *OCRWaitParams:
		err = e.doOCRWait(ctx, p, store, mode)
	case *ConditionalParams:
		err = e.doConditional(ctx, p, store, mode)
	case *LoopParams:
		err = e.doLoop(ctx, p, store, mode)
	case *SwitchCaseParams:
		err = e.doSwitchCase(ctx, p, store, mode)
	case *TryCatchParams:
		err = e.doTryCatch(ctx, p, store, mode)
	case *ParallelParams:
		err = e.doParallel(ctx, p, store, mode)
	case *BreakpointParams:
		err = e.doBreakpoint(p, store, mode)
	case *VariableSetParams:
		err = e.doVariableSet(p, store)
	case *VariableIncrementParams:
		err = e.doVariableIncrement(p, store)
	case *StringOpParams:
		err = e.doStringOp(p, store)
	case *ListOpParams:
		err = e.doListOp(p, store)
	case *DictOpParams:
		err = e.doDictOp(p, store)
	case *MathOpParams:
		err = e.doMathOp(p, store)
	case *RandomValueParams:
		err = e.doRandomValue(p, store)
	case *FileOpParams:
		err = e.doFileOp(p, store, mode)
	case *HTTPRequestParams:
		err = e.doHTTPRequest(ctx, p, store, mode)
	case *LogParams:
		err = e.doLog(p, store)
	case *ScreenshotParams:
		err = e.doScreenshot(p, mode)
	default:
		err = fmt.Errorf("no handler for kind %q", a.Kind)
	}

	if err != nil {
		if msg := a.Params.common().FailureMessage; msg != "" {
			e.l.Error(store.Expand(msg), "action", a.Name())
		}
		return fmt.Errorf("%s: %w", a.Name(), err)
	}
	return nil
}
