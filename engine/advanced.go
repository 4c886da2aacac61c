package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

func (e *Executor) doSwitchCase(ctx context.Context, p *SwitchCaseParams, store *Store, mode Mode) error {
	value := e.eval.EvalValue(p.Expression, store)
	for _, c := range p.Cases {
		caseValue := ParseScalar(store.Expand(c.Value))
		if equalValues(value, caseValue) {
			e.l.Debug("case matched", "expression", p.Expression, "case", c.Value)
			return e.runList(ctx, c.Actions, store, mode)
		}
	}
	if len(p.DefaultActions) > 0 {
		e.l.Debug("no case matched, running default", "expression", p.Expression)
		return e.runList(ctx, p.DefaultActions, store, mode)
	}
	e.l.Debug("no case matched", "expression", p.Expression)
	return nil
}

// doTryCatch runs all three blocks against a private store copy that is
// merged back exactly once. Overall success is "try succeeded, or it failed
// and a catch block exists"; a failing finally block is always fatal.
func (e *Executor) doTryCatch(ctx context.Context, p *TryCatchParams, store *Store, mode Mode) error {
	scope := store.Copy()

	tryErr := e.runList(ctx, p.TryActions, scope, mode)
	if isControlError(tryErr) {
		store.Merge(scope)
		return tryErr
	}
	if tryErr != nil {
		e.l.Warn("try block failed", "error", tryErr)
		if p.ErrorVariable != "" {
			scope.Set(p.ErrorVariable, tryErr.Error())
		}
		if len(p.CatchActions) > 0 {
			if catchErr := e.runList(ctx, p.CatchActions, scope, mode); catchErr != nil {
				if isControlError(catchErr) {
					store.Merge(scope)
					return catchErr
				}
				e.l.Error("catch block failed", "error", catchErr)
			}
		}
	}

	if len(p.FinallyActions) > 0 {
		if finErr := e.runList(ctx, p.FinallyActions, scope, mode); finErr != nil {
			store.Merge(scope)
			return fmt.Errorf("finally block: %w", finErr)
		}
	}

	store.Merge(scope)
	if tryErr == nil || len(p.CatchActions) > 0 {
		return nil
	}
	return fmt.Errorf("no catch block: %w", tryErr)
}

// isControlError distinguishes cooperative stops and context cancellation
// from ordinary handler failures; try/catch must not swallow them.
func isControlError(err error) bool {
	return errors.Is(err, ErrStopped) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

type groupResult struct {
	index int
	store *Store
	err   error
}

// doParallel fans groups out over a bounded worker pool. Every group works
// on its own store copy; merge order is completion order, which is not
// deterministic. With wait_for_all=false the first finished group wins and
// the rest are cancelled best-effort, their results discarded.
func (e *Executor) doParallel(ctx context.Context, p *ParallelParams, store *Store, mode Mode) error {
	if mode == ModeSimulate {
		// A dry run approximates concurrency by running only the first group.
		e.l.Info("simulated parallel execution", "groups", len(p.Groups), "ran", 1)
		scope := store.Copy()
		err := e.runList(ctx, p.Groups[0], scope, mode)
		store.Merge(scope)
		return err
	}

	workers := p.MaxWorkers
	if workers <= 0 {
		workers = 4
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Copies are taken up front so no goroutine reads the parent store while
	// the collector below mutates it.
	copies := make([]*Store, len(p.Groups))
	for i := range p.Groups {
		copies[i] = store.Copy()
	}

	sem := make(chan struct{}, workers)
	results := make(chan groupResult, len(p.Groups))
	var wg sync.WaitGroup
	for i := range p.Groups {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-runCtx.Done():
				results <- groupResult{index: i, err: runCtx.Err()}
				return
			}
			err := e.guard(func() error {
				return e.runList(runCtx, p.Groups[i], copies[i], mode)
			})
			results <- groupResult{index: i, store: copies[i], err: err}
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	if !p.WaitForAll {
		return e.collectFirst(cancel, results, store)
	}
	return e.collectAll(results, store)
}

// collectAll merges every group copy back in completion order and fails if
// any group failed. Failed groups merge too: writes they made before
// failing stay visible, only the aggregate result records the failure.
func (e *Executor) collectAll(results <-chan groupResult, store *Store) error {
	var firstErr error
	for res := range results {
		if res.err != nil {
			e.l.Warn("parallel group failed", "group", res.index, "error", res.err)
			if firstErr == nil {
				firstErr = fmt.Errorf("group %d: %w", res.index, res.err)
			}
		}
		if res.store != nil {
			store.Merge(res.store)
		}
	}
	return firstErr
}

// collectFirst takes the first finished group as the outcome, cancels the
// rest of the pool, and drains the channel so every goroutine can exit.
func (e *Executor) collectFirst(cancel context.CancelFunc, results <-chan groupResult, store *Store) error {
	first, ok := <-results
	cancel()
	go func() {
		for range results {
		}
	}()
	if !ok {
		return fmt.Errorf("no parallel group produced a result")
	}
	if first.err != nil {
		return fmt.Errorf("group %d: %w", first.index, first.err)
	}
	store.Merge(first.store)
	return nil
}

func (e *Executor) doBreakpoint(p *BreakpointParams, store *Store, mode Mode) error {
	if p.Condition != "" && !e.eval.Eval(p.Condition, store) {
		return nil
	}
	msg := store.Expand(p.Message)
	e.l.Info("breakpoint hit", "message", msg)
	if mode == ModeSimulate {
		return nil
	}
	snapshot := store.Copy()
	e.drv.OnBreakpointHit(msg, snapshot.All())
	e.drv.PauseExecution()
	return nil
}
