package engine

import (
	"context"
	"fmt"
)

func (e *Executor) doConditional(ctx context.Context, p *ConditionalParams, store *Store, mode Mode) error {
	if e.eval.Eval(p.Condition, store) {
		e.l.Debug("condition true", "condition", p.Condition)
		return e.runList(ctx, p.ThenActions, store, mode)
	}
	e.l.Debug("condition false", "condition", p.Condition)
	return e.runList(ctx, p.ElseActions, store, mode)
}

func (e *Executor) doLoop(ctx context.Context, p *LoopParams, store *Store, mode Mode) error {
	switch p.LoopType {
	case LoopCount:
		for i := 0; i < p.Count; i++ {
			if err := e.checkLoopStop(ctx); err != nil {
				return err
			}
			if err := e.runList(ctx, p.Actions, store, mode); err != nil {
				return fmt.Errorf("iteration %d: %w", i+1, err)
			}
		}
		return nil

	case LoopWhile:
		iterations := 0
		for e.eval.Eval(p.Condition, store) {
			iterations++
			if iterations > p.MaxIterations {
				return fmt.Errorf("while loop exceeded max_iterations (%d)", p.MaxIterations)
			}
			if err := e.checkLoopStop(ctx); err != nil {
				return err
			}
			if err := e.runList(ctx, p.Actions, store, mode); err != nil {
				return fmt.Errorf("iteration %d: %w", iterations, err)
			}
		}
		return nil

	case LoopForEach:
		raw, ok := store.Get(p.Collection)
		if !ok {
			return fmt.Errorf("collection variable %q is not set", p.Collection)
		}
		items, err := toList(raw)
		if err != nil {
			return fmt.Errorf("collection %q: %w", p.Collection, err)
		}
		for i, item := range items {
			if err := e.checkLoopStop(ctx); err != nil {
				return err
			}
			store.Set(p.Variable, item)
			if err := e.runList(ctx, p.Actions, store, mode); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown loop type %q", p.LoopType)
	}
}

func (e *Executor) checkLoopStop(ctx context.Context) error {
	if e.drv.ShouldStop() {
		return ErrStopped
	}
	return ctx.Err()
}

func toList(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, nil
	case []Match:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value of type %T is not a list", v)
	}
}
