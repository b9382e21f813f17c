package smt

import (
	"context"
	"fmt"
)

// domain enumerates candidate concrete values to try for one free
// variable. Literal constants occurring in the assertions are folded in
// first since they're by far the most likely boundary values to matter
// (the classic "interesting constants" heuristic for a bounded search).
func domain(sort Sort, literals map[Kind][]any) []any {
	switch sort.Kind {
	case KindBool:
		return []any{false, true}
	case KindInt:
		vals := []any{int64(0), int64(1), int64(-1), int64(2), int64(-2)}
		return dedupAppend(vals, literals[KindInt])
	case KindReal:
		vals := []any{0.0, 1.0, -1.0, 0.5, -0.5, 2.0}
		return dedupAppend(vals, literals[KindReal])
	case KindStr:
		vals := []any{"", "a", "ab"}
		return dedupAppend(vals, literals[KindStr])
	default:
		return nil
	}
}

func dedupAppend(base []any, extra []any) []any {
	seen := map[any]bool{}
	for _, v := range base {
		seen[v] = true
	}
	out := append([]any(nil), base...)
	for _, v := range extra {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	if len(out) > 24 {
		out = out[:24]
	}
	return out
}

// collectLiterals walks every assertion gathering OpConst values by kind,
// for use as search-domain seeds.
func collectLiterals(exprs []Expr, out map[Kind][]any) {
	var walk func(Expr)
	walk = func(e Expr) {
		if e.Op == OpConst {
			out[e.Sort.Kind] = append(out[e.Sort.Kind], e.Value)
		}
		for _, a := range e.Args {
			walk(a)
		}
	}
	for _, e := range exprs {
		walk(e)
	}
}

// search performs a bounded backtracking model search over the free
// scalar variables reachable from assertions, returning a satisfying
// Model or ok=false if none was found within the candidate domains. This
// is a *bounded* search: ok=false means "no model within the sampled
// domain", which is reported as Unsat — a disclosed approximation (see
// DESIGN.md), in the same spirit as spec §1's floating-point caveat.
func search(ctx context.Context, assertions []Expr, issubclass func(string, string) bool) (*Model, bool, error) {
	free := map[string]Expr{}
	for _, e := range assertions {
		e.Vars(free)
	}

	literals := map[Kind][]any{}
	collectLiterals(assertions, literals)

	names := make([]string, 0, len(free))
	for n := range free {
		names = append(names, n)
	}

	m := newModel()
	m.Issubclass = issubclass

	ok, err := backtrack(ctx, names, free, 0, m, assertions, literals)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return m, true, nil
}

func backtrack(ctx context.Context, names []string, free map[string]Expr, i int, m *Model, assertions []Expr, literals map[Kind][]any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("smt: %w", err)
	}
	if i == len(names) {
		for _, a := range assertions {
			v, err := eval(a, m)
			if err != nil {
				return false, nil //nolint:nilerr // an unevaluable assertion under this assignment just isn't a model
			}
			b, ok := v.(bool)
			if !ok || !b {
				return false, nil
			}
		}
		return true, nil
	}

	name := names[i]
	sort := free[name].Sort
	if sort.Kind != KindBool && sort.Kind != KindInt && sort.Kind != KindReal && sort.Kind != KindStr {
		// Reference-shaped free variables resolve to their own identity
		// lazily on first eval; nothing to branch on.
		return backtrack(ctx, names, free, i+1, m, assertions, literals)
	}
	for _, candidate := range domain(sort, literals) {
		m.Assignment[name] = candidate
		ok, err := backtrack(ctx, names, free, i+1, m, assertions, literals)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	delete(m.Assignment, name)
	return false, nil
}
