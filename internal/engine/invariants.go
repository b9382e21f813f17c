package engine

import (
	"context"

	"github.com/crosshair-go/symex/internal/conditions"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/symbolic"
)

// invariantCondition ANDs a class's declared invariants together with
// left-to-right short-circuit, so AnalyzeClass can fold them into a
// single Pre or Post slot without a conditions.FnConditions that supports
// more than one postcondition.
type invariantCondition struct {
	invs []conditions.Condition
}

func (c *invariantCondition) Evaluate(ctx context.Context, st *statespace.State, bindings map[string]symbolic.Value) (bool, error) {
	for _, inv := range c.invs {
		ok, err := inv.Evaluate(ctx, st, bindings)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (c *invariantCondition) Filename() string {
	if len(c.invs) == 0 {
		return ""
	}
	return c.invs[0].Filename()
}

func (c *invariantCondition) Line() int {
	if len(c.invs) == 0 {
		return 0
	}
	return c.invs[0].Line()
}

func (c *invariantCondition) ExprSource() string  { return "class invariant" }
func (c *invariantCondition) AddlContext() string { return "" }

// andCondition sequences a method's own postcondition with the class
// invariant re-check, short-circuiting on the first failure so the
// resulting diagnostics.Message still points at whichever one actually
// failed.
type andCondition struct {
	a, b conditions.Condition
}

func (c *andCondition) Evaluate(ctx context.Context, st *statespace.State, bindings map[string]symbolic.Value) (bool, error) {
	ok, err := c.a.Evaluate(ctx, st, bindings)
	if err != nil || !ok {
		return ok, err
	}
	return c.b.Evaluate(ctx, st, bindings)
}

func (c *andCondition) Filename() string    { return c.a.Filename() }
func (c *andCondition) Line() int           { return c.a.Line() }
func (c *andCondition) ExprSource() string  { return c.a.ExprSource() }
func (c *andCondition) AddlContext() string { return c.a.AddlContext() }
