// Package shortcircuit is the Short-Circuit Context (spec §4.7): it
// intercepts calls to user-declared functions other than the one under
// analysis, aggressively but optionally replacing the call with a fresh
// symbolic return value instead of actually running the callee's body.
package shortcircuit

import (
	"context"

	"github.com/crosshair-go/symex/internal/config"
	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/proxyfactory"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/symbolic"
)

// Signature is the callee-side declaration Intercept needs: its
// (possibly generic) parameter types, its mutability per parameter, and
// its (possibly generic) return type. It carries no postcondition: spec
// §9's open question of whether a short-circuited callee's postcondition
// should be asserted on its synthesized return value is resolved as "no"
// here (see DESIGN.md) — Intercept only has the callee's declared types to
// work with, not a bound callee name it could use to look its conditions
// up, so asserting one would mean threading a whole second conditions
// lookup through every call site that doesn't otherwise need one.
type Signature struct {
	Params  []proxyfactory.TypeSpec
	Mutable []bool
	Ret     proxyfactory.TypeSpec
}

// Context tracks the engage/disengage stack depth described by spec §5's
// "scoped resources... LIFO" discipline: while disengaged (during the
// factory's own proxy synthesis, or while the engine runs framework code),
// Intercept always passes through, so short-circuiting a call never
// recursively short-circuits itself.
type Context struct {
	st            *statespace.State
	factory       *proxyfactory.Factory
	disengageDepth int
}

// New returns a Context intercepting on behalf of st, synthesizing return
// values via factory.
func New(st *statespace.State, factory *proxyfactory.Factory) *Context {
	return &Context{st: st, factory: factory}
}

// Disengaged reports whether short-circuiting is currently suppressed.
func (c *Context) Disengaged() bool { return c.disengageDepth > 0 }

func (c *Context) disengage() func() {
	c.disengageDepth++
	return func() { c.disengageDepth-- }
}

// Intercept implements spec §4.7's three-step decision: pass through in
// framework code or while disengaged; otherwise fork with a heavy bias
// toward running the original; if short-circuiting, unify the callee's
// type variables against the actual argument types, forget the contents
// of every mutable argument, and synthesize a fresh value of the
// (possibly now-concrete) return type. The bool result reports whether
// the call was short-circuited; when false the caller must run the
// callee's real body.
func (c *Context) Intercept(ctx context.Context, snap heap.Snapshot, sig Signature, args []symbolic.Value, name string) (bool, symbolic.Value, []symbolic.Value, error) {
	if c.st.InFramework() || c.Disengaged() {
		return false, nil, args, nil
	}

	runOriginal, err := c.st.ForkWithConfirmOrElse(ctx, config.ShortCircuitRunOriginalBias)
	if err != nil {
		return false, nil, args, err
	}
	if runOriginal {
		return false, nil, args, nil
	}

	pop := c.disengage()
	defer pop()

	bindings := map[string]proxyfactory.TypeSpec{}
	actual := make([]proxyfactory.TypeSpec, len(args))
	for i, a := range args {
		actual[i] = proxyfactory.FromValue(a)
	}
	proxyfactory.Unify(sig.Params, actual, bindings)
	retType := proxyfactory.Substitute(sig.Ret, bindings)

	forgotten := make([]symbolic.Value, len(args))
	for i, a := range args {
		if i < len(sig.Mutable) && sig.Mutable[i] {
			nv, err := symbolic.Forget(ctx, c.st, a, name+".arg")
			if err != nil {
				return false, nil, args, err
			}
			forgotten[i] = nv
		} else {
			forgotten[i] = a
		}
	}

	result, err := c.factory.ProxyForType(ctx, c.st, snap, retType, name+".ret", true, false)
	if err != nil {
		return false, nil, args, err
	}
	return true, result, forgotten, nil
}
