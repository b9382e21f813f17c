// Package enforcement is the Enforcement collaborator (spec §6/§9): it
// gates contracted-builtin dispatch and the Short-Circuit Context behind a
// LIFO enable/disable stack, so framework code (proxy synthesis, condition
// evaluation) never accidentally re-enters symbolic-aware builtins or
// short-circuiting meant only for the target function's own body.
package enforcement

import (
	"context"

	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/shortcircuit"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/symbolic"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// Controller is constructed with the target's builtin table and the
// short-circuit factory's interceptor hook (spec §6: "constructed with the
// target's globals plus a map of contracted builtins and an interceptor
// hook for the short-circuit factory"). "globals" has no Go analogue (the
// analyzed function's free variables are just Go closures/imports) so it
// is omitted.
type Controller struct {
	st           *statespace.State
	repo         *typerepo.Repo
	builtins     *BuiltinTable
	sc           *shortcircuit.Context
	disabledDepth int
}

// New returns a Controller wired to st's search-tree path, repo for
// contracted-builtin type checks, builtins for the dispatch table, and sc
// for nested-call short-circuiting. Enforcement starts enabled.
func New(st *statespace.State, repo *typerepo.Repo, builtins *BuiltinTable, sc *shortcircuit.Context) *Controller {
	return &Controller{st: st, repo: repo, builtins: builtins, sc: sc}
}

// Enabled reports whether enforcement is currently active.
func (c *Controller) Enabled() bool { return c.disabledDepth == 0 }

// EnabledEnforcement pushes an enabled scope, overriding any outer
// disablement; the returned func must be deferred to restore it (spec §5's
// LIFO scoped-resource discipline).
func (c *Controller) EnabledEnforcement() func() {
	prev := c.disabledDepth
	c.disabledDepth = 0
	return func() { c.disabledDepth = prev }
}

// DisabledEnforcement pushes a disabled scope; the returned func must be
// deferred to restore the previous depth.
func (c *Controller) DisabledEnforcement() func() {
	c.disabledDepth++
	return func() { c.disabledDepth-- }
}

// CallBuiltin dispatches name through the contracted-builtin table while
// enforcement is enabled; the bool result is false (with a nil error) both
// when enforcement is disabled and when no contracted implementation
// exists, so the caller always knows to fall back to a real call.
func (c *Controller) CallBuiltin(ctx context.Context, name string, args []symbolic.Value) (symbolic.Value, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	return c.builtins.Call(ctx, c.st, c.repo, name, args)
}

// InterceptCall routes a nested call through the Short-Circuit Context
// while enforcement is enabled; while disabled it always reports "run the
// original" (spec §6's enforcement/short-circuit pairing).
func (c *Controller) InterceptCall(ctx context.Context, snap heap.Snapshot, sig shortcircuit.Signature, args []symbolic.Value, name string) (bool, symbolic.Value, []symbolic.Value, error) {
	if !c.Enabled() {
		return false, nil, args, nil
	}
	return c.sc.Intercept(ctx, snap, sig, args, name)
}
