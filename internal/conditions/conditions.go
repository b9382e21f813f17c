// Package conditions declares the Conditions Provider collaborator (spec
// §6): the core consumes pre/postconditions, invariants, and raises sets
// through this interface rather than parsing docstrings itself — the
// parser that produces a real Provider is out of scope (spec.md's
// Non-goals), so this package only holds the interface and the small
// evaluator contract a Condition must satisfy.
package conditions

import (
	"context"

	"github.com/crosshair-go/symex/internal/diagnostics"
	"github.com/crosshair-go/symex/internal/proxyfactory"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/symbolic"
)

// Condition is one evaluable pre/postcondition or invariant expression,
// carrying enough source info for diagnostics to locate it (spec §6).
// Evaluate receives the path's State so a condition built on a symbolic
// expression can fork on its own truth value (the implicit bool()
// coercion a real condition expression would perform) and return a
// definite answer for this path.
type Condition interface {
	Evaluate(ctx context.Context, st *statespace.State, bindings map[string]symbolic.Value) (bool, error)
	Filename() string
	Line() int
	ExprSource() string
	AddlContext() string
}

// Param is one formal parameter of the function under analysis, paired
// with its declared type so the Proxy Factory can synthesize an argument
// for it, and whether the function is declared to mutate it.
type Param struct {
	Name    string
	Type    proxyfactory.TypeSpec
	Mutable bool
}

// Signature is the callee's declared shape.
type Signature struct {
	Params []Param
	Ret    proxyfactory.TypeSpec
}

// FnConditions is what get_fn_conditions returns for one function (spec
// §6).
type FnConditions struct {
	Pre          []Condition
	Post         Condition // spec §4.9 step 6: a single postcondition
	Raises       []string
	Sig          Signature
	SyntaxErrors func() []*diagnostics.Message
}

// MutableArgs reports the set of parameter names declared mutable,
// derived from Sig (spec §6's mutable_args).
func (f FnConditions) MutableArgs() map[string]bool {
	out := make(map[string]bool, len(f.Sig.Params))
	for _, p := range f.Sig.Params {
		if p.Mutable {
			out[p.Name] = true
		}
	}
	return out
}

// ClassConditions is what get_class_conditions returns for one class
// (spec §6).
type ClassConditions struct {
	Inv     []Condition
	Methods map[string]FnConditions
}

// Provider is the Conditions collaborator the core consumes from (spec
// §6).
type Provider interface {
	FnConditions(fn any) (FnConditions, error)
	ClassConditions(cls any) (ClassConditions, error)
}
