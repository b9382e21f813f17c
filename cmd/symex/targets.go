package main

import (
	"context"

	"github.com/crosshair-go/symex/internal/callattempt"
	"github.com/crosshair-go/symex/internal/conditions"
	"github.com/crosshair-go/symex/internal/enforcement"
	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/proxyfactory"
	"github.com/crosshair-go/symex/internal/registry"
	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/symbolic"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// registerBuiltinTargets seeds the CLI's registry with a couple of
// self-contained sample contracts, the way the teacher's evaluator ships a
// handful of always-available builtins (RegisterBuiltins) rather than
// requiring every invocation to wire its own from scratch. A real user of
// this binary registers their own targets in their own package's init and
// links against internal/registry directly; these exist so `symex analyze`
// has something to run against out of the box.
func registerBuiltinTargets(r *registry.Registry) {
	r.RegisterFunction("abs", absConditions(), absBody)

	counterType := typerepo.PType{Name: "sample.Counter"}
	r.RegisterClass("sample.Counter", counterClassConditions(counterType), map[string]callattempt.Body{
		"Dec": counterDecBody,
	})
}

// abs(x) returns a value >= 0, and equal to either x or -x.
func absConditions() conditions.FnConditions {
	return conditions.FnConditions{
		Sig: conditions.Signature{
			Params: []conditions.Param{{Name: "x", Type: proxyfactory.Int()}},
			Ret:    proxyfactory.Int(),
		},
		Post: &conditions.ExprCondition{
			Src: "_ >= 0",
			Fn: func(ctx context.Context, st *statespace.State, b map[string]symbolic.Value) (bool, error) {
				zero := symbolic.NewInt(heap.Snapshot(0), smt.IntConst(0))
				cmp, err := symbolic.Compare(b["__return__"], zero, smt.Ge)
				if err != nil {
					return false, err
				}
				return st.ChoosePossible(ctx, cmp.Expr(), true)
			},
		},
	}
}

func absBody(ctx context.Context, st *statespace.State, ctrl *enforcement.Controller, args []symbolic.Value) (symbolic.Value, error) {
	x := args[0]
	zero := symbolic.NewInt(heap.Snapshot(0), smt.IntConst(0))
	cmp, err := symbolic.Compare(x, zero, smt.Ge)
	if err != nil {
		return nil, err
	}
	nonNeg, err := st.ChoosePossible(ctx, cmp.Expr(), true)
	if err != nil {
		return nil, err
	}
	if nonNeg {
		return x, nil
	}
	return symbolic.Sub(zero, x)
}

// sample.Counter carries the invariant n >= 0; Dec is registered without
// its own guard, so an unconstrained decrement below zero is the kind of
// counterexample the engine is meant to surface.
func counterClassConditions(counterType typerepo.PType) conditions.ClassConditions {
	nonNegative := &conditions.ExprCondition{
		Src: "self.n >= 0",
		Fn: func(ctx context.Context, st *statespace.State, b map[string]symbolic.Value) (bool, error) {
			self := b["self"].(*symbolic.Proxy)
			n, _ := self.Field("n")
			zero := symbolic.NewInt(heap.Snapshot(0), smt.IntConst(0))
			cmp, err := symbolic.Compare(n, zero, smt.Ge)
			if err != nil {
				return false, err
			}
			return st.ChoosePossible(ctx, cmp.Expr(), true)
		},
	}
	return conditions.ClassConditions{
		Inv: []conditions.Condition{nonNegative},
		Methods: map[string]conditions.FnConditions{
			"Dec": {
				Sig: conditions.Signature{
					Params: []conditions.Param{{Name: "self", Type: proxyfactory.ClassOf(counterType), Mutable: true}},
				},
			},
		},
	}
}

func counterDecBody(ctx context.Context, st *statespace.State, ctrl *enforcement.Controller, args []symbolic.Value) (symbolic.Value, error) {
	self := args[0].(*symbolic.Proxy)
	n, _ := self.Field("n")
	one := symbolic.NewInt(heap.Snapshot(0), smt.IntConst(1))
	dec, err := symbolic.Sub(n, one)
	if err != nil {
		return nil, err
	}
	self.Fields["n"] = dec
	return nil, nil
}

// counterClassRegistry supplies the Proxy Factory with sample.Counter's
// field layout so AnalyzeClass can synthesize a concrete self argument
// instead of an opaque, field-less one.
type counterClassRegistry struct {
	counterType typerepo.PType
}

func (r counterClassRegistry) Lookup(t typerepo.PType) (proxyfactory.ClassDescriptor, bool) {
	if t != r.counterType {
		return proxyfactory.ClassDescriptor{}, false
	}
	return proxyfactory.ClassDescriptor{
		Type:   r.counterType,
		Params: []proxyfactory.Param{{Name: "n", Type: proxyfactory.Int()}},
	}, true
}
