// Package callattempt is the Call Attempt (spec §4.9): one end-to-end try
// at proxying arguments, running preconditions, invoking the target body,
// auditing mutation, and evaluating the postcondition.
package callattempt

import (
	"context"
	"errors"
	"fmt"

	"github.com/crosshair-go/symex/internal/conditions"
	"github.com/crosshair-go/symex/internal/diagnostics"
	"github.com/crosshair-go/symex/internal/enforcement"
	"github.com/crosshair-go/symex/internal/excfilter"
	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/proxyfactory"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/symbolic"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// Body is the target function's own logic: there is no AST interpreter
// here, so the analyzed function is itself a Go closure receiving its
// bound, possibly-mutated-in-place arguments and returning its result or
// an error for the Exception Filter to classify. A Body that wants a
// declared exception type recognized against the raises set should return
// an *excfilter.UserException; any other error is treated as a generic
// exception.
type Body func(ctx context.Context, st *statespace.State, ctrl *enforcement.Controller, args []symbolic.Value) (symbolic.Value, error)

// FailingPrecondition records the deepest precondition this attempt
// failed on, per spec §4.10's "track the latest failing precondition by
// source line (deepest wins)".
type FailingPrecondition struct {
	Line   int
	Reason string
}

// Result is one attempt's outcome when it didn't hit an internal engine
// signal (those are reported as errors instead, see Run's doc comment).
type Result struct {
	Status               statespace.Status
	Messages             []*diagnostics.Message
	FailingPrecondition  *FailingPrecondition
}

// Run executes one Call Attempt. Its error return is reserved for the
// three internal engine signals spec §4.8/§7 says must propagate past
// this layer: errors.Is(err, statespace.ErrUnexploredPath) (bubble
// Unknown), errors.Is(err, excfilter.ErrIgnoreAttempt) (no status at
// all), or anything else (a genuine internal/solver error — abort the
// analyzer). Every other outcome, including a failing precondition or a
// Refuted/Confirmed verdict, comes back as a non-nil Result with a nil
// error.
func Run(ctx context.Context, st *statespace.State, hp *heap.Heap, repo *typerepo.Repo, factory *proxyfactory.Factory, ctrl *enforcement.Controller, fc conditions.FnConditions, body Body, name string) (*Result, error) {
	snap := heap.Snapshot(0)
	if hp != nil {
		snap = hp.CurrentSnapshot()
	}

	args := make([]symbolic.Value, len(fc.Sig.Params))
	for i, p := range fc.Sig.Params {
		v, err := factory.ProxyForType(ctx, st, snap, p.Type, name+"."+p.Name, true, true)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	popFw := st.Framework()
	originalArgs := make([]symbolic.Value, len(args))
	refs := make([]heap.Ref, len(args))
	haveRef := make([]bool, len(args))
	for i, a := range args {
		if hp != nil {
			if p, ok := a.(*symbolic.Proxy); ok {
				ref := hp.FindValInHeap(p)
				refs[i] = ref
				haveRef[i] = true
				obj := hp.FindKeyInHeap(ref, hp.CurrentSnapshot(), func() heap.Object { return deepCopy(a) })
				originalArgs[i] = obj.(symbolic.Value)
				continue
			}
		}
		originalArgs[i] = deepCopy(a)
	}
	popCkpt := st.Checkpoint()
	popFw()
	defer popCkpt()

	filter := excfilter.New(fc.Raises)
	mutable := fc.MutableArgs()

	bindings := make(map[string]symbolic.Value, len(args)+2)
	for i, p := range fc.Sig.Params {
		bindings[p.Name] = args[i]
	}

	// 3. Preconditions, tracking the deepest failure by source line.
	var deepest *FailingPrecondition
	for _, pre := range fc.Pre {
		ok, err := pre.Evaluate(ctx, st, bindings)
		if err != nil {
			outcome, msg, ferr := classifyRaised(filter, err)
			switch outcome {
			case excfilter.OutcomePropagate:
				return nil, ferr
			case excfilter.OutcomeUnknown:
				return nil, err
			case excfilter.OutcomeIgnore:
				return nil, excfilter.ErrIgnoreAttempt
			default:
				reason := err.Error()
				if msg != nil {
					reason = msg.Text
				}
				if deepest == nil || pre.Line() >= deepest.Line {
					deepest = &FailingPrecondition{Line: pre.Line(), Reason: reason}
				}
				return &Result{Status: statespace.Unknown, FailingPrecondition: deepest}, nil
			}
		}
		if !ok {
			fp := &FailingPrecondition{Line: pre.Line(), Reason: pre.ExprSource() + " is false"}
			return &Result{Status: statespace.Unknown, FailingPrecondition: fp}, nil
		}
	}

	// 4. Invoke the body.
	ret, err := body(ctx, st, ctrl, args)
	if err != nil {
		outcome, msg, ferr := classifyRaised(filter, err)
		switch outcome {
		case excfilter.OutcomePropagate:
			return nil, ferr
		case excfilter.OutcomeUnknown:
			return nil, err
		case excfilter.OutcomeIgnore:
			return nil, excfilter.ErrIgnoreAttempt
		case excfilter.OutcomeConfirmed:
			return &Result{Status: statespace.Confirmed}, nil
		default:
			msg.WithExecutionLog(st.ScriptedBits())
			return &Result{Status: statespace.Refuted, Messages: []*diagnostics.Message{msg}}, nil
		}
	}

	// 5. Mutation audit. A Proxy argument is re-materialized through the
	// heap at a new snapshot first (spec §3's (ref, snapshot) model), so the
	// comparison always runs against the heap's own record of "new" rather
	// than the live value directly.
	for i, p := range fc.Sig.Params {
		if mutable[p.Name] {
			continue
		}
		current := args[i]
		if haveRef[i] {
			newSnap := hp.Mutate(refs[i], deepCopy(args[i]))
			obj := hp.FindKeyInHeap(refs[i], newSnap, func() heap.Object { return deepCopy(args[i]) })
			current = obj.(symbolic.Value)
		}
		eq, err := symbolic.DeepEqual(originalArgs[i], current, nil)
		if err != nil {
			return nil, err
		}
		unchanged, err := st.ChoosePossible(ctx, eq.Expr(), true)
		if err != nil {
			return nil, err
		}
		if !unchanged {
			msg := diagnostics.New(diagnostics.PostErr, fmt.Sprintf(
				"argument %q was mutated but %q is not in mutable_args", p.Name, p.Name)).
				WithExecutionLog(st.ScriptedBits())
			return &Result{Status: statespace.Refuted, Messages: []*diagnostics.Message{msg}}, nil
		}
	}

	// 6. Postcondition.
	if fc.Post == nil {
		return &Result{Status: statespace.Confirmed}, nil
	}

	oldFields := make(map[string]symbolic.Value, len(originalArgs))
	for i, p := range fc.Sig.Params {
		oldFields[p.Name] = originalArgs[i]
	}
	postBindings := make(map[string]symbolic.Value, len(bindings)+3)
	for k, v := range bindings {
		postBindings[k] = v
	}
	if ret != nil {
		postBindings["__return__"] = ret
		postBindings["_"] = ret
	}
	postBindings["__old__"] = symbolic.NewProxy(snap, typerepo.PType{Name: "__old__"}, oldFields, true)

	holds, err := fc.Post.Evaluate(ctx, st, postBindings)
	if err != nil {
		outcome, msg, ferr := classifyRaised(filter, err)
		switch outcome {
		case excfilter.OutcomePropagate:
			return nil, ferr
		case excfilter.OutcomeUnknown:
			return nil, err
		case excfilter.OutcomeIgnore:
			return nil, excfilter.ErrIgnoreAttempt
		default:
			if msg == nil {
				msg = diagnostics.New(diagnostics.PostErr, err.Error())
			} else {
				msg.Kind = diagnostics.PostErr
			}
			msg.WithExecutionLog(st.ScriptedBits())
			return &Result{Status: statespace.Refuted, Messages: []*diagnostics.Message{msg}}, nil
		}
	}
	if !holds {
		msg := diagnostics.New(diagnostics.PostFail, fmt.Sprintf("postcondition %s failed", fc.Post.ExprSource())).
			WithSite(fc.Post.Filename(), fc.Post.Line(), 0).
			WithExecutionLog(st.ScriptedBits())
		return &Result{Status: statespace.Refuted, Messages: []*diagnostics.Message{msg}}, nil
	}
	return &Result{Status: statespace.Confirmed}, nil
}

// classifyRaised routes a raw error from a Body or Condition through the
// Exception Filter, first reifying a plain (non-engine, non-UserException)
// error as a generic exception so Filter.Classify always sees one of its
// recognized shapes.
func classifyRaised(f *excfilter.Filter, err error) (excfilter.Outcome, *diagnostics.Message, error) {
	if errors.Is(err, statespace.ErrUnexploredPath) ||
		errors.Is(err, excfilter.ErrInternal) ||
		errors.Is(err, excfilter.ErrSolverException) ||
		errors.Is(err, excfilter.ErrIgnoreAttempt) {
		return f.Classify(err)
	}
	var nested *excfilter.NestedPostFailure
	if errors.As(err, &nested) {
		return f.Classify(err)
	}
	var uexc *excfilter.UserException
	if errors.As(err, &uexc) {
		return f.Classify(err)
	}
	return f.Classify(&excfilter.UserException{TypeName: "Exception", Cause: err})
}

// deepCopy implements spec §4.9's "deep-copy the bound arguments into
// original_args": Proxy objects hold a mutable Go map that a short-circuit
// forget or a (simulated) attribute write can change in place, so those
// need an actual clone; every other variant already denotes an immutable
// solver handle swapped by rebinding rather than mutated in place, so a
// shallow copy already is a deep one.
func deepCopy(v symbolic.Value) symbolic.Value {
	p, ok := v.(*symbolic.Proxy)
	if !ok {
		return v
	}
	fields := make(map[string]symbolic.Value, len(p.Fields))
	for k, fv := range p.Fields {
		fields[k] = deepCopy(fv)
	}
	return symbolic.NewProxy(p.Snapshot(), p.NominalType(), fields, p.Opaque)
}
