// Package calltree is the Calltree Analyzer (spec §4.10): the driver loop
// that runs one Call Attempt per path, steering a shared search tree until
// it is exhausted, a per-condition deadline passes, or Refuted dominates
// the root.
package calltree

import (
	"context"
	"errors"
	"time"

	"github.com/crosshair-go/symex/internal/callattempt"
	"github.com/crosshair-go/symex/internal/conditions"
	"github.com/crosshair-go/symex/internal/diagnostics"
	"github.com/crosshair-go/symex/internal/enforcement"
	"github.com/crosshair-go/symex/internal/excfilter"
	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/proxyfactory"
	"github.com/crosshair-go/symex/internal/shortcircuit"
	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// Deps bundles the process-wide collaborators owned by the Engine context
// (spec §5's "process-wide... owned by an Engine context"): the type
// repository and heap persist across iterations, the search tree is the
// only cross-iteration mutable state, and a fresh solver/state/factory/
// enforcement stack is built per iteration.
type Deps struct {
	Repo            *typerepo.Repo
	Heap            *heap.Heap
	Root            *statespace.Node
	SolverTimeout   time.Duration
	PerPathTimeout  time.Duration
	MaxForksPerPath int
	Registry        proxyfactory.ClassRegistry
	Body            callattempt.Body
}

// Analysis is what analyze_function returns for one function (spec §6).
type Analysis struct {
	Status   statespace.Status
	Messages []*diagnostics.Message
}

// Run drives the loop described by spec §4.10 until the per-condition
// deadline passes or the shared tree is exhausted/dominated by Refuted.
func Run(ctx context.Context, deps Deps, fc conditions.FnConditions, name string, perConditionDeadline time.Time) (*Analysis, error) {
	var messages []*diagnostics.Message
	seen := map[string]bool{}
	var deepestPre *callattempt.FailingPrecondition
	anyNonPreOutcome := false

loop:
	for {
		if !perConditionDeadline.IsZero() && time.Now().After(perConditionDeadline) {
			break loop
		}
		if ctx.Err() != nil {
			break loop
		}

		solver := smt.New(deps.SolverTimeout)
		solver.SetIssubclass(deps.Repo.Issubclass)
		st := statespace.New(solver, deps.Root, deps.PerPathTimeout, deps.MaxForksPerPath)
		factory := proxyfactory.New(deps.Repo, deps.Registry, deps.Heap)
		sc := shortcircuit.New(st, factory)
		ctrl := enforcement.New(st, deps.Repo, enforcement.NewDefaultTable(), sc)

		result, err := callattempt.Run(ctx, st, deps.Heap, deps.Repo, factory, ctrl, fc, deps.Body, name)
		if err != nil {
			if errors.Is(err, excfilter.ErrIgnoreAttempt) {
				// No status at all: don't bubble, just retry.
				continue loop
			}
			if errors.Is(err, statespace.ErrUnexploredPath) {
				rootStatus, exhausted := st.BubbleStatus(statespace.Unknown)
				if exhausted || rootStatus == statespace.Refuted {
					break loop
				}
				continue loop
			}
			return nil, err
		}

		if result.FailingPrecondition != nil {
			if deepestPre == nil || result.FailingPrecondition.Line >= deepestPre.Line {
				deepestPre = result.FailingPrecondition
			}
			rootStatus, exhausted := st.BubbleStatus(statespace.Unknown)
			if exhausted || rootStatus == statespace.Refuted {
				break loop
			}
			continue loop
		}

		anyNonPreOutcome = true
		for _, m := range result.Messages {
			if !seen[m.Key()] {
				seen[m.Key()] = true
				messages = append(messages, m)
			}
		}

		rootStatus, exhausted := st.BubbleStatus(result.Status)
		if exhausted || rootStatus == statespace.Refuted {
			return finish(rootStatus, messages, deepestPre, anyNonPreOutcome), nil
		}
	}

	rootStatus := deps.Root.Status
	return finish(rootStatus, messages, deepestPre, anyNonPreOutcome), nil
}

func finish(status statespace.Status, messages []*diagnostics.Message, deepestPre *callattempt.FailingPrecondition, anyNonPreOutcome bool) *Analysis {
	if !anyNonPreOutcome && deepestPre != nil {
		msg := diagnostics.New(diagnostics.PreUnsat, "every path failed its preconditions: "+deepestPre.Reason)
		return &Analysis{Status: statespace.Unknown, Messages: []*diagnostics.Message{msg}}
	}
	if status == statespace.Unknown && len(messages) == 0 {
		msg := diagnostics.New(diagnostics.CannotConfirm, "exhausted the per-condition deadline without a verdict")
		return &Analysis{Status: status, Messages: []*diagnostics.Message{msg}}
	}
	return &Analysis{Status: status, Messages: messages}
}
