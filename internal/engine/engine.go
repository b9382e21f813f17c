// Package engine is the process-wide context spec §5 and §6 describe: it
// owns the type repository and heap across every target analyzed in one
// run, builds a fresh search tree per target, and exposes the core's
// external surface (analyze_function/analyze_class/analyze_module,
// AnalysisOptions, and the replay entry point).
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/crosshair-go/symex/internal/callattempt"
	"github.com/crosshair-go/symex/internal/calltree"
	"github.com/crosshair-go/symex/internal/conditions"
	"github.com/crosshair-go/symex/internal/config"
	"github.com/crosshair-go/symex/internal/diagnostics"
	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/proxyfactory"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// Engine is the process-wide collaborator context. The type repository and
// heap persist across every target analyzed through it; each target gets
// its own fresh search tree and solver per calltree.Run iteration (spec
// §5's "process-wide" vs. "per-path" split).
type Engine struct {
	Repo     *typerepo.Repo
	Heap     *heap.Heap
	Registry proxyfactory.ClassRegistry
}

// New returns an Engine backed by registry (for concrete-instantiation
// constructor signatures, spec §4.6). registry may be nil: the Proxy
// Factory falls back to opaque proxies for every class in that case.
func New(registry proxyfactory.ClassRegistry) *Engine {
	return &Engine{Repo: typerepo.New(nil), Heap: heap.New(), Registry: registry}
}

// AnalysisOptions is spec §6's AnalysisOptions.
type AnalysisOptions struct {
	PerConditionTimeout time.Duration
	PerPathTimeout      time.Duration
	SolverTimeout       time.Duration
	MaxForksPerPath     int
	// Deadline bounds an entire batch run across many targets; zero means
	// no batch-wide cutoff, only each target's own PerConditionTimeout.
	Deadline time.Time
}

func (o AnalysisOptions) withDefaults() AnalysisOptions {
	if o.PerConditionTimeout == 0 {
		o.PerConditionTimeout = config.DefaultPerConditionTimeout
	}
	if o.PerPathTimeout == 0 {
		o.PerPathTimeout = config.DefaultPerPathTimeout
	}
	if o.SolverTimeout == 0 {
		o.SolverTimeout = config.DefaultSolverQueryTimeout
	}
	if o.MaxForksPerPath == 0 {
		o.MaxForksPerPath = config.MaxForkDepth
	}
	return o
}

// perConditionDeadline is the earlier of the batch-wide Deadline and this
// target's own PerConditionTimeout measured from now.
func (o AnalysisOptions) perConditionDeadline() time.Time {
	d := time.Now().Add(o.PerConditionTimeout)
	if !o.Deadline.IsZero() && o.Deadline.Before(d) {
		return o.Deadline
	}
	return d
}

// AnalyzeFunction runs analyze_function (spec §6) for one target. fnKey
// identifies it to provider; body supplies its executable logic, since
// there is no AST interpreter here (see callattempt.Body); name labels
// synthesized argument constants and diagnostics sites.
func (e *Engine) AnalyzeFunction(ctx context.Context, provider conditions.Provider, fnKey any, name string, body callattempt.Body, opts AnalysisOptions) ([]*diagnostics.Message, error) {
	fc, err := provider.FnConditions(fnKey)
	if err != nil {
		return nil, fmt.Errorf("engine: resolving conditions for %s: %w", name, err)
	}
	if fc.SyntaxErrors != nil {
		if msgs := fc.SyntaxErrors(); len(msgs) > 0 {
			return msgs, nil
		}
	}
	opts = opts.withDefaults()
	deps := calltree.Deps{
		Repo:            e.Repo,
		Heap:            e.Heap,
		Root:            statespace.NewRoot(),
		SolverTimeout:   opts.SolverTimeout,
		PerPathTimeout:  opts.PerPathTimeout,
		MaxForksPerPath: opts.MaxForksPerPath,
		Registry:        e.Registry,
		Body:            body,
	}
	analysis, err := calltree.Run(ctx, deps, fc, name, opts.perConditionDeadline())
	if err != nil {
		return nil, err
	}
	return analysis.Messages, nil
}

// AnalyzeClass runs analyze_class (spec §6): every method is analyzed as
// its own target, with the class's invariants folded into that method's
// precondition (checked on entry) and postcondition (checked on exit) —
// get_class_conditions only hands back {inv, methods}, so the core is the
// one place that actually wires invariants into a per-method check.
func (e *Engine) AnalyzeClass(ctx context.Context, provider conditions.Provider, clsKey any, className string, bodies map[string]callattempt.Body, opts AnalysisOptions) (map[string][]*diagnostics.Message, error) {
	cc, err := provider.ClassConditions(clsKey)
	if err != nil {
		return nil, fmt.Errorf("engine: resolving conditions for %s: %w", className, err)
	}
	opts = opts.withDefaults()

	results := make(map[string][]*diagnostics.Message, len(cc.Methods))
	for mname, fc := range cc.Methods {
		body, ok := bodies[mname]
		if !ok {
			return nil, fmt.Errorf("engine: no body registered for %s.%s", className, mname)
		}
		if len(cc.Inv) > 0 {
			inv := &invariantCondition{invs: cc.Inv}
			fc.Pre = append([]conditions.Condition{inv}, fc.Pre...)
			if fc.Post == nil {
				fc.Post = inv
			} else {
				fc.Post = &andCondition{a: fc.Post, b: inv}
			}
		}
		deps := calltree.Deps{
			Repo:            e.Repo,
			Heap:            e.Heap,
			Root:            statespace.NewRoot(),
			SolverTimeout:   opts.SolverTimeout,
			PerPathTimeout:  opts.PerPathTimeout,
			MaxForksPerPath: opts.MaxForksPerPath,
			Registry:        e.Registry,
			Body:            body,
		}
		analysis, err := calltree.Run(ctx, deps, fc, className+"."+mname, opts.perConditionDeadline())
		if err != nil {
			return nil, err
		}
		results[mname] = analysis.Messages
	}
	return results, nil
}

// ModuleTarget is one function or class analyze_module walks. A bare
// function sets Body; a class sets Class and ClassBodies (one per
// declared method) instead.
type ModuleTarget struct {
	Name        string
	Key         any
	Body        callattempt.Body
	Class       bool
	ClassBodies map[string]callattempt.Body
}

// AnalyzeModule runs analyze_module (spec §6) by dispatching each target
// to AnalyzeFunction or AnalyzeClass and flattening the results under a
// single (possibly method-qualified) name per message group.
func (e *Engine) AnalyzeModule(ctx context.Context, provider conditions.Provider, targets []ModuleTarget, opts AnalysisOptions) (map[string][]*diagnostics.Message, error) {
	out := make(map[string][]*diagnostics.Message, len(targets))
	for _, tgt := range targets {
		if tgt.Class {
			res, err := e.AnalyzeClass(ctx, provider, tgt.Key, tgt.Name, tgt.ClassBodies, opts)
			if err != nil {
				return nil, err
			}
			for m, msgs := range res {
				out[tgt.Name+"."+m] = msgs
			}
			continue
		}
		msgs, err := e.AnalyzeFunction(ctx, provider, tgt.Key, tgt.Name, tgt.Body, opts)
		if err != nil {
			return nil, err
		}
		out[tgt.Name] = msgs
	}
	return out, nil
}
