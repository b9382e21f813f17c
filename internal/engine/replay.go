package engine

import (
	"context"
	"fmt"

	"github.com/crosshair-go/symex/internal/callattempt"
	"github.com/crosshair-go/symex/internal/conditions"
	"github.com/crosshair-go/symex/internal/diagnostics"
	"github.com/crosshair-go/symex/internal/enforcement"
	"github.com/crosshair-go/symex/internal/proxyfactory"
	"github.com/crosshair-go/symex/internal/shortcircuit"
	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/statespace"
)

// Replay is spec §6's replay entry point: it reproduces the counterexample
// captured by msg's execution log by consuming the same decision bits in
// the same order instead of searching, so a regression test built from a
// tracking-mode finding reproduces deterministically.
func (e *Engine) Replay(ctx context.Context, provider conditions.Provider, fnKey any, name string, body callattempt.Body, msg *diagnostics.Message, opts AnalysisOptions) (*callattempt.Result, error) {
	fc, err := provider.FnConditions(fnKey)
	if err != nil {
		return nil, fmt.Errorf("engine: resolving conditions for %s: %w", name, err)
	}
	opts = opts.withDefaults()

	solver := smt.New(opts.SolverTimeout)
	solver.SetIssubclass(e.Repo.Issubclass)
	root := statespace.NewReplayRoot(msg.ExecutionLog)
	st := statespace.NewReplay(solver, root)
	factory := proxyfactory.New(e.Repo, e.Registry, e.Heap)
	sc := shortcircuit.New(st, factory)
	ctrl := enforcement.New(st, e.Repo, enforcement.NewDefaultTable(), sc)

	return callattempt.Run(ctx, st, e.Heap, e.Repo, factory, ctrl, fc, body, name)
}
