package smt

import (
	"context"
	"fmt"
	"time"
)

// SatResult is the three-valued outcome of CheckSat.
type SatResult uint8

const (
	Unsat SatResult = iota
	Sat
	UnknownResult
)

func (r SatResult) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Solver is the facade described in spec §4.1: named constant declaration,
// assertion with push/pop checkpoints, and model extraction with a
// per-query timeout.
type Solver struct {
	frames     [][]Expr // assertion stack; frames[0] is the base scope
	queryTimeout time.Duration
	issubclass func(sub, sup string) bool
	declared   map[string]Sort
}

// New returns a Solver with one empty base frame.
func New(queryTimeout time.Duration) *Solver {
	return &Solver{
		frames:       [][]Expr{nil},
		queryTimeout: queryTimeout,
		declared:     map[string]Sort{},
	}
}

// SetIssubclass wires the Type Repository's subclass relation into
// OpIssubclass evaluation.
func (s *Solver) SetIssubclass(fn func(sub, sup string) bool) { s.issubclass = fn }

// DeclareConst declares a fresh named constant of the given sort and
// returns the Var expression referencing it.
func (s *Solver) DeclareConst(name string, sort Sort) Expr {
	s.declared[name] = sort
	return Var(name, sort)
}

// Assert adds e to the current scope.
func (s *Solver) Assert(e Expr) {
	top := len(s.frames) - 1
	s.frames[top] = append(s.frames[top], e)
}

// Push opens a new checkpoint scope.
func (s *Solver) Push() { s.frames = append(s.frames, nil) }

// Pop discards the most recent checkpoint scope and everything asserted
// in it. Popping the base frame is a no-op (mirrors z3's own tolerance of
// an unbalanced final pop, which several call sites in a cooperative
// single-threaded engine rely on when a panic unwinds past a Push).
func (s *Solver) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// assertions flattens every live scope into one assertion set.
func (s *Solver) assertions() []Expr {
	var all []Expr
	for _, f := range s.frames {
		all = append(all, f...)
	}
	return all
}

// CheckSat asks whether the current assertion set is satisfiable within
// ctx and the solver's per-query timeout, whichever is sooner.
func (s *Solver) CheckSat(ctx context.Context) (SatResult, *Model, error) {
	cctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	m, ok, err := search(cctx, s.assertions(), s.issubclass)
	if err != nil {
		return UnknownResult, nil, err
	}
	if !ok {
		return Unsat, nil, nil
	}
	return Sat, m, nil
}

// CheckSatAssuming probes feasibility of extra on top of the current
// assertion set without committing it, used by the state space to test
// both fork arms before choosing one (spec §4.5's choose_possible).
func (s *Solver) CheckSatAssuming(ctx context.Context, extra ...Expr) (SatResult, *Model, error) {
	cctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	all := append(append([]Expr(nil), s.assertions()...), extra...)
	m, ok, err := search(cctx, all, s.issubclass)
	if err != nil {
		return UnknownResult, nil, err
	}
	if !ok {
		return Unsat, nil, nil
	}
	return Sat, m, nil
}

// EvalInModel evaluates e against a previously extracted model, per spec
// §4.1's eval_in_model.
func (s *Solver) EvalInModel(m *Model, e Expr) (any, error) {
	if m == nil {
		return nil, fmt.Errorf("smt: EvalInModel called with nil model")
	}
	return m.Eval(e)
}
