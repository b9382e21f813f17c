package statespace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crosshair-go/symex/internal/smt"
)

// ErrUnexploredPath signals that the per-path deadline (or the max fork
// depth guard) was hit at a suspension point; the caller should treat the
// current subtree as Unknown (spec §5, §7).
var ErrUnexploredPath = errors.New("statespace: path unexplored (deadline or depth limit)")

// Kind distinguishes the two State variants of spec §4.5.
type Kind uint8

const (
	Tracking Kind = iota
	Replay
)

// State is one iteration's view of the shared search tree: it owns the
// solver for this path, walks the tree from root to a leaf as the analyzed
// function forks, and reports the outcome back via BubbleStatus.
type State struct {
	kind   Kind
	solver *smt.Solver
	root   *Node
	cur    *Node
	path   []*Node // root..cur, in descent order, for BubbleStatus to walk back

	deadline  time.Time
	maxForks  int
	forkCount int

	frameworkDepth int // >0 while running engine-internal code (spec §4.5 framework())
}

// New returns a Tracking state rooted at root, owning solver, for one path
// attempt bounded by perPathTimeout and maxForks.
func New(solver *smt.Solver, root *Node, perPathTimeout time.Duration, maxForks int) *State {
	return &State{
		kind:     Tracking,
		solver:   solver,
		root:     root,
		cur:      root,
		path:     []*Node{root},
		deadline: time.Now().Add(perPathTimeout),
		maxForks: maxForks,
	}
}

// NewReplay returns a Replay state that deterministically consumes bits
// from root instead of querying the solver for branch feasibility.
func NewReplay(solver *smt.Solver, root *Node) *State {
	return &State{kind: Replay, solver: solver, root: root, cur: root, path: []*Node{root}}
}

// Solver exposes the path's solver for the Proxy Factory and the Symbolic
// Value Taxonomy to declare constants and assert directly.
func (s *State) Solver() *smt.Solver { return s.solver }

// InFramework reports whether the engine is currently running its own
// internal code (contracts/short-circuit must not apply, spec §4.5/§9).
func (s *State) InFramework() bool { return s.frameworkDepth > 0 }

// Framework marks a scope of engine-internal code. The returned func must
// be deferred to restore the previous depth on every exit path, including
// panics (spec §5's "scoped resources... LIFO... restored even when the
// scope exits by an engine-internal exception").
func (s *State) Framework() func() {
	s.frameworkDepth++
	return func() { s.frameworkDepth-- }
}

// Checkpoint snapshots the solver's assertion stack; the returned func pops
// back to this point and must be deferred (spec §4.5 checkpoint()).
func (s *State) Checkpoint() func() {
	s.solver.Push()
	return func() { s.solver.Pop() }
}

func (s *State) checkDeadline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("statespace: %w", ErrUnexploredPath)
	}
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		return ErrUnexploredPath
	}
	if s.maxForks > 0 && s.forkCount >= s.maxForks {
		return ErrUnexploredPath
	}
	return nil
}

// ChoosePossible asserts expr as the candidate decision, asks the solver
// whether both true and false are still feasible, forks the tree if so
// (installing Leaf children the first time this node is visited), and
// commits to one branch by asserting it permanently into the solver for
// the remainder of this path. favorTrue overrides the default
// false-preferred bias (used by fork_with_confirm_or_else, spec §4.5).
func (s *State) ChoosePossible(ctx context.Context, expr smt.Expr, favorTrue bool) (bool, error) {
	if err := s.checkDeadline(ctx); err != nil {
		return false, err
	}
	s.forkCount++

	if s.kind == Replay {
		bit, ok := s.cur.nextScriptedBit()
		if !ok {
			return false, fmt.Errorf("statespace: replay script exhausted")
		}
		s.commit(expr, bit)
		return bit, nil
	}

	s.cur.mu.Lock()
	if s.cur.Kind == KindLeaf {
		s.cur.Kind = KindDecision
		s.cur.FalseChild = &Node{Kind: KindLeaf, Status: Unknown}
		s.cur.TrueChild = &Node{Kind: KindLeaf, Status: Unknown}
	}
	falseChild, trueChild := s.cur.FalseChild, s.cur.TrueChild
	s.cur.mu.Unlock()

	falseFeasible, trueFeasible := true, true
	if falseChild.Exhausted {
		falseFeasible = false
	}
	if trueChild.Exhausted {
		trueFeasible = false
	}

	if falseFeasible {
		res, _, err := s.solver.CheckSatAssuming(ctx, smt.Not(expr))
		if err != nil {
			return false, err
		}
		falseFeasible = res == smt.Sat
	}
	if trueFeasible {
		res, _, err := s.solver.CheckSatAssuming(ctx, expr)
		if err != nil {
			return false, err
		}
		trueFeasible = res == smt.Sat
	}

	// A branch the solver reports unsatisfiable is permanently dead: no
	// State will ever commit to it to mark it Exhausted the usual way, so
	// mark it here or the tree could never be reported exhausted.
	if !falseFeasible {
		falseChild.mu.Lock()
		falseChild.Exhausted = true
		falseChild.mu.Unlock()
	}
	if !trueFeasible {
		trueChild.mu.Lock()
		trueChild.Exhausted = true
		trueChild.mu.Unlock()
	}

	var choice bool
	switch {
	case falseFeasible && trueFeasible:
		choice = favorTrue
	case trueFeasible:
		choice = true
	case falseFeasible:
		choice = false
	default:
		return false, fmt.Errorf("statespace: %w: neither branch is satisfiable", ErrUnexploredPath)
	}

	s.commit(expr, choice)
	return choice, nil
}

func (s *State) commit(expr smt.Expr, choice bool) {
	if choice {
		s.solver.Assert(expr)
	} else {
		s.solver.Assert(smt.Not(expr))
	}
	if s.kind == Tracking {
		s.cur.mu.Lock()
		next := s.cur.FalseChild
		if choice {
			next = s.cur.TrueChild
		}
		s.cur.mu.Unlock()
		s.cur = next
	}
	s.path = append(s.path, s.cur)
}

// SmtFork is the unguided fork: with no expression to steer by, it forks on
// a freshly declared boolean constant (spec §4.5's smt_fork(expr=None)).
func (s *State) SmtFork(ctx context.Context, expr *smt.Expr) (bool, error) {
	if expr != nil {
		return s.ChoosePossible(ctx, *expr, false)
	}
	fresh := s.solver.DeclareConst(fmt.Sprintf("fork$%d", s.forkCount), smt.Bool())
	return s.ChoosePossible(ctx, fresh, false)
}

// ForkWithConfirmOrElse models a probability-weighted decision: p is the
// bias toward true (spec §4.7's short-circuit "run original" bias).
func (s *State) ForkWithConfirmOrElse(ctx context.Context, p float64) (bool, error) {
	fresh := s.solver.DeclareConst(fmt.Sprintf("bias$%d", s.forkCount), smt.Bool())
	return s.ChoosePossible(ctx, fresh, p >= 0.5)
}

// FindModelValue materializes var's value under the current assignment and
// asserts equality so later queries in this path stay consistent with it
// (spec §4.5 find_model_value).
func (s *State) FindModelValue(ctx context.Context, v smt.Expr) (any, error) {
	res, m, err := s.solver.CheckSat(ctx)
	if err != nil {
		return nil, err
	}
	if res != smt.Sat {
		return nil, fmt.Errorf("statespace: %w: no model available", ErrUnexploredPath)
	}
	val, err := m.Eval(v)
	if err != nil {
		return nil, err
	}
	s.solver.Assert(smt.Eq(v, smt.ConstOf(v.Sort, val)))
	return val, nil
}

// BubbleStatus attaches leafStatus to the current leaf, then walks the
// recorded path back to the root combining sibling statuses per spec
// §4.5's rule, returning the root's resulting status and whether the root
// subtree is now exhausted.
func (s *State) BubbleStatus(leafStatus Status) (Status, bool) {
	s.cur.mu.Lock()
	s.cur.Status = leafStatus
	if s.cur.Kind != KindDecision {
		s.cur.Exhausted = leafStatus != Unknown
	}
	s.cur.mu.Unlock()

	for i := len(s.path) - 2; i >= 0; i-- {
		n := s.path[i]
		n.mu.Lock()
		if n.Kind == KindDecision {
			n.Status, n.Exhausted = combine(n.FalseChild, n.TrueChild)
		}
		status, exhausted := n.Status, n.Exhausted
		n.mu.Unlock()
		_ = status
		_ = exhausted
	}

	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	return s.root.Status, s.root.Exhausted
}

// combine implements spec §4.5's bubble rule over a Decision node's two
// children. A child that is Exhausted while still Unknown was never
// actually visited by any path (the solver proved it infeasible the moment
// it was forked); it has nothing to contribute and defers entirely to its
// sibling rather than dragging the combined status down to Unknown.
func combine(a, b *Node) (Status, bool) {
	a.mu.Lock()
	aStatus, aExhausted := a.Status, a.Exhausted
	a.mu.Unlock()
	b.mu.Lock()
	bStatus, bExhausted := b.Status, b.Exhausted
	b.mu.Unlock()

	exhausted := aExhausted && bExhausted
	aVacuous := aExhausted && aStatus == Unknown
	bVacuous := bExhausted && bStatus == Unknown

	switch {
	case aStatus == Refuted || bStatus == Refuted:
		return Refuted, exhausted
	case aVacuous && bVacuous:
		return Unknown, exhausted
	case aVacuous:
		return bStatus, exhausted
	case bVacuous:
		return aStatus, exhausted
	case aStatus == Confirmed && bStatus == Confirmed:
		return Confirmed, exhausted
	default:
		return Unknown, exhausted
	}
}

// ScriptedBits records every committed branch choice in descent order, for
// capturing a tracking-mode path's execution log so it can be replayed
// later (spec §6's replay entry point).
func (s *State) ScriptedBits() []bool {
	bits := make([]bool, 0, len(s.path)-1)
	for i := 1; i < len(s.path); i++ {
		prev := s.path[i-1]
		prev.mu.Lock()
		bits = append(bits, prev.TrueChild == s.path[i])
		prev.mu.Unlock()
	}
	return bits
}
