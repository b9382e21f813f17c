package enforcement

import (
	"context"
	"fmt"
	"sync"

	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/symbolic"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// Builtin is one contracted global function's symbolic-aware
// implementation (spec §9's "Contracted builtins").
type Builtin func(ctx context.Context, st *statespace.State, repo *typerepo.Repo, args []symbolic.Value) (symbolic.Value, error)

// BuiltinTable is the scoped dispatch table spec §9 calls for: a per-run
// installation rather than monkey-patching the language's real builtins.
type BuiltinTable struct {
	mu       sync.Mutex
	builtins map[string]Builtin
}

// NewBuiltinTable returns an empty table.
func NewBuiltinTable() *BuiltinTable {
	return &BuiltinTable{builtins: map[string]Builtin{}}
}

// Register installs (or replaces) the implementation of name.
func (t *BuiltinTable) Register(name string, b Builtin) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.builtins[name] = b
}

// Call dispatches name if registered; the bool result reports whether a
// contracted implementation exists, so callers can fall back to running
// the real builtin when enforcement doesn't cover it.
func (t *BuiltinTable) Call(ctx context.Context, st *statespace.State, repo *typerepo.Repo, name string, args []symbolic.Value) (symbolic.Value, bool, error) {
	t.mu.Lock()
	b, ok := t.builtins[name]
	t.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	v, err := b(ctx, st, repo, args)
	return v, true, err
}

// NewDefaultTable returns a table pre-populated with the contracted
// builtins the core itself relies on (currently just isinstance, which is
// the one spec.md calls out by name in §9).
func NewDefaultTable() *BuiltinTable {
	t := NewBuiltinTable()
	t.Register("isinstance", Isinstance)
	return t
}

// Isinstance implements isinstance(o, T) in a symbolic-aware way: T is
// expected to be a realized symbolic.TypeVal naming the target class
// (spec.md models a class literal as a type-carrying value rather than a
// distinct builtin argument kind). A LazyObject's isinstance check forks
// on its unforced typeval and tightens the object's cap in place on a True
// branch (spec §8's type cap tightening); anything already concrete is
// answered directly from the Type Repository with no fork.
func Isinstance(ctx context.Context, st *statespace.State, repo *typerepo.Repo, args []symbolic.Value) (symbolic.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("enforcement: isinstance expects 2 arguments, got %d", len(args))
	}
	target, ok := args[1].(symbolic.TypeVal)
	if !ok {
		return nil, fmt.Errorf("enforcement: isinstance's second argument must be a type, got %T", args[1])
	}
	targetType := target.Cap()

	if lazy, ok := args[0].(*symbolic.LazyObject); ok {
		yes, err := lazy.IsInstance(ctx, st, repo, targetType)
		if err != nil {
			return nil, err
		}
		return symbolic.NewBool(lazy.Snapshot(), smt.BoolConst(yes)), nil
	}

	yes := repo.Issubclass(args[0].NominalType().Tag(), targetType.Tag())
	return symbolic.NewBool(args[0].Snapshot(), smt.BoolConst(yes)), nil
}
