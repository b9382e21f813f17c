package proxyfactory

import (
	"context"

	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/symbolic"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// Param describes one declared constructor parameter: its name, its
// requested type, and whether the callee's signature marks it mutable
// (consulted by the Short-Circuit Context's forget_contents, spec §4.7).
type Param struct {
	Name    string
	Type    TypeSpec
	Mutable bool
}

// Constructor invokes a class's __init__ with a symbolic argument already
// built for every declared parameter (spec §4.6's "concrete instantiation
// with symbolic members"). It returns an error if construction fails
// (missing annotations, constructor raises), which sends the factory down
// the opaque-proxy fallback path instead.
type Constructor func(ctx context.Context, st *statespace.State, args map[string]symbolic.Value) (*symbolic.Proxy, error)

// Invariant checks one class invariant against a synthesized instance,
// returning a further solver obligation (spec §4.6's "if meet_invariants,
// evaluate each class invariant... on failure, abandon the path").
type Invariant func(ctx context.Context, st *statespace.State, v symbolic.Value) (symbolic.Bool, error)

// ClassDescriptor is everything the factory needs to know about a program
// class: its declared constructor signature plus its invariants. A
// ClassDescriptor with a nil Construct still contributes its Params as
// the opaque proxy's attribute set.
type ClassDescriptor struct {
	Type       typerepo.PType
	Params     []Param
	Construct  Constructor
	Invariants []Invariant
}

// ClassRegistry resolves a program type to its ClassDescriptor, standing
// in for the `go/types` constructor-signature reflection the full engine
// would drive (spec §4.6's "reading the constructor's declared parameter
// types") — out of scope here per spec.md's own "object-proxy convenience
// helpers... not built" non-goal; callers supply a registry populated
// however their embedding chooses to (reflection, a fixture table, ...).
type ClassRegistry interface {
	Lookup(t typerepo.PType) (ClassDescriptor, bool)
}
