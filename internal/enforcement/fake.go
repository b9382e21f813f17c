package enforcement

import (
	"github.com/crosshair-go/symex/internal/proxyfactory"
	"github.com/crosshair-go/symex/internal/shortcircuit"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// NewFake wires a Controller from its real collaborators using sensible
// defaults (the default builtin table, a fresh Short-Circuit Context):
// there is no real "target globals" concept to patch in Go, so this is the
// closest thing to the out-of-scope enforcement layer's construction path.
// Only callattempt's tests call it.
func NewFake(st *statespace.State, repo *typerepo.Repo, factory *proxyfactory.Factory) *Controller {
	sc := shortcircuit.New(st, factory)
	return New(st, repo, NewDefaultTable(), sc)
}
