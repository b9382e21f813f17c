// Package excfilter is the Exception Filter (spec §4.8): a scoped handler
// classifying whatever unwound the target function's body during a Call
// Attempt.
package excfilter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/crosshair-go/symex/internal/diagnostics"
	"github.com/crosshair-go/symex/internal/statespace"
)

// Sentinel engine-internal signals (spec §4.8's first bullet: "internal
// engine signals... propagate"). internal/engine/errors.go re-exports
// these so callers can equally write errors.Is(err, engine.ErrIgnoreAttempt)
// — they are the same underlying values, not a parallel set, since the
// exception filter is the one place that actually raises them.
var (
	ErrIgnoreAttempt   = errors.New("excfilter: ignore this attempt")
	ErrInternal        = errors.New("excfilter: internal engine error")
	ErrSolverException = errors.New("excfilter: solver exception")
)

// UserException is a captured exception from the analyzed body: the engine
// has no Python-style exception hierarchy to walk, so a raised exception
// is reified as this Go type carrying the name it would have had.
type UserException struct {
	TypeName string
	Cause    error
	Stack    string
}

func (e *UserException) Error() string { return fmt.Sprintf("%s: %v", e.TypeName, e.Cause) }
func (e *UserException) Unwrap() error { return e.Cause }

// NestedPostFailure wraps a postcondition failure that propagated up from
// a call the Short-Circuit Context declined to intercept: the nested
// call's own analysis will surface it, so spec §4.8 says to just ignore
// this path rather than re-report it here.
type NestedPostFailure struct{ Cause error }

func (e *NestedPostFailure) Error() string {
	return "excfilter: nested postcondition failure: " + e.Cause.Error()
}
func (e *NestedPostFailure) Unwrap() error { return e.Cause }

// Outcome is what Classify decided should happen to the current path.
type Outcome uint8

const (
	// OutcomePropagate means err is a genuine engine bug (internal error
	// or solver exception): not classifiable, re-raise to the caller.
	OutcomePropagate Outcome = iota
	// OutcomeUnknown means the per-path deadline or fork-depth guard was
	// hit; bubble Unknown for this subtree.
	OutcomeUnknown
	// OutcomeIgnore means skip this attempt with no status at all.
	OutcomeIgnore
	OutcomeConfirmed
	OutcomeRefuted
)

// Filter classifies exceptions against one function's declared raises set.
type Filter struct {
	raises map[string]bool
}

// New returns a Filter for a function declaring the given raises set.
// NotImplementedError is always allowed, per spec §4.8.
func New(raises []string) *Filter {
	set := make(map[string]bool, len(raises)+1)
	set["NotImplementedError"] = true
	for _, r := range raises {
		set[r] = true
	}
	return &Filter{raises: set}
}

// symbolicTypeNames are the Symbolic Value Taxonomy's Go type names; a
// TypeError mentioning one of them is a sign the analyzed code did
// something the engine's value model doesn't support, not a genuine user
// exception (spec §4.8's last bullet).
var symbolicTypeNames = []string{
	"symbolic.Bool", "symbolic.Int", "symbolic.Float", "symbolic.Str",
	"symbolic.Seq", "symbolic.Tuple", "symbolic.Dict", "symbolic.Set",
	"symbolic.FrozenSet", "symbolic.Callable", "symbolic.TypeVal",
	"symbolic.LazyObject", "symbolic.Proxy",
}

// Classify implements spec §4.8's scoped handler. It returns a message
// only for OutcomeConfirmed/OutcomeRefuted; for OutcomePropagate it
// returns the (possibly rewrapped) error the caller should re-raise.
func (f *Filter) Classify(err error) (Outcome, *diagnostics.Message, error) {
	switch {
	case errors.Is(err, statespace.ErrUnexploredPath):
		return OutcomeUnknown, nil, nil
	case errors.Is(err, ErrInternal), errors.Is(err, ErrSolverException):
		return OutcomePropagate, nil, err
	case errors.Is(err, ErrIgnoreAttempt):
		return OutcomeIgnore, nil, nil
	}

	var nested *NestedPostFailure
	if errors.As(err, &nested) {
		return OutcomeIgnore, nil, nil
	}

	var uexc *UserException
	if errors.As(err, &uexc) {
		if f.isUnsupportedTypeError(uexc) {
			return OutcomePropagate, nil, fmt.Errorf("%w: %s", ErrInternal, uexc.Error())
		}
		if f.raises[uexc.TypeName] {
			msg := diagnostics.New(diagnostics.ExecErr, fmt.Sprintf("raised declared exception %s", uexc.TypeName))
			return OutcomeConfirmed, msg, nil
		}
		msg := diagnostics.New(diagnostics.ExecErr, uexc.Error()).WithTraceback(uexc.Stack)
		return OutcomeRefuted, msg, nil
	}

	return OutcomeRefuted, diagnostics.New(diagnostics.ExecErr, err.Error()), nil
}

func (f *Filter) isUnsupportedTypeError(e *UserException) bool {
	if e.TypeName != "TypeError" {
		return false
	}
	for _, name := range symbolicTypeNames {
		if strings.Contains(e.Error(), name) {
			return true
		}
	}
	return false
}
