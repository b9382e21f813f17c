package engine

import (
	"github.com/crosshair-go/symex/internal/excfilter"
	"github.com/crosshair-go/symex/internal/statespace"
)

// These re-export the canonical sentinel values rather than declaring
// parallel ones: the Exception Filter declares
// ErrIgnoreAttempt/ErrInternal/ErrSolverException, and the State Space
// declares ErrUnexploredPath. Callers
// here get the same identity, so errors.Is(err, engine.ErrIgnoreAttempt)
// and errors.Is(err, excfilter.ErrIgnoreAttempt) agree.
var (
	ErrUnexploredPath  = statespace.ErrUnexploredPath
	ErrIgnoreAttempt   = excfilter.ErrIgnoreAttempt
	ErrInternal        = excfilter.ErrInternal
	ErrSolverException = excfilter.ErrSolverException
)
