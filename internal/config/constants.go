// Package config holds tunable constants and runtime mode flags shared
// across the engine.
package config

import "time"

// IsTestMode suppresses diagnostics.Logger's progress output so test runs
// stay quiet. Set once at process startup.
var IsTestMode = false

// Search and solver budgets.
const (
	// MaxForkDepth bounds how many binary decisions a single path may
	// record before the state space refuses to fork further: the next
	// fork attempt returns ErrUnexploredPath, and the path counts as
	// Unknown.
	MaxForkDepth = 4096

	// DefaultPerPathTimeout bounds a single Call Attempt, including all
	// solver queries it issues.
	DefaultPerPathTimeout = 1500 * time.Millisecond

	// DefaultPerConditionTimeout bounds the Calltree Analyzer loop for
	// one target function.
	DefaultPerConditionTimeout = 10 * time.Second

	// DefaultSolverQueryTimeout bounds a single check_sat call.
	DefaultSolverQueryTimeout = 500 * time.Millisecond

	// MaxHeapSnapshots is a heap generation budget that no code reads:
	// the heap keeps every generation and never discards one.
	MaxHeapSnapshots = 1 << 16
)

// ShortCircuitRunOriginalBias is the probability, in fork_with_confirm_or_else
// terms, that the short-circuit context chooses to run the original nested
// call instead of returning a free symbolic value. Aggressive but not
// absolute: a single bad short-circuit can wreck a path, so running the
// real body stays heavily favored.
const ShortCircuitRunOriginalBias = 0.95
