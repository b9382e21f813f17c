package excfilter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/crosshair-go/symex/internal/statespace"
)

func TestClassifyUnexploredPathIsUnknown(t *testing.T) {
	f := New(nil)
	outcome, msg, err := f.Classify(fmt.Errorf("wrap: %w", statespace.ErrUnexploredPath))
	if outcome != OutcomeUnknown {
		t.Fatalf("expected OutcomeUnknown, got %v", outcome)
	}
	if msg != nil || err != nil {
		t.Fatalf("expected no message/error, got msg=%v err=%v", msg, err)
	}
}

func TestClassifyIgnoreAttempt(t *testing.T) {
	f := New(nil)
	outcome, _, _ := f.Classify(ErrIgnoreAttempt)
	if outcome != OutcomeIgnore {
		t.Fatalf("expected OutcomeIgnore, got %v", outcome)
	}
}

func TestClassifyNestedPostFailureIsIgnored(t *testing.T) {
	f := New(nil)
	outcome, _, _ := f.Classify(&NestedPostFailure{Cause: errors.New("postcondition failed")})
	if outcome != OutcomeIgnore {
		t.Fatalf("expected OutcomeIgnore, got %v", outcome)
	}
}

func TestClassifyInternalAndSolverErrorsPropagate(t *testing.T) {
	f := New(nil)
	for _, sentinel := range []error{ErrInternal, ErrSolverException} {
		outcome, msg, err := f.Classify(sentinel)
		if outcome != OutcomePropagate {
			t.Fatalf("expected OutcomePropagate for %v, got %v", sentinel, outcome)
		}
		if msg != nil {
			t.Fatalf("expected no message for a propagated error")
		}
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected the returned error to wrap %v, got %v", sentinel, err)
		}
	}
}

func TestClassifyDeclaredExceptionIsConfirmed(t *testing.T) {
	f := New([]string{"ValueError"})
	outcome, msg, err := f.Classify(&UserException{TypeName: "ValueError", Cause: errors.New("bad input")})
	if outcome != OutcomeConfirmed {
		t.Fatalf("expected OutcomeConfirmed, got %v", outcome)
	}
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if msg == nil || msg.Kind != "exec_err" {
		t.Fatalf("expected an exec_err message, got %v", msg)
	}
}

func TestClassifyNotImplementedErrorIsAlwaysConfirmed(t *testing.T) {
	f := New(nil)
	outcome, _, _ := f.Classify(&UserException{TypeName: "NotImplementedError", Cause: errors.New("todo")})
	if outcome != OutcomeConfirmed {
		t.Fatalf("expected OutcomeConfirmed, got %v", outcome)
	}
}

func TestClassifyUndeclaredExceptionIsRefuted(t *testing.T) {
	f := New([]string{"ValueError"})
	outcome, msg, err := f.Classify(&UserException{TypeName: "KeyError", Cause: errors.New("missing key"), Stack: "goroutine 1..."})
	if outcome != OutcomeRefuted {
		t.Fatalf("expected OutcomeRefuted, got %v", outcome)
	}
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if msg == nil || msg.Traceback != "goroutine 1..." {
		t.Fatalf("expected the traceback to be attached, got %v", msg)
	}
}

func TestClassifyTypeErrorMentioningSymbolicTypeIsReclassifiedInternal(t *testing.T) {
	f := New(nil)
	outcome, msg, err := f.Classify(&UserException{
		TypeName: "TypeError",
		Cause:    errors.New("unsupported operand for symbolic.Seq"),
	})
	if outcome != OutcomePropagate {
		t.Fatalf("expected OutcomePropagate, got %v", outcome)
	}
	if msg != nil {
		t.Fatalf("expected no message, got %v", msg)
	}
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected the returned error to wrap ErrInternal, got %v", err)
	}
}

func TestClassifyUnrecognizedErrorIsRefuted(t *testing.T) {
	f := New(nil)
	outcome, msg, err := f.Classify(errors.New("some opaque failure"))
	if outcome != OutcomeRefuted {
		t.Fatalf("expected OutcomeRefuted, got %v", outcome)
	}
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if msg == nil {
		t.Fatalf("expected a message")
	}
}
