package registry

import (
	"context"
	"testing"

	"github.com/crosshair-go/symex/internal/callattempt"
	"github.com/crosshair-go/symex/internal/conditions"
	"github.com/crosshair-go/symex/internal/enforcement"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/symbolic"
)

func TestRegistryRoundTripsFunctionConditions(t *testing.T) {
	r := New()
	fc := conditions.FnConditions{Sig: conditions.Signature{Params: []conditions.Param{{Name: "x"}}}}
	body := func(ctx context.Context, st *statespace.State, ctrl *enforcement.Controller, args []symbolic.Value) (symbolic.Value, error) {
		return args[0], nil
	}
	r.RegisterFunction("f", fc, body)

	got, err := r.FnConditions("f")
	if err != nil {
		t.Fatalf("FnConditions: %v", err)
	}
	if len(got.Sig.Params) != 1 || got.Sig.Params[0].Name != "x" {
		t.Fatalf("expected the registered signature back, got %+v", got.Sig)
	}

	if _, err := r.FnConditions("missing"); err == nil {
		t.Fatalf("expected an error for an unregistered name")
	}
	if _, err := r.ClassConditions("f"); err == nil {
		t.Fatalf("expected ClassConditions to reject a function target")
	}
}

func TestRegistryRoundTripsClassConditions(t *testing.T) {
	r := New()
	cc := conditions.ClassConditions{Methods: map[string]conditions.FnConditions{"M": {}}}
	r.RegisterClass("C", cc, map[string]callattempt.Body{"M": nil})

	got, err := r.ClassConditions("C")
	if err != nil {
		t.Fatalf("ClassConditions: %v", err)
	}
	if _, ok := got.Methods["M"]; !ok {
		t.Fatalf("expected method M in %+v", got.Methods)
	}
	if _, err := r.FnConditions("C"); err == nil {
		t.Fatalf("expected FnConditions to reject a class target")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r := New()
	r.RegisterFunction("b", conditions.FnConditions{}, nil)
	r.RegisterFunction("a", conditions.FnConditions{}, nil)
	names := r.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("expected sorted [a b], got %v", names)
	}
}
