package smt

import (
	"context"
	"testing"
	"time"
)

func TestCheckSatSimpleArithmetic(t *testing.T) {
	s := New(200 * time.Millisecond)
	x := s.DeclareConst("x", Int())
	// x + 1 > x is valid: its negation must be unsat.
	s.Assert(Not(Gt(Add(x, IntConst(1)), x)))

	res, _, err := s.CheckSat(context.Background())
	if err != nil {
		t.Fatalf("CheckSat error: %v", err)
	}
	if res != Unsat {
		t.Fatalf("expected Unsat for the negated tautology, got %v", res)
	}
}

func TestCheckSatFindsCounterexample(t *testing.T) {
	s := New(200 * time.Millisecond)
	x := s.DeclareConst("x", Int())
	// x*x <= x does NOT hold for all ints (e.g. x = -1 or x = 2); the
	// negation of that postcondition should be satisfiable.
	s.Assert(Not(Le(Mul(x, x), x)))

	res, m, err := s.CheckSat(context.Background())
	if err != nil {
		t.Fatalf("CheckSat error: %v", err)
	}
	if res != Sat {
		t.Fatalf("expected Sat counterexample, got %v", res)
	}
	v, err := m.Eval(x)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	xv := v.(int64)
	if xv*xv <= xv {
		t.Fatalf("model value %d does not actually violate x*x <= x", xv)
	}
}

func TestFloorDivSignRule(t *testing.T) {
	cases := []struct{ x, y, want int64 }{
		{7, 2, 3},
		{-7, 2, -4},
		{7, -2, -4},
		{-7, -2, 3},
		{6, 3, 2},
		{-6, 3, -2},
	}
	for _, c := range cases {
		got := floorDiv(c.x, c.y)
		if got != c.want {
			t.Errorf("floorDiv(%d,%d) = %d, want %d", c.x, c.y, got, c.want)
		}
	}
}

func TestZeroDivisionRaisesError(t *testing.T) {
	m := newModel()
	m.Assignment["a"] = int64(1)
	m.Assignment["b"] = int64(0)
	a := Var("a", Int())
	b := Var("b", Int())
	if _, err := eval(FloorDiv(a, b), m); err == nil {
		t.Fatalf("expected division-by-zero error")
	}
}

func TestPushPopScoping(t *testing.T) {
	s := New(200 * time.Millisecond)
	x := s.DeclareConst("x", Int())
	s.Assert(Eq(x, IntConst(5)))

	s.Push()
	s.Assert(Eq(x, IntConst(6))) // contradicts the base scope
	res, _, err := s.CheckSat(context.Background())
	if err != nil {
		t.Fatalf("CheckSat error: %v", err)
	}
	if res != Unsat {
		t.Fatalf("expected Unsat inside the contradictory scope, got %v", res)
	}

	s.Pop()
	res, m, err := s.CheckSat(context.Background())
	if err != nil {
		t.Fatalf("CheckSat error: %v", err)
	}
	if res != Sat {
		t.Fatalf("expected Sat after popping the contradiction, got %v", res)
	}
	v, _ := m.Eval(x)
	if v.(int64) != 5 {
		t.Fatalf("expected x=5 after pop, got %v", v)
	}
}

func TestArrayStoreSelect(t *testing.T) {
	s := New(200 * time.Millisecond)
	arr := s.DeclareConst("arr", Array(Str(), Optional(Int())))
	updated := Store(arr, StrConst("k"), Some(IntConst(42)))

	res, m, err := s.CheckSat(context.Background())
	if err != nil || res != Sat {
		t.Fatalf("expected trivially Sat base case, got %v, err %v", res, err)
	}

	v, err := m.Eval(Select(updated, StrConst("k")))
	if err != nil {
		t.Fatalf("eval select: %v", err)
	}
	ov := v.(optVal)
	if !ov.present || ov.value.(int64) != 42 {
		t.Fatalf("expected present(42), got %#v", ov)
	}

	v2, err := m.Eval(Select(updated, StrConst("missing")))
	if err != nil {
		t.Fatalf("eval select miss: %v", err)
	}
	if v2.(optVal).present {
		t.Fatalf("expected missing for untouched key")
	}
}

func TestIssubclassCallback(t *testing.T) {
	s := New(200 * time.Millisecond)
	s.SetIssubclass(func(sub, sup string) bool {
		return sub == "bool" && sup == "int"
	})
	cond := Issubclass(StrConst("bool"), StrConst("int"))
	res, m, err := s.CheckSat(context.Background())
	if err != nil || res != Sat {
		t.Fatalf("expected Sat, got %v err %v", res, err)
	}
	v, err := m.Eval(cond)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.(bool) != true {
		t.Fatalf("expected issubclass(bool,int) = true")
	}
}
