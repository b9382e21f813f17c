package symbolic

import (
	"context"
	"testing"
	"time"

	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/smt"
)

func TestAddPromotesBoolAndInt(t *testing.T) {
	s := smt.New(200 * time.Millisecond)
	b := NewBool(heap.Snapshot(0), s.DeclareConst("b", smt.Bool()))
	i := NewInt(heap.Snapshot(0), s.DeclareConst("i", smt.Int()))

	sum, err := Add(b, i)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.VKind() != KInt {
		t.Fatalf("expected bool+int to promote to int, got %v", sum.VKind())
	}
}

func TestAddPromotesIntAndFloat(t *testing.T) {
	s := smt.New(200 * time.Millisecond)
	i := NewInt(heap.Snapshot(0), s.DeclareConst("i", smt.Int()))
	f := NewFloat(heap.Snapshot(0), s.DeclareConst("f", smt.Real()))

	sum, err := Add(i, f)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.VKind() != KFloat {
		t.Fatalf("expected int+float to promote to float, got %v", sum.VKind())
	}
}

func TestFloorDivMatchesSignRule(t *testing.T) {
	x := NewInt(heap.Snapshot(0), smt.IntConst(-7))
	y := NewInt(heap.Snapshot(0), smt.IntConst(2))

	q, err := FloorDiv(x, y)
	if err != nil {
		t.Fatalf("FloorDiv: %v", err)
	}
	qi := q.(Int)

	s := smt.New(200 * time.Millisecond)
	v, err := s.EvalInModel(mustModel(t, s), qi.Expr())
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.(int64) != -4 {
		t.Fatalf("expected -7 // 2 == -4, got %v", v)
	}
}

func mustModel(t *testing.T, s *smt.Solver) *smt.Model {
	t.Helper()
	_, m, err := s.CheckSat(context.Background())
	if err != nil {
		t.Fatalf("CheckSat: %v", err)
	}
	return m
}

func TestEqualRejectsIncomparableVariants(t *testing.T) {
	s := smt.New(200 * time.Millisecond)
	i := NewInt(heap.Snapshot(0), s.DeclareConst("i", smt.Int()))
	str := NewStr(heap.Snapshot(0), s.DeclareConst("s", smt.Str()))

	if _, err := Equal(i, str); err == nil {
		t.Fatalf("expected Equal to reject Int vs Str")
	}
}
