package symbolic

import (
	"context"
	"testing"
	"time"

	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/statespace"
)

func newDictState() (*statespace.State, Dict) {
	solver := smt.New(200 * time.Millisecond)
	arr := solver.DeclareConst("d", smt.Array(smt.Str(), smt.Optional(smt.Int())))
	length := NewInt(heap.Snapshot(0), solver.DeclareConst("dlen", smt.Int()))
	solver.Assert(smt.Eq(length.Expr(), smt.IntConst(0)))
	st := statespace.New(solver, statespace.NewRoot(), time.Second, 256)
	return st, NewDict(heap.Snapshot(0), KStr, KInt, arr, length)
}

func TestDictSetThenGetReturnsSameValue(t *testing.T) {
	st, d := newDictState()
	ctx := context.Background()
	k := NewStr(heap.Snapshot(0), smt.StrConst("k"))
	v := NewInt(heap.Snapshot(0), smt.IntConst(42))

	d2, err := d.Set(ctx, st, k, v)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, present, err := d2.Get(k)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	res, m, err := st.Solver().CheckSat(ctx)
	if err != nil || res != smt.Sat {
		t.Fatalf("expected sat, got %v err %v", res, err)
	}
	pv, _ := m.Eval(present.Expr())
	if pv.(bool) != true {
		t.Fatalf("expected key to be present after Set")
	}
	gv, _ := m.Eval(got.(Int).Expr())
	if gv.(int64) != 42 {
		t.Fatalf("expected d[k] == 42, got %v", gv)
	}
}

func TestDictSetIncrementsLengthOnlyWhenMissing(t *testing.T) {
	st, d := newDictState()
	ctx := context.Background()
	k := NewStr(heap.Snapshot(0), smt.StrConst("k"))
	v1 := NewInt(heap.Snapshot(0), smt.IntConst(1))
	v2 := NewInt(heap.Snapshot(0), smt.IntConst(2))

	d1, err := d.Set(ctx, st, k, v1)
	if err != nil {
		t.Fatalf("Set 1: %v", err)
	}
	d2, err := d1.Set(ctx, st, k, v2)
	if err != nil {
		t.Fatalf("Set 2: %v", err)
	}

	res, m, err := st.Solver().CheckSat(ctx)
	if err != nil || res != smt.Sat {
		t.Fatalf("expected sat, got %v err %v", res, err)
	}
	lv, _ := m.Eval(d2.Len().Expr())
	if lv.(int64) != 1 {
		t.Fatalf("expected length 1 after overwriting the same key, got %v", lv)
	}
}

func TestDictIteratorYieldsSetKeyThenStops(t *testing.T) {
	st, d := newDictState()
	ctx := context.Background()
	k := NewStr(heap.Snapshot(0), smt.StrConst("k"))
	v := NewInt(heap.Snapshot(0), smt.IntConst(42))

	d1, err := d.Set(ctx, st, k, v)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	it := d1.Iter()
	key, ok, err := it.Next(ctx, st)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !ok {
		t.Fatalf("expected a key on the first Next")
	}

	res, m, err := st.Solver().CheckSat(ctx)
	if err != nil || res != smt.Sat {
		t.Fatalf("expected sat, got %v err %v", res, err)
	}
	kv, err := m.Eval(key.(Str).Expr())
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if kv.(string) != "k" {
		t.Fatalf("expected the only key to be %q, got %v", "k", kv)
	}

	_, ok, err = it.Next(ctx, st)
	if err != nil {
		t.Fatalf("Next (second): %v", err)
	}
	if ok {
		t.Fatalf("expected iteration to stop after the single key")
	}
}

func newSetState() (*statespace.State, SetVariant) {
	solver := smt.New(200 * time.Millisecond)
	arr := solver.DeclareConst("s", smt.Array(smt.Int(), smt.Bool()))
	length := NewInt(heap.Snapshot(0), solver.DeclareConst("slen", smt.Int()))
	solver.Assert(smt.Eq(length.Expr(), smt.IntConst(0)))
	st := statespace.New(solver, statespace.NewRoot(), time.Second, 256)
	return st, NewSet(heap.Snapshot(0), KInt, arr, length)
}

func TestSetIteratorYieldsAddedElementThenStops(t *testing.T) {
	st, s := newSetState()
	ctx := context.Background()
	elem := NewInt(heap.Snapshot(0), smt.IntConst(7))

	s1, err := s.Add(ctx, st, elem)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	it := s1.Iter()
	v, ok, err := it.Next(ctx, st)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !ok {
		t.Fatalf("expected an element on the first Next")
	}

	res, m, err := st.Solver().CheckSat(ctx)
	if err != nil || res != smt.Sat {
		t.Fatalf("expected sat, got %v err %v", res, err)
	}
	got, err := m.Eval(v.(Int).Expr())
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.(int64) != 7 {
		t.Fatalf("expected the only element to be 7, got %v", got)
	}

	_, ok, err = it.Next(ctx, st)
	if err != nil {
		t.Fatalf("Next (second): %v", err)
	}
	if ok {
		t.Fatalf("expected iteration to stop after the single element")
	}
}

func TestSeqSliceIndexesIntoBaseWithOffset(t *testing.T) {
	solver := smt.New(200 * time.Millisecond)
	arr := solver.DeclareConst("xs", smt.Array(smt.Int(), smt.Int()))
	solver.Assert(smt.Eq(smt.Select(arr, smt.IntConst(2)), smt.IntConst(99)))
	length := NewInt(heap.Snapshot(0), smt.IntConst(5))

	seq := NewSeq(heap.Snapshot(0), KInt, arr, length)
	view := seq.Slice(NewInt(heap.Snapshot(0), smt.IntConst(2)), NewInt(heap.Snapshot(0), smt.IntConst(5)))

	elem, err := view.Index(NewInt(heap.Snapshot(0), smt.IntConst(0)))
	if err != nil {
		t.Fatalf("Index: %v", err)
	}

	res, m, err := solver.CheckSat(context.Background())
	if err != nil || res != smt.Sat {
		t.Fatalf("expected sat, got %v err %v", res, err)
	}
	v, _ := m.Eval(elem.(Int).Expr())
	if v.(int64) != 99 {
		t.Fatalf("expected view[0] == base[2] == 99, got %v", v)
	}
}
