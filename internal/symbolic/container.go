package symbolic

import (
	"context"
	"fmt"

	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/typerepo"
)

func elemSort(k VKind) smt.Sort {
	switch k {
	case KBool:
		return smt.Bool()
	case KInt:
		return smt.Int()
	case KFloat:
		return smt.Real()
	case KStr:
		return smt.Str()
	default:
		return smt.HeapRef()
	}
}

// lift wraps a raw evaluated-sort expression back into the Value whose kind
// it names. Only the scalar variants are supported: nesting containers of
// containers is left unsupported in this port, since the spec's
// element protocol dispatch for that case reduces to the same lift with an
// extra HeapRef indirection, which adds no new modeling technique.
func lift(k VKind, snap heap.Snapshot, e smt.Expr) (Value, error) {
	switch k {
	case KBool:
		return NewBool(snap, e), nil
	case KInt:
		return NewInt(snap, e), nil
	case KFloat:
		return NewFloat(snap, e), nil
	case KStr:
		return NewStr(snap, e), nil
	default:
		return nil, fmt.Errorf("symbolic: element kind %v cannot be lifted directly, needs heap indirection", k)
	}
}

// Seq is spec §4.4's "Seq (UniformTuple / List view)": an integer-indexed
// array paired with a length, sliced by carrying (base array, start, stop)
// rather than materializing a new array expression per slice.
type Seq struct {
	base
	elemKind VKind
	arr      smt.Expr
	start    Int
	length   Int
}

func NewSeq(snap heap.Snapshot, elemKind VKind, arr smt.Expr, length Int) Seq {
	return Seq{
		base:     base{nominal: typerepo.PType{Name: "list"}, snapshot: snap},
		elemKind: elemKind,
		arr:      arr,
		start:    NewInt(snap, smt.IntConst(0)),
		length:   length,
	}
}

func (s Seq) VKind() VKind { return KSeq }
func (s Seq) Len() Int     { return s.length }

// Index returns the element at logical index i (already normalized —
// callers should route raw indices through ProcessSliceIndex first).
func (s Seq) Index(i Int) (Value, error) {
	return lift(s.elemKind, s.Snapshot(), smt.Select(s.arr, smt.Add(s.start.expr, i.expr)))
}

// Slice returns the view `s[a:b]` (spec §3: `0 ≤ start ≤ stop ≤
// length(base)` is the caller's responsibility via ProcessSlice).
func (s Seq) Slice(a, b Int) Seq {
	s.start = NewInt(s.Snapshot(), smt.Add(s.start.expr, a.expr))
	s.length = NewInt(s.Snapshot(), smt.Sub(b.expr, a.expr))
	return s
}

// Tuple is spec §3's UniformTuple: identical representation to Seq, kept as
// a distinct variant so nominal typing (tuple vs list) is preserved.
type Tuple struct{ Seq }

func (t Tuple) VKind() VKind { return KTuple }

func NewTuple(snap heap.Snapshot, elemKind VKind, arr smt.Expr, length Int) Tuple {
	s := NewSeq(snap, elemKind, arr, length)
	s.nominal = typerepo.PType{Name: "tuple"}
	return Tuple{Seq: s}
}

// Dict is spec §4.4's Dict: array `K -> Optional<V>` paired with length.
type Dict struct {
	base
	keyKind, valKind VKind
	arr              smt.Expr
	length           Int
}

func NewDict(snap heap.Snapshot, keyKind, valKind VKind, arr smt.Expr, length Int) Dict {
	return Dict{
		base:    base{nominal: typerepo.PType{Name: "dict"}, snapshot: snap},
		keyKind: keyKind, valKind: valKind,
		arr: arr, length: length,
	}
}

func (d Dict) VKind() VKind { return KDict }
func (d Dict) Len() Int     { return d.length }

// Contains reports `k in d`.
func (d Dict) Contains(k Value) (Bool, error) {
	ke, err := asExpr(k)
	if err != nil {
		return Bool{}, err
	}
	return NewBool(d.Snapshot(), smt.IsSome(smt.Select(d.arr, ke))), nil
}

// Get returns the value and a presence flag for `d[k]`/`k in d`.
func (d Dict) Get(k Value) (Value, Bool, error) {
	ke, err := asExpr(k)
	if err != nil {
		return nil, Bool{}, err
	}
	opt := smt.Select(d.arr, ke)
	present := NewBool(d.Snapshot(), smt.IsSome(opt))
	val, err := lift(d.valKind, d.Snapshot(), smt.Unwrap(opt))
	if err != nil {
		return nil, Bool{}, err
	}
	return val, present, nil
}

// Set implements `d[k] = v`, forking on whether k was already present to
// decide whether length increases (spec §4.4: "setting a new key
// increments length by one iff it was missing").
func (d Dict) Set(ctx context.Context, st *statespace.State, k, v Value) (Dict, error) {
	ke, err := asExpr(k)
	if err != nil {
		return Dict{}, err
	}
	ve, err := asExpr(v)
	if err != nil {
		return Dict{}, err
	}
	wasPresent, err := st.ChoosePossible(ctx, smt.IsSome(smt.Select(d.arr, ke)), false)
	if err != nil {
		return Dict{}, err
	}
	newArr := smt.Store(d.arr, ke, smt.Some(ve))
	newLen := d.length
	if !wasPresent {
		newLen = NewInt(d.Snapshot(), smt.Add(d.length.expr, smt.IntConst(1)))
	}
	return NewDict(d.Snapshot(), d.keyKind, d.valKind, newArr, newLen), nil
}

// Delete implements `del d[k]`, decrementing length (spec §4.4).
func (d Dict) Delete(ctx context.Context, st *statespace.State, k Value) (Dict, error) {
	ke, err := asExpr(k)
	if err != nil {
		return Dict{}, err
	}
	wasPresent, err := st.ChoosePossible(ctx, smt.IsSome(smt.Select(d.arr, ke)), false)
	if err != nil {
		return Dict{}, err
	}
	newArr := smt.Store(d.arr, ke, smt.NoneOf(elemSort(d.valKind)))
	newLen := d.length
	if wasPresent {
		newLen = NewInt(d.Snapshot(), smt.Sub(d.length.expr, smt.IntConst(1)))
	}
	return NewDict(d.Snapshot(), d.keyKind, d.valKind, newArr, newLen), nil
}

// iterSeq gives every iterator-internal decomposition variable (across every
// Dict and Set iterated anywhere) a distinct name, the same "$n" suffixing
// convention ProxyFactory.fresh and State's fork$/bias$ names use.
var iterSeq int

func nextIterName(prefix string) string {
	iterSeq++
	return fmt.Sprintf("%s$%d", prefix, iterSeq)
}

// DictIterator implements spec §4.4's Dict __iter__: each Next call picks a
// fresh candidate key k, forces the branch where the backing array already
// holds something at k, yields k, and continues with k blanked out of the
// array so a later Next can't pick it again. count == 0 decides termination
// the same way Dict.Len already forks elsewhere. If count says a key
// remains but no key the solver can find is actually present, the two
// assertions are mutually inconsistent on this path and Next reports
// statespace.ErrUnexploredPath rather than a false key or a bogus stop.
type DictIterator struct {
	keyKind, valKind VKind
	arr              smt.Expr
	count            Int
	snap             heap.Snapshot
}

// Iter starts iteration over d's keys.
func (d Dict) Iter() *DictIterator {
	return &DictIterator{keyKind: d.keyKind, valKind: d.valKind, arr: d.arr, count: d.length, snap: d.Snapshot()}
}

// Next reports whether another key remains and, if so, that key.
func (it *DictIterator) Next(ctx context.Context, st *statespace.State) (Value, bool, error) {
	done, err := st.ChoosePossible(ctx, smt.Eq(it.count.expr, smt.IntConst(0)), false)
	if err != nil {
		return nil, false, err
	}
	if done {
		return nil, false, nil
	}

	keySort := elemSort(it.keyKind)
	k := st.Solver().DeclareConst(nextIterName("dictiter")+".k", keySort)

	present, err := st.ChoosePossible(ctx, smt.IsSome(smt.Select(it.arr, k)), true)
	if err != nil {
		return nil, false, err
	}
	if !present {
		return nil, false, fmt.Errorf("symbolic: dict iterator: %w", statespace.ErrUnexploredPath)
	}

	key, err := lift(it.keyKind, it.snap, k)
	if err != nil {
		return nil, false, err
	}

	it.arr = smt.Store(it.arr, k, smt.NoneOf(elemSort(it.valKind)))
	it.count = NewInt(it.snap, smt.Sub(it.count.expr, smt.IntConst(1)))

	return key, true, nil
}

// SetVariant is spec §4.4's Set: array `K -> Bool` with length.
type SetVariant struct {
	base
	elemKind VKind
	arr      smt.Expr
	length   Int
	frozen   bool
}

func NewSet(snap heap.Snapshot, elemKind VKind, arr smt.Expr, length Int) SetVariant {
	return SetVariant{
		base:     base{nominal: typerepo.PType{Name: "set"}, snapshot: snap},
		elemKind: elemKind, arr: arr, length: length,
	}
}

func NewFrozenSet(snap heap.Snapshot, elemKind VKind, arr smt.Expr, length Int) SetVariant {
	s := NewSet(snap, elemKind, arr, length)
	s.nominal = typerepo.PType{Name: "frozenset"}
	s.frozen = true
	return s
}

func (s SetVariant) VKind() VKind {
	if s.frozen {
		return KFrozenSet
	}
	return KSet
}

func (s SetVariant) Len() Int { return s.length }

func (s SetVariant) Contains(v Value) (Bool, error) {
	ve, err := asExpr(v)
	if err != nil {
		return Bool{}, err
	}
	return NewBool(s.Snapshot(), smt.Select(s.arr, ve)), nil
}

// Add implements set insertion, forking on prior membership the same way
// Dict.Set does.
func (s SetVariant) Add(ctx context.Context, st *statespace.State, v Value) (SetVariant, error) {
	if s.frozen {
		return SetVariant{}, fmt.Errorf("symbolic: frozenset is immutable")
	}
	ve, err := asExpr(v)
	if err != nil {
		return SetVariant{}, err
	}
	alreadyIn, err := st.ChoosePossible(ctx, smt.Select(s.arr, ve), false)
	if err != nil {
		return SetVariant{}, err
	}
	newArr := smt.Store(s.arr, ve, smt.BoolConst(true))
	newLen := s.length
	if !alreadyIn {
		newLen = NewInt(s.Snapshot(), smt.Add(s.length.expr, smt.IntConst(1)))
	}
	return NewSet(s.Snapshot(), s.elemKind, newArr, newLen), nil
}

// Remove implements set deletion.
func (s SetVariant) Remove(ctx context.Context, st *statespace.State, v Value) (SetVariant, error) {
	if s.frozen {
		return SetVariant{}, fmt.Errorf("symbolic: frozenset is immutable")
	}
	ve, err := asExpr(v)
	if err != nil {
		return SetVariant{}, err
	}
	wasIn, err := st.ChoosePossible(ctx, smt.Select(s.arr, ve), false)
	if err != nil {
		return SetVariant{}, err
	}
	newArr := smt.Store(s.arr, ve, smt.BoolConst(false))
	newLen := s.length
	if wasIn {
		newLen = NewInt(s.Snapshot(), smt.Sub(s.length.expr, smt.IntConst(1)))
	}
	return NewSet(s.Snapshot(), s.elemKind, newArr, newLen), nil
}

// SetIterator is the Set analogue of DictIterator: the backing array is
// `K -> Bool` rather than `K -> Optional<V>`, so each step picks a fresh
// candidate element, forces the branch where it's actually a member, yields
// it, and clears it from the array before continuing. See DictIterator's
// comment for the termination and inconsistency handling, which is shared.
type SetIterator struct {
	elemKind VKind
	arr      smt.Expr
	count    Int
	snap     heap.Snapshot
}

// Iter starts iteration over s's elements.
func (s SetVariant) Iter() *SetIterator {
	return &SetIterator{elemKind: s.elemKind, arr: s.arr, count: s.length, snap: s.Snapshot()}
}

// Next reports whether another element remains and, if so, that element.
func (it *SetIterator) Next(ctx context.Context, st *statespace.State) (Value, bool, error) {
	done, err := st.ChoosePossible(ctx, smt.Eq(it.count.expr, smt.IntConst(0)), false)
	if err != nil {
		return nil, false, err
	}
	if done {
		return nil, false, nil
	}

	elSort := elemSort(it.elemKind)
	elem := st.Solver().DeclareConst(nextIterName("setiter")+".v", elSort)

	member, err := st.ChoosePossible(ctx, smt.Select(it.arr, elem), true)
	if err != nil {
		return nil, false, err
	}
	if !member {
		return nil, false, fmt.Errorf("symbolic: set iterator: %w", statespace.ErrUnexploredPath)
	}

	val, err := lift(it.elemKind, it.snap, elem)
	if err != nil {
		return nil, false, err
	}

	it.arr = smt.Store(it.arr, elem, smt.BoolConst(false))
	it.count = NewInt(it.snap, smt.Sub(it.count.expr, smt.IntConst(1)))

	return val, true, nil
}
