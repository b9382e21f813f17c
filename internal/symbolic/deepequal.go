package symbolic

import (
	"fmt"

	"github.com/crosshair-go/symex/internal/smt"
)

// visitKey identifies one (a, b) pair visited during a DeepEqual descent,
// by pointer identity for reference-shaped variants. Scalars can never
// participate in a cycle so they never need a key.
type visitKey struct{ a, b *Proxy }

// DeepEqual implements spec §4.9's mutation-audit comparison: symbolic
// values compare via Equal (producing a further solver obligation); dicts
// by key-set and per-key; sets by length and at every element either
// side's write history touched; sequences by length only, with no
// elementwise comparison (see deepEqualSeq); proxy objects by their field
// map; cycles are broken by an id-pair visited set (spec §9's
// "deep-equality must detect cycles"). visited may be nil. The returned Bool is a
// solver-level equality obligation the caller asserts and checks, not a Go
// bool — the comparison is itself symbolic.
func DeepEqual(a, b Value, visited map[visitKey]bool) (Bool, error) {
	if a.VKind() != b.VKind() {
		return trivialBool(a, false), nil
	}

	switch av := a.(type) {
	case Bool, Int, Float, Str, TypeVal, Callable:
		return Equal(a, b)

	case Seq:
		bv := b.(Seq)
		return deepEqualSeq(av, bv, visited)
	case Tuple:
		bv := b.(Tuple)
		return deepEqualSeq(av.Seq, bv.Seq, visited)

	case Dict:
		bv := b.(Dict)
		return deepEqualDict(av, bv, visited)

	case SetVariant:
		bv := b.(SetVariant)
		return deepEqualSet(av, bv, visited)

	case *Proxy:
		bv, ok := b.(*Proxy)
		if !ok {
			return trivialBool(a, false), nil
		}
		return deepEqualProxy(av, bv, visited)

	case *LazyObject:
		// Unforced lazy objects are engine bookkeeping, not yet observed
		// program state; per spec §4.9's "bare object() instances as
		// always-equal (they are engine artifacts)", an unforced pair
		// compares equal without forcing realization as a side effect of
		// auditing.
		return trivialBool(a, true), nil

	default:
		return Bool{}, fmt.Errorf("symbolic: DeepEqual: unsupported variant %v", a.VKind())
	}
}

func trivialBool(v Value, val bool) Bool {
	return NewBool(v.Snapshot(), smt.BoolConst(val))
}

// collectArrayKeys walks an array expression's write history (Store chains,
// and either side of an Ite should one ever back a container array) and
// returns every key expression the history mentions. Select at any key
// outside this set falls back to the same range default on both sides (spec
// §3's array-with-default model), so comparing this set is enough to catch
// any divergence a Store could have introduced.
func collectArrayKeys(arr smt.Expr) []smt.Expr {
	var keys []smt.Expr
	for {
		switch arr.Op {
		case smt.OpStore:
			keys = append(keys, arr.Args[1])
			arr = arr.Args[0]
			continue
		case smt.OpIte:
			keys = append(keys, collectArrayKeys(arr.Args[1])...)
			keys = append(keys, collectArrayKeys(arr.Args[2])...)
		}
		return keys
	}
}

// deepEqualSeq has no per-element check to add beyond length: this port
// exposes no Seq mutator (list item assignment isn't implemented), so a
// Seq's backing array is never reached by a Store between the snapshot and
// the mutation audit, and length equality is already the whole obligation.
// Revisit this once list item assignment lands (spec §4.4).
func deepEqualSeq(a, b Seq, visited map[visitKey]bool) (Bool, error) {
	return Equal(a.Len(), b.Len())
}

// deepEqualDict implements spec §4.9's "dicts by key-set and per-key":
// length stands in for key-set size, and every key either side's Store
// history ever touched is compared via Select, which is exactly the
// Optional<V> the two dicts hold at that key (present/missing included).
func deepEqualDict(a, b Dict, visited map[visitKey]bool) (Bool, error) {
	result, err := Equal(a.Len(), b.Len())
	if err != nil {
		return Bool{}, err
	}
	keys := append(collectArrayKeys(a.arr), collectArrayKeys(b.arr)...)
	for _, k := range keys {
		eq := NewBool(a.Snapshot(), smt.Eq(smt.Select(a.arr, k), smt.Select(b.arr, k)))
		result = LogicalAnd(result, eq)
	}
	return result, nil
}

// deepEqualSet mirrors deepEqualDict: the backing array holds Bool instead
// of Optional<V>, so Select at every touched key has to agree.
func deepEqualSet(a, b SetVariant, visited map[visitKey]bool) (Bool, error) {
	result, err := Equal(a.Len(), b.Len())
	if err != nil {
		return Bool{}, err
	}
	keys := append(collectArrayKeys(a.arr), collectArrayKeys(b.arr)...)
	for _, k := range keys {
		eq := NewBool(a.Snapshot(), smt.Eq(smt.Select(a.arr, k), smt.Select(b.arr, k)))
		result = LogicalAnd(result, eq)
	}
	return result, nil
}

func deepEqualProxy(a, b *Proxy, visited map[visitKey]bool) (Bool, error) {
	if visited == nil {
		visited = map[visitKey]bool{}
	}
	key := visitKey{a, b}
	if visited[key] {
		return trivialBool(a, true), nil
	}
	visited[key] = true

	if len(a.Fields) != len(b.Fields) {
		return trivialBool(a, false), nil
	}

	result := trivialBool(a, true)
	for name, av := range a.Fields {
		bv, ok := b.Fields[name]
		if !ok {
			return trivialBool(a, false), nil
		}
		eq, err := DeepEqual(av, bv, visited)
		if err != nil {
			return Bool{}, err
		}
		result = LogicalAnd(result, eq)
	}
	return result, nil
}
