package proxyfactory

import (
	"context"
	"errors"
	"fmt"

	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/symbolic"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// ErrInvariantViolated is returned when a synthesized instance fails one of
// its class invariants under meet_invariants (spec §4.6: "on failure,
// abandon the path").
var ErrInvariantViolated = errors.New("proxyfactory: class invariant violated by synthesized instance")

// Factory is spec §4.6's Proxy Factory.
type Factory struct {
	repo     *typerepo.Repo
	registry ClassRegistry
	hp       *heap.Heap
	seq      int
}

// New returns a Factory backed by repo (for subclasses_of/issubclass, used
// by the subtype roll and by LazyObject.Force's realized-type lookup) and
// registry (for constructor signatures and invariants). hp may be nil; it
// is only consulted by ProxyForConcreteType, which has no caller-supplied
// snapshot to work with (LazyObject.Force calls it through the
// symbolic.ProxyFactory interface).
func New(repo *typerepo.Repo, registry ClassRegistry, hp *heap.Heap) *Factory {
	return &Factory{repo: repo, registry: registry, hp: hp}
}

func (f *Factory) fresh(name string) string {
	f.seq++
	return fmt.Sprintf("%s$%d", name, f.seq)
}

// ProxyForType implements proxy_for_type (spec §4.6).
func (f *Factory) ProxyForType(ctx context.Context, st *statespace.State, snap heap.Snapshot, t TypeSpec, name string, meetInvariants, allowSubtypes bool) (symbolic.Value, error) {
	t = normalize(t)

	switch t.Kind {
	case KBool:
		return symbolic.NewBool(snap, st.Solver().DeclareConst(f.fresh(name), smt.Bool())), nil
	case KInt:
		return symbolic.NewInt(snap, st.Solver().DeclareConst(f.fresh(name), smt.Int())), nil
	case KFloat:
		return symbolic.NewFloat(snap, st.Solver().DeclareConst(f.fresh(name), smt.Real())), nil
	case KStr:
		return symbolic.NewStr(snap, st.Solver().DeclareConst(f.fresh(name), smt.Str())), nil

	case KUnion:
		return f.proxyForUnion(ctx, st, snap, t, name, meetInvariants, allowSubtypes)

	case KSeq, KTuple:
		return f.proxyForSeq(st, snap, t, name)
	case KDict:
		return f.proxyForDict(st, snap, t, name)
	case KSet, KFrozenSet:
		return f.proxyForSet(st, snap, t, name)
	case KCallable:
		return f.proxyForCallable(snap, t, name)

	case KClass:
		return f.proxyForClass(ctx, st, snap, t.Class, name, meetInvariants, allowSubtypes)

	default:
		return nil, fmt.Errorf("proxyfactory: unsupported type spec kind %v", t.Kind)
	}
}

// ProxyForConcreteType satisfies symbolic.ProxyFactory: it realizes a
// LazyObject's chosen concrete type with invariants enforced and no
// further subtype roll (TypeVal.Realize already walked the subclass
// lattice to pick this exact type).
func (f *Factory) ProxyForConcreteType(ctx context.Context, st *statespace.State, t typerepo.PType, name string) (symbolic.Value, error) {
	snap := heap.Snapshot(0)
	if f.hp != nil {
		snap = f.hp.CurrentSnapshot()
	}
	return f.proxyForClass(ctx, st, snap, t, name, true, false)
}

// proxyForUnion forks over the union's arms (spec §4.6's second bullet):
// each non-final arm gets an unguided fork deciding whether this is the
// arm taken; the final arm needs no fork since it's the only one left.
func (f *Factory) proxyForUnion(ctx context.Context, st *statespace.State, snap heap.Snapshot, t TypeSpec, name string, meetInvariants, allowSubtypes bool) (symbolic.Value, error) {
	if len(t.Arms) == 0 {
		return nil, fmt.Errorf("proxyfactory: empty union type")
	}
	for i, arm := range t.Arms {
		if i == len(t.Arms)-1 {
			return f.ProxyForType(ctx, st, snap, arm, name, meetInvariants, allowSubtypes)
		}
		chosen, err := st.SmtFork(ctx, nil)
		if err != nil {
			return nil, err
		}
		if chosen {
			return f.ProxyForType(ctx, st, snap, arm, name, meetInvariants, allowSubtypes)
		}
	}
	panic("unreachable")
}

func vkindOf(t TypeSpec) (symbolic.VKind, bool) {
	switch t.Kind {
	case KBool:
		return symbolic.KBool, true
	case KInt:
		return symbolic.KInt, true
	case KFloat:
		return symbolic.KFloat, true
	case KStr:
		return symbolic.KStr, true
	default:
		return 0, false
	}
}

// elemSort mirrors internal/symbolic's unexported helper of the same name
// (container element kinds other than the four scalars need a heap
// indirection that, per the note on internal/symbolic/container.go's lift,
// this port does not model).
func elemSort(k symbolic.VKind) smt.Sort {
	switch k {
	case symbolic.KBool:
		return smt.Bool()
	case symbolic.KInt:
		return smt.Int()
	case symbolic.KFloat:
		return smt.Real()
	case symbolic.KStr:
		return smt.Str()
	default:
		return smt.HeapRef()
	}
}

func (f *Factory) proxyForSeq(st *statespace.State, snap heap.Snapshot, t TypeSpec, name string) (symbolic.Value, error) {
	ek, ok := vkindOf(*t.Elem)
	if !ok {
		return nil, fmt.Errorf("proxyfactory: unsupported sequence element type")
	}
	arr := st.Solver().DeclareConst(f.fresh(name+".arr"), smt.Array(smt.Int(), elemSort(ek)))
	length := symbolic.NewInt(snap, st.Solver().DeclareConst(f.fresh(name+".len"), smt.Int()))
	st.Solver().Assert(smt.Ge(length.Expr(), smt.IntConst(0)))
	if t.Kind == KTuple {
		return symbolic.NewTuple(snap, ek, arr, length), nil
	}
	return symbolic.NewSeq(snap, ek, arr, length), nil
}

func (f *Factory) proxyForDict(st *statespace.State, snap heap.Snapshot, t TypeSpec, name string) (symbolic.Value, error) {
	kk, ok := vkindOf(*t.Key)
	if !ok {
		return nil, fmt.Errorf("proxyfactory: unsupported dict key type")
	}
	vk, ok := vkindOf(*t.Val)
	if !ok {
		return nil, fmt.Errorf("proxyfactory: unsupported dict value type")
	}
	arr := st.Solver().DeclareConst(f.fresh(name+".arr"), smt.Array(elemSort(kk), smt.Optional(elemSort(vk))))
	length := symbolic.NewInt(snap, st.Solver().DeclareConst(f.fresh(name+".len"), smt.Int()))
	st.Solver().Assert(smt.Ge(length.Expr(), smt.IntConst(0)))
	return symbolic.NewDict(snap, kk, vk, arr, length), nil
}

func (f *Factory) proxyForSet(st *statespace.State, snap heap.Snapshot, t TypeSpec, name string) (symbolic.Value, error) {
	ek, ok := vkindOf(*t.Elem)
	if !ok {
		return nil, fmt.Errorf("proxyfactory: unsupported set element type")
	}
	arr := st.Solver().DeclareConst(f.fresh(name+".arr"), smt.Array(elemSort(ek), smt.Bool()))
	length := symbolic.NewInt(snap, st.Solver().DeclareConst(f.fresh(name+".len"), smt.Int()))
	st.Solver().Assert(smt.Ge(length.Expr(), smt.IntConst(0)))
	if t.Kind == KFrozenSet {
		return symbolic.NewFrozenSet(snap, ek, arr, length), nil
	}
	return symbolic.NewSet(snap, ek, arr, length), nil
}

func (f *Factory) proxyForCallable(snap heap.Snapshot, t TypeSpec, name string) (symbolic.Value, error) {
	params := make([]smt.Sort, len(t.Params))
	for i, p := range t.Params {
		pk, ok := vkindOf(p)
		if !ok {
			return nil, fmt.Errorf("proxyfactory: unsupported callable parameter type at index %d", i)
		}
		params[i] = elemSort(pk)
	}
	rk, ok := vkindOf(*t.Ret)
	if !ok {
		return nil, fmt.Errorf("proxyfactory: unsupported callable return type")
	}
	return symbolic.NewCallable(snap, f.fresh(name), params, elemSort(rk)), nil
}

// proxyForClass implements the user-class branch of proxy_for_type: an
// optional subtype roll, then concrete instantiation via the registered
// constructor, falling back to an opaque proxy, then invariant checking.
func (f *Factory) proxyForClass(ctx context.Context, st *statespace.State, snap heap.Snapshot, cls typerepo.PType, name string, meetInvariants, allowSubtypes bool) (symbolic.Value, error) {
	f.repo.Register(cls)
	resolved := cls
	if allowSubtypes {
		var err error
		resolved, err = f.rollSubtype(ctx, st, cls)
		if err != nil {
			return nil, err
		}
	}

	var desc ClassDescriptor
	if f.registry != nil {
		desc, _ = f.registry.Lookup(resolved)
	}

	var result symbolic.Value
	if desc.Construct != nil {
		args := make(map[string]symbolic.Value, len(desc.Params))
		for _, p := range desc.Params {
			v, err := f.ProxyForType(ctx, st, snap, p.Type, name+"."+p.Name, meetInvariants, allowSubtypes)
			if err != nil {
				return nil, err
			}
			args[p.Name] = v
		}
		proxy, err := desc.Construct(ctx, st, args)
		if err != nil {
			result, err = f.opaqueProxy(ctx, st, snap, resolved, desc, name, meetInvariants, allowSubtypes)
			if err != nil {
				return nil, err
			}
		} else {
			result = proxy
		}
	} else {
		var err error
		result, err = f.opaqueProxy(ctx, st, snap, resolved, desc, name, meetInvariants, allowSubtypes)
		if err != nil {
			return nil, err
		}
	}

	if meetInvariants {
		for _, inv := range desc.Invariants {
			cond, err := inv(ctx, st, result)
			if err != nil {
				return nil, err
			}
			holds, err := st.ChoosePossible(ctx, cond.Expr(), true)
			if err != nil {
				return nil, err
			}
			if !holds {
				return nil, ErrInvariantViolated
			}
		}
	}
	return result, nil
}

// opaqueProxy builds spec §4.6's fallback shape: a proxy subclassing T with
// a symbolic value installed directly per declared attribute, used both
// when there is no registered constructor and when the constructor raised.
func (f *Factory) opaqueProxy(ctx context.Context, st *statespace.State, snap heap.Snapshot, t typerepo.PType, desc ClassDescriptor, name string, meetInvariants, allowSubtypes bool) (*symbolic.Proxy, error) {
	fields := make(map[string]symbolic.Value, len(desc.Params))
	for _, p := range desc.Params {
		v, err := f.ProxyForType(ctx, st, snap, p.Type, name+"."+p.Name, meetInvariants, allowSubtypes)
		if err != nil {
			return nil, err
		}
		fields[p.Name] = v
	}
	return symbolic.NewProxy(snap, t, fields, true), nil
}

// rollSubtype performs the "allow_subtypes... subtype roll before
// instantiation" bullet: an unguided fork per candidate subtype, stopping
// at the first one chosen, defaulting to cls itself if none are.
func (f *Factory) rollSubtype(ctx context.Context, st *statespace.State, cls typerepo.PType) (typerepo.PType, error) {
	candidates, err := f.repo.SubclassesOf(cls)
	if err != nil {
		return typerepo.PType{}, err
	}
	for _, cand := range candidates {
		if cand.Tag() == cls.Tag() {
			continue
		}
		chosen, err := st.SmtFork(ctx, nil)
		if err != nil {
			return typerepo.PType{}, err
		}
		if chosen {
			return cand, nil
		}
	}
	return cls, nil
}
