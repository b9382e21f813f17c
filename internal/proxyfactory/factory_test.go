package proxyfactory

import (
	"context"
	"testing"
	"time"

	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/symbolic"
	"github.com/crosshair-go/symex/internal/typerepo"
)

type fakeRegistry map[string]ClassDescriptor

func (r fakeRegistry) Lookup(t typerepo.PType) (ClassDescriptor, bool) {
	d, ok := r[t.Tag()]
	return d, ok
}

func newTestFactory(registry ClassRegistry) (*Factory, *statespace.State) {
	solver := smt.New(200 * time.Millisecond)
	st := statespace.New(solver, statespace.NewRoot(), time.Second, 256)
	repo := typerepo.New(nil)
	return New(repo, registry, nil), st
}

func TestProxyForTypeScalarDeclaresFreshConst(t *testing.T) {
	f, st := newTestFactory(fakeRegistry{})
	ctx := context.Background()

	v1, err := f.ProxyForType(ctx, st, heap.Snapshot(0), Int(), "n", false, false)
	if err != nil {
		t.Fatalf("ProxyForType: %v", err)
	}
	v2, err := f.ProxyForType(ctx, st, heap.Snapshot(0), Int(), "n", false, false)
	if err != nil {
		t.Fatalf("ProxyForType: %v", err)
	}
	if v1.VKind() != symbolic.KInt || v2.VKind() != symbolic.KInt {
		t.Fatalf("expected both proxies to be Int, got %v and %v", v1.VKind(), v2.VKind())
	}
	e1 := v1.(symbolic.Int).Expr()
	e2 := v2.(symbolic.Int).Expr()
	if e1.Value == e2.Value {
		t.Fatalf("expected two calls for the same name to declare distinct fresh constants, got identical %v", e1.Value)
	}
}

func TestProxyForTypeUnionForksOverArms(t *testing.T) {
	f, st := newTestFactory(fakeRegistry{})
	ctx := context.Background()

	v, err := f.ProxyForType(ctx, st, heap.Snapshot(0), UnionOf(Int(), Str()), "u", false, false)
	if err != nil {
		t.Fatalf("ProxyForType: %v", err)
	}
	if v.VKind() != symbolic.KInt && v.VKind() != symbolic.KStr {
		t.Fatalf("expected union to resolve to one of its arms, got %v", v.VKind())
	}
}

func TestProxyForTypeSeqDeclaresArrayAndNonNegativeLength(t *testing.T) {
	f, st := newTestFactory(fakeRegistry{})
	ctx := context.Background()

	v, err := f.ProxyForType(ctx, st, heap.Snapshot(0), SeqOf(Int()), "xs", false, false)
	if err != nil {
		t.Fatalf("ProxyForType: %v", err)
	}
	seq, ok := v.(symbolic.Seq)
	if !ok {
		t.Fatalf("expected a Seq, got %T", v)
	}
	res, m, err := st.Solver().CheckSat(ctx)
	if err != nil || res != smt.Sat {
		t.Fatalf("expected sat, got %v err %v", res, err)
	}
	lv, err := m.Eval(seq.Len().Expr())
	if err != nil {
		t.Fatalf("eval len: %v", err)
	}
	if lv.(int64) < 0 {
		t.Fatalf("expected length >= 0, got %v", lv)
	}
}

func TestProxyForTypeClassUsesConstructorWhenRegistered(t *testing.T) {
	pointType := typerepo.PType{Name: "Point"}
	built := false
	registry := fakeRegistry{
		pointType.Tag(): {
			Type: pointType,
			Params: []Param{
				{Name: "x", Type: Int()},
				{Name: "y", Type: Int()},
			},
			Construct: func(ctx context.Context, st *statespace.State, args map[string]symbolic.Value) (*symbolic.Proxy, error) {
				built = true
				return symbolic.NewProxy(heap.Snapshot(0), pointType, args, false), nil
			},
		},
	}
	f, st := newTestFactory(registry)
	ctx := context.Background()

	v, err := f.ProxyForType(ctx, st, heap.Snapshot(0), ClassOf(pointType), "p", false, false)
	if err != nil {
		t.Fatalf("ProxyForType: %v", err)
	}
	if !built {
		t.Fatalf("expected the registered constructor to be invoked")
	}
	p, ok := v.(*symbolic.Proxy)
	if !ok {
		t.Fatalf("expected *symbolic.Proxy, got %T", v)
	}
	if p.Opaque {
		t.Fatalf("expected a constructed (non-opaque) proxy")
	}
	if _, ok := p.Field("x"); !ok {
		t.Fatalf("expected field x to be populated from the constructor argument")
	}
}

func TestProxyForTypeClassFallsBackToOpaqueWhenConstructorFails(t *testing.T) {
	pointType := typerepo.PType{Name: "Point"}
	registry := fakeRegistry{
		pointType.Tag(): {
			Type:   pointType,
			Params: []Param{{Name: "x", Type: Int()}},
			Construct: func(ctx context.Context, st *statespace.State, args map[string]symbolic.Value) (*symbolic.Proxy, error) {
				return nil, errConstructorFailed
			},
		},
	}
	f, st := newTestFactory(registry)
	ctx := context.Background()

	v, err := f.ProxyForType(ctx, st, heap.Snapshot(0), ClassOf(pointType), "p", false, false)
	if err != nil {
		t.Fatalf("ProxyForType: %v", err)
	}
	p, ok := v.(*symbolic.Proxy)
	if !ok || !p.Opaque {
		t.Fatalf("expected an opaque proxy fallback, got %#v", v)
	}
}

func TestProxyForTypeClassWithoutRegistrationIsOpaque(t *testing.T) {
	unknownType := typerepo.PType{Name: "Unknown"}
	f, st := newTestFactory(fakeRegistry{})
	ctx := context.Background()

	v, err := f.ProxyForType(ctx, st, heap.Snapshot(0), ClassOf(unknownType), "u", false, false)
	if err != nil {
		t.Fatalf("ProxyForType: %v", err)
	}
	p, ok := v.(*symbolic.Proxy)
	if !ok || !p.Opaque {
		t.Fatalf("expected an opaque proxy for an unregistered class, got %#v", v)
	}
}

func TestProxyForTypeInvariantViolationAbandonsPath(t *testing.T) {
	pointType := typerepo.PType{Name: "Point"}
	registry := fakeRegistry{
		pointType.Tag(): {
			Type: pointType,
			Invariants: []Invariant{
				func(ctx context.Context, st *statespace.State, v symbolic.Value) (symbolic.Bool, error) {
					return symbolic.NewBool(heap.Snapshot(0), smt.BoolConst(false)), nil
				},
			},
		},
	}
	f, st := newTestFactory(registry)
	ctx := context.Background()

	_, err := f.ProxyForType(ctx, st, heap.Snapshot(0), ClassOf(pointType), "p", true, false)
	if err != ErrInvariantViolated {
		t.Fatalf("expected ErrInvariantViolated, got %v", err)
	}
}

var errConstructorFailed = constructorError("constructor raised")

type constructorError string

func (e constructorError) Error() string { return string(e) }
