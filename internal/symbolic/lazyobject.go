package symbolic

import (
	"context"
	"sync/atomic"

	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// ProxyFactory is the minimal surface LazyObject needs to realize itself,
// satisfied by internal/proxyfactory.Factory. Declared here (not imported
// there) to avoid a symbolic <-> proxyfactory import cycle, the same
// consumer-defines-the-interface shape the teacher uses for its own
// generator/evaluator boundary.
type ProxyFactory interface {
	ProxyForConcreteType(ctx context.Context, st *statespace.State, t typerepo.PType, name string) (Value, error)
}

// LazyObject is spec §3/§4.4's ObjectOfUnknownType: it holds (typeval,
// varname) until first forced, at which point the cap is consulted to
// choose a concrete subtype and the object is replaced in place by a
// freshly synthesized proxy. RealizationCount tracks how many times Force
// was called on the object, folded back from the original's
// CrossHairValue registration counters (SPEC_FULL §2 supplemented
// features) to support the "type cap tightening" testable property.
type LazyObject struct {
	base
	typeval TypeVal
	varname string
	factory ProxyFactory

	forced          bool
	materialized    Value
	realizationHits int64
}

func NewLazyObject(tv TypeVal, varname string, factory ProxyFactory) *LazyObject {
	return &LazyObject{base: tv.base, typeval: tv, varname: varname, factory: factory}
}

func (l *LazyObject) VKind() VKind { return KLazyObject }

// RealizationCount reports how many times Force has been called on this
// object. Only the first successful call materializes a proxy; later calls
// return that same proxy and still add one to the count, and so does a
// call whose realization fails.
func (l *LazyObject) RealizationCount() int64 { return atomic.LoadInt64(&l.realizationHits) }

// IsInstance evaluates isinstance(l, target) without forcing realization:
// it forks on the typeval's cap the same way TypeVal.IsSubclassOf does and,
// on a True branch, persists the tightened cap back onto this object so a
// later isinstance check (or eventual Force) observes it (spec §8's "type
// cap tightening" testable property). Once forced, it defers to the
// materialized value's own nominal type instead.
func (l *LazyObject) IsInstance(ctx context.Context, st *statespace.State, repo *typerepo.Repo, target typerepo.PType) (bool, error) {
	if l.forced {
		return repo.Issubclass(l.materialized.NominalType().Tag(), target.Tag()), nil
	}
	yes, tightened, err := l.typeval.IsSubclassOf(ctx, st, repo, target)
	if err != nil {
		return false, err
	}
	l.typeval = tightened
	return yes, nil
}

// Force realizes the object on first access: it picks a concrete subtype
// of the typeval's cap and synthesizes a proxy of that type, replacing its
// own identity in place so subsequent Force calls return the same value
// (spec §9's "interior mutable cell, single-threaded, no sharing across
// paths, switches arms on first observation").
func (l *LazyObject) Force(ctx context.Context, st *statespace.State, repo *typerepo.Repo) (Value, error) {
	atomic.AddInt64(&l.realizationHits, 1)
	if l.forced {
		return l.materialized, nil
	}
	concrete, err := l.typeval.Realize(ctx, st, repo)
	if err != nil {
		return nil, err
	}
	v, err := l.factory.ProxyForConcreteType(ctx, st, concrete, l.varname)
	if err != nil {
		return nil, err
	}
	l.forced = true
	l.materialized = v
	return v, nil
}
