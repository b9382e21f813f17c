package symbolic

import (
	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// Proxy is spec §4.6's synthesized user-class instance: either the result
// of "concrete instantiation with symbolic members" (constructed via the
// type's constructor with a symbolic argument per declared parameter) or
// an "opaque proxy" (symbolic values installed directly on its attributes
// without going through a constructor). Both shapes share this
// representation; Opaque only records which path produced it for
// diagnostics.
type Proxy struct {
	base
	Fields map[string]Value
	Opaque bool
}

func NewProxy(snap heap.Snapshot, t typerepo.PType, fields map[string]Value, opaque bool) *Proxy {
	return &Proxy{base: base{nominal: t, snapshot: snap}, Fields: fields, Opaque: opaque}
}

func (p *Proxy) VKind() VKind { return KProxy }

// Field returns the named attribute; attributes absent from Fields are
// already-concrete values installed by the constructor body rather than by
// the Proxy Factory, per spec §4.6's guarantee that "attributes are
// themselves symbolic unless already concrete" — callers falling through
// to a zero value here are expected to consult the underlying Go struct
// instance instead (constructed-instantiation path), not this map.
func (p *Proxy) Field(name string) (Value, bool) {
	v, ok := p.Fields[name]
	return v, ok
}

// ForgetField replaces one field in place with a freshly obtained value.
// Forget (forget_contents) does not call it: Forget returns a new Proxy
// with every field forgotten instead.
func (p *Proxy) ForgetField(name string, fresh Value) {
	if p.Fields == nil {
		p.Fields = map[string]Value{}
	}
	p.Fields[name] = fresh
}
