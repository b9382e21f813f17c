// Package heap implements the engine's process-wide, snapshot-indexed
// object store (spec §3 "Heap", §4.3). A snapshot is created whenever a
// symbolic value is shallow-copied or mutated; lookups re-materialize the
// referent at the value's own snapshot, not the current one, which is what
// gives the mutation auditor (§4.9 step 5) independent old/new pairs to
// compare without having to deep-copy eagerly.
package heap

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// Ref is the opaque HeapRef handle referenced throughout spec §3/§4.3.
type Ref struct {
	id uuid.UUID
}

// NewRef allocates a fresh, globally unique reference.
func NewRef() Ref { return Ref{id: uuid.New()} }

// Hash satisfies heap.Key for use as a PersistentMap key.
func (r Ref) Hash() uint32 {
	h := fnv.New32a()
	b := r.id
	h.Write(b[:])
	return h.Sum32()
}

func (r Ref) String() string { return r.id.String() }

// Object is whatever the engine has materialized at a (Ref, Snapshot) pair:
// a *symbolic.Proxy, a plain Go value standing in for a user object's
// field set, or anything else a Proxy Factory constructs.
type Object any

// Snapshot identifies a heap generation, per spec §3's Heap invariant:
// once a (ref, snapshot) pair is set it is immutable; mutation produces a
// new snapshot rather than overwriting the old one.
type Snapshot int

// Heap is the object store of one Engine: engine.New creates it once, and
// every target analyzed through that Engine shares it. It is append-only:
// generations only grow, never shrink.
type Heap struct {
	gen      []*PersistentMap[Ref, Object]
	identity map[any]Ref
}

// New returns an empty Heap at snapshot 0.
func New() *Heap {
	return &Heap{
		gen:      []*PersistentMap[Ref, Object]{Empty[Ref, Object]()},
		identity: make(map[any]Ref),
	}
}

// CurrentSnapshot returns the most recent snapshot index.
func (h *Heap) CurrentSnapshot() Snapshot { return Snapshot(len(h.gen) - 1) }

// FindValInHeap returns the Ref previously allocated for identity, or
// allocates and records a new one on first encounter. identity must be a
// comparable Go value that uniquely names the underlying object — callers
// pass a pointer (the object's own address) so aliasing is preserved.
func (h *Heap) FindValInHeap(identity any) Ref {
	if ref, ok := h.identity[identity]; ok {
		return ref
	}
	ref := NewRef()
	h.identity[identity] = ref
	return ref
}

// FindKeyInHeap materializes the object at (ref, snapshot), calling
// makeProxy to synthesize it on first access at that snapshot. Once
// materialized, the same (ref, snapshot) pair always returns the same
// object: a later mutation must go through Mutate, which advances the
// snapshot rather than overwriting this one.
func (h *Heap) FindKeyInHeap(ref Ref, snapshot Snapshot, makeProxy func() Object) Object {
	m := h.at(snapshot)
	if v, ok := m.Get(ref); ok {
		return v
	}
	v := makeProxy()
	h.gen[snapshot] = m.Set(ref, v)
	return v
}

// Mutate records a new value for ref in a new generation built from the
// current one, returning the new snapshot. Every earlier snapshot keeps
// seeing the old value: PersistentMap.Set never touches the map it was
// called on.
func (h *Heap) Mutate(ref Ref, obj Object) Snapshot {
	cur := h.at(h.CurrentSnapshot())
	h.gen = append(h.gen, cur.Set(ref, obj))
	return h.CurrentSnapshot()
}

// Checkpoint duplicates the current generation as a new snapshot with no
// changes, so later writes land on a fresh generation without disturbing
// anyone still holding the old snapshot index. Used when the engine shallow
// copies a symbolic container (spec §3's Heap invariant).
func (h *Heap) Checkpoint() Snapshot {
	h.gen = append(h.gen, h.at(h.CurrentSnapshot()))
	return h.CurrentSnapshot()
}

func (h *Heap) at(s Snapshot) *PersistentMap[Ref, Object] {
	if int(s) < 0 || int(s) >= len(h.gen) {
		return Empty[Ref, Object]()
	}
	return h.gen[s]
}
